// Package inventory tracks which documents define which frontmatter
// keys. Each dotted key maps to a roaring bitmap of document ordinals,
// so coverage queries stay O(keys) regardless of input size.
package inventory

import (
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/collate/internal/pathmodel"
)

// Index maps dotted frontmatter keys to the set of documents that
// define them. Not safe for concurrent use; callers add documents from
// the single-threaded accumulation step.
type Index struct {
	keys map[string]*roaring.Bitmap
	next uint32
}

func New() *Index {
	return &Index{keys: make(map[string]*roaring.Bitmap)}
}

// Add assigns the next document ordinal and indexes every key of the
// model. Returns the assigned ordinal.
func (ix *Index) Add(m pathmodel.Model) uint32 {
	ord := ix.next
	ix.next++
	for _, key := range m.AllKeys() {
		bm, ok := ix.keys[key]
		if !ok {
			bm = roaring.New()
			ix.keys[key] = bm
		}
		bm.Add(ord)
	}
	return ord
}

// Documents returns how many documents have been indexed.
func (ix *Index) Documents() int { return int(ix.next) }

// Keys returns every indexed dotted key, sorted.
func (ix *Index) Keys() []string {
	out := make([]string, 0, len(ix.keys))
	for k := range ix.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Coverage describes how widely one key is defined across the input set.
type Coverage struct {
	Key      string
	Count    int
	Fraction float64
}

// Coverage reports per-key document coverage, sorted by key.
func (ix *Index) Coverage() []Coverage {
	total := ix.Documents()
	out := make([]Coverage, 0, len(ix.keys))
	for _, key := range ix.Keys() {
		count := int(ix.keys[key].GetCardinality())
		c := Coverage{Key: key, Count: count}
		if total > 0 {
			c.Fraction = float64(count) / float64(total)
		}
		out = append(out, c)
	}
	return out
}

// DocumentsFor returns the ordinals of documents defining the key.
func (ix *Index) DocumentsFor(key string) []uint32 {
	bm, ok := ix.keys[key]
	if !ok {
		return nil
	}
	return bm.ToArray()
}
