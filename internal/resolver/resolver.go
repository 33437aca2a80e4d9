// Package resolver decides where per-document payloads belong in the
// output structure, purely from x-frontmatter-part schema annotations,
// and synthesizes that structure.
package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agentic-research/collate/api"
	"github.com/agentic-research/collate/internal/pathmodel"
)

// ErrNoInsertionPoints signals a schema without any x-frontmatter-part
// annotation. Recoverable: the caller falls back to a direct merge.
var ErrNoInsertionPoints = errors.New("schema has no x-frontmatter-part annotation")

// ErrSynthesisFailed wraps structural placement failures (conflicting or
// unreachable insertion paths).
var ErrSynthesisFailed = errors.New("structure synthesis failed")

// InsertionPoint is one discovered placement target.
type InsertionPoint struct {
	// Path is the dotted location in the output structure.
	Path string
	// SourceKey redirects the payload to a named frontmatter key of each
	// document; empty means the whole document payload.
	SourceKey string
}

// Nested reports whether the path has more than one segment.
func (p InsertionPoint) Nested() bool { return strings.Contains(p.Path, ".") }

// CollectInsertionPoints walks the schema property tree and returns the
// dotted path of every property carrying x-frontmatter-part, at any
// depth, in deterministic (sorted) order. Multiple independent insertion
// points in one schema are supported.
func CollectInsertionPoints(schema *api.Schema) []InsertionPoint {
	if schema == nil {
		return nil
	}
	var points []InsertionPoint
	collect(schema, "", &points)
	sort.Slice(points, func(i, j int) bool { return points[i].Path < points[j].Path })
	return points
}

func collect(node *api.Schema, prefix string, out *[]InsertionPoint) {
	names := make([]string, 0, len(node.Properties))
	for name := range node.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		prop := node.Properties[name]
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if part, redirect := prop.IsPart(); part {
			*out = append(*out, InsertionPoint{Path: path, SourceKey: redirect})
		}
		collect(prop, path, out)
	}
}

// Resolve places the payloads into the structure the schema describes.
//
// Special cases, in order:
//   - no insertion points: ErrNoInsertionPoints (caller falls back);
//   - zero payloads: the full container skeleton is still built, with a
//     correctly-shaped empty array at every annotated path;
//   - exactly one payload, exactly one point, and that point top-level:
//     the payload is returned unwrapped. Any nested path anywhere in the
//     point set disables the unwrap shortcut.
func Resolve(schema *api.Schema, payloads []map[string]any) (map[string]any, error) {
	points := CollectInsertionPoints(schema)
	if len(points) == 0 {
		return nil, ErrNoInsertionPoints
	}

	if len(payloads) == 1 && len(points) == 1 && !points[0].Nested() {
		if unwrapped, ok := unwrap(points[0], payloads[0]); ok {
			return unwrapped, nil
		}
	}

	return BuildStructure(points, payloads)
}

// unwrap returns the single document's payload directly, avoiding a
// needless wrapping array. Redirected payloads unwrap only when the
// redirected value is itself an object.
func unwrap(point InsertionPoint, payload map[string]any) (map[string]any, bool) {
	if point.SourceKey == "" {
		return payload, true
	}
	v, ok := payload[point.SourceKey]
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// BuildStructure assigns the payload array at every insertion path,
// creating intermediate container objects as needed. With zero payloads
// each annotated path still receives an empty array.
func BuildStructure(points []InsertionPoint, payloads []map[string]any) (map[string]any, error) {
	m := pathmodel.Empty()
	for _, point := range points {
		arr := payloadsFor(point, payloads)
		next, err := m.Set(point.Path, arr)
		if err != nil {
			return nil, fmt.Errorf("%w: place %q: %v", ErrSynthesisFailed, point.Path, err)
		}
		m = next
	}
	return m.Raw(), nil
}

func payloadsFor(point InsertionPoint, payloads []map[string]any) []any {
	arr := make([]any, 0, len(payloads))
	for _, p := range payloads {
		if point.SourceKey == "" {
			arr = append(arr, p)
			continue
		}
		if v, ok := p[point.SourceKey]; ok {
			arr = append(arr, v)
		}
	}
	return arr
}
