// Package pathmodel provides an immutable, path-addressable view over
// parsed frontmatter trees (the map[string]any / []any shape produced by
// YAML and JSON decoders). Every mutation returns a new Model; untouched
// sub-branches are shared by reference, so snapshots taken at earlier
// pipeline stages stay valid for diagnostics.
package pathmodel

import (
	"sort"
	"strconv"
	"strings"
)

// segmentKind discriminates path segments.
type segmentKind int

const (
	segProperty segmentKind = iota
	segIndex
)

// Segment is one step of a parsed path: either a property name or an
// array index.
type Segment struct {
	kind  segmentKind
	name  string
	index int
}

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool { return s.kind == segIndex }

// Name returns the property name for property segments.
func (s Segment) Name() string { return s.name }

// Index returns the array index for index segments.
func (s Segment) Index() int { return s.index }

// ParsePath splits a dotted path into segments. A segment of the form
// "[n]" or a pure non-negative integer addresses an array index; anything
// else is a property name.
func ParsePath(path string) ([]Segment, error) {
	if path == "" {
		return nil, invalidPath(path, "")
	}
	parts := strings.Split(path, ".")
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, invalidPath(path, p)
		}
		if idx, ok := parseIndex(p); ok {
			segs = append(segs, Segment{kind: segIndex, index: idx})
			continue
		}
		segs = append(segs, Segment{kind: segProperty, name: p})
	}
	return segs, nil
}

func parseIndex(s string) (int, bool) {
	raw := s
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		raw = s[1 : len(s)-1]
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// valueKind is the closed classification navigation switches over.
type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

// kindOf classifies a decoded value. Scalars outside the JSON set (YAML
// timestamps, binary) classify as kindString: they are terminal either way.
func kindOf(v any) valueKind {
	switch v.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return kindNumber
	case string:
		return kindString
	case []any:
		return kindArray
	case map[string]any:
		return kindObject
	default:
		return kindString
	}
}

// Model wraps a nested mapping of string keys to JSON-compatible values.
// The zero value is an empty model.
type Model struct {
	root map[string]any
}

// New wraps an existing tree. The tree is adopted, not copied; callers
// must not mutate it afterwards.
func New(root map[string]any) Model {
	return Model{root: root}
}

// Empty returns a model with no keys.
func Empty() Model {
	return Model{}
}

// Raw exposes the underlying mapping. Read-only by convention: mutating
// the result breaks the sharing guarantees of Set.
func (m Model) Raw() map[string]any {
	if m.root == nil {
		return map[string]any{}
	}
	return m.root
}

// IsEmpty reports whether the model holds no top-level keys.
func (m Model) IsEmpty() bool { return len(m.root) == 0 }

// Get resolves a dotted path. Segments are validated left to right: a
// property segment on a non-object or an index segment on a non-array is
// a wrong-shape failure; a missing key or out-of-range index is not-found.
func (m Model) Get(path string) (any, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	var cur any = m.Raw()
	for _, seg := range segs {
		switch seg.kind {
		case segProperty:
			if kindOf(cur) != kindObject {
				return nil, wrongShape(path, seg.name)
			}
			obj := cur.(map[string]any)
			next, ok := obj[seg.name]
			if !ok {
				return nil, notFound(path, seg.name)
			}
			cur = next
		case segIndex:
			if kindOf(cur) != kindArray {
				return nil, wrongShape(path, strconv.Itoa(seg.index))
			}
			arr := cur.([]any)
			if seg.index >= len(arr) {
				return nil, notFound(path, strconv.Itoa(seg.index))
			}
			cur = arr[seg.index]
		}
	}
	return cur, nil
}

// Has reports whether the path resolves.
func (m Model) Has(path string) bool {
	_, err := m.Get(path)
	return err == nil
}

// Set returns a new model with value placed at path. Containers along the
// spine are shallow-copied; everything off the spine is shared with the
// receiver. Missing intermediate objects are created for property
// segments. An index segment may address an existing element or the slot
// one past the end (append); anything further is not-found.
func (m Model) Set(path string, value any) (Model, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return m, err
	}
	if segs[0].kind == segIndex {
		return m, wrongShape(path, strconv.Itoa(segs[0].index))
	}
	newRoot, err := setIn(m.Raw(), segs, value, path)
	if err != nil {
		return m, err
	}
	return Model{root: newRoot.(map[string]any)}, nil
}

func setIn(cur any, segs []Segment, value any, path string) (any, error) {
	seg := segs[0]
	rest := segs[1:]

	switch seg.kind {
	case segProperty:
		if cur == nil {
			cur = map[string]any{}
		}
		if kindOf(cur) != kindObject {
			return nil, wrongShape(path, seg.name)
		}
		obj := cur.(map[string]any)
		cp := make(map[string]any, len(obj)+1)
		for k, v := range obj {
			cp[k] = v
		}
		if len(rest) == 0 {
			cp[seg.name] = value
			return cp, nil
		}
		child := obj[seg.name]
		if child == nil {
			child = containerFor(rest[0])
		}
		next, err := setIn(child, rest, value, path)
		if err != nil {
			return nil, err
		}
		cp[seg.name] = next
		return cp, nil

	case segIndex:
		if cur == nil {
			cur = []any{}
		}
		if kindOf(cur) != kindArray {
			return nil, wrongShape(path, strconv.Itoa(seg.index))
		}
		arr := cur.([]any)
		if seg.index > len(arr) {
			return nil, notFound(path, strconv.Itoa(seg.index))
		}
		cp := make([]any, len(arr), len(arr)+1)
		copy(cp, arr)
		if seg.index == len(arr) {
			cp = append(cp, nil)
		}
		if len(rest) == 0 {
			cp[seg.index] = value
			return cp, nil
		}
		child := cp[seg.index]
		if child == nil {
			child = containerFor(rest[0])
		}
		next, err := setIn(child, rest, value, path)
		if err != nil {
			return nil, err
		}
		cp[seg.index] = next
		return cp, nil
	}
	return nil, invalidPath(path, "")
}

func containerFor(next Segment) any {
	if next.kind == segIndex {
		return []any{}
	}
	return map[string]any{}
}

// Merge combines two models shallowly: top-level keys from other override
// the receiver's. Values are shared, not copied.
func (m Model) Merge(other Model) Model {
	if other.IsEmpty() {
		return m
	}
	if m.IsEmpty() {
		return other
	}
	merged := make(map[string]any, len(m.root)+len(other.root))
	for k, v := range m.root {
		merged[k] = v
	}
	for k, v := range other.root {
		merged[k] = v
	}
	return Model{root: merged}
}

// AllKeys returns every dotted path to a terminal value, sorted. Object
// nesting is expanded recursively; arrays are terminal values and their
// indices are never enumerated.
func (m Model) AllKeys() []string {
	var keys []string
	collectKeys("", m.Raw(), &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(prefix string, obj map[string]any, out *[]string) {
	for k, v := range obj {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok && len(child) > 0 {
			collectKeys(path, child, out)
			continue
		}
		*out = append(*out, path)
	}
}
