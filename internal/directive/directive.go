// Package directive applies document-local, schema-guided transforms:
// array flattening and JMESPath filtering. Both run strictly before any
// cross-document step since they have no cross-document dependency.
package directive

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jmespath/go-jmespath"

	"github.com/agentic-research/collate/api"
	"github.com/agentic-research/collate/internal/pathmodel"
)

// ErrFilterFailed marks a fatal per-document filter failure. Filter
// correctness is schema-author-verified, so a broken expression is never
// silently skipped.
var ErrFilterFailed = errors.New("filter expression failed")

// FilterError carries the failing property and expression.
type FilterError struct {
	Property string
	Expr     string
	Cause    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %q on property %q: %v", e.Expr, e.Property, e.Cause)
}

func (e *FilterError) Unwrap() error { return ErrFilterFailed }

// Apply runs both directive passes in their fixed order: flatten first,
// then filters, because filters may assume a flattened shape. A document
// with no frontmatter or a nil schema passes through unchanged.
func Apply(data pathmodel.Model, schema *api.Schema) (pathmodel.Model, error) {
	if schema == nil || data.IsEmpty() {
		return data, nil
	}
	data = FlattenArrays(data, schema)
	return ApplyFilters(data, schema)
}

// FlattenArrays fully flattens the array value at every frontmatter key
// named by an x-flatten-arrays annotation. Nested arrays collapse to a
// single depth regardless of nesting. Non-array values are left alone.
// When no flattening changed anything, the original model is returned.
func FlattenArrays(data pathmodel.Model, schema *api.Schema) pathmodel.Model {
	if schema == nil {
		return data
	}
	for _, name := range sortedProperties(schema) {
		prop := schema.Properties[name]
		if prop.FlattenArrays == "" {
			continue
		}
		key := prop.FlattenArrays
		v, err := data.Get(key)
		if err != nil {
			continue
		}
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		flat, changed := flatten(arr)
		if !changed {
			continue
		}
		next, err := data.Set(key, flat)
		if err != nil {
			continue
		}
		data = next
	}
	return data
}

// flatten collapses nested arrays completely. changed is false when the
// input was already flat, letting callers keep the original instance.
func flatten(arr []any) ([]any, bool) {
	changed := false
	out := make([]any, 0, len(arr))
	for _, v := range arr {
		if inner, ok := v.([]any); ok {
			changed = true
			nested, _ := flatten(inner)
			out = append(out, nested...)
			continue
		}
		out = append(out, v)
	}
	return out, changed
}

// ApplyFilters evaluates every x-jmespath-filter annotation against the
// value at the annotated property's key and replaces it with the result.
// A malformed expression or evaluation failure is fatal for the document.
// Compilation happens before the value lookup so a broken expression
// surfaces even on documents that lack the annotated key.
func ApplyFilters(data pathmodel.Model, schema *api.Schema) (pathmodel.Model, error) {
	if schema == nil {
		return data, nil
	}
	for _, name := range sortedProperties(schema) {
		prop := schema.Properties[name]
		if prop.Filter == "" {
			continue
		}
		compiled, err := jmespath.Compile(prop.Filter)
		if err != nil {
			return data, &FilterError{Property: name, Expr: prop.Filter, Cause: err}
		}
		v, err := data.Get(name)
		if err != nil {
			// No value at the key: nothing to filter.
			continue
		}
		filtered, err := compiled.Search(v)
		if err != nil {
			return data, &FilterError{Property: name, Expr: prop.Filter, Cause: err}
		}
		next, err := data.Set(name, filtered)
		if err != nil {
			return data, &FilterError{Property: name, Expr: prop.Filter, Cause: err}
		}
		data = next
	}
	return data, nil
}

// sortedProperties gives a deterministic directive order.
func sortedProperties(schema *api.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
