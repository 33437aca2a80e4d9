// Package strategy provides the three combinators that reduce N
// per-document payloads to one: single-source, array-wrap, and deep
// merge with explicit conflict resolution. The set is closed: a Kind
// enumeration plus one factory, no string-keyed lookup table.
package strategy

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptySourceSet is returned when a strategy receives no sources.
	ErrEmptySourceSet = errors.New("empty source set")
	// ErrIncompatibleStrategy is returned on a cardinality mismatch.
	ErrIncompatibleStrategy = errors.New("incompatible strategy for source count")
)

// Kind enumerates the strategies.
type Kind int

const (
	SingleSource Kind = iota
	ArrayAggregation
	MergeAggregation
)

func (k Kind) String() string {
	switch k {
	case SingleSource:
		return "single"
	case ArrayAggregation:
		return "array"
	case MergeAggregation:
		return "merge"
	default:
		return "unknown"
	}
}

// ParseKind maps a CLI/config name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "single":
		return SingleSource, nil
	case "array":
		return ArrayAggregation, nil
	case "merge":
		return MergeAggregation, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want single, array or merge)", s)
	}
}

// ConflictPolicy decides how two non-mergeable values for the same key
// combine during a deep merge.
type ConflictPolicy int

const (
	LastWins ConflictPolicy = iota
	FirstWins
	ArrayCombine
)

func (p ConflictPolicy) String() string {
	switch p {
	case LastWins:
		return "last-wins"
	case FirstWins:
		return "first-wins"
	case ArrayCombine:
		return "array-combine"
	default:
		return "unknown"
	}
}

// ParseConflictPolicy maps a CLI/config name to a policy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "last-wins":
		return LastWins, nil
	case "first-wins":
		return FirstWins, nil
	case "array-combine":
		return ArrayCombine, nil
	default:
		return 0, fmt.Errorf("unknown conflict policy %q (want first-wins, last-wins or array-combine)", s)
	}
}

// Options tune strategy behavior.
type Options struct {
	// ArrayKey is the wrapping key used by ArrayAggregation.
	ArrayKey string
	// IncludeMetadata adds an aggregationMetadata block to the
	// ArrayAggregation output.
	IncludeMetadata bool
	// Policy applies to MergeAggregation conflicts.
	Policy ConflictPolicy
	// PreserveArrays makes MergeAggregation concatenate arrays instead
	// of treating them as a conflict.
	PreserveArrays bool
}

const defaultArrayKey = "documents"

// Strategy combines N per-document payloads into one.
type Strategy interface {
	Name() string
	Combine(sources []map[string]any) (map[string]any, error)
}

// New is the single factory over the closed strategy set.
func New(kind Kind, opts Options) Strategy {
	if opts.ArrayKey == "" {
		opts.ArrayKey = defaultArrayKey
	}
	switch kind {
	case SingleSource:
		return &single{}
	case ArrayAggregation:
		return &arrayAgg{opts: opts}
	default:
		return &merge{opts: opts}
	}
}

// Select picks a Kind from the source count when the caller did not
// request one. Callers needing merge semantics must ask for it
// explicitly.
func Select(n int) (Kind, error) {
	switch {
	case n == 0:
		return 0, ErrEmptySourceSet
	case n == 1:
		return SingleSource, nil
	default:
		return ArrayAggregation, nil
	}
}

// ---------------------------------------------------------------------------

type single struct{}

func (s *single) Name() string { return "single-source" }

// Combine returns the one payload verbatim. Any other cardinality is an
// error.
func (s *single) Combine(sources []map[string]any) (map[string]any, error) {
	if len(sources) == 0 {
		return nil, ErrEmptySourceSet
	}
	if len(sources) != 1 {
		return nil, fmt.Errorf("%w: single-source requires exactly 1, got %d", ErrIncompatibleStrategy, len(sources))
	}
	return sources[0], nil
}

type arrayAgg struct {
	opts Options
}

func (a *arrayAgg) Name() string { return "array-aggregation" }

// Combine wraps all sources into an array under ArrayKey. Never errors
// for N >= 1.
func (a *arrayAgg) Combine(sources []map[string]any) (map[string]any, error) {
	if len(sources) == 0 {
		return nil, ErrEmptySourceSet
	}
	wrapped := make([]any, len(sources))
	for i, s := range sources {
		wrapped[i] = s
	}
	out := map[string]any{
		a.opts.ArrayKey:  wrapped,
		"totalDocuments": len(sources),
	}
	if a.opts.IncludeMetadata {
		out["aggregationMetadata"] = map[string]any{
			"strategy":     a.Name(),
			"aggregatedAt": time.Now().UTC().Format(time.RFC3339),
			"sourceCount":  len(sources),
		}
	}
	return out, nil
}

type merge struct {
	opts Options
}

func (m *merge) Name() string { return "merge-aggregation" }

// Combine deep-merges all sources in document order.
func (m *merge) Combine(sources []map[string]any) (map[string]any, error) {
	if len(sources) == 0 {
		return nil, ErrEmptySourceSet
	}
	acc := map[string]any{}
	for _, src := range sources {
		acc = m.mergeObjects(acc, src)
	}
	return finalize(acc).(map[string]any), nil
}

// combined accumulates array-combine conflict values in encounter order.
// It exists so a combined list is distinguishable from an array that was
// a source value to begin with.
type combined struct {
	values []any
}

// mergeObjects merges src into a copy of dst key by key.
func (m *merge) mergeObjects(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, incoming := range src {
		existing, present := out[k]
		if !present {
			out[k] = incoming
			continue
		}
		out[k] = m.resolve(existing, incoming)
	}
	return out
}

func (m *merge) resolve(existing, incoming any) any {
	if c, ok := existing.(*combined); ok {
		return &combined{values: append(append([]any{}, c.values...), incoming)}
	}

	eObj, eIsObj := existing.(map[string]any)
	iObj, iIsObj := incoming.(map[string]any)
	if eIsObj && iIsObj {
		return m.mergeObjects(eObj, iObj)
	}

	eArr, eIsArr := existing.([]any)
	iArr, iIsArr := incoming.([]any)
	if eIsArr && iIsArr && m.opts.PreserveArrays {
		out := make([]any, 0, len(eArr)+len(iArr))
		out = append(out, eArr...)
		return append(out, iArr...)
	}

	switch m.opts.Policy {
	case FirstWins:
		return existing
	case ArrayCombine:
		return &combined{values: []any{existing, incoming}}
	default: // LastWins
		return incoming
	}
}

// finalize converts combined markers into plain arrays. Recursion covers
// every container: a marker produced by an inner object merge can sit
// inside another marker's values or inside a concatenated array.
func finalize(v any) any {
	switch t := v.(type) {
	case *combined:
		out := make([]any, len(t.values))
		for i, child := range t.values {
			out[i] = finalize(child)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = finalize(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = finalize(child)
		}
		return out
	default:
		return v
	}
}
