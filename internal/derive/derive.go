// Package derive computes cross-document summary fields. A rule walks an
// array in the resolved structure, projects one property out of every
// element, optionally de-duplicates, and writes the flat result at a
// target path.
package derive

import (
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/collate/api"
	"github.com/agentic-research/collate/internal/pathmodel"
)

// Rule is a validated derivation instruction. SourcePath's final segment
// names the element property to project; the prefix must resolve to an
// array.
type Rule struct {
	SourcePath  string
	TargetField string
	Unique      bool
}

// ConversionFailure records one declaration that could not become a Rule.
type ConversionFailure struct {
	Decl   api.DerivedDecl
	Reason string
}

// ConversionReport is returned alongside results, never swallowed:
// failed conversions are counted and reported but do not abort the batch.
type ConversionReport struct {
	Rules  []Rule
	Failed []ConversionFailure
}

// ConvertRules walks the schema tree and validates every x-derived
// declaration. Conversion is fallible per rule; partial success is valid.
func ConvertRules(schema *api.Schema) ConversionReport {
	var report ConversionReport
	if schema == nil {
		return report
	}
	convertNode(schema, &report)
	return report
}

func convertNode(node *api.Schema, report *ConversionReport) {
	for _, decl := range node.Derived {
		rule, reason := convertDecl(decl)
		if reason != "" {
			report.Failed = append(report.Failed, ConversionFailure{Decl: decl, Reason: reason})
			continue
		}
		report.Rules = append(report.Rules, rule)
	}
	for _, prop := range node.Properties {
		convertNode(prop, report)
	}
	if node.Items != nil {
		convertNode(node.Items, report)
	}
}

func convertDecl(decl api.DerivedDecl) (Rule, string) {
	if decl.SourcePath == "" {
		return Rule{}, "missing sourcePath"
	}
	if decl.TargetField == "" {
		return Rule{}, "missing targetField"
	}
	if !strings.Contains(decl.SourcePath, ".") {
		return Rule{}, "sourcePath must name an array and an element property"
	}
	return Rule{
		SourcePath:  decl.SourcePath,
		TargetField: decl.TargetField,
		Unique:      decl.Unique,
	}, ""
}

// Apply runs every rule against the base structure and returns the new
// model. Rules are additive, never destructive: a rule whose source does
// not resolve, resolves to a non-array, or projects no values at all
// contributes nothing and creates no key.
func Apply(base pathmodel.Model, rules []Rule) pathmodel.Model {
	for _, rule := range rules {
		values, ok := project(base, rule)
		if !ok || len(values) == 0 {
			continue
		}
		next, err := base.Set(rule.TargetField, values)
		if err != nil {
			continue
		}
		base = next
	}
	return base
}

// project reads the source array and flattens the named element property
// into one list, de-duplicating in first-seen order when requested.
func project(base pathmodel.Model, rule Rule) ([]any, bool) {
	cut := strings.LastIndex(rule.SourcePath, ".")
	arrayPath, prop := rule.SourcePath[:cut], rule.SourcePath[cut+1:]

	v, err := base.Get(arrayPath)
	if err != nil {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}

	values := make([]any, 0, len(arr))
	for _, elem := range arr {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		field, ok := obj[prop]
		if !ok {
			continue
		}
		if inner, ok := field.([]any); ok {
			values = append(values, inner...)
			continue
		}
		values = append(values, field)
	}

	if rule.Unique {
		values = dedupe(values)
	}
	return values, true
}

// dedupeOptions sorts object keys so two equal maps always encode to the
// same key regardless of map iteration order.
var dedupeOptions = ojg.Options{Sort: true}

// dedupe preserves first-seen order. Values are keyed by their canonical
// JSON encoding so non-string scalars and small composites compare by
// value, not identity.
func dedupe(values []any) []any {
	seen := make(map[string]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		key := oj.JSON(v, &dedupeOptions)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
