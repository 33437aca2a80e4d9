// Package api defines the schema contract that drives aggregation.
// A schema is a JSON-Schema-like tree whose object nodes may carry
// extension annotations telling the engine where per-document data goes
// and which transforms and derivations to apply.
package api

import (
	"encoding/json"
	"fmt"
)

// Schema is one node of the schema tree.
type Schema struct {
	// Type of the node ("object", "array", "string", ...). Informational
	// except for the minimal required-field check.
	Type string `json:"type,omitempty"`
	// Properties of an object node.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items schema of an array node.
	Items *Schema `json:"items,omitempty"`
	// Required property names for the minimal required-field check.
	Required []string `json:"required,omitempty"`
	// Default value populated into the output when the key is absent.
	Default any `json:"default,omitempty"`

	// FrontmatterPart marks an insertion point for aggregated
	// per-document data. Boolean true is a simple slot; a string value
	// redirects to a named frontmatter key of each document.
	FrontmatterPart any `json:"x-frontmatter-part,omitempty"`
	// FlattenArrays names a frontmatter key whose array value is fully
	// flattened before aggregation.
	FlattenArrays string `json:"x-flatten-arrays,omitempty"`
	// Filter is a JMESPath expression applied to the value at this
	// property's key.
	Filter string `json:"x-jmespath-filter,omitempty"`
	// Derived declares cross-document derivation rules.
	Derived []DerivedDecl `json:"x-derived,omitempty"`
}

// DerivedDecl is the raw, unvalidated form of a derivation rule as it
// appears in the schema.
type DerivedDecl struct {
	SourcePath  string `json:"sourcePath"`
	TargetField string `json:"targetField"`
	Unique      bool   `json:"unique"`
}

// Parse decodes a schema document from JSON.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &s, nil
}

// IsPart reports whether the node is an insertion point, and the
// redirect key when the annotation is a string.
func (s *Schema) IsPart() (bool, string) {
	switch v := s.FrontmatterPart.(type) {
	case bool:
		return v, ""
	case string:
		return v != "", v
	default:
		return false, ""
	}
}

// MissingRequired returns the node's required property names absent from
// data. This is the whole of schema validation here: required presence,
// nothing else.
func (s *Schema) MissingRequired(data map[string]any) []string {
	var missing []string
	for _, name := range s.Required {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
