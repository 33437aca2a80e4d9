// Package render turns the aggregated structure into text: either
// through a placeholder template or as indented JSON / YAML.
package render

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"
)

var tmplFuncs = template.FuncMap{
	"json": func(v any) string {
		return oj.JSON(v)
	},
	"jsonIndent": func(v any) string {
		return oj.JSON(v, 2)
	},
	"first": func(v any) any {
		if s, ok := v.([]any); ok && len(s) > 0 {
			return s[0]
		}
		return nil
	},
}

// Render executes a template against the aggregated data.
func Render(tmpl string, data map[string]any) (string, error) {
	t, err := template.New("output").Funcs(tmplFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// EncodeJSON encodes data as 2-space-indented JSON.
func EncodeJSON(data any) string {
	return oj.JSON(data, 2)
}

// EncodeYAML encodes data as YAML.
func EncodeYAML(data any) (string, error) {
	out, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return string(out), nil
}
