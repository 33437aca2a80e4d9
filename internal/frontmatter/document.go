// Package frontmatter loads documents and extracts their structured
// metadata block into a path-addressable model.
package frontmatter

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/collate/internal/fsport"
	"github.com/agentic-research/collate/internal/pathmodel"
)

const delimiter = "---"

// Document is one discovered file. Immutable after creation.
type Document struct {
	Path        string
	Raw         string
	Frontmatter pathmodel.Model
	Body        string
}

// Loader reads documents through the filesystem port.
type Loader struct {
	port *fsport.Port
}

func NewLoader(port *fsport.Port) *Loader {
	return &Loader{port: port}
}

// Load reads and splits one document. A file without a frontmatter block
// yields a Document with an empty model and the full content as body.
func (l *Loader) Load(path string) (*Document, error) {
	raw, err := l.port.ReadText(path)
	if err != nil {
		return nil, err
	}

	block, body, ok := Split(raw)
	if !ok {
		return &Document{Path: path, Raw: raw, Frontmatter: pathmodel.Empty(), Body: raw}, nil
	}

	data, err := parseBlock(block)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter of %s: %w", path, err)
	}
	return &Document{
		Path:        path,
		Raw:         raw,
		Frontmatter: pathmodel.New(data),
		Body:        body,
	}, nil
}

// Split separates the frontmatter block from the body. The block must
// open with a "---" line at the very start of the file and close with
// another "---" line. ok is false when there is no block.
func Split(content string) (block, body string, ok bool) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(normalized, delimiter+"\n") && normalized != delimiter {
		return "", content, false
	}
	rest := strings.TrimPrefix(normalized, delimiter+"\n")
	end := strings.Index(rest, "\n"+delimiter)
	if end < 0 {
		if strings.HasPrefix(rest, delimiter) {
			// Empty block: "---\n---\n..."
			return "", strings.TrimPrefix(strings.TrimPrefix(rest, delimiter), "\n"), true
		}
		return "", content, false
	}
	block = rest[:end]
	body = rest[end+1+len(delimiter):]
	body = strings.TrimPrefix(body, "\n")
	return block, body, true
}

// parseBlock decodes a frontmatter block. A block that opens with "{" is
// parsed as JSON via ojg; everything else is YAML.
func parseBlock(block string) (map[string]any, error) {
	trimmed := strings.TrimSpace(block)
	if trimmed == "" {
		return map[string]any{}, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		v, err := oj.ParseString(trimmed)
		if err != nil {
			return nil, err
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("frontmatter is not an object")
		}
		return obj, nil
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(block), &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
