package frontmatter

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/collate/internal/fsport"
)

func writeDoc(t *testing.T, port *fsport.Port, path, content string) {
	t.Helper()
	require.NoError(t, port.WriteText(path, content))
}

func TestLoadYAMLFrontmatter(t *testing.T) {
	port := fsport.New(memfs.New())
	writeDoc(t, port, "a.md", "---\nname: alpha\ntags:\n  - x\n  - y\n---\n# Heading\nbody text\n")

	l := NewLoader(port)
	doc, err := l.Load("a.md")
	require.NoError(t, err)

	v, err := doc.Frontmatter.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "alpha", v)

	v, err = doc.Frontmatter.Get("tags")
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, v)

	assert.Equal(t, "# Heading\nbody text\n", doc.Body)
}

func TestLoadJSONFrontmatter(t *testing.T) {
	port := fsport.New(memfs.New())
	writeDoc(t, port, "b.md", "---\n{\"name\": \"beta\", \"n\": 2}\n---\nbody\n")

	doc, err := NewLoader(port).Load("b.md")
	require.NoError(t, err)

	v, err := doc.Frontmatter.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "beta", v)
}

func TestLoadWithoutFrontmatterIsNoOp(t *testing.T) {
	port := fsport.New(memfs.New())
	writeDoc(t, port, "plain.md", "just a body\n")

	doc, err := NewLoader(port).Load("plain.md")
	require.NoError(t, err)
	assert.True(t, doc.Frontmatter.IsEmpty())
	assert.Equal(t, "just a body\n", doc.Body)
}

func TestLoadMalformedFrontmatter(t *testing.T) {
	port := fsport.New(memfs.New())
	writeDoc(t, port, "bad.md", "---\nname: [unclosed\n---\nbody\n")

	_, err := NewLoader(port).Load("bad.md")
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	t.Run("normal block", func(t *testing.T) {
		block, body, ok := Split("---\na: 1\n---\nbody\n")
		assert.True(t, ok)
		assert.Equal(t, "a: 1", block)
		assert.Equal(t, "body\n", body)
	})

	t.Run("crlf input", func(t *testing.T) {
		block, _, ok := Split("---\r\na: 1\r\n---\r\nbody\r\n")
		assert.True(t, ok)
		assert.Equal(t, "a: 1", block)
	})

	t.Run("no block", func(t *testing.T) {
		_, body, ok := Split("body only\n")
		assert.False(t, ok)
		assert.Equal(t, "body only\n", body)
	})

	t.Run("delimiter not at start", func(t *testing.T) {
		_, _, ok := Split("\n---\na: 1\n---\n")
		assert.False(t, ok)
	})

	t.Run("empty block", func(t *testing.T) {
		block, body, ok := Split("---\n---\nbody\n")
		assert.True(t, ok)
		assert.Empty(t, block)
		assert.Equal(t, "body\n", body)
	})
}
