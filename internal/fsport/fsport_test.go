package fsport

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortReadWrite(t *testing.T) {
	p := New(memfs.New())

	require.NoError(t, p.WriteText("docs/a.md", "hello"))
	assert.True(t, p.Exists("docs/a.md"))
	assert.False(t, p.Exists("docs/b.md"))

	text, err := p.ReadText("docs/a.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = p.ReadText("docs/b.md")
	assert.Error(t, err)
}

func TestPortList(t *testing.T) {
	p := New(memfs.New())
	require.NoError(t, p.WriteText("docs/b.md", ""))
	require.NoError(t, p.WriteText("docs/a.md", ""))
	require.NoError(t, p.WriteText("docs/notes.txt", ""))

	matches, err := p.List("docs/*.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md", "docs/b.md"}, matches)
}
