package pathmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Model {
	return New(map[string]any{
		"title": "intro",
		"tags":  []any{"go", "docs"},
		"tools": map[string]any{
			"commands": []any{
				map[string]any{"name": "build"},
				map[string]any{"name": "test"},
			},
		},
	})
}

func TestGet(t *testing.T) {
	m := sample()

	t.Run("top-level scalar", func(t *testing.T) {
		v, err := m.Get("title")
		require.NoError(t, err)
		assert.Equal(t, "intro", v)
	})

	t.Run("nested with array index", func(t *testing.T) {
		v, err := m.Get("tools.commands.1.name")
		require.NoError(t, err)
		assert.Equal(t, "test", v)
	})

	t.Run("bracket index form", func(t *testing.T) {
		v, err := m.Get("tags.[0]")
		require.NoError(t, err)
		assert.Equal(t, "go", v)
	})

	t.Run("missing key is not found", func(t *testing.T) {
		_, err := m.Get("tools.missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("out of range index is not found", func(t *testing.T) {
		_, err := m.Get("tags.5")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("property segment on array is wrong shape", func(t *testing.T) {
		_, err := m.Get("tags.name")
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("index segment on object is wrong shape", func(t *testing.T) {
		_, err := m.Get("tools.0")
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("empty path is invalid", func(t *testing.T) {
		_, err := m.Get("")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestSet(t *testing.T) {
	t.Run("returns a new model, original untouched", func(t *testing.T) {
		m := sample()
		m2, err := m.Set("title", "revised")
		require.NoError(t, err)

		v, err := m2.Get("title")
		require.NoError(t, err)
		assert.Equal(t, "revised", v)

		v, err = m.Get("title")
		require.NoError(t, err)
		assert.Equal(t, "intro", v)
	})

	t.Run("shares untouched branches", func(t *testing.T) {
		m := sample()
		m2, err := m.Set("title", "revised")
		require.NoError(t, err)

		// Reference identity is observable through a marker write on the
		// original tree.
		orig := m.Raw()["tools"].(map[string]any)
		shared := m2.Raw()["tools"].(map[string]any)
		orig["marker"] = true
		_, ok := shared["marker"]
		assert.True(t, ok)
	})

	t.Run("creates intermediate objects", func(t *testing.T) {
		m := Empty()
		m2, err := m.Set("a.b.c", 1)
		require.NoError(t, err)
		v, err := m2.Get("a.b.c")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("replaces array element", func(t *testing.T) {
		m := sample()
		m2, err := m.Set("tags.1", "guide")
		require.NoError(t, err)
		v, _ := m2.Get("tags.1")
		assert.Equal(t, "guide", v)
		v, _ = m.Get("tags.1")
		assert.Equal(t, "docs", v)
	})

	t.Run("append via one-past-end index", func(t *testing.T) {
		m := sample()
		m2, err := m.Set("tags.2", "extra")
		require.NoError(t, err)
		v, _ := m2.Get("tags.2")
		assert.Equal(t, "extra", v)
	})

	t.Run("far out-of-range index is not found", func(t *testing.T) {
		m := sample()
		_, err := m.Set("tags.9", "x")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong shape on scalar spine", func(t *testing.T) {
		m := sample()
		_, err := m.Set("title.sub", 1)
		assert.ErrorIs(t, err, ErrWrongShape)
	})
}

func TestMerge(t *testing.T) {
	left := New(map[string]any{"a": 1, "b": 1})
	right := New(map[string]any{"b": 2, "c": 3})

	merged := left.Merge(right)

	v, _ := merged.Get("a")
	assert.Equal(t, 1, v)
	v, _ = merged.Get("b")
	assert.Equal(t, 2, v, "merge is right-biased")
	v, _ = merged.Get("c")
	assert.Equal(t, 3, v)

	v, _ = left.Get("b")
	assert.Equal(t, 1, v, "inputs are unchanged")
}

func TestAllKeys(t *testing.T) {
	m := sample()
	assert.Equal(t, []string{"tags", "title", "tools.commands"}, m.AllKeys())
}

func TestAllKeysTreatsArraysAsTerminal(t *testing.T) {
	m := New(map[string]any{
		"list": []any{map[string]any{"inner": 1}},
	})
	assert.Equal(t, []string{"list"}, m.AllKeys())
}
