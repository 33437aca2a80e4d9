package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/collate/api"
	"github.com/agentic-research/collate/internal/pathmodel"
)

func flattenSchema(key string) *api.Schema {
	return &api.Schema{
		Properties: map[string]*api.Schema{
			key: {Type: "array", FlattenArrays: key},
		},
	}
}

func TestFlattenArrays(t *testing.T) {
	t.Run("collapses arbitrary nesting fully", func(t *testing.T) {
		m := pathmodel.New(map[string]any{
			"tags": []any{"a", []any{"b", []any{"c", "d"}}, "e"},
		})
		out := FlattenArrays(m, flattenSchema("tags"))
		v, err := out.Get("tags")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b", "c", "d", "e"}, v)
	})

	t.Run("idempotent", func(t *testing.T) {
		m := pathmodel.New(map[string]any{
			"tags": []any{[]any{"a"}, []any{[]any{"b"}}},
		})
		once := FlattenArrays(m, flattenSchema("tags"))
		twice := FlattenArrays(once, flattenSchema("tags"))
		a, _ := once.Get("tags")
		b, _ := twice.Get("tags")
		assert.Equal(t, a, b)
	})

	t.Run("already flat returns the same instance", func(t *testing.T) {
		root := map[string]any{"tags": []any{"a", "b"}}
		m := pathmodel.New(root)
		out := FlattenArrays(m, flattenSchema("tags"))
		// Identity preserved: the underlying map is the very same object.
		assert.Equal(t, root, out.Raw())
		root["probe"] = true
		_, ok := out.Raw()["probe"]
		assert.True(t, ok)
	})

	t.Run("non-array value is a no-op", func(t *testing.T) {
		m := pathmodel.New(map[string]any{"tags": "not-an-array"})
		out := FlattenArrays(m, flattenSchema("tags"))
		v, _ := out.Get("tags")
		assert.Equal(t, "not-an-array", v)
	})

	t.Run("missing key is a no-op", func(t *testing.T) {
		m := pathmodel.New(map[string]any{"other": 1})
		out := FlattenArrays(m, flattenSchema("tags"))
		assert.Equal(t, m.Raw(), out.Raw())
	})
}

func TestApplyFilters(t *testing.T) {
	filterSchema := func(prop, expr string) *api.Schema {
		return &api.Schema{
			Properties: map[string]*api.Schema{
				prop: {Filter: expr},
			},
		}
	}

	t.Run("replaces value with filtered result", func(t *testing.T) {
		m := pathmodel.New(map[string]any{
			"items": []any{
				map[string]any{"name": "a", "draft": true},
				map[string]any{"name": "b", "draft": false},
			},
		})
		out, err := ApplyFilters(m, filterSchema("items", "[?draft == `false`].name"))
		require.NoError(t, err)
		v, err := out.Get("items")
		require.NoError(t, err)
		assert.Equal(t, []any{"b"}, v)
	})

	t.Run("malformed expression is fatal", func(t *testing.T) {
		m := pathmodel.New(map[string]any{"items": []any{}})
		_, err := ApplyFilters(m, filterSchema("items", "[?unclosed"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFilterFailed)

		var fe *FilterError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "items", fe.Property)
	})

	t.Run("missing property is skipped", func(t *testing.T) {
		m := pathmodel.New(map[string]any{"other": 1})
		out, err := ApplyFilters(m, filterSchema("items", "[0]"))
		require.NoError(t, err)
		assert.Equal(t, m.Raw(), out.Raw())
	})

	t.Run("malformed expression is fatal even without the key", func(t *testing.T) {
		m := pathmodel.New(map[string]any{"other": 1})
		_, err := ApplyFilters(m, filterSchema("items", "[?unclosed"))
		assert.ErrorIs(t, err, ErrFilterFailed)
	})
}

func TestApplyOrdering(t *testing.T) {
	// The filter assumes a flattened shape: it projects a field from each
	// element, which only works after nested arrays collapse.
	schema := &api.Schema{
		Properties: map[string]*api.Schema{
			"refs": {FlattenArrays: "refs", Filter: "[?kind == 'doc'].id"},
		},
	}
	m := pathmodel.New(map[string]any{
		"refs": []any{
			[]any{map[string]any{"kind": "doc", "id": "d1"}},
			map[string]any{"kind": "img", "id": "i1"},
			[]any{[]any{map[string]any{"kind": "doc", "id": "d2"}}},
		},
	})

	out, err := Apply(m, schema)
	require.NoError(t, err)
	v, err := out.Get("refs")
	require.NoError(t, err)
	assert.Equal(t, []any{"d1", "d2"}, v)
}

func TestApplyPassthrough(t *testing.T) {
	t.Run("nil schema", func(t *testing.T) {
		m := pathmodel.New(map[string]any{"a": 1})
		out, err := Apply(m, nil)
		require.NoError(t, err)
		assert.Equal(t, m.Raw(), out.Raw())
	})

	t.Run("empty frontmatter", func(t *testing.T) {
		out, err := Apply(pathmodel.Empty(), flattenSchema("tags"))
		require.NoError(t, err)
		assert.True(t, out.IsEmpty())
	})
}
