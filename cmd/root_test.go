package cmd

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agentic-research/collate/internal/config"
	"github.com/agentic-research/collate/internal/fsport"
	"github.com/agentic-research/collate/internal/strategy"
)

func TestExpandInputs(t *testing.T) {
	port := fsport.New(memfs.New())
	require.NoError(t, port.WriteText("docs/a.md", "a"))
	require.NoError(t, port.WriteText("docs/b.md", "b"))
	require.NoError(t, port.WriteText("docs/c.txt", "c"))

	t.Run("glob", func(t *testing.T) {
		paths, err := expandInputs(port, []string{"docs/*.md"})
		require.NoError(t, err)
		assert.Equal(t, []string{"docs/a.md", "docs/b.md"}, paths)
	})

	t.Run("plain path", func(t *testing.T) {
		paths, err := expandInputs(port, []string{"docs/c.txt"})
		require.NoError(t, err)
		assert.Equal(t, []string{"docs/c.txt"}, paths)
	})

	t.Run("missing plain path", func(t *testing.T) {
		_, err := expandInputs(port, []string{"docs/missing.md"})
		assert.Error(t, err)
	})

	t.Run("glob with no matches", func(t *testing.T) {
		_, err := expandInputs(port, []string{"docs/*.rst"})
		assert.Error(t, err)
	})
}

func TestBuildOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := buildOptions(config.Default(), zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, opts.Strategy)
		assert.Equal(t, strategy.LastWins, opts.StrategyOptions.Policy)
	})

	t.Run("explicit strategy", func(t *testing.T) {
		cfg := config.Default()
		cfg.Strategy = "array"
		cfg.ArrayKey = "docs"
		opts, err := buildOptions(cfg, zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, opts.Strategy)
		assert.Equal(t, strategy.ArrayAggregation, *opts.Strategy)
		assert.Equal(t, "docs", opts.StrategyOptions.ArrayKey)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		cfg := config.Default()
		cfg.Strategy = "bogus"
		_, err := buildOptions(cfg, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("heap bound converts to bytes", func(t *testing.T) {
		cfg := config.Default()
		cfg.MaxHeapMB = 2
		opts, err := buildOptions(cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, uint64(2<<20), opts.MaxHeapBytes)
	})
}

func TestRenderResult(t *testing.T) {
	port := fsport.New(memfs.New())
	data := map[string]any{"name": "x"}

	t.Run("json", func(t *testing.T) {
		cfg := config.Default()
		out, err := renderResult(port, cfg, data)
		require.NoError(t, err)
		assert.Contains(t, out, `"name": "x"`)
	})

	t.Run("yaml", func(t *testing.T) {
		cfg := config.Default()
		cfg.Format = "yaml"
		out, err := renderResult(port, cfg, data)
		require.NoError(t, err)
		assert.Contains(t, out, "name: x")
	})
}
