// Package fsport is the thin filesystem surface the engine consumes.
// It wraps a billy filesystem so the CLI runs against the OS while tests
// run against memfs.
package fsport

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Port exposes the four operations the engine needs.
type Port struct {
	fs   billy.Filesystem
	base string // resolves relative paths; empty for test filesystems
}

// New wraps an existing filesystem (typically memfs in tests).
func New(fs billy.Filesystem) *Port {
	return &Port{fs: fs}
}

// OS returns a port over the host filesystem. Relative paths resolve
// against the current working directory at construction time.
func OS() *Port {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = string(filepath.Separator)
	}
	return &Port{fs: osfs.New("/"), base: cwd}
}

func (p *Port) resolve(path string) string {
	if p.base != "" && !filepath.IsAbs(path) {
		return filepath.Join(p.base, path)
	}
	return path
}

// ReadText reads a whole file as a string.
func (p *Port) ReadText(path string) (string, error) {
	data, err := util.ReadFile(p.fs, p.resolve(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteText writes text to a file, creating parent directories.
func (p *Port) WriteText(path, text string) error {
	resolved := p.resolve(path)
	if dir := filepath.Dir(resolved); dir != "." {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := util.WriteFile(p.fs, resolved, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Exists reports whether the path exists.
func (p *Port) Exists(path string) bool {
	_, err := p.fs.Stat(p.resolve(path))
	return err == nil
}

// List expands a glob pattern into a sorted list of matching paths.
func (p *Port) List(pattern string) ([]string, error) {
	matches, err := util.Glob(p.fs, p.resolve(pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}
