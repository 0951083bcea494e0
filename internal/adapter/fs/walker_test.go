package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
	}
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	abs, err := filepath.Abs(root)
	require.NoError(t, err)

	var out []string
	for _, p := range paths {
		rel, err := filepath.Rel(abs, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestWalkIncludesAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"report.pdf",
		"notes/b.md",
		"notes/a.TXT",
		"notes/image.png",
		".git/config.txt",
		".rag/meta.txt",
		"vendor/node_modules/readme.md",
	)

	w := NewWalker(
		[]string{"**/*.pdf", "**/*.md", "**/*.txt"},
		[]string{"**/.git/**", "**/.rag/**", "**/node_modules/**"},
	)
	files, err := w.Walk(root)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
		assert.Equal(t, int64(len("content")), f.Size)
	}
	assert.Equal(t, []string{"notes/a.TXT", "notes/b.md", "report.pdf"}, relPaths(t, root, paths))
}

func TestWalkDefaultIncludesEverything(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.bin", "sub/b.csv")

	files, err := NewWalker(nil, nil).Walk(root)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestCollectMixesFilesAndDirectories(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "docs/a.md", "docs/b.md", "single.csv")

	w := NewWalker([]string{"**/*.md"}, nil)
	files, err := w.Collect([]string{
		filepath.Join(root, "docs"),
		filepath.Join(root, "single.csv"),
		filepath.Join(root, "docs", "a.md"),
	})
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"docs/a.md", "docs/b.md", "single.csv"}, relPaths(t, root, paths))
}

func TestCollectMissingPath(t *testing.T) {
	_, err := NewWalker(nil, nil).Collect([]string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
