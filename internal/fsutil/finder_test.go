package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	for _, p := range []string{"b.md", "a/c.md", "a/skip.txt", ".obsidian/x.md", "z/deep/d.md"} {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}

	// --- Act ---
	files, err := FindFilesByExtension(root, ".md")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"a/c.md", "b.md", "z/deep/d.md"}, files)
}

func TestFindFilesByExtension_Errors(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".md")
	assert.Error(t, err)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(".", "") })
}
