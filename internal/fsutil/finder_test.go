package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	for _, name := range []string{"b.hcl", "a.hcl", "notes.txt", "sub/c.hcl"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	explicit := filepath.Join(dir, "notes.txt")

	// Act
	files, err := FindFiles([]string{explicit, dir, filepath.Join(dir, "a.hcl")}, ".hcl")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{
		explicit,
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "sub", "c.hcl"),
	}, files)
}

func TestFindFiles_MissingPath(t *testing.T) {
	_, err := FindFiles([]string{filepath.Join(t.TempDir(), "nope")}, ".hcl")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error accessing path")
}

func TestFindFiles_EmptyExtensionPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFiles(nil, "") })
}
