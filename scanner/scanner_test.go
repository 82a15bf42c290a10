package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		err := os.MkdirAll(filepath.Dir(fullPath), 0o755)
		require.NoError(t, err)
		err = os.WriteFile(fullPath, []byte(content), 0o644)
		require.NoError(t, err)
	}
}

func TestDocumentScanner(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	writeTree(t, tempDir, map[string]string{
		"b.txt":            "second",
		"a.TXT":            "first",
		"pages.json":       `["a b"]`,
		"image.png":        "binary",
		"subdir/c.txt":     "nested",
		".hidden/skip.txt": "hidden",
	})

	scanner := New(tempDir, ".txt", ".json")
	scannedFiles, err := scanner.Scan()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(tempDir, "a.TXT"),
		filepath.Join(tempDir, "b.txt"),
		filepath.Join(tempDir, "pages.json"),
		filepath.Join(tempDir, "subdir/c.txt"),
	}, Paths(scannedFiles))

	for _, file := range scannedFiles {
		assert.Greater(t, file.Size, int64(0), "File size should be greater than 0")
		assert.False(t, file.ModTime.IsZero())
	}
}

func TestScannerFilter(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.txt": "x",
		"drop.txt": "x",
		"any.bin":  "x",
	})

	files, err := New(root).WithFilter(func(path string) bool {
		return filepath.Base(path) != "drop.txt"
	}).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "any.bin"),
		filepath.Join(root, "keep.txt"),
	}, Paths(files))
}

func TestScannerMissingRoot(t *testing.T) {
	t.Parallel()
	_, err := New(filepath.Join(t.TempDir(), "missing")).Scan()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
