package test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

// WriteTree stores files in the directory. Keys are slash-separated paths.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

// WriteZip creates zip archive containing files.
func WriteZip(t *testing.T, path string, files map[string]string) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	names := lo.Keys(files)
	sort.Strings(names)
	for _, name := range names {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

// Reader reads resources.
type Reader interface {
	Size(name string) uint64
	ReadInto(name string, buf []byte) (uint64, error)
}

// Read reads the whole resource from the source.
func Read(t *testing.T, src Reader, name string) string {
	buf := make([]byte, src.Size(name))
	n, err := src.ReadInto(name, buf)
	require.NoError(t, err)
	return string(buf[:n])
}
