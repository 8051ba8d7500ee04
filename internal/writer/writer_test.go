package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileWriter_WriteAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.sfc")

	w := &FileWriter{Path: path}
	require.NoError(t, w.WriteAll([]byte{0xE7, 0x03}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0xE7, 0x03}, got)

	// Overwrite replaces contents entirely.
	require.NoError(t, w.WriteAll([]byte{0x01}))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileWriter_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "image.sfc")
	err := WriteFile(path, []byte{0})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestMemWriter(t *testing.T) {
	var w MemWriter
	src := []byte{1, 2, 3}
	require.NoError(t, w.WriteAll(src))
	src[0] = 9

	require.Equal(t, []byte{1, 2, 3}, w.Buf, "MemWriter must copy")
	require.Equal(t, 1, w.Writes)
}
