package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var out bytes.Buffer
	l, closeFn, err := New(Options{Format: "json", Writer: &out, Level: slog.LevelDebug})
	require.NoError(t, err)
	defer closeFn()

	l.Debug("backup created", "id", "bk-000001")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	require.Equal(t, "backup created", rec["msg"])
	require.Equal(t, "bk-000001", rec["id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var out bytes.Buffer
	l, _, err := New(Options{Writer: &out, Level: slog.LevelWarn})
	require.NoError(t, err)

	l.Info("dropped")
	require.Empty(t, out.String())
	l.Warn("kept")
	require.Contains(t, out.String(), "kept")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, _, err := New(Options{Format: "xml"})
	require.Error(t, err)
}

func TestNew_LogDirRetention(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, logPrefix+time.Now().AddDate(0, 0, -(retentionDays+5)).Format("2006-01-02")+logSuffix)
	require.NoError(t, os.WriteFile(stale, []byte("old\n"), 0o644))

	l, closeFn, err := New(Options{LogDir: dir})
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, closeFn())

	_, err = os.Stat(stale)
	require.True(t, os.IsNotExist(err), "stale log should be removed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, l)

	l, err = ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, l)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestOrDiscard(t *testing.T) {
	require.NotNil(t, OrDiscard(nil))
	l := slog.Default()
	require.Same(t, l, OrDiscard(l))
}
