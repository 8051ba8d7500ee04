// Package writer exposes sinks for image, catalog and backup emission.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives a complete serialized artifact.
type Sink interface {
	WriteAll(buf []byte) error
}

// FileWriter writes bytes to a filesystem path atomically.
//
// The target is never left half-written: data goes to a temp file in the
// same directory, is synced, then renamed over the target. The parent
// directory is synced afterwards so the rename survives a crash.
type FileWriter struct {
	Path string
	Perm os.FileMode // applied to the final file; 0 means 0o644
}

// WriteAll writes buf to the configured path atomically via temp file + rename.
func (w *FileWriter) WriteAll(buf []byte) error {
	dir := filepath.Dir(w.Path)
	tmpFile, err := os.CreateTemp(dir, ".romkit-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, writeErr := tmpFile.Write(buf); writeErr != nil {
		return fmt.Errorf("write temp file: %w", writeErr)
	}

	if syncErr := syncFile(tmpFile); syncErr != nil {
		return fmt.Errorf("sync temp file: %w", syncErr)
	}

	perm := w.Perm
	if perm == 0 {
		perm = 0o644
	}
	if chmodErr := tmpFile.Chmod(perm); chmodErr != nil {
		return fmt.Errorf("chmod temp file: %w", chmodErr)
	}

	// Close before rename
	if closeErr := tmpFile.Close(); closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	tmpFile = nil // Don't clean up in defer

	if renameErr := os.Rename(tmpPath, w.Path); renameErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", renameErr)
	}

	if syncErr := syncDir(dir); syncErr != nil {
		return fmt.Errorf("sync directory: %w", syncErr)
	}
	return nil
}

// WriteFile is shorthand for (&FileWriter{Path: path}).WriteAll(buf).
func WriteFile(path string, buf []byte) error {
	return (&FileWriter{Path: path}).WriteAll(buf)
}
