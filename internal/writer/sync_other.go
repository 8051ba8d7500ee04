//go:build !linux && !freebsd

package writer

import "os"

func syncFile(f *os.File) error {
	return f.Sync()
}

// syncDir is a no-op where directories cannot be opened for syncing
// (Windows) or where rename durability is handled by the filesystem.
func syncDir(string) error {
	return nil
}
