//go:build linux || freebsd

package writer

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncFile flushes file data. fdatasync skips metadata that a rename
// rewrites anyway.
func syncFile(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}

// syncDir fsyncs a directory so a completed rename is persisted.
func syncDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.Fsync(fd)
}
