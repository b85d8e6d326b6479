//go:build linux

package input

import (
	"os"

	"golang.org/x/sys/unix"
)

func mkfifo(path string) error { return unix.Mkfifo(path, 0o600) }

// openWriter opens a FIFO read-write so it never blocks waiting for a peer.
func openWriter(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR, 0)
}
