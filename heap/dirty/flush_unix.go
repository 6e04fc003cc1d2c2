//go:build linux || freebsd

package dirty

import "golang.org/x/sys/unix"

var hostPageSize = int64(unix.Getpagesize())

func msync(b []byte) error { return unix.Msync(b, unix.MS_SYNC) }

// Fdatasync commits the file's data blocks. Only the length matters for
// reopening an image, and fdatasync covers it.
func Fdatasync(fd int) error { return unix.Fdatasync(fd) }
