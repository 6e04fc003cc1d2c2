//go:build darwin

package dirty

import "golang.org/x/sys/unix"

var hostPageSize = int64(unix.Getpagesize())

func msync(b []byte) error { return unix.Msync(b, unix.MS_SYNC) }

// Fdatasync issues F_FULLFSYNC; darwin lacks fdatasync and a plain fsync
// stops at the drive cache.
func Fdatasync(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_FULLFSYNC, 0)
	return err
}
