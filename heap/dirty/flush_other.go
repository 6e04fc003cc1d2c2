//go:build !linux && !freebsd && !darwin

package dirty

// File-backed heaps do not exist on these platforms.

const hostPageSize = 4096

func msync([]byte) error { return nil }

// Fdatasync does nothing here.
func Fdatasync(int) error { return nil }
