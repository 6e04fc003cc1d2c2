//go:build linux || darwin || freebsd

package region

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/Jeff-Souza/malloc/heap/dirty"
)

// Mapped is a Region backed by an anonymous private mapping. The whole
// reservation is mapped once; the kernel commits pages lazily as the break
// moves over them, and fresh pages read as zero.
type Mapped struct {
	mem []byte
	brk int
}

// NewMapped reserves maxBytes (DefaultMaxHeap if <= 0) of anonymous memory.
func NewMapped(maxBytes int) (*Mapped, error) {
	maxBytes = resolveMax(maxBytes)
	mem, err := unix.Mmap(-1, 0, maxBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("region: mmap %d bytes: %w", maxBytes, err)
	}
	return &Mapped{mem: mem}, nil
}

// Sbrk implements Region.
func (m *Mapped) Sbrk(n int) (int, error) {
	if m.mem == nil {
		return 0, ErrClosed
	}
	brk := m.brk
	if n <= 0 {
		return brk, nil
	}
	if n > len(m.mem)-brk {
		return 0, fmt.Errorf("sbrk %d bytes at break %d (max %d): %w", n, brk, len(m.mem), ErrExhausted)
	}
	m.brk += n
	return brk, nil
}

// Bytes implements Region.
func (m *Mapped) Bytes() []byte { return m.mem[:m.brk:m.brk] }

// Len implements Region.
func (m *Mapped) Len() int { return m.brk }

// Close unmaps the reservation.
func (m *Mapped) Close() error {
	if m.mem == nil {
		return ErrClosed
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	m.brk = 0
	return err
}

// File is a Region backed by a shared file mapping. The mapping spans the
// whole reservation while the file length always equals the break, so only
// bytes below the break are ever touched (pages past EOF would fault).
// Writes land in the page cache immediately; Sync makes them durable.
type File struct {
	f   *os.File
	mem []byte
	brk int
	dt  *dirty.Tracker
}

// CreateFile creates (or truncates) path and maps a reservation of
// maxBytes (DefaultMaxHeap if <= 0) over it. The break starts at zero.
func CreateFile(path string, maxBytes int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return mapFile(f, 0, resolveMax(maxBytes))
}

// OpenFile maps an existing heap image. The break is the current file
// length, which must not exceed the reservation.
func OpenFile(path string, maxBytes int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	maxBytes = resolveMax(maxBytes)
	if info.Size() > int64(maxBytes) {
		f.Close()
		return nil, fmt.Errorf("region: %s is %d bytes, reservation %d: %w", path, info.Size(), maxBytes, ErrTooLarge)
	}
	return mapFile(f, int(info.Size()), maxBytes)
}

func mapFile(f *os.File, size, maxBytes int) (*File, error) {
	mem, err := unix.Mmap(int(f.Fd()), 0, maxBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("region: mmap %s: %w", f.Name(), err)
	}
	return &File{
		f:   f,
		mem: mem,
		brk: size,
		dt:  dirty.NewTracker(),
	}, nil
}

// Sbrk implements Region. The file is extended first; if that fails the
// break does not move.
func (r *File) Sbrk(n int) (int, error) {
	if r.mem == nil {
		return 0, ErrClosed
	}
	brk := r.brk
	if n <= 0 {
		return brk, nil
	}
	if n > len(r.mem)-brk {
		return 0, fmt.Errorf("sbrk %d bytes at break %d (max %d): %w", n, brk, len(r.mem), ErrExhausted)
	}
	if err := unix.Ftruncate(int(r.f.Fd()), int64(brk+n)); err != nil {
		return 0, fmt.Errorf("sbrk: extend %s: %w: %w", r.f.Name(), ErrExhausted, err)
	}
	r.brk += n
	return brk, nil
}

// Bytes implements Region.
func (r *File) Bytes() []byte { return r.mem[:r.brk:r.brk] }

// Len implements Region.
func (r *File) Len() int { return r.brk }

// Path returns the backing file name.
func (r *File) Path() string { return r.f.Name() }

// Tracker returns the dirty tracker that Sync flushes. The allocator should
// report its writes here.
func (r *File) Tracker() *dirty.Tracker { return r.dt }

// Sync flushes dirty pages and then the file data.
func (r *File) Sync(ctx context.Context) error {
	if r.mem == nil {
		return ErrClosed
	}
	if err := r.dt.Flush(ctx, r.Bytes()); err != nil {
		return fmt.Errorf("region: flush %s: %w", r.f.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return dirty.Fdatasync(int(r.f.Fd()))
}

// Close unmaps the reservation and closes the file. Unsynced changes are
// still in the page cache and reach the file eventually; call Sync first
// for durability.
func (r *File) Close() error {
	if r.mem == nil {
		return ErrClosed
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	r.brk = 0
	return errors.Join(err, r.f.Close())
}
