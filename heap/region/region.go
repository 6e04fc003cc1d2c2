// Package region supplies the raw address space a heap is carved from.
//
// A Region behaves like the classic sbrk interface: it owns one contiguous
// run of bytes whose end (the break) only ever moves up. Addresses handed
// out by the allocator are offsets into that run, so a Region may move its
// base between calls (Bytes must be re-fetched after every Sbrk) without
// invalidating any address.
//
// # Implementations
//
//   - Memory: a Go byte slice with a fixed reservation. Portable, used by tests
//     and the default process heap.
//   - Mapped: an anonymous mmap reservation (linux, darwin, freebsd).
//   - File: a shared file mapping whose file length tracks the break, so the
//     heap image survives the process and can be reopened.
//
// None of the implementations are safe for concurrent use.
package region

import "errors"

// DefaultMaxHeap is the reservation used when a constructor is given a
// non-positive maximum.
const DefaultMaxHeap = 20 << 20

var (
	// ErrExhausted indicates the region cannot grow by the requested amount.
	ErrExhausted = errors.New("region: out of memory")

	// ErrClosed indicates the region was used after Close.
	ErrClosed = errors.New("region: closed")

	// ErrTooLarge indicates an existing image does not fit the reservation.
	ErrTooLarge = errors.New("region: image larger than reservation")
)

// Region is the heap-growth primitive consumed by the allocator.
type Region interface {
	// Sbrk extends the region by n bytes and returns the previous break,
	// which is the offset of the first new byte. n <= 0 reports the current
	// break without growing. On failure the break is unchanged.
	Sbrk(n int) (int, error)

	// Bytes returns the region contents up to the break. The slice is only
	// valid until the next Sbrk or Close.
	Bytes() []byte

	// Len returns the current break.
	Len() int

	// Close releases the region. Further calls fail with ErrClosed.
	Close() error
}

func resolveMax(maxBytes int) int {
	if maxBytes <= 0 {
		return DefaultMaxHeap
	}
	return maxBytes
}
