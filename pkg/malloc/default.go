package malloc

import (
	"sync/atomic"

	"github.com/Jeff-Souza/malloc/internal/logger"
)

// The default heap is created on first use. busy detects overlapping calls,
// which the allocator cannot survive.
var (
	defaultHeap *Heap
	busy        atomic.Bool
)

func enter() *Heap {
	if !busy.CompareAndSwap(false, true) {
		panic("malloc: concurrent use of the default heap")
	}
	if defaultHeap == nil {
		defaultHeap = New(nil)
	}
	return defaultHeap
}

func leave() {
	busy.Store(false)
}

// Malloc allocates n bytes from the default heap. It returns Nil when n is
// zero or the heap is exhausted.
func Malloc(n int) Ptr {
	h := enter()
	defer leave()
	p, _, err := h.Alloc(n)
	if err != nil {
		logger.Debug("malloc failed", "size", n, "err", err)
		return Nil
	}
	return p
}

// Free releases p to the default heap. Free(Nil) does nothing.
func Free(p Ptr) {
	h := enter()
	defer leave()
	if err := h.Free(p); err != nil {
		logger.Debug("free failed", "ptr", p, "err", err)
	}
}

// Realloc resizes p on the default heap. It returns Nil on failure, leaving
// p intact. Realloc(p, 0) frees p and returns it.
func Realloc(p Ptr, n int) Ptr {
	h := enter()
	defer leave()
	np, err := h.Realloc(p, n)
	if err != nil {
		logger.Debug("realloc failed", "ptr", p, "size", n, "err", err)
		return Nil
	}
	return np
}

// Calloc allocates a zeroed array of count elements of size bytes from the
// default heap, or returns Nil.
func Calloc(count, size int) Ptr {
	h := enter()
	defer leave()
	p, err := h.Calloc(count, size)
	if err != nil {
		logger.Debug("calloc failed", "count", count, "size", size, "err", err)
		return Nil
	}
	return p
}

// Bytes returns the payload of p on the default heap, or nil for Nil.
func Bytes(p Ptr) []byte {
	h := enter()
	defer leave()
	return h.Bytes(p)
}
