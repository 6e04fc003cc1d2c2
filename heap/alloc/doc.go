// Package alloc implements a general-purpose heap allocator over a growable
// byte region.
//
// # Overview
//
// The allocator hands out 8-byte aligned payload addresses (block.Ptr) from a
// single contiguous region.Region that only grows. It uses:
//
//   - boundary tags: every block carries its size and allocation flag in both
//     a header and a footer word, so either neighbour can be found in O(1)
//   - an explicit free list threaded through the payloads of free blocks,
//     kept sorted by address
//   - first-fit search from the lowest address
//   - immediate coalescing of a freed or newly grown block with free
//     neighbours
//
// # Heap Layout
//
//	| pad | prologue hdr | prologue ftr | block ... block | epilogue hdr |
//	0     4              8              12                brk-4         brk
//
// The prologue is an allocated 8-byte block and the epilogue an allocated
// zero-size header at the break. They let coalescing treat the first and last
// real blocks like any other. Init writes them and seeds the heap with one
// free block of ChunkSize bytes (4104 bytes with the default chunk).
//
// # Usage Example
//
//	a := alloc.New(region.NewMemory(0), nil, nil)
//	p, err := a.Malloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(a.Payload(p), data)
//	p, err = a.Realloc(p, 400)
//	...
//	err = a.Free(p)
//
// # Growth
//
// When no free block fits, the heap grows by max(adjusted size, ChunkSize)
// bytes plus tag overhead. The old epilogue header becomes the new block's
// header, so a trailing free block merges with the growth. A region that
// refuses to grow leaves the heap untouched and Malloc returns
// ErrOutOfMemory.
//
// # Persistence
//
// Heaps on a file-backed region survive the process. Open re-attaches to
// such an image and rebuilds the free list from the block chain. Pass the
// region's dirty tracker so tag and link writes are flushed by Sync.
//
// # Thread Safety
//
// An Allocator is NOT thread-safe. Callers must provide external
// synchronization.
package alloc
