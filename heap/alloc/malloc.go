package alloc

import (
	"fmt"

	"github.com/Jeff-Souza/malloc/heap/block"
	"github.com/Jeff-Souza/malloc/internal/format"
)

// Malloc returns the payload address of a block with at least size usable
// bytes, aligned to 8. A zero size returns Nil without touching the heap.
//
// The free list is searched first-fit from its lowest address. On a miss
// the heap grows by max(adjusted size, ChunkSize) and the request is
// placed in the new (possibly coalesced) block. If the region cannot grow
// the heap is left exactly as it was and the error wraps ErrOutOfMemory.
func (a *Allocator) Malloc(size int) (block.Ptr, error) {
	if size == 0 {
		return block.Nil, nil
	}
	if size < 0 {
		return block.Nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if err := a.ensureInit(); err != nil {
		return block.Nil, err
	}
	a.stats.AllocCalls++

	if size > maxHeapSize-format.Overhead {
		a.stats.AllocFailed++
		return block.Nil, fmt.Errorf("%w: request of %d bytes", ErrOutOfMemory, size)
	}
	asize := format.AdjustedSize(size)

	if b, ok := a.findFit(asize); ok {
		a.stats.BytesAllocated += int64(a.place(b, asize))
		a.stats.AllocFastPath++
		a.verify("malloc")
		return b.Ptr(), nil
	}

	grow := max(asize, a.cfg.ChunkSize)
	p, err := a.extendHeap(grow / format.WordSize)
	if err != nil {
		a.stats.AllocFailed++
		a.log().Warn("allocation failed", "size", size, "adjusted", asize, "err", err)
		return block.Nil, err
	}
	b := a.block(p)
	a.stats.BytesAllocated += int64(a.place(b, asize))
	a.stats.AllocSlowPath++
	a.verify("malloc")
	return b.Ptr(), nil
}

// place marks asize bytes of the free block b allocated. b is unlinked
// first; when the leftover would be at least MinBlockSize it is split off
// as a new free block and inserted. Returns the allocated block size.
func (a *Allocator) place(b block.Block, asize int) int {
	csize := b.Size()
	a.remove(b)

	if csize-asize >= format.MinBlockSize {
		b.SetTags(asize, true)
		rest := b.Next()
		rest.SetTags(csize-asize, false)
		a.insert(rest)
		a.stats.SplitCount++
		return asize
	}

	b.SetTags(csize, true)
	return csize
}

// Free returns a block to the heap, merging it with free neighbours. Nil
// is ignored. Freeing an address Malloc did not return, or freeing twice,
// is undefined and may corrupt the heap.
func (a *Allocator) Free(p block.Ptr) error {
	if err := a.ensureInit(); err != nil {
		return err
	}
	if p == block.Nil {
		return nil
	}
	a.stats.FreeCalls++

	b := a.block(p)
	size := b.Size()
	b.SetTags(size, false)
	a.coalesce(b)
	a.stats.BytesFreed += int64(size)

	a.verify("free")
	return nil
}

// Realloc resizes the allocation at p:
//   - p == Nil behaves like Malloc(size)
//   - size == 0 frees p and returns p, which must not be used again
//   - otherwise a new block is allocated, min(old payload, size) bytes are
//     copied, and p is freed
//
// On failure p is untouched and still owned by the caller.
func (a *Allocator) Realloc(p block.Ptr, size int) (block.Ptr, error) {
	a.stats.ReallocCalls++
	if p == block.Nil {
		return a.Malloc(size)
	}
	if size == 0 {
		return p, a.Free(p)
	}
	if size < 0 {
		return block.Nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	old := a.block(p).PayloadSize()
	np, err := a.Malloc(size)
	if err != nil {
		return block.Nil, err
	}

	// Re-fetch: Malloc may have grown the region.
	mem := a.r.Bytes()
	n := min(old, size)
	copy(mem[np:int(np)+n], mem[p:int(p)+n])
	a.touch(int(np), n)

	if err := a.Free(p); err != nil {
		return block.Nil, err
	}
	return np, nil
}

// Payload returns the usable bytes of the allocated block at p. The slice
// aliases the heap and is only valid until the next Malloc or Realloc,
// which may grow and move the region.
func (a *Allocator) Payload(p block.Ptr) []byte {
	return a.block(p).Payload()
}

// Touch reports a caller write to n payload bytes at p to the dirty
// tracker. In-memory heaps ignore it.
func (a *Allocator) Touch(p block.Ptr, n int) {
	a.touch(int(p), n)
}
