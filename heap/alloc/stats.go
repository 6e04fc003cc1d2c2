package alloc

import (
	"github.com/Jeff-Souza/malloc/heap/block"
	"github.com/Jeff-Souza/malloc/internal/format"
)

// Stats holds running operation counters.
type Stats struct {
	GrowCalls      int   // Number of heap growths
	GrowBytes      int64 // Total bytes added by growth, including tags
	AllocCalls     int   // Non-zero Malloc calls
	AllocFastPath  int   // Allocations served from the free list
	AllocSlowPath  int   // Allocations that required growth
	AllocFailed    int   // Allocations that returned ErrOutOfMemory
	FreeCalls      int   // Non-nil Free calls
	ReallocCalls   int   // Total Realloc calls
	BytesAllocated int64 // Total block bytes handed out, including tags
	BytesFreed     int64 // Total block bytes returned
	SplitCount     int   // Number of block splits

	// Coalesce outcomes, one per freed or grown block.
	CoalesceNone int
	CoalesceNext int
	CoalescePrev int
	CoalesceBoth int
}

// Stats returns a copy of the running counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// BlockInfo describes one block of the heap.
type BlockInfo struct {
	Ptr       block.Ptr
	Size      int
	Allocated bool
}

// Usage summarizes the heap's current layout.
type Usage struct {
	HeapBytes       int     // Current break, sentinels included
	Blocks          int     // Blocks between prologue and epilogue
	AllocatedBlocks int     // Blocks tagged allocated
	AllocatedBytes  int     // Block bytes tagged allocated, tags included
	PayloadBytes    int     // Usable bytes in allocated blocks
	FreeBlocks      int     // Blocks tagged free
	FreeBytes       int     // Block bytes tagged free
	LargestFree     int     // Largest single free block
	FreeListLen     int     // Entries on the free list
	Fragmentation   float64 // 1 - LargestFree/FreeBytes, 0 with no free space
}

// Walk calls fn for every block in address order. A heap that has not been
// initialized has no blocks.
func (a *Allocator) Walk(fn func(BlockInfo) error) error {
	if !a.Initialized() {
		return nil
	}
	return block.Walk(a.r.Bytes(), func(b block.Block) error {
		return fn(BlockInfo{Ptr: b.Ptr(), Size: b.Size(), Allocated: b.Allocated()})
	})
}

// Usage walks the heap and summarizes it. It fails only if the block chain
// is malformed.
func (a *Allocator) Usage() (Usage, error) {
	u := Usage{
		HeapBytes:   a.r.Len(),
		FreeListLen: a.freeCount,
	}
	err := a.Walk(func(bi BlockInfo) error {
		u.Blocks++
		if bi.Allocated {
			u.AllocatedBlocks++
			u.AllocatedBytes += bi.Size
			u.PayloadBytes += bi.Size - format.Overhead
			return nil
		}
		u.FreeBlocks++
		u.FreeBytes += bi.Size
		u.LargestFree = max(u.LargestFree, bi.Size)
		return nil
	})
	if err != nil {
		return Usage{}, err
	}
	if u.FreeBytes > 0 {
		u.Fragmentation = 1 - float64(u.LargestFree)/float64(u.FreeBytes)
	}
	return u, nil
}
