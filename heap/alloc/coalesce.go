package alloc

import "github.com/Jeff-Souza/malloc/heap/block"

// coalesce merges a block that has just been tagged free with whichever
// physical neighbours are also free, then inserts the result into the free
// list. Neighbours are unlinked before the merged tags are written. Returns
// the payload address of the merged block.
//
// The four cases, by neighbour state:
//
//	prev alloc, next alloc  insert as is
//	prev alloc, next free   absorb next
//	prev free,  next alloc  grow prev over this block
//	prev free,  next free   grow prev over this block and next
func (a *Allocator) coalesce(b block.Block) block.Ptr {
	prevAlloc := b.PrevAllocated()
	nextAlloc := b.NextAllocated()
	size := b.Size()

	switch {
	case prevAlloc && nextAlloc:
		a.stats.CoalesceNone++

	case prevAlloc && !nextAlloc:
		next := b.Next()
		a.remove(next)
		size += next.Size()
		b.SetTags(size, false)
		a.stats.CoalesceNext++

	case !prevAlloc && nextAlloc:
		prev := b.Prev()
		a.remove(prev)
		size += prev.Size()
		prev.SetTags(size, false)
		b = prev
		a.stats.CoalescePrev++

	default:
		prev, next := b.Prev(), b.Next()
		a.remove(prev)
		a.remove(next)
		size += prev.Size() + next.Size()
		prev.SetTags(size, false)
		b = prev
		a.stats.CoalesceBoth++
	}

	a.insert(b)
	return b.Ptr()
}
