package alloc

import "github.com/Jeff-Souza/malloc/heap/block"

// insert splices a free block into the list before the first entry with a
// greater address, keeping the list sorted ascending.
func (a *Allocator) insert(b block.Block) {
	bp := b.Ptr()
	prev := block.Nil
	cur := a.head
	for cur != block.Nil && cur < bp {
		prev = cur
		cur = a.block(cur).Links().Next()
	}

	l := b.Links()
	l.SetPrev(prev)
	l.SetNext(cur)
	if prev == block.Nil {
		a.head = bp
	} else {
		a.block(prev).Links().SetNext(bp)
	}
	if cur != block.Nil {
		a.block(cur).Links().SetPrev(bp)
	}
	a.freeCount++
}

// remove unlinks a free block. The block must currently be on the list.
func (a *Allocator) remove(b block.Block) {
	l := b.Links()
	prev, next := l.Prev(), l.Next()
	if prev == block.Nil {
		a.head = next
	} else {
		a.block(prev).Links().SetNext(next)
	}
	if next != block.Nil {
		a.block(next).Links().SetPrev(prev)
	}
	a.freeCount--
}

// findFit returns the lowest-addressed free block of at least asize bytes.
func (a *Allocator) findFit(asize int) (block.Block, bool) {
	for p := a.head; p != block.Nil; {
		b := a.block(p)
		if b.Size() >= asize {
			return b, true
		}
		p = b.Links().Next()
	}
	return block.Block{}, false
}

// FreeList returns the free-list addresses in list order.
func (a *Allocator) FreeList() []block.Ptr {
	out := make([]block.Ptr, 0, a.freeCount)
	for p := a.head; p != block.Nil && len(out) <= a.freeCount; {
		out = append(out, p)
		p = a.block(p).Links().Next()
	}
	return out
}
