package alloc

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/Jeff-Souza/malloc/heap/block"
	"github.com/Jeff-Souza/malloc/internal/format"
)

// Check walks the heap and the free list and reports every invariant
// violation it finds, joined into one error. Each violation wraps
// ErrCorrupt. A heap that has not been initialized is trivially
// consistent.
//
// Checked:
//   - prologue and epilogue sentinels
//   - 8-byte alignment of every payload
//   - header equal to footer in every block
//   - no two physically adjacent free blocks
//   - every free block on the list exactly once, and nothing else
//   - list in strictly ascending address order with symmetric links
func (a *Allocator) Check() error {
	if !a.Initialized() {
		return nil
	}
	mem := a.r.Bytes()

	var errs []error
	fail := func(msg string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+msg, append([]any{ErrCorrupt}, args...)...))
	}

	pro := block.Prologue(mem)
	want := format.Pack(format.PrologueSize, true)
	if pro.Tag() != want || pro.FooterTag() != want {
		fail("prologue tags %v/%v, want %v", pro.Tag(), pro.FooterTag(), want)
	}

	free := make(map[block.Ptr]bool)
	prevFree := false
	walkErr := block.Walk(mem, func(b block.Block) error {
		p := b.Ptr()
		if !format.IsAligned(int(p)) {
			fail("block at %d: payload not 8-byte aligned", p)
		}
		if b.Tag() != b.FooterTag() {
			fail("block at %d: header %v, footer %v", p, b.Tag(), b.FooterTag())
		}
		if r := b.Tag().Reserved(); r != 0 {
			fail("block at %d: reserved tag bits %#x set", p, r)
		}
		if !b.Allocated() {
			if prevFree {
				fail("block at %d: free and adjacent to a free predecessor", p)
			}
			free[p] = true
		}
		prevFree = !b.Allocated()
		return nil
	})
	if walkErr != nil {
		// Without a walkable chain the list cannot be validated safely.
		errs = append(errs, fmt.Errorf("%w: %w", ErrCorrupt, walkErr))
		return errors.Join(errs...)
	}

	visited := make(map[block.Ptr]bool, len(free))
	prev := block.Nil
	for p := a.head; p != block.Nil; {
		if visited[p] {
			fail("free list: cycle at %d", p)
			break
		}
		if !free[p] {
			fail("free list: entry %d is not a free block", p)
			break
		}
		visited[p] = true
		l := a.block(p).Links()
		if l.Prev() != prev {
			fail("free list: block at %d has prev %d, reached from %d", p, l.Prev(), prev)
		}
		if prev != block.Nil && p <= prev {
			fail("free list: block at %d follows %d out of address order", p, prev)
		}
		prev = p
		p = l.Next()
	}

	for _, p := range slices.Sorted(maps.Keys(free)) {
		if !visited[p] {
			fail("free block at %d missing from free list", p)
		}
	}
	if a.freeCount != len(free) {
		fail("free list length %d, heap has %d free blocks", a.freeCount, len(free))
	}
	return errors.Join(errs...)
}
