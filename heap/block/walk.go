package block

import (
	"errors"
	"fmt"

	"github.com/Jeff-Souza/malloc/internal/format"
)

// ErrMalformed indicates the block chain cannot be followed: a tag points
// outside the heap, has an illegal size, or the epilogue is missing.
var ErrMalformed = errors.New("block: malformed heap")

// FirstPtr is the payload address of the first block after the prologue.
const FirstPtr = Ptr(format.HeapStart + format.PrologueSize)

// Prologue returns the prologue sentinel block.
func Prologue(mem []byte) Block {
	return At(mem, format.HeapStart)
}

// Epilogue returns the end-of-heap marker, whose header is the last word of
// the heap.
func Epilogue(mem []byte) Block {
	return At(mem, Ptr(len(mem)))
}

// Walk calls fn for every block between the prologue and the epilogue, in
// address order. It stops at the first error returned by fn, or with
// ErrMalformed if a tag would lead outside the heap or to an illegal size.
func Walk(mem []byte, fn func(Block) error) error {
	if len(mem) < format.InitialHeapSize {
		return fmt.Errorf("%w: heap of %d bytes has no room for sentinels", ErrMalformed, len(mem))
	}
	bp := int(FirstPtr)
	for {
		if bp > len(mem) {
			return fmt.Errorf("%w: block at %d starts past the end of the heap (%d)", ErrMalformed, bp, len(mem))
		}
		b := At(mem, Ptr(bp))
		tag := b.Tag()
		if tag.Size() == 0 {
			if !tag.Allocated() {
				return fmt.Errorf("%w: free zero-size block at %d", ErrMalformed, bp)
			}
			if bp != len(mem) {
				return fmt.Errorf("%w: epilogue at %d, heap ends at %d", ErrMalformed, bp, len(mem))
			}
			return nil
		}
		size := int(tag.Size())
		if size < format.MinBlockSize {
			return fmt.Errorf("%w: block at %d has size %d below minimum %d", ErrMalformed, bp, size, format.MinBlockSize)
		}
		if bp+size > len(mem) {
			return fmt.Errorf("%w: block at %d size %d overruns heap of %d bytes", ErrMalformed, bp, size, len(mem))
		}
		if err := fn(b); err != nil {
			return err
		}
		bp += size
	}
}
