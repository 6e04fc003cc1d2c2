// Package block is the only place that does address arithmetic on a heap.
//
// A heap is a byte slice laid out as a sequence of blocks:
//
//	0      4          8          12         16
//	| pad  | prologue | prologue | header   | payload ...  | footer | ... | epilogue |
//	|      | header   | footer   | block 0  |              |        |     | header   |
//
// Every block carries identical boundary tags (format.Tag) in its header
// (the word before the payload) and its footer (the last word of the
// block). A block is identified by its payload address, a Ptr. All other
// positions are derived from that address and the size in the tag.
//
// While a block is tagged free, the first two payload words hold the
// previous and next free-list links. Those words are only reachable through
// Links, which refuses allocated blocks.
package block

import (
	"fmt"

	"github.com/Jeff-Souza/malloc/heap/dirty"
	"github.com/Jeff-Souza/malloc/internal/format"
)

// Ptr is a payload address: a byte offset from the start of the heap.
type Ptr uint32

// Nil is the null address. Offset 0 is the alignment pad, so no block ever
// lives there.
const Nil Ptr = 0

// Block is a handle on one block of a heap. It is a view: it holds the heap
// slice it was created from and must be re-created after the heap grows.
type Block struct {
	mem []byte
	bp  int
	dt  dirty.DirtyTracker
}

// At returns the block whose payload starts at p.
func At(mem []byte, p Ptr) Block {
	return Block{mem: mem, bp: int(p)}
}

// Tracked returns the block at p, reporting every tag and link write to dt.
// A nil dt disables tracking.
func Tracked(mem []byte, dt dirty.DirtyTracker, p Ptr) Block {
	return Block{mem: mem, bp: int(p), dt: dt}
}

// Ptr returns the payload address.
func (b Block) Ptr() Ptr { return Ptr(b.bp) }

// Header returns the offset of the header word.
func (b Block) Header() int { return b.bp - format.WordSize }

// Footer returns the offset of the footer word. Only meaningful for blocks
// with a non-zero size.
func (b Block) Footer() int { return b.bp + b.Size() - format.DoubleSize }

// Tag returns the header tag.
func (b Block) Tag() format.Tag { return format.ReadTag(b.mem, b.Header()) }

// FooterTag returns the footer tag.
func (b Block) FooterTag() format.Tag { return format.ReadTag(b.mem, b.Footer()) }

// Size returns the total block size from the header.
func (b Block) Size() int { return int(b.Tag().Size()) }

// Allocated reports the header's allocation flag.
func (b Block) Allocated() bool { return b.Tag().Allocated() }

// PayloadSize returns the usable bytes between header and footer.
func (b Block) PayloadSize() int { return b.Size() - format.Overhead }

// IsEpilogue reports whether this is the zero-size end-of-heap marker.
func (b Block) IsEpilogue() bool {
	t := b.Tag()
	return t.Size() == 0 && t.Allocated()
}

// Payload returns the payload bytes. The slice cannot be appended past the
// footer.
func (b Block) Payload() []byte {
	end := b.bp + b.PayloadSize()
	if b.bp < 0 || end > len(b.mem) || end < b.bp {
		panic(fmt.Sprintf("block: payload %d+%d outside heap of %d bytes", b.bp, b.PayloadSize(), len(b.mem)))
	}
	return b.mem[b.bp:end:end]
}

// SetTags writes identical header and footer tags. The footer position is
// computed from size, not from the previous header.
func (b Block) SetTags(size int, allocated bool) {
	t := format.Pack(uint32(size), allocated)
	format.PutTag(b.mem, b.Header(), t)
	format.PutTag(b.mem, b.bp+size-format.DoubleSize, t)
	b.touch(b.Header(), format.WordSize)
	b.touch(b.bp+size-format.DoubleSize, format.WordSize)
}

// SetHeader writes only the header tag. Used for the epilogue, which has no
// footer.
func (b Block) SetHeader(size int, allocated bool) {
	format.PutTag(b.mem, b.Header(), format.Pack(uint32(size), allocated))
	b.touch(b.Header(), format.WordSize)
}

// Next returns the physically following block.
func (b Block) Next() Block {
	return Block{mem: b.mem, bp: b.bp + b.Size(), dt: b.dt}
}

// Prev returns the physically preceding block, located through its footer.
func (b Block) Prev() Block {
	size := int(format.ReadTag(b.mem, b.bp-format.DoubleSize).Size())
	return Block{mem: b.mem, bp: b.bp - size, dt: b.dt}
}

// PrevAllocated reads the allocation flag from the preceding block's
// footer. The prologue makes this safe for the first block.
func (b Block) PrevAllocated() bool {
	return format.ReadTag(b.mem, b.bp-format.DoubleSize).Allocated()
}

// NextAllocated reads the allocation flag from the following block's
// header. The epilogue makes this safe for the last block.
func (b Block) NextAllocated() bool {
	return b.Next().Allocated()
}

// Links returns the free-list link view of a free block. It panics if the
// block is tagged allocated: the link words belong to the caller's payload
// then.
func (b Block) Links() Links {
	if b.Allocated() {
		panic(fmt.Sprintf("block: free-list links requested on allocated block at %d", b.bp))
	}
	return Links{b: b}
}

func (b Block) touch(off, length int) {
	if b.dt != nil {
		b.dt.Add(off, length)
	}
}

func (b Block) String() string {
	return fmt.Sprintf("block@%d(%v)", b.bp, b.Tag())
}

// Links is the pair of free-list references overlaid on the first two
// payload words of a free block.
type Links struct {
	b Block
}

// Prev returns the previous free block's address, or Nil.
func (l Links) Prev() Ptr {
	return Ptr(format.ReadU32(l.b.mem, l.b.bp+format.PrevLinkOffset))
}

// Next returns the next free block's address, or Nil.
func (l Links) Next() Ptr {
	return Ptr(format.ReadU32(l.b.mem, l.b.bp+format.NextLinkOffset))
}

// SetPrev stores the previous free block's address.
func (l Links) SetPrev(p Ptr) {
	format.PutU32(l.b.mem, l.b.bp+format.PrevLinkOffset, uint32(p))
	l.b.touch(l.b.bp+format.PrevLinkOffset, format.WordSize)
}

// SetNext stores the next free block's address.
func (l Links) SetNext(p Ptr) {
	format.PutU32(l.b.mem, l.b.bp+format.NextLinkOffset, uint32(p))
	l.b.touch(l.b.bp+format.NextLinkOffset, format.WordSize)
}
