// Package format defines the in-memory layout of heap blocks: word sizes,
// alignment, the boundary-tag encoding and the little-endian word codec.
// Everything here is pure arithmetic on offsets and byte slices so the
// allocator packages can stay free of magic numbers.
package format

const (
	// WordSize is the width of a header, footer or free-list link word.
	WordSize = 4

	// DoubleSize is the alignment unit and the smallest payload handed out.
	DoubleSize = 8

	// Alignment is the guaranteed alignment of every payload address.
	Alignment = DoubleSize

	// AlignmentMask is Alignment-1, used for rounding.
	AlignmentMask = Alignment - 1

	// Overhead is the per-block bookkeeping cost: one header word plus one
	// footer word.
	Overhead = 2 * WordSize

	// MinBlockSize is the smallest legal block: header, the two free-list
	// link words overlaid on the payload, and the footer.
	MinBlockSize = Overhead + 2*WordSize

	// ChunkSize is the default growth step and the size of the free block
	// seeded by heap initialization.
	ChunkSize = 1 << 12

	// PrologueSize is the size of the allocated sentinel block at the low
	// end of the heap (header + footer, no payload).
	PrologueSize = Overhead

	// InitialHeapSize is the byte count requested by heap initialization:
	// alignment pad, prologue header, prologue footer and epilogue header.
	InitialHeapSize = 4 * WordSize

	// HeapStart is the payload address of the prologue block.
	HeapStart = 2 * WordSize

	// FlagMask covers the low three tag bits reserved for flags.
	FlagMask = 0x7

	// AllocBit marks a block as allocated.
	AllocBit = 0x1
)

// Free-list link positions relative to a free block's payload address.
const (
	PrevLinkOffset = 0
	NextLinkOffset = WordSize
)
