package format

import "fmt"

// Tag is a boundary-tag word as stored in block headers and footers.
//
// Layout (little-endian uint32):
//
//	bit  31..3  block size in bytes (always a multiple of 8)
//	bit  2..1   reserved, written as zero
//	bit  0      allocated flag
//
// The size covers the whole block including header and footer. The
// epilogue header is the only tag with size zero.
type Tag uint32

// Pack encodes size and the allocation flag into a Tag. The size must be a
// multiple of 8; any low bits are dropped.
func Pack(size uint32, allocated bool) Tag {
	t := Tag(size &^ FlagMask)
	if allocated {
		t |= AllocBit
	}
	return t
}

// Size returns the block size encoded in the tag.
func (t Tag) Size() uint32 {
	return uint32(t) &^ FlagMask
}

// Allocated reports whether the allocation flag is set.
func (t Tag) Allocated() bool {
	return uint32(t)&AllocBit != 0
}

// Reserved returns the two reserved flag bits. They are zero for every tag
// written by this package.
func (t Tag) Reserved() uint32 {
	return uint32(t) & (FlagMask &^ AllocBit)
}

func (t Tag) String() string {
	state := "free"
	if t.Allocated() {
		state = "alloc"
	}
	return fmt.Sprintf("%d/%s", t.Size(), state)
}

// ReadTag reads the tag word at off.
func ReadTag(b []byte, off int) Tag {
	return Tag(ReadU32(b, off))
}

// PutTag writes the tag word at off.
func PutTag(b []byte, off int, t Tag) {
	PutU32(b, off, uint32(t))
}
