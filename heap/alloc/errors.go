package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the heap region could not supply the space a
	// request needed. It wraps the region's error.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrInvalidSize indicates a negative request size.
	ErrInvalidSize = errors.New("alloc: invalid size")

	// ErrRegionNotEmpty indicates Init was called on a region that already
	// holds data. Use Open to attach to an existing heap image.
	ErrRegionNotEmpty = errors.New("alloc: region not empty")

	// ErrCorrupt indicates a heap image or the live heap violates the block
	// layout or free-list invariants.
	ErrCorrupt = errors.New("alloc: heap corrupt")
)
