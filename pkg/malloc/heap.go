package malloc

import (
	"context"
	"fmt"

	"github.com/Jeff-Souza/malloc/heap/alloc"
	"github.com/Jeff-Souza/malloc/heap/block"
	"github.com/Jeff-Souza/malloc/heap/region"
	"github.com/Jeff-Souza/malloc/internal/bounds"
)

// Ptr is a heap address. Nil is never a valid allocation.
type Ptr = block.Ptr

// Nil is the null heap address.
const Nil = block.Nil

// Errors (re-exported for convenience).
var (
	ErrOutOfMemory = alloc.ErrOutOfMemory
	ErrInvalidSize = alloc.ErrInvalidSize
	ErrCorrupt     = alloc.ErrCorrupt
)

// Usage and Stats describe a heap (re-exported for convenience).
type (
	Usage     = alloc.Usage
	Stats     = alloc.Stats
	BlockInfo = alloc.BlockInfo
)

// Heap is an allocator bound to the region it owns.
type Heap struct {
	r    region.Region
	a    *alloc.Allocator
	file *region.File
}

// New creates a heap over an in-memory region. Nothing is reserved from
// the region until the first allocation.
func New(opts *Options) *Heap {
	r := region.NewMemory(opts.maxHeap())
	return &Heap{r: r, a: alloc.New(r, nil, opts.config())}
}

// NewMapped creates a heap over an anonymous memory mapping.
func NewMapped(opts *Options) (*Heap, error) {
	r, err := region.NewMapped(opts.maxHeap())
	if err != nil {
		return nil, fmt.Errorf("malloc: map heap: %w", err)
	}
	return &Heap{r: r, a: alloc.New(r, nil, opts.config())}, nil
}

// CreateFile creates (or truncates) a persistent heap image at path.
func CreateFile(path string, opts *Options) (*Heap, error) {
	r, err := region.CreateFile(path, opts.maxHeap())
	if err != nil {
		return nil, fmt.Errorf("malloc: create %s: %w", path, err)
	}
	return &Heap{r: r, a: alloc.New(r, r.Tracker(), opts.config()), file: r}, nil
}

// OpenFile reopens a heap image written by CreateFile. The image is
// validated and its free list rebuilt; live addresses from the previous
// session remain valid.
func OpenFile(path string, opts *Options) (*Heap, error) {
	r, err := region.OpenFile(path, opts.maxHeap())
	if err != nil {
		return nil, fmt.Errorf("malloc: open %s: %w", path, err)
	}
	a, err := alloc.Open(r, r.Tracker(), opts.config())
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("malloc: open %s: %w", path, err)
	}
	return &Heap{r: r, a: a, file: r}, nil
}

// Alloc allocates n bytes and returns the address and a writable view of
// the payload. A zero n returns Nil and a nil slice.
func (h *Heap) Alloc(n int) (Ptr, []byte, error) {
	p, err := h.a.Malloc(n)
	if err != nil || p == Nil {
		return Nil, nil, err
	}
	return p, h.view(p), nil
}

// Free releases p. Freeing Nil does nothing.
func (h *Heap) Free(p Ptr) error {
	return h.a.Free(p)
}

// Realloc resizes p, preserving its contents up to the smaller of the old
// and new sizes. Realloc(Nil, n) allocates and Realloc(p, 0) frees p. On
// failure p is left intact.
func (h *Heap) Realloc(p Ptr, n int) (Ptr, error) {
	return h.a.Realloc(p, n)
}

// Calloc allocates an array of count elements of size bytes each and zeroes
// it.
func (h *Heap) Calloc(count, size int) (Ptr, error) {
	if count < 0 || size < 0 {
		return Nil, fmt.Errorf("%w: calloc(%d, %d)", ErrInvalidSize, count, size)
	}
	n, ok := bounds.Mul(count, size)
	if !ok {
		return Nil, fmt.Errorf("%w: calloc(%d, %d) overflows", ErrOutOfMemory, count, size)
	}
	p, err := h.a.Malloc(n)
	if err != nil || p == Nil {
		return Nil, err
	}
	// Reused blocks still hold old data.
	clear(h.view(p)[:n])
	return p, nil
}

// Bytes returns a writable view of p's payload, or nil for Nil.
func (h *Heap) Bytes(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	return h.view(p)
}

// view returns the payload and, for file heaps, records it as written.
func (h *Heap) view(p Ptr) []byte {
	buf := h.a.Payload(p)
	if h.file != nil {
		h.a.Touch(p, len(buf))
	}
	return buf
}

// Check verifies every heap invariant. See alloc.Allocator.Check.
func (h *Heap) Check() error {
	return h.a.Check()
}

// Usage summarizes the current heap layout.
func (h *Heap) Usage() (Usage, error) {
	return h.a.Usage()
}

// Stats returns the allocator's running counters.
func (h *Heap) Stats() Stats {
	return h.a.Stats()
}

// Walk visits every block in address order.
func (h *Heap) Walk(fn func(BlockInfo) error) error {
	return h.a.Walk(fn)
}

// Len returns the heap break in bytes.
func (h *Heap) Len() int {
	return h.r.Len()
}

// Allocator exposes the underlying allocator.
func (h *Heap) Allocator() *alloc.Allocator {
	return h.a
}

// Path returns the backing file of a persistent heap, or "".
func (h *Heap) Path() string {
	if h.file == nil {
		return ""
	}
	return h.file.Path()
}

// Sync makes a persistent heap durable. It is a no-op for in-memory heaps.
func (h *Heap) Sync(ctx context.Context) error {
	if h.file == nil {
		return nil
	}
	return h.file.Sync(ctx)
}

// Close releases the heap's region. Every address and view becomes
// invalid. Persistent heaps are not synced; call Sync first.
func (h *Heap) Close() error {
	return h.r.Close()
}
