package alloc

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Jeff-Souza/malloc/heap/block"
	"github.com/Jeff-Souza/malloc/heap/region"
	"github.com/Jeff-Souza/malloc/internal/format"
	"github.com/Jeff-Souza/malloc/internal/logger"
)

// maxHeapSize caps the break so every address fits a Ptr and an int on
// 32-bit platforms.
const maxHeapSize = math.MaxInt32 &^ format.AlignmentMask

// Allocator is a first-fit allocator over one region with an
// address-ordered explicit free list and boundary-tag coalescing.
//
// All state lives here; there are no package globals. An Allocator is not
// safe for concurrent use.
type Allocator struct {
	r   region.Region
	dt  DirtyTracker
	cfg Config

	// heapStart is the prologue's payload address, Nil until the sentinels
	// have been written.
	heapStart block.Ptr

	// head is the lowest-addressed free block, Nil when the list is empty.
	head block.Ptr

	// freeCount is the free-list length, cross-checked by Check.
	freeCount int

	stats Stats

	// Test hook: called after each successful growth with the byte count.
	onGrow func(int)
}

// New creates an allocator over an empty region. Nothing is written until
// Init or the first Malloc, Free or Realloc.
//
// Parameters:
//   - r: The region to carve the heap from
//   - dt: Dirty tracker for file-backed regions (nil for in-memory heaps)
//   - cfg: Configuration (use nil for DefaultConfig)
func New(r region.Region, dt DirtyTracker, cfg *Config) *Allocator {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	return &Allocator{
		r:   r,
		dt:  dt,
		cfg: cfg.normalized(),
	}
}

// log returns Config.Logger, or the process logger as configured at the
// time of the call, so logger.Init after New still takes effect.
func (a *Allocator) log() *slog.Logger {
	if a.cfg.Logger != nil {
		return a.cfg.Logger
	}
	return logger.AllocDebug()
}

// Open attaches to a region that already holds a heap image, such as a
// reopened file-backed region. The block chain is validated and the free
// list rebuilt in address order. An empty region yields an allocator that
// initializes lazily, exactly like New.
func Open(r region.Region, dt DirtyTracker, cfg *Config) (*Allocator, error) {
	a := New(r, dt, cfg)
	mem := r.Bytes()
	if len(mem) == 0 {
		return a, nil
	}
	if len(mem) < format.InitialHeapSize || !format.IsAligned(len(mem)) {
		return nil, fmt.Errorf("%w: image of %d bytes", ErrCorrupt, len(mem))
	}
	pro := block.Prologue(mem)
	want := format.Pack(format.PrologueSize, true)
	if pro.Tag() != want || pro.FooterTag() != want {
		return nil, fmt.Errorf("%w: bad prologue %v/%v", ErrCorrupt, pro.Tag(), pro.FooterTag())
	}

	var tail block.Block
	err := block.Walk(mem, func(b block.Block) error {
		if b.Tag() != b.FooterTag() {
			return fmt.Errorf("block at %d: header %v, footer %v", b.Ptr(), b.Tag(), b.FooterTag())
		}
		if b.Allocated() {
			return nil
		}
		fb := a.block(b.Ptr())
		l := fb.Links()
		l.SetNext(block.Nil)
		if a.head == block.Nil {
			a.head = fb.Ptr()
			l.SetPrev(block.Nil)
		} else {
			l.SetPrev(tail.Ptr())
			tail.Links().SetNext(fb.Ptr())
		}
		tail = fb
		a.freeCount++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	a.heapStart = format.HeapStart
	a.log().Debug("heap attached", "bytes", len(mem), "free_blocks", a.freeCount)
	return a, nil
}

// Init lays down the alignment pad, the prologue and the epilogue, then
// grows the heap by one chunk. It is a no-op once the sentinels exist, so
// a failed seeding growth is retried by the next Malloc rather than by
// Init.
func (a *Allocator) Init() error {
	if a.heapStart != block.Nil {
		return nil
	}
	if n := a.r.Len(); n != 0 {
		return fmt.Errorf("%w: break at %d", ErrRegionNotEmpty, n)
	}
	if _, err := a.r.Sbrk(format.InitialHeapSize); err != nil {
		return fmt.Errorf("init: %w: %w", ErrOutOfMemory, err)
	}

	mem := a.r.Bytes()
	format.PutU32(mem, 0, 0)
	a.touch(0, format.WordSize)
	block.Tracked(mem, a.dt, format.HeapStart).SetTags(format.PrologueSize, true)
	block.Tracked(mem, a.dt, block.FirstPtr).SetHeader(0, true)

	a.heapStart = format.HeapStart
	a.head = block.Nil
	a.freeCount = 0

	if _, err := a.extendHeap(a.cfg.ChunkSize / format.WordSize); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

// Initialized reports whether the sentinels have been written.
func (a *Allocator) Initialized() bool {
	return a.heapStart != block.Nil
}

// Config returns the normalized configuration in use.
func (a *Allocator) Config() Config {
	return a.cfg
}

func (a *Allocator) ensureInit() error {
	if a.heapStart != block.Nil {
		return nil
	}
	return a.Init()
}

// extendHeap grows the region by GrowSize(words) bytes. The old epilogue
// header becomes the new free block's header, a new epilogue is written
// at the break, and the block is coalesced with a trailing free block if
// there is one. Nothing changes when the region refuses to grow.
func (a *Allocator) extendHeap(words int) (block.Ptr, error) {
	size := format.GrowSize(words)
	if size > maxHeapSize-a.r.Len() {
		a.log().Warn("heap growth refused", "bytes", size, "break", a.r.Len(), "limit", maxHeapSize)
		return block.Nil, fmt.Errorf("%w: grow by %d bytes: break %d would exceed %d",
			ErrOutOfMemory, size, a.r.Len(), maxHeapSize)
	}

	bp, err := a.r.Sbrk(size)
	if err != nil {
		a.log().Warn("heap growth failed", "bytes", size, "break", a.r.Len(), "err", err)
		return block.Nil, fmt.Errorf("%w: grow by %d bytes: %w", ErrOutOfMemory, size, err)
	}

	b := a.block(block.Ptr(bp))
	b.SetTags(size, false)
	b.Next().SetHeader(0, true)

	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(size)
	a.log().Debug("heap grown", "grow", a.stats.GrowCalls, "bytes", size, "break", a.r.Len())

	if a.onGrow != nil {
		a.onGrow(size)
	}
	return a.coalesce(b), nil
}

// block returns a tracked handle on the current heap bytes. Handles must
// not be kept across a growth.
func (a *Allocator) block(p block.Ptr) block.Block {
	return block.Tracked(a.r.Bytes(), a.dt, p)
}

func (a *Allocator) touch(off, length int) {
	if a.dt != nil {
		a.dt.Add(off, length)
	}
}

// verify runs Check in debug configurations.
func (a *Allocator) verify(op string) {
	if !a.cfg.CheckEveryOp {
		return
	}
	if err := a.Check(); err != nil {
		panic(fmt.Sprintf("alloc: heap inconsistent after %s: %v", op, err))
	}
}
