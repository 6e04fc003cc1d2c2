package trace

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Jeff-Souza/malloc/heap/block"
	"github.com/Jeff-Souza/malloc/internal/bounds"
	"github.com/Jeff-Souza/malloc/internal/format"
)

// Heap is the allocator surface a replay drives.
type Heap interface {
	Alloc(n int) (block.Ptr, []byte, error)
	Realloc(p block.Ptr, n int) (block.Ptr, error)
	Free(p block.Ptr) error
	Bytes(p block.Ptr) []byte
	Len() int
	Check() error
}

// ReplayOptions controls a replay.
type ReplayOptions struct {
	// Check runs Heap.Check after every op.
	Check bool
}

// Result summarizes one replay.
type Result struct {
	Name        string
	Ops         int
	PeakPayload int // Largest total of live requested bytes
	HeapBytes   int // Heap break after the last op
	Elapsed     time.Duration
}

// Utilization is the peak live payload as a fraction of the final heap
// size. The heap never shrinks, so this is the classic malloc-lab
// utilization score.
func (r *Result) Utilization() float64 {
	if r.HeapBytes == 0 {
		return 0
	}
	return float64(r.PeakPayload) / float64(r.HeapBytes)
}

// OpsPerSec is the replay throughput.
func (r *Result) OpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

type slot struct {
	ptr  block.Ptr
	size int
	live bool
}

// span is a live payload, used for overlap detection.
type span struct {
	start, end int
}

// Replay runs every op of t against h and verifies each returned block:
// 8-byte aligned, inside the heap, disjoint from every live block, and
// still holding the pattern written into it when it is resized or freed.
// The context is checked between ops.
func Replay(ctx context.Context, t *Trace, h Heap, opts *ReplayOptions) (*Result, error) {
	if opts == nil {
		opts = &ReplayOptions{}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	r := &replayer{
		h:     h,
		slots: make([]slot, t.NumIDs),
	}
	start := time.Now()

	for i, op := range t.Ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.step(op); err != nil {
			return nil, fmt.Errorf("op %d (%v): %w", i, op, err)
		}
		if opts.Check {
			if err := h.Check(); err != nil {
				return nil, fmt.Errorf("op %d (%v): %w", i, op, err)
			}
		}
	}

	return &Result{
		Name:        t.Name,
		Ops:         len(t.Ops),
		PeakPayload: r.peak,
		HeapBytes:   h.Len(),
		Elapsed:     time.Since(start),
	}, nil
}

type replayer struct {
	h     Heap
	slots []slot
	spans []span // sorted by start
	cur   int
	peak  int
}

func (r *replayer) step(op Op) error {
	s := &r.slots[op.ID]
	switch op.Kind {
	case Alloc:
		p, buf, err := r.h.Alloc(op.Size)
		if err != nil {
			return err
		}
		if err := r.claim(p, op.Size); err != nil {
			return err
		}
		if op.Size > 0 {
			dst, err := payload(buf, op)
			if err != nil {
				return err
			}
			fillPattern(dst, op.ID)
		}
		*s = slot{ptr: p, size: op.Size, live: true}
		r.cur += op.Size

	case Realloc:
		keep := min(s.size, op.Size)
		r.release(s.ptr, s.size)
		p, err := r.h.Realloc(s.ptr, op.Size)
		if err != nil {
			return err
		}
		r.cur -= s.size
		if op.Size == 0 {
			*s = slot{}
			break
		}
		if err := r.claim(p, op.Size); err != nil {
			return err
		}
		dst, err := payload(r.h.Bytes(p), op)
		if err != nil {
			return err
		}
		if err := verifyPattern(dst[:keep], op.ID); err != nil {
			return fmt.Errorf("%w: block %d lost contents across realloc: %w", ErrVerify, op.ID, err)
		}
		fillPattern(dst, op.ID)
		*s = slot{ptr: p, size: op.Size, live: true}
		r.cur += op.Size

	case Free:
		if s.size > 0 {
			src, ok := bounds.Prefix(r.h.Bytes(s.ptr), s.size)
			if !ok {
				return fmt.Errorf("%w: block %d payload shrank below %d bytes", ErrVerify, op.ID, s.size)
			}
			if err := verifyPattern(src, op.ID); err != nil {
				return fmt.Errorf("%w: block %d corrupted before free: %w", ErrVerify, op.ID, err)
			}
		}
		r.release(s.ptr, s.size)
		if err := r.h.Free(s.ptr); err != nil {
			return err
		}
		r.cur -= s.size
		*s = slot{}
	}
	r.peak = max(r.peak, r.cur)
	return nil
}

// payload returns the first op.Size bytes of b, failing if the heap handed
// back a shorter view.
func payload(b []byte, op Op) ([]byte, error) {
	dst, ok := bounds.Prefix(b, op.Size)
	if !ok {
		return nil, fmt.Errorf("%w: block %d payload is %d bytes, want %d", ErrVerify, op.ID, len(b), op.Size)
	}
	return dst, nil
}

// claim checks a new block's placement and records its span.
func (r *replayer) claim(p block.Ptr, size int) error {
	if size == 0 {
		return nil
	}
	start, end := int(p), int(p)+size
	if p == block.Nil {
		return fmt.Errorf("%w: nil address for %d bytes", ErrVerify, size)
	}
	if !format.IsAligned(start) {
		return fmt.Errorf("%w: address %d not 8-byte aligned", ErrVerify, start)
	}
	if end > r.h.Len() {
		return fmt.Errorf("%w: payload [%d, %d) outside heap of %d bytes", ErrVerify, start, end, r.h.Len())
	}

	i, _ := slices.BinarySearchFunc(r.spans, start, func(s span, v int) int { return cmp.Compare(s.start, v) })
	if i > 0 && r.spans[i-1].end > start {
		prev := r.spans[i-1]
		return fmt.Errorf("%w: payload [%d, %d) overlaps [%d, %d)", ErrVerify, start, end, prev.start, prev.end)
	}
	if i < len(r.spans) && r.spans[i].start < end {
		next := r.spans[i]
		return fmt.Errorf("%w: payload [%d, %d) overlaps [%d, %d)", ErrVerify, start, end, next.start, next.end)
	}
	r.spans = slices.Insert(r.spans, i, span{start, end})
	return nil
}

func (r *replayer) release(p block.Ptr, size int) {
	if size == 0 {
		return
	}
	i, found := slices.BinarySearchFunc(r.spans, int(p), func(s span, v int) int { return cmp.Compare(s.start, v) })
	if found {
		r.spans = slices.Delete(r.spans, i, i+1)
	}
}

func patternByte(id, i int) byte {
	return byte(id*31 + i)
}

func fillPattern(buf []byte, id int) {
	for i := range buf {
		buf[i] = patternByte(id, i)
	}
}

func verifyPattern(buf []byte, id int) error {
	for i, b := range buf {
		if want := patternByte(id, i); b != want {
			return fmt.Errorf("byte %d is %#x, want %#x", i, b, want)
		}
	}
	return nil
}
