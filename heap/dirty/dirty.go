package dirty

import (
	"cmp"
	"context"
	"slices"
)

// Range is a dirty byte span [Off, Off+Len) of the mapping.
type Range struct {
	Off int64
	Len int64
}

func (r Range) end() int64 { return r.Off + r.Len }

// Tracker collects the spans written since the last flush.
type Tracker struct {
	ranges   []Range
	pageSize int64
}

// NewTracker returns an empty tracker that rounds spans to the host page
// size, the granularity msync requires.
func NewTracker() *Tracker {
	return newTracker(hostPageSize)
}

// newTracker rounds to pageSize, which must be a power of two.
func newTracker(pageSize int64) *Tracker {
	return &Tracker{ranges: make([]Range, 0, 64), pageSize: pageSize}
}

// PageSize is the rounding unit of Ranges.
func (t *Tracker) PageSize() int64 { return t.pageSize }

// Add records length bytes at off. Non-positive lengths are dropped.
func (t *Tracker) Add(off, length int) {
	if length > 0 {
		t.ranges = append(t.ranges, Range{Off: int64(off), Len: int64(length)})
	}
}

// Pending is the number of raw spans recorded, before merging.
func (t *Tracker) Pending() int { return len(t.ranges) }

// Reset forgets every recorded span.
func (t *Tracker) Reset() { t.ranges = t.ranges[:0] }

// Ranges returns the page-rounded, merged spans the next Flush would sync.
func (t *Tracker) Ranges() []Range { return t.coalesce() }

// Flush syncs every recorded span that overlaps data, then clears the
// tracker. Spans past len(data) are clipped. Cancellation between spans
// leaves everything recorded so a later Flush repeats the work.
func (t *Tracker) Flush(ctx context.Context, data []byte) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	size := int64(len(data))
	for _, r := range t.coalesce() {
		if r.Off >= size {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := msync(data[r.Off:min(r.end(), size)]); err != nil {
			return err
		}
	}
	t.Reset()
	return nil
}

func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}
	mask := t.pageSize - 1
	pages := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		lo := r.Off &^ mask
		hi := (r.end() + mask) &^ mask
		pages[i] = Range{Off: lo, Len: hi - lo}
	}
	slices.SortFunc(pages, func(a, b Range) int { return cmp.Compare(a.Off, b.Off) })

	out := pages[:1]
	for _, r := range pages[1:] {
		last := &out[len(out)-1]
		if r.Off <= last.end() {
			last.Len = max(last.end(), r.end()) - last.Off
			continue
		}
		out = append(out, r)
	}
	return out
}
