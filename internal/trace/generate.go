package trace

import (
	"math/rand"
)

// GenConfig shapes a generated trace.
type GenConfig struct {
	Ops        int // Target op count, final frees included
	IDs        int // Maximum number of distinct blocks
	MaxSize    int // Largest request in bytes
	ReallocPct int // Share of non-alloc steps that resize instead of free
	LargePct   int // Share of requests drawn from the upper half of [1, MaxSize]
}

// DefaultGenConfig produces a few thousand ops of mostly small requests.
var DefaultGenConfig = GenConfig{
	Ops:        4000,
	IDs:        1500,
	MaxSize:    4096,
	ReallocPct: 20,
	LargePct:   5,
}

func (c GenConfig) normalized() GenConfig {
	d := DefaultGenConfig
	if c.Ops <= 0 {
		c.Ops = d.Ops
	}
	if c.IDs <= 0 {
		c.IDs = d.IDs
	}
	if c.MaxSize <= 0 {
		c.MaxSize = d.MaxSize
	}
	c.ReallocPct = min(max(c.ReallocPct, 0), 100)
	c.LargePct = min(max(c.LargePct, 0), 100)
	return c
}

// Generate builds a random trace that passes Validate. Every id is
// allocated once and every block is freed by the end, so replaying it
// leaves the heap empty. HeapSize is set to the peak live payload.
func Generate(rng *rand.Rand, cfg GenConfig) *Trace {
	cfg = cfg.normalized()

	var (
		ops      = make([]Op, 0, cfg.Ops)
		live     []int
		sizes    = make(map[int]int)
		next     int
		cur      int
		peak     int
		randSize = func() int {
			half := max(cfg.MaxSize/2, 1)
			if rng.Intn(100) < cfg.LargePct {
				return half + rng.Intn(cfg.MaxSize-half+1)
			}
			return 1 + rng.Intn(half)
		}
	)

	// Pending frees count toward the target so the tail fits.
	for len(ops)+len(live) < cfg.Ops {
		canAlloc := next < cfg.IDs && len(ops)+len(live)+2 <= cfg.Ops
		if len(live) == 0 && !canAlloc {
			break
		}

		switch {
		case len(live) == 0 || (canAlloc && rng.Intn(2) == 0):
			id := next
			next++
			size := randSize()
			ops = append(ops, Op{Kind: Alloc, ID: id, Size: size})
			live = append(live, id)
			sizes[id] = size
			cur += size

		case rng.Intn(100) < cfg.ReallocPct:
			id := live[rng.Intn(len(live))]
			size := randSize()
			ops = append(ops, Op{Kind: Realloc, ID: id, Size: size})
			cur += size - sizes[id]
			sizes[id] = size

		default:
			i := rng.Intn(len(live))
			id := live[i]
			ops = append(ops, Op{Kind: Free, ID: id})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			cur -= sizes[id]
		}
		peak = max(peak, cur)
	}

	rng.Shuffle(len(live), func(i, j int) { live[i], live[j] = live[j], live[i] })
	for _, id := range live {
		ops = append(ops, Op{Kind: Free, ID: id})
	}

	return &Trace{
		HeapSize: peak,
		NumIDs:   next,
		Weight:   1,
		Ops:      ops,
	}
}
