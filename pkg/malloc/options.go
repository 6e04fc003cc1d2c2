package malloc

import (
	"log/slog"

	"github.com/Jeff-Souza/malloc/heap/alloc"
)

// Options controls heap construction.
type Options struct {
	// MaxHeap is the region reservation in bytes. The heap can never grow
	// past it. Default: 20MB.
	MaxHeap int

	// ChunkSize is the minimum growth step in bytes. Default: 4096.
	ChunkSize int

	// Check verifies every heap invariant after every operation and panics
	// on the first violation. Slow; for debugging.
	Check bool

	// Logger receives allocator records. Default: the process logger, or a
	// stderr debug logger when MALLOC_LOG_ALLOC is set.
	Logger *slog.Logger
}

func (o *Options) maxHeap() int {
	if o == nil {
		return 0
	}
	return o.MaxHeap
}

func (o *Options) config() *alloc.Config {
	if o == nil {
		return &alloc.DefaultConfig
	}
	cfg := alloc.DefaultConfig
	if o.ChunkSize > 0 {
		cfg.ChunkSize = o.ChunkSize
	}
	cfg.CheckEveryOp = o.Check
	cfg.Logger = o.Logger
	return &cfg
}
