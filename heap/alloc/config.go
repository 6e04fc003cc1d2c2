package alloc

import (
	"log/slog"

	"github.com/Jeff-Souza/malloc/heap/dirty"
	"github.com/Jeff-Souza/malloc/internal/format"
)

// DirtyTracker is a type alias for the canonical interface defined in heap/dirty.
type DirtyTracker = dirty.DirtyTracker

// Config tunes an Allocator. The zero value of any field selects its
// default.
type Config struct {
	// Name for this configuration (for benchmarks and logs).
	Name string

	// ChunkSize is the minimum growth step in bytes and the size of the
	// free block seeded by Init. Rounded up to a multiple of 8.
	ChunkSize int

	// CheckEveryOp runs Check after every public operation and panics on
	// the first inconsistency. Quadratic; for debugging only.
	CheckEveryOp bool

	// Logger receives growth and out-of-memory records. Default:
	// logger.AllocDebug().
	Logger *slog.Logger
}

// Predefined configurations.
var (
	// DefaultConfig grows in 4KB chunks with no self-checking.
	DefaultConfig = Config{
		Name:      "default",
		ChunkSize: format.ChunkSize,
	}

	// DebugConfig checks every invariant after every operation.
	DebugConfig = Config{
		Name:         "debug",
		ChunkSize:    format.ChunkSize,
		CheckEveryOp: true,
	}
)

func (c Config) normalized() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = format.ChunkSize
	}
	c.ChunkSize = format.Align8(c.ChunkSize)
	if c.Name == "" {
		c.Name = DefaultConfig.Name
	}
	return c
}
