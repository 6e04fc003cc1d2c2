package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jeff-Souza/malloc/heap/block"
	"github.com/Jeff-Souza/malloc/heap/region"
	"github.com/Jeff-Souza/malloc/internal/format"
)

// seededHeapSize is the break after Init with the default chunk: 16 bytes of
// sentinels plus one 4104-byte free block.
const seededHeapSize = format.InitialHeapSize + 4104

// newTestAllocator returns an initialized allocator over a Memory region
// with the given reservation (0 for the default).
func newTestAllocator(t testing.TB, maxBytes int, cfg *Config) (*Allocator, *region.Memory) {
	t.Helper()
	r := region.NewMemory(maxBytes)
	a := New(r, nil, cfg)
	require.NoError(t, a.Init())
	return a, r
}

// mustMalloc allocates or fails the test.
func mustMalloc(t testing.TB, a *Allocator, size int) block.Ptr {
	t.Helper()
	p, err := a.Malloc(size)
	require.NoError(t, err)
	require.NotEqual(t, block.Nil, p)
	return p
}

// blockAt returns an untracked view of the block at p.
func blockAt(a *Allocator, p block.Ptr) block.Block {
	return block.At(a.r.Bytes(), p)
}

// assertInvariants fails the test if Check finds any violation.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check())
}

// fill writes a recognizable pattern into a payload.
func fill(buf []byte, seed byte) {
	for i := range buf {
		buf[i] = seed + byte(i)
	}
}

// requirePattern verifies the first n bytes written by fill.
func requirePattern(t testing.TB, buf []byte, seed byte, n int) {
	t.Helper()
	require.GreaterOrEqual(t, len(buf), n)
	for i := range n {
		if buf[i] != seed+byte(i) {
			t.Fatalf("payload byte %d = %#x, want %#x", i, buf[i], seed+byte(i))
		}
	}
}
