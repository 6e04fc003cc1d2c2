package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeff-Souza/malloc/heap/block"
	"github.com/Jeff-Souza/malloc/heap/region"
	"github.com/Jeff-Souza/malloc/internal/format"
)

func Test_Init_Layout(t *testing.T) {
	a, r := newTestAllocator(t, 0, nil)
	mem := r.Bytes()

	require.Equal(t, seededHeapSize, r.Len())
	assert.Equal(t, uint32(0), format.ReadU32(mem, 0), "alignment pad")

	pro := block.Prologue(mem)
	assert.Equal(t, format.Pack(8, true), pro.Tag())
	assert.Equal(t, format.Pack(8, true), pro.FooterTag())

	first := block.At(mem, block.FirstPtr)
	assert.Equal(t, 4104, first.Size())
	assert.False(t, first.Allocated())
	assert.True(t, block.Epilogue(mem).IsEpilogue())

	assert.Equal(t, []block.Ptr{block.FirstPtr}, a.FreeList())
	assertInvariants(t, a)
}

func Test_Init_Idempotent(t *testing.T) {
	a, r := newTestAllocator(t, 0, nil)
	require.NoError(t, a.Init())
	assert.Equal(t, seededHeapSize, r.Len())
	assert.Equal(t, 1, a.Stats().GrowCalls)
}

func Test_Init_RegionNotEmpty(t *testing.T) {
	r := region.NewMemory(0)
	_, err := r.Sbrk(8)
	require.NoError(t, err)

	err = New(r, nil, nil).Init()
	require.ErrorIs(t, err, ErrRegionNotEmpty)
}

func Test_Init_RegionTooSmall(t *testing.T) {
	a := New(region.NewMemory(8), nil, nil)
	err := a.Init()
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, region.ErrExhausted)
	assert.False(t, a.Initialized())
}

func Test_Init_CustomChunk(t *testing.T) {
	a, r := newTestAllocator(t, 0, &Config{ChunkSize: 100})
	assert.Equal(t, 104, a.Config().ChunkSize, "chunk rounded up to 8")
	assert.Equal(t, format.InitialHeapSize+format.GrowSize(104/format.WordSize), r.Len())
	assertInvariants(t, a)
}

func Test_Malloc_Zero(t *testing.T) {
	r := region.NewMemory(0)
	a := New(r, nil, nil)

	p, err := a.Malloc(0)
	require.NoError(t, err)
	assert.Equal(t, block.Nil, p)
	assert.False(t, a.Initialized(), "zero-size request must not initialize")
	assert.Equal(t, 0, r.Len())
}

func Test_Malloc_Negative(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)
	_, err := a.Malloc(-1)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func Test_Malloc_LazyInit(t *testing.T) {
	r := region.NewMemory(0)
	a := New(r, nil, nil)

	p := mustMalloc(t, a, 1)
	assert.Equal(t, block.FirstPtr, p)
	assert.True(t, a.Initialized())
	assertInvariants(t, a)
}

func Test_Malloc_AlignmentAndSize(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	for _, n := range []int{1, 7, 8, 9, 15, 16, 17, 100, 1000, 4090, 5000, 12345} {
		p := mustMalloc(t, a, n)
		assert.True(t, format.IsAligned(int(p)), "malloc(%d) = %d not aligned", n, p)

		b := blockAt(a, p)
		assert.True(t, b.Allocated())
		assert.Equal(t, format.AdjustedSize(n), b.Size(), "malloc(%d)", n)
		assert.GreaterOrEqual(t, len(a.Payload(p)), n)
	}
	assertInvariants(t, a)
}

func Test_Malloc_SplitsSeedBlock(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	p := mustMalloc(t, a, 10)
	assert.Equal(t, block.Ptr(16), p)
	assert.Equal(t, 24, blockAt(a, p).Size())

	rest := blockAt(a, 40)
	assert.False(t, rest.Allocated())
	assert.Equal(t, 4104-24, rest.Size())
	assert.Equal(t, []block.Ptr{40}, a.FreeList())
}

func Test_Malloc_NoSplitBelowMinimum(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	// 4104 - 4096 = 8 bytes left over: too small for a block.
	p := mustMalloc(t, a, 4088)
	assert.Equal(t, 4104, blockAt(a, p).Size())
	assert.Empty(t, a.FreeList())
	assertInvariants(t, a)
}

// Test_Malloc_ReusesFreedBlock allocates 10, 20 and 30 bytes, frees the
// middle block and expects a second 20-byte request to land in it exactly.
func Test_Malloc_ReusesFreedBlock(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	p1 := mustMalloc(t, a, 10)
	p2 := mustMalloc(t, a, 20)
	p3 := mustMalloc(t, a, 30)
	assert.Equal(t, []block.Ptr{16, 40, 72}, []block.Ptr{p1, p2, p3})

	require.NoError(t, a.Free(p2))
	assert.Equal(t, []block.Ptr{40, 112}, a.FreeList())

	again := mustMalloc(t, a, 20)
	assert.Equal(t, p2, again)
	assert.Equal(t, 32, blockAt(a, again).Size(), "exact fit must not split")
	assert.Equal(t, []block.Ptr{112}, a.FreeList())
	assertInvariants(t, a)
}

// Test_Malloc_ReusesFirstHole allocates 10, 20 and 30 bytes, frees the first
// and third, and expects an 8-byte request to take the first hole whole
// without growing the heap.
func Test_Malloc_ReusesFirstHole(t *testing.T) {
	a, r := newTestAllocator(t, 0, nil)

	p1 := mustMalloc(t, a, 10)
	mustMalloc(t, a, 20)
	p3 := mustMalloc(t, a, 30)
	brk := r.Len()

	require.NoError(t, a.Free(p1))
	require.NoError(t, a.Free(p3))

	// The third block merges with the free tail behind it.
	assert.Equal(t, []block.Ptr{16, 72}, a.FreeList())
	assert.Equal(t, seededHeapSize-format.InitialHeapSize-24-32, blockAt(a, p3).Size())
	assert.Equal(t, 1, a.Stats().CoalesceNext)

	q := mustMalloc(t, a, 8)
	assert.Equal(t, p1, q)
	assert.Equal(t, 24, blockAt(a, q).Size(), "8-byte remainder must not split")
	assert.Equal(t, brk, r.Len(), "reuse must not grow the heap")
	assert.Equal(t, []block.Ptr{72}, a.FreeList())
	assertInvariants(t, a)
}

func Test_Malloc_FirstFitLowestAddress(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	p1 := mustMalloc(t, a, 100)
	mustMalloc(t, a, 8)
	p3 := mustMalloc(t, a, 100)
	mustMalloc(t, a, 8)

	require.NoError(t, a.Free(p3))
	require.NoError(t, a.Free(p1))

	// Both holes fit; the lower one wins regardless of free order.
	assert.Equal(t, p1, mustMalloc(t, a, 50))
	assertInvariants(t, a)
}

// Test_Malloc_GrowsOnMiss fills the seeded block exactly, then forces a
// growth for a second request of the same size.
func Test_Malloc_GrowsOnMiss(t *testing.T) {
	a, r := newTestAllocator(t, 0, nil)

	p1 := mustMalloc(t, a, 4090)
	assert.Equal(t, block.Ptr(16), p1)
	assert.Empty(t, a.FreeList())
	fill(a.Payload(p1)[:4090], 0x5A)

	var grown []int
	a.onGrow = func(n int) { grown = append(grown, n) }

	p2 := mustMalloc(t, a, 4090)
	assert.Equal(t, block.Ptr(seededHeapSize), p2)
	assert.Equal(t, []int{4112}, grown)
	assert.Equal(t, seededHeapSize+4112, r.Len())
	assert.Equal(t, 4112, blockAt(a, p2).Size(), "8-byte tail absorbed")
	assert.True(t, block.Epilogue(r.Bytes()).IsEpilogue())
	requirePattern(t, a.Payload(p1), 0x5A, 4090)
	assert.Equal(t, 4104, blockAt(a, p1).Size())

	st := a.Stats()
	assert.Equal(t, 1, st.AllocFastPath)
	assert.Equal(t, 1, st.AllocSlowPath)
	assert.Equal(t, 2, st.GrowCalls)
	assertInvariants(t, a)
}

func Test_Malloc_GrowthMergesTrailingFree(t *testing.T) {
	a, r := newTestAllocator(t, 0, nil)

	mustMalloc(t, a, 100) // 112 bytes; 3992 free at the tail
	p := mustMalloc(t, a, 5000)

	// The tail free block absorbed the growth, so the allocation starts
	// where the tail did.
	assert.Equal(t, block.Ptr(16+112), p)
	assert.Equal(t, 1, a.Stats().CoalescePrev)
	assert.Equal(t, seededHeapSize+format.GrowSize(5008/format.WordSize), r.Len())
	assertInvariants(t, a)
}

func Test_Malloc_OutOfMemoryLeavesHeapUnchanged(t *testing.T) {
	a, r := newTestAllocator(t, seededHeapSize, nil)
	p := mustMalloc(t, a, 100)

	before := append([]byte(nil), r.Bytes()...)
	freeBefore := a.FreeList()

	q, err := a.Malloc(5000)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, region.ErrExhausted)
	assert.Equal(t, block.Nil, q)

	assert.Equal(t, before, r.Bytes())
	assert.Equal(t, freeBefore, a.FreeList())
	assert.Equal(t, 1, a.Stats().AllocFailed)
	assertInvariants(t, a)

	// Still usable afterwards.
	require.NoError(t, a.Free(p))
	mustMalloc(t, a, 4000)
	assertInvariants(t, a)
}

func Test_Free_Nil(t *testing.T) {
	a, r := newTestAllocator(t, 0, nil)
	before := append([]byte(nil), r.Bytes()...)

	require.NoError(t, a.Free(block.Nil))
	assert.Equal(t, before, r.Bytes())
	assert.Equal(t, 0, a.Stats().FreeCalls)
}

func Test_Free_LazyInit(t *testing.T) {
	a := New(region.NewMemory(0), nil, nil)
	require.NoError(t, a.Free(block.Nil))
	assert.True(t, a.Initialized())
	assertInvariants(t, a)
}

func Test_Free_AllRestoresSingleBlock(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	var ptrs []block.Ptr
	for i := range 20 {
		ptrs = append(ptrs, mustMalloc(t, a, 8+i*13))
	}
	// Free in an interleaved order to exercise every coalesce case.
	for i := 0; i < len(ptrs); i += 2 {
		require.NoError(t, a.Free(ptrs[i]))
	}
	for i := 1; i < len(ptrs); i += 2 {
		require.NoError(t, a.Free(ptrs[i]))
	}

	assert.Equal(t, []block.Ptr{block.FirstPtr}, a.FreeList())
	assert.Equal(t, 4104, blockAt(a, block.FirstPtr).Size())
	assertInvariants(t, a)
}

func Test_Payload_WritableAndBounded(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	p := mustMalloc(t, a, 30)
	q := mustMalloc(t, a, 30)
	buf := a.Payload(p)
	require.Len(t, buf, 32)
	fill(buf, 0xA0)

	requirePattern(t, a.Payload(p), 0xA0, 32)
	assert.Equal(t, byte(0), a.Payload(q)[0], "neighbour untouched")
	assert.Equal(t, 32, cap(buf), "payload cannot be appended into the footer")
	assertInvariants(t, a)
}

func Test_DebugConfig_PanicsOnCorruption(t *testing.T) {
	a, r := newTestAllocator(t, 0, &DebugConfig)
	p := mustMalloc(t, a, 16)

	// Smash the footer.
	b := blockAt(a, p)
	format.PutU32(r.Bytes(), b.Footer(), 0xdead0)

	require.Panics(t, func() {
		_, _ = a.Malloc(8)
	})
}
