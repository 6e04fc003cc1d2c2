package block

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jeff-Souza/malloc/heap/dirty"
	"github.com/Jeff-Souza/malloc/internal/format"
)

// layout builds a heap image with the sentinels and the given blocks.
// Positive sizes are free blocks, negative sizes allocated ones.
func layout(t *testing.T, sizes ...int) []byte {
	t.Helper()
	total := format.InitialHeapSize
	for _, s := range sizes {
		total += abs(s)
	}
	mem := make([]byte, total)
	Prologue(mem).SetTags(format.PrologueSize, true)
	bp := int(FirstPtr)
	for _, s := range sizes {
		At(mem, Ptr(bp)).SetTags(abs(s), s < 0)
		bp += abs(s)
	}
	At(mem, Ptr(bp)).SetHeader(0, true)
	require.Equal(t, len(mem), bp)
	return mem
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestBlock_TagsAgree(t *testing.T) {
	mem := layout(t, -24, 32)
	b := At(mem, FirstPtr)

	require.Equal(t, 24, b.Size())
	require.True(t, b.Allocated())
	require.Equal(t, b.Tag(), b.FooterTag())
	require.Equal(t, 16, b.PayloadSize())
	require.Equal(t, int(FirstPtr)-format.WordSize, b.Header())
	require.Equal(t, int(FirstPtr)+24-format.DoubleSize, b.Footer())
}

func TestBlock_Neighbors(t *testing.T) {
	mem := layout(t, -24, 32, -16)
	first := At(mem, FirstPtr)
	second := first.Next()
	third := second.Next()

	require.Equal(t, FirstPtr+24, second.Ptr())
	require.False(t, second.Allocated())
	require.Equal(t, first.Ptr(), second.Prev().Ptr())
	require.Equal(t, second.Ptr(), third.Prev().Ptr())

	require.True(t, first.PrevAllocated(), "prologue must read as allocated")
	require.False(t, first.NextAllocated())
	require.True(t, second.PrevAllocated())
	require.True(t, third.NextAllocated(), "epilogue must read as allocated")
	require.True(t, third.Next().IsEpilogue())
}

func TestBlock_PayloadBounds(t *testing.T) {
	mem := layout(t, -24)
	p := At(mem, FirstPtr).Payload()
	require.Len(t, p, 16)
	require.Equal(t, len(p), cap(p))

	for i := range p {
		p[i] = 0xAB
	}
	require.Equal(t, format.Pack(24, true), At(mem, FirstPtr).FooterTag(), "payload writes must not reach the footer")
}

func TestBlock_LinksOnlyWhenFree(t *testing.T) {
	mem := layout(t, 16, -16)
	free := At(mem, FirstPtr)

	l := free.Links()
	l.SetPrev(Ptr(1234))
	l.SetNext(Ptr(5678))
	require.Equal(t, Ptr(1234), l.Prev())
	require.Equal(t, Ptr(5678), l.Next())
	require.Equal(t, format.Pack(16, false), free.FooterTag(), "links must not overwrite the footer")

	require.Panics(t, func() { free.Next().Links() })
}

func TestBlock_TrackedWritesReported(t *testing.T) {
	mem := layout(t, 32)
	dt := dirty.NewTracker()
	b := Tracked(mem, dt, FirstPtr)

	b.SetTags(32, true)
	require.Equal(t, 2, dt.Pending())

	b.Next().SetHeader(0, true)
	require.Equal(t, 3, dt.Pending())

	b.SetTags(32, false)
	b.Links().SetNext(Nil)
	require.Equal(t, 6, dt.Pending())
}

func TestWalk_VisitsEveryBlockInOrder(t *testing.T) {
	mem := layout(t, -24, 32, -16, 4104)

	var seen []int
	err := Walk(mem, func(b Block) error {
		seen = append(seen, b.Size())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{24, 32, 16, 4104}, seen)
}

func TestWalk_EmptyHeap(t *testing.T) {
	mem := layout(t)
	calls := 0
	require.NoError(t, Walk(mem, func(Block) error { calls++; return nil }))
	require.Zero(t, calls)
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	mem := layout(t, -24, 32)
	stop := errors.New("stop")
	calls := 0
	err := Walk(mem, func(Block) error { calls++; return stop })
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, calls)
}

func TestWalk_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(mem []byte)
	}{
		{"overrun", func(mem []byte) { format.PutTag(mem, int(FirstPtr)-4, format.Pack(4096, true)) }},
		{"too small", func(mem []byte) { format.PutTag(mem, int(FirstPtr)-4, format.Pack(8, true)) }},
		{"free epilogue", func(mem []byte) { format.PutTag(mem, len(mem)-4, format.Pack(0, false)) }},
		{"early epilogue", func(mem []byte) { format.PutTag(mem, int(FirstPtr)-4, format.Pack(0, true)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := layout(t, -24, 32)
			tt.corrupt(mem)
			err := Walk(mem, func(Block) error { return nil })
			require.ErrorIs(t, err, ErrMalformed)
		})
	}

	require.ErrorIs(t, Walk(make([]byte, 8), func(Block) error { return nil }), ErrMalformed)
}

func TestSentinels(t *testing.T) {
	mem := layout(t, 32)
	require.Equal(t, format.PrologueSize, Prologue(mem).Size())
	require.True(t, Prologue(mem).Allocated())
	require.True(t, Epilogue(mem).IsEpilogue())
}
