package format

import "testing"

func TestAlign8(t *testing.T) {
	for in, want := range map[int]int{0: 0, 1: 8, 7: 8, 8: 8, 9: 16, 4098: 4104} {
		if got := Align8(in); got != want {
			t.Fatalf("Align8(%d) = %d, want %d", in, got, want)
		}
	}
	if !IsAligned(4104) || IsAligned(4100) {
		t.Fatalf("IsAligned disagrees with Align8")
	}
}

func TestAdjustedSize(t *testing.T) {
	cases := map[int]int{
		1:    MinBlockSize,
		8:    MinBlockSize,
		9:    24,
		10:   24,
		20:   32,
		30:   40,
		4090: 4104,
	}
	for in, want := range cases {
		if got := AdjustedSize(in); got != want {
			t.Fatalf("AdjustedSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestGrowSize(t *testing.T) {
	if got := GrowSize(ChunkSize / WordSize); got != ChunkSize+Overhead {
		t.Fatalf("GrowSize(chunk) = %d, want %d", got, ChunkSize+Overhead)
	}
	if got := GrowSize(4104 / WordSize); got != 4112 {
		t.Fatalf("GrowSize(1026) = %d, want 4112", got)
	}
}

func TestLayoutConstants(t *testing.T) {
	if MinBlockSize != 16 || Overhead != 8 || HeapStart != 8 || InitialHeapSize != 16 {
		t.Fatalf("unexpected layout: min=%d overhead=%d start=%d init=%d",
			MinBlockSize, Overhead, HeapStart, InitialHeapSize)
	}
	if NextLinkOffset+WordSize > MinBlockSize-Overhead {
		t.Fatalf("free links overlap the footer of a minimum block")
	}
}
