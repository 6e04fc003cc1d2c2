package format

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
func Align8(n int) int {
	return (n + AlignmentMask) &^ AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// AdjustedSize returns the total block size needed to satisfy a payload
// request of n bytes: header and footer overhead added, rounded up to the
// alignment, and never below MinBlockSize.
//
// Example:
//
//	AdjustedSize(1)  = 16
//	AdjustedSize(8)  = 16
//	AdjustedSize(10) = 24
//	AdjustedSize(30) = 40
func AdjustedSize(n int) int {
	if n <= DoubleSize {
		return MinBlockSize
	}
	return Align8(n + Overhead)
}

// GrowSize returns the number of bytes requested from the heap region when
// the heap is grown by words words. The overhead of the new block's tags is
// added on top so the caller's word count is all usable space.
func GrowSize(words int) int {
	return Align8(words*WordSize + Overhead)
}
