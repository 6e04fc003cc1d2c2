// Package bounds holds overflow-checked size arithmetic and slice helpers
// for code that turns caller-supplied sizes into byte ranges.
package bounds

import "math"

// Add returns a+b, with ok = false when the sum would overflow int.
func Add(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Mul returns count*size for non-negative operands, with ok = false when
// either is negative or the product would overflow int.
func Mul(count, size int) (int, bool) {
	if count < 0 || size < 0 {
		return 0, false
	}
	if count == 0 || size == 0 {
		return 0, true
	}
	if count > math.MaxInt/size {
		return 0, false
	}
	return count * size, true
}

// Slice returns b[off:off+n] if the range lies within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := Add(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Prefix returns b[:n] if b holds at least n bytes.
func Prefix(b []byte, n int) ([]byte, bool) {
	return Slice(b, 0, n)
}
