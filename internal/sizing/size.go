// Package sizing provides checked size arithmetic for the 32-bit offsets and
// 24-bit name offsets used by U8 archives.
package sizing

import (
	"errors"
	"math"
)

// ErrSizeOverflow is returned when a size or offset does not fit the field
// it is written to.
var ErrSizeOverflow = errors.New("sizing: size overflow")

// MaxNameOffset is the largest name offset a U8 node can address.
const MaxNameOffset = 1<<24 - 1

// ToUint32 converts a non-negative int to uint32, returning ErrSizeOverflow
// if it doesn't fit.
func ToUint32(n int) (uint32, error) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return 0, ErrSizeOverflow
	}
	return uint32(n), nil
}

// AddUint32 adds two uint32 values, returning (result, false) on overflow.
func AddUint32(a, b uint32) (uint32, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// AlignUp rounds n up to the next multiple of alignment, which must be a
// power of two.
func AlignUp(n, alignment int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}

// InBounds reports whether the range [off, off+size) lies within a buffer of
// length total.
func InBounds(off, size uint32, total int) bool {
	end, ok := AddUint32(off, size)
	if !ok {
		return false
	}
	return uint64(end) <= uint64(total)
}
