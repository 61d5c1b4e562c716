// internal/decoder/counter.go
package decoder

import "golang.org/x/exp/constraints"

// Bounds returns the smallest and largest values of T.
func Bounds[T constraints.Signed]() (lo, hi T) {
	for hi<<1|1 > hi {
		hi = hi<<1 | 1
	}
	return ^hi, hi
}

// SaturatingAdd adds delta (+1 or -1) to v, clamping at the bounds of T.
func SaturatingAdd[T constraints.Signed](v T, delta Direction) T {
	lo, hi := Bounds[T]()
	switch {
	case delta > 0 && v < hi:
		return v + 1
	case delta < 0 && v > lo:
		return v - 1
	}
	return v
}

// SaturatingNeg returns -v; the minimum of T maps to the maximum.
func SaturatingNeg[T constraints.Signed](v T) T {
	lo, hi := Bounds[T]()
	if v == lo {
		return hi
	}
	return -v
}
