// Package mathutil contains generic math utility functions shared by the
// engine packages.
package mathutil

import "golang.org/x/exp/constraints"

// Clamp limits a value to the range [min, max] and returns the result.
func Clamp[T constraints.Ordered](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Abs returns the absolute value of v.
func Abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Lerp linearly interpolates between a and b, with t expected to be in the
// range [0, 1].
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}
