// Package sliceutil contains generic utility functions for slices.
package sliceutil

// Index returns the index of the first occurrence of v in s, or -1 if v is
// not present in s.
func Index[T comparable](s []T, v T) int {
	for i, e := range s {
		if e == v {
			return i
		}
	}
	return -1
}

// DeleteVal deletes the first occurrence of v in s, returning the resulting
// slice. The original slice is left unchanged if v is not present.
func DeleteVal[T comparable](s []T, v T) []T {
	i := Index(s, v)
	if i == -1 {
		return s
	}
	return append(s[:i], s[i+1:]...)
}

// Filter returns a new slice holding the values of s for which c returns
// true, preserving their order.
func Filter[T any](s []T, c func(T) bool) []T {
	a := make([]T, 0, len(s))
	for _, e := range s {
		if c(e) {
			a = append(a, e)
		}
	}
	return a
}
