// Package xslices provides the few generic slice helpers used across the planner
// that the standard slices package does not cover.
package xslices

import (
	"golang.org/x/exp/constraints"
)

// Number is the constraint for the numeric helpers below.
type Number interface {
	constraints.Integer | constraints.Float
}

// Product returns the product of all elements of the slice, 1 for an empty slice.
// The empty-slice convention makes it directly usable for the element count of a
// scalar (rank-0) shape.
func Product[T Number](slice []T) T {
	result := T(1)
	for _, v := range slice {
		result *= v
	}
	return result
}

// Map executes the given function sequentially for every element of in, and
// returns the mapped slice.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// FillWith returns a slice of the given length with every element set to value.
func FillWith[T any](value T, length int) []T {
	slice := make([]T, length)
	for ii := range slice {
		slice[ii] = value
	}
	return slice
}
