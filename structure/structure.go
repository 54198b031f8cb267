// Package structure derives an output shape from a reference tensor plus
// a selection of its axes, and allocates a tensor with that shape.
package structure

import "github.com/dkoslov/tensen/view"

// Shape returns the tuple of sizes of the axes selected by
// append(leftSel, rightSel...) of a.
func Shape[T view.Numeric](leftSel, rightSel []int, a *view.View[T]) []int {
	size := a.Size()
	out := make([]int, 0, len(leftSel)+len(rightSel))
	for _, p := range leftSel {
		out = append(out, size[p])
	}
	for _, p := range rightSel {
		out = append(out, size[p])
	}
	return out
}

// ShapeFromPair concatenates the axis selections poA of a and poB of b
// (in that order) then re-selects leftSel/rightSel positions from the
// concatenation, for the two-operand contract kernel's output shape.
func ShapeFromPair[T view.Numeric](poA, poB, leftSel, rightSel []int, a, b *view.View[T]) []int {
	sizeA, sizeB := a.Size(), b.Size()
	combined := make([]int, 0, len(poA)+len(poB))
	for _, p := range poA {
		combined = append(combined, sizeA[p])
	}
	for _, p := range poB {
		combined = append(combined, sizeB[p])
	}
	out := make([]int, 0, len(leftSel)+len(rightSel))
	for _, p := range leftSel {
		out = append(out, combined[p])
	}
	for _, p := range rightSel {
		out = append(out, combined[p])
	}
	return out
}

// Allocate returns a freshly allocated, zero-initialized view of the
// given shape.
func Allocate[T view.Numeric](shape []int) *view.View[T] {
	return view.New[T](shape)
}
