// Package fusion decides whether a group of axes of a strided view can
// be collapsed into one contiguous axis, and whether a view is eligible
// for the BLAS matmul path in a given role.
package fusion

import "github.com/dkoslov/tensen/view"

// Role is the position a view plays in a prospective BLAS call.
type Role int

const (
	// Destination requires an identity op and leading-stride-1 on the
	// open-axis group.
	Destination Role = iota
	// ConjugatedSource requires leading-stride-1 on the contracted-axis
	// group (the transposed orientation gemm needs for a conjugated
	// operand).
	ConjugatedSource
	// PlainSource requires leading-stride-1 on at least one of the two
	// axis groups.
	PlainSource
)

// CanFuse walks axes with the given sizes/strides and reports whether
// they can be collapsed into one contiguous axis: size-0 axes fuse
// trivially, size-1 axes are skipped, and for the remaining adjacent axes
// (s_i, d_i), (s_{i+1}, d_{i+1}) the fusion condition is the row-major
// one, d_i == s_{i+1} * d_{i+1} (the last axis is innermost). Returns whether the group fuses, the
// total element count of the group, and the leading (innermost
// non-trivial) stride.
func CanFuse(sizes, strides []int) (fusable bool, total int, leading int) {
	n := len(sizes)
	if n == 0 {
		return true, 1, 1
	}

	total = 1
	leading = 1
	haveLeading := false
	prevSize, prevStride := 1, 1
	havePrev := false

	for i := n - 1; i >= 0; i-- {
		s, d := sizes[i], strides[i]
		if s == 0 {
			// A size-0 axis makes the whole group trivially fusable
			// into an empty axis.
			return true, 0, leading
		}
		if s == 1 {
			continue
		}
		total *= s
		if !havePrev {
			leading = d
			haveLeading = true
			prevSize, prevStride = s, d
			havePrev = true
			continue
		}
		if d != prevSize*prevStride {
			return false, 0, 0
		}
		prevSize, prevStride = s, d
	}
	if !haveLeading {
		// Every axis in the group was size 1 (or the group was empty).
		leading = 1
	}
	return true, total, leading
}

// IsBLASContractable reports whether the axis groups group1 and group2 of
// v are each fusable and, given role, satisfy the leading-stride
// condition for v to be handed to gonum/BLAS directly in that role, for
// the BLAS-supported element types. Callers
// outside this package should gate calls to IsBLASContractable on T
// being float32/float64/complex64/complex128; the function itself does
// not reject other T, since the generic constraint already restricts T
// to view.Numeric and the kernel package is responsible for routing
// non-BLAS types to the native path before ever calling here.
func IsBLASContractable[T view.Numeric](v *view.View[T], group1, group2 []int, role Role) bool {
	sizes, strides := v.Size(), v.Stride()

	fuse1, _, lead1 := CanFuse(selectInts(sizes, group1), selectInts(strides, group1))
	fuse2, _, lead2 := CanFuse(selectInts(sizes, group2), selectInts(strides, group2))
	if !fuse1 || !fuse2 {
		return false
	}

	switch role {
	case Destination:
		return v.Op() == view.Identity && lead1 == 1
	case ConjugatedSource:
		return lead2 == 1
	case PlainSource:
		return lead1 == 1 || lead2 == 1
	default:
		return false
	}
}

func selectInts(src []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, p := range idx {
		out[i] = src[p]
	}
	return out
}
