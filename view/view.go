// Package view implements the strided-view abstraction the contraction
// engine is built on top of: a tensor operand presented as size, stride,
// offset, and an elementwise op over a flat storage buffer, with
// permutedims, sreshape, and a destructive broadcast-padded reduction.
package view

// Numeric bounds the element types the engine operates over. Only
// float32 and float64 take the kernel package's BLAS path; complex and
// integer types always use the native path. int64 is kept around
// deliberately so the kernel package always has a non-BLAS type to
// exercise the native path with.
type Numeric interface {
	float32 | float64 | complex64 | complex128 | int64 | int32
}

// Op is the elementwise operation a view applies to its underlying
// storage when read.
type Op int

const (
	// Identity leaves elements unchanged.
	Identity Op = iota
	// ConjOp applies complex conjugation (a no-op on real element types).
	ConjOp
)

// View is a strided descriptor over a flat storage buffer: size, stride,
// offset, and an elementwise op, exactly the fields a tensor operand
// needs to be presented through.
type View[T Numeric] struct {
	data   []T
	size   []int
	stride []int
	offset int
	op     Op
}

// New allocates a fresh, zero-initialized, contiguous row-major view of
// the given size.
func New[T Numeric](size []int) *View[T] {
	n := product(size)
	return &View[T]{
		data:   make([]T, n),
		size:   append([]int(nil), size...),
		stride: rowMajorStrides(size),
	}
}

// NewFromData wraps an existing contiguous row-major buffer without
// copying. len(data) must equal product(size).
func NewFromData[T Numeric](data []T, size []int) *View[T] {
	return &View[T]{
		data:   data,
		size:   append([]int(nil), size...),
		stride: rowMajorStrides(size),
	}
}

// newRaw builds a view directly from explicit strides/offset, used
// internally by PermuteDims, SReshape, and the trace kernel's synthetic
// diagonal view.
func newRaw[T Numeric](data []T, size, stride []int, offset int, op Op) *View[T] {
	return &View[T]{data: data, size: size, stride: stride, offset: offset, op: op}
}

// NewStrided builds a view directly from an explicit size/stride/offset
// over existing storage. It is exported for kernel.Trace, which must
// construct a synthetic view whose trailing axes walk the diagonal of a
// traced axis pair (stride(A)[cind1[k]] + stride(A)[cind2[k]]) — a shape
// that PermuteDims/SReshape cannot produce since it is not a
// permutation or a contiguous fusion of v's existing axes.
func NewStrided[T Numeric](data []T, size, stride []int, offset int, op Op) *View[T] {
	return newRaw(data, size, stride, offset, op)
}

func rowMajorStrides(size []int) []int {
	n := len(size)
	stride := make([]int, n)
	acc := 1
	for i := n - 1; i >= 0; i-- {
		stride[i] = acc
		acc *= size[i]
	}
	return stride
}

func product(size []int) int {
	p := 1
	for _, s := range size {
		p *= s
	}
	return p
}

// Rank returns the number of axes.
func (v *View[T]) Rank() int { return len(v.size) }

// Size returns the axis sizes.
func (v *View[T]) Size() []int { return v.size }

// Stride returns the axis strides.
func (v *View[T]) Stride() []int { return v.stride }

// Offset returns the flat-buffer offset of element (0,0,...,0).
func (v *View[T]) Offset() int { return v.offset }

// Op returns the elementwise op applied on read.
func (v *View[T]) Op() Op { return v.op }

// Data exposes the underlying flat storage, for BLAS interop in the
// kernel package. Callers must account for Offset/Stride themselves.
func (v *View[T]) Data() []T { return v.data }

func (v *View[T]) flatIndex(idx []int) int {
	pos := v.offset
	for i, x := range idx {
		pos += x * v.stride[i]
	}
	return pos
}

func applyOp[T Numeric](op Op, x T) T {
	if op != ConjOp {
		return x
	}
	return conjugate(x)
}

// At returns the element at idx after applying the view's op.
func (v *View[T]) At(idx ...int) T {
	return applyOp(v.op, v.data[v.flatIndex(idx)])
}

// Set writes val at idx, ignoring the view's read-side op; callers that
// need conj-on-write should conjugate val themselves.
func (v *View[T]) Set(val T, idx ...int) {
	v.data[v.flatIndex(idx)] = val
}

// Conj returns a view identical to v but with ConjOp applied (composing
// with any existing op: Conj twice returns to Identity for real/complex
// conjugation, matching the algebraic involution).
func (v *View[T]) Conj() *View[T] {
	newOp := ConjOp
	if v.op == ConjOp {
		newOp = Identity
	}
	return newRaw(v.data, v.size, v.stride, v.offset, newOp)
}

// Adjoint is equal to Conj for the numeric scalar element types this
// package supports: elementwise adjoint reduces to conjugate for scalars.
func (v *View[T]) Adjoint() *View[T] { return v.Conj() }

// PermuteDims returns a view over the same storage with axes reordered:
// result.Size()[k] == v.Size()[perm[k]], same for Stride. No data is
// copied.
func (v *View[T]) PermuteDims(perm []int) *View[T] {
	size := make([]int, len(perm))
	stride := make([]int, len(perm))
	for k, p := range perm {
		size[k] = v.size[p]
		stride[k] = v.stride[p]
	}
	return newRaw(v.data, size, stride, v.offset, v.op)
}

// SReshape returns a view over the same storage with shape newSize, and
// true, when the element counts match and all of v's axes fuse into one
// contiguous run (canFuseAll). A reshape that would only need some axis
// groups fused is reported as false. On failure it returns (nil, false);
// callers fall back to an explicit copy.
func (v *View[T]) SReshape(newSize []int) (*View[T], bool) {
	if product(newSize) != product(v.size) {
		return nil, false
	}
	fusable, _, leading := canFuseAll(v.size, v.stride)
	if !fusable {
		return nil, false
	}
	return newRaw(v.data, append([]int(nil), newSize...), rowMajorStridesFrom(newSize, leading), v.offset, v.op), true
}

func rowMajorStridesFrom(size []int, unit int) []int {
	n := len(size)
	stride := make([]int, n)
	acc := unit
	for i := n - 1; i >= 0; i-- {
		stride[i] = acc
		acc *= size[i]
	}
	return stride
}

// canFuseAll mirrors fusion.CanFuse but is duplicated here (rather than
// imported) to avoid a dependency cycle: fusion imports view for its
// BLAS-contractability checks, so view cannot import fusion back. Both
// implement the same contiguous-run walk, except for size-0 axes:
// CanFuse reports any group with a size-0 axis as fusable, while
// canFuseAll still checks the remaining axes.
func canFuseAll(sizes, strides []int) (fusable bool, total int, leading int) {
	n := len(sizes)
	if n == 0 {
		return true, 1, 1
	}
	total = 1
	leading = strides[n-1]
	prevSize, prevStride := 1, leading
	first := true
	for i := n - 1; i >= 0; i-- {
		s, d := sizes[i], strides[i]
		if s == 0 {
			total = 0
			continue
		}
		if s == 1 {
			continue
		}
		total *= s
		if first {
			leading = d
			prevSize, prevStride = s, d
			first = false
			continue
		}
		if d != prevSize*prevStride {
			return false, 0, 0
		}
		prevSize, prevStride = s, d
	}
	if first {
		// every axis was size 0 or size 1
		leading = 1
	}
	return true, total, leading
}

// MapReduceDim is the destructive reduction primitive the kernel package
// builds Add/Trace/Contract on: it walks shape (a common broadcast-padded
// shape covering out's axes followed by the trailing reduced axes), applying
// combinator(dst, elements of sources...) and accumulating via init on
// out, for every combination of the trailing axes beyond out's rank.
//
// combinator receives the current accumulator value and the current
// elements of each source (already past that source's op) and returns the
// new accumulator value. init transforms out's existing value into the
// starting accumulator before the trailing-axis loop begins.
func MapReduceDim[T Numeric](
	combinator func(acc T, sources ...T) T,
	init func(T) T,
	shape []int,
	out *View[T],
	sources ...*View[T],
) {
	outRank := out.Rank()
	reduceShape := shape[outRank:]
	reduceCount := product(reduceShape)

	outIdx := make([]int, outRank)
	walkIndices(shape[:outRank], func(idx []int) {
		copy(outIdx, idx)
		acc := init(out.At(outIdx...))
		if reduceCount == 0 {
			out.Set(acc, outIdx...)
			return
		}
		full := make([]int, len(shape))
		copy(full, idx)
		walkIndices(reduceShape, func(ridx []int) {
			copy(full[outRank:], ridx)
			vals := make([]T, len(sources))
			for i, src := range sources {
				vals[i] = src.At(broadcastIndex(full, src.Size())...)
			}
			acc = combinator(acc, vals...)
		})
		out.Set(acc, outIdx...)
	})
}

// broadcastIndex maps a full-shape index down to src's own rank by
// dropping leading unit-padding axes (sources with fewer axes than the
// common shape are treated as broadcast along their missing leading
// axes, and any axis of size 1 is held at index 0), the same
// broadcast-padding the native contract path relies on.
func broadcastIndex(full []int, srcSize []int) []int {
	offset := len(full) - len(srcSize)
	out := make([]int, len(srcSize))
	for i, s := range srcSize {
		if s == 1 {
			out[i] = 0
			continue
		}
		out[i] = full[offset+i]
	}
	return out
}

// WalkIndices calls fn once for every multi-index in the row-major
// enumeration of shape (e.g. shape (2,3) yields (0,0),(0,1),(0,2),(1,0)...).
// It is exported so kernel's Add/Trace/Contract can drive elementwise and
// broadcast-padded native loops without duplicating this odometer logic.
func WalkIndices(shape []int, fn func(idx []int)) {
	walkIndices(shape, fn)
}

func walkIndices(shape []int, fn func(idx []int)) {
	n := len(shape)
	if n == 0 {
		fn(nil)
		return
	}
	idx := make([]int, n)
	for {
		fn(idx)
		i := n - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
