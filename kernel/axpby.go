package kernel

import "github.com/dkoslov/tensen/view"

// axpby computes dst <- beta*dst + alpha*src elementwise, where src and
// dst share the same shape (src is typically a permuted view produced by
// PermuteDims, dst the destination operand). gonum/blas's Axpy only
// covers the alpha=1-style single-scale case and operates on flat
// contiguous slices rather than arbitrary strided views, so this kernel
// implements the general scaled accumulate directly.
func axpby[T view.Numeric](alpha T, src *view.View[T], beta T, dst *view.View[T]) {
	var zero T
	view.WalkIndices(dst.Size(), func(idx []int) {
		var acc T
		if beta == zero {
			acc = zero
		} else {
			acc = scale(beta, dst.At(idx...))
		}
		acc = addT(acc, scale(alpha, src.At(idx...)))
		dst.Set(acc, idx...)
	})
}

func scale[T view.Numeric](s, x T) T {
	switch any(s).(type) {
	case complex64:
		sc, xc := any(s).(complex64), any(x).(complex64)
		return any(sc * xc).(T)
	case complex128:
		sc, xc := any(s).(complex128), any(x).(complex128)
		return any(sc * xc).(T)
	case float32:
		return any(any(s).(float32) * any(x).(float32)).(T)
	case float64:
		return any(any(s).(float64) * any(x).(float64)).(T)
	case int64:
		return any(any(s).(int64) * any(x).(int64)).(T)
	case int32:
		return any(any(s).(int32) * any(x).(int32)).(T)
	default:
		panic("kernel: unsupported element type")
	}
}

func addT[T view.Numeric](a, b T) T {
	switch any(a).(type) {
	case complex64:
		return any(any(a).(complex64) + any(b).(complex64)).(T)
	case complex128:
		return any(any(a).(complex128) + any(b).(complex128)).(T)
	case float32:
		return any(any(a).(float32) + any(b).(float32)).(T)
	case float64:
		return any(any(a).(float64) + any(b).(float64)).(T)
	case int64:
		return any(any(a).(int64) + any(b).(int64)).(T)
	case int32:
		return any(any(a).(int32) + any(b).(int32)).(T)
	default:
		panic("kernel: unsupported element type")
	}
}

func mulT[T view.Numeric](a, b T) T { return scale(a, b) }
