package kernel

import "github.com/dkoslov/tensen/view"

func zeroOf[T view.Numeric]() T {
	var z T
	return z
}

func oneOf[T view.Numeric]() T {
	var z T
	switch any(z).(type) {
	case complex64:
		return any(complex64(1)).(T)
	case complex128:
		return any(complex128(1)).(T)
	case float32:
		return any(float32(1)).(T)
	case float64:
		return any(float64(1)).(T)
	case int64:
		return any(int64(1)).(T)
	case int32:
		return any(int32(1)).(T)
	default:
		panic("kernel: unsupported element type")
	}
}

// combinatorFor returns the alpha-scaling half of the reduction
// combinator: identity when alpha == 1, otherwise x -> alpha*x.
func combinatorFor[T view.Numeric](alpha T) func(T) T {
	if alpha == oneOf[T]() {
		return func(x T) T { return x }
	}
	return func(x T) T { return scale(alpha, x) }
}

// initializerFor returns the beta-scaling half of the reduction
// combinator: zero when beta == 0, pass-through when beta == 1,
// otherwise y -> beta*y.
func initializerFor[T view.Numeric](beta T) func(T) T {
	zero, one := zeroOf[T](), oneOf[T]()
	switch beta {
	case zero:
		return func(T) T { return zero }
	case one:
		return func(y T) T { return y }
	default:
		return func(y T) T { return scale(beta, y) }
	}
}
