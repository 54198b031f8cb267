package view

// conjugate applies complex conjugation to x, and is the identity for
// every real element type this package supports.
func conjugate[T Numeric](x T) T {
	switch v := any(x).(type) {
	case complex64:
		return any(complex64(complexConj(complex128(v)))).(T)
	case complex128:
		return any(complexConj(v)).(T)
	default:
		return x
	}
}

func complexConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
