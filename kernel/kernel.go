// Package kernel implements the three primitive kernels of the contraction
// engine: Add (permute + scaled accumulate), Trace (partial trace with
// permute + scaled accumulate) and Contract (pairwise contraction with
// permute + scaled accumulate). Each validates its index-arithmetic
// precondition. Contract chooses between a BLAS matmul path and a native
// strided reduction path and may materialize temporaries through
// tempcache; Add and Trace always take the native strided path.
//
// Dispatch decisions are logged at debug level and counted via
// Prometheus.
package kernel

import (
	"sync/atomic"

	"github.com/dkoslov/tensen/errs"
	"github.com/dkoslov/tensen/view"
)

// Conj is an elementwise operator applied to an operand before it
// participates in a kernel call.
type Conj int

const (
	// Plain is the identity: no conjugation.
	Plain Conj = iota
	// Conjugate applies complex conjugation elementwise.
	Conjugate
	// Adjoint applies elementwise adjoint, equal to Conjugate for
	// numeric scalars.
	Adjoint
)

func (c Conj) String() string {
	switch c {
	case Plain:
		return "plain"
	case Conjugate:
		return "conjugate"
	case Adjoint:
		return "adjoint"
	default:
		return "unknown"
	}
}

func (c Conj) valid() bool {
	return c == Plain || c == Conjugate || c == Adjoint
}

func applyConj[T view.Numeric](v *view.View[T], c Conj) (*view.View[T], error) {
	switch c {
	case Plain:
		return v, nil
	case Conjugate, Adjoint:
		return v.Conj(), nil
	default:
		return nil, errs.Newf(errs.UnknownFlag, "unrecognized conjugation flag %d", int(c))
	}
}

var blasEnabled atomic.Bool

func init() { blasEnabled.Store(true) }

// EnableBLAS turns on the BLAS matmul path process-wide. This toggle is
// a process-wide boolean; toggling it mid-evaluation is not supported.
func EnableBLAS() { blasEnabled.Store(true) }

// DisableBLAS forces every Contract call onto the native strided
// reduction path, regardless of element type or operand layout.
func DisableBLAS() { blasEnabled.Store(false) }

// BLASEnabled reports the current state of the process-wide BLAS toggle.
func BLASEnabled() bool { return blasEnabled.Load() }

// blasFloat constrains the element types gonum/BLAS accelerates.
type blasFloat interface {
	float32 | float64
}

// isBLASElement reports whether T is one of the types the BLAS path
// supports. Complex BLAS (cgemm/zgemm) is not wired through gonum/blas in
// this package; complex operands always take the native path instead,
// which computes the same result.
func isBLASElement[T view.Numeric]() bool {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return true
	default:
		return false
	}
}
