package kernel

import (
	"github.com/dkoslov/tensen/errs"
	"github.com/dkoslov/tensen/view"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// gemm dispatches c <- beta*c + alpha*a*b to gonum/BLAS's Dgemm/Sgemm,
// given a (M,K), b (K,N), c (M,N) row-major operands already prepared by
// prepareSource/contractBLASOrdered's A/B/C-preparation steps.
func gemm[T view.Numeric](a, b, c *view.View[T], alpha, beta T) error {
	switch any(alpha).(type) {
	case float64:
		ga, ok1 := a.AsGeneral64()
		gb, ok2 := b.AsGeneral64()
		gc, ok3 := c.AsGeneral64()
		if !ok1 || !ok2 || !ok3 {
			return errs.New(errs.DimensionMismatch, "Contract: prepared operand is not a valid row-major general matrix")
		}
		blas64.Implementation().Dgemm(blas.NoTrans, blas.NoTrans,
			gc.Rows, gc.Cols, ga.Cols,
			any(alpha).(float64), ga.Data, ga.Stride,
			gb.Data, gb.Stride,
			any(beta).(float64), gc.Data, gc.Stride)
		return nil
	case float32:
		ga, ok1 := a.AsGeneral32()
		gb, ok2 := b.AsGeneral32()
		gc, ok3 := c.AsGeneral32()
		if !ok1 || !ok2 || !ok3 {
			return errs.New(errs.DimensionMismatch, "Contract: prepared operand is not a valid row-major general matrix")
		}
		blas32.Implementation().Sgemm(blas.NoTrans, blas.NoTrans,
			gc.Rows, gc.Cols, ga.Cols,
			any(alpha).(float32), ga.Data, ga.Stride,
			gb.Data, gb.Stride,
			any(beta).(float32), gc.Data, gc.Stride)
		return nil
	default:
		return errs.New(errs.DimensionMismatch, "Contract: gemm called with a non-BLAS element type")
	}
}
