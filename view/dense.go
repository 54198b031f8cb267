package view

import (
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// AsGeneral64 exposes v as a gonum blas64.General (row-major dense matrix
// descriptor) without copying, iff v is rank-2, contiguous on its trailing
// axis, and carries no pending elementwise op (op must already have been
// resolved by the kernel's A/B-preparation step). This is the adapter
// kernel.Contract uses to hand prepared float64 operands to gonum's
// BLAS-backed Gemm.
func (v *View[T]) AsGeneral64() (blas64.General, bool) {
	g, data, ok := v.asGeneralData()
	if !ok {
		return blas64.General{}, false
	}
	f64, ok := any(data).([]float64)
	if !ok {
		return blas64.General{}, false
	}
	return blas64.General{Rows: g.rows, Cols: g.cols, Stride: g.stride, Data: f64}, true
}

// AsGeneral32 is AsGeneral64 for float32 operands.
func (v *View[T]) AsGeneral32() (blas32.General, bool) {
	g, data, ok := v.asGeneralData()
	if !ok {
		return blas32.General{}, false
	}
	f32, ok := any(data).([]float32)
	if !ok {
		return blas32.General{}, false
	}
	return blas32.General{Rows: g.rows, Cols: g.cols, Stride: g.stride, Data: f32}, true
}

type generalShape struct{ rows, cols, stride int }

func (v *View[T]) asGeneralData() (generalShape, []T, bool) {
	if v.Rank() != 2 || v.op != Identity {
		return generalShape{}, nil, false
	}
	rows, cols := v.size[0], v.size[1]
	if v.stride[1] != 1 {
		return generalShape{}, nil, false
	}
	return generalShape{rows: rows, cols: cols, stride: v.stride[0]}, v.data[v.offset:], true
}
