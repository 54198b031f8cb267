package kernel

import (
	"context"

	"github.com/dkoslov/tensen/errs"
	"github.com/dkoslov/tensen/view"
	"github.com/rs/zerolog/log"
)

// Trace computes C <- beta*C + alpha*partial_trace(op(A)), tracing axis
// pairs (cind1[k], cind2[k]) for each k, with left/right selecting the
// positions of A that become C's free axes (concatenated, in C's index
// order).
func Trace[T view.Numeric](alpha T, a *view.View[T], cjA Conj, beta T, c *view.View[T], left, right, cind1, cind2 []int) error {
	return TraceContext(context.Background(), alpha, a, cjA, beta, c, left, right, cind1, cind2)
}

// TraceContext is Trace with an explicit context for span propagation.
func TraceContext[T view.Numeric](ctx context.Context, alpha T, a *view.View[T], cjA Conj, beta T, c *view.View[T], left, right, cind1, cind2 []int) error {
	_, span := tracer.Start(ctx, "kernel.Trace")
	defer span.End()
	kernelCalls.WithLabelValues("trace").Inc()

	if !cjA.valid() {
		return errs.Newf(errs.UnknownFlag, "Trace: %v", cjA)
	}
	freeSel := append(append([]int{}, left...), right...)
	if err := validateTraceIndices(a, c, freeSel, cind1, cind2); err != nil {
		return err
	}

	opA, err := applyConj(a, cjA)
	if err != nil {
		return err
	}

	traceSize := make([]int, len(cind1))
	traceStride := make([]int, len(cind1))
	for k := range cind1 {
		traceSize[k] = a.Size()[cind1[k]]
		traceStride[k] = a.Stride()[cind1[k]] + a.Stride()[cind2[k]]
	}
	size := append(append([]int{}, c.Size()...), traceSize...)
	stride := make([]int, 0, len(size))
	for _, p := range freeSel {
		stride = append(stride, opA.Stride()[p])
	}
	stride = append(stride, traceStride...)

	synthetic := view.NewStrided(opA.Data(), size, stride, opA.Offset(), opA.Op())

	cf := combinatorFor(alpha)
	initf := initializerFor(beta)
	combinator := func(acc T, srcs ...T) T { return addT(acc, cf(srcs[0])) }

	log.Debug().Int("tracedPairs", len(cind1)).Msg("kernel.Trace: native diagonal reduction")
	view.MapReduceDim(combinator, initf, size, c, synthetic)
	return nil
}

// validateTraceIndices checks that rank(A)-rank(C) is even;
// cind1/cind2 are disjoint, each of size (rank(A)-rank(C))/2;
// (freeSel..., cind1..., cind2...) is a permutation of 0..rank(A)-1; and
// size(A, cind1[k]) == size(A, cind2[k]).
func validateTraceIndices[T view.Numeric](a, c *view.View[T], freeSel, cind1, cind2 []int) error {
	rankA, rankC := a.Rank(), c.Rank()
	if (rankA-rankC)%2 != 0 {
		return errs.Newf(errs.InvalidIndices, "Trace: rank(A)-rank(C) = %d is not even", rankA-rankC)
	}
	if len(cind1) != len(cind2) || len(cind1) != (rankA-rankC)/2 {
		return errs.Newf(errs.InvalidIndices,
			"Trace: cind1/cind2 must each have length (rank(A)-rank(C))/2 = %d, got %d/%d",
			(rankA-rankC)/2, len(cind1), len(cind2))
	}
	if len(freeSel) != rankC {
		return errs.Newf(errs.InvalidIndices,
			"Trace: left+right selection has length %d, expected rank(C) = %d", len(freeSel), rankC)
	}
	all := append(append(append([]int{}, freeSel...), cind1...), cind2...)
	seen := make([]bool, rankA)
	for _, p := range all {
		if p < 0 || p >= rankA {
			return errs.Newf(errs.InvalidIndices, "Trace: index %d out of range for rank(A) = %d", p, rankA)
		}
		if seen[p] {
			return errs.Newf(errs.InvalidIndices, "Trace: axis %d of A referenced more than once", p)
		}
		seen[p] = true
	}
	for _, ok := range seen {
		if !ok {
			return errs.Newf(errs.InvalidIndices, "Trace: (left,right,cind1,cind2) is not a permutation of 0..rank(A)-1")
		}
	}
	for k := range cind1 {
		if a.Size()[cind1[k]] != a.Size()[cind2[k]] {
			return errs.Newf(errs.DimensionMismatch,
				"Trace: traced axis pair (%d,%d) has mismatched sizes %d vs %d",
				cind1[k], cind2[k], a.Size()[cind1[k]], a.Size()[cind2[k]])
		}
	}
	for k, p := range freeSel {
		if a.Size()[p] != c.Size()[k] {
			return errs.Newf(errs.DimensionMismatch,
				"Trace: axis %d of C (size %d) does not match axis %d of A (size %d)",
				k, c.Size()[k], p, a.Size()[p])
		}
	}
	return nil
}
