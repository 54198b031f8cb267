package kernel

import (
	"context"

	"github.com/dkoslov/tensen/errs"
	"github.com/dkoslov/tensen/view"
	"github.com/rs/zerolog/log"
)

// Add computes C <- beta*C + alpha*op(A) permuted by indCinA, where op is
// Plain/Conjugate/Adjoint per cjA.
//
// indCinA has length rank(C) and indCinA[k] names the axis of A that
// becomes axis k of C; indCinA must be a permutation of 0..rank(A)-1 and
// therefore rank(A) == rank(C).
func Add[T view.Numeric](alpha T, a *view.View[T], cjA Conj, beta T, c *view.View[T], indCinA []int) error {
	return AddContext(context.Background(), alpha, a, cjA, beta, c, indCinA)
}

// AddContext is Add with an explicit context, used so callers (notably
// Contract's A/B/C-preparation steps) can thread a tracing span through.
func AddContext[T view.Numeric](ctx context.Context, alpha T, a *view.View[T], cjA Conj, beta T, c *view.View[T], indCinA []int) error {
	_, span := tracer.Start(ctx, "kernel.Add")
	defer span.End()
	kernelCalls.WithLabelValues("add").Inc()

	if !cjA.valid() {
		return errs.Newf(errs.UnknownFlag, "Add: %v", cjA)
	}
	if err := validateAddIndices(a.Rank(), c.Rank(), indCinA); err != nil {
		return err
	}
	for k, p := range indCinA {
		if a.Size()[p] != c.Size()[k] {
			return errs.Newf(errs.DimensionMismatch,
				"Add: axis %d of C (size %d) does not match axis %d of A (size %d)",
				k, c.Size()[k], p, a.Size()[p])
		}
	}

	opA, err := applyConj(a, cjA)
	if err != nil {
		return err
	}
	permuted := opA.PermuteDims(indCinA)

	log.Debug().Ints("indCinA", indCinA).Msg("kernel.Add: native strided accumulate")
	axpby(alpha, permuted, beta, c)
	return nil
}

// validateAddIndices checks that the concatenation of C's left/right
// selections (already flattened by the caller into indCinA) is a
// permutation of 0..rank(A)-1.
func validateAddIndices(rankA, rankC int, indCinA []int) error {
	if len(indCinA) != rankC {
		return errs.Newf(errs.InvalidIndices,
			"Add: indCinA has length %d, expected rank(C) = %d", len(indCinA), rankC)
	}
	if rankA != rankC {
		return errs.Newf(errs.InvalidIndices,
			"Add: rank(A) = %d must equal rank(C) = %d", rankA, rankC)
	}
	seen := make([]bool, rankA)
	for _, p := range indCinA {
		if p < 0 || p >= rankA {
			return errs.Newf(errs.InvalidIndices, "Add: index %d out of range for rank(A) = %d", p, rankA)
		}
		if seen[p] {
			return errs.Newf(errs.InvalidIndices, "Add: axis %d of A used more than once in indCinA", p)
		}
		seen[p] = true
	}
	return nil
}
