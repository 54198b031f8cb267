package kernel

import (
	"context"

	"github.com/dkoslov/tensen/errs"
	"github.com/dkoslov/tensen/fusion"
	"github.com/dkoslov/tensen/structure"
	"github.com/dkoslov/tensen/tempcache"
	"github.com/dkoslov/tensen/view"
	"github.com/rs/zerolog/log"
)

// SiteTags names the three temporary-allocation call sites a single
// Contract invocation may touch (A', B', C'), so the compiler's
// instantiator can hand each a distinct, stable tempcache.SiteTag,
// distinct from all sibling sites.
type SiteTags struct {
	APrime, BPrime, CPrime tempcache.SiteTag
}

// Contract computes C <- beta*C + alpha*contract(opA(A), opB(B)),
// contracting cindA of A against cindB of B (pairwise, cindA[k] against
// cindB[k]), gathering open axes oindA/oindB and permuting their
// concatenation by indCinoAB into C. No temporaries are cached.
func Contract[T view.Numeric](
	alpha T, a *view.View[T], cjA Conj,
	b *view.View[T], cjB Conj,
	beta T, c *view.View[T],
	oindA, cindA, oindB, cindB, indCinoAB []int,
) error {
	return contract(context.Background(), alpha, a, cjA, b, cjB, beta, c, oindA, cindA, oindB, cindB, indCinoAB, nil, tempcache.TaskID(0))
}

// ContractCached is Contract with a task-keyed temporary cache: any A',
// B', C' temporaries the BLAS path needs to materialize are looked up
// and inserted into tempcache under the given site tags and task id,
// instead of being freshly allocated and discarded on return.
func ContractCached[T view.Numeric](
	alpha T, a *view.View[T], cjA Conj,
	b *view.View[T], cjB Conj,
	beta T, c *view.View[T],
	oindA, cindA, oindB, cindB, indCinoAB []int,
	sites SiteTags, task tempcache.TaskID,
) error {
	return contract(context.Background(), alpha, a, cjA, b, cjB, beta, c, oindA, cindA, oindB, cindB, indCinoAB, &sites, task)
}

func contract[T view.Numeric](
	ctx context.Context,
	alpha T, a *view.View[T], cjA Conj,
	b *view.View[T], cjB Conj,
	beta T, c *view.View[T],
	oindA, cindA, oindB, cindB, indCinoAB []int,
	sites *SiteTags, task tempcache.TaskID,
) error {
	ctx, span := tracer.Start(ctx, "kernel.Contract")
	defer span.End()
	kernelCalls.WithLabelValues("contract").Inc()

	if !cjA.valid() {
		return errs.Newf(errs.UnknownFlag, "Contract: cjA=%v", cjA)
	}
	if !cjB.valid() {
		return errs.Newf(errs.UnknownFlag, "Contract: cjB=%v", cjB)
	}
	if err := validateContractIndices(a, b, c, oindA, cindA, oindB, cindB, indCinoAB); err != nil {
		return err
	}

	nA, nB := len(oindA), len(oindB)
	invPerm := make([]int, nA+nB)
	for k, p := range indCinoAB {
		invPerm[p] = k
	}

	if BLASEnabled() && isBLASElement[T]() {
		contractDispatch.WithLabelValues("blas").Inc()
		return contractBLAS(ctx, alpha, a, cjA, b, cjB, beta, c, oindA, cindA, oindB, cindB, indCinoAB, invPerm, sites, task)
	}

	contractDispatch.WithLabelValues("native").Inc()
	log.Debug().Msg("kernel.Contract: native broadcast-padded reduction")
	contractNative(alpha, a, cjA, b, cjB, beta, c, oindA, cindA, oindB, cindB, invPerm)
	return nil
}

// validateContractIndices checks that oindA/cindA, oindB/cindB, and
// indCinoAB are each permutations of their operand's axis range and that
// the contracted-axis counts match between A and B.
func validateContractIndices[T view.Numeric](a, b, c *view.View[T], oindA, cindA, oindB, cindB, indCinoAB []int) error {
	if len(cindA) != len(cindB) {
		return errs.Newf(errs.InvalidIndices, "Contract: |cindA| (%d) != |cindB| (%d)", len(cindA), len(cindB))
	}
	if err := checkPermutes(a.Rank(), append(append([]int{}, oindA...), cindA...), "(oindA,cindA)"); err != nil {
		return err
	}
	if err := checkPermutes(b.Rank(), append(append([]int{}, oindB...), cindB...), "(oindB,cindB)"); err != nil {
		return err
	}
	if err := checkPermutes(c.Rank(), indCinoAB, "indCinoAB"); err != nil {
		return err
	}
	if len(indCinoAB) != len(oindA)+len(oindB) {
		return errs.Newf(errs.InvalidIndices,
			"Contract: indCinoAB has length %d, expected len(oindA)+len(oindB) = %d",
			len(indCinoAB), len(oindA)+len(oindB))
	}
	for k := range cindA {
		if a.Size()[cindA[k]] != b.Size()[cindB[k]] {
			return errs.Newf(errs.DimensionMismatch,
				"Contract: contracted axis pair (%d,%d) has mismatched sizes %d vs %d",
				cindA[k], cindB[k], a.Size()[cindA[k]], b.Size()[cindB[k]])
		}
	}
	combined := append(append([]int{}, selectSizes(a.Size(), oindA)...), selectSizes(b.Size(), oindB)...)
	for k, p := range indCinoAB {
		if combined[p] != c.Size()[k] {
			return errs.Newf(errs.DimensionMismatch,
				"Contract: axis %d of C (size %d) does not match open axis %d (size %d)",
				k, c.Size()[k], p, combined[p])
		}
	}
	return nil
}

func checkPermutes(rank int, positions []int, label string) error {
	if len(positions) != rank {
		return errs.Newf(errs.InvalidIndices, "Contract: %s has length %d, expected rank %d", label, len(positions), rank)
	}
	seen := make([]bool, rank)
	for _, p := range positions {
		if p < 0 || p >= rank {
			return errs.Newf(errs.InvalidIndices, "Contract: %s references out-of-range axis %d", label, p)
		}
		if seen[p] {
			return errs.Newf(errs.InvalidIndices, "Contract: %s references axis %d more than once", label, p)
		}
		seen[p] = true
	}
	return nil
}

func selectSizes(size []int, sel []int) []int {
	out := make([]int, len(sel))
	for i, p := range sel {
		out[i] = size[p]
	}
	return out
}

func product(sizes []int) int {
	p := 1
	for _, s := range sizes {
		p *= s
	}
	return p
}

func roleFor(cj Conj) fusion.Role {
	if cj == Plain {
		return fusion.PlainSource
	}
	return fusion.ConjugatedSource
}

// contractNative is the BLAS-ineligible path: two synthetic strided
// views of A and B, broadcast-padded with stride-0 axes so they share
// C's shape extended by the contracted axes (C's own axis order followed
// by the contracted axes),
// reduced with combinator (x,y) -> alpha*opA(x)*opB(y) and the beta-table
// initializer, writing directly into C.
func contractNative[T view.Numeric](
	alpha T, a *view.View[T], cjA Conj,
	b *view.View[T], cjB Conj,
	beta T, c *view.View[T],
	oindA, cindA, oindB, cindB, invPerm []int,
) {
	opA, _ := applyConj(a, cjA)
	opB, _ := applyConj(b, cjB)

	nA := len(oindA)
	rankC := c.Rank()
	nK := len(cindA)
	shape := make([]int, rankC+nK)
	copy(shape, c.Size())

	sizeA := make([]int, rankC+nK)
	strideA := make([]int, rankC+nK)
	sizeB := make([]int, rankC+nK)
	strideB := make([]int, rankC+nK)

	for k := 0; k < rankC; k++ {
		combinedPos := invPerm[k]
		if combinedPos < nA {
			p := oindA[combinedPos]
			sizeA[k] = a.Size()[p]
			strideA[k] = opA.Stride()[p]
			sizeB[k] = c.Size()[k]
			strideB[k] = 0
		} else {
			p := oindB[combinedPos-nA]
			sizeB[k] = b.Size()[p]
			strideB[k] = opB.Stride()[p]
			sizeA[k] = c.Size()[k]
			strideA[k] = 0
		}
	}
	for t := 0; t < nK; t++ {
		sizeA[rankC+t] = a.Size()[cindA[t]]
		strideA[rankC+t] = opA.Stride()[cindA[t]]
		shape[rankC+t] = sizeA[rankC+t]
		sizeB[rankC+t] = b.Size()[cindB[t]]
		strideB[rankC+t] = opB.Stride()[cindB[t]]
	}

	syntheticA := view.NewStrided(opA.Data(), sizeA, strideA, opA.Offset(), opA.Op())
	syntheticB := view.NewStrided(opB.Data(), sizeB, strideB, opB.Offset(), opB.Op())

	combinator := func(acc T, srcs ...T) T { return addT(acc, scale(alpha, mulT(srcs[0], srcs[1]))) }
	init := initializerFor(beta)
	view.MapReduceDim(combinator, init, shape, c, syntheticA, syntheticB)
}

// contractBLAS is the BLAS-eligible path: the role-swap heuristic,
// A/B-preparation into (M,K)/(K,N) shaped operands, C-preparation (direct
// write or temp + final accumulate), and the gonum/BLAS matmul dispatch.
func contractBLAS[T view.Numeric](
	ctx context.Context,
	alpha T, a *view.View[T], cjA Conj,
	b *view.View[T], cjB Conj,
	beta T, c *view.View[T],
	oindA, cindA, oindB, cindB, indCinoAB, invPerm []int,
	sites *SiteTags, task tempcache.TaskID,
) error {
	opA, err := applyConj(a, cjA)
	if err != nil {
		return err
	}
	opB, err := applyConj(b, cjB)
	if err != nil {
		return err
	}

	nA, nB := len(oindA), len(oindB)
	oindAinC := invPerm[:nA]
	oindBinC := invPerm[nA:]

	if swapped := shouldSwap(opA, oindA, cindA, cjA, opB, oindB, cindB, cjB, c, oindAinC, oindBinC); swapped {
		contractRoleSwap.WithLabelValues("true").Inc()
		swappedIndCinoAB := remapSwap(indCinoAB, nA, nB)
		var swappedSites *SiteTags
		if sites != nil {
			s := SiteTags{APrime: sites.BPrime, BPrime: sites.APrime, CPrime: sites.CPrime}
			swappedSites = &s
		}
		log.Debug().Msg("kernel.Contract: role-swap heuristic chose (B,A) orientation")
		return contractBLASOrdered(ctx, alpha, b, cjB, a, cjA, beta, c, oindB, cindB, oindA, cindA, swappedIndCinoAB, swappedSites, task)
	}
	contractRoleSwap.WithLabelValues("false").Inc()
	return contractBLASOrdered(ctx, alpha, a, cjA, b, cjB, beta, c, oindA, cindA, oindB, cindB, indCinoAB, sites, task)
}

// contractBLASOrdered performs A/B/C preparation and the matmul for a
// fixed (first, second) operand ordering; it is never itself asked to
// swap again.
func contractBLASOrdered[T view.Numeric](
	ctx context.Context,
	alpha T, a *view.View[T], cjA Conj,
	b *view.View[T], cjB Conj,
	beta T, c *view.View[T],
	oindA, cindA, oindB, cindB, indCinoAB []int,
	sites *SiteTags, task tempcache.TaskID,
) error {
	opA, _ := applyConj(a, cjA)
	opB, _ := applyConj(b, cjB)

	nA, nB := len(oindA), len(oindB)
	var aSite, bSite, cSite tempcache.SiteTag
	if sites != nil {
		aSite, bSite, cSite = sites.APrime, sites.BPrime, sites.CPrime
	}

	aFlat, err := prepareSource(ctx, resolveForBLAS(opA), oindA, cindA, cjA, aSite, task)
	if err != nil {
		return err
	}
	bFlat, err := prepareSource(ctx, resolveForBLAS(opB), cindB, oindB, cjB, bSite, task)
	if err != nil {
		return err
	}

	M := product(selectSizes(a.Size(), oindA))
	N := product(selectSizes(b.Size(), oindB))

	oindAinC := make([]int, nA)
	oindBinC := make([]int, nB)
	for k, p := range indCinoAB {
		if p < nA {
			oindAinC[p] = k
		} else {
			oindBinC[p-nA] = k
		}
	}

	if fusion.IsBLASContractable(c, oindAinC, oindBinC, fusion.Destination) {
		permuted := c.PermuteDims(append(append([]int{}, oindAinC...), oindBinC...))
		cFlat, ok := permuted.SReshape([]int{M, N})
		if ok {
			return gemm(aFlat, bFlat, cFlat, alpha, beta)
		}
	}

	openSizes := append(selectSizes(a.Size(), oindA), selectSizes(b.Size(), oindB)...)
	cPrimeMulti := allocPrime[T](cSite, task, openSizes)
	cPrimeFlat, ok := cPrimeMulti.SReshape([]int{M, N})
	if !ok {
		return errs.New(errs.DimensionMismatch, "Contract: freshly allocated C' temporary is not contiguous")
	}
	if err := gemm(aFlat, bFlat, cPrimeFlat, alpha, zeroOf[T]()); err != nil {
		return err
	}
	return AddContext(ctx, oneOf[T](), cPrimeMulti, Plain, beta, c, indCinoAB)
}

// resolveForBLAS strips a ConjOp marker left over from applyConj on a real
// BLAS element type: conjugation is the identity function on float32/
// float64, but the op field would otherwise still fail the
// view.AsGeneral64/32 adapter's op == Identity gate.
func resolveForBLAS[T view.Numeric](v *view.View[T]) *view.View[T] {
	if isBLASElement[T]() && v.Op() == view.ConjOp {
		return v.Conj()
	}
	return v
}

// prepareSource prepares an operand for the BLAS matmul path: if
// v is already BLAS-contractable in the (primary, secondary, cj) role,
// it is reshaped in place (no copy); otherwise a (product(primary),
// product(secondary))-shaped temporary is allocated (cached if site is
// non-zero) and populated via Add, after which it is treated as plain.
func prepareSource[T view.Numeric](ctx context.Context, opV *view.View[T], primary, secondary []int, cj Conj, site tempcache.SiteTag, task tempcache.TaskID) (*view.View[T], error) {
	if isBLASElement[T]() && fusion.IsBLASContractable(opV, primary, secondary, roleFor(cj)) {
		permuted := opV.PermuteDims(append(append([]int{}, primary...), secondary...))
		mSize := product(selectSizes(opV.Size(), primary))
		kSize := product(selectSizes(opV.Size(), secondary))
		if reshaped, ok := permuted.SReshape([]int{mSize, kSize}); ok {
			return reshaped, nil
		}
	}

	shape := append(selectSizes(opV.Size(), primary), selectSizes(opV.Size(), secondary)...)
	prime := allocPrime[T](site, task, shape)
	if err := AddContext(ctx, oneOf[T](), opV, Plain, zeroOf[T](), prime, append(append([]int{}, primary...), secondary...)); err != nil {
		return nil, err
	}
	mSize := product(selectSizes(opV.Size(), primary))
	kSize := product(selectSizes(opV.Size(), secondary))
	flatReshaped, ok := prime.SReshape([]int{mSize, kSize})
	if !ok {
		return nil, errs.New(errs.DimensionMismatch, "Contract: freshly allocated temporary is not contiguous")
	}
	return flatReshaped, nil
}

func allocPrime[T view.Numeric](site tempcache.SiteTag, task tempcache.TaskID, shape []int) *view.View[T] {
	if site != 0 {
		return tempcache.GetOrMake[T](site, task, shape)
	}
	return structure.Allocate[T](shape)
}

// shouldSwap estimates the memory cost of the (A,B) and (B,A) orderings
// by summing, for each operand and for C, its length times an indicator
// that it is not directly BLAS-contractable in its intended role. The
// "or differs in element type from C" clause never fires here since
// Contract is monomorphised over a single T shared by A, B, and C.
func shouldSwap[T view.Numeric](
	opA *view.View[T], oindA, cindA []int, cjA Conj,
	opB *view.View[T], oindB, cindB []int, cjB Conj,
	c *view.View[T], oindAinC, oindBinC []int,
) bool {
	if !isBLASElement[T]() {
		return false
	}
	ind := func(ok bool) int {
		if ok {
			return 0
		}
		return 1
	}
	lenA := product(selectSizes(opA.Size(), oindA)) * product(selectSizes(opA.Size(), cindA))
	lenB := product(selectSizes(opB.Size(), oindB)) * product(selectSizes(opB.Size(), cindB))
	lenC := product(c.Size())

	costAB := lenA*ind(fusion.IsBLASContractable(opA, oindA, cindA, roleFor(cjA))) +
		lenB*ind(fusion.IsBLASContractable(opB, cindB, oindB, roleFor(cjB))) +
		lenC*ind(fusion.IsBLASContractable(c, oindAinC, oindBinC, fusion.Destination))

	costBA := lenB*ind(fusion.IsBLASContractable(opB, oindB, cindB, roleFor(cjB))) +
		lenA*ind(fusion.IsBLASContractable(opA, cindA, oindA, roleFor(cjA))) +
		lenC*ind(fusion.IsBLASContractable(c, oindBinC, oindAinC, fusion.Destination))

	return costBA < costAB
}

// remapSwap rebuilds the indCinoAB permutation for the swapped operand
// order (B,A): a combined position p < nA (belonging to A, now the
// second operand) becomes p+nB; a position p >= nA (belonging to B, now
// first) becomes p-nA.
func remapSwap(indCinoAB []int, nA, nB int) []int {
	out := make([]int, len(indCinoAB))
	for k, p := range indCinoAB {
		if p < nA {
			out[k] = p + nB
		} else {
			out[k] = p - nA
		}
	}
	return out
}
