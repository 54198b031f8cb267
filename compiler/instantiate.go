package compiler

import (
	"strconv"

	"github.com/dkoslov/tensen/ast"
	"github.com/dkoslov/tensen/errs"
	"github.com/dkoslov/tensen/kernel"
)

// OpKind names which primitive kernel a Step dispatches to.
type OpKind int

const (
	OpAdd OpKind = iota
	OpTrace
	OpContract
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpTrace:
		return "trace"
	case OpContract:
		return "contract"
	default:
		return "unknown"
	}
}

// Step is one instantiated kernel call: a fully-resolved permutation plan
// plus the destination/operand names Eval resolves against its env.
// Exactly one of (IndCinA) / (Left,Right,Cind1,Cind2) / (OindA,CindA,
// OindB,CindB,IndCinoAB) is populated, per Kind.
type Step struct {
	Kind     OpKind
	Dest     string
	IsDefine bool // := allocates a fresh destination via similar_from_indices
	Beta     int  // 0 for '=' and ':=', 1 for '+=', -1 for '-='
	Alpha    *ast.Node
	ConjA    kernel.Conj
	ConjB    kernel.Conj
	A, B     string

	// OpAdd
	IndCinA []int

	// OpTrace
	Left, Right, Cind1, Cind2 []int

	// OpContract
	OindA, CindA, OindB, CindB, IndCinoAB []int
}

func conjFlag(conj bool) kernel.Conj {
	if conj {
		return kernel.Conjugate
	}
	return kernel.Plain
}

func betaFor(kind ast.Kind) (int, error) {
	switch kind {
	case ast.KindAssign, ast.KindDefine:
		return 0, nil
	case ast.KindPlusEq:
		return 1, nil
	case ast.KindMinusEq:
		return -1, nil
	default:
		return 0, errs.New(errs.InvalidExpression, "Instantiate: not an assignment-family statement")
	}
}

// Instantiate lowers a single tensor assignment or definition statement
// (one that has already passed through Preprocess and, for any n-ary
// product, through BuildTree/Sort so every contraction it contains is
// binary) into kernel-call Steps. It returns the ordered Steps
// needed to evaluate the statement, including any Steps for nested
// sub-contractions materialized into gensym'd temporaries.
func Instantiate(stmt *ast.Node) (*Program, error) {
	if stmt.Kind != ast.KindAssign && stmt.Kind != ast.KindDefine &&
		stmt.Kind != ast.KindPlusEq && stmt.Kind != ast.KindMinusEq {
		return nil, errs.New(errs.InvalidExpression, "Instantiate: expected an assignment-family statement")
	}
	lhs, rhs := stmt.Children[0], stmt.Children[1]
	if !IsTensor(lhs) {
		return nil, errs.New(errs.InvalidExpression, "Instantiate: only tensor-valued destinations are supported")
	}
	destObj, destLeft, destRight, err := DecomposeTensor(lhs)
	if err != nil {
		return nil, err
	}
	if err := checkUniqueIndices(append(append([]string{}, destLeft...), destRight...)); err != nil {
		return nil, err
	}
	beta, err := betaFor(stmt.Kind)
	if err != nil {
		return nil, err
	}
	isDefine := stmt.Kind == ast.KindDefine

	var steps []*Step
	step, err := instantiateRHS(rhs, destObj, destLeft, destRight, isDefine, beta, &steps)
	if err != nil {
		return nil, err
	}
	steps = append(steps, step)
	return &Program{Steps: steps}, nil
}

func checkUniqueIndices(names []string) error {
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			return errs.New(errs.InvalidIndices, "Instantiate: left-hand side index "+n+" repeated")
		}
		seen[n] = true
	}
	return nil
}

// instantiateRHS classifies rhs as needing trace, add, or (possibly
// nested) contract, and returns the Step that writes into dest; any
// sub-contraction it needs first is appended to *steps.
func instantiateRHS(rhs *ast.Node, dest string, destLeft, destRight []string, isDefine bool, beta int, steps *[]*Step) (*Step, error) {
	if IsContraction(rhs) {
		if len(rhs.Children) != 2 {
			return nil, errs.New(errs.InvalidExpression,
				"Instantiate: n-ary product was not reduced to a binary contraction before instantiation")
		}
		step, _, err := instantiateContraction(rhs.Children[0], rhs.Children[1], dest, destLeft, destRight, isDefine, beta, steps)
		return step, err
	}
	if !IsGeneralTensor(rhs) {
		return nil, errs.New(errs.InvalidExpression, "Instantiate: right-hand side is neither a contraction nor a general tensor")
	}
	obj, left, right, alpha, conj, err := DecomposeGeneralTensor(rhs)
	if err != nil {
		return nil, err
	}
	combined := append(append([]string{}, left...), right...)
	destCombined := append(append([]string{}, destLeft...), destRight...)
	return instantiateFactor(obj, combined, alpha, conj, dest, destCombined, isDefine, beta)
}

// instantiateFactor classifies a single general-tensor RHS as needing
// trace (a repeated index within the factor) or add (no repeated index).
func instantiateFactor(obj string, combined []string, alpha *ast.Node, conj bool, dest string, destCombined []string, isDefine bool, beta int) (*Step, error) {
	positions := map[string][]int{}
	for i, n := range combined {
		positions[n] = append(positions[n], i)
	}
	var cind1, cind2 []int
	var freeSel []int
	seen := map[string]bool{}
	for i, n := range combined {
		if seen[n] {
			continue
		}
		seen[n] = true
		ps := positions[n]
		switch len(ps) {
		case 1:
			freeSel = append(freeSel, i)
		case 2:
			cind1 = append(cind1, ps[0])
			cind2 = append(cind2, ps[1])
		default:
			return nil, errs.New(errs.InvalidIndices, "Instantiate: index "+n+" appears more than twice in one factor")
		}
	}

	if len(cind1) == 0 {
		// add: freeSel must align 1:1 with destCombined by name
		indCinA := make([]int, len(destCombined))
		for k, name := range destCombined {
			pos := -1
			for _, p := range freeSel {
				if combined[p] == name {
					pos = p
					break
				}
			}
			if pos < 0 {
				return nil, errs.New(errs.InvalidIndices, "Instantiate: destination index "+name+" not found on right-hand side")
			}
			indCinA[k] = pos
		}
		return &Step{
			Kind: OpAdd, Dest: dest, IsDefine: isDefine, Beta: beta,
			Alpha: alpha, ConjA: conjFlag(conj), A: obj, IndCinA: indCinA,
		}, nil
	}

	// trace: freeSel (reordered to match destCombined) supplies left;
	// right is left empty since tensen's single-row destination form
	// carries the whole free-index list in Left.
	left := make([]int, len(destCombined))
	for k, name := range destCombined {
		pos := -1
		for _, p := range freeSel {
			if combined[p] == name {
				pos = p
				break
			}
		}
		if pos < 0 {
			return nil, errs.New(errs.InvalidIndices, "Instantiate: destination index "+name+" not found on right-hand side")
		}
		left[k] = pos
	}
	return &Step{
		Kind: OpTrace, Dest: dest, IsDefine: isDefine, Beta: beta,
		Alpha: alpha, ConjA: conjFlag(conj), A: obj,
		Left: left, Cind1: cind1, Cind2: cind2,
	}, nil
}

// instantiateContraction handles a binary product of two tensor-exprs,
// recursing through buildFactor for each side (which may itself emit a
// nested Contract Step into a gensym'd temporary), then emits the
// top-level Contract Step writing into dest. It also returns the index
// names of dest's axes in order: the destination's own names when given,
// otherwise (a gensym'd temporary) A's open names followed by B's, so an
// enclosing contraction can match against them by name exactly as it
// would a leaf tensor's indices.
func instantiateContraction(lhsFactor, rhsFactor *ast.Node, dest string, destLeft, destRight []string, isDefine bool, beta int, steps *[]*Step) (*Step, []string, error) {
	nameA, combinedA, alphaA, conjA, err := buildFactor(lhsFactor, steps)
	if err != nil {
		return nil, nil, err
	}
	nameB, combinedB, alphaB, conjB, err := buildFactor(rhsFactor, steps)
	if err != nil {
		return nil, nil, err
	}

	shared := map[string]bool{}
	setB := map[string]bool{}
	for _, n := range combinedB {
		setB[n] = true
	}
	for _, n := range combinedA {
		if setB[n] {
			shared[n] = true
		}
	}

	var oindA, cindANames, oindB []int
	var cindAOrder []string
	for i, n := range combinedA {
		if shared[n] {
			cindANames = append(cindANames, i)
			cindAOrder = append(cindAOrder, n)
		} else {
			oindA = append(oindA, i)
		}
	}
	cindB := make([]int, len(cindAOrder))
	for k, n := range cindAOrder {
		pos := -1
		for i, m := range combinedB {
			if m == n {
				pos = i
				break
			}
		}
		if pos < 0 {
			return nil, nil, errs.New(errs.InvalidIndices, "Instantiate: contracted index "+n+" not found on right factor")
		}
		cindB[k] = pos
	}
	for i, n := range combinedB {
		if !shared[n] {
			oindB = append(oindB, i)
		}
	}

	openNames := append(append([]string{}, namesAt(combinedA, oindA)...), namesAt(combinedB, oindB)...)
	destCombined := append(append([]string{}, destLeft...), destRight...)
	if len(destCombined) == 0 {
		// a gensym'd temporary: its own natural layout is (A's open
		// axes, B's open axes) in that order, so the mapping is identity.
		destCombined = openNames
	}
	indCinoAB := make([]int, len(destCombined))
	for k, name := range destCombined {
		pos := -1
		for i, m := range openNames {
			if m == name {
				pos = i
				break
			}
		}
		if pos < 0 {
			return nil, nil, errs.New(errs.InvalidIndices, "Instantiate: destination index "+name+" not found on either contraction factor")
		}
		indCinoAB[k] = pos
	}

	alpha := ast.Call("*", alphaA, alphaB)
	step := &Step{
		Kind: OpContract, Dest: dest, IsDefine: isDefine, Beta: beta,
		Alpha: alpha, ConjA: conjFlag(conjA), ConjB: conjFlag(conjB), A: nameA, B: nameB,
		OindA: oindA, CindA: cindANames, OindB: oindB, CindB: cindB, IndCinoAB: indCinoAB,
	}
	return step, destCombined, nil
}

func namesAt(names []string, positions []int) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = names[p]
	}
	return out
}

// buildFactor resolves node to a (name, combined-index-list, scalar
// factor, conjugation) tuple usable as one operand of a two-operand
// contraction. A general-tensor leaf resolves directly; a nested
// contraction instead emits its own Contract Step into a gensym'd
// temporary (β=0) and returns that temporary's identity, folding both of
// its own operands' scalar factors into the emitted Step's α so the
// temporary itself carries an implicit factor of 1.
func buildFactor(node *ast.Node, steps *[]*Step) (name string, combined []string, alpha *ast.Node, conj bool, err error) {
	if IsGeneralTensor(node) {
		obj, left, right, a, c, err := DecomposeGeneralTensor(node)
		if err != nil {
			return "", nil, nil, false, err
		}
		return obj, append(append([]string{}, left...), right...), a, c, nil
	}
	if IsContraction(node) && len(node.Children) == 2 {
		tmp := gensymTemp(len(*steps))
		step, openNames, err := instantiateContraction(node.Children[0], node.Children[1], tmp, nil, nil, true, 0, steps)
		if err != nil {
			return "", nil, nil, false, err
		}
		*steps = append(*steps, step)
		return tmp, openNames, ast.Lit(1), false, nil
	}
	return "", nil, nil, false, errs.New(errs.InvalidExpression, "Instantiate: operand is neither a general tensor nor a binary contraction")
}

func gensymTemp(n int) string {
	return "__c" + strconv.Itoa(n)
}
