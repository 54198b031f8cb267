package compiler

import (
	"strconv"

	"github.com/dkoslov/tensen/ast"
	"github.com/dkoslov/tensen/errs"
)

// Tree is a binary contraction tree over a list of factors, indexed by
// position in the caller's factor slice. A leaf names one factor; an
// internal node pairs two sub-trees for a single two-operand contraction.
type Tree struct {
	FactorIndex int
	Left, Right *Tree
}

// IsLeaf reports whether t names a single factor rather than a pairing.
func (t *Tree) IsLeaf() bool {
	return t.Left == nil && t.Right == nil
}

// TreeBuilder produces a Tree from the free-index list of each factor in
// a product. tensen ships the default left-fold builder and the
// positional-convention builder; no cost-based optimizer is provided —
// the engine accepts an ordering but does not compute an optimal one.
type TreeBuilder interface {
	Build(freeIndices [][]string) (*Tree, error)
}

// LeftFoldBuilder emits the left-fold tree [[[[1,2],3],4],...] over the
// factors in their original order.
type LeftFoldBuilder struct{}

func (LeftFoldBuilder) Build(freeIndices [][]string) (*Tree, error) {
	if len(freeIndices) == 0 {
		return nil, errs.New(errs.InvalidExpression, "LeftFoldBuilder: no factors")
	}
	t := &Tree{FactorIndex: 0}
	for i := 1; i < len(freeIndices); i++ {
		t = &Tree{Left: t, Right: &Tree{FactorIndex: i}}
	}
	return t, nil
}

// PositionalBuilder builds a tree from the ncon-style positional
// convention, where every index label is an integer: positive labels
// name a contracted pair, negative labels name a free (output) index.
// It repeatedly merges whichever two remaining nodes share the smallest
// positive label still outstanding, so contractions execute in label
// order; any factors left sharing no label are left-folded together at
// the end. It reports an error (so callers fall back to LeftFoldBuilder)
// if any index label is not an integer.
type PositionalBuilder struct{}

func (PositionalBuilder) Build(freeIndices [][]string) (*Tree, error) {
	if len(freeIndices) == 0 {
		return nil, errs.New(errs.InvalidExpression, "PositionalBuilder: no factors")
	}
	labelSets := make([]map[int]bool, len(freeIndices))
	for i, idxs := range freeIndices {
		set := map[int]bool{}
		for _, lbl := range idxs {
			v, err := strconv.Atoi(lbl)
			if err != nil {
				return nil, errs.New(errs.InvalidExpression, "PositionalBuilder: non-integer index label "+lbl)
			}
			if v > 0 {
				set[v] = true
			}
		}
		labelSets[i] = set
	}

	nodes := make([]*Tree, len(freeIndices))
	for i := range freeIndices {
		nodes[i] = &Tree{FactorIndex: i}
	}

	for len(nodes) > 1 {
		bestI, bestJ, bestLabel := -1, -1, 0
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				for lbl := range labelSets[i] {
					if labelSets[j][lbl] && (bestI < 0 || lbl < bestLabel) {
						bestI, bestJ, bestLabel = i, j, lbl
					}
				}
			}
		}
		if bestI < 0 {
			merged := nodes[0]
			for k := 1; k < len(nodes); k++ {
				merged = &Tree{Left: merged, Right: nodes[k]}
			}
			return merged, nil
		}
		mergedLabels := map[int]bool{}
		for lbl := range labelSets[bestI] {
			if lbl != bestLabel {
				mergedLabels[lbl] = true
			}
		}
		for lbl := range labelSets[bestJ] {
			if lbl != bestLabel {
				mergedLabels[lbl] = true
			}
		}
		merged := &Tree{Left: nodes[bestI], Right: nodes[bestJ]}

		newNodes := []*Tree{merged}
		newLabelSets := []map[int]bool{mergedLabels}
		for k := range nodes {
			if k != bestI && k != bestJ {
				newNodes = append(newNodes, nodes[k])
				newLabelSets = append(newLabelSets, labelSets[k])
			}
		}
		nodes, labelSets = newNodes, newLabelSets
	}
	return nodes[0], nil
}

// Sort walks t, substituting each leaf with its corresponding factor
// expression, and rebuilds a fully parenthesized binary product of
// two-operand contractions.
func Sort(t *Tree, factors []*ast.Node) (*ast.Node, error) {
	if t == nil {
		return nil, errs.New(errs.InvalidExpression, "Sort: nil tree")
	}
	if t.IsLeaf() {
		if t.FactorIndex < 0 || t.FactorIndex >= len(factors) {
			return nil, errs.New(errs.InvalidExpression, "Sort: factor index out of range")
		}
		return factors[t.FactorIndex], nil
	}
	left, err := Sort(t.Left, factors)
	if err != nil {
		return nil, err
	}
	right, err := Sort(t.Right, factors)
	if err != nil {
		return nil, err
	}
	return ast.Call("*", left, right), nil
}

// BuildTree picks PositionalBuilder when every factor's free indices are
// integer labels, falling back to LeftFoldBuilder otherwise.
func BuildTree(freeIndices [][]string) (*Tree, error) {
	if t, err := (PositionalBuilder{}).Build(freeIndices); err == nil {
		return t, nil
	}
	return (LeftFoldBuilder{}).Build(freeIndices)
}
