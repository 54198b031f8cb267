package compiler

import (
	"testing"

	"github.com/dkoslov/tensen/ast"
	"github.com/stretchr/testify/assert"
)

func TestLeftFoldBuilder(t *testing.T) {
	free := [][]string{{"i", "j"}, {"j", "k"}, {"k", "l"}}
	tree, err := (LeftFoldBuilder{}).Build(free)
	assert.NoError(t, err)

	assert.False(t, tree.IsLeaf())
	assert.True(t, tree.Right.IsLeaf())
	assert.Equal(t, 2, tree.Right.FactorIndex)
	assert.True(t, tree.Left.Left.IsLeaf())
	assert.Equal(t, 0, tree.Left.Left.FactorIndex)
	assert.Equal(t, 1, tree.Left.Right.FactorIndex)
}

func TestPositionalBuilderMergesSmallestSharedLabelFirst(t *testing.T) {
	// ncon-style: A has open index -1 and contracted 1,2; B has 1,3;
	// C has 2,3. Smallest shared label across any pair is 1 (A,B).
	free := [][]string{{"-1", "1", "2"}, {"1", "3"}, {"2", "3"}}
	tree, err := (PositionalBuilder{}).Build(free)
	assert.NoError(t, err)

	assert.False(t, tree.IsLeaf())
	// The first merge pairs factor 0 (A) with factor 1 (B); that pair is
	// the root's left child, merged with C last.
	assert.True(t, tree.Left.Left.IsLeaf())
	assert.Equal(t, 0, tree.Left.Left.FactorIndex)
	assert.True(t, tree.Left.Right.IsLeaf())
	assert.Equal(t, 1, tree.Left.Right.FactorIndex)
}

func TestPositionalBuilderRejectsNonIntegerLabels(t *testing.T) {
	free := [][]string{{"i", "j"}, {"j", "k"}}
	_, err := (PositionalBuilder{}).Build(free)
	assert.Error(t, err)
}

func TestBuildTreeFallsBackToLeftFold(t *testing.T) {
	free := [][]string{{"i", "j"}, {"j", "k"}}
	tree, err := BuildTree(free)
	assert.NoError(t, err)
	assert.False(t, tree.IsLeaf())
}

func TestSortRebuildsBinaryProduct(t *testing.T) {
	a, _ := ast.Parse("A[i,j]")
	b, _ := ast.Parse("B[j,k]")
	c, _ := ast.Parse("C[k,l]")
	factors := []*ast.Node{a, b, c}

	tree, err := (LeftFoldBuilder{}).Build([][]string{{"i", "j"}, {"j", "k"}, {"k", "l"}})
	assert.NoError(t, err)

	sorted, err := Sort(tree, factors)
	assert.NoError(t, err)
	assert.Equal(t, ast.KindCall, sorted.Kind)
	assert.Equal(t, "*", sorted.Symbol)
	assert.True(t, IsContraction(sorted))
}
