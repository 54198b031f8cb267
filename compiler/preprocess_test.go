package compiler

import (
	"testing"

	"github.com/dkoslov/tensen/ast"
	"github.com/stretchr/testify/assert"
)

func TestExpandConjugationPushesThroughSum(t *testing.T) {
	n, err := ast.Parse("conj(A[i,j] + B[i,j])")
	assert.NoError(t, err)

	rewritten, _, _, err := Preprocess(n)
	assert.NoError(t, err)

	assert.Equal(t, ast.KindCall, rewritten.Kind)
	assert.Equal(t, "+", rewritten.Symbol)
	for _, leaf := range rewritten.Children {
		assert.Equal(t, "conj", leaf.Symbol)
	}
}

func TestExpandConjugationCancelsDoubleConj(t *testing.T) {
	n, err := ast.Parse("conj(conj(A[i,j]))")
	assert.NoError(t, err)

	rewritten, preamble, _, err := Preprocess(n)
	assert.NoError(t, err)

	// The tensor object is renamed to a gensym; the preamble maps it back.
	assert.Equal(t, ast.KindSubscript, rewritten.Kind)
	assert.Equal(t, "A", restoreOriginalNames(rewritten, preamble).Symbol)
}

func TestExpandConjugationRecursesIntoAssignment(t *testing.T) {
	n, err := ast.Parse("C[i,j] := conj(A[i,j] * B[i,j])")
	assert.NoError(t, err)

	rewritten, _, _, err := Preprocess(n)
	assert.NoError(t, err)

	assert.Equal(t, ast.KindDefine, rewritten.Kind)
	rhs := rewritten.Children[1]
	assert.Equal(t, "*", rhs.Symbol)
	for _, leaf := range rhs.Children {
		assert.Equal(t, "conj", leaf.Symbol)
	}
}

func TestExtractTensorObjectsGensymsDistinctNames(t *testing.T) {
	n, err := ast.Parse("A[i,j] + A[i,j]")
	assert.NoError(t, err)

	rewritten, preamble, postamble, err := Preprocess(n)
	assert.NoError(t, err)

	assert.Len(t, preamble.Children, 1, "a single distinct tensor object should gensym once")
	assert.Equal(t, "__preamble__", preamble.Symbol)
	assert.Equal(t, "__postamble__", postamble.Symbol)
	assert.Empty(t, postamble.Children)

	left, right := rewritten.Children[0], rewritten.Children[1]
	assert.Equal(t, left.Symbol, right.Symbol, "both occurrences of A should rewrite to the same gensym")
	assert.NotEqual(t, "A", left.Symbol)
}

func TestExtractTensorObjectsDistinguishesDifferentNames(t *testing.T) {
	n, err := ast.Parse("A[i,j] + B[i,j]")
	assert.NoError(t, err)

	rewritten, preamble, _, err := Preprocess(n)
	assert.NoError(t, err)

	assert.Len(t, preamble.Children, 2)
	left, right := rewritten.Children[0], rewritten.Children[1]
	assert.NotEqual(t, left.Symbol, right.Symbol)
}
