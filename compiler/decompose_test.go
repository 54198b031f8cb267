package compiler

import (
	"testing"

	"github.com/dkoslov/tensen/ast"
	"github.com/stretchr/testify/assert"
)

func TestDecomposeTensor(t *testing.T) {
	n, err := ast.Parse("A[i,j]")
	assert.NoError(t, err)

	obj, left, right, err := DecomposeTensor(n)
	assert.NoError(t, err)
	assert.Equal(t, "A", obj)
	assert.Equal(t, []string{"i", "j"}, left)
	assert.Empty(t, right)
}

func TestDecomposeTensorTwoRow(t *testing.T) {
	n, err := ast.Parse("A[i,j;k,l]")
	assert.NoError(t, err)

	obj, left, right, err := DecomposeTensor(n)
	assert.NoError(t, err)
	assert.Equal(t, "A", obj)
	assert.Equal(t, []string{"i", "j"}, left)
	assert.Equal(t, []string{"k", "l"}, right)
}

func TestDecomposeTensorRejectsNonTensor(t *testing.T) {
	n, err := ast.Parse("2")
	assert.NoError(t, err)
	_, _, _, err = DecomposeTensor(n)
	assert.Error(t, err)
}

func TestDecomposeGeneralTensorPlain(t *testing.T) {
	n, err := ast.Parse("A[i,j]")
	assert.NoError(t, err)
	obj, left, right, alpha, conj, err := DecomposeGeneralTensor(n)
	assert.NoError(t, err)
	assert.Equal(t, "A", obj)
	assert.Equal(t, []string{"i", "j"}, left)
	assert.Empty(t, right)
	assert.False(t, conj)
	assert.Equal(t, ast.Lit(1), alpha)
}

func TestDecomposeGeneralTensorScaledNegatedConjugated(t *testing.T) {
	n, err := ast.Parse("-2*conj(A[i,j])")
	assert.NoError(t, err)
	obj, left, _, _, conj, err := DecomposeGeneralTensor(n)
	assert.NoError(t, err)
	assert.Equal(t, "A", obj)
	assert.Equal(t, []string{"i", "j"}, left)
	assert.True(t, conj)
}

func TestDecomposeGeneralTensorRejectsAdjointPrefix(t *testing.T) {
	n, err := ast.Parse("adjoint(A[i,j])")
	assert.NoError(t, err)
	_, _, _, _, _, err = DecomposeGeneralTensor(n)
	assert.Error(t, err)
}

func TestDecomposeGeneralTensorDivision(t *testing.T) {
	n, err := ast.Parse("A[i,j]/2")
	assert.NoError(t, err)
	obj, left, _, _, _, err := DecomposeGeneralTensor(n)
	assert.NoError(t, err)
	assert.Equal(t, "A", obj)
	assert.Equal(t, []string{"i", "j"}, left)
}
