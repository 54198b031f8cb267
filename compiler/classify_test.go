package compiler

import (
	"testing"

	"github.com/dkoslov/tensen/ast"
	"github.com/stretchr/testify/assert"
)

func TestIsIndex(t *testing.T) {
	n, err := ast.Parse("i")
	assert.NoError(t, err)
	assert.True(t, IsIndex(n))

	n, err = ast.Parse("A[i,j]")
	assert.NoError(t, err)
	assert.False(t, IsIndex(n))
}

func TestIsTensor(t *testing.T) {
	n, err := ast.Parse("A[i,j]")
	assert.NoError(t, err)
	assert.True(t, IsTensor(n))

	// conj(...) of a tensor is a general tensor, not a plain subscripted form.
	n, err = ast.Parse("conj(A[i,j])")
	assert.NoError(t, err)
	assert.False(t, IsTensor(n))

	n, err = ast.Parse("2*A[i,j]")
	assert.NoError(t, err)
	assert.False(t, IsTensor(n))
}

func TestIsGeneralTensor(t *testing.T) {
	cases := []string{"A[i,j]", "-A[i,j]", "conj(A[i,j])", "2*A[i,j]", "A[i,j]/2"}
	for _, src := range cases {
		n, err := ast.Parse(src)
		assert.NoError(t, err)
		assert.True(t, IsGeneralTensor(n), "expected %q to be a general tensor expression", src)
	}

	n, err := ast.Parse("A[i,j]*B[j,k]")
	assert.NoError(t, err)
	assert.False(t, IsGeneralTensor(n))
}

func TestIsScalarTensorExpr(t *testing.T) {
	n, err := ast.Parse("2")
	assert.NoError(t, err)
	assert.True(t, IsScalarExpr(n))
	assert.False(t, IsTensorExpr(n))

	n, err = ast.Parse("A[i,j]*B[j,k]")
	assert.NoError(t, err)
	assert.True(t, IsTensorExpr(n))
	assert.False(t, IsScalarExpr(n))
}

func TestIsContraction(t *testing.T) {
	n, err := ast.Parse("A[i,j]*B[j,k]")
	assert.NoError(t, err)
	assert.True(t, IsContraction(n))

	n, err = ast.Parse("2*A[i,j]")
	assert.NoError(t, err)
	assert.False(t, IsContraction(n))
}
