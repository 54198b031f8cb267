package compiler

import (
	"testing"

	"github.com/dkoslov/tensen/ast"
	"github.com/dkoslov/tensen/kernel"
	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	n, err := ast.Parse(src)
	assert.NoError(t, err)
	return n
}

func TestInstantiateAdd(t *testing.T) {
	stmt := mustParse(t, "C[i,j] := A[i,j]")
	program, err := Instantiate(stmt)
	assert.NoError(t, err)
	assert.Len(t, program.Steps, 1)

	step := program.Steps[0]
	assert.Equal(t, OpAdd, step.Kind)
	assert.Equal(t, "C", step.Dest)
	assert.Equal(t, "A", step.A)
	assert.True(t, step.IsDefine)
	assert.Equal(t, []int{0, 1}, step.IndCinA)
	assert.Equal(t, kernel.Plain, step.ConjA)
}

func TestInstantiateAddPermutesToDestOrder(t *testing.T) {
	stmt := mustParse(t, "C[i,j] := A[j,i]")
	program, err := Instantiate(stmt)
	assert.NoError(t, err)
	step := program.Steps[0]
	assert.Equal(t, []int{1, 0}, step.IndCinA)
}

func TestInstantiateTrace(t *testing.T) {
	stmt := mustParse(t, "C[i] := A[i,k,k]")
	program, err := Instantiate(stmt)
	assert.NoError(t, err)
	assert.Len(t, program.Steps, 1)

	step := program.Steps[0]
	assert.Equal(t, OpTrace, step.Kind)
	assert.Equal(t, []int{0}, step.Left)
	assert.Equal(t, []int{1}, step.Cind1)
	assert.Equal(t, []int{2}, step.Cind2)
}

func TestInstantiateContraction(t *testing.T) {
	stmt := mustParse(t, "C[i,k] := A[i,j]*B[j,k]")
	program, err := Instantiate(stmt)
	assert.NoError(t, err)
	assert.Len(t, program.Steps, 1)

	step := program.Steps[0]
	assert.Equal(t, OpContract, step.Kind)
	assert.Equal(t, "A", step.A)
	assert.Equal(t, "B", step.B)
	assert.Equal(t, []int{0}, step.OindA)
	assert.Equal(t, []int{1}, step.CindA)
	assert.Equal(t, []int{0}, step.CindB)
	assert.Equal(t, []int{1}, step.OindB)
	assert.Equal(t, []int{0, 1}, step.IndCinoAB)
}

func TestInstantiatePlusEqSetsBeta(t *testing.T) {
	stmt := mustParse(t, "C[i,j] += A[i,j]")
	program, err := Instantiate(stmt)
	assert.NoError(t, err)
	step := program.Steps[0]
	assert.Equal(t, 1, step.Beta)
	assert.False(t, step.IsDefine)
}

func TestInstantiateMinusEqSetsBeta(t *testing.T) {
	stmt := mustParse(t, "C[i,j] -= A[i,j]")
	program, err := Instantiate(stmt)
	assert.NoError(t, err)
	step := program.Steps[0]
	assert.Equal(t, -1, step.Beta)
}

func TestInstantiateConjugatedOperand(t *testing.T) {
	stmt := mustParse(t, "C[i,k] := conj(A[i,j])*B[j,k]")
	program, err := Instantiate(stmt)
	assert.NoError(t, err)
	step := program.Steps[0]
	assert.Equal(t, kernel.Conjugate, step.ConjA)
	assert.Equal(t, kernel.Plain, step.ConjB)
}

func TestInstantiateRejectsScalarDestination(t *testing.T) {
	stmt := mustParse(t, "s := A[i,i]")
	_, err := Instantiate(stmt)
	assert.Error(t, err)
}

func TestInstantiateRejectsRepeatedDestIndex(t *testing.T) {
	stmt := mustParse(t, "C[i,i] := A[i,j]")
	_, err := Instantiate(stmt)
	assert.Error(t, err)
}

// TestInstantiateNestedContractionEmitsTemporary exercises a 3-factor
// chain already binarized by the parser's left fold: D[i,l] :=
// (A[i,j]*B[j,k])*C[k,l]. The middle temporary's free-index names must
// be the real ones (i,k) so the outer contraction can find the shared
// index k against C.
func TestInstantiateNestedContractionEmitsTemporary(t *testing.T) {
	stmt := mustParse(t, "D[i,l] := A[i,j]*B[j,k]*C[k,l]")
	program, err := Instantiate(stmt)
	assert.NoError(t, err)
	assert.Len(t, program.Steps, 2, "one Step for the nested A*B temporary, one for the outer contraction with C")

	inner := program.Steps[0]
	assert.Equal(t, OpContract, inner.Kind)
	assert.Equal(t, "A", inner.A)
	assert.Equal(t, "B", inner.B)
	assert.True(t, inner.IsDefine)

	outer := program.Steps[1]
	assert.Equal(t, OpContract, outer.Kind)
	assert.Equal(t, inner.Dest, outer.A)
	assert.Equal(t, "C", outer.B)
	assert.Equal(t, "D", outer.Dest)
	// the contracted index k: one position open on the temporary's own
	// layout, contracted against C's one open (l) and one contracted (k).
	assert.Len(t, outer.CindA, 1)
	assert.Len(t, outer.CindB, 1)
}
