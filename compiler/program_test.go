package compiler

import (
	"testing"

	"github.com/dkoslov/tensen/view"
	"github.com/stretchr/testify/assert"
)

func TestCompileAndEvalCopy(t *testing.T) {
	program, err := Compile("C[i,j] := A[i,j]")
	assert.NoError(t, err)

	env := map[string]*view.View[float64]{
		"A": view.NewFromData([]float64{1, 2, 3, 4, 5, 6}, []int{2, 3}),
	}
	assert.NoError(t, Eval(program, env, map[string]float64{}))

	c := env["C"]
	assert.Equal(t, []int{2, 3}, c.Size())
	assert.Equal(t, 1.0, c.At(0, 0))
	assert.Equal(t, 6.0, c.At(1, 2))
}

func TestCompileAndEvalTranspose(t *testing.T) {
	program, err := Compile("C[j,i] := A[i,j]")
	assert.NoError(t, err)

	env := map[string]*view.View[float64]{
		"A": view.NewFromData([]float64{1, 2, 3, 4, 5, 6}, []int{2, 3}),
	}
	assert.NoError(t, Eval(program, env, map[string]float64{}))

	c := env["C"]
	assert.Equal(t, []int{3, 2}, c.Size())
	assert.Equal(t, 2.0, c.At(1, 0))
	assert.Equal(t, 4.0, c.At(0, 1))
}

func TestCompileAndEvalMatrixTrace(t *testing.T) {
	program, err := Compile("C[i] := A[i,k,k]")
	assert.NoError(t, err)

	// A is 2x2x2; trace over the last two axes of each row i.
	a := view.NewFromData([]float64{
		1, 2,
		3, 4,

		5, 6,
		7, 8,
	}, []int{2, 2, 2})
	env := map[string]*view.View[float64]{"A": a}
	assert.NoError(t, Eval(program, env, map[string]float64{}))

	c := env["C"]
	assert.Equal(t, []int{2}, c.Size())
	assert.Equal(t, 5.0, c.At(0)) // 1 + 4
	assert.Equal(t, 13.0, c.At(1)) // 5 + 8
}

func TestCompileAndEvalMatMul(t *testing.T) {
	program, err := Compile("C[i,k] := A[i,j]*B[j,k]")
	assert.NoError(t, err)

	a := view.NewFromData([]float64{1, 2, 3, 4}, []int{2, 2}) // [[1,2],[3,4]]
	b := view.NewFromData([]float64{5, 6, 7, 8}, []int{2, 2}) // [[5,6],[7,8]]
	env := map[string]*view.View[float64]{"A": a, "B": b}
	assert.NoError(t, Eval(program, env, map[string]float64{}))

	c := env["C"]
	// [[1,2],[3,4]] x [[5,6],[7,8]] = [[19,22],[43,50]]
	assert.Equal(t, 19.0, c.At(0, 0))
	assert.Equal(t, 22.0, c.At(0, 1))
	assert.Equal(t, 43.0, c.At(1, 0))
	assert.Equal(t, 50.0, c.At(1, 1))
}

func TestCompileAndEvalPlusEqAccumulates(t *testing.T) {
	program, err := Compile("C[i,j] := A[i,j]; C[i,j] += A[i,j]")
	assert.NoError(t, err)

	a := view.NewFromData([]float64{1, 2, 3, 4}, []int{2, 2})
	env := map[string]*view.View[float64]{"A": a}
	assert.NoError(t, Eval(program, env, map[string]float64{}))

	c := env["C"]
	assert.Equal(t, 2.0, c.At(0, 0))
	assert.Equal(t, 8.0, c.At(1, 1))
}

func TestCompileAndEvalScaledByNamedScalar(t *testing.T) {
	program, err := Compile("C[i,j] := alpha*A[i,j]")
	assert.NoError(t, err)

	a := view.NewFromData([]float64{1, 2, 3, 4}, []int{2, 2})
	env := map[string]*view.View[float64]{"A": a}
	assert.NoError(t, Eval(program, env, map[string]float64{"alpha": 2}))

	c := env["C"]
	assert.Equal(t, 2.0, c.At(0, 0))
	assert.Equal(t, 8.0, c.At(1, 1))
}

func TestCompileAndEvalThreeFactorChain(t *testing.T) {
	program, err := Compile("D[i,l] := A[i,j]*B[j,k]*C[k,l]")
	assert.NoError(t, err)
	assert.Len(t, program.Steps, 2)

	identity := view.NewFromData([]float64{1, 0, 0, 1}, []int{2, 2})
	env := map[string]*view.View[float64]{
		"A": view.NewFromData([]float64{1, 2, 3, 4}, []int{2, 2}),
		"B": identity,
		"C": identity,
	}
	assert.NoError(t, Eval(program, env, map[string]float64{}))

	d := env["D"]
	assert.Equal(t, 1.0, d.At(0, 0))
	assert.Equal(t, 2.0, d.At(0, 1))
	assert.Equal(t, 3.0, d.At(1, 0))
	assert.Equal(t, 4.0, d.At(1, 1))
}

func TestCompileAndEvalPositionalConventionChain(t *testing.T) {
	// ncon-style positional labels: -1/-2 are free (output) indices, 1/2
	// are contracted. This exercises BuildTree's PositionalBuilder path
	// through the real parser rather than calling it directly.
	program, err := Compile("D[-1,-2] := A[-1,1]*B[1,2]*C[2,-2]")
	assert.NoError(t, err)
	assert.Len(t, program.Steps, 2)

	identity := view.NewFromData([]float64{1, 0, 0, 1}, []int{2, 2})
	env := map[string]*view.View[float64]{
		"A": view.NewFromData([]float64{1, 2, 3, 4}, []int{2, 2}),
		"B": identity,
		"C": identity,
	}
	assert.NoError(t, Eval(program, env, map[string]float64{}))

	d := env["D"]
	assert.Equal(t, 1.0, d.At(0, 0))
	assert.Equal(t, 2.0, d.At(0, 1))
	assert.Equal(t, 3.0, d.At(1, 0))
	assert.Equal(t, 4.0, d.At(1, 1))
}

func TestEvalUndefinedOperandErrors(t *testing.T) {
	program, err := Compile("C[i,j] := A[i,j]")
	assert.NoError(t, err)
	err = Eval(program, map[string]*view.View[float64]{}, map[string]float64{})
	assert.Error(t, err)
}
