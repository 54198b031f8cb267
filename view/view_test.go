package view

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPermuteDimsRoundTrip(t *testing.T) {
	// A of shape (2,3,4)
	a := New[float64]([]int{2, 3, 4})
	n := 0
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				a.Set(float64(n), i, j, k)
				n++
			}
		}
	}
	perm := []int{2, 0, 1}
	b := a.PermuteDims(perm)
	require.Equal(t, []int{4, 2, 3}, b.Size())
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				require.Equal(t, a.At(i, j, k), b.At(k, i, j))
			}
		}
	}
}

func TestSReshapeContiguous(t *testing.T) {
	a := New[float64]([]int{2, 3})
	for i := 0; i < 6; i++ {
		a.data[i] = float64(i)
	}
	b, ok := a.SReshape([]int{6})
	require.True(t, ok)
	for i := 0; i < 6; i++ {
		require.Equal(t, float64(i), b.At(i))
	}
}

func TestSReshapeNonFusableFails(t *testing.T) {
	a := New[float64]([]int{2, 3})
	transposed := a.PermuteDims([]int{1, 0})
	_, ok := transposed.SReshape([]int{6})
	require.False(t, ok)
}

func TestConjInvolution(t *testing.T) {
	a := New[complex128]([]int{2})
	a.Set(complex(1, 2), 0)
	c := a.Conj()
	require.Equal(t, complex(1, -2), c.At(0))
	cc := c.Conj()
	require.Equal(t, complex(1, 2), cc.At(0))
}

func TestMapReduceDimSum(t *testing.T) {
	// out[i] = sum_j a[i,j]
	a := New[float64]([]int{2, 3})
	vals := []float64{1, 2, 3, 4, 5, 6}
	for i, v := range vals {
		a.data[i] = v
	}
	out := New[float64]([]int{2})
	MapReduceDim(
		func(acc float64, srcs ...float64) float64 { return acc + srcs[0] },
		func(float64) float64 { return 0 },
		[]int{2, 3},
		out,
		a,
	)
	require.Equal(t, float64(6), out.At(0))
	require.Equal(t, float64(15), out.At(1))
}
