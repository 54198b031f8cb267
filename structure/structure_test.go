package structure

import (
	"testing"

	"github.com/dkoslov/tensen/view"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	a := view.New[float64]([]int{2, 3, 4})
	require.Equal(t, []int{4, 2}, Shape([]int{2, 0}, nil, a))
}

func TestAllocateZeroed(t *testing.T) {
	out := Allocate[float64]([]int{2, 2})
	require.Equal(t, 0.0, out.At(0, 0))
	require.Equal(t, []int{2, 2}, out.Size())
}
