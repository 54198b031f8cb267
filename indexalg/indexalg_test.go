package indexalg

import (
	"testing"

	"github.com/dkoslov/tensen/errs"
	"github.com/stretchr/testify/require"
)

func names(ss ...string) List {
	out := make(List, len(ss))
	for i, s := range ss {
		out[i] = NewName(s)
	}
	return out
}

func TestSetDiff(t *testing.T) {
	a := names("i", "j", "k", "j")
	b := names("j", "j")
	require.Equal(t, names("i", "k"), SetDiff(a, b))
}

func TestUniquePairs(t *testing.T) {
	src := names("a", "b", "a", "b")
	got, err := UniquePairs(src)
	require.NoError(t, err)
	require.Equal(t, names("a", "b"), got)

	_, err = UniquePairs(names("a", "a", "a"))
	require.ErrorIs(t, err, errs.InvalidIndices)
}

func TestAddPermutation(t *testing.T) {
	ia := names("a", "b", "c")
	ic := names("c", "a", "b")
	perm, err := AddPermutation(ia, ic)
	require.NoError(t, err)
	require.Equal(t, []int{2, 0, 1}, perm)
	for k, p := range perm {
		require.True(t, ia[p].Equal(ic[k]))
	}
}

func TestTraceLayout(t *testing.T) {
	// A has shape (2,3,2) with indices (i,j,i); tracing i gives C indexed by j.
	ia := names("i", "j", "i")
	ic := names("j")
	perm, first, second, err := TraceLayout(ia, ic)
	require.NoError(t, err)
	require.Equal(t, []int{1}, perm)
	require.Equal(t, []int{0}, first)
	require.Equal(t, []int{2}, second)
}

func TestContractLayout(t *testing.T) {
	ia := names("i", "j")
	ib := names("j", "l")
	ic := names("i", "l")
	openA, cA, openB, cB, permC, err := ContractLayout(ia, ib, ic)
	require.NoError(t, err)
	require.Equal(t, []int{0}, openA)
	require.Equal(t, []int{1}, cA)
	require.Equal(t, []int{1}, openB)
	require.Equal(t, []int{0}, cB)
	require.Equal(t, []int{0, 1}, permC)
}
