package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleAssignment(t *testing.T) {
	n, err := Parse("C[i,k] := A[i,j] * B[j,k]")
	require.NoError(t, err)
	require.Equal(t, KindDefine, n.Kind)
	require.Len(t, n.Children, 2)

	lhs := n.Children[0]
	require.Equal(t, KindSubscript, lhs.Kind)
	require.Equal(t, "C", lhs.Symbol)
	require.Equal(t, []string{"i", "k"}, lhs.Left().IndexNames())

	rhs := n.Children[1]
	require.Equal(t, KindCall, rhs.Kind)
	require.Equal(t, "*", rhs.Symbol)
	require.Len(t, rhs.Children, 2)

	a := rhs.Children[0]
	require.Equal(t, "A", a.Symbol)
	require.Equal(t, []string{"i", "j"}, a.Left().IndexNames())
}

func TestParseSpaceSeparatedRow(t *testing.T) {
	n, err := Parse("A[i j]")
	require.NoError(t, err)
	require.Equal(t, KindSubscript, n.Kind)
	require.Equal(t, []string{"i", "j"}, n.Left().IndexNames())
}

func TestParseRowMarkerSplit(t *testing.T) {
	n, err := Parse("A[i,j; k,l]")
	require.NoError(t, err)
	require.Equal(t, []string{"i", "j"}, n.Left().IndexNames())
	require.Equal(t, []string{"k", "l"}, n.Right().IndexNames())
}

func TestParseConjAndScalar(t *testing.T) {
	n, err := Parse("C[i] += 2 * conj(A[i])")
	require.NoError(t, err)
	require.Equal(t, KindPlusEq, n.Kind)
	rhs := n.Children[1]
	require.Equal(t, "*", rhs.Symbol)
	require.Equal(t, "conj", rhs.Children[1].Symbol)
}

func TestParseTrace(t *testing.T) {
	n, err := Parse("s = A[i,i]")
	require.NoError(t, err)
	require.Equal(t, KindAssign, n.Kind)
	rhs := n.Children[1]
	require.Equal(t, []string{"i", "i"}, rhs.Left().IndexNames())
}

func TestParsePrimedIndices(t *testing.T) {
	n, err := Parse("A[i']")
	require.NoError(t, err)
	require.Equal(t, []string{"i'"}, n.Left().IndexNames())
}

func TestParseInvalidCharacter(t *testing.T) {
	_, err := Parse("A[i] @ B[j]")
	require.Error(t, err)
}

func TestParseNegativeIntegerIndexLabels(t *testing.T) {
	n, err := Parse("A[-1,2]")
	require.NoError(t, err)
	require.Equal(t, KindSubscript, n.Kind)
	require.Equal(t, []string{"-1", "2"}, n.Left().IndexNames())
}

func TestParseNegativeIntegerIndexLabelsSpaceSeparated(t *testing.T) {
	n, err := Parse("A[-1 -2]")
	require.NoError(t, err)
	require.Equal(t, []string{"-1", "-2"}, n.Left().IndexNames())
}
