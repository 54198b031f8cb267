// Package indexalg implements the pure tuple/index algebra the contraction
// engine is built on: set-difference, unique-keeper, and permutation
// extraction over fixed-length sequences of index labels.
//
// All operations here are total over well-formed input. UniquePairs,
// AddPermutation, TraceLayout and ContractLayout report a violated
// precondition as an errs.InvalidIndices error rather than a panic.
// SetDiff does not check its precondition that b is a sub-multiset of a:
// elements of b with no match in a are ignored.
package indexalg

import (
	"github.com/dkoslov/tensen/errs"
	"golang.org/x/exp/slices"
)

// Label is a symbolic index atom. Prime marks are expected to be folded
// into the textual suffix already (ast.Parse does this for source text),
// so equality here is always plain string/int equality.
type Label struct {
	// Name holds identifier-based labels (including the folded prime
	// suffix). Empty when the label is a small integer.
	Name string
	// Int holds integer-based labels when Name == "".
	Int int
	// IsInt distinguishes the zero value of Int from an unset label.
	IsInt bool
}

// List is a finite ordered sequence of index labels attached to a tensor
// operand (the concatenation of a tensor's left and right lists).
type List []Label

// Equal reports whether two labels denote the same normalized atom.
func (l Label) Equal(o Label) bool {
	if l.IsInt != o.IsInt {
		return false
	}
	if l.IsInt {
		return l.Int == o.Int
	}
	return l.Name == o.Name
}

// NewName builds an identifier-based label with prime marks already folded
// into name (ast.Parse folds primes in raw source text into the name).
func NewName(name string) Label { return Label{Name: name} }

// NewInt builds an integer-based label.
func NewInt(v int) Label { return Label{Int: v, IsInt: true} }

func indexOf(list List, l Label) int {
	for i, e := range list {
		if e.Equal(l) {
			return i
		}
	}
	return -1
}

// SetDiff returns a with the first occurrence of each element of b
// removed, preserving a's order. It assumes b is a sub-multiset of a.
func SetDiff(a, b List) List {
	remaining := slices.Clone(a)
	out := make(List, 0, len(a))
	used := make([]bool, len(remaining))
	for _, bl := range b {
		for i, al := range remaining {
			if used[i] {
				continue
			}
			if al.Equal(bl) {
				used[i] = true
				break
			}
		}
	}
	for i, al := range remaining {
		if !used[i] {
			out = append(out, al)
		}
	}
	return out
}

// UniquePairs assumes every element of src appears exactly twice and
// returns the deduplicated sequence in first-occurrence order. It returns
// errs.InvalidIndices if any label occurs a number of times other than
// exactly two: no index may appear more than twice across a contraction.
func UniquePairs(src List) (List, error) {
	counts := make(map[Label]int, len(src))
	order := make(List, 0, len(src))
	for _, l := range src {
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}
	out := make(List, 0, len(order))
	for _, l := range order {
		if counts[l] != 2 {
			return nil, errs.Newf(errs.InvalidIndices,
				"index %v occurs %d times, expected exactly 2", l, counts[l])
		}
		out = append(out, l)
	}
	return out, nil
}

// AddPermutation returns the permutation pi with ia[pi[k]] == ic[k] for
// all k, assuming ia and ic are equal as multisets and equal in length.
// It is the workhorse behind the add kernel's index permutation check.
func AddPermutation(ia, ic List) ([]int, error) {
	if len(ia) != len(ic) {
		return nil, errs.Newf(errs.InvalidIndices,
			"AddPermutation: length mismatch %d vs %d", len(ia), len(ic))
	}
	used := make([]bool, len(ia))
	perm := make([]int, len(ic))
	for k, target := range ic {
		found := -1
		for i, src := range ia {
			if used[i] {
				continue
			}
			if src.Equal(target) {
				found = i
				used[i] = true
				break
			}
		}
		if found < 0 {
			return nil, errs.Newf(errs.InvalidIndices,
				"AddPermutation: index %v in destination has no matching source index", target)
		}
		perm[k] = found
	}
	return perm, nil
}

// TraceLayout computes the permutation of the free (untraced) indices of A
// relative to C, plus the first/second occurrence positions (within ia) of
// each label that is traced out.
// perm holds, for each axis k of ic, the absolute position in ia of the
// matching free label (i.e. the concatenated left/right selection the
// trace kernel expects), not a position relative to any intermediate
// "free" subsequence.
func TraceLayout(ia, ic List) (perm []int, first []int, second []int, err error) {
	freeL, freePos, err := freeLabelsWithPositions(ia, ic)
	if err != nil {
		return nil, nil, nil, err
	}
	perm = make([]int, len(ic))
	used := make([]bool, len(freeL))
	for k, target := range ic {
		found := -1
		for j, l := range freeL {
			if used[j] {
				continue
			}
			if l.Equal(target) {
				found = j
				used[j] = true
				break
			}
		}
		if found < 0 {
			return nil, nil, nil, errs.Newf(errs.InvalidIndices,
				"destination index %v has no matching free source index", target)
		}
		perm[k] = freePos[found]
	}

	traced := SetDiff(ia, ic)
	pairs, err := UniquePairs(traced)
	if err != nil {
		return nil, nil, nil, err
	}
	first = make([]int, len(pairs))
	second = make([]int, len(pairs))
	for k, label := range pairs {
		positions := positionsOf(ia, label)
		if len(positions) != 2 {
			return nil, nil, nil, errs.Newf(errs.InvalidIndices,
				"traced index %v must occur exactly twice in source, found %d", label, len(positions))
		}
		first[k] = positions[0]
		second[k] = positions[1]
	}
	return perm, first, second, nil
}

// freeLabelsWithPositions extracts, in ia's order, the subsequence of ia
// whose labels each occur exactly once in ia (i.e. are not one of the
// traced pairs) together with their absolute positions in ia, and checks
// that this subsequence has the same length as ic.
func freeLabelsWithPositions(ia, ic List) (labels List, positions []int, err error) {
	counts := make(map[Label]int, len(ia))
	for _, l := range ia {
		counts[l]++
	}
	for i, l := range ia {
		if counts[l] == 1 {
			labels = append(labels, l)
			positions = append(positions, i)
		}
	}
	if len(labels) != len(ic) {
		return nil, nil, errs.Newf(errs.InvalidIndices,
			"free index count %d does not match destination rank %d", len(labels), len(ic))
	}
	return labels, positions, nil
}

func positionsOf(list List, l Label) []int {
	var out []int
	for i, e := range list {
		if e.Equal(l) {
			out = append(out, i)
		}
	}
	return out
}

// ContractLayout computes the open/contracted axis positions of A and B
// and the permutation mapping the concatenation of open labels
// (openA-labels..., openB-labels...) to ic.
func ContractLayout(ia, ib, ic List) (openA, contractedA, openB, contractedB, permC []int, err error) {
	shared := sharedLabels(ia, ib)

	openALabels := make(List, 0, len(ia))
	for i, l := range ia {
		if !labelIn(shared, l) {
			openA = append(openA, i)
			openALabels = append(openALabels, l)
		} else {
			contractedA = append(contractedA, i)
		}
	}
	openBLabels := make(List, 0, len(ib))
	for i, l := range ib {
		if !labelIn(shared, l) {
			openB = append(openB, i)
			openBLabels = append(openBLabels, l)
		} else {
			contractedB = append(contractedB, i)
		}
	}

	if len(contractedA) != len(contractedB) {
		return nil, nil, nil, nil, nil, errs.Newf(errs.InvalidIndices,
			"contracted axis count mismatch: %d in A vs %d in B", len(contractedA), len(contractedB))
	}
	// Order B's contracted axes to line up positionally with A's.
	contractedB = reorderToMatch(ia, ib, contractedA, contractedB)

	combined := append(slices.Clone(openALabels), openBLabels...)
	permC, err = AddPermutation(combined, ic)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return openA, contractedA, openB, contractedB, permC, nil
}

func sharedLabels(ia, ib List) List {
	bCounts := make(map[Label]int, len(ib))
	for _, l := range ib {
		bCounts[l]++
	}
	var shared List
	seen := make(map[Label]bool)
	for _, l := range ia {
		if bCounts[l] > 0 && !seen[l] {
			shared = append(shared, l)
			seen[l] = true
		}
	}
	return shared
}

func labelIn(list List, l Label) bool {
	return indexOf(list, l) >= 0
}

// reorderToMatch permutes contractedB so that contractedB[k] is the
// position in ib of the same label as contractedA[k] in ia.
func reorderToMatch(ia, ib List, contractedA, contractedB []int) []int {
	out := make([]int, len(contractedA))
	usedB := make([]bool, len(contractedB))
	for k, posA := range contractedA {
		label := ia[posA]
		for j, posB := range contractedB {
			if usedB[j] {
				continue
			}
			if ib[posB].Equal(label) {
				out[k] = posB
				usedB[j] = true
				break
			}
		}
	}
	return out
}
