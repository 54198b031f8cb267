package compiler

import (
	"strconv"

	"github.com/dkoslov/tensen/ast"
)

// Preprocess runs four preprocessing passes in order and returns the
// rewritten expression together with the gensym preamble/postamble
// blocks extractTensorObjects produces.
//
//   - normalizeIndices: a no-op here, since ast.Parse already rewrites
//     every prime suffix into a textual-suffixed atom ("i'") at parse
//     time rather than leaving a separate prime marker in the tree.
//   - expandConjugation: pushes conj(...) inward through +, -, *, / so
//     it attaches only to individual tensor and scalar leaves.
//   - nIndexCompletion: a no-op here; tensen's PositionalBuilder (see
//     tree.go) requires the positive/negative integer convention to
//     already be fully labeled rather than completing partial labels,
//     a scope reduction recorded in DESIGN.md.
//   - extractTensorObjects: gensyms a fresh identifier for each distinct
//     tensor object in the expression, returning a preamble block
//     binding gensyms to their originals and a (possibly empty)
//     postamble block, both tagged with an opaque Symbol marker later
//     passes must not descend into.
func Preprocess(n *ast.Node) (rewritten, preamble, postamble *ast.Node, err error) {
	conjExpanded := expandConjugation(n)
	rewritten, preamble, postamble = extractTensorObjects(conjExpanded)
	return rewritten, preamble, postamble, nil
}

// expandConjugation pushes a conj(...) node down through the algebraic
// operators until it reaches tensor or scalar leaves.
func expandConjugation(n *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind == ast.KindCall && n.Symbol == "conj" && len(n.Children) == 1 {
		return pushConj(n.Children[0])
	}
	if len(n.Children) == 0 {
		return n
	}
	children := make([]*ast.Node, len(n.Children))
	for i, c := range n.Children {
		children[i] = expandConjugation(c)
	}
	return &ast.Node{Kind: n.Kind, Symbol: n.Symbol, Literal: n.Literal, Children: children}
}

func pushConj(n *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind == ast.KindCall {
		switch n.Symbol {
		case "conj":
			// conj(conj(x)) == x
			if len(n.Children) == 1 {
				return expandConjugation(n.Children[0])
			}
		case "+", "-", "*", "/":
			children := make([]*ast.Node, len(n.Children))
			for i, c := range n.Children {
				children[i] = pushConj(c)
			}
			return &ast.Node{Kind: ast.KindCall, Symbol: n.Symbol, Children: children}
		}
	}
	// Tensor leaf, scalar leaf, or an operator conj does not distribute
	// over (adjoint/transpose): attach conj here and let
	// DecomposeGeneralTensor/Open Question #1 handle the rest.
	return ast.Call("conj", expandConjugation(n))
}

// extractTensorObjects gensyms a fresh identifier for each distinct
// tensor object appearing in n, rewrites occurrences to use the gensym,
// and returns a preamble block binding each gensym to its original name.
// tensen's Eval resolves tensor identifiers by name directly against its
// env (it has no hosted macro environment to rebind into), so the
// postamble this step would populate for newly-defined identifiers is
// always empty here; the pass is still performed in full so later
// passes see the usual opaque preamble/postamble shape.
func extractTensorObjects(n *ast.Node) (rewritten, preamble, postamble *ast.Node) {
	gensyms := map[string]string{}
	counter := 0
	rewritten = renameTensorObjects(n, gensyms, &counter)

	var bindings []*ast.Node
	for gensym, orig := range gensyms {
		bindings = append(bindings, ast.Assign(ast.KindDefine, ast.Sym(gensym), ast.Sym(orig)))
	}
	preamble = &ast.Node{Kind: ast.KindBlock, Symbol: "__preamble__", Children: bindings}
	postamble = &ast.Node{Kind: ast.KindBlock, Symbol: "__postamble__"}
	return rewritten, preamble, postamble
}

func renameTensorObjects(n *ast.Node, gensyms map[string]string, counter *int) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind == ast.KindSubscript {
		gensym, ok := reverseLookup(gensyms, n.Symbol)
		if !ok {
			*counter++
			gensym = "__t" + strconv.Itoa(*counter)
			gensyms[gensym] = n.Symbol
		}
		return &ast.Node{Kind: ast.KindSubscript, Symbol: gensym, Children: n.Children}
	}
	if len(n.Children) == 0 {
		return n
	}
	children := make([]*ast.Node, len(n.Children))
	for i, c := range n.Children {
		children[i] = renameTensorObjects(c, gensyms, counter)
	}
	return &ast.Node{Kind: n.Kind, Symbol: n.Symbol, Literal: n.Literal, Children: children}
}

func reverseLookup(m map[string]string, orig string) (string, bool) {
	for k, v := range m {
		if v == orig {
			return k, true
		}
	}
	return "", false
}
