// Package compiler implements the index-notation front end: classifying
// and decomposing parsed expressions, preprocessing them, building and
// sorting a contraction tree, and instantiating kernel calls into a
// runnable Program.
package compiler

import "github.com/dkoslov/tensen/ast"

// IsIndex reports whether n is a plain name, a small integer, or a
// primed form of one of those.
func IsIndex(n *ast.Node) bool {
	if n == nil {
		return false
	}
	return n.Kind == ast.KindSymbol || n.Kind == ast.KindLiteral
}

// IsTensor reports whether n is a subscripted form obj[...], any of the
// three bracket syntaxes already normalized into a KindSubscript node by
// ast.Parse.
func IsTensor(n *ast.Node) bool {
	return n != nil && n.Kind == ast.KindSubscript
}

// IsGeneralTensor reports whether n is a tensor, a unary +/- of one, a
// conj/adjoint/transpose of one, or a product/quotient of one with
// scalars only. The AST has no prime-of-tensor form.
func IsGeneralTensor(n *ast.Node) bool {
	if IsTensor(n) {
		return true
	}
	if n == nil || n.Kind != ast.KindCall {
		return false
	}
	switch n.Symbol {
	case "-", "+":
		return len(n.Children) == 1 && IsGeneralTensor(n.Children[0])
	case "conj", "adjoint", "transpose":
		return len(n.Children) == 1 && IsGeneralTensor(n.Children[0])
	case "*", "/":
		tensorCount := 0
		for _, c := range n.Children {
			if IsGeneralTensor(c) {
				tensorCount++
			} else if !IsScalarExpr(c) {
				return false
			}
		}
		return tensorCount == 1
	default:
		return false
	}
}

// IsScalarExpr reports whether n is a numeric literal, a plain name, or
// a call none of whose leaves is a subscripted form (an explicit
// scalar(...) wrapper escapes a tensor expression into a scalar one).
func IsScalarExpr(n *ast.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case ast.KindLiteral, ast.KindSymbol:
		return true
	case ast.KindCall:
		if n.Symbol == "scalar" {
			return len(n.Children) == 1
		}
		for _, c := range n.Children {
			if !IsScalarExpr(c) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsTensorExpr reports whether n is a general-tensor, a sum/difference of
// tensor expressions, a product containing >= 1 tensor-expr factor and
// any number of scalar factors, a scalar-divided tensor expression, or a
// conjugate/adjoint of one.
func IsTensorExpr(n *ast.Node) bool {
	if IsGeneralTensor(n) {
		return true
	}
	if n == nil || n.Kind != ast.KindCall {
		return false
	}
	switch n.Symbol {
	case "+", "-":
		if len(n.Children) == 2 {
			return IsTensorExpr(n.Children[0]) && IsTensorExpr(n.Children[1])
		}
		return len(n.Children) == 1 && IsTensorExpr(n.Children[0])
	case "*":
		hasTensor := false
		for _, c := range n.Children {
			if IsTensorExpr(c) {
				hasTensor = true
			} else if !IsScalarExpr(c) {
				return false
			}
		}
		return hasTensor
	case "/":
		return len(n.Children) == 2 && IsTensorExpr(n.Children[0]) && IsScalarExpr(n.Children[1])
	case "conj", "adjoint", "transpose":
		return len(n.Children) == 1 && IsTensorExpr(n.Children[0])
	default:
		return false
	}
}

// IsContraction reports whether n is a product with >= 2 tensor-expr
// factors.
func IsContraction(n *ast.Node) bool {
	if n == nil || n.Kind != ast.KindCall || n.Symbol != "*" {
		return false
	}
	count := 0
	for _, c := range n.Children {
		if IsTensorExpr(c) {
			count++
		}
	}
	return count >= 2
}
