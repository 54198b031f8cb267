package compiler

import (
	"github.com/dkoslov/tensen/ast"
	"github.com/dkoslov/tensen/errs"
)

// DecomposeTensor splits a subscripted form per its bracket shape into
// its object name and left/right index-name lists.
func DecomposeTensor(n *ast.Node) (obj string, left, right []string, err error) {
	if !IsTensor(n) {
		return "", nil, nil, errs.New(errs.InvalidExpression, "DecomposeTensor: node is not a tensor")
	}
	return n.Symbol, n.Left().IndexNames(), n.Right().IndexNames(), nil
}

// DecomposeGeneralTensor walks unary plus/minus, conj, and scalar
// multiplications/divisions (the AST has no prime-of-tensor form; primes
// on index names are folded by ast.Parse), accumulating a scalar factor expression and
// a conjugation flag, down to the underlying tensor's object/left/right
// index lists. It raises InvalidExpression if the node is not a general
// tensor.
//
// Per DESIGN.md Open Question #1, adjoint/transpose are not accepted as
// scalar-factor prefixes here (only conj and unary minus are): either
// wraps a tensor with InvalidExpression, preserving the narrower source
// behavior instead of silently treating them as conj.
func DecomposeGeneralTensor(n *ast.Node) (obj string, left, right []string, alpha *ast.Node, conj bool, err error) {
	if !IsGeneralTensor(n) {
		return "", nil, nil, nil, false, errs.New(errs.InvalidExpression, "DecomposeGeneralTensor: node is not a general tensor")
	}
	alpha = ast.Lit(1)
	cur := n
	for {
		if IsTensor(cur) {
			obj, left, right, err = DecomposeTensor(cur)
			return obj, left, right, alpha, conj, err
		}
		if cur.Kind != ast.KindCall {
			return "", nil, nil, nil, false, errs.New(errs.InvalidExpression, "DecomposeGeneralTensor: unrecognized node")
		}
		switch cur.Symbol {
		case "+":
			cur = cur.Children[0]
		case "-":
			alpha = ast.Call("-", alpha)
			cur = cur.Children[0]
		case "conj":
			conj = !conj
			cur = cur.Children[0]
		case "adjoint", "transpose":
			return "", nil, nil, nil, false, errs.New(errs.InvalidExpression,
				"DecomposeGeneralTensor: "+cur.Symbol+"(...) is not accepted as a scalar-factor prefix")
		case "*", "/":
			tIdx := -1
			for i, c := range cur.Children {
				if IsGeneralTensor(c) {
					tIdx = i
				} else {
					alpha = ast.Call(cur.Symbol, alpha, c)
				}
			}
			if tIdx < 0 {
				return "", nil, nil, nil, false, errs.New(errs.InvalidExpression, "DecomposeGeneralTensor: no tensor factor found")
			}
			cur = cur.Children[tIdx]
		default:
			return "", nil, nil, nil, false, errs.New(errs.InvalidExpression, "DecomposeGeneralTensor: unrecognized operator "+cur.Symbol)
		}
	}
}
