package compiler

import (
	"github.com/dkoslov/tensen/ast"
	"github.com/dkoslov/tensen/errs"
)

// Flatten hoists nested block expressions so every assignment/definition
// statement a node contains appears at the top level of the returned
// list, in textual order. ast.Parse itself only ever nests one level (the
// top-level Block it wraps multiple ';'-separated statements in, never a
// Block nested inside another), but Flatten recurses so any deeper
// nesting a future preprocessing pass introduces is still handled
// uniformly rather than silently dropped.
func Flatten(n *ast.Node) []*ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind != ast.KindBlock {
		return []*ast.Node{n}
	}
	var out []*ast.Node
	for _, c := range n.Children {
		out = append(out, Flatten(c)...)
	}
	return out
}

// RemoveLineNodes strips debug-position annotations from n. ast.Node
// carries no position/line field at all (there is no source-map use case
// here: errors already report the offending token text rather than a
// line/column), so there is nothing to strip and this pass is a
// structural no-op. It is still run as an explicit step so the
// postprocessing pipeline's shape doesn't silently assume away a concern
// a source language with debug-position nodes would need handled.
func RemoveLineNodes(n *ast.Node) *ast.Node {
	return n
}

// primitiveName resolves a Step's discrete kernel dispatch to its
// library-namespace primitive name.
var primitiveName = map[OpKind]string{
	OpAdd:      "add",
	OpTrace:    "trace",
	OpContract: "contract",
}

// AddTensorOperations resolves every Step's OpKind to its library-
// namespace kernel primitive, erroring if a Step carries a Kind with no
// corresponding entry point. The other primitive names the original
// seven-primitive namespace names are already resolved elsewhere rather
// than needing a rewrite here:
// similar_from_indices/cached_similar_from_indices correspond to
// Step.IsDefine (structure.Allocate for a plain definition; kernel's own
// SiteTags/tempcache machinery for the cached A'/B'/C' temporaries a
// Contract allocates internally), scalar(...) resolves through
// evalScalar, and IndexError resolves to errs.InvalidIndices/
// errs.UnknownFlag. AddTensorOperations is the validating pass that
// closes the loop: a Step whose Kind isn't in this table has nothing to
// dispatch to at Eval time, and is rejected here instead of failing late.
func AddTensorOperations(p *Program) (*Program, error) {
	for _, step := range p.Steps {
		if _, ok := primitiveName[step.Kind]; !ok {
			return nil, errs.Newf(errs.UnknownFlag, "AddTensorOperations: step has no resolvable kernel primitive for kind %v", step.Kind)
		}
	}
	return p, nil
}
