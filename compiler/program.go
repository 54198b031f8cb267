package compiler

import (
	"github.com/dkoslov/tensen/ast"
	"github.com/dkoslov/tensen/errs"
	"github.com/dkoslov/tensen/kernel"
	"github.com/dkoslov/tensen/structure"
	"github.com/dkoslov/tensen/view"
	"github.com/rs/zerolog/log"
)

// Program is a compiled sequence of kernel-call Steps, the result of
// running Compile over index-notation source text.
type Program struct {
	Steps []*Step
}

// Compile parses src, runs it through the preprocessing, tree-building
// and instantiation passes, and returns the resulting Program. Multiple
// statements (separated by ';' or newlines,
// already split into a KindBlock by ast.Parse) each contribute their own
// Steps in textual order.
func Compile(src string) (*Program, error) {
	root, err := ast.Parse(src)
	if err != nil {
		return nil, err
	}
	stmts := Flatten(root)

	var steps []*Step
	for _, stmt := range stmts {
		stepsForStmt, err := compileStatement(stmt)
		if err != nil {
			return nil, err
		}
		steps = append(steps, stepsForStmt...)
	}
	program, err := AddTensorOperations(&Program{Steps: steps})
	if err != nil {
		return nil, err
	}
	return program, nil
}

func compileStatement(stmt *ast.Node) ([]*Step, error) {
	stmt = RemoveLineNodes(stmt)
	rewritten, preamble, postamble, err := Preprocess(stmt)
	if err != nil {
		return nil, err
	}
	// The postamble is always empty for a single-statement pipeline (see
	// preprocess.go); restoreOriginalNames plays its usual role instead,
	// undoing the preamble's gensym rebinding before codegen so a
	// destination's Dest name is exactly what the caller's env expects.
	restored := restoreOriginalNames(rewritten, preamble)
	log.Debug().Int("gensyms", len(preamble.Children)).Msg("compiler.Compile: preprocessed statement")
	_ = postamble

	if err := binarizeContractions(restored); err != nil {
		return nil, err
	}

	program, err := Instantiate(restored)
	if err != nil {
		return nil, err
	}
	return program.Steps, nil
}

// restoreOriginalNames undoes extractTensorObjects's gensym rename using
// the preamble's gensym->original bindings.
func restoreOriginalNames(n, preamble *ast.Node) *ast.Node {
	names := map[string]string{}
	for _, b := range preamble.Children {
		names[b.Children[0].Symbol] = b.Children[1].Symbol
	}
	return substituteNames(n, names)
}

func substituteNames(n *ast.Node, names map[string]string) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind == ast.KindSubscript {
		symbol := n.Symbol
		if orig, ok := names[symbol]; ok {
			symbol = orig
		}
		return &ast.Node{Kind: ast.KindSubscript, Symbol: symbol, Children: n.Children}
	}
	if len(n.Children) == 0 {
		return n
	}
	children := make([]*ast.Node, len(n.Children))
	for i, c := range n.Children {
		children[i] = substituteNames(c, names)
	}
	return &ast.Node{Kind: n.Kind, Symbol: n.Symbol, Literal: n.Literal, Children: children}
}

// binarizeContractions rewrites stmt's right-hand side in place when it
// is a product of three or more plain general-tensor factors, replacing
// the parser's implicit left-fold with the tree BuildTree/Sort would
// choose (the positional-integer convention's pairing order when every
// index label is an integer, left-fold otherwise). Mixed products
// (a tensor-expr factor that is itself a nested contraction, or carrying
// a scalar division) are left as the parser produced them; Instantiate's
// own recursive factor decomposition handles those directly.
func binarizeContractions(stmt *ast.Node) error {
	rhs := stmt.Children[1]
	if !IsContraction(rhs) {
		return nil
	}
	factors := flattenProduct(rhs)
	if len(factors) < 3 {
		return nil
	}
	freeIndexLists := make([][]string, len(factors))
	for i, f := range factors {
		if !IsGeneralTensor(f) {
			return nil // mixed product: leave to Instantiate's recursion
		}
		_, left, right, _, _, err := DecomposeGeneralTensor(f)
		if err != nil {
			return nil
		}
		freeIndexLists[i] = append(append([]string{}, left...), right...)
	}
	tree, err := BuildTree(freeIndexLists)
	if err != nil {
		return err
	}
	sorted, err := Sort(tree, factors)
	if err != nil {
		return err
	}
	stmt.Children[1] = sorted
	return nil
}

func flattenProduct(n *ast.Node) []*ast.Node {
	if n.Kind == ast.KindCall && n.Symbol == "*" && len(n.Children) == 2 {
		return append(flattenProduct(n.Children[0]), flattenProduct(n.Children[1])...)
	}
	return []*ast.Node{n}
}

// Eval runs p's Steps against env, which maps tensor identifiers (as
// written in the compiled source, after gensym restoration) to their
// concrete views, and scalars, which maps named scalar identifiers
// appearing in an α expression to their values. Eval is a package-level
// generic function rather than a method on Program because Go does not
// allow a generic method on a non-generic receiver type (see DESIGN.md).
func Eval[T view.Numeric](p *Program, env map[string]*view.View[T], scalars map[string]T) error {
	for _, step := range p.Steps {
		if err := evalStep(step, env, scalars); err != nil {
			return err
		}
	}
	return nil
}

func evalStep[T view.Numeric](step *Step, env map[string]*view.View[T], scalars map[string]T) error {
	alpha, err := evalScalar(step.Alpha, scalars)
	if err != nil {
		return err
	}
	beta := betaValue[T](step.Beta)

	switch step.Kind {
	case OpAdd:
		a, err := lookup(env, step.A)
		if err != nil {
			return err
		}
		if step.IsDefine {
			env[step.Dest] = structure.Allocate[T](structure.Shape(step.IndCinA, nil, a))
		}
		c, err := lookup(env, step.Dest)
		if err != nil {
			return err
		}
		return kernel.Add(alpha, a, step.ConjA, beta, c, step.IndCinA)

	case OpTrace:
		a, err := lookup(env, step.A)
		if err != nil {
			return err
		}
		if step.IsDefine {
			env[step.Dest] = structure.Allocate[T](structure.Shape(step.Left, step.Right, a))
		}
		c, err := lookup(env, step.Dest)
		if err != nil {
			return err
		}
		return kernel.Trace(alpha, a, step.ConjA, beta, c, step.Left, step.Right, step.Cind1, step.Cind2)

	case OpContract:
		a, err := lookup(env, step.A)
		if err != nil {
			return err
		}
		b, err := lookup(env, step.B)
		if err != nil {
			return err
		}
		if step.IsDefine {
			env[step.Dest] = structure.Allocate[T](structure.ShapeFromPair(step.OindA, step.OindB, step.IndCinoAB, nil, a, b))
		}
		c, err := lookup(env, step.Dest)
		if err != nil {
			return err
		}
		return kernel.Contract(alpha, a, step.ConjA, b, step.ConjB, beta, c,
			step.OindA, step.CindA, step.OindB, step.CindB, step.IndCinoAB)

	default:
		return errs.Newf(errs.UnknownFlag, "Eval: unrecognized op kind %v", step.Kind)
	}
}

func lookup[T view.Numeric](env map[string]*view.View[T], name string) (*view.View[T], error) {
	v, ok := env[name]
	if !ok {
		return nil, errs.New(errs.InvalidExpression, "Eval: undefined tensor "+name)
	}
	return v, nil
}

func betaValue[T view.Numeric](beta int) T {
	switch beta {
	case 1:
		return oneValue[T]()
	case -1:
		return negate(oneValue[T]())
	default:
		return zeroValue[T]()
	}
}

func zeroValue[T view.Numeric]() T {
	var z T
	return z
}

func oneValue[T view.Numeric]() T {
	var z T
	switch any(z).(type) {
	case complex64:
		return any(complex64(1)).(T)
	case complex128:
		return any(complex128(1)).(T)
	case float32:
		return any(float32(1)).(T)
	case float64:
		return any(float64(1)).(T)
	case int64:
		return any(int64(1)).(T)
	case int32:
		return any(int32(1)).(T)
	default:
		panic("compiler: unsupported element type")
	}
}

func negate[T view.Numeric](x T) T {
	switch v := any(x).(type) {
	case complex64:
		return any(-v).(T)
	case complex128:
		return any(-v).(T)
	case float32:
		return any(-v).(T)
	case float64:
		return any(-v).(T)
	case int64:
		return any(-v).(T)
	case int32:
		return any(-v).(T)
	default:
		panic("compiler: unsupported element type")
	}
}

func addValue[T view.Numeric](a, b T) T {
	switch av := any(a).(type) {
	case complex64:
		return any(av + any(b).(complex64)).(T)
	case complex128:
		return any(av + any(b).(complex128)).(T)
	case float32:
		return any(av + any(b).(float32)).(T)
	case float64:
		return any(av + any(b).(float64)).(T)
	case int64:
		return any(av + any(b).(int64)).(T)
	case int32:
		return any(av + any(b).(int32)).(T)
	default:
		panic("compiler: unsupported element type")
	}
}

func mulValue[T view.Numeric](a, b T) T {
	switch av := any(a).(type) {
	case complex64:
		return any(av * any(b).(complex64)).(T)
	case complex128:
		return any(av * any(b).(complex128)).(T)
	case float32:
		return any(av * any(b).(float32)).(T)
	case float64:
		return any(av * any(b).(float64)).(T)
	case int64:
		return any(av * any(b).(int64)).(T)
	case int32:
		return any(av * any(b).(int32)).(T)
	default:
		panic("compiler: unsupported element type")
	}
}

func divValue[T view.Numeric](a, b T) T {
	switch av := any(a).(type) {
	case complex64:
		return any(av / any(b).(complex64)).(T)
	case complex128:
		return any(av / any(b).(complex128)).(T)
	case float32:
		return any(av / any(b).(float32)).(T)
	case float64:
		return any(av / any(b).(float64)).(T)
	case int64:
		return any(av / any(b).(int64)).(T)
	case int32:
		return any(av / any(b).(int32)).(T)
	default:
		panic("compiler: unsupported element type")
	}
}

func fromLiteral[T view.Numeric](lit interface{}) (T, error) {
	var zero T
	switch v := lit.(type) {
	case int:
		return fromFloat64[T](float64(v)), nil
	case float64:
		return fromFloat64[T](v), nil
	default:
		return zero, errs.New(errs.InvalidExpression, "fromLiteral: unsupported literal value")
	}
}

func fromFloat64[T view.Numeric](f float64) T {
	var zero T
	switch any(zero).(type) {
	case complex64:
		return any(complex64(complex(f, 0))).(T)
	case complex128:
		return any(complex(f, 0)).(T)
	case float32:
		return any(float32(f)).(T)
	case float64:
		return any(f).(T)
	case int64:
		return any(int64(f)).(T)
	case int32:
		return any(int32(f)).(T)
	default:
		panic("compiler: unsupported element type")
	}
}

// evalScalar evaluates an α-factor expression (literals, named scalars,
// unary minus, and binary +,-,*,/ of those) to a concrete T.
func evalScalar[T view.Numeric](n *ast.Node, scalars map[string]T) (T, error) {
	var zero T
	if n == nil {
		return oneValue[T](), nil
	}
	switch n.Kind {
	case ast.KindLiteral:
		return fromLiteral[T](n.Literal)
	case ast.KindSymbol:
		v, ok := scalars[n.Symbol]
		if !ok {
			return zero, errs.New(errs.InvalidExpression, "evalScalar: undefined scalar "+n.Symbol)
		}
		return v, nil
	case ast.KindCall:
		switch n.Symbol {
		case "-":
			if len(n.Children) == 1 {
				x, err := evalScalar[T](n.Children[0], scalars)
				if err != nil {
					return zero, err
				}
				return negate(x), nil
			}
			a, err := evalScalar[T](n.Children[0], scalars)
			if err != nil {
				return zero, err
			}
			b, err := evalScalar[T](n.Children[1], scalars)
			if err != nil {
				return zero, err
			}
			return addValue(a, negate(b)), nil
		case "+":
			a, err := evalScalar[T](n.Children[0], scalars)
			if err != nil {
				return zero, err
			}
			b, err := evalScalar[T](n.Children[1], scalars)
			if err != nil {
				return zero, err
			}
			return addValue(a, b), nil
		case "*":
			a, err := evalScalar[T](n.Children[0], scalars)
			if err != nil {
				return zero, err
			}
			b, err := evalScalar[T](n.Children[1], scalars)
			if err != nil {
				return zero, err
			}
			return mulValue(a, b), nil
		case "/":
			a, err := evalScalar[T](n.Children[0], scalars)
			if err != nil {
				return zero, err
			}
			b, err := evalScalar[T](n.Children[1], scalars)
			if err != nil {
				return zero, err
			}
			return divValue(a, b), nil
		default:
			return zero, errs.New(errs.InvalidExpression, "evalScalar: unrecognized operator "+n.Symbol)
		}
	default:
		return zero, errs.New(errs.InvalidExpression, "evalScalar: node is not a scalar expression")
	}
}
