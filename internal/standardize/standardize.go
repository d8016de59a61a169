// Package standardize rewrites a parsed ast.Node tree into kernel-only
// form, applying the canonical RPAL transformations (let, where, fcn_form,
// multi-parameter lambda, within, and, rec, @) bottom-up.
//
// Grounded on original_source/rpal_project/standardizer/standardizer.py,
// the mainline variant; standardizer1.py's divergent `aug`/`within`
// encodings were scanned but not adopted.
//
// The output is a distinct Node type, not ast.Node, so that only kernel
// kinds (Lambda, Gamma, Cond, Tau, YStar, Op, leaves) can ever reach
// internal/control — this package's Kind enum has no sugar kinds, so a
// standardize.Node cannot express one.
package standardize

import (
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"

	"github.com/gorpal/rpal"
	"github.com/gorpal/rpal/internal/ast"
)

// Kind is the closed set of kernel node kinds a standardized tree may use.
type Kind int

const (
	Lambda Kind = iota
	Gamma
	Cond
	Tau
	YStar
	Op
	IntLit
	StringLit
	TruthLit
	NilLit
	Ident
	Dummy
)

// Binder describes a lambda's bound-variable shape: a single name, an
// ordered list of names (comma-tuple destructuring), or the empty list
// (empty-parameter marker), per spec's "Binder encoding".
type Binder struct {
	Names []string
}

// Node is one node of a standardized (kernel-only) tree.
type Node struct {
	Kind     Kind
	Text     string // Ident, Op (operator spelling), StringLit
	IntVal   int64
	Binder   Binder // Lambda only
	Children []*Node
	Span     rpal.Span
}

func leaf(kind Kind, text string, intVal int64, span rpal.Span) *Node {
	return &Node{Kind: kind, Text: text, IntVal: intVal, Span: span}
}

func branch(kind Kind, span rpal.Span, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children, Span: span}
}

// Standardize rewrites n into kernel-only form.
func Standardize(n *ast.Node) (*Node, error) {
	if n == nil {
		return nil, rpal.NewError(rpal.StandardizeErr, "nil node")
	}
	switch n.Kind {
	case ast.IntLit:
		return leaf(IntLit, "", n.IntVal, n.Span), nil
	case ast.StringLit:
		return leaf(StringLit, n.Text, 0, n.Span), nil
	case ast.TruthLit:
		return leaf(TruthLit, n.Text, n.IntVal, n.Span), nil
	case ast.NilLit:
		return leaf(NilLit, "", 0, n.Span), nil
	case ast.Dummy:
		return leaf(Dummy, "", 0, n.Span), nil
	case ast.Ident, ast.Builtin:
		return leaf(Ident, n.Text, 0, n.Span), nil
	case ast.YStar:
		return leaf(YStar, "", 0, n.Span), nil

	case ast.Op:
		kids, err := standardizeAll(n.Children)
		if err != nil {
			return nil, err
		}
		nd := branch(Op, n.Span, kids...)
		nd.Text = n.Text
		return nd, nil

	case ast.Gamma:
		kids, err := standardizeAll(n.Children)
		if err != nil {
			return nil, err
		}
		return branch(Gamma, n.Span, kids...), nil

	case ast.Cond:
		kids, err := standardizeAll(n.Children)
		if err != nil {
			return nil, err
		}
		return branch(Cond, n.Span, kids...), nil

	case ast.Tau:
		kids, err := standardizeAll(n.Children)
		if err != nil {
			return nil, err
		}
		return branch(Tau, n.Span, kids...), nil

	case ast.At:
		// E1 @ N E2 -> gamma(gamma(N, E1), E2)
		if len(n.Children) != 3 {
			return nil, rpal.NewErrorAt(rpal.StandardizeErr, "@ requires 3 children", n.Span)
		}
		e1, name, e2 := n.Children[0], n.Children[1], n.Children[2]
		se1, err := Standardize(e1)
		if err != nil {
			return nil, err
		}
		sname, err := Standardize(name)
		if err != nil {
			return nil, err
		}
		se2, err := Standardize(e2)
		if err != nil {
			return nil, err
		}
		inner := branch(Gamma, n.Span, sname, se1)
		return branch(Gamma, n.Span, inner, se2), nil

	case ast.Lambda:
		return standardizeLambda(n)

	case ast.Let:
		return standardizeLet(n)

	case ast.Where:
		return standardizeWhere(n)

	case ast.FcnForm:
		return standardizeFcnForm(n)

	case ast.Within:
		return standardizeWithin(n)

	case ast.And:
		return standardizeAnd(n)

	case ast.Rec:
		return standardizeRec(n)

	case ast.Eq:
		// A bare "=" only ever reaches here if it escaped its enclosing
		// rewrite (let/where/within/and/rec), which is malformed input.
		return nil, rpal.NewErrorAt(rpal.StandardizeErr,
			"bare '=' at top of standardized tree", n.Span)

	case ast.CommaTuple, ast.EmptyParam:
		return nil, rpal.NewErrorAt(rpal.StandardizeErr,
			fmt.Sprintf("%s cannot appear outside a lambda binder or definition", n.Kind), n.Span)
	}
	return nil, rpal.NewErrorAt(rpal.StandardizeErr, fmt.Sprintf("unhandled node kind %s", n.Kind), n.Span)
}

func standardizeAll(ns []*ast.Node) ([]*Node, error) {
	out := make([]*Node, len(ns))
	for i, c := range ns {
		s, err := Standardize(c)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// standardizeLambda handles both the single-binder kernel shape
// (binder, body) and the multi-parameter sugar (vb1, ..., vbn, body),
// which it curries per "multi-parameter lambda".
func standardizeLambda(n *ast.Node) (*Node, error) {
	if len(n.Children) < 2 {
		return nil, rpal.NewErrorAt(rpal.StandardizeErr, "lambda requires at least one binder and a body", n.Span)
	}
	binders := n.Children[:len(n.Children)-1]
	body := n.Children[len(n.Children)-1]
	return curryLambda(binders, body, n.Span)
}

func curryLambda(binders []*ast.Node, body *ast.Node, span rpal.Span) (*Node, error) {
	bv, err := binderNames(binders[0])
	if err != nil {
		return nil, err
	}
	var innerBody *ast.Node
	if len(binders) == 1 {
		innerBody = body
	} else {
		// Represent the remaining curry as a synthetic nested lambda node
		// so the recursion below re-enters standardizeLambda uniformly.
		innerBody = ast.New(ast.Lambda, span, append(append([]*ast.Node{}, binders[1:]...), body)...)
	}
	sbody, err := Standardize(innerBody)
	if err != nil {
		return nil, err
	}
	nd := branch(Lambda, span, sbody)
	nd.Binder = Binder{Names: bv}
	return nd, nil
}

// binderNames extracts the bound-variable name list from a Vb node: a
// single identifier, a comma-tuple of identifiers, or the empty-parameter
// marker (which binds no names).
func binderNames(vb *ast.Node) ([]string, error) {
	switch vb.Kind {
	case ast.Ident:
		return []string{vb.Text}, nil
	case ast.EmptyParam:
		return nil, nil
	case ast.CommaTuple:
		names := make([]string, len(vb.Children))
		for i, c := range vb.Children {
			if c.Kind != ast.Ident {
				return nil, rpal.NewErrorAt(rpal.StandardizeErr, "comma-tuple binder must contain only identifiers", c.Span)
			}
			names[i] = c.Text
		}
		return names, nil
	}
	return nil, rpal.NewErrorAt(rpal.StandardizeErr, fmt.Sprintf("invalid lambda binder %s", vb.Kind), vb.Span)
}

// standardizeLet rewrites `let D in P` where D standardizes to an
// assignment shape `= x E` into gamma(lambda(x, P), E).
func standardizeLet(n *ast.Node) (*Node, error) {
	if len(n.Children) != 2 {
		return nil, rpal.NewErrorAt(rpal.StandardizeErr, "let requires a definition and a body", n.Span)
	}
	return buildLetFrom(n.Children[0], n.Children[1], n.Span)
}

// standardizeWhere rewrites `P where D` identically to `let D in P`.
func standardizeWhere(n *ast.Node) (*Node, error) {
	if len(n.Children) != 2 {
		return nil, rpal.NewErrorAt(rpal.StandardizeErr, "where requires a body and a definition", n.Span)
	}
	p, d := n.Children[0], n.Children[1]
	return buildLetFrom(d, p, n.Span)
}

// buildLetFrom standardizes the definition d down to an `= x E` shape
// (possibly through within/and/rec/fcn_form), then emits
// gamma(lambda(x, stdBody), E).
func buildLetFrom(d, body *ast.Node, span rpal.Span) (*Node, error) {
	x, e, err := standardizeDefinition(d)
	if err != nil {
		return nil, err
	}
	sbody, err := Standardize(body)
	if err != nil {
		return nil, err
	}
	lam := branch(Lambda, span, sbody)
	lam.Binder = Binder{Names: x}
	return branch(Gamma, span, lam, e), nil
}

// standardizeDefinition reduces any definition-position ast.Node (Eq,
// FcnForm, Within, And, Rec) to its (bound names, value) shape, fully
// standardizing the value side.
func standardizeDefinition(d *ast.Node) ([]string, *Node, error) {
	switch d.Kind {
	case ast.Eq:
		if len(d.Children) != 2 {
			return nil, nil, rpal.NewErrorAt(rpal.StandardizeErr, "= requires a binder and a value", d.Span)
		}
		names, err := binderNames(d.Children[0])
		if err != nil {
			return nil, nil, err
		}
		e, err := Standardize(d.Children[1])
		if err != nil {
			return nil, nil, err
		}
		return names, e, nil

	case ast.FcnForm:
		eq, err := standardizeFcnFormEq(d)
		if err != nil {
			return nil, nil, err
		}
		return standardizeDefinition(eq)

	case ast.Rec:
		eq, err := standardizeRecEq(d)
		if err != nil {
			return nil, nil, err
		}
		return standardizeDefinition(eq)

	case ast.And:
		eq, err := standardizeAndEq(d)
		if err != nil {
			return nil, nil, err
		}
		return standardizeDefinition(eq)

	case ast.Within:
		eq, err := standardizeWithinEq(d)
		if err != nil {
			return nil, nil, err
		}
		return standardizeDefinition(eq)
	}
	return nil, nil, rpal.NewErrorAt(rpal.StandardizeErr,
		fmt.Sprintf("%s cannot appear as a definition", d.Kind), d.Span)
}

// standardizeFcnForm reports a fcn_form reached outside a definition
// position as a standardization error. Inside a definition,
// standardizeFcnFormEq rewrites `fcn_form f x1 ... xn E` into
// `= f (lambda(x1, lambda(x2, ..., lambda(xn, E)...)))`.
func standardizeFcnForm(n *ast.Node) (*Node, error) {
	return nil, rpal.NewErrorAt(rpal.StandardizeErr, "fcn_form outside a definition", n.Span)
}

func standardizeFcnFormEq(n *ast.Node) (*ast.Node, error) {
	// Children: f, x1, ..., xn, E  (n >= 1 parameters).
	if len(n.Children) < 3 {
		return nil, rpal.NewErrorAt(rpal.StandardizeErr, "fcn_form requires a name, at least one parameter, and a body", n.Span)
	}
	f := n.Children[0]
	binders := n.Children[1 : len(n.Children)-1]
	body := n.Children[len(n.Children)-1]
	lam := ast.New(ast.Lambda, n.Span, append(append([]*ast.Node{}, binders...), body)...)
	return ast.New(ast.Eq, n.Span, f, lam), nil
}

// standardizeWithin reports a within reached outside a definition position
// as a standardization error. Inside a definition, standardizeWithinEq
// rewrites `D1 within D2` into `= x2 gamma(lambda(x1, E2), E1)`.
func standardizeWithin(n *ast.Node) (*Node, error) {
	return nil, rpal.NewErrorAt(rpal.StandardizeErr, "within outside a definition", n.Span)
}

func standardizeWithinEq(n *ast.Node) (*ast.Node, error) {
	if len(n.Children) != 2 {
		return nil, rpal.NewErrorAt(rpal.StandardizeErr, "within requires two definitions", n.Span)
	}
	d1, d2 := n.Children[0], n.Children[1]
	eq1, err := definitionAsEq(d1)
	if err != nil {
		return nil, err
	}
	eq2, err := definitionAsEq(d2)
	if err != nil {
		return nil, err
	}
	if len(eq1.Children) != 2 || len(eq2.Children) != 2 {
		return nil, rpal.NewErrorAt(rpal.StandardizeErr, "within requires single-binder definitions", n.Span)
	}
	x1, e1 := eq1.Children[0], eq1.Children[1]
	x2, e2 := eq2.Children[0], eq2.Children[1]
	lam := ast.New(ast.Lambda, n.Span, x1, e2)
	g := ast.New(ast.Gamma, n.Span, lam, e1)
	return ast.New(ast.Eq, n.Span, x2, g), nil
}

// standardizeAnd reports an and reached outside a definition position as a
// standardization error. Inside a definition, standardizeAndEq rewrites
// `and(=x1 E1, =x2 E2, ...)` into `= (,(x1,x2,...)) tau(E1,E2,...)`.
func standardizeAnd(n *ast.Node) (*Node, error) {
	return nil, rpal.NewErrorAt(rpal.StandardizeErr, "and outside a definition", n.Span)
}

func standardizeAndEq(n *ast.Node) (*ast.Node, error) {
	if len(n.Children) < 2 {
		return nil, rpal.NewErrorAt(rpal.StandardizeErr, "and requires at least two definitions", n.Span)
	}
	names := make([]*ast.Node, len(n.Children))
	values := make([]*ast.Node, len(n.Children))
	for i, d := range n.Children {
		eq, err := definitionAsEq(d)
		if err != nil {
			return nil, err
		}
		if len(eq.Children) != 2 {
			return nil, rpal.NewErrorAt(rpal.StandardizeErr, "and requires single-binder definitions", d.Span)
		}
		names[i] = eq.Children[0]
		values[i] = eq.Children[1]
	}
	if err := checkNoDuplicateBinders(names, n.Span); err != nil {
		return nil, err
	}
	tuple := ast.New(ast.CommaTuple, n.Span, names...)
	rhs := ast.New(ast.Tau, n.Span, values...)
	return ast.New(ast.Eq, n.Span, tuple, rhs), nil
}

// checkNoDuplicateBinders rejects an `and`-block that binds the same name
// twice, since the simultaneous-binding tuple it standardizes to has no way
// to express which definition wins. Uses a treeset the same way
// lr/earley/earley.go dedups item sets during table construction.
func checkNoDuplicateBinders(names []*ast.Node, span rpal.Span) error {
	seen := treeset.NewWith(utils.StringComparator)
	for _, nm := range names {
		if seen.Contains(nm.Text) {
			return rpal.NewErrorAt(rpal.StandardizeErr, "and rebinds '"+nm.Text+"' in the same block", span)
		}
		seen.Add(nm.Text)
	}
	return nil
}

// standardizeRec reports a rec reached outside a definition position as a
// standardization error. Inside a definition, standardizeRecEq rewrites
// `rec (= x E)` into `= x gamma(Y*, lambda(x, E))`.
func standardizeRec(n *ast.Node) (*Node, error) {
	return nil, rpal.NewErrorAt(rpal.StandardizeErr, "rec outside a definition", n.Span)
}

func standardizeRecEq(n *ast.Node) (*ast.Node, error) {
	if len(n.Children) != 1 {
		return nil, rpal.NewErrorAt(rpal.StandardizeErr, "rec requires exactly one definition", n.Span)
	}
	eq, err := definitionAsEq(n.Children[0])
	if err != nil {
		return nil, err
	}
	if len(eq.Children) != 2 {
		return nil, rpal.NewErrorAt(rpal.StandardizeErr, "rec requires a single-binder definition", n.Span)
	}
	x, e := eq.Children[0], eq.Children[1]
	ystar := ast.Leaf(ast.YStar, "", n.Span)
	lam := ast.New(ast.Lambda, n.Span, x, e)
	g := ast.New(ast.Gamma, n.Span, ystar, lam)
	return ast.New(ast.Eq, n.Span, x, g), nil
}

// definitionAsEq reduces a definition node (possibly FcnForm/Within/And/Rec)
// to an Eq ast.Node without standardizing its value, so callers needing
// raw ast-level children (e.g. to build a further sugar rewrite) can do so
// before the final Standardize pass runs over the whole assembled tree.
func definitionAsEq(d *ast.Node) (*ast.Node, error) {
	switch d.Kind {
	case ast.Eq:
		return d, nil
	case ast.FcnForm:
		return standardizeFcnFormEq(d)
	case ast.Rec:
		return standardizeRecEq(d)
	case ast.And:
		return standardizeAndEq(d)
	case ast.Within:
		return standardizeWithinEq(d)
	}
	return nil, rpal.NewErrorAt(rpal.StandardizeErr, fmt.Sprintf("%s is not a definition", d.Kind), d.Span)
}

func (k Kind) String() string {
	switch k {
	case Lambda:
		return "lambda"
	case Gamma:
		return "gamma"
	case Cond:
		return "->"
	case Tau:
		return "tau"
	case YStar:
		return "Y*"
	case Op:
		return "op"
	case IntLit:
		return "int"
	case StringLit:
		return "string"
	case TruthLit:
		return "truth"
	case NilLit:
		return "nil"
	case Ident:
		return "ident"
	case Dummy:
		return "dummy"
	}
	return "?"
}

// String renders a standardized node as a parenthesized s-expression, for
// the -st diagnostic dump and for the determinism test.
func (n *Node) String() string {
	if n == nil {
		return "()"
	}
	if len(n.Children) == 0 {
		switch n.Kind {
		case IntLit:
			return fmt.Sprintf("%d", n.IntVal)
		case Ident, StringLit:
			return n.Text
		case TruthLit:
			if n.IntVal != 0 {
				return "true"
			}
			return "false"
		default:
			return n.Kind.String()
		}
	}
	head := n.Kind.String()
	if n.Kind == Op {
		head = n.Text
	}
	if n.Kind == Lambda {
		head = fmt.Sprintf("lambda<%v>", n.Binder.Names)
	}
	s := "(" + head
	for _, c := range n.Children {
		s += " " + c.String()
	}
	return s + ")"
}
