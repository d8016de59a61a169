// Package cse implements the Control-Stack-Environment machine of
// spec.md §4.3: a strict step loop over a flattened control-item table
// that reduces to a single residual value.
//
// Grounded on original_source/rpal_project/cse/csemachine.py's ApplyRules
// loop for the 13 reduction cases, re-derived into an explicit
// execution-order control list (see internal/control's doc comment) so
// this package never needs push/pop direction bookkeeping: Run always
// pops index 0 off the live control slice and, when expanding a control
// structure, splices its items onto the front.
package cse

import (
	"io"

	"github.com/gorpal/rpal"
	"github.com/gorpal/rpal/internal/builtins"
	"github.com/gorpal/rpal/internal/control"
	"github.com/gorpal/rpal/internal/envtree"
	"github.com/gorpal/rpal/internal/rtrace"
	"github.com/gorpal/rpal/internal/value"
)

// sval is one value-stack slot: either an ordinary value or an
// EnvMarker sentinel, matching spec.md §3's value-stack shape.
type sval struct {
	marker bool
	envID  int
	val    value.Value
}

// Machine is a single run of the CSE machine over one control.Table.
type Machine struct {
	table *control.Table
	arena *envtree.Arena
	out   io.Writer
	trace bool

	c []control.Item
	s []sval
	e int // current environment id
}

// New creates a machine over table, with env already primed by the
// caller (builtins.Install must have run against arena's environment 0).
func New(table *control.Table, arena *envtree.Arena, out io.Writer) *Machine {
	return &Machine{table: table, arena: arena, out: out}
}

// Run evaluates the program to its residual value.
func (m *Machine) Run() (value.Value, error) {
	return m.run(false)
}

// RunTraced is Run plus a step-by-step rtrace.T() log, for the -trace-cse
// diagnostic flag.
func (m *Machine) RunTraced() (value.Value, error) {
	return m.run(true)
}

func (m *Machine) run(trace bool) (value.Value, error) {
	m.trace = trace
	m.e = 0
	m.c = prepend(m.table.Seqs[0], nil)
	m.c = append(m.c, control.Item{Kind: control.ItemEnvMarker, E: 0})
	m.s = []sval{{marker: true, envID: 0}}

	for len(m.c) > 0 {
		x := m.c[0]
		m.c = m.c[1:]
		if m.trace {
			rtrace.T().Debugf("cse: env=%d item=%v stack-depth=%d", m.e, x, len(m.s))
		}
		if err := m.step(x); err != nil {
			return value.Value{}, err
		}
	}

	if len(m.s) != 1 || m.s[0].marker {
		return value.Value{}, rpal.NewError(rpal.InternalErr, "machine halted without exactly one residual value")
	}
	return m.s[0].val, nil
}

func prepend(items []control.Item, rest []control.Item) []control.Item {
	out := make([]control.Item, 0, len(items)+len(rest))
	out = append(out, items...)
	out = append(out, rest...)
	return out
}

func (m *Machine) pushVal(v value.Value) { m.s = append(m.s, sval{val: v}) }
func (m *Machine) pushMarker(e int)      { m.s = append(m.s, sval{marker: true, envID: e}) }

func (m *Machine) popVal() (value.Value, error) {
	if len(m.s) == 0 {
		return value.Value{}, rpal.NewError(rpal.InternalErr, "value stack underflow")
	}
	top := m.s[len(m.s)-1]
	m.s = m.s[:len(m.s)-1]
	if top.marker {
		return value.Value{}, rpal.NewError(rpal.InternalErr, "expected a value, found an environment marker")
	}
	return top.val, nil
}

func (m *Machine) step(x control.Item) error {
	switch x.Kind {
	case control.ItemInt:
		m.pushVal(value.NewInt(x.Int))
	case control.ItemString:
		m.pushVal(value.NewString(x.Str))
	case control.ItemTruth:
		m.pushVal(value.NewBool(x.Bool))
	case control.ItemNil:
		m.pushVal(value.Nil())
	case control.ItemDummy:
		m.pushVal(value.NewDummy())
	case control.ItemYStar:
		m.pushVal(value.NewYStarFn())

	case control.ItemIdent:
		v, err := m.arena.LookupErr(m.e, x.Str, rpal.Span{})
		if err != nil {
			return err
		}
		m.pushVal(v)

	case control.ItemLambda:
		m.pushVal(value.NewClosure(value.Closure{K: x.K, BV: x.BV, EnvI: m.e}))

	case control.ItemTau:
		elems := make([]value.Value, x.N)
		for i := 0; i < x.N; i++ {
			v, err := m.popVal()
			if err != nil {
				return err
			}
			elems[x.N-1-i] = v
		}
		m.pushVal(value.NewTuple(elems))

	case control.ItemBeta:
		return m.stepBeta()

	case control.ItemOp:
		return m.stepOp(x.Str)

	case control.ItemGamma:
		return m.stepGamma()

	case control.ItemEnvMarker:
		return m.stepEnvMarker(x.E)

	case control.ItemCondition:
		return rpal.NewError(rpal.InternalErr, "Condition item reached outside of beta")

	default:
		return rpal.NewError(rpal.InternalErr, "unhandled control item")
	}
	return nil
}

func (m *Machine) stepBeta() error {
	b, err := m.popVal()
	if err != nil {
		return err
	}
	if b.Kind != value.Bool {
		return rpal.NewError(rpal.TypeErr, "conditional guard is not a truth-value")
	}
	if len(m.c) < 2 || m.c[0].Kind != control.ItemCondition || m.c[1].Kind != control.ItemCondition {
		return rpal.NewError(rpal.InternalErr, "beta without two following Condition items")
	}
	kt, ke := m.c[0].K, m.c[1].K
	m.c = m.c[2:]
	k := ke
	if b.Bool {
		k = kt
	}
	m.c = prepend(m.table.Seqs[k], m.c)
	return nil
}

func (m *Machine) stepEnvMarker(e int) error {
	v, err := m.popVal()
	if err != nil {
		return err
	}
	if len(m.s) == 0 || !m.s[len(m.s)-1].marker || m.s[len(m.s)-1].envID != e {
		return rpal.NewError(rpal.InternalErr, "EnvMarker not immediately below its paired value")
	}
	m.s = m.s[:len(m.s)-1] // discard the matching marker
	m.e = m.nearestMarkerEnv()
	m.pushVal(v)
	return nil
}

func (m *Machine) nearestMarkerEnv() int {
	for i := len(m.s) - 1; i >= 0; i-- {
		if m.s[i].marker {
			return m.s[i].envID
		}
	}
	return 0
}

func (m *Machine) stepGamma() error {
	rator, err := m.popVal()
	if err != nil {
		return err
	}
	rand, err := m.popVal()
	if err != nil {
		return err
	}
	switch rator.Kind {
	case value.LambdaClosure:
		return m.applyClosure(rator.Clo, rand)
	case value.Builtin:
		return m.applyBuiltin(rator.Builtn, rand)
	case value.YStarFn:
		if rand.Kind != value.LambdaClosure {
			return rpal.NewError(rpal.TypeErr, "Y* must be applied to a lambda")
		}
		m.pushVal(value.NewYClosure(rand.Clo))
		return nil
	case value.YClosure:
		return m.applyYClosure(rator.Clo, rand)
	case value.Tuple:
		return m.indexTuple(rator, rand)
	}
	// `s1 Conc s2` juxtaposes Conc between its two arguments rather than
	// in front of them, so plain R -> R Rn parsing leaves Conc as the
	// *rand* of this gamma (rator is s1 itself) instead of the rator.
	// Recognize that shape and hand off to the same two-step built-in
	// path applyBuiltin already implements for the prefix form.
	if rand.Kind == value.Builtin && builtins.IsConc(rand.Builtn) {
		return m.applyBuiltin(rand.Builtn, rator)
	}
	return rpal.NewError(rpal.TypeErr, "attempt to apply a non-function value")
}

// indexTuple implements rule 4's tuple case: t(i) selects the 1-based i-th
// component of t.
func (m *Machine) indexTuple(t, rand value.Value) error {
	if rand.Kind != value.Int {
		return rpal.NewError(rpal.TypeErr, "tuple selection requires an integer index")
	}
	i := rand.Int
	if i < 1 || int(i) > len(t.Elems) {
		return rpal.NewError(rpal.TypeErr, "tuple selection index out of range")
	}
	m.pushVal(t.Elems[i-1])
	return nil
}

func (m *Machine) applyClosure(clo value.Closure, rand value.Value) error {
	eprime := m.arena.Fresh(clo.EnvI)
	if err := bindFormals(m.arena, eprime, clo.BV, rand); err != nil {
		return err
	}
	m.e = eprime
	m.pushMarker(eprime)
	rest := append([]control.Item{{Kind: control.ItemEnvMarker, E: eprime}}, m.c...)
	m.c = prepend(m.table.Seqs[clo.K], rest)
	return nil
}

func bindFormals(a *envtree.Arena, e int, bv []string, rand value.Value) error {
	if len(bv) == 1 {
		a.Bind(e, bv[0], rand)
		return nil
	}
	if len(bv) == 0 {
		return nil
	}
	if rand.Kind != value.Tuple || len(rand.Elems) < len(bv) {
		return rpal.NewError(rpal.TypeErr, "tuple-pattern binder applied to a non-matching argument")
	}
	for i, name := range bv {
		a.Bind(e, name, rand.Elems[i])
	}
	return nil
}

func (m *Machine) applyYClosure(clo value.Closure, rand value.Value) error {
	tempLambda := value.NewClosure(clo)
	m.pushVal(rand)
	m.pushVal(value.NewYClosure(clo))
	m.pushVal(tempLambda)
	m.c = prepend([]control.Item{{Kind: control.ItemGamma}, {Kind: control.ItemGamma}}, m.c)
	return nil
}

func (m *Machine) applyBuiltin(name string, arg value.Value) error {
	if builtins.IsConc(name) {
		if len(m.c) < 1 || m.c[0].Kind != control.ItemGamma {
			return rpal.NewError(rpal.InternalErr, "Conc without a following gamma")
		}
		m.c = m.c[1:]
		second, err := m.popVal()
		if err != nil {
			return err
		}
		if arg.Kind != value.String || second.Kind != value.String {
			return rpal.NewError(rpal.TypeErr, "Conc requires two strings")
		}
		m.pushVal(value.NewString(arg.Str + second.Str))
		return nil
	}
	result, err := builtins.Apply(name, arg, m.out, rpal.Span{})
	if err != nil {
		return err
	}
	m.pushVal(result)
	return nil
}
