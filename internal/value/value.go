// Package value defines the tagged-sum runtime value representation the CSE
// machine operates on, grounded on the Atom/AtomType tagging idiom of
// gorgo's terex package (terex.Atom: a closed AtomType enum plus a payload)
// — kept deliberately distinct from internal/control's Item algebra, as the
// design notes call for: values and control items are not the same sum type
// even though both use the same tagging idiom.
package value

import "fmt"

// Kind identifies which variant of Value is populated.
type Kind int

const (
	Int Kind = iota
	Bool
	String
	Tuple
	LambdaClosure
	YClosure
	YStarFn // the bare Y* leaf value, before its first application
	Builtin
	Dummy
)

// Value is a single RPAL runtime value: an integer, a truth-value, a string,
// a tuple of values, a Lambda closure, a Y* (fixed-point) closure, a
// built-in name, or the opaque "dummy" value.
type Value struct {
	Kind Kind

	Int    int64
	Bool   bool
	Str    string
	Elems  []Value // Tuple
	Clo    Closure // LambdaClosure, YClosure
	Builtn string  // Builtin
}

// Closure pairs a control-structure index and bound-variable list with the
// id of the environment active at the point the Lambda item was reduced —
// spec's invariant that a closure's captured environment id is immutable
// and was live at capture time.
type Closure struct {
	K    int
	BV   []string
	EnvI int
}

// NewInt, NewBool, NewString, NewTuple, NewClosure, NewYClosure, NewBuiltin
// construct a Value of the matching kind.

func NewInt(v int64) Value           { return Value{Kind: Int, Int: v} }
func NewBool(v bool) Value           { return Value{Kind: Bool, Bool: v} }
func NewString(v string) Value       { return Value{Kind: String, Str: v} }
func NewTuple(elems []Value) Value   { return Value{Kind: Tuple, Elems: elems} }
func NewClosure(c Closure) Value     { return Value{Kind: LambdaClosure, Clo: c} }
func NewYClosure(c Closure) Value    { return Value{Kind: YClosure, Clo: c} }
func NewBuiltin(name string) Value   { return Value{Kind: Builtin, Builtn: name} }
func NewDummy() Value                { return Value{Kind: Dummy} }
func NewYStarFn() Value              { return Value{Kind: YStarFn} }
func Nil() Value                     { return Value{Kind: Tuple, Elems: nil} }

// IsNil reports whether v is RPAL's nil (the empty tuple).
func (v Value) IsNil() bool {
	return v.Kind == Tuple && len(v.Elems) == 0
}

func (v Value) String() string {
	switch v.Kind {
	case Int:
		return fmt.Sprintf("%d", v.Int)
	case Bool:
		if v.Bool {
			return "true"
		}
		return "false"
	case String:
		return v.Str
	case Tuple:
		return formatTuple(v.Elems)
	case LambdaClosure:
		return fmt.Sprintf("[lambda closure: %s: %d]", bvString(v.Clo.BV), v.Clo.K)
	case YClosure:
		return fmt.Sprintf("[Y* closure: %s: %d]", bvString(v.Clo.BV), v.Clo.K)
	case Builtin:
		return v.Builtn
	case YStarFn:
		return "Y*"
	case Dummy:
		return ""
	}
	return "?"
}

func bvString(bv []string) string {
	s := ""
	for i, n := range bv {
		if i > 0 {
			s += ","
		}
		s += n
	}
	return s
}

func formatTuple(elems []Value) string {
	if len(elems) == 0 {
		return "()"
	}
	if len(elems) == 1 {
		return "(" + elems[0].String() + ")"
	}
	s := "("
	for i, e := range elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}
