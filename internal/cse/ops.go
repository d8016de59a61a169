package cse

import (
	"github.com/gorpal/rpal"
	"github.com/gorpal/rpal/internal/value"
)

var unaryOps = map[string]bool{"neg": true, "not": true}

// stepOp implements spec.md §4.3 rules 6 and 7: binary and unary operator
// dispatch. Binary operators pop a then b (a = the left operand's value,
// b = the right operand's, per internal/control's compile ordering).
func (m *Machine) stepOp(name string) error {
	if unaryOps[name] {
		a, err := m.popVal()
		if err != nil {
			return err
		}
		v, err := applyUnary(name, a)
		if err != nil {
			return err
		}
		m.pushVal(v)
		return nil
	}
	a, err := m.popVal()
	if err != nil {
		return err
	}
	b, err := m.popVal()
	if err != nil {
		return err
	}
	v, err := applyBinary(name, a, b)
	if err != nil {
		return err
	}
	m.pushVal(v)
	return nil
}

func applyUnary(name string, a value.Value) (value.Value, error) {
	switch name {
	case "neg":
		if a.Kind != value.Int {
			return value.Value{}, rpal.NewError(rpal.TypeErr, "neg requires an integer")
		}
		return value.NewInt(-a.Int), nil
	case "not":
		if a.Kind != value.Bool {
			return value.Value{}, rpal.NewError(rpal.TypeErr, "not requires a truth-value")
		}
		return value.NewBool(!a.Bool), nil
	}
	return value.Value{}, rpal.NewError(rpal.InternalErr, "unknown unary operator "+name)
}

func applyBinary(name string, a, b value.Value) (value.Value, error) {
	switch name {
	case "+", "-", "*", "/", "**":
		if a.Kind != value.Int || b.Kind != value.Int {
			return value.Value{}, rpal.NewError(rpal.TypeErr, name+" requires two integers")
		}
		return arith(name, a.Int, b.Int)
	case "gr", "ge", "ls", "le":
		if a.Kind != value.Int || b.Kind != value.Int {
			return value.Value{}, rpal.NewError(rpal.TypeErr, name+" requires two integers")
		}
		return value.NewBool(compareInts(name, a.Int, b.Int)), nil
	case "eq", "ne":
		eq := valuesEqual(a, b)
		if name == "ne" {
			eq = !eq
		}
		return value.NewBool(eq), nil
	case "or":
		if a.Kind != value.Bool || b.Kind != value.Bool {
			return value.Value{}, rpal.NewError(rpal.TypeErr, "or requires two truth-values")
		}
		return value.NewBool(a.Bool || b.Bool), nil
	case "&":
		if a.Kind != value.Bool || b.Kind != value.Bool {
			return value.Value{}, rpal.NewError(rpal.TypeErr, "& requires two truth-values")
		}
		return value.NewBool(a.Bool && b.Bool), nil
	case "aug":
		// t aug v: append a single element, per spec's resolution of the
		// aug open question (one source variant concatenates lists,
		// another wraps; canonical RPAL semantics appends one element).
		if a.Kind != value.Tuple {
			return value.Value{}, rpal.NewError(rpal.TypeErr, "aug requires a tuple on the left")
		}
		elems := make([]value.Value, len(a.Elems)+1)
		copy(elems, a.Elems)
		elems[len(a.Elems)] = b
		return value.NewTuple(elems), nil
	}
	return value.Value{}, rpal.NewError(rpal.InternalErr, "unknown binary operator "+name)
}

func arith(name string, a, b int64) (value.Value, error) {
	switch name {
	case "+":
		return value.NewInt(a + b), nil
	case "-":
		return value.NewInt(a - b), nil
	case "*":
		return value.NewInt(a * b), nil
	case "/":
		if b == 0 {
			return value.Value{}, rpal.NewError(rpal.TypeErr, "division by zero")
		}
		return value.NewInt(a / b), nil
	case "**":
		return value.NewInt(ipow(a, b)), nil
	}
	return value.Value{}, rpal.NewError(rpal.InternalErr, "unknown arithmetic operator "+name)
}

func ipow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	r := int64(1)
	for i := int64(0); i < exp; i++ {
		r *= base
	}
	return r
}

func compareInts(name string, a, b int64) bool {
	switch name {
	case "gr":
		return a > b
	case "ge":
		return a >= b
	case "ls":
		return a < b
	case "le":
		return a <= b
	}
	return false
}

func valuesEqual(a, b value.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case value.Int:
		return a.Int == b.Int
	case value.Bool:
		return a.Bool == b.Bool
	case value.String:
		return a.Str == b.Str
	case value.Tuple:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !valuesEqual(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case value.Builtin:
		return a.Builtn == b.Builtn
	}
	return false
}
