// Package builtins implements the fixed built-in set of spec.md §4.4 and
// installs their names into environment 0. Conc's two-step currying is
// implemented in internal/cse, since it needs to reach past the current
// control item into the machine's own control and value stacks; every
// other built-in is a pure one-argument function over value.Value plus,
// for Print, an injected io.Writer (idiomatic dependency injection so
// tests can capture output instead of writing to os.Stdout, matching the
// testable-output style the reference's own test suite exercises on
// csemachine.py).
//
// Grounded on original_source/rpal_project/cse/csemachine.py's `built`
// dispatch table for exact per-name semantics.
package builtins

import (
	"fmt"
	"io"

	"github.com/gorpal/rpal"
	"github.com/gorpal/rpal/internal/envtree"
	"github.com/gorpal/rpal/internal/value"
)

// Names is the fixed built-in name list bound in environment 0.
var Names = []string{
	"Print", "print", "Conc", "Stern", "Stem", "Order",
	"Isinteger", "Istruthvalue", "Isstring", "Istuple", "Isfunction", "ItoS",
}

// Install binds every built-in name to itself (a Builtin value) in the
// arena's root environment, and binds "Y*" to the fixed-point leaf value.
func Install(a *envtree.Arena) {
	for _, name := range Names {
		a.Bind(0, name, value.NewBuiltin(name))
	}
	a.Bind(0, "Y*", value.NewYStarFn())
}

// IsConc reports whether name is the two-argument Conc built-in, which
// internal/cse must special-case (it needs an extra control item and an
// extra value-stack pop that plain Apply has no access to).
func IsConc(name string) bool { return name == "Conc" }

// Apply evaluates every built-in except Conc (see IsConc/internal/cse).
func Apply(name string, arg value.Value, out io.Writer, span rpal.Span) (value.Value, error) {
	switch name {
	case "Print", "print":
		// csemachine.py's built() re-interprets \n/\t at print time on a
		// still-escaped string; here the parser already resolves escapes
		// when it reads the string literal, so arg is printed as-is.
		fmt.Fprint(out, arg.String())
		return arg, nil
	case "Stem":
		s := arg.Str
		if s == "" {
			return value.NewString(""), nil
		}
		return value.NewString(s[:1]), nil
	case "Stern":
		s := arg.Str
		if s == "" {
			return value.NewString(""), nil
		}
		return value.NewString(s[1:]), nil
	case "Order":
		if arg.Kind != value.Tuple {
			return value.Value{}, rpal.NewErrorAt(rpal.TypeErr, "Order requires a tuple", span)
		}
		return value.NewInt(int64(len(arg.Elems))), nil
	case "Isinteger":
		return value.NewBool(arg.Kind == value.Int), nil
	case "Istruthvalue":
		return value.NewBool(arg.Kind == value.Bool), nil
	case "Isstring":
		return value.NewBool(arg.Kind == value.String), nil
	case "Istuple":
		return value.NewBool(arg.Kind == value.Tuple), nil
	case "Isfunction":
		// Narrow, source-faithful scope: only built-in names count, not
		// user closures. See DESIGN.md / SPEC_FULL.md open questions.
		return value.NewBool(arg.Kind == value.Builtin), nil
	case "ItoS":
		if arg.Kind != value.Int {
			return value.Value{}, rpal.NewErrorAt(rpal.TypeErr, "ItoS requires an integer", span)
		}
		return value.NewString(fmt.Sprintf("%d", arg.Int)), nil
	}
	return value.Value{}, rpal.NewErrorAt(rpal.InternalErr, "unknown built-in "+name, span)
}
