package parse

import (
	"testing"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/gorpal/rpal/internal/ast"
	"github.com/gorpal/rpal/internal/lexer"
)

func setupTest(t *testing.T) func() {
	gtrace.SyntaxTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	gtrace.SyntaxTracer.SetTraceLevel(tracing.LevelInfo)
	return teardown
}

func parseSrc(t *testing.T, src string) *ast.Node {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	n, err := Parse(toks)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return n
}

func TestParseLet(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	n := parseSrc(t, "let x = 5 in x + 3")
	if n.Kind != ast.Let {
		t.Fatalf("got kind %s, want let", n.Kind)
	}
	if len(n.Children) != 2 || n.Children[0].Kind != ast.Eq {
		t.Errorf("let should have [= x 5, body]; got %s", n.String())
	}
}

func TestParseConditional(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	n := parseSrc(t, "n eq 0 -> 1 | n")
	if n.Kind != ast.Cond {
		t.Fatalf("got kind %s, want ->; tree = %s", n.Kind, n.String())
	}
	if len(n.Children) != 3 {
		t.Fatalf("cond should have 3 children, got %d", len(n.Children))
	}
}

func TestParseRecFunctionForm(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	n := parseSrc(t, "let rec fact n = n eq 0 -> 1 | n * fact(n-1) in fact 5")
	if n.Kind != ast.Let {
		t.Fatalf("got %s", n.String())
	}
	def := n.Children[0]
	if def.Kind != ast.Rec {
		t.Fatalf("definition should be rec, got %s", def.Kind)
	}
	if def.Children[0].Kind != ast.FcnForm {
		t.Fatalf("rec's definition should be fcn_form, got %s", def.Children[0].Kind)
	}
}

func TestParseTuple(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	n := parseSrc(t, "(1, 2, 3)")
	if n.Kind != ast.Tau || len(n.Children) != 3 {
		t.Fatalf("got %s, want a 3-tuple", n.String())
	}
}

func TestParseAndWithin(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	n := parseSrc(t, "let x = 3 and y = 4 in x ** 2 + y ** 2")
	if n.Kind != ast.Let || n.Children[0].Kind != ast.And {
		t.Fatalf("got %s", n.String())
	}

	n = parseSrc(t, "let f x = x within g y = f y in g 1")
	if n.Kind != ast.Let || n.Children[0].Kind != ast.Within {
		t.Fatalf("got %s", n.String())
	}
}

func TestParseAtOperator(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	n := parseSrc(t, "s1 @ Conc s2")
	if n.Kind != ast.At || len(n.Children) != 3 {
		t.Fatalf("got %s, want @ with 3 children", n.String())
	}
}

func TestParseSyntaxError(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	toks, err := lexer.Tokenize("let x = in x")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if _, err := Parse(toks); err == nil {
		t.Fatal("expected a syntax error for a missing definition expression")
	}
}
