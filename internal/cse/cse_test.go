package cse

import (
	"bytes"
	"testing"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/gorpal/rpal/internal/builtins"
	"github.com/gorpal/rpal/internal/control"
	"github.com/gorpal/rpal/internal/envtree"
	"github.com/gorpal/rpal/internal/lexer"
	"github.com/gorpal/rpal/internal/parse"
	"github.com/gorpal/rpal/internal/standardize"
	"github.com/gorpal/rpal/internal/value"
)

func setupTest(t *testing.T) func() {
	gtrace.SyntaxTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	gtrace.SyntaxTracer.SetTraceLevel(tracing.LevelInfo)
	return teardown
}

// run compiles and evaluates src exactly the way cmd/rpal's one-shot file
// mode does, capturing anything written via Print/print.
func run(t *testing.T, src string) (value.Value, string) {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	tree, err := parse.Parse(toks)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	st, err := standardize.Standardize(tree)
	if err != nil {
		t.Fatalf("Standardize(%q): %v", src, err)
	}
	table := control.Build(st)

	arena := envtree.New()
	builtins.Install(arena)

	var out bytes.Buffer
	m := New(table, arena, &out)
	v, err := m.Run()
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return v, out.String()
}

func TestScenarioArithmetic(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	v, _ := run(t, "let x = 5 in x + 3")
	if v.Kind != value.Int || v.Int != 8 {
		t.Errorf("got %v, want 8", v)
	}
}

func TestScenarioRecursiveFactorial(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	v, _ := run(t, "let rec fact n = n eq 0 -> 1 | n * fact(n-1) in fact 5")
	if v.Kind != value.Int || v.Int != 120 {
		t.Errorf("got %v, want 120", v)
	}
}

func TestScenarioPrintTuple(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	v, out := run(t, "let Pairs = (1,2,3) in Print(Pairs)")
	if v.String() != "(1, 2, 3)" {
		t.Errorf("result = %q, want (1, 2, 3)", v.String())
	}
	if out != "(1, 2, 3)" {
		t.Errorf("printed output = %q, want (1, 2, 3)", out)
	}
}

func TestScenarioTwoArgFunction(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	v, _ := run(t, "let f x y = x - y in f 10 3")
	if v.Kind != value.Int || v.Int != 7 {
		t.Errorf("got %v, want 7", v)
	}
}

func TestScenarioAndTupleBinding(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	v, _ := run(t, "let x = 3 and y = 4 in x**2 + y**2")
	if v.Kind != value.Int || v.Int != 25 {
		t.Errorf("got %v, want 25", v)
	}
}

func TestScenarioConc(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	v, _ := run(t, "'Hello' Conc ' World'")
	if v.Kind != value.String || v.Str != "Hello World" {
		t.Errorf("got %v, want \"Hello World\"", v)
	}
}

func TestLawOrderOfNilIsZero(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	v, _ := run(t, "Order(nil)")
	if v.Kind != value.Int || v.Int != 0 {
		t.Errorf("Order(nil) = %v, want 0", v)
	}
}

func TestLawOrderGrowsWithAug(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	v, _ := run(t, "Order(nil aug 1 aug 2)")
	if v.Kind != value.Int || v.Int != 2 {
		t.Errorf("Order(nil aug 1 aug 2) = %v, want 2", v)
	}
}

func TestLawAugAppendsSingleElement(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	// aug never flattens its right-hand argument, even when it is itself
	// a tuple: (1,2) aug (3,4) has order 3, not 4.
	v, _ := run(t, "Order((1,2) aug (3,4))")
	if v.Kind != value.Int || v.Int != 3 {
		t.Errorf("Order((1,2) aug (3,4)) = %v, want 3", v)
	}
}

func TestLawStemConcSternRoundTrip(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	// Each side of Conc is itself an application (Stem('Hello')), so this
	// needs the @ operator to force two independently-parsed R's rather
	// than bare juxtaposition, which would fold every atom into one
	// left-associative application chain.
	v, _ := run(t, "Stem('Hello') @ Conc Stern('Hello')")
	if v.Kind != value.String || v.Str != "Hello" {
		t.Errorf("Stem(s) Conc Stern(s) = %v, want \"Hello\"", v)
	}
}

func TestTupleSelectionViaGamma(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	v, _ := run(t, "let t = (10, 20, 30) in t(2)")
	if v.Kind != value.Int || v.Int != 20 {
		t.Errorf("t(2) = %v, want 20 (1-based tuple selection)", v)
	}
}

func TestTupleSelectionOutOfRangeIsError(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	toks, err := lexer.Tokenize("let t = (1, 2) in t(5)")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	tree, err := parse.Parse(toks)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	st, err := standardize.Standardize(tree)
	if err != nil {
		t.Fatalf("Standardize: %v", err)
	}
	table := control.Build(st)
	arena := envtree.New()
	builtins.Install(arena)
	m := New(table, arena, &bytes.Buffer{})
	if _, err := m.Run(); err == nil {
		t.Fatal("expected a type error for an out-of-range tuple index")
	}
}
