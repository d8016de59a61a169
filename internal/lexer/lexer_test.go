package lexer

import (
	"testing"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/gorpal/rpal"
)

func setupTest(t *testing.T) func() {
	gtrace.SyntaxTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	gtrace.SyntaxTracer.SetTraceLevel(tracing.LevelInfo)
	return teardown
}

func TestTokenizeIdentifiersAndKeywords(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	toks, err := Tokenize("let x = 5 in x")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []rpal.TokType{
		rpal.TokKeyword, rpal.TokIdentifier, rpal.TokOperator, rpal.TokInteger,
		rpal.TokKeyword, rpal.TokIdentifier, rpal.TokEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Errorf("token %d: got %s, want %s (%q)", i, toks[i].Type, typ, toks[i].Lexeme)
		}
	}
}

func TestTokenizeStringLiteral(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	toks, err := Tokenize(`'Hello World'`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Type != rpal.TokString || toks[0].Lexeme != `'Hello World'` {
		t.Errorf("got %v, want a raw-quoted string token", toks[0])
	}
}

func TestTokenizeComment(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	toks, err := Tokenize("x // trailing comment\n")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(toks) != 2 || toks[0].Type != rpal.TokIdentifier || toks[1].Type != rpal.TokEOF {
		t.Errorf("got %v, want [identifier, EOF]", toks)
	}
}

func TestTokenizeConditionalSeparators(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	// "->" is an operator; "|" (the else-branch separator) is
	// punctuation, the same class as "," and ".".
	toks, err := Tokenize("n eq 0 -> 1 | 2")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	var arrow, bar bool
	for _, tk := range toks {
		if tk.Type == rpal.TokOperator && tk.Lexeme == "->" {
			arrow = true
		}
		if tk.Type == rpal.TokPunct && tk.Lexeme == "|" {
			bar = true
		}
	}
	if !arrow || !bar {
		t.Errorf("got %v, want an operator '->' and a punct '|'", toks)
	}
}

func TestTokenizeUnrecognizedCharacter(t *testing.T) {
	teardown := setupTest(t)
	defer teardown()

	_, err := Tokenize("x $ y")
	if err == nil {
		t.Fatal("expected a lexical error for '$'")
	}
	rerr, ok := err.(*rpal.Error)
	if !ok || rerr.Kind != rpal.LexErr {
		t.Errorf("got %v, want a LexErr", err)
	}
}
