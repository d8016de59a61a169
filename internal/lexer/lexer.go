// Package lexer tokenizes RPAL source text.
//
// Grounded on gorgo's own lexmachine-based scanners (terex/terexlang/scan.go,
// lr/scanner/lexmachine.go): a lexmachine.Lexer is built once, compiled into
// a DFA, then scanned over the input. Keyword-vs-identifier classification
// is done inside the token action (not via DFA rule priority), the same way
// the RPAL reference lexer classifies an IDENTIFIER match against its
// keyword set after the regex has already matched.
package lexer

import (
	"fmt"
	"sync"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/gorpal/rpal"
)

// keywords is the fixed keyword set of the language, per the language spec.
var keywords = hashset.New(
	"let", "in", "fn", "where", "aug",
	"or", "not", "gr", "ge", "ls", "le",
	"eq", "ne", "true", "false", "nil",
	"dummy", "within", "and", "rec",
)

var (
	once sync.Once
	lex  *lexmachine.Lexer
)

func build() {
	lex = lexmachine.NewLexer()
	lex.Add([]byte(`//[^\n]*`), skip)
	lex.Add([]byte(`( |\t|\n|\r)+`), skip)
	lex.Add([]byte(`\'([^'\\]|\\.)*\'`), makeToken(rpal.TokString))
	lex.Add([]byte(`[0-9]+`), makeToken(rpal.TokInteger))
	lex.Add([]byte(`([a-zA-Z])([a-zA-Z]|[0-9]|_)*`), identOrKeyword)
	lex.Add([]byte(`(\*\*|->|>=|<=|==|!=|[+\-*/=><@&~!%^])+`), makeToken(rpal.TokOperator))
	lex.Add([]byte(`[\(\)\,\.\;\|]`), makeToken(rpal.TokPunct))
	if err := lex.Compile(); err != nil {
		panic(fmt.Errorf("lexer: failed to compile DFA: %w", err))
	}
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

func makeToken(typ rpal.TokType) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(int(typ), string(m.Bytes), m), nil
	}
}

func identOrKeyword(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	lexeme := string(m.Bytes)
	typ := rpal.TokIdentifier
	if keywords.Contains(lexeme) {
		typ = rpal.TokKeyword
	}
	return s.Token(int(typ), lexeme, m), nil
}

// Tokenize scans src into a flat token slice terminated by a TokEOF token.
// Comments and whitespace are elided, never emitted.
func Tokenize(src string) ([]rpal.Token, error) {
	once.Do(build)
	scanner, err := lex.Scanner([]byte(src))
	if err != nil {
		return nil, rpal.NewError(rpal.LexErr, err.Error())
	}
	var toks []rpal.Token
	for {
		tok, err, eof := scanner.Next()
		if eof {
			break
		}
		if err != nil {
			if ui, ok := err.(*machines.UnconsumedInput); ok {
				scanner.TC = ui.FailTC
				return nil, rpal.NewErrorAt(rpal.LexErr,
					fmt.Sprintf("unrecognized character at offset %d", ui.StartTC),
					rpal.Span{ui.StartTC, ui.StartTC + 1})
			}
			return nil, rpal.NewError(rpal.LexErr, err.Error())
		}
		lt := tok.(*lexmachine.Token)
		toks = append(toks, rpal.Token{
			Type:   rpal.TokType(lt.Type),
			Lexeme: string(lt.Lexeme),
			Span:   rpal.Span{lt.TC, lt.TC + len(lt.Lexeme)},
		})
	}
	toks = append(toks, rpal.Token{Type: rpal.TokEOF, Lexeme: "", Span: rpal.Span{len(src), len(src)}})
	return toks, nil
}
