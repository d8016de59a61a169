// Package parse implements a hand-rolled recursive-descent parser over the
// token stream produced by internal/lexer, building internal/ast trees.
//
// Grounded on original_source/rpal_project/parser/parser.py: the same
// grammar (E, Ew, T, Ta, Tc, B, Bt, Bs, Bp, A, At, Af, Ap, R, Rn, D, Da,
// Dr, Db, Vb, Vl), transliterated from the reference's token-list/index
// style into a cursor over []rpal.Token. gorgo ships its own LR/Earley
// parser machinery (lr/), but the reference implementation is hand-rolled
// recursive descent and spec.md calls for the same approach, so this
// package does not reuse gorgo's table-driven parser.
package parse

import (
	"fmt"

	"github.com/gorpal/rpal"
	"github.com/gorpal/rpal/internal/ast"
	"github.com/gorpal/rpal/internal/rtrace"
)

// SyntaxError carries expected/found token detail, mirroring the
// reference's own SyntaxError.
type SyntaxError struct {
	Expected string
	Found    rpal.Token
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expected %s, found %q", e.Expected, e.Found.Lexeme)
}

type parser struct {
	toks []rpal.Token
	pos  int
}

// Parse consumes tokens into a single AST covering the whole program.
func Parse(tokens []rpal.Token) (*ast.Node, error) {
	p := &parser{toks: tokens}
	rtrace.T().Debugf("parse: %d tokens", len(tokens))
	e, err := p.parseE()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.errorf("end of input", "trailing tokens starting with %q", p.cur().Lexeme)
	}
	return e, nil
}

func (p *parser) cur() rpal.Token  { return p.toks[p.pos] }
func (p *parser) atEOF() bool      { return p.cur().Type == rpal.TokEOF }
func (p *parser) advance() rpal.Token {
	t := p.cur()
	if t.Type != rpal.TokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(expected, format string, args ...interface{}) error {
	return rpal.NewErrorAt(rpal.SyntaxErr,
		fmt.Sprintf("%s (%s)", fmt.Sprintf(format, args...), (&SyntaxError{Expected: expected, Found: p.cur()}).Error()),
		p.cur().Span)
}

func (p *parser) isKeyword(lexeme string) bool {
	return p.cur().Type == rpal.TokKeyword && p.cur().Lexeme == lexeme
}

func (p *parser) isOp(lexeme string) bool {
	return p.cur().Type == rpal.TokOperator && p.cur().Lexeme == lexeme
}

func (p *parser) isPunct(lexeme string) bool {
	return p.cur().Type == rpal.TokPunct && p.cur().Lexeme == lexeme
}

func (p *parser) expectKeyword(lexeme string) error {
	if !p.isKeyword(lexeme) {
		return p.errorf("'"+lexeme+"'", "missing keyword %q", lexeme)
	}
	p.advance()
	return nil
}

func (p *parser) expectPunct(lexeme string) error {
	if !p.isPunct(lexeme) {
		return p.errorf("'"+lexeme+"'", "missing %q", lexeme)
	}
	p.advance()
	return nil
}

// ---- E: expressions -------------------------------------------------

func (p *parser) parseE() (*ast.Node, error) {
	tok := p.cur()
	switch {
	case p.isKeyword("let"):
		span := tok.Span
		p.advance()
		d, err := p.parseD()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("in"); err != nil {
			return nil, err
		}
		e, err := p.parseE()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.Let, span, d, e), nil

	case p.isKeyword("fn"):
		span := tok.Span
		p.advance()
		var vbs []*ast.Node
		for {
			vb, err := p.parseVb()
			if err != nil {
				return nil, err
			}
			vbs = append(vbs, vb)
			if p.isPunct(".") {
				break
			}
		}
		if err := p.expectPunct("."); err != nil {
			return nil, err
		}
		body, err := p.parseE()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.Lambda, span, append(vbs, body)...), nil

	default:
		return p.parseEw()
	}
}

func (p *parser) parseEw() (*ast.Node, error) {
	t, err := p.parseT()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("where") {
		span := p.cur().Span
		p.advance()
		d, err := p.parseDr()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.Where, span, t, d), nil
	}
	return t, nil
}

// T -> Ta (',' Ta)+ => tau | Ta
func (p *parser) parseT() (*ast.Node, error) {
	span := p.cur().Span
	first, err := p.parseTa()
	if err != nil {
		return nil, err
	}
	if !p.isPunct(",") {
		return first, nil
	}
	elems := []*ast.Node{first}
	for p.isPunct(",") {
		p.advance()
		next, err := p.parseTa()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
	}
	return ast.New(ast.Tau, span, elems...), nil
}

// Ta -> Ta 'aug' Tc => aug | Tc
func (p *parser) parseTa() (*ast.Node, error) {
	left, err := p.parseTc()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("aug") {
		span := p.cur().Span
		p.advance()
		right, err := p.parseTc()
		if err != nil {
			return nil, err
		}
		op := ast.New(ast.Op, span, left, right)
		op.Text = "aug"
		left = op
	}
	return left, nil
}

// Tc -> B '->' Tc '|' Tc => -> | B
func (p *parser) parseTc() (*ast.Node, error) {
	b, err := p.parseB()
	if err != nil {
		return nil, err
	}
	if p.isOp("->") {
		span := p.cur().Span
		p.advance()
		then, err := p.parseTc()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("|"); err != nil {
			return nil, err
		}
		els, err := p.parseTc()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.Cond, span, b, then, els), nil
	}
	return b, nil
}

// B -> B 'or' Bt => or | Bt
func (p *parser) parseB() (*ast.Node, error) {
	left, err := p.parseBt()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		span := p.cur().Span
		p.advance()
		right, err := p.parseBt()
		if err != nil {
			return nil, err
		}
		op := ast.New(ast.Op, span, left, right)
		op.Text = "or"
		left = op
	}
	return left, nil
}

// Bt -> Bt '&' Bs => & | Bs
func (p *parser) parseBt() (*ast.Node, error) {
	left, err := p.parseBs()
	if err != nil {
		return nil, err
	}
	for p.isOp("&") {
		span := p.cur().Span
		p.advance()
		right, err := p.parseBs()
		if err != nil {
			return nil, err
		}
		op := ast.New(ast.Op, span, left, right)
		op.Text = "&"
		left = op
	}
	return left, nil
}

// Bs -> 'not' Bp => not | Bp
func (p *parser) parseBs() (*ast.Node, error) {
	if p.isKeyword("not") {
		span := p.cur().Span
		p.advance()
		operand, err := p.parseBp()
		if err != nil {
			return nil, err
		}
		op := ast.New(ast.Op, span, operand)
		op.Text = "not"
		return op, nil
	}
	return p.parseBp()
}

var comparisonOps = map[string]string{
	"gr": "gr", ">": "gr",
	"ge": "ge", ">=": "ge",
	"ls": "ls", "<": "ls",
	"le": "le", "<=": "le",
	"eq": "eq",
	"ne": "ne",
}

// Bp -> A ('gr'|'ge'|'ls'|'le'|'eq'|'ne') A | A
func (p *parser) parseBp() (*ast.Node, error) {
	left, err := p.parseA()
	if err != nil {
		return nil, err
	}
	name := p.cur().Lexeme
	isCmp := (p.cur().Type == rpal.TokKeyword || p.cur().Type == rpal.TokOperator) && comparisonOps[name] != ""
	if !isCmp {
		return left, nil
	}
	span := p.cur().Span
	canon := comparisonOps[name]
	p.advance()
	right, err := p.parseA()
	if err != nil {
		return nil, err
	}
	op := ast.New(ast.Op, span, left, right)
	op.Text = canon
	return op, nil
}

// A -> A '+' At | A '-' At | '+' At | '-' At => neg | At
func (p *parser) parseA() (*ast.Node, error) {
	var left *ast.Node
	var err error
	if p.isOp("+") {
		p.advance()
		left, err = p.parseAt()
		if err != nil {
			return nil, err
		}
	} else if p.isOp("-") {
		span := p.cur().Span
		p.advance()
		operand, err2 := p.parseAt()
		if err2 != nil {
			return nil, err2
		}
		op := ast.New(ast.Op, span, operand)
		op.Text = "neg"
		left = op
	} else {
		left, err = p.parseAt()
		if err != nil {
			return nil, err
		}
	}
	for p.isOp("+") || p.isOp("-") {
		sign := p.cur().Lexeme
		span := p.cur().Span
		p.advance()
		right, err := p.parseAt()
		if err != nil {
			return nil, err
		}
		op := ast.New(ast.Op, span, left, right)
		op.Text = sign
		left = op
	}
	return left, nil
}

// At -> At '*' Af | At '/' Af | Af
func (p *parser) parseAt() (*ast.Node, error) {
	left, err := p.parseAf()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") {
		sign := p.cur().Lexeme
		span := p.cur().Span
		p.advance()
		right, err := p.parseAf()
		if err != nil {
			return nil, err
		}
		op := ast.New(ast.Op, span, left, right)
		op.Text = sign
		left = op
	}
	return left, nil
}

// Af -> Ap '**' Af | Ap   (right-associative)
func (p *parser) parseAf() (*ast.Node, error) {
	left, err := p.parseAp()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		span := p.cur().Span
		p.advance()
		right, err := p.parseAf()
		if err != nil {
			return nil, err
		}
		op := ast.New(ast.Op, span, left, right)
		op.Text = "**"
		return op, nil
	}
	return left, nil
}

// Ap -> Ap '@' '<IDENTIFIER>' R => @ | R
func (p *parser) parseAp() (*ast.Node, error) {
	left, err := p.parseR()
	if err != nil {
		return nil, err
	}
	for p.isOp("@") {
		span := p.cur().Span
		p.advance()
		if p.cur().Type != rpal.TokIdentifier {
			return nil, p.errorf("identifier", "@ requires an identifier operator name")
		}
		name := ast.Leaf(ast.Ident, p.cur().Lexeme, p.cur().Span)
		p.advance()
		right, err := p.parseR()
		if err != nil {
			return nil, err
		}
		left = ast.New(ast.At, span, left, name, right)
	}
	return left, nil
}

// R -> R Rn => gamma | Rn
func (p *parser) parseR() (*ast.Node, error) {
	left, err := p.parseRn()
	if err != nil {
		return nil, err
	}
	for p.startsRn() {
		span := p.cur().Span
		right, err := p.parseRn()
		if err != nil {
			return nil, err
		}
		left = ast.New(ast.Gamma, span, left, right)
	}
	return left, nil
}

func (p *parser) startsRn() bool {
	t := p.cur()
	switch t.Type {
	case rpal.TokIdentifier, rpal.TokInteger, rpal.TokString:
		return true
	case rpal.TokKeyword:
		return t.Lexeme == "true" || t.Lexeme == "false" || t.Lexeme == "nil" || t.Lexeme == "dummy"
	case rpal.TokPunct:
		return t.Lexeme == "("
	}
	return false
}

// Rn -> IDENTIFIER | INTEGER | STRING | 'true' | 'false' | 'nil' |
//       '(' E ')' | 'dummy'
func (p *parser) parseRn() (*ast.Node, error) {
	t := p.cur()
	switch t.Type {
	case rpal.TokIdentifier:
		p.advance()
		return ast.Leaf(ast.Ident, t.Lexeme, t.Span), nil
	case rpal.TokInteger:
		p.advance()
		return ast.IntLeaf(parseIntLiteral(t.Lexeme), t.Span), nil
	case rpal.TokString:
		p.advance()
		return ast.Leaf(ast.StringLit, unescapeString(t.Lexeme), t.Span), nil
	case rpal.TokKeyword:
		switch t.Lexeme {
		case "true":
			p.advance()
			n := ast.Leaf(ast.TruthLit, "true", t.Span)
			n.IntVal = 1
			return n, nil
		case "false":
			p.advance()
			n := ast.Leaf(ast.TruthLit, "false", t.Span)
			n.IntVal = 0
			return n, nil
		case "nil":
			p.advance()
			return ast.Leaf(ast.NilLit, "nil", t.Span), nil
		case "dummy":
			p.advance()
			return ast.Leaf(ast.Dummy, "dummy", t.Span), nil
		}
	case rpal.TokPunct:
		if t.Lexeme == "(" {
			p.advance()
			e, err := p.parseE()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	}
	return nil, p.errorf("identifier, literal, or '('", "unexpected token %q", t.Lexeme)
}

// ---- D: definitions ---------------------------------------------------

// D -> Da 'within' D => within | Da
func (p *parser) parseD() (*ast.Node, error) {
	left, err := p.parseDa()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("within") {
		span := p.cur().Span
		p.advance()
		right, err := p.parseD()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.Within, span, left, right), nil
	}
	return left, nil
}

// Da -> Dr ('and' Dr)+ => and | Dr
func (p *parser) parseDa() (*ast.Node, error) {
	span := p.cur().Span
	first, err := p.parseDr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("and") {
		return first, nil
	}
	elems := []*ast.Node{first}
	for p.isKeyword("and") {
		p.advance()
		next, err := p.parseDr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
	}
	return ast.New(ast.And, span, elems...), nil
}

// Dr -> 'rec' Db => rec | Db
func (p *parser) parseDr() (*ast.Node, error) {
	if p.isKeyword("rec") {
		span := p.cur().Span
		p.advance()
		db, err := p.parseDb()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.Rec, span, db), nil
	}
	return p.parseDb()
}

// Db -> Vl '=' E => '=' | IDENTIFIER Vb+ '=' E => fcn_form | '(' D ')'
func (p *parser) parseDb() (*ast.Node, error) {
	if p.isPunct("(") {
		p.advance()
		d, err := p.parseD()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return d, nil
	}

	start := p.pos
	span := p.cur().Span

	// Try IDENTIFIER Vb+ '=' E (fcn_form); IDENTIFIER here can only be a
	// bare name, so the comma-tuple Vl alternative is tried on backtrack.
	if p.cur().Type == rpal.TokIdentifier {
		name := p.cur()
		p.advance()
		if p.startsVb() {
			var vbs []*ast.Node
			ok := true
			for p.startsVb() {
				vb, err := p.parseVb()
				if err != nil {
					ok = false
					break
				}
				vbs = append(vbs, vb)
			}
			if ok && p.isOp("=") {
				p.advance()
				e, err := p.parseE()
				if err != nil {
					return nil, err
				}
				f := ast.Leaf(ast.Ident, name.Lexeme, name.Span)
				return ast.New(ast.FcnForm, span, append(append([]*ast.Node{f}, vbs...), e)...), nil
			}
		}
	}

	// Backtrack: Vl '=' E.
	p.pos = start
	vl, err := p.parseVl()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("="); err != nil {
		return nil, err
	}
	e, err := p.parseE()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.Eq, span, vl, e), nil
}

func (p *parser) expectOp(lexeme string) error {
	if !p.isOp(lexeme) {
		return p.errorf("'"+lexeme+"'", "missing %q", lexeme)
	}
	p.advance()
	return nil
}

func (p *parser) startsVb() bool {
	t := p.cur()
	return t.Type == rpal.TokIdentifier || (t.Type == rpal.TokPunct && t.Lexeme == "(")
}

// Vb -> IDENTIFIER | '(' Vl ')' | '(' ')' => '()'
func (p *parser) parseVb() (*ast.Node, error) {
	t := p.cur()
	if t.Type == rpal.TokIdentifier {
		p.advance()
		return ast.Leaf(ast.Ident, t.Lexeme, t.Span), nil
	}
	if p.isPunct("(") {
		span := t.Span
		p.advance()
		if p.isPunct(")") {
			p.advance()
			return ast.Leaf(ast.EmptyParam, "", span), nil
		}
		vl, err := p.parseVl()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return vl, nil
	}
	return nil, p.errorf("identifier or '('", "unexpected token %q", t.Lexeme)
}

// Vl -> IDENTIFIER (',' IDENTIFIER)*  -- single identifier or a comma-tuple.
func (p *parser) parseVl() (*ast.Node, error) {
	if p.cur().Type != rpal.TokIdentifier {
		return nil, p.errorf("identifier", "expected identifier in binder list")
	}
	span := p.cur().Span
	first := ast.Leaf(ast.Ident, p.cur().Lexeme, p.cur().Span)
	p.advance()
	if !p.isPunct(",") {
		return first, nil
	}
	names := []*ast.Node{first}
	for p.isPunct(",") {
		p.advance()
		if p.cur().Type != rpal.TokIdentifier {
			return nil, p.errorf("identifier", "expected identifier after ','")
		}
		names = append(names, ast.Leaf(ast.Ident, p.cur().Lexeme, p.cur().Span))
		p.advance()
	}
	return ast.New(ast.CommaTuple, span, names...), nil
}

func parseIntLiteral(lexeme string) int64 {
	var v int64
	for _, c := range lexeme {
		v = v*10 + int64(c-'0')
	}
	return v
}

// unescapeString strips the surrounding quotes and resolves the reference
// language's string escapes (\n, \t, \\, \', \").
func unescapeString(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}
	inner := lexeme[1 : len(lexeme)-1]
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '\\':
				out = append(out, '\\')
			case '\'':
				out = append(out, '\'')
			case '"':
				out = append(out, '"')
			default:
				out = append(out, inner[i])
			}
			continue
		}
		out = append(out, inner[i])
	}
	return string(out)
}
