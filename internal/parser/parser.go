// Package parser builds syntax trees from lexer tokens.
//
// The parser is recursive descent. A relational expression is an atom (a
// name or a parenthesized expression) followed by any number of postfix
// operators, each wrapping the expression built so far:
//
//	E ? salary > 50000 # [name salary] $ salary- ^ 3
//
// is Take(Sort(Project(Filter(E)))). Postfix operators have no relative
// precedence; they apply strictly left to right. The right operand of a
// join or set operator is an atom, so longer right-hand chains need
// parentheses.
//
// Inside extend computations the arithmetic operators take their usual
// meaning with * and / binding tighter than + and -.
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/codd/internal/ast"
	"github.com/roach88/codd/internal/lexer"
)

// Error is a parse failure at the position of the offending token.
type Error struct {
	Message string
	Line    int
	Col     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Message)
}

// IsParseError reports whether err is (or wraps) a parser Error.
func IsParseError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

// Parse builds a statement from a token sequence ending in EOF.
func Parse(tokens []lexer.Token) (ast.Statement, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.EOF {
		tokens = append(tokens, lexer.Token{Type: lexer.EOF})
	}
	p := &parser{tokens: tokens}
	stmt, err := p.statement()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(0); tok.Type != lexer.EOF {
		return nil, p.errorf(tok, "unexpected token %s", describe(tok))
	}
	return stmt, nil
}

// ParseString tokenizes and parses src.
func ParseString(src string) (ast.Statement, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// ParseRelExpr parses src and requires a relational expression rather
// than an assignment.
func ParseRelExpr(src string) (ast.RelExpr, error) {
	stmt, err := ParseString(src)
	if err != nil {
		return nil, err
	}
	rel, ok := stmt.(ast.RelExpr)
	if !ok {
		return nil, &Error{Message: "expected an expression, got an assignment", Line: 1, Col: 1}
	}
	return rel, nil
}

// ParseExpr parses src as a scalar computation, the form that appears to
// the right of a name in extend: "2 + 3", "#. E", "round(%. (E # salary) salary)".
func ParseExpr(src string) (ast.Expr, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.EOF {
		p.tokens = append(p.tokens, lexer.Token{Type: lexer.EOF})
	}
	e, err := p.computation()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(0); tok.Type != lexer.EOF {
		return nil, p.errorf(tok, "unexpected token %s", describe(tok))
	}
	return e, nil
}

type parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *parser) peek(offset int) lexer.Token {
	if i := p.pos + offset; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) at(tt lexer.TokenType) bool {
	return p.peek(0).Type == tt
}

func (p *parser) advance() lexer.Token {
	tok := p.peek(0)
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.peek(0)
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, got %s", tt, describe(tok))
	}
	return p.advance(), nil
}

func (p *parser) ident() (string, error) {
	tok, err := p.expect(lexer.IDENT)
	return tok.Value, err
}

func (p *parser) errorf(tok lexer.Token, format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: tok.Line, Col: tok.Col}
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "end of input"
	}
	return strconv.Quote(tok.Value)
}

// ============================================================================
// Statements and relational expressions
// ============================================================================

func (p *parser) statement() (ast.Statement, error) {
	if p.at(lexer.IDENT) && p.peek(1).Type == lexer.COLON_EQ {
		name := p.advance().Value
		p.advance()
		expr, err := p.relExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Name: name, Expr: expr}, nil
	}
	return p.relExpr()
}

func (p *parser) relExpr() (ast.RelExpr, error) {
	left, err := p.atom()
	if err != nil {
		return nil, err
	}
	return p.postfixChain(left)
}

func (p *parser) atom() (ast.RelExpr, error) {
	tok := p.peek(0)
	switch tok.Type {
	case lexer.IDENT:
		p.advance()
		return &ast.RelName{Name: tok.Value}, nil
	case lexer.LPAREN:
		p.advance()
		expr, err := p.relExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.errorf(tok, "expected relation name or '(', got %s", describe(tok))
}

func (p *parser) postfixChain(left ast.RelExpr) (ast.RelExpr, error) {
	for {
		var (
			next ast.RelExpr
			err  error
		)
		switch p.peek(0).Type {
		case lexer.QUESTION:
			p.advance()
			next, err = p.filter(left, false)
		case lexer.QUESTION_BANG:
			p.advance()
			next, err = p.filter(left, true)
		case lexer.HASH:
			p.advance()
			next, err = p.project(left, false)
		case lexer.HASH_BANG:
			p.advance()
			next, err = p.project(left, true)
		case lexer.STAR:
			p.advance()
			next, err = p.join(left)
		case lexer.STAR_COLON:
			p.advance()
			next, err = p.nestJoin(left)
		case lexer.LT_COLON:
			p.advance()
			next, err = p.unnest(left)
		case lexer.PLUS:
			p.advance()
			next, err = p.extend(left)
		case lexer.AT:
			p.advance()
			next, err = p.rename(left)
		case lexer.PIPE, lexer.MINUS, lexer.AMPERSAND:
			next, err = p.setOp(left, p.advance().Type)
		case lexer.SLASH:
			p.advance()
			next, err = p.summarize(left)
		case lexer.SLASH_DOT:
			p.advance()
			next, err = p.summarizeAll(left)
		case lexer.SLASH_COLON:
			p.advance()
			next, err = p.nestBy(left)
		case lexer.DOLLAR:
			p.advance()
			next, err = p.sort(left)
		case lexer.CARET:
			p.advance()
			next, err = p.take(left)
		default:
			return left, nil
		}
		if err != nil {
			return nil, err
		}
		left = next
	}
}

func (p *parser) filter(source ast.RelExpr, negated bool) (ast.RelExpr, error) {
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	if negated {
		return &ast.NegatedFilter{Source: source, Cond: cond}, nil
	}
	return &ast.Filter{Source: source, Cond: cond}, nil
}

func (p *parser) project(source ast.RelExpr, remove bool) (ast.RelExpr, error) {
	attrs, err := p.attrList()
	if err != nil {
		return nil, err
	}
	if remove {
		return &ast.Remove{Source: source, Attrs: attrs}, nil
	}
	return &ast.Project{Source: source, Attrs: attrs}, nil
}

func (p *parser) join(source ast.RelExpr) (ast.RelExpr, error) {
	right, err := p.atom()
	if err != nil {
		return nil, err
	}
	return &ast.NaturalJoin{Source: source, Right: right}, nil
}

func (p *parser) nestJoin(source ast.RelExpr) (ast.RelExpr, error) {
	right, err := p.atom()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.GT); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	return &ast.NestJoin{Source: source, Right: right, Name: name}, nil
}

func (p *parser) unnest(source ast.RelExpr) (ast.RelExpr, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	return &ast.Unnest{Source: source, Name: name}, nil
}

func (p *parser) extend(source ast.RelExpr) (ast.RelExpr, error) {
	var comps []ast.Computation
	err := p.bracketed(func() error {
		name, err := p.ident()
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return err
		}
		expr, err := p.computation()
		if err != nil {
			return err
		}
		comps = append(comps, ast.Computation{Name: name, Expr: expr})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ast.Extend{Source: source, Computations: comps}, nil
}

func (p *parser) rename(source ast.RelExpr) (ast.RelExpr, error) {
	var pairs []ast.RenamePair
	err := p.bracketed(func() error {
		old, err := p.ident()
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.GT); err != nil {
			return err
		}
		renamed, err := p.ident()
		if err != nil {
			return err
		}
		pairs = append(pairs, ast.RenamePair{Old: old, New: renamed})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ast.Rename{Source: source, Pairs: pairs}, nil
}

func (p *parser) setOp(source ast.RelExpr, op lexer.TokenType) (ast.RelExpr, error) {
	right, err := p.atom()
	if err != nil {
		return nil, err
	}
	switch op {
	case lexer.PIPE:
		return &ast.Union{Source: source, Right: right}, nil
	case lexer.MINUS:
		return &ast.Difference{Source: source, Right: right}, nil
	default:
		return &ast.Intersect{Source: source, Right: right}, nil
	}
}

func (p *parser) summarize(source ast.RelExpr) (ast.RelExpr, error) {
	keys, err := p.attrList()
	if err != nil {
		return nil, err
	}
	aggs, err := p.aggregates()
	if err != nil {
		return nil, err
	}
	return &ast.Summarize{Source: source, Keys: keys, Aggregates: aggs}, nil
}

func (p *parser) summarizeAll(source ast.RelExpr) (ast.RelExpr, error) {
	aggs, err := p.aggregates()
	if err != nil {
		return nil, err
	}
	return &ast.SummarizeAll{Source: source, Aggregates: aggs}, nil
}

func (p *parser) nestBy(source ast.RelExpr) (ast.RelExpr, error) {
	keys, err := p.attrList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.GT); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	return &ast.NestBy{Source: source, Keys: keys, Name: name}, nil
}

func (p *parser) sort(source ast.RelExpr) (ast.RelExpr, error) {
	var keys []ast.SortKey
	err := p.bracketed(func() error {
		attr, err := p.ident()
		if err != nil {
			return err
		}
		key := ast.SortKey{Attr: attr}
		if p.at(lexer.MINUS) {
			p.advance()
			key.Descending = true
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ast.Sort{Source: source, Keys: keys}, nil
}

func (p *parser) take(source ast.RelExpr) (ast.RelExpr, error) {
	tok, err := p.expect(lexer.INTEGER)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(tok.Value)
	if err != nil {
		return nil, p.errorf(tok, "take count %s out of range", tok.Value)
	}
	return &ast.Take{Source: source, Count: n}, nil
}

// ============================================================================
// Lists
// ============================================================================

// bracketed runs item once, or for each entry of a [ ... ] list.
func (p *parser) bracketed(item func() error) error {
	if !p.at(lexer.LBRACKET) {
		return item()
	}
	p.advance()
	for !p.at(lexer.RBRACKET) {
		if p.at(lexer.EOF) {
			return p.errorf(p.peek(0), "expected ], got end of input")
		}
		if err := item(); err != nil {
			return err
		}
	}
	p.advance()
	return nil
}

func (p *parser) attrList() ([]string, error) {
	attrs := []string{}
	err := p.bracketed(func() error {
		name, err := p.ident()
		if err != nil {
			return err
		}
		attrs = append(attrs, name)
		return nil
	})
	return attrs, err
}

func (p *parser) aggregates() ([]ast.NamedAggregate, error) {
	var aggs []ast.NamedAggregate
	err := p.bracketed(func() error {
		name, err := p.ident()
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return err
		}
		tok := p.peek(0)
		if !tok.Type.IsAggregate() {
			return p.errorf(tok, "expected aggregate function, got %s", describe(tok))
		}
		call, err := p.aggregateCall()
		if err != nil {
			return err
		}
		aggs = append(aggs, ast.NamedAggregate{Name: name, Call: call})
		return nil
	})
	return aggs, err
}

// aggregateCall parses an aggregate operator and its optional operand. An
// identifier followed by ':' starts the next list entry and is left alone.
func (p *parser) aggregateCall() (*ast.AggregateCall, error) {
	call := &ast.AggregateCall{Func: ast.AggFunc(p.advance().Value)}

	switch {
	case p.at(lexer.LPAREN):
		p.advance()
		src, err := p.relExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		call.Source = src
		if call.Func.NeedsAttr() {
			if call.Attr, err = p.ident(); err != nil {
				return nil, err
			}
		}
	case p.at(lexer.IDENT):
		next := p.peek(1).Type
		switch {
		case next == lexer.DOT && p.peek(2).Type == lexer.IDENT:
			call.Source = &ast.RelName{Name: p.advance().Value}
			p.advance()
			call.Attr = p.advance().Value
		case next == lexer.COLON || next == lexer.COLON_EQ:
		case call.Func == ast.AggCount:
			call.Source = &ast.RelName{Name: p.advance().Value}
		default:
			call.Attr = p.advance().Value
		}
	}
	return call, nil
}

// ============================================================================
// Conditions
// ============================================================================

func (p *parser) condition() (ast.Condition, error) {
	if !p.at(lexer.LPAREN) {
		return p.comparison()
	}
	p.advance()
	cond, err := p.boolExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

// boolExpr combines operands left to right; & and | share one precedence.
func (p *parser) boolExpr() (ast.Condition, error) {
	left, err := p.condition()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.AMPERSAND) || p.at(lexer.PIPE) {
		op := p.advance().Value
		right, err := p.condition()
		if err != nil {
			return nil, err
		}
		left = &ast.BoolOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = map[lexer.TokenType]string{
	lexer.EQ:      ast.OpEq,
	lexer.BANG_EQ: ast.OpNe,
	lexer.GT:      ast.OpGt,
	lexer.LT:      ast.OpLt,
	lexer.GT_EQ:   ast.OpGe,
	lexer.LT_EQ:   ast.OpLe,
}

func (p *parser) comparison() (*ast.Comparison, error) {
	var (
		left ast.Expr
		err  error
	)
	if tok := p.peek(0); tok.Type.IsAggregate() {
		left, err = p.aggregateCall()
	} else {
		left, err = p.attrRef()
	}
	if err != nil {
		return nil, err
	}

	tok := p.peek(0)
	op, ok := comparisonOps[tok.Type]
	if !ok {
		return nil, p.errorf(tok, "expected comparison operator, got %s", describe(tok))
	}
	p.advance()

	right, err := p.value()
	if err != nil {
		return nil, err
	}
	return &ast.Comparison{Left: left, Op: op, Right: right}, nil
}

func (p *parser) attrRef() (*ast.AttrRef, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	parts := []string{name}
	for p.at(lexer.DOT) && p.peek(1).Type == lexer.IDENT {
		p.advance()
		parts = append(parts, p.advance().Value)
	}
	return &ast.AttrRef{Parts: parts}, nil
}

// value parses the right side of a comparison.
func (p *parser) value() (ast.Expr, error) {
	tok := p.peek(0)
	switch tok.Type {
	case lexer.INTEGER, lexer.FLOAT, lexer.STRING, lexer.BOOLEAN:
		return p.literal()
	case lexer.MINUS:
		return p.negative()
	case lexer.LBRACE:
		return p.setLiteral()
	case lexer.LPAREN:
		p.advance()
		query, err := p.relExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return &ast.Subquery{Query: query}, nil
	case lexer.IDENT:
		return p.attrRef()
	}
	return nil, p.errorf(tok, "expected value, got %s", describe(tok))
}

func (p *parser) setLiteral() (*ast.SetLit, error) {
	p.advance()
	set := &ast.SetLit{Elems: []ast.Expr{}}
	for !p.at(lexer.RBRACE) {
		if p.at(lexer.EOF) {
			return nil, p.errorf(p.peek(0), "expected }, got end of input")
		}
		el, err := p.value()
		if err != nil {
			return nil, err
		}
		set.Elems = append(set.Elems, el)
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.advance()
	return set, nil
}

// ============================================================================
// Computations
// ============================================================================

// computation parses an extend expression:
//
//	computation := '?' condition computation computation | additive
//	additive    := term (('+' | '-') term)*
//	term        := primary (('*' | '/') primary)*
func (p *parser) computation() (ast.Expr, error) {
	if !p.at(lexer.QUESTION) {
		return p.additive()
	}
	p.advance()
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	then, err := p.computation()
	if err != nil {
		return nil, err
	}
	els, err := p.computation()
	if err != nil {
		return nil, err
	}
	return &ast.Ternary{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) additive() (ast.Expr, error) {
	return p.binary(p.term, lexer.PLUS, lexer.MINUS)
}

func (p *parser) term() (ast.Expr, error) {
	return p.binary(p.primary, lexer.STAR, lexer.SLASH)
}

func (p *parser) binary(operand func() (ast.Expr, error), ops ...lexer.TokenType) (ast.Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek(0)
		matched := false
		for _, op := range ops {
			if tok.Type == op {
				matched = true
			}
		}
		if !matched {
			return left, nil
		}
		p.advance()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: tok.Value, Left: left, Right: right}
	}
}

func (p *parser) primary() (ast.Expr, error) {
	tok := p.peek(0)
	switch {
	case tok.Type.IsAggregate():
		return p.aggregateCall()
	case tok.Type == lexer.MINUS:
		return p.negative()
	case tok.Type == lexer.IDENT && p.peek(1).Type == lexer.LPAREN:
		return p.funcCall()
	case tok.Type == lexer.IDENT:
		return p.attrRef()
	case tok.Type == lexer.LPAREN:
		p.advance()
		expr, err := p.computation()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case tok.Type == lexer.INTEGER, tok.Type == lexer.FLOAT,
		tok.Type == lexer.STRING, tok.Type == lexer.BOOLEAN:
		return p.literal()
	}
	return nil, p.errorf(tok, "expected value in computation, got %s", describe(tok))
}

func (p *parser) funcCall() (ast.Expr, error) {
	call := &ast.FuncCall{Name: p.advance().Value, Args: []ast.Expr{}}
	p.advance()
	for !p.at(lexer.RPAREN) {
		if len(call.Args) > 0 {
			if _, err := p.expect(lexer.COMMA); err != nil {
				return nil, err
			}
		}
		arg, err := p.computation()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
	p.advance()
	return call, nil
}

func (p *parser) literal() (ast.Expr, error) {
	tok := p.advance()
	switch tok.Type {
	case lexer.INTEGER:
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "integer literal %s out of range", tok.Value)
		}
		return &ast.IntLit{Value: v}, nil
	case lexer.FLOAT:
		return &ast.FloatLit{Text: tok.Value}, nil
	case lexer.STRING:
		return &ast.StringLit{Value: tok.Value}, nil
	default:
		return &ast.BoolLit{Value: tok.Value == "true"}, nil
	}
}

// negative parses '-' directly followed by a numeric literal.
func (p *parser) negative() (ast.Expr, error) {
	minus := p.advance()
	tok := p.peek(0)
	switch tok.Type {
	case lexer.INTEGER:
		p.advance()
		v, err := strconv.ParseInt("-"+tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "integer literal -%s out of range", tok.Value)
		}
		return &ast.IntLit{Value: v}, nil
	case lexer.FLOAT:
		p.advance()
		return &ast.FloatLit{Text: "-" + tok.Value}, nil
	}
	return nil, p.errorf(minus, "expected number after '-', got %s", describe(tok))
}
