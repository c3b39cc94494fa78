// Package lexer converts query source text into tokens.
//
// Operators are resolved with two-character lookahead: every digraph is
// tried before its single-character prefix, so "?!" never lexes as "?"
// followed by "!". Numbers take a fractional part only when the dot is
// followed by a digit, which keeps "0.1" distinct from dot operators such
// as "#." that never have a digit after the dot.
package lexer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Error is a tokenization failure with the position where it occurred.
type Error struct {
	Message string
	Line    int
	Col     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Col, e.Message)
}

// IsLexError reports whether err is (or wraps) a lexer Error.
func IsLexError(err error) bool {
	var le *Error
	return errors.As(err, &le)
}

var digraphs = map[string]TokenType{
	"?!": QUESTION_BANG,
	"?=": QUESTION_EQ,
	"*:": STAR_COLON,
	"/.": SLASH_DOT,
	"/:": SLASH_COLON,
	"+:": PLUS_COLON,
	"+.": PLUS_DOT,
	"#.": HASH_DOT,
	"#!": HASH_BANG,
	">.": GT_DOT,
	">=": GT_EQ,
	"<:": LT_COLON,
	"<.": LT_DOT,
	"<=": LT_EQ,
	"%.": PERCENT_DOT,
	":=": COLON_EQ,
	"::": COLON_COLON,
	"|=": PIPE_EQ,
	"-=": MINUS_EQ,
	"!=": BANG_EQ,
	"!~": BANG_TILDE,
}

var singles = map[byte]TokenType{
	'?': QUESTION,
	'#': HASH,
	'*': STAR,
	'@': AT,
	'+': PLUS,
	'-': MINUS,
	'|': PIPE,
	'&': AMPERSAND,
	'/': SLASH,
	'$': DOLLAR,
	'^': CARET,
	'>': GT,
	'<': LT,
	'=': EQ,
	'~': TILDE,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	'{': LBRACE,
	'}': RBRACE,
	':': COLON,
	'.': DOT,
	',': COMMA,
}

// Lexer scans one source string. Use Tokenize unless tokens are needed
// one at a time.
type Lexer struct {
	src  string
	pos  int
	line int
	col  int
}

// New creates a lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize scans the whole source and returns its tokens, ending with EOF.
func Tokenize(src string) ([]Token, error) {
	l := New(src)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) peek(offset int) byte {
	if p := l.pos + offset; p < len(l.src) {
		return l.src[p]
	}
	return 0
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		switch ch := l.peek(0); {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '-' && l.peek(1) == '-':
			for l.pos < len(l.src) && l.peek(0) != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	line, col := l.line, l.col
	tok := func(tt TokenType, value string) Token {
		return Token{Type: tt, Value: value, Line: line, Col: col}
	}

	if l.pos >= len(l.src) {
		return tok(EOF, ""), nil
	}

	ch := l.peek(0)

	if l.pos+1 < len(l.src) {
		pair := l.src[l.pos : l.pos+2]
		if tt, ok := digraphs[pair]; ok {
			l.advance()
			l.advance()
			return tok(tt, pair), nil
		}
	}

	switch {
	case isDigit(ch):
		return l.scanNumber(tok), nil
	case ch == '"':
		return l.scanString(line, col)
	case isIdentStart(ch):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.peek(0)) {
			l.advance()
		}
		word := l.src[start:l.pos]
		if word == "true" || word == "false" {
			return tok(BOOLEAN, word), nil
		}
		return tok(IDENT, word), nil
	}

	if tt, ok := singles[ch]; ok {
		l.advance()
		return tok(tt, string(ch)), nil
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return Token{}, &Error{
		Message: fmt.Sprintf("unexpected character %q", r),
		Line:    line,
		Col:     col,
	}
}

func (l *Lexer) scanNumber(tok func(TokenType, string) Token) Token {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek(0)) {
		l.advance()
	}
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peek(0)) {
			l.advance()
		}
		return tok(FLOAT, l.src[start:l.pos])
	}
	return tok(INTEGER, l.src[start:l.pos])
}

func (l *Lexer) scanString(line, col int) (Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, &Error{Message: "unterminated string literal", Line: line, Col: col}
		}
		ch := l.advance()
		switch ch {
		case '"':
			return Token{Type: STRING, Value: b.String(), Line: line, Col: col}, nil
		case '\\':
			if l.pos >= len(l.src) {
				return Token{}, &Error{Message: "unterminated string literal", Line: line, Col: col}
			}
			switch esc := l.advance(); esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				// \\, \" and any other escaped character stand for themselves.
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(ch)
		}
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
