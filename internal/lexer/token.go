package lexer

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	EOF TokenType = iota

	// Literals
	INTEGER
	FLOAT
	STRING
	BOOLEAN
	IDENT

	// Single-character operators
	QUESTION  // ?  filter, ternary
	HASH      // #  project
	STAR      // *  natural join, multiply
	AT        // @  rename
	PLUS      // +  extend, add
	MINUS     // -  difference, descending, subtract
	PIPE      // |  union, or
	AMPERSAND // &  intersect, and
	SLASH     // /  summarize, divide
	DOLLAR    // $  sort
	CARET     // ^  take
	GT        // >  greater than, rename arrow, nest name
	LT        // <  less than
	EQ        // =  equality
	TILDE     // ~  reserved

	// Digraph operators
	QUESTION_BANG // ?!  negated filter
	QUESTION_EQ   // ?=  reserved (update)
	STAR_COLON    // *:  nest join
	SLASH_DOT     // /.  summarize all
	SLASH_COLON   // /:  nest by
	PLUS_COLON    // +:  reserved (modify)
	PLUS_DOT      // +.  sum
	HASH_DOT      // #.  count
	HASH_BANG     // #!  remove
	GT_DOT        // >.  max
	GT_EQ         // >=
	LT_COLON      // <:  unnest
	LT_DOT        // <.  min
	LT_EQ         // <=
	PERCENT_DOT   // %.  mean
	COLON_EQ      // :=  assignment
	COLON_COLON   // ::  reserved (type check)
	PIPE_EQ       // |=  reserved (insert)
	MINUS_EQ      // -=  reserved (delete)
	BANG_EQ       // !=
	BANG_TILDE    // !~  reserved

	// Delimiters
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	COLON
	DOT
	COMMA
)

var tokenNames = map[TokenType]string{
	EOF: "EOF", INTEGER: "INTEGER", FLOAT: "FLOAT", STRING: "STRING",
	BOOLEAN: "BOOLEAN", IDENT: "IDENT",
	QUESTION: "?", HASH: "#", STAR: "*", AT: "@", PLUS: "+", MINUS: "-",
	PIPE: "|", AMPERSAND: "&", SLASH: "/", DOLLAR: "$", CARET: "^",
	GT: ">", LT: "<", EQ: "=", TILDE: "~",
	QUESTION_BANG: "?!", QUESTION_EQ: "?=", STAR_COLON: "*:",
	SLASH_DOT: "/.", SLASH_COLON: "/:", PLUS_COLON: "+:", PLUS_DOT: "+.",
	HASH_DOT: "#.", HASH_BANG: "#!", GT_DOT: ">.", GT_EQ: ">=",
	LT_COLON: "<:", LT_DOT: "<.", LT_EQ: "<=", PERCENT_DOT: "%.",
	COLON_EQ: ":=", COLON_COLON: "::", PIPE_EQ: "|=", MINUS_EQ: "-=",
	BANG_EQ: "!=", BANG_TILDE: "!~",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]",
	LBRACE: "{", RBRACE: "}", COLON: ":", DOT: ".", COMMA: ",",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsAggregate reports whether t is one of the aggregate function operators.
func (t TokenType) IsAggregate() bool {
	switch t {
	case HASH_DOT, PLUS_DOT, GT_DOT, LT_DOT, PERCENT_DOT:
		return true
	}
	return false
}

// Token is a lexical token with its source position (1-based).
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Value, t.Line, t.Col)
}
