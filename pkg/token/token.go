// Package token defines the token types for the LeapApp expression
// sub-language: the grammar used by transition guards, entity invariants,
// and computed fields.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // identifier
	NUMBER // 123, 45.67
	STRING // 'hello' or "hello"

	// Operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	EQ      // ==
	NE      // !=
	LT      // <
	GT      // >
	LE      // <=
	GE      // >=
	ARROW   // ->
	COMMA   // ,
	LPAREN  // (
	RPAREN  // )

	// Keywords
	AND
	OR
	NOT
	IN
	IF
	THEN
	ELIF
	ELSE
	TRUE
	FALSE
	NULL
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	EQ:      "==",
	NE:      "!=",
	LT:      "<",
	GT:      ">",
	LE:      "<=",
	GE:      ">=",
	ARROW:   "->",
	COMMA:   ",",
	LPAREN:  "(",
	RPAREN:  ")",

	AND:   "AND",
	OR:    "OR",
	NOT:   "NOT",
	IN:    "IN",
	IF:    "IF",
	THEN:  "THEN",
	ELIF:  "ELIF",
	ELSE:  "ELSE",
	TRUE:  "TRUE",
	FALSE: "FALSE",
	NULL:  "NULL",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"and":   AND,
	"or":    OR,
	"not":   NOT,
	"in":    IN,
	"if":    IF,
	"then":  THEN,
	"elif":  ELIF,
	"else":  ELSE,
	"true":  TRUE,
	"false": FALSE,
	"null":  NULL,
}

// LookupIdent returns the token type for the given identifier.
// If the identifier is a keyword, the keyword token type is returned.
// Otherwise, IDENT is returned.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= AND && t <= NULL
}

// IsOperator returns true if the token type is an operator.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= RPAREN
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}
