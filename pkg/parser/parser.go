// Package parser implements the LeapApp expression grammar: the sub-language
// used by transition guards, entity invariants, and computed fields.
//
// # Grammar Overview
//
// Precedence from loosest to tightest; parentheses always override:
//
//	expression  → or_expr
//	or_expr     → and_expr (OR and_expr)*
//	and_expr    → not_expr (AND not_expr)*
//	not_expr    → NOT not_expr | comparison
//	comparison  → additive ((== | != | < | > | <= | >=) additive)?
//	            | additive [NOT] IN '(' expr_list ')'
//	additive    → multiplicative ((+ | -) multiplicative)*
//	multiplicative → unary ((* | / | %) unary)*
//	unary       → - unary | atom
//	atom        → literal | duration | field_ref | func_call
//	            | if_expr | '(' expression ')'
//	field_ref   → IDENT (-> IDENT)*
//	duration    → NUMBER unit  (unit: d h w min m y)
//	if_expr     → IF expression THEN expression
//	              (ELIF expression THEN expression)* ELSE expression
//
// Arrow paths are flattened into a single ordered FieldRef path at parse
// time, so the evaluator resolves local and cross-entity references with the
// same logic.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapapp/pkg/core"
	"github.com/leapstack-labs/leapapp/pkg/token"
)

// TokenType is an alias for token.TokenType.
type TokenType = token.TokenType

// Token is an alias for token.Token.
type Token = token.Token

// Position is an alias for token.Position.
type Position = token.Position

// Parser parses expression input into a core.Expr AST.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given expression input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// ParseExpression parses the input as one complete expression.
func ParseExpression(input string) (core.Expr, error) {
	p := NewParser(input)
	expr := p.parseExpression()
	if !p.check(token.EOF) {
		p.addError(fmt.Sprintf("unexpected token %s after expression", p.token.Type))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return expr, nil
}

// ParseInvariant parses the input with the narrower invariant grammar:
// comparisons and logical combinators suited to standing constraints.
// Conditional expressions are transition-time constructs and are rejected.
func ParseInvariant(input string) (core.Expr, error) {
	expr, err := ParseExpression(input)
	if err != nil {
		return nil, err
	}
	if containsIf(expr) {
		return nil, &ParseError{Message: "conditional expressions are not allowed in invariants"}
	}
	return expr, nil
}

// containsIf walks the expression for IfExpr nodes.
func containsIf(expr core.Expr) bool {
	switch e := expr.(type) {
	case *core.IfExpr:
		return true
	case *core.BinaryExpr:
		return containsIf(e.Left) || containsIf(e.Right)
	case *core.UnaryExpr:
		return containsIf(e.Expr)
	case *core.FuncCall:
		for _, arg := range e.Args {
			if containsIf(arg) {
				return true
			}
		}
	case *core.InExpr:
		if containsIf(e.Probe) {
			return true
		}
		for _, c := range e.Candidates {
			if containsIf(c) {
				return true
			}
		}
	}
	return false
}

// ---------- Token Helpers ----------

// nextToken advances to the next token. Illegal tokens are recorded as lex
// errors as soon as they are scanned, so they surface even when the grammar
// would otherwise skip past them.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
	if p.peek.Type == token.ILLEGAL {
		p.errors = append(p.errors, &LexError{
			Pos:     p.peek.Pos,
			Message: fmt.Sprintf("illegal character %q", p.peek.Literal),
		})
	}
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("unexpected token %s, expected %s", p.token.Type, t))
	return false
}

// addError records a parse error at the current position.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{Pos: p.token.Pos, Message: msg})
}

// Errors returns all accumulated parse errors.
func (p *Parser) Errors() []error {
	return p.errors
}
