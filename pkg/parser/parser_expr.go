package parser

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapapp/pkg/core"
	"github.com/leapstack-labs/leapapp/pkg/token"
)

// Precedence levels, loosest to tightest.
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precAdditive
	precMultiply
	precUnary
)

// durationUnits is the closed set of duration unit suffixes. Conversion
// semantics live in the evaluator; the parser only recognizes the shape.
var durationUnits = map[string]bool{
	"d": true, "h": true, "w": true, "min": true, "m": true, "y": true,
}

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() core.Expr {
	return p.parseExpressionWithPrecedence(precNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) core.Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for {
		prec := p.infixPrecedence()
		if prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (NOT, unary minus) and atoms.
func (p *Parser) parsePrefixExpr() core.Expr {
	switch p.token.Type {
	case token.NOT:
		pos := p.token.Pos
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precNot)
		return &core.UnaryExpr{Op: token.NOT, Expr: expr, Position: pos}

	case token.MINUS:
		pos := p.token.Pos
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precUnary)
		return &core.UnaryExpr{Op: token.MINUS, Expr: expr, Position: pos}

	default:
		return p.parseAtom()
	}
}

// infixPrecedence returns the precedence of the current token as an infix
// operator, or precNone if it is not one.
func (p *Parser) infixPrecedence() int {
	switch p.token.Type {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE:
		return precComparison
	case token.IN:
		return precComparison
	case token.NOT:
		// NOT as infix only introduces NOT IN
		if p.checkPeek(token.IN) {
			return precComparison
		}
		return precNone
	case token.PLUS, token.MINUS:
		return precAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiply
	default:
		return precNone
	}
}

// parseInfixExpr parses an infix expression given the left operand.
func (p *Parser) parseInfixExpr(left core.Expr, prec int) core.Expr {
	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, false)

	case token.NOT:
		p.nextToken() // consume NOT
		if !p.expect(token.IN) {
			return left
		}
		return p.parseInExpr(left, true)
	}

	op := p.token
	p.nextToken()

	// Parse right operand with higher precedence (left-associative)
	right := p.parseExpressionWithPrecedence(prec + 1)

	return &core.BinaryExpr{Left: left, Op: op.Type, Right: right}
}

// parseInExpr parses the candidate list of an IN expression.
func (p *Parser) parseInExpr(probe core.Expr, negated bool) core.Expr {
	in := &core.InExpr{Probe: probe, Negated: negated}

	if !p.expect(token.LPAREN) {
		return in
	}
	in.Candidates = p.parseExpressionList()
	p.expect(token.RPAREN)
	return in
}

// parseExpressionList parses a comma-separated expression list.
func (p *Parser) parseExpressionList() []core.Expr {
	var list []core.Expr
	list = append(list, p.parseExpression())
	for p.match(token.COMMA) {
		list = append(list, p.parseExpression())
	}
	return list
}

// parseAtom parses literals, durations, field references, function calls,
// conditional expressions, and parenthesized expressions.
func (p *Parser) parseAtom() core.Expr {
	pos := p.token.Pos

	switch p.token.Type {
	case token.NUMBER:
		lit := p.token.Literal
		p.nextToken()
		// "<integer> <unit>" is a duration literal
		if p.check(token.IDENT) && durationUnits[p.token.Literal] {
			value, err := strconv.ParseInt(lit, 10, 64)
			if err != nil {
				p.addError(fmt.Sprintf("duration value %q must be an integer", lit))
				return nil
			}
			unit := p.token.Literal
			p.nextToken()
			return &core.DurationLiteral{Value: value, Unit: unit, Position: pos}
		}
		return &core.Literal{Type: core.LiteralNumber, Value: lit, Position: pos}

	case token.STRING:
		lit := p.token.Literal
		p.nextToken()
		return &core.Literal{Type: core.LiteralString, Value: lit, Position: pos}

	case token.TRUE, token.FALSE:
		lit := p.token.Literal
		p.nextToken()
		return &core.Literal{Type: core.LiteralBool, Value: lit, Position: pos}

	case token.NULL:
		p.nextToken()
		return &core.Literal{Type: core.LiteralNull, Value: "null", Position: pos}

	case token.IF:
		return p.parseIfExpr()

	case token.LPAREN:
		p.nextToken()
		expr := p.parseExpression()
		p.expect(token.RPAREN)
		return expr

	case token.IDENT:
		return p.parseIdentExpr()

	default:
		p.addError(fmt.Sprintf("unexpected token %s in expression", p.token.Type))
		p.nextToken()
		return nil
	}
}

// parseIdentExpr parses a function call or an arrow-flattened field reference.
func (p *Parser) parseIdentExpr() core.Expr {
	pos := p.token.Pos
	name := p.token.Literal
	p.nextToken()

	// Function call
	if p.check(token.LPAREN) {
		p.nextToken()
		call := &core.FuncCall{Name: name, Position: pos}
		if !p.check(token.RPAREN) {
			call.Args = p.parseExpressionList()
		}
		p.expect(token.RPAREN)
		return call
	}

	// Field reference, flattening arrow traversal into one path
	ref := &core.FieldRef{Path: []string{name}, Position: pos}
	for p.match(token.ARROW) {
		if !p.check(token.IDENT) {
			p.addError(fmt.Sprintf("expected identifier after ->, got %s", p.token.Type))
			break
		}
		ref.Path = append(ref.Path, p.token.Literal)
		p.nextToken()
	}
	return ref
}

// parseIfExpr parses if/then/elif/else. The else branch is mandatory: a
// conditional with no fallback would leave evaluation undefined when no
// branch matches.
func (p *Parser) parseIfExpr() core.Expr {
	pos := p.token.Pos
	p.nextToken() // consume IF

	expr := &core.IfExpr{Position: pos}
	expr.Cond = p.parseExpression()
	if !p.expect(token.THEN) {
		return expr
	}
	expr.Then = p.parseExpression()

	for p.match(token.ELIF) {
		branch := core.ElifBranch{}
		branch.Cond = p.parseExpression()
		if !p.expect(token.THEN) {
			return expr
		}
		branch.Then = p.parseExpression()
		expr.Elifs = append(expr.Elifs, branch)
	}

	if !p.expect(token.ELSE) {
		return expr
	}
	expr.Else = p.parseExpression()
	return expr
}
