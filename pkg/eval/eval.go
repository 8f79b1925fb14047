// Package eval implements the sandboxed tree-walking interpreter for LeapApp
// expressions, together with the guard and invariant binding that applies it
// to state-machine transitions and entity constraints.
//
// Evaluation is pure and synchronous: no I/O, no mutation of the AST or the
// context, no host-language eval. Dispatch is an exhaustive switch over the
// closed AST node set, and the builtin function table is the sandbox
// boundary: widening it is the only sanctioned way to add capability.
package eval

import (
	"math"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapapp/pkg/core"
	"github.com/leapstack-labs/leapapp/pkg/token"
)

// Evaluator evaluates expressions against contexts. The zero value is not
// usable; construct with New. Now is injectable so date builtins are
// testable; everything else is deterministic.
type Evaluator struct {
	Now func() time.Time
}

// New creates an evaluator using the real clock.
func New() *Evaluator {
	return &Evaluator{Now: time.Now}
}

// Evaluate evaluates an expression against a context using the real clock.
func Evaluate(expr core.Expr, ctx Context) (any, error) {
	return New().Evaluate(expr, ctx)
}

// Evaluate evaluates an expression against a context.
func (e *Evaluator) Evaluate(expr core.Expr, ctx Context) (any, error) {
	switch n := expr.(type) {
	case *core.Literal:
		return evalLiteral(n)

	case *core.FieldRef:
		// Missing segments short-circuit to nil rather than failing:
		// guard authors routinely probe optional relations.
		return resolvePath(ctx, n.Path), nil

	case *core.DurationLiteral:
		return durationFromUnit(n.Value, n.Unit)

	case *core.UnaryExpr:
		return e.evalUnary(n, ctx)

	case *core.BinaryExpr:
		return e.evalBinary(n, ctx)

	case *core.FuncCall:
		return e.evalCall(n, ctx)

	case *core.InExpr:
		return e.evalIn(n, ctx)

	case *core.IfExpr:
		return e.evalIf(n, ctx)

	default:
		return nil, evalErrorf(ErrUnknownNode, "unknown AST node %T", expr)
	}
}

// evalLiteral converts a literal node to its runtime value.
func evalLiteral(lit *core.Literal) (any, error) {
	switch lit.Type {
	case core.LiteralNumber:
		if i, err := strconv.ParseInt(lit.Value, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, evalErrorf(ErrBadOperand, "invalid number literal %q", lit.Value)
		}
		return f, nil
	case core.LiteralString:
		return lit.Value, nil
	case core.LiteralBool:
		return lit.Value == "true", nil
	case core.LiteralNull:
		return nil, nil
	default:
		return nil, evalErrorf(ErrUnknownNode, "unknown literal type %d", lit.Type)
	}
}

func (e *Evaluator) evalUnary(n *core.UnaryExpr, ctx Context) (any, error) {
	operand, err := e.Evaluate(n.Expr, ctx)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case token.NOT:
		return !isTruthy(operand), nil
	case token.MINUS:
		if operand == nil {
			return nil, nil
		}
		if isIntegral(operand) {
			f, _ := toFloat(operand)
			return -int64(f), nil
		}
		if f, ok := toFloat(operand); ok {
			return -f, nil
		}
		return nil, evalErrorf(ErrBadOperand, "operand of unary - must be numeric, got %s", formatValue(operand))
	default:
		return nil, evalErrorf(ErrUnknownNode, "unknown unary operator %s", n.Op)
	}
}

func (e *Evaluator) evalBinary(n *core.BinaryExpr, ctx Context) (any, error) {
	// AND/OR short-circuit and return the deciding operand's actual value,
	// so the right side is never evaluated once the left decides.
	switch n.Op {
	case token.AND:
		left, err := e.Evaluate(n.Left, ctx)
		if err != nil {
			return nil, err
		}
		if !isTruthy(left) {
			return left, nil
		}
		return e.Evaluate(n.Right, ctx)

	case token.OR:
		left, err := e.Evaluate(n.Left, ctx)
		if err != nil {
			return nil, err
		}
		if isTruthy(left) {
			return left, nil
		}
		return e.Evaluate(n.Right, ctx)
	}

	left, err := e.Evaluate(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := e.Evaluate(n.Right, ctx)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case token.EQ:
		return equalValues(left, right), nil
	case token.NE:
		return !equalValues(left, right), nil
	case token.LT, token.GT, token.LE, token.GE:
		return evalRelational(n.Op, left, right)
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		return evalArithmetic(n.Op, left, right)
	default:
		return nil, evalErrorf(ErrUnknownNode, "unknown binary operator %s", n.Op)
	}
}

// evalRelational implements ordered comparison. A nil operand on either side
// evaluates to false, never an error.
func evalRelational(op token.TokenType, left, right any) (any, error) {
	if left == nil || right == nil {
		return false, nil
	}

	if lf, lok := toFloat(left); lok {
		rf, rok := toFloat(right)
		if !rok {
			return nil, evalErrorf(ErrBadOperand, "cannot compare %s with %s", formatValue(left), formatValue(right))
		}
		return compareOrdered(op, lf, rf), nil
	}

	if ls, lok := toString(left); lok {
		rs, rok := toString(right)
		if !rok {
			return nil, evalErrorf(ErrBadOperand, "cannot compare %s with %s", formatValue(left), formatValue(right))
		}
		return compareOrdered(op, ls, rs), nil
	}

	if lt, lok := toTime(left); lok {
		rt, rok := toTime(right)
		if !rok {
			return nil, evalErrorf(ErrBadOperand, "cannot compare %s with %s", formatValue(left), formatValue(right))
		}
		switch op {
		case token.LT:
			return lt.Before(rt), nil
		case token.GT:
			return lt.After(rt), nil
		case token.LE:
			return !lt.After(rt), nil
		default:
			return !lt.Before(rt), nil
		}
	}

	if ld, lok := toDuration(left); lok {
		rd, rok := toDuration(right)
		if !rok {
			return nil, evalErrorf(ErrBadOperand, "cannot compare %s with %s", formatValue(left), formatValue(right))
		}
		return compareOrdered(op, int64(ld), int64(rd)), nil
	}

	return nil, evalErrorf(ErrBadOperand, "cannot compare %s with %s", formatValue(left), formatValue(right))
}

// compareOrdered applies an ordered comparison to two comparable values.
func compareOrdered[T interface{ ~int64 | ~float64 | ~string }](op token.TokenType, l, r T) bool {
	switch op {
	case token.LT:
		return l < r
	case token.GT:
		return l > r
	case token.LE:
		return l <= r
	default:
		return l >= r
	}
}

// evalArithmetic implements type-aware arithmetic. A nil operand on either
// side propagates nil.
func evalArithmetic(op token.TokenType, left, right any) (any, error) {
	if left == nil || right == nil {
		return nil, nil
	}

	// Date/datetime and duration combinations for + and -
	switch op {
	case token.PLUS:
		if lt, ok := toTime(left); ok {
			if rd, ok := toDuration(right); ok {
				return lt.Add(rd), nil
			}
		}
		// duration + date commutes
		if ld, ok := toDuration(left); ok {
			if rt, ok := toTime(right); ok {
				return rt.Add(ld), nil
			}
			if rd, ok := toDuration(right); ok {
				return ld + rd, nil
			}
		}
		if ls, ok := toString(left); ok {
			if rs, ok := toString(right); ok {
				return ls + rs, nil
			}
		}
	case token.MINUS:
		if lt, ok := toTime(left); ok {
			if rd, ok := toDuration(right); ok {
				return lt.Add(-rd), nil
			}
			// date - date yields a duration
			if rt, ok := toTime(right); ok {
				return lt.Sub(rt), nil
			}
		}
		if ld, ok := toDuration(left); ok {
			if rd, ok := toDuration(right); ok {
				return ld - rd, nil
			}
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, evalErrorf(ErrBadOperand, "cannot apply %s to %s and %s", op, formatValue(left), formatValue(right))
	}
	integral := isIntegral(left) && isIntegral(right)

	switch op {
	case token.PLUS:
		return numberResult(lf+rf, integral), nil
	case token.MINUS:
		return numberResult(lf-rf, integral), nil
	case token.STAR:
		return numberResult(lf*rf, integral), nil
	case token.SLASH:
		if rf == 0 {
			return nil, evalErrorf(ErrDivisionByZero, "division by zero")
		}
		if integral && math.Mod(lf, rf) == 0 {
			return int64(lf / rf), nil
		}
		return lf / rf, nil
	case token.PERCENT:
		if rf == 0 {
			return nil, evalErrorf(ErrDivisionByZero, "modulo by zero")
		}
		if integral {
			return int64(lf) % int64(rf), nil
		}
		return math.Mod(lf, rf), nil
	default:
		return nil, evalErrorf(ErrUnknownNode, "unknown arithmetic operator %s", op)
	}
}

// numberResult keeps integer arithmetic integer-typed.
func numberResult(f float64, integral bool) any {
	if integral {
		return int64(f)
	}
	return f
}

// evalIn evaluates the probe once and every candidate once, comparing by
// equality.
func (e *Evaluator) evalIn(n *core.InExpr, ctx Context) (any, error) {
	probe, err := e.Evaluate(n.Probe, ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for _, cand := range n.Candidates {
		val, err := e.Evaluate(cand, ctx)
		if err != nil {
			return nil, err
		}
		if equalValues(probe, val) {
			found = true
		}
	}

	if n.Negated {
		return !found, nil
	}
	return found, nil
}

// evalIf returns the first branch whose condition is truthy, falling through
// to else.
func (e *Evaluator) evalIf(n *core.IfExpr, ctx Context) (any, error) {
	cond, err := e.Evaluate(n.Cond, ctx)
	if err != nil {
		return nil, err
	}
	if isTruthy(cond) {
		return e.Evaluate(n.Then, ctx)
	}

	for _, branch := range n.Elifs {
		cond, err := e.Evaluate(branch.Cond, ctx)
		if err != nil {
			return nil, err
		}
		if isTruthy(cond) {
			return e.Evaluate(branch.Then, ctx)
		}
	}

	return e.Evaluate(n.Else, ctx)
}
