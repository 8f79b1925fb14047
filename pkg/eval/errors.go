package eval

import "fmt"

// ErrorKind classifies evaluation errors.
type ErrorKind string

// Evaluation error kinds.
const (
	// ErrUnknownFunction is a call to a name outside the closed builtin set.
	ErrUnknownFunction ErrorKind = "unknown_function"
	// ErrDivisionByZero is a division or modulo with a zero divisor.
	ErrDivisionByZero ErrorKind = "division_by_zero"
	// ErrUnknownUnit is a duration literal with an unrecognized unit.
	ErrUnknownUnit ErrorKind = "unknown_unit"
	// ErrBadOperand is an operation applied to values it cannot handle.
	ErrBadOperand ErrorKind = "bad_operand"
	// ErrUnknownNode is an AST node outside the closed union. Unreachable
	// unless the union is extended without updating the evaluator.
	ErrUnknownNode ErrorKind = "unknown_node"
)

// EvalError is a typed evaluation failure. Guard callers must treat it as
// "guard did not pass", never as an unhandled fault.
//
//nolint:revive // Accept stutter; eval.EvalError is clear at call sites
type EvalError struct {
	Kind    ErrorKind
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluation error (%s): %s", e.Kind, e.Message)
}

// evalErrorf builds an EvalError with a formatted message.
func evalErrorf(kind ErrorKind, format string, args ...any) *EvalError {
	return &EvalError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
