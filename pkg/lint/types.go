package lint

import "fmt"

// ViolationKind classifies a declarativeness violation.
type ViolationKind string

// Violation kinds.
const (
	// BannedKeyword is a control-flow or definition keyword (if, for, def, ...).
	BannedKeyword ViolationKind = "BANNED_KEYWORD"
	// BannedPattern is a punctuation-level construct (arrow function, ternary, ...).
	BannedPattern ViolationKind = "BANNED_PATTERN"
	// InvalidFunctionCall is a call-shaped token whose name is outside the
	// allowed builtin set.
	InvalidFunctionCall ViolationKind = "INVALID_FUNCTION_CALL"
)

// Violation is one declarativeness finding. Pure data, no behavior beyond
// formatting; the whole list is designed to be serialized wholesale for
// editors, CI, and the CLI.
type Violation struct {
	Kind    ViolationKind `json:"kind" yaml:"kind"`
	Message string        `json:"message" yaml:"message"`
	Line    int           `json:"line" yaml:"line"`     // 1-based
	Column  int           `json:"column" yaml:"column"` // 1-based
	Text    string        `json:"text" yaml:"text"`     // offending token or pattern
}

// String formats the violation for terminal output.
func (v Violation) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", v.Line, v.Column, v.Kind, v.Message)
}
