// Package lint statically enforces the declarativeness of LeapApp DSL source.
//
// The DSL is deliberately not Turing-complete: no control flow, no
// user-defined functions, no recursion. This package is the text-level line
// of defense for that property. It scans raw source lines for banned
// keywords (if/for/def/...), banned punctuation patterns (arrow functions,
// ternaries, block lambdas), and function-call-shaped tokens outside the
// fixed builtin set, and reports every finding as a Violation.
//
// Validation is pure: text in, diagnostics out, no side effects. The banned
// tables are immutable package data. A strict toggle exists only in callers;
// the scan itself always behaves identically.
//
// Keywords inside quoted strings or comments never trigger violations, and a
// small allow-list covers DSL syntax that merely looks like a banned
// construct (for example "for reviewer:" introduces a persona block, not a
// loop).
package lint
