package lint

import (
	"regexp"
	"sort"
	"strings"
)

// The banned tables below are fixed-point configuration: immutable package
// data, never mutated at runtime. Per-invocation behavior (strict pass/fail
// policy) belongs to callers, not to these tables.

// bannedKeywords are the control-flow, definition, and escape keywords the
// DSL must never contain, grouped by what they would smuggle in.
var bannedKeywords = []string{
	// conditionals
	"if", "else", "elif", "then",
	// loops
	"for", "while", "loop", "repeat", "each",
	// function definitions
	"def", "fn", "function", "lambda",
	// pattern matching
	"match", "case", "switch",
	// control transfer
	"return", "yield", "await", "break", "continue",
}

// bannedKeywordRe matches any banned keyword as a whole word, case-insensitively.
var bannedKeywordRe = regexp.MustCompile(`(?i)\b(` + strings.Join(bannedKeywords, "|") + `)\b`)

// bannedPattern is a punctuation-level construct that cannot appear in
// declarative source regardless of surrounding words.
type bannedPattern struct {
	name string
	re   *regexp.Regexp
}

var bannedPatterns = []bannedPattern{
	{"arrow function", regexp.MustCompile(`=>`)},
	{"ternary expression", regexp.MustCompile(`\?[^?]*:`)},
	{"block lambda", regexp.MustCompile(`\{\s*\|`)},
	{"do block", regexp.MustCompile(`\bdo\s*\{`)},
}

// allowedLinePatterns are DSL constructs that look like banned syntax but
// are not. A line matching any of these skips all further checks.
var allowedLinePatterns = []*regexp.Regexp{
	// "for <identifier>:" introduces a persona block, not a loop
	regexp.MustCompile(`(?i)^\s*for\s+\w+\s*:\s*$`),
}

// typeKeywords use call syntax for type parameters (str(120), enum("a","b"),
// ref(Entity)); they are declarations, not invocations.
var typeKeywords = map[string]bool{
	"str": true, "text": true, "int": true, "decimal": true, "bool": true,
	"date": true, "datetime": true, "money": true, "email": true,
	"phone": true, "url": true, "file": true, "json": true,
	"enum": true, "ref": true,
}

// syntaxCalls are DSL clause keywords that take parenthesized arguments
// (role guards, field defaults) without being function calls.
var syntaxCalls = map[string]bool{
	"role":    true,
	"default": true,
}

// allowedFuncs is the closed builtin function set shared with the evaluator.
// Widening it is the only sanctioned way to add expression capability.
var allowedFuncs = map[string]bool{
	"today": true, "now": true, "days_until": true, "days_since": true,
	"concat": true, "len": true,
	"abs": true, "min": true, "max": true, "round": true,
	"coalesce": true,
}

// AllowedFunctions returns the sorted allowed function names, for messages
// and documentation.
func AllowedFunctions() []string {
	names := make([]string, 0, len(allowedFuncs))
	for name := range allowedFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// callRe matches function-call-shaped tokens: name(
var callRe = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
