package lint

import (
	"fmt"
	"strings"
)

// Validate scans DSL source text and returns every declarativeness violation.
// It is pure and operates on raw source lines; callers decide pass/fail
// policy (e.g. a strict toggle) from the returned list.
func Validate(text string) []Violation {
	var violations []Violation

	for i, rawLine := range strings.Split(text, "\n") {
		lineNo := i + 1

		trimmed := strings.TrimSpace(rawLine)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		// Neutralize string literals first so keywords embedded in prose
		// ("message: 'click Continue to proceed'") never trigger, then drop
		// any trailing comment.
		line := maskStrings(rawLine)
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}

		if isAllowedLine(line) {
			continue
		}

		violations = append(violations, scanKeywords(line, lineNo)...)
		violations = append(violations, scanPatterns(line, lineNo)...)
		violations = append(violations, scanCalls(line, lineNo)...)
	}

	return violations
}

// CheckSource reports whether the text is free of violations, along with the
// full violation list.
func CheckSource(text string) (bool, []Violation) {
	violations := Validate(text)
	return len(violations) == 0, violations
}

// isAllowedLine returns true if the (quote-masked) line matches a DSL
// construct that merely resembles banned syntax.
func isAllowedLine(line string) bool {
	for _, re := range allowedLinePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// scanKeywords reports every banned keyword occurring as a whole word.
func scanKeywords(line string, lineNo int) []Violation {
	var violations []Violation
	for _, loc := range bannedKeywordRe.FindAllStringIndex(line, -1) {
		word := line[loc[0]:loc[1]]
		violations = append(violations, Violation{
			Kind:    BannedKeyword,
			Message: fmt.Sprintf("banned keyword %q: the DSL does not allow control flow or definitions", strings.ToLower(word)),
			Line:    lineNo,
			Column:  loc[0] + 1,
			Text:    word,
		})
	}
	return violations
}

// scanPatterns reports every banned punctuation pattern.
func scanPatterns(line string, lineNo int) []Violation {
	var violations []Violation
	for _, p := range bannedPatterns {
		for _, loc := range p.re.FindAllStringIndex(line, -1) {
			violations = append(violations, Violation{
				Kind:    BannedPattern,
				Message: fmt.Sprintf("banned construct: %s", p.name),
				Line:    lineNo,
				Column:  loc[0] + 1,
				Text:    line[loc[0]:loc[1]],
			})
		}
	}
	return violations
}

// scanCalls reports call-shaped tokens whose name is neither a type
// annotation, a DSL clause keyword, nor an allowed builtin function.
func scanCalls(line string, lineNo int) []Violation {
	var violations []Violation
	for _, m := range callRe.FindAllStringSubmatchIndex(line, -1) {
		name := line[m[2]:m[3]]
		lower := strings.ToLower(name)

		switch {
		case typeKeywords[lower]:
			// type parameters use call syntax: str(120), ref(Entity)
		case syntaxCalls[lower]:
			// clause syntax: role(admin), default(today())
		case allowedFuncs[lower]:
		case isBannedKeyword(lower):
			// already reported by the keyword scan
		default:
			violations = append(violations, Violation{
				Kind: InvalidFunctionCall,
				Message: fmt.Sprintf("call to %q is not allowed; allowed functions: %s",
					name, strings.Join(AllowedFunctions(), ", ")),
				Line:   lineNo,
				Column: m[2] + 1,
				Text:   name,
			})
		}
	}
	return violations
}

// isBannedKeyword returns true if the lowercase word is in the banned set.
func isBannedKeyword(word string) bool {
	for _, kw := range bannedKeywords {
		if word == kw {
			return true
		}
	}
	return false
}

// maskStrings replaces the contents of single- and double-quoted string
// literals with underscores, preserving line length so violation columns
// stay aligned with the original source.
func maskStrings(line string) string {
	var b strings.Builder
	b.Grow(len(line))

	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case quote == 0 && (ch == '\'' || ch == '"'):
			quote = ch
			b.WriteByte(ch)
		case quote != 0 && ch == quote:
			quote = 0
			b.WriteByte(ch)
		case quote != 0:
			b.WriteByte('_')
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
