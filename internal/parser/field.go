package parser

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapapp/pkg/core"
	"github.com/leapstack-labs/leapapp/pkg/parser"
)

// parseField parses the right-hand side of a field declaration: a type with
// optional call-syntax parameters, then modifiers, then an optional computed
// expression introduced by `=`.
//
//	total: money required = price * quantity
//	status: enum("draft", "active") default("draft")
func (p *fileParser) parseField(ln srcLine, name, rest string) *core.Field {
	f := &core.Field{Name: name}

	typeName, rest := cutIdent(rest)
	if typeName == "" {
		p.errorf(ln.num, "field %s has no type", name)
		return nil
	}

	args := ""
	hasArgs := false
	if strings.HasPrefix(rest, "(") {
		var ok bool
		args, rest, ok = balancedArgs(rest)
		if !ok {
			p.errorf(ln.num, "unbalanced parentheses in type of field %s", name)
			return nil
		}
		hasArgs = true
	}

	if !p.applyFieldType(ln, f, typeName, args, hasArgs) {
		return nil
	}

	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return f
		}

		if expr, ok := strings.CutPrefix(rest, "="); ok {
			source := strings.TrimSpace(expr)
			if source == "" {
				p.errorf(ln.num, "field %s has an empty computed expression", name)
				return nil
			}
			parsed, err := parser.ParseExpression(source)
			if err != nil {
				p.errorf(ln.num, "invalid computed expression on field %s: %v", name, err)
				return nil
			}
			f.Computed = parsed
			f.ComputedS = source
			return f
		}

		word, tail := cutIdent(rest)
		switch word {
		case "required":
			f.Required = true
			rest = tail
		case "pk":
			f.Primary = true
			rest = tail
		case "unique":
			f.Unique = true
			rest = tail
		case "default":
			var val string
			var ok bool
			val, rest, ok = balancedArgs(tail)
			if !ok {
				p.errorf(ln.num, "default on field %s needs a parenthesized value", name)
				return nil
			}
			f.Default = strings.TrimSpace(val)
		default:
			p.errorf(ln.num, "unrecognized modifier %q on field %s", firstToken(rest), name)
			return nil
		}
	}
}

// applyFieldType fills the FieldType from the type name and its arguments.
func (p *fileParser) applyFieldType(ln srcLine, f *core.Field, typeName, args string, hasArgs bool) bool {
	fail := func(format string, a ...any) bool {
		p.errorf(ln.num, format, a...)
		return false
	}

	switch core.FieldKind(typeName) {
	case core.KindStr:
		f.Type.Kind = core.KindStr
		if hasArgs {
			n, err := strconv.Atoi(strings.TrimSpace(args))
			if err != nil || n <= 0 {
				return fail("str length must be a positive integer, got %q", args)
			}
			f.Type.MaxLength = n
		}

	case core.KindDecimal:
		f.Type.Kind = core.KindDecimal
		if hasArgs {
			parts := strings.Split(args, ",")
			if len(parts) != 2 {
				return fail("decimal takes (precision, scale), got %q", args)
			}
			prec, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
			scale, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err1 != nil || err2 != nil || prec <= 0 || scale < 0 || scale > prec {
				return fail("invalid decimal(precision, scale): %q", args)
			}
			f.Type.Precision = prec
			f.Type.Scale = scale
		}

	case core.KindEnum:
		f.Type.Kind = core.KindEnum
		if !hasArgs {
			return fail("enum requires a value list")
		}
		for _, raw := range splitArgs(args) {
			v := strings.TrimSpace(raw)
			if len(v) < 2 || (v[0] != '"' && v[0] != '\'') || v[len(v)-1] != v[0] {
				return fail("enum values must be quoted strings, got %q", raw)
			}
			f.Type.Values = append(f.Type.Values, v[1:len(v)-1])
		}
		if len(f.Type.Values) == 0 {
			return fail("enum requires at least one value")
		}

	case core.KindRef:
		f.Type.Kind = core.KindRef
		target := strings.TrimSpace(args)
		if !hasArgs || target == "" {
			return fail("ref requires a target entity")
		}
		f.Type.Entity = target

	case core.KindText, core.KindInt, core.KindBool, core.KindDate, core.KindDatetime,
		core.KindMoney, core.KindEmail, core.KindPhone, core.KindURL,
		core.KindFile, core.KindJSON:
		if hasArgs {
			return fail("type %s takes no parameters", typeName)
		}
		f.Type.Kind = core.FieldKind(typeName)

	default:
		return fail("unknown field type %q", typeName)
	}
	return true
}

// cutIdent splits a leading identifier off a string.
func cutIdent(s string) (ident, rest string) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			i++
			continue
		}
		break
	}
	return s[:i], s[i:]
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// balancedArgs consumes a parenthesized argument list from the front of s,
// honoring nested parens and quoted strings. Returns the inside text and the
// remainder after the closing paren.
func balancedArgs(s string) (args, rest string, ok bool) {
	if !strings.HasPrefix(s, "(") {
		return "", s, false
	}
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], true
			}
		}
	}
	return "", s, false
}

// splitArgs splits an argument list on top-level commas, honoring quotes and
// nested parens.
func splitArgs(s string) []string {
	var (
		parts []string
		start int
		depth int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if strings.TrimSpace(s[start:]) != "" || len(parts) > 0 {
		parts = append(parts, s[start:])
	}
	return parts
}
