package parser

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapapp/pkg/core"
	"github.com/leapstack-labs/leapapp/pkg/parser"
)

// parseEntity parses an entity body: field declarations, an optional status
// machine block, and invariant clauses.
func (p *fileParser) parseEntity(ent *core.Entity, head srcLine, body []srcLine) {
	if len(body) == 0 {
		p.errorf(head.num, "entity %s has an empty body", ent.Name)
		return
	}
	base := body[0].indent

	i := 0
	for i < len(body) {
		ln := body[i]
		if ln.indent != base {
			p.errorf(ln.num, "unexpected indentation: %q", ln.text)
			i++
			continue
		}

		switch {
		case ln.text == "status:":
			sub, next := subBlock(body, i+1, base)
			i = next
			if ent.Machine != nil {
				p.errorf(ln.num, "entity %s declares more than one status block", ent.Name)
				continue
			}
			ent.Machine = p.parseMachine(sub)

		case strings.HasPrefix(ln.text, "invariant"):
			if inv := p.parseInvariant(ln); inv != nil {
				ent.Invariants = append(ent.Invariants, inv)
			}
			i++

		case fieldPattern.MatchString(ln.text):
			m := fieldPattern.FindStringSubmatch(ln.text)
			if ent.Field(m[1]) != nil {
				p.errorf(ln.num, "duplicate field %q on entity %s", m[1], ent.Name)
				i++
				continue
			}
			if f := p.parseField(ln, m[1], m[2]); f != nil {
				ent.Fields = append(ent.Fields, f)
			}
			i++

		default:
			p.errorf(ln.num, "unrecognized entity clause: %q", ln.text)
			i++
		}
	}
}

// subBlock collects lines indented deeper than parentIndent, starting at
// from, and returns them with the index of the first line after the block.
func subBlock(body []srcLine, from, parentIndent int) ([]srcLine, int) {
	i := from
	for i < len(body) && body[i].indent > parentIndent {
		i++
	}
	return body[from:i], i
}

// parseInvariant parses `invariant: <expr>` or
// `invariant "message": <expr>`.
func (p *fileParser) parseInvariant(ln srcLine) *core.Invariant {
	rest := strings.TrimPrefix(ln.text, "invariant")
	message := ""
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, `"`) {
		end := strings.Index(rest[1:], `"`)
		if end < 0 {
			p.errorf(ln.num, "unterminated invariant message")
			return nil
		}
		message = rest[1 : 1+end]
		rest = strings.TrimSpace(rest[2+end:])
	}
	if !strings.HasPrefix(rest, ":") {
		p.errorf(ln.num, "expected ':' after invariant")
		return nil
	}
	source := strings.TrimSpace(rest[1:])
	if source == "" {
		p.errorf(ln.num, "invariant has no expression")
		return nil
	}

	expr, err := parser.ParseInvariant(source)
	if err != nil {
		p.errorf(ln.num, "invalid invariant expression: %v", err)
		return nil
	}
	return &core.Invariant{Expr: expr, Source: source, Message: message}
}

// parseMachine parses a status block: an optional explicit states line and
// the transitions. States referenced only by transitions are registered in
// first-appearance order.
func (p *fileParser) parseMachine(body []srcLine) *core.StateMachine {
	m := &core.StateMachine{StatusField: "status"}
	if len(body) == 0 {
		return m
	}
	base := body[0].indent

	addState := func(name string) {
		if name == core.WildcardState || m.HasState(name) {
			return
		}
		m.States = append(m.States, name)
	}

	i := 0
	for i < len(body) {
		ln := body[i]
		if ln.indent != base {
			p.errorf(ln.num, "unexpected indentation: %q", ln.text)
			i++
			continue
		}

		if states, ok := strings.CutPrefix(ln.text, "states:"); ok {
			for _, s := range strings.Split(states, ",") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				if !identPattern.MatchString(s) {
					p.errorf(ln.num, "invalid state name %q", s)
					continue
				}
				addState(s)
			}
			i++
			continue
		}

		tm := transitionPattern.FindStringSubmatch(ln.text)
		if tm == nil {
			p.errorf(ln.num, "unrecognized status clause: %q", ln.text)
			i++
			continue
		}

		tr := &core.Transition{From: tm[1], To: tm[2]}
		addState(tr.From)
		addState(tr.To)

		clause := strings.TrimSpace(tm[4])
		switch {
		case tm[3] == "":
			// bare `from -> to`, no preconditions
			i++
		case clause != "":
			p.parseTransitionClause(tr, ln, clause)
			i++
		default:
			// `from -> to:` opens a block of stacked clauses
			sub, next := subBlock(body, i+1, base)
			i = next
			p.parseTransitionBlock(tr, ln, sub)
		}
		m.Transitions = append(m.Transitions, tr)
	}
	return m
}

// parseTransitionBlock parses the stacked clause form. A message line
// attaches to the most recent expression guard.
func (p *fileParser) parseTransitionBlock(tr *core.Transition, head srcLine, body []srcLine) {
	if len(body) == 0 {
		p.errorf(head.num, "transition %s -> %s has an empty block", tr.From, tr.To)
		return
	}
	for _, ln := range body {
		if msg, ok := strings.CutPrefix(ln.text, "message:"); ok {
			msg = strings.TrimSpace(msg)
			msg = strings.Trim(msg, `"`)
			g := lastExprGuard(tr)
			if g == nil {
				p.errorf(ln.num, "message without a preceding guard")
				continue
			}
			g.Message = msg
			continue
		}
		if src, ok := strings.CutPrefix(ln.text, "guard:"); ok {
			p.addExprGuard(tr, ln, strings.TrimSpace(src))
			continue
		}
		p.parseTransitionClause(tr, ln, ln.text)
	}
}

// parseTransitionClause parses one precondition clause: requires <field>,
// role(<name>), auto after N <unit> [or manual], or a bare guard expression.
func (p *fileParser) parseTransitionClause(tr *core.Transition, ln srcLine, clause string) {
	if field, ok := strings.CutPrefix(clause, "requires "); ok {
		field = strings.TrimSpace(field)
		if !identPattern.MatchString(field) {
			p.errorf(ln.num, "invalid field name %q in requires", field)
			return
		}
		tr.Guards = append(tr.Guards, &core.Guard{Kind: core.GuardField, Field: field})
		return
	}

	if rm := rolePattern.FindStringSubmatch(clause); rm != nil {
		tr.Guards = append(tr.Guards, &core.Guard{Kind: core.GuardRole, Role: rm[1]})
		return
	}

	if am := autoPattern.FindStringSubmatch(clause); am != nil {
		if tr.Auto != nil {
			p.errorf(ln.num, "transition %s -> %s declares auto twice", tr.From, tr.To)
			return
		}
		delay, err := strconv.ParseInt(am[1], 10, 64)
		if err != nil {
			p.errorf(ln.num, "invalid auto delay %q", am[1])
			return
		}
		tr.Auto = &core.AutoTransitionSpec{Delay: delay, Unit: am[2], OrManual: am[3] != ""}
		return
	}

	p.addExprGuard(tr, ln, clause)
}

func (p *fileParser) addExprGuard(tr *core.Transition, ln srcLine, source string) {
	if source == "" {
		p.errorf(ln.num, "guard has no expression")
		return
	}
	expr, err := parser.ParseExpression(source)
	if err != nil {
		p.errorf(ln.num, "invalid guard expression: %v", err)
		return
	}
	tr.Guards = append(tr.Guards, &core.Guard{Kind: core.GuardExpr, Expr: expr, Source: source})
}

func lastExprGuard(tr *core.Transition) *core.Guard {
	for i := len(tr.Guards) - 1; i >= 0; i-- {
		if tr.Guards[i].Kind == core.GuardExpr {
			return tr.Guards[i]
		}
	}
	return nil
}
