package eval

import (
	"fmt"

	"github.com/leapstack-labs/leapapp/pkg/core"
)

// GuardResult records the outcome of a single guard check. Err is set when
// the guard expression failed to evaluate; a guard that errors did not pass.
type GuardResult struct {
	Guard   *core.Guard
	Passed  bool
	Message string
	Err     error
}

// Decision is the outcome of checking a transition. Role guards are not
// decided here: the engine has no principal, so required roles are carried
// for the caller to enforce.
type Decision struct {
	Allowed       bool
	Transition    *core.Transition
	RequiredRoles []string
	Results       []GuardResult
}

// FailureMessages returns the messages of all guards that did not pass.
func (d Decision) FailureMessages() []string {
	var msgs []string
	for _, r := range d.Results {
		if !r.Passed {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}

// InvariantResult records the outcome of a single invariant check.
type InvariantResult struct {
	Invariant *core.Invariant
	Passed    bool
	Message   string
	Err       error
}

// CheckTransition finds the transition from one state to another on an
// entity's machine, evaluates its guards against the record context, and
// returns the decision. A from state of "*" on the transition matches any
// current state. Missing transitions are not allowed.
func (e *Evaluator) CheckTransition(ent *core.Entity, from, to string, ctx Context) Decision {
	if ent.Machine == nil {
		return Decision{}
	}

	tr := findTransition(ent.Machine, from, to)
	if tr == nil {
		return Decision{}
	}

	dec := Decision{Allowed: true, Transition: tr}
	for _, g := range tr.Guards {
		switch g.Kind {
		case core.GuardRole:
			dec.RequiredRoles = append(dec.RequiredRoles, g.Role)
			continue
		case core.GuardField:
			res := e.checkFieldGuard(g, ctx)
			dec.Results = append(dec.Results, res)
			if !res.Passed {
				dec.Allowed = false
			}
		case core.GuardExpr:
			res := e.checkExprGuard(g, ctx)
			dec.Results = append(dec.Results, res)
			if !res.Passed {
				dec.Allowed = false
			}
		}
	}
	return dec
}

// CheckInvariants evaluates every invariant on an entity against the record
// context. An invariant that fails to evaluate is reported as not passed.
func (e *Evaluator) CheckInvariants(ent *core.Entity, ctx Context) []InvariantResult {
	results := make([]InvariantResult, 0, len(ent.Invariants))
	for _, inv := range ent.Invariants {
		res := InvariantResult{Invariant: inv, Message: inv.Message}
		if res.Message == "" {
			res.Message = fmt.Sprintf("invariant violated: %s", inv.Source)
		}

		val, err := e.Evaluate(inv.Expr, ctx)
		if err != nil {
			res.Err = err
		} else {
			res.Passed = isTruthy(val)
		}
		results = append(results, res)
	}
	return results
}

func findTransition(m *core.StateMachine, from, to string) *core.Transition {
	var wildcard *core.Transition
	for _, tr := range m.Transitions {
		if tr.To != to {
			continue
		}
		if tr.From == from {
			return tr
		}
		if tr.From == core.WildcardState && wildcard == nil {
			wildcard = tr
		}
	}
	return wildcard
}

// checkFieldGuard verifies the field is populated: present in the context
// and neither nil nor an empty string.
func (e *Evaluator) checkFieldGuard(g *core.Guard, ctx Context) GuardResult {
	res := GuardResult{Guard: g, Message: g.Message}
	if res.Message == "" {
		res.Message = fmt.Sprintf("%s is required", g.Field)
	}

	val := resolvePath(ctx, []string{g.Field})
	if s, ok := val.(string); ok {
		res.Passed = s != ""
		return res
	}
	res.Passed = val != nil
	return res
}

func (e *Evaluator) checkExprGuard(g *core.Guard, ctx Context) GuardResult {
	res := GuardResult{Guard: g, Message: g.Message}
	if res.Message == "" {
		res.Message = fmt.Sprintf("guard did not pass: %s", g.Source)
	}

	val, err := e.Evaluate(g.Expr, ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Passed = isTruthy(val)
	return res
}
