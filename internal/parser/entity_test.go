package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapapp/pkg/core"
)

func parseEntitySource(t *testing.T, src string) *core.Entity {
	t.Helper()
	mod, err := ParseContent("test.leap", src)
	require.NoError(t, err)
	require.Len(t, mod.Fragment.Entities, 1)
	return mod.Fragment.Entities[0]
}

func TestParseEntityFields(t *testing.T) {
	src := `module demo
entity Customer "Customer Accounts":
    id: int pk
    name: str(120) required
    email: email unique
    balance: decimal(12,2)
    notes: text
    active: bool default(true)
    tier: enum("bronze", "silver", "gold") default("bronze")
    manager: ref(Employee)
    total: money required = balance + 10
`
	ent := parseEntitySource(t, src)
	assert.Equal(t, "Customer", ent.Name)
	assert.Equal(t, "Customer Accounts", ent.Title)
	require.Len(t, ent.Fields, 9)

	id := ent.Field("id")
	require.NotNil(t, id)
	assert.Equal(t, core.KindInt, id.Type.Kind)
	assert.True(t, id.Primary)

	name := ent.Field("name")
	assert.Equal(t, core.KindStr, name.Type.Kind)
	assert.Equal(t, 120, name.Type.MaxLength)
	assert.True(t, name.Required)

	assert.True(t, ent.Field("email").Unique)

	balance := ent.Field("balance")
	assert.Equal(t, core.KindDecimal, balance.Type.Kind)
	assert.Equal(t, 12, balance.Type.Precision)
	assert.Equal(t, 2, balance.Type.Scale)

	active := ent.Field("active")
	assert.Equal(t, "true", active.Default)

	tier := ent.Field("tier")
	assert.Equal(t, core.KindEnum, tier.Type.Kind)
	assert.Equal(t, []string{"bronze", "silver", "gold"}, tier.Type.Values)
	assert.Equal(t, `"bronze"`, tier.Default)

	manager := ent.Field("manager")
	assert.Equal(t, core.KindRef, manager.Type.Kind)
	assert.Equal(t, "Employee", manager.Type.Entity)

	total := ent.Field("total")
	assert.Equal(t, core.KindMoney, total.Type.Kind)
	assert.True(t, total.Required)
	require.NotNil(t, total.Computed)
	assert.Equal(t, "balance + 10", total.ComputedS)
}

func TestParseEntityFieldOrderPreserved(t *testing.T) {
	src := `module demo
entity Thing:
    zeta: int
    alpha: int
    mid: int
`
	ent := parseEntitySource(t, src)
	var names []string
	for _, f := range ent.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestParseEntityFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"unknown type", "x: varchar(50)", "unknown field type"},
		{"bad str length", "x: str(abc)", "str length"},
		{"bad decimal", "x: decimal(2,5)", "decimal"},
		{"enum without values", "x: enum", "enum requires"},
		{"enum unquoted", "x: enum(a, b)", "quoted"},
		{"ref without target", "x: ref", "ref requires"},
		{"parameterized scalar", "x: int(10)", "takes no parameters"},
		{"unknown modifier", "x: int frobnicate", "unrecognized modifier"},
		{"empty computed", "x: int =", "empty computed expression"},
		{"bad computed", "x: int = 1 +", "invalid computed expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "module demo\nentity Thing:\n    " + tt.line + "\n"
			_, err := ParseContent("test.leap", src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseEntityDuplicateField(t *testing.T) {
	src := `module demo
entity Thing:
    x: int
    x: str
`
	_, err := ParseContent("test.leap", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate field "x"`)
}

func TestParseEntityStateMachineInline(t *testing.T) {
	src := `module onboarding
entity Application:
    applicant_name: str(120)
    score: int
    status:
        states: draft, review, approved, rejected
        draft -> review: requires applicant_name
        review -> approved: score >= 70
        review -> approved: role(compliance_officer)
        review -> rejected
        * -> cancelled
        approved -> archived: auto after 30 d or manual
`
	ent := parseEntitySource(t, src)
	m := ent.Machine
	require.NotNil(t, m)
	assert.Equal(t, "status", m.StatusField)
	assert.Equal(t,
		[]string{"draft", "review", "approved", "rejected", "cancelled", "archived"},
		m.States)
	require.Len(t, m.Transitions, 6)

	req := m.Transitions[0]
	require.Len(t, req.Guards, 1)
	assert.Equal(t, core.GuardField, req.Guards[0].Kind)
	assert.Equal(t, "applicant_name", req.Guards[0].Field)

	expr := m.Transitions[1]
	require.Len(t, expr.Guards, 1)
	assert.Equal(t, core.GuardExpr, expr.Guards[0].Kind)
	assert.Equal(t, "score >= 70", expr.Guards[0].Source)
	assert.NotNil(t, expr.Guards[0].Expr)

	role := m.Transitions[2].Guards[0]
	assert.Equal(t, core.GuardRole, role.Kind)
	assert.Equal(t, "compliance_officer", role.Role)

	bare := m.Transitions[3]
	assert.Equal(t, "review", bare.From)
	assert.Equal(t, "rejected", bare.To)
	assert.Empty(t, bare.Guards)

	wildcard := m.Transitions[4]
	assert.Equal(t, core.WildcardState, wildcard.From)
	assert.Equal(t, "cancelled", wildcard.To)
	assert.Empty(t, wildcard.Guards)

	auto := m.Transitions[5].Auto
	require.NotNil(t, auto)
	assert.Equal(t, int64(30), auto.Delay)
	assert.Equal(t, "d", auto.Unit)
	assert.True(t, auto.OrManual)
}

func TestParseEntityStateMachineBlockForm(t *testing.T) {
	src := `module onboarding
entity Application:
    score: int
    status:
        review -> approved:
            guard: score >= 70
            message: "score must reach 70"
            requires reviewer_id
            role(compliance_officer)
            auto after 2 w
`
	ent := parseEntitySource(t, src)
	require.NotNil(t, ent.Machine)
	require.Len(t, ent.Machine.Transitions, 1)
	tr := ent.Machine.Transitions[0]

	require.Len(t, tr.Guards, 3)
	assert.Equal(t, core.GuardExpr, tr.Guards[0].Kind)
	assert.Equal(t, "score must reach 70", tr.Guards[0].Message)
	assert.Equal(t, core.GuardField, tr.Guards[1].Kind)
	assert.Equal(t, "reviewer_id", tr.Guards[1].Field)
	assert.Equal(t, core.GuardRole, tr.Guards[2].Kind)

	require.NotNil(t, tr.Auto)
	assert.Equal(t, int64(2), tr.Auto.Delay)
	assert.Equal(t, "w", tr.Auto.Unit)
	assert.False(t, tr.Auto.OrManual)
}

func TestParseEntityStateMachineErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty block", "draft -> review:", "empty block"},
		{"message without guard", "draft -> review:\n            message: \"x\"", "message without a preceding guard"},
		{"bad guard expr", "draft -> review: score >=", "invalid guard expression"},
		{"duplicate auto", "draft -> review:\n            auto after 1 d\n            auto after 2 d", "declares auto twice"},
		{"bad clause", "draft -> review -> done", "unrecognized status clause"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "module demo\nentity Thing:\n    status:\n        " + tt.body + "\n"
			_, err := ParseContent("test.leap", src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseEntityDuplicateStatusBlock(t *testing.T) {
	src := `module demo
entity Thing:
    status:
        a -> b
    status:
        c -> d
`
	_, err := ParseContent("test.leap", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one status block")
}

func TestParseEntityInvariants(t *testing.T) {
	src := `module treasury
entity Account:
    balance: money
    credit_limit: money
    invariant: balance >= 0
    invariant "credit limit covers balance": credit_limit >= balance
`
	ent := parseEntitySource(t, src)
	require.Len(t, ent.Invariants, 2)
	assert.Equal(t, "balance >= 0", ent.Invariants[0].Source)
	assert.Empty(t, ent.Invariants[0].Message)
	assert.Equal(t, "credit limit covers balance", ent.Invariants[1].Message)
	require.NotNil(t, ent.Invariants[1].Expr)
}

func TestParseEntityInvariantRejectsIf(t *testing.T) {
	src := `module demo
entity Thing:
    x: int
    invariant: if x > 0 then true else false
`
	_, err := ParseContent("test.leap", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid invariant expression")
}
