package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapapp/pkg/core"
)

func entityModule(name string, uses []string, entities ...*core.Entity) *core.Module {
	return &core.Module{
		Name:     name,
		Uses:     uses,
		Fragment: &core.Fragment{Entities: entities},
	}
}

func refField(name, target string) *core.Field {
	return &core.Field{Name: name, Type: core.FieldType{Kind: core.KindRef, Entity: target}}
}

func TestBuildSymbolTable(t *testing.T) {
	mods := []*core.Module{
		entityModule("billing", nil,
			&core.Entity{Name: "Invoice"},
			&core.Entity{Name: "Payment"}),
		entityModule("crm", nil,
			&core.Entity{Name: "Customer"}),
	}

	st, err := BuildSymbolTable(mods)
	require.NoError(t, err)

	ent, mod, ok := st.Entity("Invoice")
	require.True(t, ok)
	assert.Equal(t, "Invoice", ent.Name)
	assert.Equal(t, "billing", mod)

	_, _, ok = st.Entity("Missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Customer", "Invoice", "Payment"}, st.EntityNames())
}

func TestBuildSymbolTableDuplicateEntity(t *testing.T) {
	mods := []*core.Module{
		entityModule("billing", nil, &core.Entity{Name: "Invoice"}),
		entityModule("archive", nil, &core.Entity{Name: "Invoice"}),
	}

	_, err := BuildSymbolTable(mods)
	require.Error(t, err)

	var dup *DuplicateSymbolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, KindEntity, dup.Kind)
	assert.Equal(t, "Invoice", dup.Name)
	assert.Equal(t, "billing", dup.FirstModule)
	assert.Equal(t, "archive", dup.SecondModule)
	// the message names both modules
	assert.Contains(t, err.Error(), "billing")
	assert.Contains(t, err.Error(), "archive")
}

func TestBuildSymbolTableDuplicateAcrossKinds(t *testing.T) {
	tests := []struct {
		name string
		mods []*core.Module
		kind SymbolKind
	}{
		{
			"service",
			[]*core.Module{
				{Name: "a", Fragment: &core.Fragment{Services: []*core.Service{{Name: "Pricing"}}}},
				{Name: "b", Fragment: &core.Fragment{Services: []*core.Service{{Name: "Pricing"}}}},
			},
			KindService,
		},
		{
			"model",
			[]*core.Module{
				{Name: "a", Fragment: &core.Fragment{LLMModels: []*core.LLMModel{{Name: "gpt4"}}}},
				{Name: "b", Fragment: &core.Fragment{LLMModels: []*core.LLMModel{{Name: "gpt4"}}}},
			},
			KindModel,
		},
		{
			"intent",
			[]*core.Module{
				{Name: "a", Fragment: &core.Fragment{LLMIntents: []*core.LLMIntent{{Name: "triage"}}}},
				{Name: "b", Fragment: &core.Fragment{LLMIntents: []*core.LLMIntent{{Name: "triage"}}}},
			},
			KindIntent,
		},
		{
			"llm config",
			[]*core.Module{
				{Name: "a", Fragment: &core.Fragment{LLMConfig: &core.LLMConfig{}}},
				{Name: "b", Fragment: &core.Fragment{LLMConfig: &core.LLMConfig{}}},
			},
			KindConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSymbolTable(tt.mods)
			var dup *DuplicateSymbolError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.kind, dup.Kind)
		})
	}
}

func TestValidateReferences(t *testing.T) {
	mods := []*core.Module{
		entityModule("crm", nil,
			&core.Entity{Name: "Customer", Fields: []*core.Field{
				refField("manager", "Employee"), // unknown
			}}),
		{Name: "assistant", Fragment: &core.Fragment{
			LLMModels:  []*core.LLMModel{{Name: "gpt4"}},
			LLMIntents: []*core.LLMIntent{{Name: "summarize", Model: "claude"}, {Name: "triage"}},
			LLMConfig: &core.LLMConfig{
				DefaultModel: "mistral",
				RateLimits:   map[string]int64{"gpt4": 100, "phantom": 10},
			},
		}},
	}

	st, err := BuildSymbolTable(mods)
	require.NoError(t, err)

	problems := st.ValidateReferences()
	require.Len(t, problems, 4)
	assert.Contains(t, problems[0], `unknown entity "Employee"`)
	assert.Contains(t, problems[1], `intent summarize references unknown model "claude"`)
	assert.Contains(t, problems[2], `default_model references unknown model "mistral"`)
	assert.Contains(t, problems[3], `rate_limit references unknown model "phantom"`)
}

func TestValidateReferencesIntentWithoutDefault(t *testing.T) {
	mods := []*core.Module{
		{Name: "assistant", Fragment: &core.Fragment{
			LLMIntents: []*core.LLMIntent{{Name: "triage"}},
		}},
	}

	st, err := BuildSymbolTable(mods)
	require.NoError(t, err)

	problems := st.ValidateReferences()
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "intent triage has no model and no default_model")
}

func TestValidateReferencesClean(t *testing.T) {
	mods := []*core.Module{
		entityModule("crm", nil,
			&core.Entity{Name: "Customer", Fields: []*core.Field{refField("account", "Account")}},
			&core.Entity{Name: "Account"}),
		{Name: "assistant", Fragment: &core.Fragment{
			LLMModels:  []*core.LLMModel{{Name: "gpt4"}},
			LLMIntents: []*core.LLMIntent{{Name: "triage"}},
			LLMConfig:  &core.LLMConfig{DefaultModel: "gpt4"},
		}},
	}

	st, err := BuildSymbolTable(mods)
	require.NoError(t, err)
	assert.Empty(t, st.ValidateReferences())
}

func TestValidateModuleAccess(t *testing.T) {
	mods := []*core.Module{
		entityModule("identity", nil, &core.Entity{Name: "User"}),
		entityModule("blog", []string{"identity"},
			&core.Entity{Name: "Post", Fields: []*core.Field{refField("author", "User")}}),
		entityModule("audit", nil,
			&core.Entity{Name: "LogEntry", Fields: []*core.Field{refField("actor", "User")}}),
	}

	st, err := BuildSymbolTable(mods)
	require.NoError(t, err)

	problems := st.ValidateModuleAccess()
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "LogEntry")
	assert.Contains(t, problems[0], `module "audit" does not use it`)
}

func TestValidateModuleAccessSameModule(t *testing.T) {
	mods := []*core.Module{
		entityModule("crm", nil,
			&core.Entity{Name: "Customer", Fields: []*core.Field{refField("account", "Account")}},
			&core.Entity{Name: "Account"}),
	}

	st, err := BuildSymbolTable(mods)
	require.NoError(t, err)
	assert.Empty(t, st.ValidateModuleAccess())
}

func TestFieldTypeConflicts(t *testing.T) {
	mods := []*core.Module{
		entityModule("billing", nil,
			&core.Entity{Name: "Invoice", Fields: []*core.Field{
				{Name: "amount", Type: core.FieldType{Kind: core.KindMoney}},
				{Name: "status", Type: core.FieldType{Kind: core.KindEnum, Values: []string{"open", "paid"}}},
			}}),
		entityModule("inventory", nil,
			&core.Entity{Name: "Item", Fields: []*core.Field{
				{Name: "amount", Type: core.FieldType{Kind: core.KindInt}},
				{Name: "status", Type: core.FieldType{Kind: core.KindEnum, Values: []string{"stocked", "out"}}},
			}}),
	}

	st, err := BuildSymbolTable(mods)
	require.NoError(t, err)

	catalog := st.FieldTypeCatalog()
	assert.Len(t, catalog["amount"], 2)
	assert.Len(t, catalog["status"], 2)

	// money vs int conflicts; enum vs enum with different values does not
	warnings := st.FieldTypeConflicts()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `field "amount"`)
	assert.Contains(t, warnings[0], "money")
	assert.Contains(t, warnings[0], "int")
}

func TestFieldTypeConflictsRefTargets(t *testing.T) {
	mods := []*core.Module{
		entityModule("a", nil,
			&core.Entity{Name: "Post", Fields: []*core.Field{refField("owner", "User")}},
			&core.Entity{Name: "Task", Fields: []*core.Field{refField("owner", "Team")}}),
	}

	st, err := BuildSymbolTable(mods)
	require.NoError(t, err)

	warnings := st.FieldTypeConflicts()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "ref(User)")
	assert.Contains(t, warnings[0], "ref(Team)")
}
