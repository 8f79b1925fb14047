package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentModuleHeader(t *testing.T) {
	mod, err := ParseContent("billing.leap", "module billing\n")
	require.NoError(t, err)
	assert.Equal(t, "billing", mod.Name)
	assert.Equal(t, "billing.leap", mod.FilePath)
	assert.Empty(t, mod.Uses)
}

func TestParseContentMissingModuleHeader(t *testing.T) {
	_, err := ParseContent("x.leap", "entity Customer:\n    name: str\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected module declaration")
}

func TestParseContentEmptyFile(t *testing.T) {
	_, err := ParseContent("x.leap", "# only a comment\n\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}

func TestParseContentUses(t *testing.T) {
	src := `module crm
uses billing, identity
`
	mod, err := ParseContent("crm.leap", src)
	require.NoError(t, err)
	assert.Equal(t, []string{"billing", "identity"}, mod.Uses)
	assert.True(t, mod.UsesModule("billing"))
	assert.False(t, mod.UsesModule("payments"))
}

func TestParseContentDeclarations(t *testing.T) {
	src := `module assistant

service PricingService
service RiskService

model gpt4 provider "openai"
model claude provider "anthropic"
intent summarize model claude
intent triage

llm config:
    default_model gpt4
    rate_limit gpt4 100
    rate_limit claude 60

term counterparty "The other side of a trade"
`
	mod, err := ParseContent("assistant.leap", src)
	require.NoError(t, err)

	frag := mod.Fragment
	require.Len(t, frag.Services, 2)
	assert.Equal(t, "PricingService", frag.Services[0].Name)

	require.Len(t, frag.LLMModels, 2)
	assert.Equal(t, "openai", frag.LLMModels[0].Provider)

	require.Len(t, frag.LLMIntents, 2)
	assert.Equal(t, "claude", frag.LLMIntents[0].Model)
	assert.Empty(t, frag.LLMIntents[1].Model)

	require.NotNil(t, frag.LLMConfig)
	assert.Equal(t, "gpt4", frag.LLMConfig.DefaultModel)
	assert.Equal(t, int64(60), frag.LLMConfig.RateLimits["claude"])

	require.Len(t, frag.Vocabulary, 1)
	assert.Equal(t, "counterparty", frag.Vocabulary[0].Name)
	assert.Equal(t, "The other side of a trade", frag.Vocabulary[0].Definition)
}

func TestParseContentCommentsIgnored(t *testing.T) {
	src := `module demo
# a full-line comment
entity Customer "Customer":  # trailing comment
    name: str(80) required   # another
    note: str default("no # inside quotes")
`
	mod, err := ParseContent("demo.leap", src)
	require.NoError(t, err)
	require.Len(t, mod.Fragment.Entities, 1)
	ent := mod.Fragment.Entities[0]
	require.Len(t, ent.Fields, 2)
	assert.Equal(t, `"no # inside quotes"`, ent.Fields[1].Default)
}

func TestParseContentUnrecognizedDeclaration(t *testing.T) {
	src := `module demo
widget Thing:
    part: str
`
	mod, err := ParseContent("demo.leap", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized declaration")
	assert.Contains(t, err.Error(), "demo.leap:2")
	// the malformed block is skipped, not misparsed
	assert.Empty(t, mod.Fragment.Entities)
}

func TestParseContentCollectsAllErrors(t *testing.T) {
	src := `module demo
widget Thing
gadget Other
`
	_, err := ParseContent("demo.leap", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo.leap:2")
	assert.Contains(t, err.Error(), "demo.leap:3")
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.leap")
	src := `module orders
entity Order:
    number: str(20) required unique
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	mod, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "orders", mod.Name)
	assert.Equal(t, path, mod.FilePath)
	require.Len(t, mod.Fragment.Entities, 1)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "absent.leap"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}
