// Package linker builds the cross-module symbol table and runs the static
// reference checks: duplicate symbols, unresolved references, module access
// rules, and field-type consistency across entities.
package linker

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leapapp/pkg/core"
)

// SymbolKind tags what a global name refers to.
type SymbolKind string

// Symbol kinds. Each namespace is global across the whole application.
const (
	KindEntity  SymbolKind = "entity"
	KindService SymbolKind = "service"
	KindModel   SymbolKind = "model"
	KindIntent  SymbolKind = "intent"
	KindConfig  SymbolKind = "llm config"
)

// DuplicateSymbolError reports a name defined in two modules. Linking stops
// on the first duplicate: everything downstream assumes unique names.
type DuplicateSymbolError struct {
	Kind         SymbolKind
	Name         string
	FirstModule  string
	SecondModule string
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("duplicate %s %q: defined in module %q and module %q",
		e.Kind, e.Name, e.FirstModule, e.SecondModule)
}

// SymbolTable maps every global name to its definition and defining module.
type SymbolTable struct {
	entities map[string]*entitySymbol
	services map[string]string // name -> module
	models   map[string]string
	intents  map[string]*core.LLMIntent
	// intentModules tracks which module declared each intent
	intentModules map[string]string

	config       *core.LLMConfig
	configModule string

	modules []*core.Module
}

type entitySymbol struct {
	entity *core.Entity
	module string
}

// BuildSymbolTable registers every construct of every module fragment.
// The first duplicate name aborts the build.
func BuildSymbolTable(modules []*core.Module) (*SymbolTable, error) {
	st := &SymbolTable{
		entities:      make(map[string]*entitySymbol),
		services:      make(map[string]string),
		models:        make(map[string]string),
		intents:       make(map[string]*core.LLMIntent),
		intentModules: make(map[string]string),
		modules:       modules,
	}

	for _, mod := range modules {
		frag := mod.Fragment
		if frag == nil {
			continue
		}

		for _, ent := range frag.Entities {
			if prev, ok := st.entities[ent.Name]; ok {
				return nil, &DuplicateSymbolError{Kind: KindEntity, Name: ent.Name,
					FirstModule: prev.module, SecondModule: mod.Name}
			}
			st.entities[ent.Name] = &entitySymbol{entity: ent, module: mod.Name}
		}

		for _, svc := range frag.Services {
			if prev, ok := st.services[svc.Name]; ok {
				return nil, &DuplicateSymbolError{Kind: KindService, Name: svc.Name,
					FirstModule: prev, SecondModule: mod.Name}
			}
			st.services[svc.Name] = mod.Name
		}

		for _, m := range frag.LLMModels {
			if prev, ok := st.models[m.Name]; ok {
				return nil, &DuplicateSymbolError{Kind: KindModel, Name: m.Name,
					FirstModule: prev, SecondModule: mod.Name}
			}
			st.models[m.Name] = mod.Name
		}

		for _, in := range frag.LLMIntents {
			if prev, ok := st.intentModules[in.Name]; ok {
				return nil, &DuplicateSymbolError{Kind: KindIntent, Name: in.Name,
					FirstModule: prev, SecondModule: mod.Name}
			}
			st.intents[in.Name] = in
			st.intentModules[in.Name] = mod.Name
		}

		if frag.LLMConfig != nil {
			if st.config != nil {
				return nil, &DuplicateSymbolError{Kind: KindConfig, Name: "llm config",
					FirstModule: st.configModule, SecondModule: mod.Name}
			}
			st.config = frag.LLMConfig
			st.configModule = mod.Name
		}
	}
	return st, nil
}

// Entity returns an entity definition and its defining module.
func (st *SymbolTable) Entity(name string) (*core.Entity, string, bool) {
	sym, ok := st.entities[name]
	if !ok {
		return nil, "", false
	}
	return sym.entity, sym.module, true
}

// HasModel reports whether an LLM model name is defined.
func (st *SymbolTable) HasModel(name string) bool {
	_, ok := st.models[name]
	return ok
}

// Config returns the application LLM config, or nil.
func (st *SymbolTable) Config() *core.LLMConfig { return st.config }

// EntityNames returns all entity names in sorted order.
func (st *SymbolTable) EntityNames() []string {
	names := make([]string, 0, len(st.entities))
	for name := range st.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateReferences checks every by-name reference in the linked fragments:
// field ref targets, intent models, and config model names. It always runs
// the full pass and returns every problem found.
func (st *SymbolTable) ValidateReferences() []string {
	var problems []string

	for _, name := range st.EntityNames() {
		sym := st.entities[name]
		for _, f := range sym.entity.Fields {
			if f.Type.Kind != core.KindRef {
				continue
			}
			if _, ok := st.entities[f.Type.Entity]; !ok {
				problems = append(problems, fmt.Sprintf(
					"entity %s field %s references unknown entity %q",
					name, f.Name, f.Type.Entity))
			}
		}
	}

	var intentNames []string
	for name := range st.intents {
		intentNames = append(intentNames, name)
	}
	sort.Strings(intentNames)
	for _, name := range intentNames {
		in := st.intents[name]
		switch {
		case in.Model != "":
			if !st.HasModel(in.Model) {
				problems = append(problems, fmt.Sprintf(
					"intent %s references unknown model %q", name, in.Model))
			}
		case st.config == nil || st.config.DefaultModel == "":
			problems = append(problems, fmt.Sprintf(
				"intent %s has no model and no default_model is configured", name))
		}
	}

	if st.config != nil {
		if def := st.config.DefaultModel; def != "" && !st.HasModel(def) {
			problems = append(problems, fmt.Sprintf(
				"llm config default_model references unknown model %q", def))
		}
		var limited []string
		for model := range st.config.RateLimits {
			limited = append(limited, model)
		}
		sort.Strings(limited)
		for _, model := range limited {
			if !st.HasModel(model) {
				problems = append(problems, fmt.Sprintf(
					"llm config rate_limit references unknown model %q", model))
			}
		}
	}

	return problems
}

// ValidateModuleAccess enforces the uses rule: a field may only ref an
// entity from another module when that module is declared in uses.
// References within the same module are always allowed.
func (st *SymbolTable) ValidateModuleAccess() []string {
	var problems []string

	for _, mod := range st.modules {
		if mod.Fragment == nil {
			continue
		}
		for _, ent := range mod.Fragment.Entities {
			for _, f := range ent.Fields {
				if f.Type.Kind != core.KindRef {
					continue
				}
				target, ok := st.entities[f.Type.Entity]
				if !ok {
					continue // reported by ValidateReferences
				}
				if target.module == mod.Name || mod.UsesModule(target.module) {
					continue
				}
				problems = append(problems, fmt.Sprintf(
					"entity %s field %s references %s from module %q, but module %q does not use it",
					ent.Name, f.Name, f.Type.Entity, target.module, mod.Name))
			}
		}
	}
	return problems
}

// FieldTypeUse records one occurrence of a field name on an entity.
type FieldTypeUse struct {
	Entity string
	Module string
	Type   core.FieldType
}

// FieldTypeCatalog maps every field name to all its uses across entities.
// Go map ordering is not deterministic; callers sort the keys.
func (st *SymbolTable) FieldTypeCatalog() map[string][]FieldTypeUse {
	catalog := make(map[string][]FieldTypeUse)
	for _, name := range st.EntityNames() {
		sym := st.entities[name]
		for _, f := range sym.entity.Fields {
			catalog[f.Name] = append(catalog[f.Name], FieldTypeUse{
				Entity: name,
				Module: sym.module,
				Type:   f.Type,
			})
		}
	}
	return catalog
}

// FieldTypeConflicts reports field names used with incompatible types across
// entities. These are consistency warnings, never fatal.
func (st *SymbolTable) FieldTypeConflicts() []string {
	catalog := st.FieldTypeCatalog()

	var names []string
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	var warnings []string
	for _, name := range names {
		uses := catalog[name]
		base := uses[0]
		for _, use := range uses[1:] {
			if !base.Type.CompatibleWith(use.Type) {
				warnings = append(warnings, fmt.Sprintf(
					"field %q is %s on entity %s but %s on entity %s",
					name, describeType(base.Type), base.Entity,
					describeType(use.Type), use.Entity))
			}
		}
	}
	return warnings
}

func describeType(t core.FieldType) string {
	if t.Kind == core.KindRef {
		return fmt.Sprintf("ref(%s)", t.Entity)
	}
	return string(t.Kind)
}
