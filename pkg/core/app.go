package core

// Application is the fully linked, validated IR. It is the sole interface
// surface toward downstream generators (UI, API routes, infra), which treat
// it as already valid and perform no re-validation.
//
// An Application is immutable after linking. Expressions inside it may be
// evaluated concurrently from many goroutines against independent contexts;
// safety follows from immutability, not locking.
type Application struct {
	// RunID identifies the compilation run that produced this IR
	RunID string `json:"run_id"`

	Modules []*Module `json:"modules"`

	// Entities indexes every entity in the application by name
	Entities map[string]*Entity `json:"entities"`

	// EntityModule maps entity name to the defining module name
	EntityModule map[string]string `json:"entity_module"`

	Services []*Service   `json:"services,omitempty"`
	Models   []*LLMModel  `json:"llm_models,omitempty"`
	Intents  []*LLMIntent `json:"llm_intents,omitempty"`
	Config   *LLMConfig   `json:"llm_config,omitempty"`

	Vocabulary []*VocabularyTerm `json:"vocabulary,omitempty"`

	// Warnings holds non-fatal consistency findings from linking
	// (e.g. field-type conflicts across entities)
	Warnings []string `json:"warnings,omitempty"`
}

// Entity returns the entity with the given name, or nil.
func (a *Application) Entity(name string) *Entity {
	return a.Entities[name]
}
