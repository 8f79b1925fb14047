package core

// ---------- Compilation Units ----------

// Module is one DSL compilation unit: a named source file, the list of other
// module names it uses, and the Fragment of constructs it contributes.
// Modules are created by the parser and immutable afterward.
type Module struct {
	// Name is the declared module name
	Name string `json:"name"`
	// FilePath is the source file this module was parsed from
	FilePath string `json:"file_path,omitempty"`
	// Uses lists other module names this module depends on
	Uses []string `json:"uses,omitempty"`
	// Fragment holds the constructs this module contributes
	Fragment *Fragment `json:"fragment"`
}

// UsesModule returns true if the module declares a dependency on name.
func (m *Module) UsesModule(name string) bool {
	for _, u := range m.Uses {
		if u == name {
			return true
		}
	}
	return false
}

// Fragment is the bag of constructs one module contributes.
// Owned exclusively by its Module; never shared.
type Fragment struct {
	Entities   []*Entity         `json:"entities,omitempty"`
	Services   []*Service        `json:"services,omitempty"`
	LLMModels  []*LLMModel       `json:"llm_models,omitempty"`
	LLMIntents []*LLMIntent      `json:"llm_intents,omitempty"`
	LLMConfig  *LLMConfig        `json:"llm_config,omitempty"`
	Vocabulary []*VocabularyTerm `json:"vocabulary,omitempty"`
}

// ---------- Entities ----------

// Entity describes one persistent record type: its fields (insertion order
// significant for generated schemas), an optional state machine, and its
// standing invariants. Entity names are unique across the linked application.
type Entity struct {
	Name       string        `json:"name"`
	Title      string        `json:"title,omitempty"`
	Fields     []*Field      `json:"fields"`
	Machine    *StateMachine `json:"machine,omitempty"`
	Invariants []*Invariant  `json:"invariants,omitempty"`
}

// Field looks up a field by name, preserving nil for missing fields.
func (e *Entity) Field(name string) *Field {
	for _, f := range e.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field is one entity attribute.
type Field struct {
	Name      string    `json:"name"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required,omitempty"`
	Primary   bool      `json:"primary,omitempty"`
	Unique    bool      `json:"unique,omitempty"`
	Default   string    `json:"default,omitempty"`
	Computed  Expr      `json:"-"`
	ComputedS string    `json:"computed,omitempty"` // source text of the computed expression
}

// FieldKind is the closed set of field type kinds.
type FieldKind string

// Field type kinds. The set is closed; generators switch exhaustively on it.
const (
	KindStr      FieldKind = "str"
	KindText     FieldKind = "text"
	KindInt      FieldKind = "int"
	KindDecimal  FieldKind = "decimal"
	KindBool     FieldKind = "bool"
	KindDate     FieldKind = "date"
	KindDatetime FieldKind = "datetime"
	KindMoney    FieldKind = "money"
	KindEmail    FieldKind = "email"
	KindPhone    FieldKind = "phone"
	KindURL      FieldKind = "url"
	KindFile     FieldKind = "file"
	KindJSON     FieldKind = "json"
	KindEnum     FieldKind = "enum"
	KindRef      FieldKind = "ref"
)

// FieldType is a kind tag plus its kind-specific parameters.
type FieldType struct {
	Kind FieldKind `json:"kind"`

	// str
	MaxLength int `json:"max_length,omitempty"`

	// decimal
	Precision int `json:"precision,omitempty"`
	Scale     int `json:"scale,omitempty"`

	// enum
	Values []string `json:"values,omitempty"`

	// ref
	Entity string `json:"entity,omitempty"`
}

// CompatibleWith reports whether two field types could describe the same
// conceptual field. Kinds must match; refs must point at the same entity.
func (t FieldType) CompatibleWith(other FieldType) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == KindRef {
		return t.Entity == other.Entity
	}
	return true
}

// ---------- State Machines ----------

// StateMachine is the finite transition system attached to an entity.
// Exactly one per entity, created when the transition block is parsed and
// immutable thereafter.
type StateMachine struct {
	// StatusField names the entity field that holds the current state
	StatusField string        `json:"status_field"`
	States      []string      `json:"states"`
	Transitions []*Transition `json:"transitions"`
}

// HasState returns true if name is a declared state.
func (sm *StateMachine) HasState(name string) bool {
	for _, s := range sm.States {
		if s == name {
			return true
		}
	}
	return false
}

// WildcardState matches any from-state in a transition.
const WildcardState = "*"

// Transition is one legal state change with its preconditions.
type Transition struct {
	From   string              `json:"from"` // state name or WildcardState
	To     string              `json:"to"`
	Guards []*Guard            `json:"guards,omitempty"`
	Auto   *AutoTransitionSpec `json:"auto,omitempty"`
}

// AutoTransitionSpec describes a time-based trigger for a transition.
// Orthogonal to guards: it is about when, not whether.
type AutoTransitionSpec struct {
	Delay    int64  `json:"delay"`
	Unit     string `json:"unit"` // d, h, w, min, m, y
	OrManual bool   `json:"or_manual,omitempty"`
}

// GuardKind tags the guard variants.
type GuardKind string

// Guard variants.
const (
	// GuardField requires a named field to be present (non-null).
	GuardField GuardKind = "field"
	// GuardRole requires a named role; enforcement is delegated to the
	// external authorization collaborator.
	GuardRole GuardKind = "role"
	// GuardExpr requires an expression to evaluate truthy.
	GuardExpr GuardKind = "expr"
)

// Guard is a tagged precondition variant on a transition.
// A transition is permitted only if every guard passes (implicit AND).
type Guard struct {
	Kind GuardKind `json:"kind"`

	// GuardField
	Field string `json:"field,omitempty"`

	// GuardRole
	Role string `json:"role,omitempty"`

	// GuardExpr
	Expr    Expr   `json:"-"`
	Source  string `json:"expr,omitempty"`    // source text of the expression
	Message string `json:"message,omitempty"` // human-readable failure message
}

// Invariant is an always-true expression over an entity's fields, checked at
// persistence time rather than transition time. It uses the same expression
// AST family as guards so one evaluator serves both.
type Invariant struct {
	Expr    Expr   `json:"-"`
	Source  string `json:"expr"`
	Message string `json:"message,omitempty"`
}

// ---------- Services, LLM Constructs, Vocabulary ----------

// Service is a domain service declaration. Only the name participates in
// linking; implementations live outside the DSL.
type Service struct {
	Name string `json:"name"`
}

// LLMModel declares a model available to intents.
type LLMModel struct {
	Name     string `json:"name"`
	Provider string `json:"provider,omitempty"`
}

// LLMIntent binds a named intent to a model, or to the configured default
// when Model is empty.
type LLMIntent struct {
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
}

// LLMConfig holds application-wide LLM settings.
type LLMConfig struct {
	DefaultModel string           `json:"default_model,omitempty"`
	RateLimits   map[string]int64 `json:"rate_limits,omitempty"` // model name -> requests/min
}

// VocabularyTerm is a named domain term with its definition.
type VocabularyTerm struct {
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
}
