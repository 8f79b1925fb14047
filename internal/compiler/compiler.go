// Package compiler links parsed modules into an Application IR. It drives
// the symbol table, reference validation, module access checks, and the uses
// graph, then assembles the immutable result.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapapp/internal/linker"
	"github.com/leapstack-labs/leapapp/internal/modgraph"
	"github.com/leapstack-labs/leapapp/pkg/core"
)

// Compiler links modules into applications.
type Compiler struct {
	logger *slog.Logger
}

// Config holds compiler configuration.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a compiler.
func New(cfg Config) *Compiler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{logger: logger}
}

// Compile links the modules. A duplicate symbol aborts immediately; every
// other check runs to completion so the caller sees all errors at once.
// Field type conflicts are warnings on the Application, never errors.
func (c *Compiler) Compile(modules []*core.Module) (*core.Application, []error) {
	runID := uuid.NewString()
	c.logger.Debug("compiling", "run_id", runID, "modules", len(modules))

	symbols, err := linker.BuildSymbolTable(modules)
	if err != nil {
		c.logger.Error("symbol table build failed", "run_id", runID, "error", err)
		return nil, []error{err}
	}

	var errs []error
	graph, graphProblems := modgraph.Build(modules)
	for _, p := range graphProblems {
		errs = append(errs, fmt.Errorf("%s", p))
	}
	if cyclic, cycle := graph.HasCycle(); cyclic {
		errs = append(errs, fmt.Errorf("module cycle detected: %v", cycle))
	}

	for _, p := range symbols.ValidateReferences() {
		errs = append(errs, fmt.Errorf("%s", p))
	}
	for _, p := range symbols.ValidateModuleAccess() {
		errs = append(errs, fmt.Errorf("%s", p))
	}
	if len(errs) > 0 {
		c.logger.Error("linking failed", "run_id", runID, "errors", len(errs))
		return nil, errs
	}

	app := &core.Application{
		RunID:        runID,
		Modules:      modules,
		Entities:     make(map[string]*core.Entity),
		EntityModule: make(map[string]string),
		Config:       symbols.Config(),
		Warnings:     symbols.FieldTypeConflicts(),
	}

	for _, mod := range modules {
		if mod.Fragment == nil {
			continue
		}
		for _, ent := range mod.Fragment.Entities {
			app.Entities[ent.Name] = ent
			app.EntityModule[ent.Name] = mod.Name
		}
		app.Services = append(app.Services, mod.Fragment.Services...)
		app.Models = append(app.Models, mod.Fragment.LLMModels...)
		app.Intents = append(app.Intents, mod.Fragment.LLMIntents...)
		app.Vocabulary = append(app.Vocabulary, mod.Fragment.Vocabulary...)
	}

	c.logger.Info("compiled",
		"run_id", runID,
		"modules", len(modules),
		"entities", len(app.Entities),
		"warnings", len(app.Warnings))
	return app, nil
}
