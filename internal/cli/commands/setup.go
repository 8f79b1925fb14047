// Package commands implements the leapapp subcommands.
package commands

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/leapapp/internal/compiler"
	"github.com/leapstack-labs/leapapp/internal/config"
	"github.com/leapstack-labs/leapapp/internal/loader"
	"github.com/spf13/cobra"
)

// Project holds the resolved project state shared by all subcommands.
type Project struct {
	Root   string
	Cfg    *config.ProjectConfig
	Logger *slog.Logger
}

// ModulesDir returns the absolute path of the modules directory.
func (p *Project) ModulesDir() string {
	if filepath.IsAbs(p.Cfg.ModulesDir) {
		return p.Cfg.ModulesDir
	}
	return filepath.Join(p.Root, p.Cfg.ModulesDir)
}

// Loader creates a source loader wired to the project logger.
func (p *Project) Loader() *loader.Loader {
	return loader.New(loader.Config{Logger: p.Logger})
}

// Compiler creates a compiler wired to the project logger.
func (p *Project) Compiler() *compiler.Compiler {
	return compiler.New(compiler.Config{Logger: p.Logger})
}

type projectKey struct{}

// WithProject stores the project in the context.
func WithProject(ctx context.Context, p *Project) context.Context {
	return context.WithValue(ctx, projectKey{}, p)
}

// GetProject retrieves the project from the command context. Commands are
// only reachable through the root command, which always stores one; the
// fallback exists for tests that run a subcommand in isolation.
func GetProject(cmd *cobra.Command) *Project {
	if p, ok := cmd.Context().Value(projectKey{}).(*Project); ok {
		return p
	}
	return &Project{
		Root:   ".",
		Cfg:    &config.ProjectConfig{ModulesDir: "modules", Output: config.OutputAuto},
		Logger: slog.New(slog.DiscardHandler),
	}
}
