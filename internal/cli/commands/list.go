package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapapp/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// entityInfo is the serializable row for list output.
type entityInfo struct {
	Name       string `json:"name" yaml:"name"`
	Module     string `json:"module" yaml:"module"`
	Fields     int    `json:"fields" yaml:"fields"`
	States     int    `json:"states" yaml:"states"`
	Invariants int    `json:"invariants" yaml:"invariants"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all entities across modules",
		Long: `List every entity the project declares, with its module, field count,
state count, and invariant count. The project must compile.`,
		Example: `  # List entities in a table
  leapapp list

  # List entities as JSON
  leapapp list --output json`,
		RunE: runList,
	}
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	p := GetProject(cmd)
	out := cmd.OutOrStdout()

	res, err := p.Loader().Discover(p.ModulesDir())
	if err != nil {
		return err
	}
	if diags := collectSourceDiagnostics(res); len(diags) > 0 {
		rep := newReport(diags)
		if err := renderReport(out, p.Cfg.Output, rep); err != nil {
			return err
		}
		return fmt.Errorf("project has %d errors", rep.Errors)
	}

	app, errs := p.Compiler().Compile(res.Modules)
	if len(errs) > 0 {
		var diags []Diagnostic
		for _, e := range errs {
			diags = append(diags, errDiagnostics(e)...)
		}
		rep := newReport(diags)
		if err := renderReport(out, p.Cfg.Output, rep); err != nil {
			return err
		}
		return fmt.Errorf("project has %d errors", rep.Errors)
	}

	rows := make([]entityInfo, 0, len(app.Entities))
	for _, mod := range app.Modules {
		for _, ent := range mod.Fragment.Entities {
			states := 0
			if ent.Machine != nil {
				states = len(ent.Machine.States)
			}
			rows = append(rows, entityInfo{
				Name:       ent.Name,
				Module:     mod.Name,
				Fields:     len(ent.Fields),
				States:     states,
				Invariants: len(ent.Invariants),
			})
		}
	}

	switch p.Cfg.Output {
	case config.OutputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case config.OutputYAML:
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(rows)
	default:
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Entity", "Module", "Fields", "States", "Invariants"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.Name, r.Module, r.Fields, r.States, r.Invariants})
		}
		t.Render()
		return nil
	}
}
