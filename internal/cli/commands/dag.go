package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapapp/internal/config"
	"github.com/leapstack-labs/leapapp/internal/modgraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// moduleNode is the serializable row for dag output.
type moduleNode struct {
	Module     string   `json:"module" yaml:"module"`
	Level      int      `json:"level" yaml:"level"`
	Uses       []string `json:"uses,omitempty" yaml:"uses,omitempty"`
	Dependents []string `json:"dependents,omitempty" yaml:"dependents,omitempty"`
}

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dag",
		Short: "Show the module dependency graph",
		Long: `Display the module dependency graph grouped by dependency level.
Level 0 modules use nothing; each later level uses only earlier ones.
Cycles are reported as errors with the offending path.`,
		Example: `  # Show the module graph
  leapapp dag

  # Machine-readable graph
  leapapp dag --output json`,
		RunE: runDAG,
	}
	return cmd
}

func runDAG(cmd *cobra.Command, _ []string) error {
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

	graph, problems := modgraph.Build(res.Modules)
	for _, prob := range problems {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", prob)
	}

	if ok, path := graph.HasCycle(); ok {
		return fmt.Errorf("module dependency cycle: %s", strings.Join(path, " -> "))
	}

	levels, err := graph.Levels()
	if err != nil {
		return err
	}

	var nodes []moduleNode
	for level, names := range levels {
		for _, name := range names {
			nodes = append(nodes, moduleNode{
				Module:     name,
				Level:      level,
				Uses:       graph.Dependencies(name),
				Dependents: graph.Dependents(name),
			})
		}
	}

	switch p.Cfg.Output {
	case config.OutputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	case config.OutputYAML:
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(nodes)
	default:
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Level", "Module", "Uses", "Dependents"})
		for _, n := range nodes {
			t.AppendRow(table.Row{
				n.Level, n.Module,
				strings.Join(n.Uses, ", "),
				strings.Join(n.Dependents, ", "),
			})
		}
		t.Render()
		return nil
	}
}
