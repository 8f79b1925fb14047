package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/leapapp/internal/parser"
	"github.com/leapstack-labs/leapapp/pkg/lint"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file...]",
		Short: "Validate and parse modules without linking",
		Long: `Run declarativeness validation and the parser over every module,
reporting violations and structural errors without building the linked
application. With file arguments, only those files are checked. Exits
non-zero when any finding is reported.`,
		Example: `  # Check the whole project
  leapapp check

  # Check a single file
  leapapp check modules/identity.leap

  # Machine-readable diagnostics
  leapapp check --output json`,
		RunE: runCheck,
	}
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	p := GetProject(cmd)
	out := cmd.OutOrStdout()

	var (
		diags   []Diagnostic
		checked int
	)
	if len(args) > 0 {
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			diags = append(diags, fileDiagnostics(path, string(data))...)
			checked++
		}
	} else {
		res, err := p.Loader().Discover(p.ModulesDir())
		if err != nil {
			return err
		}
		diags = collectSourceDiagnostics(res)
		checked = len(res.Modules)
	}

	if len(diags) == 0 {
		fmt.Fprintf(out, "%d modules OK\n", checked)
		return nil
	}

	rep := newReport(diags)
	if err := renderReport(out, p.Cfg.Output, rep); err != nil {
		return err
	}
	return fmt.Errorf("check failed: %d errors", rep.Errors)
}

// fileDiagnostics validates and parses one source file.
func fileDiagnostics(path, content string) []Diagnostic {
	diags := violationDiagnostics(path, lint.Validate(content))
	if _, err := parser.ParseContent(path, content); err != nil {
		diags = append(diags, errDiagnostics(err)...)
	}
	return diags
}
