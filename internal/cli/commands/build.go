package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile all modules into a linked application",
		Long: `Discover, validate, parse, and link every module in the project.

Source files are checked for declarativeness violations and parsed, then the
linker resolves cross-module references, detects dependency cycles, and
reports field-type conflicts. With --out, the compiled application model is
written as JSON.`,
		Example: `  # Compile the project
  leapapp build

  # Compile and write the application model
  leapapp build --out app.json

  # Machine-readable diagnostics
  leapapp build --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, outFile)
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "Write the compiled application model to this file as JSON")

	return cmd
}

func runBuild(cmd *cobra.Command, outFile string) error {
	p := GetProject(cmd)
	out := cmd.OutOrStdout()

	res, err := p.Loader().Discover(p.ModulesDir())
	if err != nil {
		return err
	}

	diags := collectSourceDiagnostics(res)
	if len(diags) > 0 {
		rep := newReport(diags)
		if err := renderReport(out, p.Cfg.Output, rep); err != nil {
			return err
		}
		return fmt.Errorf("build failed: %d errors", rep.Errors)
	}

	app, errs := p.Compiler().Compile(res.Modules)
	if len(errs) > 0 {
		for _, e := range errs {
			diags = append(diags, errDiagnostics(e)...)
		}
		rep := newReport(diags)
		if err := renderReport(out, p.Cfg.Output, rep); err != nil {
			return err
		}
		return fmt.Errorf("build failed: %d errors", rep.Errors)
	}

	for _, w := range app.Warnings {
		diags = append(diags, warningDiagnostic(w))
	}
	if len(diags) > 0 {
		rep := newReport(diags)
		if err := renderReport(out, p.Cfg.Output, rep); err != nil {
			return err
		}
		if p.Cfg.Strict {
			return fmt.Errorf("build failed: %d warnings in strict mode", rep.Warnings)
		}
	}

	if outFile != "" {
		data, err := json.MarshalIndent(app, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode application model: %w", err)
		}
		if err := os.WriteFile(outFile, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outFile, err)
		}
	}

	fmt.Fprintf(out, "Compiled %d modules, %d entities (run %s)\n",
		len(app.Modules), len(app.Entities), app.RunID)
	return nil
}
