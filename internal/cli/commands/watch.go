package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/leapstack-labs/leapapp/internal/loader"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the modules directory and rebuild on change",
		Long: `Compile the project, then watch the modules directory and recompile
whenever a source file changes. Stops on interrupt.`,
		Example: `  # Watch and rebuild
  leapapp watch`,
		RunE: runWatch,
	}
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	p := GetProject(cmd)
	out := cmd.OutOrStdout()

	rebuild := func() {
		res, err := p.Loader().Discover(p.ModulesDir())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		diags := collectSourceDiagnostics(res)
		if len(diags) == 0 {
			app, errs := p.Compiler().Compile(res.Modules)
			for _, e := range errs {
				diags = append(diags, errDiagnostics(e)...)
			}
			if app != nil {
				for _, w := range app.Warnings {
					diags = append(diags, warningDiagnostic(w))
				}
			}
		}
		if len(diags) > 0 {
			rep := newReport(diags)
			_ = renderReport(out, p.Cfg.Output, rep)
			return
		}
		fmt.Fprintf(out, "ok: %d modules\n", len(res.Modules))
	}

	rebuild()

	w, err := loader.NewWatcher(p.ModulesDir(), p.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "watching %s\n", p.ModulesDir())
	err = w.Run(ctx, func(paths []string) {
		fmt.Fprintf(out, "changed: %s\n", strings.Join(paths, ", "))
		rebuild()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
