// Package cli provides the command-line interface for LeapApp.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapapp/internal/cli/commands"
	"github.com/leapstack-labs/leapapp/internal/config"
	"github.com/spf13/cobra"
)

var dirFlag string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapapp",
		Short: "LeapApp - Declarative Application Compiler",
		Long: `LeapApp compiles declarative .leap module definitions into a linked
application model.

Modules declare entities, fields, state machines, guards, and invariants in
plain text; leapapp validates them, links cross-module references, and
produces diagnostics or a compiled application description.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			root, err := projectRoot()
			if err != nil {
				return err
			}

			cfg, err := config.Load(root, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
			logger := slog.New(slog.DiscardHandler)
			if verbose {
				logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				}))
			}

			ctx := commands.WithProject(cmd.Context(), &commands.Project{
				Root:   root,
				Cfg:    cfg,
				Logger: logger,
			})
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Declarative Application Compiler
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "C", "", "Project directory (default: nearest directory with leapapp.yaml)")
	rootCmd.PersistentFlags().String("modules-dir", "", "Path to modules directory, relative to the project root")
	rootCmd.PersistentFlags().Bool("strict", false, "Treat warnings as errors")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewDAGCommand())
	rootCmd.AddCommand(commands.NewEvalCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// projectRoot resolves the project directory: --dir wins, otherwise the
// nearest ancestor holding a leapapp.yaml, otherwise the working directory.
func projectRoot() (string, error) {
	if dirFlag != "" {
		info, err := os.Stat(dirFlag)
		if err != nil {
			return "", fmt.Errorf("project directory %s: %w", dirFlag, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project directory %s is not a directory", dirFlag)
		}
		return dirFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root := config.FindProjectRoot(cwd); root != "" {
		return root, nil
	}
	return cwd, nil
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for LeapApp.

To load completions:

Bash:
  $ source <(leapapp completion bash)

Zsh:
  $ leapapp completion zsh > "${fpath[1]}/_leapapp"

Fish:
  $ leapapp completion fish | source

PowerShell:
  PS> leapapp completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
