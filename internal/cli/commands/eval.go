package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/leapstack-labs/leapapp/pkg/eval"
	"github.com/leapstack-labs/leapapp/pkg/parser"
	"github.com/spf13/cobra"
)

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	var (
		contextJSON string
		contextFile string
	)

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against a JSON context",
		Long: `Parse and evaluate a guard expression in the sandboxed interpreter.
The context is a JSON object whose keys become field references; nested
objects are reachable with the -> operator.`,
		Example: `  # Evaluate a literal expression
  leapapp eval "2 + 2 * 3"

  # Evaluate against inline context
  leapapp eval "total > 100 and status == 'active'" --context '{"total": 250, "status": "active"}'

  # Evaluate against a context file
  leapapp eval "owner->email != null" --context-file ctx.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args[0], contextJSON, contextFile)
		},
	}

	cmd.Flags().StringVar(&contextJSON, "context", "", "Evaluation context as a JSON object")
	cmd.Flags().StringVar(&contextFile, "context-file", "", "Read the evaluation context from a JSON file")

	return cmd
}

func runEval(cmd *cobra.Command, source, contextJSON, contextFile string) error {
	out := cmd.OutOrStdout()

	if contextFile != "" {
		data, err := os.ReadFile(contextFile)
		if err != nil {
			return fmt.Errorf("failed to read context file: %w", err)
		}
		contextJSON = string(data)
	}

	ctx := eval.Context{}
	if contextJSON != "" {
		if err := json.Unmarshal([]byte(contextJSON), &ctx); err != nil {
			return fmt.Errorf("invalid context JSON: %w", err)
		}
	}

	expr, err := parser.ParseExpression(source)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	result, err := eval.New().Evaluate(expr, ctx)
	if err != nil {
		return fmt.Errorf("evaluation error: %w", err)
	}

	fmt.Fprintln(out, formatResult(result))
	return nil
}

// formatResult renders an evaluation result for the terminal.
func formatResult(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case time.Time:
		return val.Format(time.RFC3339)
	case time.Duration:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
