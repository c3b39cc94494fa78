package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/codd/internal/ast"
	"github.com/roach88/codd/internal/parser"
)

// CheckResult is the JSON payload of a successful check.
type CheckResult struct {
	Valid     bool   `json:"valid"`
	Canonical string `json:"canonical"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <expr>",
		Short: "Parse a statement without evaluating it",
		Long: `Lex and parse one statement and print it in canonical form.

No relations are loaded, so unknown names are not reported. Faster than
eval for syntax feedback.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, expr string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	stmt, err := parser.ParseString(expr)
	if err != nil {
		return formatter.QueryError(err)
	}

	canonical := ast.String(stmt)
	if opts.Format == "json" {
		return formatter.Success(CheckResult{Valid: true, Canonical: canonical})
	}
	return formatter.Success(canonical)
}
