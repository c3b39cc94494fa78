package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/format"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	DataOptions
	NoSample bool
	Scalar   bool
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <expr> [files...]",
		Short: "Evaluate one query",
		Long: `Evaluate one statement against the sample relations and any given files.

Each file becomes a relation named after its file stem; "-" reads CSV
from stdin as "stdin". Workspaces (.codd), CUE catalogs (.cue) and SQLite
databases (.db, .sqlite) may bind several relations at once.

Exit codes:
  0 - Query succeeded
  1 - Query failed (lex, parse or execution error)
  2 - Command error (missing file, bad flag)

Examples:
  codd eval 'E ? salary > 50000'
  codd eval 'people # name' people.csv --no-sample
  codd eval 'P * D' --as P=people.csv --genkey row
  codd eval --scalar '#. E'
  codd eval 'E / dept_id [n: #.]' --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], args[1:], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.NoSample, "no-sample", false, "do not bind the sample relations")
	cmd.Flags().BoolVar(&opts.Scalar, "scalar", false, "evaluate a scalar computation such as '#. E'")

	return cmd
}

func runEval(opts *EvalOptions, expr string, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	srcs, err := opts.sources(opts.config(), paths)
	if err != nil {
		return loadFailure(formatter, err)
	}

	env := engine.NewEnvironment()
	withSample := !opts.NoSample && opts.config().SampleEnabled(true)
	if err := populate(cmd.Context(), env, withSample, srcs, cmd.InOrStdin()); err != nil {
		return loadFailure(formatter, err)
	}
	formatter.VerboseLog("Environment: %v", env.Names())

	interp := engine.NewInterpreter(env, opts.engineOptions(opts.config())...)

	var res engine.Result
	if opts.Scalar {
		res, err = interp.EvalScalar(expr)
	} else {
		res, err = interp.Eval(expr)
	}
	if err != nil {
		return formatter.QueryError(err)
	}

	if opts.Format == "json" {
		return formatter.Success(format.Data(res))
	}
	return formatter.Success(format.Result(res))
}
