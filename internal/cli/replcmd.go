package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/repl"
)

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	DataOptions
	LoadSample bool
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl [files...]",
		Short: "Start an interactive session",
		Long: `Start an interactive session reading statements from stdin.

Statements are queries or assignments (name := query). Lines starting
with a backslash are commands; type \help inside the session for the
list.

Examples:
  codd repl --load
  codd repl people.csv orders.csv --genkey row
  codd repl saved.codd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, args, cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.LoadSample, "load", false, "bind the sample relations before starting")

	return cmd
}

func runRepl(opts *ReplOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	srcs, err := opts.sources(opts.config(), paths)
	if err != nil {
		return loadFailure(formatter, err)
	}

	env := engine.NewEnvironment()
	withSample := opts.LoadSample || opts.config().SampleEnabled(false)
	if err := populate(cmd.Context(), env, withSample, srcs, cmd.InOrStdin()); err != nil {
		return loadFailure(formatter, err)
	}

	sessionOpts := []repl.Option{repl.WithEngineOptions(opts.engineOptions(opts.config())...)}
	if c := opts.config().Color; c != nil {
		sessionOpts = append(sessionOpts, repl.WithColor(*c))
	}
	session := repl.NewSession(env, cmd.OutOrStdout(), sessionOpts...)
	formatter.VerboseLog("Session %s with %d relation(s)", session.ID, env.Len())

	if err := session.Run(cmd.Context(), cmd.InOrStdin()); err != nil {
		return WrapExitError(ExitCommandError, "session failed", err)
	}
	return nil
}
