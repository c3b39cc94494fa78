package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded before any subcommand runs.
	Config *Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the codd CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: &Config{}}

	cmd := &cobra.Command{
		Use:   "codd",
		Short: "Codd - a relational algebra query language",
		Long: `Codd evaluates relational algebra queries over relations loaded from
CSV files, saved workspaces, CUE catalogs and SQLite databases.

Queries are written in a terse operator syntax:

  E ? salary > 50000 # [name salary]
  E *: Phone > phones ? #. phones = 0
  E / dept_id [n: #. avg: %. salary]`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+DefaultConfigFile+" if present)")

	// Add subcommands
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// config returns the loaded config, or an empty one when the command
// runs without the root.
func (o *RootOptions) config() *Config {
	if o.Config == nil {
		return &Config{}
	}
	return o.Config
}

// prepare loads the config file, applies it under the flags and installs
// the default logger.
func (o *RootOptions) prepare(cmd *cobra.Command) error {
	cfg, err := LoadConfig(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid config", err)
	}
	o.Config = cfg

	if cfg.Format != "" && !cmd.Flags().Changed("format") {
		o.Format = cfg.Format
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	setupLogging(cmd.ErrOrStderr(), o.Verbose)
	slog.Debug("configuration loaded", "format", o.Format, "load", cfg.Load, "max_tuples", cfg.MaxTuples)
	return nil
}

// setupLogging sends structured logs to w, at Debug level when verbose.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
