package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/loader"
	"github.com/roach88/codd/internal/model"
	"github.com/roach88/codd/internal/repl"
	"github.com/roach88/codd/internal/sample"
)

// DataOptions holds the data-loading flags shared by eval and repl.
type DataOptions struct {
	GenKey    string
	Aliases   []string // Name=path
	MaxTuples int
}

func (d *DataOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.GenKey, "genkey", "", "prepend a generated KEY_id column to CSV files")
	cmd.Flags().StringArrayVar(&d.Aliases, "as", nil, "load a file under a relation name (Name=path, repeatable)")
	cmd.Flags().IntVar(&d.MaxTuples, "max-tuples", 0, "fail when an intermediate result exceeds this many tuples (0 = no limit)")
}

// sources lists the files to load: config files first, then positional
// paths, then aliased paths.
func (d *DataOptions) sources(cfg *Config, paths []string) ([]repl.Source, error) {
	genKey := d.GenKey
	if genKey == "" {
		genKey = cfg.GenKey
	}

	var srcs []repl.Source
	for _, p := range append(slices.Clone(cfg.Load), paths...) {
		srcs = append(srcs, repl.Source{Path: p})
	}
	for _, a := range d.Aliases {
		src, err := repl.ParseAlias(a)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}

	for i, src := range srcs {
		if src.Path != "-" {
			if _, err := os.Stat(src.Path); errors.Is(err, fs.ErrNotExist) {
				return nil, &notFoundError{path: src.Path}
			}
		}
		if genKey != "" && src.Kind() == repl.SourceCSV {
			srcs[i].GenKey = genKey
		}
	}
	return srcs, nil
}

// engineOptions returns the executor options from flags and config.
func (d *DataOptions) engineOptions(cfg *Config) []engine.Option {
	limit := d.MaxTuples
	if limit == 0 {
		limit = cfg.MaxTuples
	}
	if limit > 0 {
		return []engine.Option{engine.WithMaxTuples(limit)}
	}
	return nil
}

type notFoundError struct {
	path string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.path)
}

// populate binds the sample relations when withSample is set, then every
// source in order. Later sources replace earlier relations of the same
// name. The path "-" reads CSV from stdin.
func populate(ctx context.Context, env *engine.Environment, withSample bool, srcs []repl.Source, stdin io.Reader) error {
	if withSample {
		sample.Load(env)
	}
	for _, src := range srcs {
		var rels map[string]*model.Relation
		var err error
		if src.Path == "-" {
			var rel *model.Relation
			rel, err = loader.LoadCSV(stdin, loader.Options{GenKey: src.GenKey})
			rels = map[string]*model.Relation{src.RelationName(): rel}
		} else {
			rels, err = repl.Load(ctx, src)
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", src.Path, err)
		}
		env.BindAll(rels)
		slog.Debug("source loaded", "path", src.Path, "kind", src.Kind().String(), "relations", len(rels))
	}
	return nil
}

// loadFailure reports a data-loading error and returns an ExitError.
func loadFailure(f *OutputFormatter, err error) error {
	code := ErrCodeLoad
	var nf *notFoundError
	if errors.As(err, &nf) {
		code = ErrCodeNotFound
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code+": failed to load data", err)
}
