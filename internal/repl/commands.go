package repl

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/roach88/codd/internal/catalog"
	"github.com/roach88/codd/internal/format"
	"github.com/roach88/codd/internal/sample"
	"github.com/roach88/codd/internal/store"
	"github.com/roach88/codd/internal/workspace"
)

const helpText = `Statements:
  E ? salary > 50000            evaluate and print a relation
  high := E ? salary > 70000    bind a relation to a name

Commands:
  \load                         load the sample relations (E, D, Phone, ContractorPay)
  \load FILE.csv [--as=NAME] [--genkey=KEY]
                                load a CSV file as a relation
  \load FILE.codd               load a saved workspace
  \load FILE.cue                load relations declared in a CUE catalog
  \load FILE.db [TABLE] [--as=NAME]
                                load relations saved in (or tables of) a SQLite database
  \save [PATH]                  save all relations (.db/.sqlite saves to SQLite)
  \drop NAME                    remove a relation
  \env                          list loaded relations
  \calc EXPR                    evaluate a scalar expression, e.g. \calc #. E
  \help                         show this help
  \quit, \q                     exit`

// command runs a meta-command and reports whether the session should end.
func (s *Session) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	s.log.Debug("meta-command", "command", cmd, "args", args)

	switch cmd {
	case `\quit`, `\q`:
		return true
	case `\load`:
		s.load(ctx, args)
	case `\save`:
		s.save(ctx, args)
	case `\drop`:
		s.drop(args)
	case `\env`:
		s.env()
	case `\calc`:
		s.calc(strings.TrimSpace(strings.TrimPrefix(line, fields[0])))
	case `\help`, `\?`:
		s.printf("%s\n", helpText)
	default:
		s.printf("Unknown command: %s\n", cmd)
	}
	return false
}

func (s *Session) load(ctx context.Context, args []string) {
	if len(args) == 0 {
		sample.Load(s.Env)
		s.printf("Loaded: E (Employee), D (Department), Phone, ContractorPay\n")
		return
	}

	src, err := parseLoadArgs(args)
	if err != nil {
		s.printError(err)
		return
	}
	if _, err := os.Stat(src.Path); src.Path != "-" && errors.Is(err, fs.ErrNotExist) {
		s.errorf("file not found: %s", src.Path)
		return
	}

	kind := src.Kind()
	if src.As != "" && (kind == SourceWorkspace || kind == SourceCatalog) {
		s.errorf("--as cannot be used with %s files", kind)
		return
	}
	if src.GenKey != "" && kind != SourceCSV {
		s.errorf("--genkey can only be used with CSV files")
		return
	}

	rels, err := Load(ctx, src)
	if err != nil {
		s.printError(err)
		return
	}
	s.Env.BindAll(rels)

	switch kind {
	case SourceCSV:
		name := src.RelationName()
		rel := rels[name]
		s.printf("Loaded %s: %d tuples, attrs: %s\n", name, rel.Len(), rel.Heading())
	case SourceWorkspace:
		s.LastSavePath = src.Path
		s.printf("Loaded workspace: %s\n", strings.Join(catalog.Names(rels), ", "))
	case SourceCatalog:
		s.printf("Loaded catalog: %s\n", strings.Join(catalog.Names(rels), ", "))
	case SourceSQLite:
		if src.Table == "" {
			s.LastSavePath = src.Path
		}
		s.printf("Loaded database: %s\n", strings.Join(catalog.Names(rels), ", "))
	}
}

// parseLoadArgs reads "PATH [TABLE] [--as=NAME] [--genkey=KEY]".
func parseLoadArgs(args []string) (Source, error) {
	var src Source
	var positional []string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--as="):
			src.As = strings.TrimPrefix(arg, "--as=")
		case strings.HasPrefix(arg, "--genkey="):
			src.GenKey = strings.TrimPrefix(arg, "--genkey=")
		case strings.HasPrefix(arg, "--"):
			return src, errors.New("unknown option " + arg)
		default:
			positional = append(positional, arg)
		}
	}
	switch len(positional) {
	case 0:
		return src, errors.New(`\load requires a file path`)
	case 1:
	case 2:
		src.Table = positional[1]
	default:
		return src, errors.New(`\load takes a path and at most one table name`)
	}
	src.Path = positional[0]
	if src.Table != "" && src.Kind() != SourceSQLite {
		return src, errors.New("a table name can only follow a SQLite database path")
	}
	return src, nil
}

func (s *Session) save(ctx context.Context, args []string) {
	path := s.LastSavePath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		s.errorf(`\save requires a filename (no previous save)`)
		return
	}

	rels := s.Env.Snapshot()
	if IsSQLitePath(path) {
		st, err := store.Open(path)
		if err != nil {
			s.printError(err)
			return
		}
		defer st.Close()
		if err := st.SaveEnvironment(ctx, rels); err != nil {
			s.printError(err)
			return
		}
		s.LastSavePath = path
		s.printf("Saved %d relations to %s\n", len(rels), path)
		return
	}

	if err := workspace.Save(path, rels); err != nil {
		s.printError(err)
		return
	}
	s.LastSavePath = path
	s.printf("Saved workspace to %s\n", path)
}

func (s *Session) drop(args []string) {
	if len(args) == 0 {
		s.errorf(`\drop requires a relation name`)
		return
	}
	for _, name := range args {
		if !s.Env.Unbind(name) {
			s.errorf("unknown relation: %s", name)
			continue
		}
		s.printf("Dropped %s\n", name)
	}
}

func (s *Session) env() {
	names := s.Env.Names()
	if len(names) == 0 {
		s.printf("(no relations loaded)\n")
		return
	}
	for _, name := range names {
		rel, err := s.Env.Lookup(name)
		if err != nil {
			continue
		}
		s.printf("  %s: %d tuples, attrs: %s\n", name, rel.Len(), rel.Heading())
	}
}

func (s *Session) calc(src string) {
	if src == "" {
		s.errorf(`\calc requires an expression`)
		return
	}
	res, err := s.interp.EvalScalar(src)
	if err != nil {
		s.printError(err)
		return
	}
	s.printf("%s\n", format.Value(res.Value))
}
