package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/codd/internal/catalog"
	"github.com/roach88/codd/internal/loader"
	"github.com/roach88/codd/internal/model"
	"github.com/roach88/codd/internal/store"
	"github.com/roach88/codd/internal/workspace"
)

// SourceKind is the kind of file a Source points at.
type SourceKind int

const (
	SourceCSV SourceKind = iota
	SourceWorkspace
	SourceCatalog
	SourceSQLite
)

func (k SourceKind) String() string {
	switch k {
	case SourceCSV:
		return "csv"
	case SourceWorkspace:
		return "workspace"
	case SourceCatalog:
		return "catalog"
	case SourceSQLite:
		return "sqlite"
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}

// Source describes one file to load into an environment.
type Source struct {
	Path string
	// As names the relation loaded from a CSV file or SQLite table.
	// Defaults to the file stem ("stdin" for "-") or the table name.
	As string
	// GenKey is passed to the CSV loader.
	GenKey string
	// Table selects a single relation or table from a SQLite database.
	Table string
}

// Kind classifies the source by extension. Unknown extensions holding a
// workspace document are workspaces; everything else is read as CSV.
func (s Source) Kind() SourceKind {
	if s.Path == "-" {
		return SourceCSV
	}
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".codd":
		return SourceWorkspace
	case ".cue":
		return SourceCatalog
	case ".db", ".sqlite", ".sqlite3":
		return SourceSQLite
	case ".csv", ".tsv", ".txt":
		return SourceCSV
	}
	if info, err := os.Stat(s.Path); err == nil && info.IsDir() {
		return SourceCatalog
	}
	if workspace.IsWorkspaceFile(s.Path) {
		return SourceWorkspace
	}
	return SourceCSV
}

// RelationName returns the name a CSV source binds.
func (s Source) RelationName() string {
	if s.As != "" {
		return s.As
	}
	if s.Path == "-" {
		return "stdin"
	}
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseAlias splits a "Name=path" argument.
func ParseAlias(arg string) (Source, error) {
	name, path, ok := strings.Cut(arg, "=")
	if !ok || name == "" || path == "" {
		return Source{}, fmt.Errorf("invalid alias %q: want Name=path", arg)
	}
	return Source{Path: path, As: name}, nil
}

// Load reads the relations a source provides, keyed by the name each
// should be bound under.
func Load(ctx context.Context, src Source) (map[string]*model.Relation, error) {
	kind := src.Kind()
	slog.Debug("loading source", "path", src.Path, "kind", kind.String())

	switch kind {
	case SourceWorkspace:
		return workspace.Load(src.Path)
	case SourceCatalog:
		if info, err := os.Stat(src.Path); err == nil && info.IsDir() {
			return catalog.LoadDir(src.Path)
		}
		return catalog.LoadFile(src.Path)
	case SourceSQLite:
		return loadSQLite(ctx, src)
	}

	rel, err := loader.LoadFile(src.Path, loader.Options{GenKey: src.GenKey})
	if err != nil {
		return nil, err
	}
	return map[string]*model.Relation{src.RelationName(): rel}, nil
}

// loadSQLite loads one named relation or table when Table is set.
// Otherwise it loads every saved relation, or imports every plain table
// of a database the store never wrote to.
func loadSQLite(ctx context.Context, src Source) (map[string]*model.Relation, error) {
	if _, err := os.Stat(src.Path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	st, err := store.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if src.Table != "" {
		name := src.Table
		if src.As != "" {
			name = src.As
		}
		rel, err := st.LoadRelation(ctx, src.Table)
		if errors.Is(err, store.ErrNotFound) {
			rel, err = st.ImportTable(ctx, src.Table)
		}
		if err != nil {
			return nil, err
		}
		return map[string]*model.Relation{name: rel}, nil
	}

	rels, err := st.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rels) > 0 {
		return rels, nil
	}

	tables, err := st.Tables(ctx)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		rel, err := st.ImportTable(ctx, table)
		if err != nil {
			return nil, err
		}
		rels[table] = rel
	}
	return rels, nil
}

// IsSQLitePath reports whether path should be saved through the SQLite
// store rather than as a workspace document.
func IsSQLitePath(path string) bool {
	return Source{Path: path}.Kind() == SourceSQLite
}
