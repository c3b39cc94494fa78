// Package catalog loads relations declared in CUE files.
//
// A catalog file declares relations under the top-level relation field,
// either inline or as a reference to a CSV file:
//
//	relation: Colors: {
//		attributes: {name: "str", rgb: "int"} // optional when tuples exist
//		tuples: [{name: "red", rgb: 16711680}]
//	}
//	relation: People: csv:    "people.csv" // relative to the .cue file
//	relation: People: genkey: "person"
//
// CUE ints become Int, other numbers Decimal, and lists of structs nested
// relations. CUE unification applies as usual, so one relation may be
// declared across several files of a directory.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/codd/internal/loader"
	"github.com/roach88/codd/internal/model"
)

// Error codes, shared with the CLI's diagnostics.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeInvalidRelation = "E002" // Malformed relation declaration
	ErrCodeNoRelations     = "E003" // No relation field found
	ErrCodeLoadFailed      = "E004" // File or CSV load failed
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeBuildFailed     = "E006" // CUE build failed
)

// Error is a catalog failure with its CUE position when known.
type Error struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCatalogError returns true if err is (or wraps) a catalog Error.
func IsCatalogError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// LoadFile loads the relations declared in one .cue file.
func LoadFile(path string) (map[string]*model.Relation, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog file not found: %s", path)}
	}
	if err != nil {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, buildError(err)
	}
	return Relations(v, filepath.Dir(path))
}

// LoadDir loads every .cue file under dir as one CUE instance. The files
// must share a package clause.
func LoadDir(dir string) (map[string]*model.Relation, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	if !info.IsDir() {
		return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("scanning %s: %v", dir, err)}
	}
	if len(files) == 0 {
		return nil, &Error{Code: ErrCodeNoRelations, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances(files, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	if err := instances[0].Err; err != nil {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", err)}
	}
	v := cuecontext.New().BuildInstance(instances[0])
	if err := v.Err(); err != nil {
		return nil, buildError(err)
	}
	return Relations(v, dir)
}

// FindCUEFiles returns the .cue files under dir in lexical order.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Relations extracts the relation declarations of v. Relative CSV paths
// resolve against baseDir.
func Relations(v cue.Value, baseDir string) (map[string]*model.Relation, error) {
	decls := v.LookupPath(cue.ParsePath("relation"))
	if !decls.Exists() {
		return nil, &Error{Code: ErrCodeNoRelations, Message: "no relation declarations found", Pos: v.Pos()}
	}
	iter, err := decls.Fields()
	if err != nil {
		return nil, &Error{Code: ErrCodeInvalidRelation, Message: fmt.Sprintf("relation must be a struct: %v", err), Pos: decls.Pos()}
	}

	out := make(map[string]*model.Relation)
	for iter.Next() {
		name := iter.Label()
		rel, err := declaration(name, iter.Value(), baseDir)
		if err != nil {
			return nil, err
		}
		out[name] = rel
		slog.Debug("catalog relation loaded", "name", name, "tuples", rel.Len())
	}
	return out, nil
}

// declaration builds one relation from its CUE declaration.
func declaration(name string, v cue.Value, baseDir string) (*model.Relation, error) {
	if v.IncompleteKind() != cue.StructKind {
		return nil, invalid(v, "relation %s must be a struct", name)
	}

	csvVal := v.LookupPath(cue.ParsePath("csv"))
	tuplesVal := v.LookupPath(cue.ParsePath("tuples"))
	if csvVal.Exists() {
		if tuplesVal.Exists() {
			return nil, invalid(v, "relation %s declares both csv and tuples", name)
		}
		return csvDeclaration(v, csvVal, baseDir)
	}

	var kinds map[string]model.Kind
	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if attrsVal.Exists() {
		var err error
		if kinds, err = attributeKinds(attrsVal); err != nil {
			return nil, err
		}
	}
	if !tuplesVal.Exists() {
		if kinds == nil {
			return nil, invalid(v, "relation %s needs attributes, tuples or csv", name)
		}
		return model.Empty(headingOf(kinds)), nil
	}
	return relationOf(tuplesVal, kinds)
}

func csvDeclaration(v, csvVal cue.Value, baseDir string) (*model.Relation, error) {
	path, err := csvVal.String()
	if err != nil {
		return nil, invalid(csvVal, "csv must be a string path")
	}
	var opts loader.Options
	if g := v.LookupPath(cue.ParsePath("genkey")); g.Exists() {
		if opts.GenKey, err = g.String(); err != nil {
			return nil, invalid(g, "genkey must be a string")
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	rel, err := loader.LoadFile(path, opts)
	if err != nil {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: err.Error(), Pos: csvVal.Pos()}
	}
	return rel, nil
}

func attributeKinds(v cue.Value) (map[string]model.Kind, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, invalid(v, "attributes must be a struct of type tags")
	}
	kinds := make(map[string]model.Kind)
	for iter.Next() {
		tag, err := iter.Value().String()
		if err != nil {
			return nil, invalid(iter.Value(), "type of %s must be a string", iter.Label())
		}
		k, ok := model.ParseKind(tag)
		if !ok {
			return nil, invalid(iter.Value(), "unknown type %q for %s (want str, int, bool, Decimal or Relation)",
				tag, iter.Label())
		}
		kinds[iter.Label()] = k
	}
	return kinds, nil
}

func headingOf(kinds map[string]model.Kind) model.Heading {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	return model.NewHeading(names...)
}

// relationOf converts a CUE list of structs. With declared kinds the
// heading is fixed and every value must fit its kind.
func relationOf(list cue.Value, kinds map[string]model.Kind) (*model.Relation, error) {
	iter, err := list.List()
	if err != nil {
		return nil, invalid(list, "tuples must be a list of structs")
	}
	var tuples []model.Tuple
	for iter.Next() {
		t, err := tupleOf(iter.Value(), kinds)
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, t)
	}

	var rel *model.Relation
	if kinds != nil {
		rel, err = model.New(headingOf(kinds), tuples...)
	} else {
		rel, err = model.FromTuples(tuples...)
	}
	if err != nil {
		return nil, invalid(list, "%v", err)
	}
	return rel, nil
}

func tupleOf(v cue.Value, kinds map[string]model.Kind) (model.Tuple, error) {
	iter, err := v.Fields()
	if err != nil {
		return model.Tuple{}, invalid(v, "tuple must be a struct")
	}
	values := make(map[string]model.Value)
	for iter.Next() {
		attr := iter.Label()
		want, declared := kinds[attr]
		if kinds != nil && !declared {
			return model.Tuple{}, invalid(iter.Value(), "attribute %s is not declared", attr)
		}
		val, err := valueOf(iter.Value())
		if err != nil {
			return model.Tuple{}, err
		}
		if declared {
			if val, err = conform(iter.Value(), attr, val, want); err != nil {
				return model.Tuple{}, err
			}
		}
		values[attr] = val
	}
	return model.NewTuple(values), nil
}

// valueOf converts a concrete CUE value.
func valueOf(v cue.Value) (model.Value, error) {
	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, invalid(v, "%v", err)
		}
		return model.Int(n), nil
	case cue.FloatKind:
		text, err := v.MarshalJSON()
		if err != nil {
			return nil, invalid(v, "%v", err)
		}
		d, err := model.ParseDecimal(string(text))
		if err != nil {
			return nil, invalid(v, "invalid number %s", text)
		}
		return d, nil
	case cue.StringKind:
		s, _ := v.String()
		return model.String(s), nil
	case cue.BoolKind:
		b, _ := v.Bool()
		return model.Bool(b), nil
	case cue.ListKind:
		return relationOf(v, nil)
	}
	if err := v.Err(); err != nil {
		return nil, buildError(err)
	}
	return nil, invalid(v, "unsupported value of kind %s (must be concrete)", v.IncompleteKind())
}

// conform checks val against a declared kind, widening Int to Decimal.
func conform(at cue.Value, attr string, val model.Value, want model.Kind) (model.Value, error) {
	if val.Kind() == want {
		return val, nil
	}
	if want == model.KindDecimal {
		if d, ok := model.ToDecimal(val); ok {
			return model.NewDecimal(d), nil
		}
	}
	return nil, invalid(at, "attribute %s is declared %s, got %s", attr, want, val.Kind())
}

func invalid(v cue.Value, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidRelation, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

// buildError keeps the first CUE error and its position.
func buildError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: ErrCodeBuildFailed, Message: err.Error()}
	}
	first := errs[0]
	ce := &Error{Code: ErrCodeBuildFailed, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// Names returns the relation names of a loaded catalog in sorted order.
func Names(rels map[string]*model.Relation) []string {
	names := make([]string, 0, len(rels))
	for name := range rels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
