// Package loader reads CSV data into relations.
//
// The first row names the attributes. Each column gets one inferred type,
// chosen from the non-empty cells in priority order int, decimal, bool,
// string. Empty cells stay empty strings whatever the column type.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/codd/internal/model"
)

// Error is a CSV loading failure.
type Error struct {
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying I/O or CSV error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsLoadError returns true if err is (or wraps) a loader Error.
func IsLoadError(err error) bool {
	var le *Error
	return errors.As(err, &le)
}

// Options controls CSV loading.
type Options struct {
	// GenKey, when set, prepends a synthetic key column named
	// GenKey+"_id" numbered from 1 in file order.
	GenKey string
}

// KeyColumn returns the generated key attribute name, or "".
func (o Options) KeyColumn() string {
	if o.GenKey == "" {
		return ""
	}
	return o.GenKey + "_id"
}

// columnType is the inferred type of a CSV column.
type columnType int

const (
	typeString columnType = iota
	typeInt
	typeDecimal
	typeBool
)

// LoadCSV reads a relation from r.
//
// Empty input yields an empty relation with no attributes; a header row
// alone yields an empty relation with that heading. Rows whose field
// count differs from the header are skipped.
func LoadCSV(r io.Reader, opts Options) (*model.Relation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.Empty(nil), nil
	}
	if err != nil {
		return nil, &Error{Message: "reading header: " + err.Error(), Err: err}
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	if dup := duplicate(header); dup != "" {
		return nil, &Error{Message: fmt.Sprintf("duplicate column %q", dup)}
	}

	key := opts.KeyColumn()
	attrs := header
	if key != "" {
		for _, h := range header {
			if h == key {
				return nil, &Error{Message: fmt.Sprintf(
					"cannot generate key column %q: column already exists in the data", key)}
			}
		}
		attrs = append([]string{key}, header...)
	}

	var rows [][]string
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{Message: err.Error(), Err: err}
		}
		if len(rec) != len(header) {
			skipped++
			continue
		}
		rows = append(rows, rec)
	}
	if skipped > 0 {
		slog.Debug("skipped malformed csv rows", "rows", skipped, "columns", len(header))
	}

	types := inferTypes(len(header), rows)
	tuples := make([]model.Tuple, 0, len(rows))
	for i, rec := range rows {
		values := make(map[string]model.Value, len(attrs))
		for c, cell := range rec {
			values[header[c]] = coerce(cell, types[c])
		}
		if key != "" {
			values[key] = model.Int(i + 1)
		}
		tuples = append(tuples, model.NewTuple(values))
	}
	rel, err := model.New(model.NewHeading(attrs...), tuples...)
	if err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}
	return rel, nil
}

// LoadFile reads a CSV file. The path "-" reads standard input.
func LoadFile(path string, opts Options) (*model.Relation, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, &Error{Path: path, Message: err.Error(), Err: err}
		}
		defer f.Close()
		r = f
	}
	rel, err := LoadCSV(r, opts)
	if err != nil {
		var le *Error
		if errors.As(err, &le) && le.Path == "" {
			le.Path = path
		}
		return nil, err
	}
	slog.Debug("csv loaded", "path", path, "tuples", rel.Len(), "attributes", len(rel.Heading()))
	return rel, nil
}

// inferTypes picks a type per column from its non-empty cells.
func inferTypes(columns int, rows [][]string) []columnType {
	types := make([]columnType, columns)
	for c := range types {
		types[c] = inferColumn(rows, c)
	}
	return types
}

func inferColumn(rows [][]string, c int) columnType {
	isInt, isDecimal, isBool := true, true, true
	seen := false
	for _, rec := range rows {
		cell := rec[c]
		if cell == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if isDecimal {
			if _, err := decimal.NewFromString(cell); err != nil {
				isDecimal = false
			}
		}
		if isBool {
			lower := strings.ToLower(cell)
			isBool = lower == "true" || lower == "false"
		}
	}
	switch {
	case !seen:
		return typeString
	case isInt:
		return typeInt
	case isDecimal:
		return typeDecimal
	case isBool:
		return typeBool
	}
	return typeString
}

// coerce converts a cell to its column type. Cells of an inferred column
// always parse; empty cells stay strings.
func coerce(cell string, t columnType) model.Value {
	if cell == "" {
		return model.String("")
	}
	switch t {
	case typeInt:
		n, _ := strconv.ParseInt(cell, 10, 64)
		return model.Int(n)
	case typeDecimal:
		d, _ := model.ParseDecimal(cell)
		return d
	case typeBool:
		return model.Bool(strings.EqualFold(cell, "true"))
	}
	return model.String(cell)
}

func duplicate(names []string) string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return n
		}
		seen[n] = true
	}
	return ""
}
