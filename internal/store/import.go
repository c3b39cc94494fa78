package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/codd/internal/model"
)

// ownTables are managed by the store and never imported.
var ownTables = map[string]bool{"relations": true, "tuples": true}

// Tables lists the user tables and views of the database that
// ImportTable can read, in sorted order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		if !ownTables[name] {
			names = append(names, name)
		}
	}
	return names, rows.Err()
}

// ImportTable reads every row of a plain SQLite table or view as a
// relation. INTEGER columns become Int, REAL and NUMERIC columns Decimal,
// TEXT columns String. NULL becomes the empty string.
func (s *Store) ImportTable(ctx context.Context, table string) (*model.Relation, error) {
	if ownTables[table] {
		return nil, fmt.Errorf("import table %s: table belongs to the relation store", table)
	}
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type IN ('table', 'view') AND name = ?
	`, table).Scan(&n)
	if err != nil {
		return nil, fmt.Errorf("import table %s: %w", table, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("import table %s: %w", table, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("import table %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("import table %s: %w", table, err)
	}
	names := make([]string, len(cols))
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if seen[c.Name()] {
			return nil, fmt.Errorf("import table %s: duplicate column %q", table, c.Name())
		}
		seen[c.Name()] = true
		names[i] = c.Name()
	}

	var tuples []model.Tuple
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("import table %s: %w", table, err)
		}
		values := make(map[string]model.Value, len(cols))
		for i, c := range cols {
			v, err := columnValue(raw[i], c.DatabaseTypeName())
			if err != nil {
				return nil, fmt.Errorf("import table %s: column %s: %w", table, c.Name(), err)
			}
			values[names[i]] = v
		}
		tuples = append(tuples, model.NewTuple(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("import table %s: %w", table, err)
	}

	rel, err := model.New(model.NewHeading(names...), tuples...)
	if err != nil {
		return nil, fmt.Errorf("import table %s: %w", table, err)
	}
	slog.Debug("table imported", "table", table, "tuples", rel.Len())
	return rel, nil
}

// columnValue converts a scanned driver value. The declared column type
// only matters for integers stored in REAL or NUMERIC columns.
func columnValue(raw any, declType string) (model.Value, error) {
	switch v := raw.(type) {
	case nil:
		return model.String(""), nil
	case int64:
		if isDecimalType(declType) {
			return model.NewDecimal(decimal.NewFromInt(v)), nil
		}
		return model.Int(v), nil
	case float64:
		return model.NewDecimal(decimal.NewFromFloat(v)), nil
	case bool:
		return model.Bool(v), nil
	case string:
		return model.String(v), nil
	case []byte:
		return model.String(string(v)), nil
	case time.Time:
		return model.String(v.Format(time.RFC3339)), nil
	}
	return nil, fmt.Errorf("unsupported column value %T", raw)
}

func isDecimalType(declType string) bool {
	t := strings.ToUpper(declType)
	for _, prefix := range []string{"REAL", "FLOAT", "DOUBLE", "NUMERIC", "DECIMAL"} {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
