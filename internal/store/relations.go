package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/codd/internal/model"
	"github.com/roach88/codd/internal/workspace"
)

// ErrNotFound is wrapped when a relation or table does not exist.
var ErrNotFound = errors.New("not found")

// SaveRelation stores rel under name, replacing any relation previously
// saved with that name.
func (s *Store) SaveRelation(ctx context.Context, name string, rel *model.Relation) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		seq, err := nextSeq(ctx, tx)
		if err != nil {
			return err
		}
		return saveRelation(ctx, tx, seq, name, rel)
	})
}

// SaveEnvironment stores every relation of rels in one transaction. All
// of them share a single save sequence number.
func (s *Store) SaveEnvironment(ctx context.Context, rels map[string]*model.Relation) error {
	names := make([]string, 0, len(rels))
	for name := range rels {
		names = append(names, name)
	}
	slices.Sort(names)

	return s.inTx(ctx, func(tx *sql.Tx) error {
		seq, err := nextSeq(ctx, tx)
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := saveRelation(ctx, tx, seq, name, rels[name]); err != nil {
				return err
			}
		}
		slog.Debug("environment saved", "path", s.path, "relations", len(names), "seq", seq)
		return nil
	})
}

// LoadRelation reads the relation saved under name.
func (s *Store) LoadRelation(ctx context.Context, name string) (*model.Relation, error) {
	var headingJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT heading FROM relations WHERE name = ?`, name,
	).Scan(&headingJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load relation %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load relation %s: %w", name, err)
	}

	var tags map[string]string
	if err := json.Unmarshal([]byte(headingJSON), &tags); err != nil {
		return nil, fmt.Errorf("load relation %s: heading: %w", name, err)
	}
	attrs := make([]string, 0, len(tags))
	for attr := range tags {
		attrs = append(attrs, attr)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM tuples
		WHERE relation = ?
		ORDER BY tuple_key COLLATE BINARY ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("load relation %s: %w", name, err)
	}
	defer rows.Close()

	var tuples []model.Tuple
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("load relation %s: %w", name, err)
		}
		t, err := workspace.DecodeTuple([]byte(body), tags)
		if err != nil {
			return nil, fmt.Errorf("load relation %s: %w", name, err)
		}
		tuples = append(tuples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load relation %s: %w", name, err)
	}

	rel, err := model.New(model.NewHeading(attrs...), tuples...)
	if err != nil {
		return nil, fmt.Errorf("load relation %s: %w", name, err)
	}
	return rel, nil
}

// LoadAll reads every saved relation.
func (s *Store) LoadAll(ctx context.Context) (map[string]*model.Relation, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.Relation, len(names))
	for _, name := range names {
		rel, err := s.LoadRelation(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = rel
	}
	slog.Debug("environment loaded", "path", s.path, "relations", len(out))
	return out, nil
}

// Names returns the saved relation names in sorted order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM relations ORDER BY name COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list relations: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	return names, nil
}

// Has reports whether a relation is saved under name.
func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM relations WHERE name = ?`, name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup relation %s: %w", name, err)
	}
	return n > 0, nil
}

// Drop deletes the relation saved under name together with its tuples.
func (s *Store) Drop(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM relations WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("drop relation %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("drop relation %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("drop relation %s: %w", name, ErrNotFound)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nextSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(saved_seq), 0) + 1 FROM relations`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next save sequence: %w", err)
	}
	return seq, nil
}

func saveRelation(ctx context.Context, tx *sql.Tx, seq int64, name string, rel *model.Relation) error {
	heading, err := json.Marshal(workspace.Tags(rel))
	if err != nil {
		return fmt.Errorf("save relation %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tuples WHERE relation = ?`, name); err != nil {
		return fmt.Errorf("save relation %s: %w", name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO relations (name, heading, saved_seq)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			heading = excluded.heading,
			saved_seq = excluded.saved_seq
	`, name, string(heading), seq)
	if err != nil {
		return fmt.Errorf("save relation %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tuples (relation, tuple_key, body) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save relation %s: %w", name, err)
	}
	defer stmt.Close()

	for _, t := range rel.Ordered() {
		body, err := workspace.EncodeTuple(t)
		if err != nil {
			return fmt.Errorf("save relation %s: %w", name, err)
		}
		if _, err := stmt.ExecContext(ctx, name, t.Hash(), string(body)); err != nil {
			return fmt.Errorf("save relation %s: %w", name, err)
		}
	}

	slog.Debug("relation saved", "name", name, "tuples", rel.Len(), "seq", seq)
	return nil
}
