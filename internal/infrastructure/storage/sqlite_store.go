package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

const membersTable = "set_members"

// SQLiteDB owns the database that holds every identifier set.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the state database at dsn.
func OpenSQLite(dsn string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// a single connection keeps ":memory:" databases coherent and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + membersTable + ` (
		set_name TEXT NOT NULL,
		id TEXT NOT NULL,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (set_name, id)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s: %w", membersTable, err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close releases the database handle.
func (d *SQLiteDB) Close() error {
	return d.db.Close()
}

// Set returns a store view over one named set.
func (d *SQLiteDB) Set(name string) *SQLiteStore {
	return &SQLiteStore{db: d.db, name: name}
}

// SQLiteStore persists one identifier set as rows keyed by set name.
type SQLiteStore struct {
	db   *sql.DB
	name string
}

var _ ports.IDSetStore = (*SQLiteStore)(nil)

// Load returns every identifier in the set.
func (s *SQLiteStore) Load(ctx context.Context) (domain.IDSet, error) {
	return s.selectIDs(ctx, s.db)
}

// Update runs the read-modify-write inside a single transaction.
func (s *SQLiteStore) Update(ctx context.Context, fn func(ids domain.IDSet) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	before, err := s.selectIDs(ctx, tx)
	if err != nil {
		return err
	}

	after := before.Clone()
	if err := fn(after); err != nil {
		return err
	}

	var added, removed []string
	for id := range after {
		if !before.Has(id) {
			added = append(added, id)
		}
	}
	for id := range before {
		if !after.Has(id) {
			removed = append(removed, id)
		}
	}

	if len(added) > 0 {
		insert := sq.Insert(membersTable).Options("OR IGNORE").Columns("set_name", "id")
		for _, id := range added {
			insert = insert.Values(s.name, id)
		}
		if err := execBuilder(ctx, tx, insert); err != nil {
			return fmt.Errorf("insert ids: %w", err)
		}
	}

	if len(removed) > 0 {
		del := sq.Delete(membersTable).Where(sq.Eq{"set_name": s.name, "id": removed})
		if err := execBuilder(ctx, tx, del); err != nil {
			return fmt.Errorf("delete ids: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Reset drops every row of the set.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	del := sq.Delete(membersTable).Where(sq.Eq{"set_name": s.name})
	if err := execBuilder(ctx, s.db, del); err != nil {
		return fmt.Errorf("reset %s: %w", s.name, err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) selectIDs(ctx context.Context, q queryer) (domain.IDSet, error) {
	query, args, err := sq.Select("id").From(membersTable).Where(sq.Eq{"set_name": s.name}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}

	result := domain.NewIDSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result.Add(id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func execBuilder(ctx context.Context, e execer, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := e.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return nil
}
