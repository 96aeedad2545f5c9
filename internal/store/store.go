package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection pool. All entity operations hang off
// this type; transactional boundaries (Replan, Resolve) are implemented
// in transactions.go.
type Store struct {
	db *sql.DB
}

// Open creates (or attaches to) a SQLite database file at path, applies
// the schema, and returns a ready Store. SQLite's single-writer semantics
// plus BEGIN IMMEDIATE transactions are what give the incident-level
// serialization token named in spec.md §5 -- no separate lock manager is
// needed.
func Open(path string) (*Store, error) {
	// _txlock=immediate makes every *sql.Tx a BEGIN IMMEDIATE transaction,
	// acquiring the write lock up front rather than on first write -- this
	// is what gives the incident-level serialization token of spec.md §5.
	dsn := path + "?_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps SQLite's single-writer model from
	// surfacing as SQLITE_BUSY errors under internal concurrency; every
	// read and write from this process is serialized on that connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// beginImmediate starts a write transaction. With _txlock=immediate set on
// the DSN, every *sql.Tx already acquires SQLite's write lock up front, so
// concurrent re-plans/resolutions for different incidents serialize the
// same way a row-level lock would (spec.md §5 "Shared mutable resources").
func (s *Store) beginImmediate(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting entity methods
// run standalone or as part of a caller-supplied transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dbExec returns tx if non-nil, otherwise the Store's own db handle.
func (s *Store) dbExec(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return s.db
}
