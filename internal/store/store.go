// Package store persists run history: one record per verification run plus
// the per-vector trace, in SQLite.
//
// The store is strictly opt-in. The harness's own coverage semantics are
// unchanged by it (coverage lives in memory unless explicitly saved), but a
// recorded run can be listed and its trace inspected after the fact, which
// is what you want when a regression fails at vector 40,000.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is a handle to a run-history database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path (":memory:" for tests).
// WAL mode and a busy timeout are applied, the connection pool is pinned to a
// single writer, and the schema is created if missing. Safe to call against
// an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time; a second pooled connection only
	// buys SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
