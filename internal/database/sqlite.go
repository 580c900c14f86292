package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLite is the embedded single-file backend. Statements pass through
// untranslated since the canonical flavor is SQLite's own.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the database file with foreign
// keys enforced. The pool is capped at a single connection: each call
// acquires it, runs, and releases it, which also serializes writers the
// way the file engine expects.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

// Get runs a fetch-one statement.
func (s *SQLite) Get(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.GetContext(ctx, dest, query, args...)
}

// Select runs a fetch-all statement.
func (s *SQLite) Select(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.SelectContext(ctx, dest, query, args...)
}

// Exec runs a mutate statement. A plain INSERT without RETURNING yields
// the inserted row id; anything else yields the affected-row count.
func (s *SQLite) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	upper := strings.ToUpper(query)
	if strings.HasPrefix(strings.TrimSpace(upper), "INSERT") && !strings.Contains(upper, "RETURNING") {
		return res.LastInsertId()
	}
	return res.RowsAffected()
}

// Close releases the underlying connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
