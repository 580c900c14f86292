package database

import (
	"context"

	"github.com/dstasiak/shopbot/internal/config"
)

// DB is the single query-execution contract shared by both backends.
// Statements are written in the embedded flavor: `?` placeholders,
// `INTEGER PRIMARY KEY AUTOINCREMENT` and `INSERT OR IGNORE`; each
// implementation owns the translation to whatever its engine requires.
//
// The three methods map to the three result shapes a caller can ask for:
// Get (fetch-one), Select (fetch-all) and Exec (mutate). Get returns
// sql.ErrNoRows when nothing matches.
//
// Exec's return value depends on statement shape: on the embedded
// backend a plain INSERT without RETURNING yields the new row id, every
// other statement yields the affected-row count; the client/server
// backend always yields the affected-row count. Call sites must only
// rely on whichever shape their statement guarantees.
type DB interface {
	Get(ctx context.Context, dest any, query string, args ...any) error
	Select(ctx context.Context, dest any, query string, args ...any) error
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Close() error
}

// Open selects a backend from configuration: Postgres when DATABASE_URL
// is set, the embedded SQLite file otherwise.
func Open(cfg *config.Config) (DB, error) {
	if cfg.DatabaseURL != "" {
		return OpenPostgres(cfg.DatabaseURL)
	}
	return OpenSQLite(cfg.DBPath)
}
