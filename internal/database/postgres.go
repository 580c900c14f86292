package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Postgres is the client/server backend. It rewrites canonical SQLite
// flavored statements into Postgres syntax before execution and holds a
// process-wide pool that is never torn down mid-process.
type Postgres struct {
	db *sqlx.DB
}

// OpenPostgres connects to the given DATABASE_URL. A small retry with
// exponential backoff handles containers still starting up.
func OpenPostgres(databaseURL string) (*Postgres, error) {
	const (
		maxAttempts = 5
		baseDelay   = 500 * time.Millisecond
	)

	var db *sqlx.DB
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, lastErr = sqlx.Open("postgres", databaseURL)
		if lastErr != nil {
			sleepWithBackoff(attempt, baseDelay)
			continue
		}
		setPool(db.DB)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()
		if lastErr == nil {
			return &Postgres{db: db}, nil
		}

		_ = db.Close()
		sleepWithBackoff(attempt, baseDelay)
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxAttempts, lastErr)
}

// Get runs a fetch-one statement.
func (p *Postgres) Get(ctx context.Context, dest any, query string, args ...any) error {
	return p.db.GetContext(ctx, dest, p.translate(query), args...)
}

// Select runs a fetch-all statement.
func (p *Postgres) Select(ctx context.Context, dest any, query string, args ...any) error {
	return p.db.SelectContext(ctx, dest, p.translate(query), args...)
}

// Exec runs a mutate statement and yields the affected-row count.
func (p *Postgres) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := p.db.ExecContext(ctx, p.translate(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close releases the pool. Only called on process shutdown.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// translate rewrites a canonical statement into Postgres syntax:
// autoincrement DDL, conflict-ignoring inserts, and `?` placeholders to
// the `$n` form.
func (p *Postgres) translate(query string) string {
	query = strings.ReplaceAll(query, "INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY")
	if strings.Contains(query, "INSERT OR IGNORE") {
		query = strings.Replace(query, "INSERT OR IGNORE", "INSERT", 1)
		query = strings.TrimRight(query, " \n\t;") + " ON CONFLICT DO NOTHING"
	}
	return p.db.Rebind(query)
}

// setPool configures the connection pool for the database.
func setPool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// sleepWithBackoff sleeps for an exponentially increasing duration,
// capped at 5s.
func sleepWithBackoff(attempt int, base time.Duration) {
	d := base << (attempt - 1)
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	time.Sleep(d)
}
