package database

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Schema DDL in the canonical flavor; each backend translates what it
// must. CHECK constraints keep quantities non-negative at the engine
// level regardless of application bugs.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stock (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		quantity INTEGER NOT NULL CHECK(quantity >= 0),
		price REAL NOT NULL DEFAULT 0.0
	)`,
	`CREATE TABLE IF NOT EXISTS variants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK(quantity >= 0),
		FOREIGN KEY(product_id) REFERENCES stock(id) ON DELETE CASCADE,
		UNIQUE(product_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id BIGINT NOT NULL,
		username TEXT,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		total_price REAL NOT NULL,
		delivery_method TEXT NOT NULL,
		address TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Statements that fail when the target already has the requested shape.
// Failures here mean the migration already ran, so they are swallowed.
var idempotentMigrations = []string{
	`ALTER TABLE stock ADD COLUMN price REAL NOT NULL DEFAULT 0.0`,
}

// Init creates the schema and backfills a default variant for legacy
// products that carry stock directly but have no variants yet.
func Init(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	for _, stmt := range idempotentMigrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			log.Debug().Err(err).Msg("skipping migration, target already migrated")
		}
	}

	return backfillDefaultVariants(ctx, db)
}

// backfillDefaultVariants moves pre-variant stock quantities into a
// "Default" variant so the buyer flow only ever reads variants.
func backfillDefaultVariants(ctx context.Context, db DB) error {
	var legacy []struct {
		ID       int64 `db:"id"`
		Quantity int   `db:"quantity"`
	}
	err := db.Select(ctx, &legacy, `
		SELECT s.id, s.quantity FROM stock s
		WHERE s.quantity > 0
		  AND NOT EXISTS (SELECT 1 FROM variants v WHERE v.product_id = s.id)`)
	if err != nil {
		return err
	}

	for _, row := range legacy {
		_, err := db.Exec(ctx,
			`INSERT OR IGNORE INTO variants (product_id, name, quantity) VALUES (?, 'Default', ?)`,
			row.ID, row.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}
