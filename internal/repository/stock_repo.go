package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/dstasiak/shopbot/internal/database"
	"github.com/dstasiak/shopbot/internal/models"
)

// StockRepository is the inventory ledger: products, variants and the
// atomic reservation primitive.
type StockRepository struct {
	db database.DB
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(db database.DB) *StockRepository {
	return &StockRepository{db: db}
}

// UpsertProduct inserts a product at zero stock or, when the name is
// already taken, updates only its price. Returns the product id either
// way; the id is stable across repeated upserts of the same name.
func (r *StockRepository) UpsertProduct(ctx context.Context, name string, price float64) (int64, error) {
	const q = `
		INSERT INTO stock (name, quantity, price)
		VALUES (?, 0, ?)
		ON CONFLICT(name) DO UPDATE SET
			price = excluded.price
		RETURNING id`

	var id int64
	if err := r.db.Get(ctx, &id, q, name, price); err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertVariant inserts a variant at quantity delta or adds delta to the
// existing quantity on (product, name) conflict. Restock semantics: the
// delta is never an absolute overwrite.
func (r *StockRepository) UpsertVariant(ctx context.Context, productID int64, name string, delta int) error {
	const q = `
		INSERT INTO variants (product_id, name, quantity)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id, name) DO UPDATE SET
			quantity = variants.quantity + excluded.quantity`

	_, err := r.db.Exec(ctx, q, productID, name, delta)
	return err
}

// ListPurchasable returns every product whose variants sum to a positive
// quantity, annotated with that aggregate, ordered by name.
func (r *StockRepository) ListPurchasable(ctx context.Context) ([]models.Product, error) {
	const q = `
		SELECT s.id, s.name, COALESCE(SUM(v.quantity), 0) AS total_qty, s.price
		FROM stock s
		LEFT JOIN variants v ON s.id = v.product_id
		GROUP BY s.id
		HAVING COALESCE(SUM(v.quantity), 0) > 0
		ORDER BY s.name`

	var products []models.Product
	if err := r.db.Select(ctx, &products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// ListProductsAdmin returns all products with their aggregate variant
// quantity, including sold-out ones.
func (r *StockRepository) ListProductsAdmin(ctx context.Context) ([]models.Product, error) {
	const q = `
		SELECT s.id, s.name, COALESCE(SUM(v.quantity), 0) AS total_qty, s.price
		FROM stock s
		LEFT JOIN variants v ON s.id = v.product_id
		GROUP BY s.id
		ORDER BY s.name`

	var products []models.Product
	if err := r.db.Select(ctx, &products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// ListVariants returns the in-stock variants of a product, ordered by
// name. This is the buyer view.
func (r *StockRepository) ListVariants(ctx context.Context, productID int64) ([]models.Variant, error) {
	const q = `
		SELECT id, product_id, name, quantity FROM variants
		WHERE product_id = ? AND quantity > 0
		ORDER BY name`

	var variants []models.Variant
	if err := r.db.Select(ctx, &variants, q, productID); err != nil {
		return nil, err
	}
	return variants, nil
}

// ListVariantsAdmin returns all variants of a product regardless of
// quantity, ordered by name.
func (r *StockRepository) ListVariantsAdmin(ctx context.Context, productID int64) ([]models.Variant, error) {
	const q = `
		SELECT id, product_id, name, quantity FROM variants
		WHERE product_id = ?
		ORDER BY name`

	var variants []models.Variant
	if err := r.db.Select(ctx, &variants, q, productID); err != nil {
		return nil, err
	}
	return variants, nil
}

// GetVariant returns a variant joined with its owning product, or
// ErrNotFound.
func (r *StockRepository) GetVariant(ctx context.Context, variantID int64) (*models.VariantDetail, error) {
	const q = `
		SELECT v.id, v.name, v.quantity, s.id AS product_id, s.name AS product_name, s.price
		FROM variants v
		JOIN stock s ON v.product_id = s.id
		WHERE v.id = ?`

	var v models.VariantDetail
	if err := r.db.Get(ctx, &v, q, variantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// GetProduct returns a product by id, or ErrNotFound.
func (r *StockRepository) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	const q = `SELECT id, name, price FROM stock WHERE id = ?`

	var p models.Product
	if err := r.db.Get(ctx, &p, q, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Reserve atomically decrements a variant's quantity by qty only if the
// current quantity covers it, and reports whether the decrement took.
// This single conditional statement is the only mechanism that commits
// stock to a sale; two buyers racing for the last unit cannot both
// succeed because the engine evaluates the guard and the write together.
func (r *StockRepository) Reserve(ctx context.Context, variantID int64, qty int) (bool, error) {
	const q = `UPDATE variants SET quantity = quantity - ? WHERE id = ? AND quantity >= ?`

	rows, err := r.db.Exec(ctx, q, qty, variantID, qty)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// RenameVariant updates a variant's name. Returns false without error
// when the new name collides with a sibling variant or the variant is
// gone; other storage failures propagate.
func (r *StockRepository) RenameVariant(ctx context.Context, variantID int64, newName string) (bool, error) {
	const q = `UPDATE variants SET name = ? WHERE id = ?`

	rows, err := r.db.Exec(ctx, q, newName, variantID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return rows == 1, nil
}

// DeleteVariant removes a variant, reporting whether exactly one row
// went away.
func (r *StockRepository) DeleteVariant(ctx context.Context, variantID int64) (bool, error) {
	rows, err := r.db.Exec(ctx, `DELETE FROM variants WHERE id = ?`, variantID)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// DeleteProduct removes a product; its variants cascade away with it.
func (r *StockRepository) DeleteProduct(ctx context.Context, productID int64) (bool, error) {
	rows, err := r.db.Exec(ctx, `DELETE FROM stock WHERE id = ?`, productID)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// isUniqueViolation reports whether err is a unique-constraint failure
// from either backend.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
