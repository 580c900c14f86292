package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dstasiak/shopbot/internal/database"
	"github.com/dstasiak/shopbot/internal/models"
)

// OrderRepository is the order ledger. Orders are never deleted and
// change status exactly once.
type OrderRepository struct {
	db database.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create records a new order in pending status and returns its id.
// Callers must have reserved stock before calling this.
func (r *OrderRepository) Create(ctx context.Context, userID int64, username, productName string, quantity int, totalPrice float64, deliveryDetail string, address *string) (int64, error) {
	const q = `
		INSERT INTO orders (user_id, username, product_name, quantity, total_price, delivery_method, address, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')
		RETURNING id`

	var id int64
	if err := r.db.Get(ctx, &id, q, userID, username, productName, quantity, totalPrice, deliveryDetail, address); err != nil {
		return 0, err
	}
	return id, nil
}

// SetStatus transitions a pending order to the given status and returns
// the owning buyer id so the caller knows whom to notify. An order that
// was already decided is left untouched and reported as
// ErrAlreadyDecided; a missing order is ErrNotFound.
func (r *OrderRepository) SetStatus(ctx context.Context, orderID int64, status models.OrderStatus) (int64, error) {
	const q = `UPDATE orders SET status = ? WHERE id = ? AND status = 'pending' RETURNING user_id`

	var userID int64
	err := r.db.Get(ctx, &userID, q, status, orderID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// No pending row matched: either decided already or gone.
	var current models.OrderStatus
	err = r.db.Get(ctx, &current, `SELECT status FROM orders WHERE id = ?`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return 0, ErrAlreadyDecided
}

// Get returns an order by id, or ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	const q = `
		SELECT id, user_id, username, product_name, quantity, total_price, delivery_method, address, status, created_at
		FROM orders
		WHERE id = ?`

	var o models.Order
	if err := r.db.Get(ctx, &o, q, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ListPending returns all orders awaiting an operator decision.
func (r *OrderRepository) ListPending(ctx context.Context) ([]models.Order, error) {
	const q = `
		SELECT id, user_id, username, product_name, quantity, total_price, delivery_method, address, status, created_at
		FROM orders
		WHERE status = 'pending'`

	var orders []models.Order
	if err := r.db.Select(ctx, &orders, q); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListRecentDecided returns the most recently decided orders, newest
// first.
func (r *OrderRepository) ListRecentDecided(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT id, user_id, username, product_name, quantity, total_price, delivery_method, address, status, created_at
		FROM orders
		WHERE status != 'pending'
		ORDER BY created_at DESC
		LIMIT ?`

	var orders []models.Order
	if err := r.db.Select(ctx, &orders, q, limit); err != nil {
		return nil, err
	}
	return orders, nil
}

// BuyerAggregate sums the quantity and spend of a buyer's confirmed
// orders.
func (r *OrderRepository) BuyerAggregate(ctx context.Context, userID int64) (models.BuyerStats, error) {
	const q = `
		SELECT COALESCE(SUM(quantity), 0) AS total_qty, COALESCE(SUM(total_price), 0) AS total_spend
		FROM orders
		WHERE user_id = ? AND status = 'confirmed'`

	var stats models.BuyerStats
	if err := r.db.Get(ctx, &stats, q, userID); err != nil {
		return models.BuyerStats{}, err
	}
	return stats, nil
}

// HasAnyConfirmed reports whether the buyer has at least one confirmed
// order. Gates the buyer-facing profile affordance.
func (r *OrderRepository) HasAnyConfirmed(ctx context.Context, userID int64) (bool, error) {
	const q = `SELECT 1 FROM orders WHERE user_id = ? AND status = 'confirmed' LIMIT 1`

	var one int
	err := r.db.Get(ctx, &one, q, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListBuyers returns the distinct buyers seen in the order ledger.
func (r *OrderRepository) ListBuyers(ctx context.Context) ([]models.Buyer, error) {
	const q = `SELECT DISTINCT username, user_id FROM orders WHERE username IS NOT NULL`

	var buyers []models.Buyer
	if err := r.db.Select(ctx, &buyers, q); err != nil {
		return nil, err
	}
	return buyers, nil
}
