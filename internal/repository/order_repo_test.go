package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstasiak/shopbot/internal/models"
)

func createOrder(t *testing.T, r *OrderRepository, userID int64, username string, total float64) int64 {
	t.Helper()
	addr := "Main Street 5"
	id, err := r.Create(context.Background(), userID, username, "Tea (Green)", 2, total, "Delivery: Courier", &addr)
	require.NoError(t, err)
	return id
}

func TestCreateAndGet(t *testing.T) {
	r := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	id := createOrder(t, r, 101, "jdoe", 32.0)

	o, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(101), o.UserID)
	assert.Equal(t, "jdoe", o.Username)
	assert.Equal(t, "Tea (Green)", o.ProductName)
	assert.Equal(t, 2, o.Quantity)
	assert.Equal(t, 32.0, o.TotalPrice)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	require.NotNil(t, o.Address)
	assert.Equal(t, "Main Street 5", *o.Address)

	_, err = r.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_NilAddress(t *testing.T) {
	r := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	id, err := r.Create(ctx, 101, "jdoe", "Tea (Green)", 1, 10.0, "Pickup: Warszawa", nil)
	require.NoError(t, err)

	o, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, o.Address)
}

func TestSetStatus_DecidesExactlyOnce(t *testing.T) {
	r := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	id := createOrder(t, r, 101, "jdoe", 32.0)

	buyerID, err := r.SetStatus(ctx, id, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(101), buyerID)

	// A second decision, even a different one, is a no-op.
	_, err = r.SetStatus(ctx, id, models.OrderStatusRejected)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	o, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, o.Status)

	_, err = r.SetStatus(ctx, 9999, models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPendingAndRecentDecided(t *testing.T) {
	r := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	a := createOrder(t, r, 101, "jdoe", 10.0)
	b := createOrder(t, r, 102, "asmith", 20.0)
	createOrder(t, r, 103, "bmoss", 30.0)

	_, err := r.SetStatus(ctx, a, models.OrderStatusConfirmed)
	require.NoError(t, err)
	_, err = r.SetStatus(ctx, b, models.OrderStatusRejected)
	require.NoError(t, err)

	pending, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(103), pending[0].UserID)

	decided, err := r.ListRecentDecided(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, decided, 2)
	for _, o := range decided {
		assert.NotEqual(t, models.OrderStatusPending, o.Status)
	}

	limited, err := r.ListRecentDecided(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestBuyerAggregate_ConfirmedOnly(t *testing.T) {
	r := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	a := createOrder(t, r, 101, "jdoe", 10.0)
	b := createOrder(t, r, 101, "jdoe", 20.0)
	createOrder(t, r, 101, "jdoe", 40.0) // stays pending

	_, err := r.SetStatus(ctx, a, models.OrderStatusConfirmed)
	require.NoError(t, err)
	_, err = r.SetStatus(ctx, b, models.OrderStatusRejected)
	require.NoError(t, err)

	stats, err := r.BuyerAggregate(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalQuantity)
	assert.Equal(t, 10.0, stats.TotalSpend)

	// Unknown buyers aggregate to zero, not an error.
	stats, err = r.BuyerAggregate(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalQuantity)
	assert.Zero(t, stats.TotalSpend)
}

func TestHasAnyConfirmed(t *testing.T) {
	r := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	id := createOrder(t, r, 101, "jdoe", 10.0)

	ok, err := r.HasAnyConfirmed(ctx, 101)
	require.NoError(t, err)
	assert.False(t, ok, "a pending order does not count")

	_, err = r.SetStatus(ctx, id, models.OrderStatusConfirmed)
	require.NoError(t, err)

	ok, err = r.HasAnyConfirmed(ctx, 101)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListBuyers_Distinct(t *testing.T) {
	r := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	createOrder(t, r, 101, "jdoe", 10.0)
	createOrder(t, r, 101, "jdoe", 20.0)
	createOrder(t, r, 102, "asmith", 30.0)

	buyers, err := r.ListBuyers(ctx)
	require.NoError(t, err)
	assert.Len(t, buyers, 2)
}
