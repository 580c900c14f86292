package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UnknownSessionIsEmpty(t *testing.T) {
	s := NewMemoryStore()

	bag, err := s.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, bag.State)
	assert.Zero(t, bag.ProductID)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	in := &Bag{State: "entering_quantity", ProductID: 3, ProductName: "Tea", Price: 10.0, Quantity: 2}
	require.NoError(t, s.Set(ctx, 42, in))

	out, err := s.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, *in, *out)

	// The store holds copies; mutating what Get returned must not leak
	// back into the stored bag.
	out.Quantity = 99
	again, err := s.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Quantity)

	// Sessions are independent.
	other, err := s.Get(ctx, 43)
	require.NoError(t, err)
	assert.Empty(t, other.State)
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 42, &Bag{State: "choosing_product"}))
	require.NoError(t, s.Clear(ctx, 42))

	bag, err := s.Get(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, bag.State)

	// Clearing an unknown session is fine.
	require.NoError(t, s.Clear(ctx, 43))
}
