package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstasiak/shopbot/internal/database"
)

func newTestDB(t *testing.T) *database.SQLite {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Init(context.Background(), db))
	return db
}

func seedProduct(t *testing.T, r *StockRepository, name string, price float64, variants map[string]int) int64 {
	t.Helper()
	ctx := context.Background()

	productID, err := r.UpsertProduct(ctx, name, price)
	require.NoError(t, err)
	for vname, qty := range variants {
		require.NoError(t, r.UpsertVariant(ctx, productID, vname, qty))
	}
	return productID
}

func TestUpsertProduct_PriceOnlyOnConflict(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	id := seedProduct(t, r, "Tea", 10.0, map[string]int{"Green": 5})

	// Re-upserting the same name updates the price and keeps the id;
	// existing variant stock is untouched.
	id2, err := r.UpsertProduct(ctx, "Tea", 12.5)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	p, err := r.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 12.5, p.Price)

	variants, err := r.ListVariants(ctx, id)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, 5, variants[0].Quantity)
}

func TestUpsertVariant_AddsDelta(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	productID := seedProduct(t, r, "Tea", 10.0, map[string]int{"Green": 3})
	require.NoError(t, r.UpsertVariant(ctx, productID, "Green", 4))

	variants, err := r.ListVariants(ctx, productID)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, 7, variants[0].Quantity)
}

func TestListPurchasable_FiltersAndOrders(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	seedProduct(t, r, "Oolong", 15.0, map[string]int{"Loose": 2})
	seedProduct(t, r, "Coffee", 20.0, map[string]int{"Beans": 1, "Ground": 4})
	seedProduct(t, r, "Matcha", 30.0, map[string]int{"Tin": 0})
	seedProduct(t, r, "Cocoa", 8.0, nil) // no variants at all

	products, err := r.ListPurchasable(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Coffee", products[0].Name)
	assert.Equal(t, 5, products[0].TotalQuantity)
	assert.Equal(t, "Oolong", products[1].Name)

	// The admin view keeps the sold-out and empty products.
	all, err := r.ListProductsAdmin(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestListVariants_BuyerVsAdminView(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	productID := seedProduct(t, r, "Tea", 10.0, map[string]int{"Black": 0, "Green": 2})

	buyer, err := r.ListVariants(ctx, productID)
	require.NoError(t, err)
	require.Len(t, buyer, 1)
	assert.Equal(t, "Green", buyer[0].Name)

	admin, err := r.ListVariantsAdmin(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, admin, 2)
}

func TestGetVariant_JoinsProduct(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	productID := seedProduct(t, r, "Tea", 10.0, map[string]int{"Green": 2})
	variants, err := r.ListVariants(ctx, productID)
	require.NoError(t, err)

	v, err := r.GetVariant(ctx, variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Green", v.Name)
	assert.Equal(t, "Tea", v.ProductName)
	assert.Equal(t, 10.0, v.Price)
	assert.Equal(t, productID, v.ProductID)

	_, err = r.GetVariant(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserve_GuardsQuantity(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	productID := seedProduct(t, r, "Tea", 10.0, map[string]int{"Green": 3})
	variants, err := r.ListVariants(ctx, productID)
	require.NoError(t, err)
	variantID := variants[0].ID

	ok, err := r.Reserve(ctx, variantID, 4)
	require.NoError(t, err)
	assert.False(t, ok, "over-reserve must be refused")

	ok, err = r.Reserve(ctx, variantID, 3)
	require.NoError(t, err)
	assert.True(t, ok, "reserving exactly the remaining stock must succeed")

	ok, err = r.Reserve(ctx, variantID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "stock is exhausted")
}

func TestReserve_ConcurrentNeverOversells(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	const stock = 5
	const buyers = 12

	productID := seedProduct(t, r, "Tea", 10.0, map[string]int{"Green": stock})
	variants, err := r.ListVariants(ctx, productID)
	require.NoError(t, err)
	variantID := variants[0].ID

	var wg sync.WaitGroup
	results := make(chan bool, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.Reserve(ctx, variantID, 1)
			assert.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for ok := range results {
		if ok {
			won++
		}
	}
	assert.Equal(t, stock, won)

	remaining, err := r.ListVariantsAdmin(ctx, productID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, 0, remaining[0].Quantity)
}

func TestRenameVariant_CollisionIsNotAnError(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	productID := seedProduct(t, r, "Tea", 10.0, map[string]int{"Black": 1, "Green": 2})
	variants, err := r.ListVariantsAdmin(ctx, productID)
	require.NoError(t, err)

	ok, err := r.RenameVariant(ctx, variants[1].ID, "Black")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.RenameVariant(ctx, variants[1].ID, "Jasmine")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.RenameVariant(ctx, 9999, "Whatever")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteProduct_CascadesVariants(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	productID := seedProduct(t, r, "Tea", 10.0, map[string]int{"Black": 1, "Green": 2})

	ok, err := r.DeleteProduct(ctx, productID)
	require.NoError(t, err)
	assert.True(t, ok)

	variants, err := r.ListVariantsAdmin(ctx, productID)
	require.NoError(t, err)
	assert.Empty(t, variants)

	ok, err = r.DeleteProduct(ctx, productID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteVariant(t *testing.T) {
	r := NewStockRepository(newTestDB(t))
	ctx := context.Background()

	productID := seedProduct(t, r, "Tea", 10.0, map[string]int{"Green": 2})
	variants, err := r.ListVariantsAdmin(ctx, productID)
	require.NoError(t, err)

	ok, err := r.DeleteVariant(ctx, variants[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.DeleteVariant(ctx, variants[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
