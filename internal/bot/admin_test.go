package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstasiak/shopbot/internal/models"
)

const operatorID int64 = 900

func TestAdmin_PanelRequiresOperator(t *testing.T) {
	f := newFixture(t, operatorID)

	f.tap(1, "menu:admin")
	assert.Contains(t, f.lastText(1), "not allowed")

	f.tap(1, "stock:add")
	assert.Contains(t, f.lastText(1), "not allowed")

	f.tap(operatorID, "menu:admin")
	assert.Contains(t, f.lastText(operatorID), "Administrator panel")
}

func TestAdmin_AddProduct(t *testing.T) {
	f := newFixture(t, operatorID)
	ctx := context.Background()

	f.tap(operatorID, "stock:add")
	assert.Contains(t, f.lastText(operatorID), "Product name | Price")
	assert.Equal(t, StateAddingStock, f.bag(operatorID).State)

	// Malformed lines are rejected and the state survives.
	f.text(operatorID, "Lemonade")
	assert.Contains(t, f.lastText(operatorID), "Invalid format")
	f.text(operatorID, "Lemonade | cheap")
	assert.Contains(t, f.lastText(operatorID), "as a number")
	f.text(operatorID, "Lemonade | -5")
	assert.Contains(t, f.lastText(operatorID), "cannot be negative")
	assert.Equal(t, StateAddingStock, f.bag(operatorID).State)

	// A decimal comma is accepted.
	f.text(operatorID, "Lemonade | 25,50")
	assert.Contains(t, f.lastText(operatorID), "Created product: Lemonade")
	assert.Empty(t, f.bag(operatorID).State)

	products, err := f.stock.ListProductsAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 25.5, products[0].Price)
	assert.Equal(t, 0, products[0].TotalQuantity, "a fresh product has no stock")
}

func TestAdmin_RestockVariantAccumulates(t *testing.T) {
	f := newFixture(t, operatorID)
	productID, _ := f.seed("Tea", 10.0, "Green", 2)

	restock := func(line string) {
		f.tap(operatorID, fmt.Sprintf("admin_product:add_variant:%d", productID))
		assert.Equal(t, StateEditingQuantity, f.bag(operatorID).State)
		f.text(operatorID, line)
	}

	restock("Green | 3")
	assert.Contains(t, f.lastText(operatorID), "Added variant for Tea: Green (3 pcs).")

	restock("Green | ten")
	assert.Contains(t, f.lastText(operatorID), "whole number")
	f.text(operatorID, "Green | -1")
	assert.Contains(t, f.lastText(operatorID), "cannot be negative")
	f.text(operatorID, "Green | 4")

	variants, err := f.stock.ListVariantsAdmin(context.Background(), productID)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, 9, variants[0].Quantity, "restocks add to existing stock")
}

func TestAdmin_RenameVariant(t *testing.T) {
	f := newFixture(t, operatorID)
	productID, greenID := f.seed("Tea", 10.0, "Green", 2)
	require.NoError(t, f.stock.UpsertVariant(context.Background(), productID, "Black", 1))

	rename := func(newName string) {
		f.tap(operatorID, fmt.Sprintf("admin_variant:rename:%d", greenID))
		assert.Equal(t, StateRenamingVariant, f.bag(operatorID).State)
		f.text(operatorID, newName)
	}

	// Colliding with a sibling is reported, not raised.
	rename("Black")
	assert.Contains(t, f.lastText(operatorID), "already taken")

	rename("Jasmine")
	assert.Contains(t, f.lastText(operatorID), `Renamed variant "Green" to "Jasmine".`)

	v, err := f.stock.GetVariant(context.Background(), greenID)
	require.NoError(t, err)
	assert.Equal(t, "Jasmine", v.Name)
}

func TestAdmin_DeleteProductAndVariant(t *testing.T) {
	f := newFixture(t, operatorID)
	productID, variantID := f.seed("Tea", 10.0, "Green", 2)

	f.tap(operatorID, fmt.Sprintf("admin_variant:delete:%d", variantID))
	assert.Contains(t, f.lastText(operatorID), "Deleted variant: Green")

	f.tap(operatorID, fmt.Sprintf("admin_product:delete:%d", productID))
	assert.Contains(t, f.lastText(operatorID), "has been deleted")

	products, err := f.stock.ListProductsAdmin(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestAdmin_OrderDecisionHappensOnce(t *testing.T) {
	f := newFixture(t, operatorID)
	ctx := context.Background()

	const buyerID int64 = 7
	orderID, err := f.orders.Create(ctx, buyerID, "jdoe", "Tea (Green)", 2, 20.0, "Delivery: pickup", nil)
	require.NoError(t, err)

	f.tap(operatorID, fmt.Sprintf("order:confirm:%d", orderID))
	assert.Contains(t, f.lastText(operatorID), fmt.Sprintf("Order %d has been confirmed.", orderID))

	// The buyer hears about the verdict.
	assert.Contains(t, f.lastText(buyerID), fmt.Sprintf("Your order #%d has been confirmed.", orderID))

	o, err := f.orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, o.Status)

	// A second click, even the opposite verdict, changes nothing and
	// sends no buyer notification.
	before := len(f.out.Messages())
	f.tap(operatorID, fmt.Sprintf("order:reject:%d", orderID))
	assert.Contains(t, f.lastText(operatorID), fmt.Sprintf("Order %d was already decided.", orderID))

	o, err = f.orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, o.Status)
	assert.Equal(t, before+1, len(f.out.Messages()), "only the operator ack goes out")
}

func TestAdmin_DecisionOnMissingOrder(t *testing.T) {
	f := newFixture(t, operatorID)

	f.tap(operatorID, "order:confirm:9999")
	assert.Contains(t, f.lastText(operatorID), "Failed to update the order status.")
}

func TestNotify_FanOutSurvivesBlockedOperator(t *testing.T) {
	const secondOperator int64 = 901
	f := newFixture(t, operatorID, secondOperator)
	productID, variantID := f.seed("Tea", 10.0, "Green", 5)

	// One operator's channel is broken; the order and the other
	// operator's notification must not be affected.
	f.out.FailFor(operatorID, errors.New("delivery failed"))

	f.walkToPayment(1, productID, variantID, 1, "delivery:pickup", "pickup_city:Warszawa")
	f.tap(1, "payment:BLIK")
	f.tap(1, "confirm:yes")

	assert.Contains(t, f.lastText(1), "Order accepted")

	orders, err := f.orders.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	msg, ok := f.out.LastFor(secondOperator)
	require.True(t, ok, "the healthy operator still gets the fan-out")
	assert.Contains(t, msg.Text, "New order #")
}

func TestAdmin_ListsPendingAndHistory(t *testing.T) {
	f := newFixture(t, operatorID)
	ctx := context.Background()

	f.tap(operatorID, "admin:orders")
	assert.Contains(t, f.lastText(operatorID), "No pending orders.")

	a, err := f.orders.Create(ctx, 7, "jdoe", "Tea (Green)", 2, 20.0, "Delivery: pickup", nil)
	require.NoError(t, err)
	_, err = f.orders.Create(ctx, 8, "asmith", "Coffee (Beans)", 1, 20.0, "Delivery: pickup", nil)
	require.NoError(t, err)

	f.tap(operatorID, "admin:orders")
	assert.Contains(t, f.lastText(operatorID), "Pending orders:")
	assert.Contains(t, f.lastText(operatorID), "jdoe")
	assert.Contains(t, f.lastText(operatorID), "asmith")

	f.tap(operatorID, "admin:history")
	assert.Contains(t, f.lastText(operatorID), "No order history.")

	_, err = f.orders.SetStatus(ctx, a, models.OrderStatusRejected)
	require.NoError(t, err)

	f.tap(operatorID, "admin:history")
	assert.Contains(t, f.lastText(operatorID), "rejected")

	f.tap(operatorID, "admin:users")
	assert.Contains(t, f.lastText(operatorID), "Buyers:")
}
