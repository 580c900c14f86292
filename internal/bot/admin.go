package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dstasiak/shopbot/internal/models"
	"github.com/dstasiak/shopbot/internal/repository"
	"github.com/dstasiak/shopbot/internal/session"
	"github.com/dstasiak/shopbot/internal/transport"
)

// dispatchAdminSelection routes operator tokens. Callers have already
// verified the operator identity.
func (b *Bot) dispatchAdminSelection(ctx context.Context, ev transport.Event, bag *session.Bag, prefix, rest string) error {
	switch prefix {
	case "admin":
		return b.handleAdminMenu(ctx, ev, rest)
	case "stock":
		return b.handleStockAction(ctx, ev, rest)
	case "admin_product":
		action, id, ok := splitActionID(rest)
		if !ok {
			return b.sessionExpired(ctx, ev)
		}
		return b.handleProductSelection(ctx, ev, bag, action, id)
	case "admin_variant":
		action, id, ok := splitActionID(rest)
		if !ok {
			return b.sessionExpired(ctx, ev)
		}
		return b.handleVariantSelection(ctx, ev, bag, action, id)
	default: // order
		action, id, ok := splitActionID(rest)
		if !ok {
			return b.sessionExpired(ctx, ev)
		}
		return b.handleOrderDecision(ctx, ev, action, id)
	}
}

// sendAdminMenu shows the operator panel.
func (b *Bot) sendAdminMenu(ctx context.Context, ev transport.Event) error {
	return b.sender.Send(ctx, ev.SessionID, "Administrator panel:", []transport.Choice{
		{Label: "Manage stock", Token: "admin:stock"},
		{Label: "Manage buyers", Token: "admin:users"},
		{Label: "Manage orders", Token: "admin:orders"},
		{Label: "Order history", Token: "admin:history"},
		{Label: "Back", Token: "menu:main"},
	})
}

func (b *Bot) handleAdminMenu(ctx context.Context, ev transport.Event, action string) error {
	switch action {
	case "stock":
		return b.sender.Send(ctx, ev.SessionID, "Pick an action:", []transport.Choice{
			{Label: "Add a new product", Token: "stock:add"},
			{Label: "Add/edit variants", Token: "stock:edit"},
			{Label: "Rename a variant", Token: "stock:rename"},
			{Label: "Delete a variant", Token: "stock:delete_variant"},
			{Label: "Delete a product", Token: "stock:delete"},
		})
	case "users":
		return b.listBuyers(ctx, ev)
	case "orders":
		return b.listPendingOrders(ctx, ev)
	case "history":
		return b.listOrderHistory(ctx, ev)
	default:
		return b.sendAdminMenu(ctx, ev)
	}
}

// handleStockAction either enters the adding_stock state or presents a
// product picker for the chosen action.
func (b *Bot) handleStockAction(ctx context.Context, ev transport.Event, action string) error {
	if action == "add" {
		bag := &session.Bag{State: StateAddingStock}
		if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
			return err
		}
		return b.sender.Send(ctx, ev.SessionID,
			"Enter the data as: Product name | Price (e.g. Lemonade | 25.50)", nil)
	}

	products, err := b.stock.ListProductsAdmin(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return b.sender.Send(ctx, ev.SessionID, "No products in the database.", nil)
	}

	var next, prompt string
	switch action {
	case "edit":
		next, prompt = "add_variant", "Pick a product to add a variant/stock to:"
	case "delete":
		next, prompt = "delete", "Pick a product to delete (its variants go with it):"
	case "delete_variant":
		next, prompt = "pick_delete", "Pick a product to delete a variant from:"
	case "rename":
		next, prompt = "pick_rename", "Pick a product to rename a variant of:"
	default:
		return b.sessionExpired(ctx, ev)
	}

	choices := make([]transport.Choice, 0, len(products))
	for _, p := range products {
		choices = append(choices, transport.Choice{
			Label: fmt.Sprintf("%s (%d)", p.Name, p.TotalQuantity),
			Token: fmt.Sprintf("admin_product:%s:%d", next, p.ID),
		})
	}
	return b.sender.Send(ctx, ev.SessionID, prompt, choices)
}

// handleProductSelection acts on a picked product.
func (b *Bot) handleProductSelection(ctx context.Context, ev transport.Event, bag *session.Bag, action string, productID int64) error {
	switch action {
	case "delete":
		deleted, err := b.stock.DeleteProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !deleted {
			return b.sender.Send(ctx, ev.SessionID, "Failed to delete the product.", nil)
		}
		return b.sender.EditLast(ctx, ev.SessionID, "The product has been deleted.", nil)

	case "add_variant":
		product, err := b.stock.GetProduct(ctx, productID)
		if errors.Is(err, repository.ErrNotFound) {
			return b.sender.Send(ctx, ev.SessionID, "This product no longer exists.", nil)
		}
		if err != nil {
			return err
		}

		bag.ProductID = product.ID
		bag.ProductName = product.Name
		bag.State = StateEditingQuantity
		if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
			return err
		}
		return b.sender.Send(ctx, ev.SessionID,
			fmt.Sprintf("Selected product: %s\nEnter the variant and quantity as: Variant name | Quantity\n(e.g. Watermelon | 100)", product.Name), nil)

	case "pick_delete", "pick_rename":
		product, err := b.stock.GetProduct(ctx, productID)
		if errors.Is(err, repository.ErrNotFound) {
			return b.sender.Send(ctx, ev.SessionID, "This product no longer exists.", nil)
		}
		if err != nil {
			return err
		}

		variants, err := b.stock.ListVariantsAdmin(ctx, productID)
		if err != nil {
			return err
		}
		if len(variants) == 0 {
			return b.sender.Send(ctx, ev.SessionID, "This product has no variants.", nil)
		}

		next := "delete"
		if action == "pick_rename" {
			next = "rename"
		}
		choices := make([]transport.Choice, 0, len(variants))
		for _, v := range variants {
			choices = append(choices, transport.Choice{
				Label: fmt.Sprintf("%s (%d)", v.Name, v.Quantity),
				Token: fmt.Sprintf("admin_variant:%s:%d", next, v.ID),
			})
		}
		return b.sender.Send(ctx, ev.SessionID,
			fmt.Sprintf("Pick a variant of %s:", product.Name), choices)

	default:
		return b.sessionExpired(ctx, ev)
	}
}

// handleVariantSelection acts on a picked variant.
func (b *Bot) handleVariantSelection(ctx context.Context, ev transport.Event, bag *session.Bag, action string, variantID int64) error {
	variant, err := b.stock.GetVariant(ctx, variantID)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sender.Send(ctx, ev.SessionID, "The variant no longer exists.", nil)
	}
	if err != nil {
		return err
	}

	switch action {
	case "delete":
		if _, err := b.stock.DeleteVariant(ctx, variantID); err != nil {
			return err
		}
		return b.sender.EditLast(ctx, ev.SessionID,
			fmt.Sprintf("Deleted variant: %s", variant.Name), nil)

	case "rename":
		bag.VariantID = variant.ID
		bag.OldName = variant.Name
		bag.State = StateRenamingVariant
		if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
			return err
		}
		return b.sender.Send(ctx, ev.SessionID,
			fmt.Sprintf("Enter a new name for variant %q:", variant.Name), nil)

	default:
		return b.sessionExpired(ctx, ev)
	}
}

// handleOrderDecision applies an operator confirm/reject. A decision on
// an already-decided order is an explicit no-op: history never changes
// twice.
func (b *Bot) handleOrderDecision(ctx context.Context, ev transport.Event, action string, orderID int64) error {
	var status models.OrderStatus
	switch action {
	case "confirm":
		status = models.OrderStatusConfirmed
	case "reject":
		status = models.OrderStatusRejected
	default:
		return b.sessionExpired(ctx, ev)
	}

	_, err := b.orders.SetStatus(ctx, orderID, status)
	if errors.Is(err, repository.ErrAlreadyDecided) {
		return b.sender.EditLast(ctx, ev.SessionID,
			fmt.Sprintf("Order %d was already decided.", orderID), nil)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return b.sender.Send(ctx, ev.SessionID, "Failed to update the order status.", nil)
	}
	if err != nil {
		return err
	}

	order, err := b.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	verdict := "confirmed"
	if status == models.OrderStatusRejected {
		verdict = "rejected"
	}
	ack := fmt.Sprintf(
		"Order %d has been %s.\n\nBuyer: %s\nProduct: %s\nQuantity: %d\nTotal: %.2f PLN\nDetails: %s",
		order.ID, verdict, order.Username, order.ProductName, order.Quantity, order.TotalPrice, order.DeliveryMethod,
	)
	if err := b.sender.EditLast(ctx, ev.SessionID, ack, nil); err != nil {
		return err
	}

	b.notifier.OrderDecided(ctx, order)
	return nil
}

// adminAddProduct parses the "Name | Price" line typed in the
// adding_stock state. Malformed input keeps the state.
func (b *Bot) adminAddProduct(ctx context.Context, ev transport.Event, bag *session.Bag) error {
	if !b.isAdmin(ev.UserID) {
		return nil
	}

	parts := splitFields(ev.Payload)
	if len(parts) != 2 {
		return b.sender.Send(ctx, ev.SessionID, "Invalid format. Use: Product name | Price", nil)
	}
	name, priceText := parts[0], parts[1]
	if name == "" {
		return b.sender.Send(ctx, ev.SessionID, "Enter a product name.", nil)
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(priceText, ",", "."), 64)
	if err != nil {
		return b.sender.Send(ctx, ev.SessionID, "Enter the price as a number.", nil)
	}
	if price < 0 {
		return b.sender.Send(ctx, ev.SessionID, "The price cannot be negative.", nil)
	}

	if _, err := b.stock.UpsertProduct(ctx, name, price); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
		return err
	}
	return b.sender.Send(ctx, ev.SessionID,
		fmt.Sprintf("Created product: %s (price: %.2f PLN).\nNow use Manage stock -> Add/edit variants to stock it.", name, price), nil)
}

// adminRestockVariant parses the "Variant | Quantity" line typed in the
// editing_quantity state and applies the delta restock.
func (b *Bot) adminRestockVariant(ctx context.Context, ev transport.Event, bag *session.Bag) error {
	if !b.isAdmin(ev.UserID) {
		return nil
	}

	parts := splitFields(ev.Payload)
	if len(parts) != 2 {
		return b.sender.Send(ctx, ev.SessionID, "Invalid format. Use: Variant name | Quantity", nil)
	}
	name, qtyText := parts[0], parts[1]

	quantity, err := strconv.Atoi(qtyText)
	if err != nil {
		return b.sender.Send(ctx, ev.SessionID, "Enter the quantity as a whole number.", nil)
	}
	if quantity < 0 {
		return b.sender.Send(ctx, ev.SessionID, "The quantity cannot be negative.", nil)
	}

	if err := b.stock.UpsertVariant(ctx, bag.ProductID, name, quantity); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
		return err
	}
	return b.sender.Send(ctx, ev.SessionID,
		fmt.Sprintf("Added variant for %s: %s (%d pcs).", bag.ProductName, name, quantity), nil)
}

// adminRenameVariant applies the new name typed in the renaming_variant
// state. A name collision is reported, not raised.
func (b *Bot) adminRenameVariant(ctx context.Context, ev transport.Event, bag *session.Bag) error {
	if !b.isAdmin(ev.UserID) {
		return nil
	}

	newName := strings.TrimSpace(ev.Payload)
	if newName == "" {
		return b.sender.Send(ctx, ev.SessionID, "The name cannot be empty.", nil)
	}

	renamed, err := b.stock.RenameVariant(ctx, bag.VariantID, newName)
	if err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
		return err
	}
	if !renamed {
		return b.sender.Send(ctx, ev.SessionID,
			"Could not rename the variant (is the name already taken?).", nil)
	}
	return b.sender.Send(ctx, ev.SessionID,
		fmt.Sprintf("Renamed variant %q to %q.", bag.OldName, newName), nil)
}

// listPendingOrders shows every order awaiting a decision.
func (b *Bot) listPendingOrders(ctx context.Context, ev transport.Event) error {
	orders, err := b.orders.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return b.sender.Send(ctx, ev.SessionID, "No pending orders.", nil)
	}

	var sb strings.Builder
	sb.WriteString("Pending orders:\n")
	for _, o := range orders {
		fmt.Fprintf(&sb, "ID: %d | %s | %s x%d (%.2f PLN)\n",
			o.ID, o.Username, o.ProductName, o.Quantity, o.TotalPrice)
	}
	return b.sender.Send(ctx, ev.SessionID, sb.String(), nil)
}

// listOrderHistory shows the ten most recently decided orders.
func (b *Bot) listOrderHistory(ctx context.Context, ev transport.Event) error {
	orders, err := b.orders.ListRecentDecided(ctx, 10)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return b.sender.Send(ctx, ev.SessionID, "No order history.", nil)
	}

	var sb strings.Builder
	sb.WriteString("Recent orders:\n\n")
	for _, o := range orders {
		fmt.Fprintf(&sb, "ID: %d | %s\n%s\n%s x%d\n%.2f PLN\n%s\n-------------------\n",
			o.ID, o.Status, o.Username, o.ProductName, o.Quantity, o.TotalPrice, o.DeliveryMethod)
	}
	return b.sender.Send(ctx, ev.SessionID, sb.String(), nil)
}

// listBuyers shows every distinct buyer seen in the order ledger.
func (b *Bot) listBuyers(ctx context.Context, ev transport.Event) error {
	buyers, err := b.orders.ListBuyers(ctx)
	if err != nil {
		return err
	}
	if len(buyers) == 0 {
		return b.sender.Send(ctx, ev.SessionID, "No buyers in the database.", nil)
	}

	var sb strings.Builder
	sb.WriteString("Buyers:\n")
	for _, u := range buyers {
		fmt.Fprintf(&sb, "- %s (ID: %d)\n", u.Username, u.UserID)
	}
	return b.sender.Send(ctx, ev.SessionID, sb.String(), nil)
}

// splitActionID splits an "action:id" token tail.
func splitActionID(rest string) (string, int64, bool) {
	action, idText, found := strings.Cut(rest, ":")
	if !found {
		return "", 0, false
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return action, id, true
}

// splitFields splits "a | b" input into trimmed fields.
func splitFields(text string) []string {
	raw := strings.Split(text, "|")
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		fields = append(fields, strings.TrimSpace(f))
	}
	return fields
}
