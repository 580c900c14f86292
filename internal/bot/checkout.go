package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dstasiak/shopbot/internal/models"
	"github.com/dstasiak/shopbot/internal/repository"
	"github.com/dstasiak/shopbot/internal/session"
	"github.com/dstasiak/shopbot/internal/transport"
)

// startOrder opens the checkout flow with the live purchasable listing.
func (b *Bot) startOrder(ctx context.Context, ev transport.Event) error {
	products, err := b.stock.ListPurchasable(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return b.sender.Send(ctx, ev.SessionID, "No products available.", nil)
	}

	bag := &session.Bag{State: StateChoosingProduct}
	if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
		return err
	}

	choices := make([]transport.Choice, 0, len(products)+1)
	for _, p := range products {
		choices = append(choices, transport.Choice{
			Label: fmt.Sprintf("%s (%.2f PLN)", p.Name, p.Price),
			Token: fmt.Sprintf("product:%d", p.ID),
		})
	}
	choices = append(choices, transport.Choice{Label: "Cancel", Token: "cancel"})
	return b.sender.Send(ctx, ev.SessionID, "Pick a product:", choices)
}

// chooseProduct records the product selection and presents its live
// variant availability.
func (b *Bot) chooseProduct(ctx context.Context, ev transport.Event, bag *session.Bag, rest string) error {
	productID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return b.sessionExpired(ctx, ev)
	}

	product, err := b.stock.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sender.Send(ctx, ev.SessionID, "This product no longer exists.", nil)
	}
	if err != nil {
		return err
	}

	variants, err := b.stock.ListVariants(ctx, productID)
	if err != nil {
		return err
	}
	if len(variants) == 0 {
		return b.sender.Send(ctx, ev.SessionID, "No variants available for this product.", nil)
	}

	bag.ProductID = product.ID
	bag.ProductName = product.Name
	bag.Price = product.Price
	bag.State = StateChoosingVariant
	if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
		return err
	}

	choices := make([]transport.Choice, 0, len(variants)+1)
	for _, v := range variants {
		choices = append(choices, transport.Choice{
			Label: fmt.Sprintf("%s (%d)", v.Name, v.Quantity),
			Token: fmt.Sprintf("variant:%d", v.ID),
		})
	}
	choices = append(choices, transport.Choice{Label: "Cancel", Token: "cancel"})
	return b.sender.Send(ctx, ev.SessionID,
		fmt.Sprintf("Selected: %s\nNow pick a variant (stock in brackets):", product.Name), choices)
}

// chooseVariant validates the selection against current availability,
// not against whatever listing the menu was built from. It also serves
// the guarded self-transition out of the quantity state: re-picking a
// variant there just swaps the selection.
func (b *Bot) chooseVariant(ctx context.Context, ev transport.Event, bag *session.Bag, rest string) error {
	variantID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return b.sessionExpired(ctx, ev)
	}

	variant, err := b.stock.GetVariant(ctx, variantID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if variant == nil || variant.ProductID != bag.ProductID || variant.Quantity <= 0 {
		return b.sender.Send(ctx, ev.SessionID, "Pick a variant from the menu.", nil)
	}

	changed := bag.State == StateEnteringQuantity
	bag.VariantID = variant.ID
	bag.VariantName = variant.Name
	bag.MaxQuantity = variant.Quantity
	bag.State = StateEnteringQuantity
	if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
		return err
	}

	prefix := "Selected"
	if changed {
		prefix = "Changed to"
	}
	return b.sender.Send(ctx, ev.SessionID,
		fmt.Sprintf("%s: %s - %s\nEnter a quantity (available: %d):", prefix, bag.ProductName, variant.Name, variant.Quantity), nil)
}

// enterQuantity validates the typed quantity. The stock check here is
// advisory only; the authoritative check is the reservation at
// finalization.
func (b *Bot) enterQuantity(ctx context.Context, ev transport.Event, bag *session.Bag) error {
	text := strings.TrimSpace(ev.Payload)

	quantity, err := strconv.Atoi(text)
	if err != nil {
		return b.sender.Send(ctx, ev.SessionID, "Enter a whole number.", nil)
	}
	if quantity < 1 {
		return b.sender.Send(ctx, ev.SessionID, "Quantity must be greater than zero.", nil)
	}

	variant, err := b.stock.GetVariant(ctx, bag.VariantID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if variant == nil || variant.Quantity < quantity {
		available := 0
		if variant != nil {
			available = variant.Quantity
		}
		return b.sender.Send(ctx, ev.SessionID,
			fmt.Sprintf("Not enough stock (available: %d).", available), nil)
	}

	bag.Quantity = quantity
	bag.State = StateChoosingDelivery
	if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
		return err
	}

	return b.sender.Send(ctx, ev.SessionID, "Pick a delivery method:", []transport.Choice{
		{Label: "Personal pickup", Token: "delivery:pickup"},
		{Label: "Shipping", Token: "delivery:ship"},
	})
}

// chooseDelivery branches the flow into the pickup or shipping leg.
func (b *Bot) chooseDelivery(ctx context.Context, ev transport.Event, bag *session.Bag, rest string) error {
	switch rest {
	case "ship":
		bag.DeliveryType = "ship"
		bag.State = StateChoosingShipping
		if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
			return err
		}
		return b.sender.Send(ctx, ev.SessionID, "Pick a carrier:", []transport.Choice{
			{Label: "DPD", Token: "shipping:DPD"},
			{Label: fmt.Sprintf("InPost (+%.0f PLN)", SurchargeInPost), Token: "shipping:InPost"},
		})
	case "pickup":
		bag.DeliveryType = "pickup"
		bag.State = StateChoosingPickupCity
		if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
			return err
		}
		return b.sender.Send(ctx, ev.SessionID, "Pick a pickup city:", []transport.Choice{
			{Label: "Warszawa", Token: "pickup_city:Warszawa"},
		})
	default:
		return b.sessionExpired(ctx, ev)
	}
}

// choosePickupCity closes the pickup leg: no surcharge, no carrier, and
// cash remains on the table.
func (b *Bot) choosePickupCity(ctx context.Context, ev transport.Event, bag *session.Bag, rest string) error {
	if rest == "" {
		return b.sessionExpired(ctx, ev)
	}

	bag.ShippingMethod = ""
	bag.ShippingCost = 0
	bag.Address = "Pickup: " + rest
	bag.State = StateChoosingPayment
	if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
		return err
	}
	return b.sender.Send(ctx, ev.SessionID, "Pick a payment method:", paymentChoices(true))
}

// chooseShipping picks a carrier. DPD has its own sub-options; InPost
// carries one flat surcharge.
func (b *Bot) chooseShipping(ctx context.Context, ev transport.Event, bag *session.Bag, rest string) error {
	switch rest {
	case "DPD":
		bag.State = StateChoosingDPDOption
		if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
			return err
		}
		return b.sender.Send(ctx, ev.SessionID, "Pick a DPD delivery option:", []transport.Choice{
			{Label: fmt.Sprintf("To a point (+%.0f PLN)", SurchargeDPDPoint), Token: "dpd:point"},
			{Label: fmt.Sprintf("To a locker (+%.0f PLN)", SurchargeDPDLocker), Token: "dpd:locker"},
		})
	case "InPost":
		bag.ShippingMethod = "InPost"
		bag.ShippingCost = SurchargeInPost
		bag.State = StateEnteringAddress
		if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
			return err
		}
		return b.sender.Send(ctx, ev.SessionID, "Enter the delivery address (locker, street, etc.):", nil)
	default:
		return b.sessionExpired(ctx, ev)
	}
}

// chooseDPDOption resolves the two DPD surcharges.
func (b *Bot) chooseDPDOption(ctx context.Context, ev transport.Event, bag *session.Bag, rest string) error {
	switch rest {
	case "point":
		bag.ShippingMethod = "DPD Point"
		bag.ShippingCost = SurchargeDPDPoint
	case "locker":
		bag.ShippingMethod = "DPD Locker"
		bag.ShippingCost = SurchargeDPDLocker
	default:
		return b.sessionExpired(ctx, ev)
	}

	bag.State = StateEnteringAddress
	if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
		return err
	}
	return b.sender.Send(ctx, ev.SessionID, "Enter the delivery address (point/locker, city):", nil)
}

// enterAddress validates the free-text delivery address.
func (b *Bot) enterAddress(ctx context.Context, ev transport.Event, bag *session.Bag) error {
	address := strings.TrimSpace(ev.Payload)
	if len(address) < 5 {
		return b.sender.Send(ctx, ev.SessionID, "The address is too short.", nil)
	}

	bag.Address = address
	bag.State = StateEnteringPhone
	if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
		return err
	}
	return b.sender.Send(ctx, ev.SessionID, "Enter a phone number for the courier (e.g. 123456789):", nil)
}

// enterPhone validates the courier phone number. Shipping flows force
// electronic payment afterwards; cash travels only by pickup.
func (b *Bot) enterPhone(ctx context.Context, ev transport.Event, bag *session.Bag) error {
	phone := strings.TrimSpace(ev.Payload)
	if len(phone) < 9 {
		return b.sender.Send(ctx, ev.SessionID, "That phone number does not look right. Try again.", nil)
	}

	bag.Phone = phone
	bag.State = StateChoosingPayment
	if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
		return err
	}
	return b.sender.Send(ctx, ev.SessionID, "Pick a payment method:", paymentChoices(false))
}

// choosePayment records the payment method and shows the confirmation
// summary in place of the previous message.
func (b *Bot) choosePayment(ctx context.Context, ev transport.Event, bag *session.Bag, rest string) error {
	switch rest {
	case "BLIK":
	case "Cash":
		// The shipping leg never offers cash; a cash token here is a
		// replayed button.
		if bag.DeliveryType != "pickup" {
			return b.sender.Send(ctx, ev.SessionID, "Pick a payment method from the menu.", nil)
		}
	default:
		return b.sessionExpired(ctx, ev)
	}

	bag.PaymentMethod = rest
	bag.State = StateConfirmingOrder
	if err := b.sessions.Set(ctx, ev.SessionID, bag); err != nil {
		return err
	}

	return b.sender.EditLast(ctx, ev.SessionID, orderSummary(bag), []transport.Choice{
		{Label: "Yes", Token: "confirm:yes"},
		{Label: "No", Token: "confirm:no"},
		{Label: "Cancel the order", Token: "confirm:cancel"},
	})
}

// confirmOrder handles the three exits of the confirmation state:
// finalize, restart because the data is wrong, or cancel outright.
func (b *Bot) confirmOrder(ctx context.Context, ev transport.Event, bag *session.Bag, rest string) error {
	switch rest {
	case "yes":
		return b.finalizeOrder(ctx, ev, bag)
	case "no":
		if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
			return err
		}
		return b.sender.EditLast(ctx, ev.SessionID,
			"Understood, the data is wrong. Let's start over.\nSend /start to begin.", nil)
	case "cancel":
		if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
			return err
		}
		return b.sender.EditLast(ctx, ev.SessionID, "The order has been cancelled.", nil)
	default:
		return b.sessionExpired(ctx, ev)
	}
}

// finalizeOrder is the one place stock is committed. The reservation is
// the authoritative check; when it fails nothing is recorded and the
// buyer must restart.
func (b *Bot) finalizeOrder(ctx context.Context, ev transport.Event, bag *session.Bag) error {
	variant, err := b.stock.GetVariant(ctx, bag.VariantID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if variant == nil || variant.Quantity < bag.Quantity {
		if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
			return err
		}
		return b.sender.EditLast(ctx, ev.SessionID,
			"Unfortunately this variant sold out in the meantime.", nil)
	}

	reserved, err := b.stock.Reserve(ctx, bag.VariantID, bag.Quantity)
	if err != nil {
		return err
	}
	if !reserved {
		// Lost the race for the last units; no order, no stock mutation.
		if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
			return err
		}
		return b.sender.EditLast(ctx, ev.SessionID,
			"Unfortunately this variant sold out in the meantime.", nil)
	}

	total := orderTotal(bag.Quantity, bag.Price, bag.ShippingCost)
	description := fmt.Sprintf("%s (%s)", bag.ProductName, bag.VariantName)

	var address *string
	if bag.Address != "" {
		address = &bag.Address
	}
	orderID, err := b.orders.Create(ctx,
		ev.UserID, buyerName(ev), description, bag.Quantity, total, deliveryDetail(bag), address)
	if err != nil {
		return err
	}

	order, err := b.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	b.notifier.OrderCreated(ctx, order)

	if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
		return err
	}

	menu, err := b.menuChoices(ctx, ev)
	if err != nil {
		log.Warn().Err(err).Int64("session_id", ev.SessionID).Msg("failed to build menu for receipt")
		menu = nil
	}
	return b.sender.EditLast(ctx, ev.SessionID,
		fmt.Sprintf("Order accepted (ID: %d)!\nProduct: %s\nQuantity: %d\nTo pay: %.2f PLN\n\nWait for an administrator to confirm.",
			orderID, description, bag.Quantity, total),
		menu)
}

// paymentChoices offers BLIK always and cash only when no shipping
// address was required.
func paymentChoices(allowCash bool) []transport.Choice {
	choices := []transport.Choice{{Label: "BLIK", Token: "payment:BLIK"}}
	if allowCash {
		choices = append(choices, transport.Choice{Label: "Cash", Token: "payment:Cash"})
	}
	return choices
}

// orderSummary renders the confirmation summary from the working memory.
func orderSummary(bag *session.Bag) string {
	total := orderTotal(bag.Quantity, bag.Price, bag.ShippingCost)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Order summary\n\nProduct: %s (%s)\nQuantity: %d\nDelivery: %s",
		bag.ProductName, bag.VariantName, bag.Quantity, bag.DeliveryType)
	if bag.ShippingMethod != "" {
		fmt.Fprintf(&sb, " (%s)", bag.ShippingMethod)
	}
	fmt.Fprintf(&sb, "\nTotal: %.2f PLN\n", total)
	if bag.Address != "" {
		fmt.Fprintf(&sb, "Address: %s\n", bag.Address)
	}
	if bag.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", bag.Phone)
	}
	fmt.Fprintf(&sb, "Payment: %s\n\nIs everything correct?", bag.PaymentMethod)
	return sb.String()
}

// deliveryDetail assembles the free-form delivery line stored with the
// order.
func deliveryDetail(bag *session.Bag) string {
	detail := "Delivery: " + bag.DeliveryType
	if bag.ShippingMethod != "" {
		detail += ", Carrier: " + bag.ShippingMethod
	}
	if bag.Address != "" {
		detail += ", Address: " + bag.Address
	}
	if bag.Phone != "" {
		detail += ", Phone: " + bag.Phone
	}
	if bag.PaymentMethod != "" {
		detail += ", Payment: " + bag.PaymentMethod
	}
	return detail
}

// formatProfile renders the buyer's confirmed-order statistics.
func formatProfile(stats models.BuyerStats) string {
	return fmt.Sprintf("Your profile:\nItems bought: %d\nTotal spent: %.2f PLN",
		stats.TotalQuantity, stats.TotalSpend)
}

// buyerName composes the display name stored with orders.
func buyerName(ev transport.Event) string {
	username := ev.Username
	if username == "" {
		username = "-"
	}
	return fmt.Sprintf("%s (@%s)", ev.FullName, username)
}
