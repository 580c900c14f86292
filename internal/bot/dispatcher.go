package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dstasiak/shopbot/internal/notify"
	"github.com/dstasiak/shopbot/internal/repository"
	"github.com/dstasiak/shopbot/internal/session"
	"github.com/dstasiak/shopbot/internal/transport"
)

// Bot routes inbound events to the checkout or admin state machine
// based on session state and selection-token shape.
type Bot struct {
	stock    *repository.StockRepository
	orders   *repository.OrderRepository
	sessions session.Store
	sender   transport.Sender
	notifier notify.Notifier
	admins   map[int64]struct{}
}

// New constructs a Bot. adminIDs is the static set of privileged
// operator identifiers; it is not managed at runtime.
func New(
	stock *repository.StockRepository,
	orders *repository.OrderRepository,
	sessions session.Store,
	sender transport.Sender,
	notifier notify.Notifier,
	adminIDs []int64,
) *Bot {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Bot{
		stock:    stock,
		orders:   orders,
		sessions: sessions,
		sender:   sender,
		notifier: notifier,
		admins:   admins,
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}

// Dispatch processes one inbound event. Validation problems are
// answered with corrective prompts and return nil; storage errors
// propagate so the transport boundary can drop the event while the
// session keeps its prior state.
func (b *Bot) Dispatch(ctx context.Context, ev transport.Event) error {
	bag, err := b.sessions.Get(ctx, ev.SessionID)
	if err != nil {
		return err
	}

	if ev.Kind == transport.KindSelection {
		return b.dispatchSelection(ctx, ev, bag)
	}
	return b.dispatchText(ctx, ev, bag)
}

// dispatchText routes typed input by the session's current state.
func (b *Bot) dispatchText(ctx context.Context, ev transport.Event, bag *session.Bag) error {
	switch strings.TrimSpace(ev.Payload) {
	case "/start":
		return b.sendMainMenu(ctx, ev)
	case "/help":
		return b.sender.Send(ctx, ev.SessionID,
			"This bot lets you order products.\n"+
				"Buy - browse available products and place an order.\n"+
				"Complaint - report a problem with an order.\n"+
				"My profile - your order statistics (visible after your first confirmed order).",
			nil)
	}

	switch bag.State {
	case StateEnteringQuantity:
		return b.enterQuantity(ctx, ev, bag)
	case StateEnteringAddress:
		return b.enterAddress(ctx, ev, bag)
	case StateEnteringPhone:
		return b.enterPhone(ctx, ev, bag)
	case StateAddingStock:
		return b.adminAddProduct(ctx, ev, bag)
	case StateEditingQuantity:
		return b.adminRestockVariant(ctx, ev, bag)
	case StateRenamingVariant:
		return b.adminRenameVariant(ctx, ev, bag)
	}

	return b.sendMainMenu(ctx, ev)
}

// dispatchSelection routes a selection token. Checkout tokens are only
// honored in their matching state; anything stale gets the explicit
// session-expired reply instead of silent processing.
func (b *Bot) dispatchSelection(ctx context.Context, ev transport.Event, bag *session.Bag) error {
	prefix, rest, _ := strings.Cut(ev.Payload, ":")

	switch prefix {
	case "menu":
		return b.handleMenu(ctx, ev, rest)
	case "cancel":
		if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
			return err
		}
		return b.sendMainMenu(ctx, ev)
	case "admin", "stock", "admin_product", "admin_variant", "order":
		if !b.isAdmin(ev.UserID) {
			return b.sender.Send(ctx, ev.SessionID, "You are not allowed to use the admin panel.", nil)
		}
		return b.dispatchAdminSelection(ctx, ev, bag, prefix, rest)
	}

	// Checkout tokens, guarded by state.
	var requires []string
	switch prefix {
	case "product":
		requires = []string{StateChoosingProduct}
	case "variant":
		// Guarded self-transition: re-selecting a variant is legal while
		// already entering a quantity.
		requires = []string{StateChoosingVariant, StateEnteringQuantity}
	case "delivery":
		requires = []string{StateChoosingDelivery}
	case "shipping":
		requires = []string{StateChoosingShipping}
	case "dpd":
		requires = []string{StateChoosingDPDOption}
	case "pickup_city":
		requires = []string{StateChoosingPickupCity}
	case "payment":
		requires = []string{StateChoosingPayment}
	case "confirm":
		requires = []string{StateConfirmingOrder}
	default:
		log.Debug().Str("token", ev.Payload).Msg("unknown selection token")
		return b.sessionExpired(ctx, ev)
	}

	if !stateIn(bag.State, requires) {
		return b.sessionExpired(ctx, ev)
	}

	switch prefix {
	case "product":
		return b.chooseProduct(ctx, ev, bag, rest)
	case "variant":
		return b.chooseVariant(ctx, ev, bag, rest)
	case "delivery":
		return b.chooseDelivery(ctx, ev, bag, rest)
	case "shipping":
		return b.chooseShipping(ctx, ev, bag, rest)
	case "dpd":
		return b.chooseDPDOption(ctx, ev, bag, rest)
	case "pickup_city":
		return b.choosePickupCity(ctx, ev, bag, rest)
	case "payment":
		return b.choosePayment(ctx, ev, bag, rest)
	default: // confirm
		return b.confirmOrder(ctx, ev, bag, rest)
	}
}

// handleMenu serves the stateless main-menu actions.
func (b *Bot) handleMenu(ctx context.Context, ev transport.Event, action string) error {
	switch action {
	case "buy":
		return b.startOrder(ctx, ev)
	case "profile":
		stats, err := b.orders.BuyerAggregate(ctx, ev.UserID)
		if err != nil {
			return err
		}
		return b.sender.Send(ctx, ev.SessionID,
			formatProfile(stats), nil)
	case "complaint":
		return b.sender.Send(ctx, ev.SessionID, "Please describe your complaint in the chat.", nil)
	case "admin":
		if !b.isAdmin(ev.UserID) {
			return b.sender.Send(ctx, ev.SessionID, "You are not allowed to use the admin panel.", nil)
		}
		if err := b.sessions.Clear(ctx, ev.SessionID); err != nil {
			return err
		}
		return b.sendAdminMenu(ctx, ev)
	default:
		return b.sendMainMenu(ctx, ev)
	}
}

// sendMainMenu shows the top-level menu. The profile entry appears only
// once the buyer has a confirmed order; the admin entry only for
// operators.
func (b *Bot) sendMainMenu(ctx context.Context, ev transport.Event) error {
	choices, err := b.menuChoices(ctx, ev)
	if err != nil {
		return err
	}
	return b.sender.Send(ctx, ev.SessionID, "Pick an option from the menu:", choices)
}

// menuChoices builds the main-menu choice set for this user.
func (b *Bot) menuChoices(ctx context.Context, ev transport.Event) ([]transport.Choice, error) {
	showProfile, err := b.orders.HasAnyConfirmed(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}

	choices := []transport.Choice{
		{Label: "Buy", Token: "menu:buy"},
		{Label: "Complaint", Token: "menu:complaint"},
	}
	if showProfile {
		choices = append(choices, transport.Choice{Label: "My profile", Token: "menu:profile"})
	}
	if b.isAdmin(ev.UserID) {
		choices = append(choices, transport.Choice{Label: "Admin panel", Token: "menu:admin"})
	}
	return choices, nil
}

// sessionExpired answers a token that arrived outside its state. This
// blocks replays from abandoned or completed flows.
func (b *Bot) sessionExpired(ctx context.Context, ev transport.Event) error {
	return b.sender.Send(ctx, ev.SessionID, "Session expired. Pick Buy from the menu to start again.", nil)
}

func stateIn(state string, states []string) bool {
	for _, s := range states {
		if state == s {
			return true
		}
	}
	return false
}
