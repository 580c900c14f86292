package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dstasiak/shopbot/internal/models"
	"github.com/dstasiak/shopbot/internal/transport"
)

// Notifier is the interface the flows use to emit order events.
// Implementations are best effort: a failed delivery must never abort
// the triggering operation.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderDecided(ctx context.Context, order *models.Order)
}

// SenderNotifier fans order events out through the chat transport: new
// orders go to every registered operator, decisions go back to the
// buyer. Each delivery failure is logged and swallowed per recipient so
// one blocked operator cannot starve the rest.
type SenderNotifier struct {
	sender   transport.Sender
	adminIDs []int64
}

// NewSenderNotifier creates a notifier delivering to the given operator
// ids.
func NewSenderNotifier(sender transport.Sender, adminIDs []int64) *SenderNotifier {
	return &SenderNotifier{sender: sender, adminIDs: adminIDs}
}

// OrderCreated broadcasts a new pending order to all operators with its
// decision controls attached.
func (n *SenderNotifier) OrderCreated(ctx context.Context, order *models.Order) {
	text := fmt.Sprintf(
		"New order #%d\nBuyer: %s\nProduct: %s\nQuantity: %d\nTotal: %.2f PLN\nDetails: %s",
		order.ID, order.Username, order.ProductName, order.Quantity, order.TotalPrice, order.DeliveryMethod,
	)
	choices := []transport.Choice{
		{Label: "Confirm", Token: fmt.Sprintf("order:confirm:%d", order.ID)},
		{Label: "Reject", Token: fmt.Sprintf("order:reject:%d", order.ID)},
	}

	for _, adminID := range n.adminIDs {
		if err := n.sender.Send(ctx, adminID, text, choices); err != nil {
			log.Warn().Err(err).Int64("admin_id", adminID).Int64("order_id", order.ID).
				Msg("failed to notify operator of new order")
		}
	}
}

// OrderDecided tells the buyer the outcome of their order.
func (n *SenderNotifier) OrderDecided(ctx context.Context, order *models.Order) {
	verdict := "confirmed"
	if order.Status == models.OrderStatusRejected {
		verdict = "rejected"
	}
	text := fmt.Sprintf("Your order #%d has been %s.", order.ID, verdict)

	if err := n.sender.Send(ctx, order.UserID, text, nil); err != nil {
		log.Warn().Err(err).Int64("user_id", order.UserID).Int64("order_id", order.ID).
			Msg("failed to notify buyer of order decision")
	}
}

// NopNotifier is a no-op implementation for wiring without operators.
type NopNotifier struct{}

func (NopNotifier) OrderCreated(ctx context.Context, order *models.Order) {}
func (NopNotifier) OrderDecided(ctx context.Context, order *models.Order) {}
