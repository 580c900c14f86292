package session

import "context"

// Bag is the working memory of one conversation: the in-progress
// selections carried between steps of the checkout or admin flow. It is
// not a source of truth for anything committed; only ledger rows are.
type Bag struct {
	State string `json:"state,omitempty"`

	// Checkout selections.
	ProductID      int64   `json:"productId,omitempty"`
	ProductName    string  `json:"productName,omitempty"`
	Price          float64 `json:"price,omitempty"`
	VariantID      int64   `json:"variantId,omitempty"`
	VariantName    string  `json:"variantName,omitempty"`
	MaxQuantity    int     `json:"maxQuantity,omitempty"`
	Quantity       int     `json:"quantity,omitempty"`
	DeliveryType   string  `json:"deliveryType,omitempty"`
	ShippingMethod string  `json:"shippingMethod,omitempty"`
	ShippingCost   float64 `json:"shippingCost,omitempty"`
	Address        string  `json:"address,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	PaymentMethod  string  `json:"paymentMethod,omitempty"`

	// Admin flow selections.
	OldName string `json:"oldName,omitempty"`
}

// Store persists session working memory keyed by session id. Get returns
// an empty bag for unknown sessions.
type Store interface {
	Get(ctx context.Context, sessionID int64) (*Bag, error)
	Set(ctx context.Context, sessionID int64, bag *Bag) error
	Clear(ctx context.Context, sessionID int64) error
}
