package models

import "time"

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusRejected  OrderStatus = "rejected"
)

// Order is a committed purchase. It is created pending after stock has
// been reserved and transitions exactly once to confirmed or rejected.
type Order struct {
	ID          int64       `db:"id" json:"id"`
	UserID      int64       `db:"user_id" json:"userId"`
	Username    string      `db:"username" json:"username"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int         `db:"quantity" json:"quantity"`
	TotalPrice  float64     `db:"total_price" json:"totalPrice"`
	// DeliveryMethod is the assembled delivery detail line: method,
	// carrier, address, phone and payment as one display string.
	DeliveryMethod string      `db:"delivery_method" json:"deliveryMethod"`
	Address        *string     `db:"address" json:"address,omitempty"`
	Status         OrderStatus `db:"status" json:"status"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
}

// BuyerStats aggregates a buyer's confirmed orders.
type BuyerStats struct {
	TotalQuantity int     `db:"total_qty" json:"totalQuantity"`
	TotalSpend    float64 `db:"total_spend" json:"totalSpend"`
}

// Buyer is a distinct buyer seen in the order ledger.
type Buyer struct {
	Username string `db:"username" json:"username"`
	UserID   int64  `db:"user_id" json:"userId"`
}
