package models

// Product is a catalog entry. Stock is not stored on the product itself;
// it is the sum of the product's variant quantities.
type Product struct {
	ID    int64   `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Price float64 `db:"price" json:"price"`

	// TotalQuantity is the aggregate over variants, populated by listing
	// queries only.
	TotalQuantity int `db:"total_qty" json:"totalQuantity"`
}

// Variant is one orderable option of a product with its own stock count.
// The (ProductID, Name) pair is unique.
type Variant struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"productId"`
	Name      string `db:"name" json:"name"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// VariantDetail is a variant joined with its owning product, as needed by
// the checkout flow when re-validating a selection.
type VariantDetail struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Quantity    int     `db:"quantity" json:"quantity"`
	ProductID   int64   `db:"product_id" json:"productId"`
	ProductName string  `db:"product_name" json:"productName"`
	Price       float64 `db:"price" json:"price"`
}
