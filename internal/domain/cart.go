package domain

import "time"

// CartLine is one product(+variant) entry in a user's cart. Price is the
// unit price in cents captured when the product was added; checkout charges
// this price, not the live one.
type CartLine struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Variant     string    `json:"variant,omitempty"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	AddedAt     time.Time `json:"added_at"`
}

// Cart holds a user's pending lines. A user has at most one cart, created
// lazily on first add; the row outlives checkout, only its lines are cleared.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Lines     []CartLine `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}
