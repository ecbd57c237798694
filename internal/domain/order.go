package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus maps a wire value onto the canonical status set. The
// second return is false for anything outside the five known statuses.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// OrderLine is the immutable copy of a cart line captured at checkout.
// Price is the unit price in cents when the line entered the cart, decoupled
// from later product price edits.
type OrderLine struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	ProductImage string `json:"product_image,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        int64  `json:"price"`
}

type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Lines          []OrderLine `json:"lines"`
	Total          int64       `json:"total"`
	Status         OrderStatus `json:"status"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// AdminOrder is an order header joined with its owner's identity, as shown
// on the administrative listing.
type AdminOrder struct {
	Order
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
