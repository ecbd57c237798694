package domain

import "time"

// OrderPlacedEvent is published after a checkout commits. Email is captured
// from the authenticated identity so the notification worker does not need
// a user-directory round trip.
type OrderPlacedEvent struct {
	OrderID  string      `json:"order_id"`
	UserID   string      `json:"user_id"`
	Email    string      `json:"email"`
	Lines    []OrderLine `json:"lines"`
	Total    int64       `json:"total"`
	PlacedAt time.Time   `json:"placed_at"`
}
