package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rmarques/storefront/internal/domain"
)

// Sender delivers a plain-text email.
type Sender interface {
	Send(to, subject, body string) error
}

// NotificationHandler consumes order.placed events and mails the buyer a
// confirmation.
type NotificationHandler struct {
	sender Sender
	logger *slog.Logger
}

func NewNotificationHandler(sender Sender, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		sender: sender,
		logger: logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	subject := fmt.Sprintf("Order confirmation #%s", event.OrderID)
	if err := h.sender.Send(event.Email, subject, confirmationBody(event)); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("confirmation email sent", "order_id", event.OrderID, "to", event.Email)
	return nil
}

func confirmationBody(event domain.OrderPlacedEvent) string {
	var b strings.Builder
	b.WriteString("Thanks for your order!\n\n")
	for _, line := range event.Lines {
		fmt.Fprintf(&b, "  %dx %s: %s\n", line.Quantity, line.ProductName, formatCents(line.Price*int64(line.Quantity)))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", formatCents(event.Total))
	return b.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
