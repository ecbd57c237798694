package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/rmarques/storefront/internal/auth"
	"github.com/rmarques/storefront/internal/domain"
	"github.com/rmarques/storefront/internal/messaging"
)

var meter = otel.Meter("orders")

type Handler struct {
	repo            *Repository
	producer        *messaging.Producer
	restockOnCancel bool
	logger          *slog.Logger
	ordersPlaced    metric.Int64Counter
}

func NewHandler(repo *Repository, producer *messaging.Producer, restockOnCancel bool, logger *slog.Logger) *Handler {
	ordersPlaced, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders committed at checkout"))
	if err != nil {
		otel.Handle(err)
	}
	return &Handler{
		repo:            repo,
		producer:        producer,
		restockOnCancel: restockOnCancel,
		logger:          logger,
		ordersPlaced:    ordersPlaced,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authorization token required")
		return
	}

	order, err := h.repo.PlaceOrder(r.Context(), identity.UserID)
	if err != nil {
		var stockErr *InsufficientStockError
		switch {
		case errors.Is(err, ErrCartEmpty):
			h.writeError(w, http.StatusBadRequest, "cart is empty")
		case errors.As(err, &stockErr):
			h.logger.Info("checkout rejected", "user_id", identity.UserID, "product_id", stockErr.ProductID)
			h.writeError(w, http.StatusBadRequest, stockErr.Error())
		default:
			h.logger.Error("failed to place order", "error", err, "user_id", identity.UserID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if h.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:  order.ID,
			UserID:   order.UserID,
			Email:    identity.Email,
			Lines:    order.Lines,
			Total:    order.Total,
			PlacedAt: order.CreatedAt,
		}
		if err := h.producer.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	h.ordersPlaced.Add(r.Context(), 1)
	h.logger.Info("order placed", "order_id", order.ID, "user_id", order.UserID, "total", order.Total)
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "order placed successfully",
		"order_id": order.ID,
		"order":    order,
	})
}

func (h *Handler) HandleListOwn(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authorization token required")
		return
	}

	orders, err := h.repo.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", identity.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

// HandleGet serves order detail to the owner or an admin. Anyone else gets
// not-found whether the order exists or not.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authorization token required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil || (identity.Role != domain.RoleAdmin && order.UserID != identity.UserID) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authorization token required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.repo.Cancel(r.Context(), id, identity.UserID, h.restockOnCancel); err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, ErrNotCancellable):
			h.writeError(w, http.StatusBadRequest, "only pending orders can be cancelled")
		default:
			h.logger.Error("failed to cancel order", "error", err, "order_id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("order cancelled", "order_id", id, "user_id", identity.UserID)
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
