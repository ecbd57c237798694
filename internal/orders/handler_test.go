package orders

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rmarques/storefront/internal/auth"
	"github.com/rmarques/storefront/internal/domain"
)

func newTestHandler() *Handler {
	return NewHandler(nil, nil, false, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func asUser(r *http.Request) *http.Request {
	identity := auth.Identity{UserID: "user-1", Email: "buyer@example.com", Role: domain.RoleUser}
	return r.WithContext(auth.WithIdentity(r.Context(), identity))
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("rejects unauthenticated request", func(t *testing.T) {
		handler := newTestHandler()

		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleGet(t *testing.T) {
	t.Run("rejects missing order id", func(t *testing.T) {
		handler := newTestHandler()

		req := asUser(httptest.NewRequest(http.MethodGet, "/orders/", nil))
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleCancel(t *testing.T) {
	t.Run("rejects missing order id", func(t *testing.T) {
		handler := newTestHandler()

		req := asUser(httptest.NewRequest(http.MethodPatch, "/orders//cancel", nil))
		rec := httptest.NewRecorder()

		handler.HandleCancel(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleUpdateStatus(t *testing.T) {
	t.Run("rejects status outside the canonical set", func(t *testing.T) {
		handler := newTestHandler()

		mux := http.NewServeMux()
		mux.HandleFunc("PATCH /admin/orders/{id}", handler.HandleUpdateStatus)

		body := `{"status": "returned"}`
		req := httptest.NewRequest(http.MethodPatch, "/admin/orders/order-1", strings.NewReader(body))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "invalid status" {
			t.Errorf("expected 'invalid status', got %q", resp["error"])
		}
	})

	t.Run("rejects invalid body", func(t *testing.T) {
		handler := newTestHandler()

		mux := http.NewServeMux()
		mux.HandleFunc("PATCH /admin/orders/{id}", handler.HandleUpdateStatus)

		req := httptest.NewRequest(http.MethodPatch, "/admin/orders/order-1", strings.NewReader("{"))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}
