package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rmarques/storefront/internal/domain"
)

type stubVerifier struct {
	claims *Claims
	err    error
}

func (s *stubVerifier) Verify(string) (*Claims, error) {
	return s.claims, s.err
}

type stubDirectory struct {
	user *domain.User
	err  error
}

func (s *stubDirectory) ByEmail(context.Context, string) (*domain.User, error) {
	return s.user, s.err
}

func newTestMiddleware(verifier Verifier, directory Directory) *Middleware {
	return NewMiddleware(verifier, directory, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMiddleware_Authenticate(t *testing.T) {
	registered := &domain.User{ID: "user-1", Email: "buyer@example.com", Role: domain.RoleUser}
	claims := &Claims{Email: "buyer@example.com", Role: domain.RoleUser}

	t.Run("rejects request without bearer token", func(t *testing.T) {
		mw := newTestMiddleware(&stubVerifier{claims: claims}, &stubDirectory{user: registered})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		rec := httptest.NewRecorder()

		mw.Authenticate(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler should not run")
		})(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("distinguishes expired from invalid", func(t *testing.T) {
		mw := newTestMiddleware(&stubVerifier{err: ErrTokenExpired}, &stubDirectory{user: registered})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rec := httptest.NewRecorder()

		mw.Authenticate(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler should not run")
		})(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "token expired" {
			t.Errorf("expected 'token expired', got %q", resp["error"])
		}
	})

	t.Run("rejects verified identity that is not registered", func(t *testing.T) {
		mw := newTestMiddleware(&stubVerifier{claims: claims}, &stubDirectory{user: nil})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()

		mw.Authenticate(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler should not run")
		})(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", rec.Code)
		}
	})

	t.Run("attaches identity from the directory", func(t *testing.T) {
		mw := newTestMiddleware(&stubVerifier{claims: claims}, &stubDirectory{user: registered})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()

		var got Identity
		mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
			got, _ = IdentityFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		})(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if got.UserID != "user-1" || got.Role != domain.RoleUser {
			t.Errorf("unexpected identity: %+v", got)
		}
	})
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	t.Run("forbids non-admin callers", func(t *testing.T) {
		user := &domain.User{ID: "user-1", Email: "buyer@example.com", Role: domain.RoleUser}
		mw := newTestMiddleware(
			&stubVerifier{claims: &Claims{Email: user.Email, Role: user.Role}},
			&stubDirectory{user: user},
		)

		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()

		mw.RequireAdmin(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler should not run")
		})(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", rec.Code)
		}
	})

	t.Run("admits admins", func(t *testing.T) {
		admin := &domain.User{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
		mw := newTestMiddleware(
			&stubVerifier{claims: &Claims{Email: admin.Email, Role: admin.Role}},
			&stubDirectory{user: admin},
		)

		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()

		called := false
		mw.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})(rec, req)

		if !called {
			t.Fatal("expected handler to run")
		}
	})
}
