package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rmarques/storefront/internal/domain"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID string
	Email  string
	Role   domain.Role
}

type identityKey struct{}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithIdentity returns a context carrying the authenticated caller.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Verifier checks a bearer credential and returns its claims, failing with
// ErrTokenExpired or ErrTokenInvalid.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// Directory maps a verified email to a registered user. A nil user with a
// nil error means "not registered".
type Directory interface {
	ByEmail(ctx context.Context, email string) (*domain.User, error)
}

type Middleware struct {
	verifier  Verifier
	directory Directory
	logger    *slog.Logger
}

func NewMiddleware(verifier Verifier, directory Directory, logger *slog.Logger) *Middleware {
	return &Middleware{
		verifier:  verifier,
		directory: directory,
		logger:    logger,
	}
}

func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			m.writeError(w, http.StatusUnauthorized, "authorization token required")
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				m.writeError(w, http.StatusUnauthorized, "token expired")
				return
			}
			m.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := m.directory.ByEmail(r.Context(), claims.Email)
		if err != nil {
			m.logger.Error("failed to look up user", "error", err, "email", claims.Email)
			m.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if user == nil {
			m.writeError(w, http.StatusForbidden, "user not registered")
			return
		}

		identity := Identity{UserID: user.ID, Email: user.Email, Role: user.Role}
		next(w, r.WithContext(WithIdentity(r.Context(), identity)))
	}
}

func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok || identity.Role != domain.RoleAdmin {
			m.writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	})
}

func (m *Middleware) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		m.logger.Error("failed to encode error response", "error", err)
	}
}
