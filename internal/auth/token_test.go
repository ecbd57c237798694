package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/rmarques/storefront/internal/domain"
)

func TestTokenIssuer(t *testing.T) {
	user := &domain.User{
		ID:    "user-1",
		Email: "buyer@example.com",
		Role:  domain.RoleUser,
	}

	t.Run("round trip preserves identity claims", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", time.Hour)

		token, err := issuer.Issue(user)
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			t.Fatalf("failed to verify token: %v", err)
		}
		if claims.Subject != "user-1" {
			t.Errorf("expected subject user-1, got %s", claims.Subject)
		}
		if claims.Email != "buyer@example.com" {
			t.Errorf("expected email buyer@example.com, got %s", claims.Email)
		}
		if claims.Role != domain.RoleUser {
			t.Errorf("expected role user, got %s", claims.Role)
		}
	})

	t.Run("expired token fails distinctly", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", -time.Minute)

		token, err := issuer.Issue(user)
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		_, err = issuer.Verify(token)
		if !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("token signed with another secret is invalid", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", time.Hour)
		other := NewTokenIssuer("other-secret", time.Hour)

		token, err := other.Issue(user)
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		_, err = issuer.Verify(token)
		if !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("garbage token is invalid", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", time.Hour)

		_, err := issuer.Verify("not.a.token")
		if !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("token with unknown role is invalid", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", time.Hour)

		token, err := issuer.Issue(&domain.User{ID: "u", Email: "e@example.com", Role: "root"})
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		_, err = issuer.Verify(token)
		if !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})
}
