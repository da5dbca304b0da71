//go:build !integration

package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthManager(t *testing.T) {
	am := NewAuthManager(testSecret, time.Minute)

	tok, err := am.Mint("user-1", "u1@example.com")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	t.Run("bearer round trip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer "+tok)
		claims, err := am.ParseFromRequest(req)
		if err != nil {
			t.Fatalf("ParseFromRequest: %v", err)
		}
		if claims.Subject != "user-1" || claims.Email != "u1@example.com" {
			t.Fatalf("claims = %+v", claims)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, err := am.ParseFromRequest(req); !errors.Is(err, ErrMissingToken) {
			t.Fatalf("got %v, want ErrMissingToken", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthManager("another-secret", time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if _, err := other.ParseFromRequest(req); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("got %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		late := NewAuthManager(testSecret, time.Minute)
		late.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if _, err := late.ParseFromRequest(req); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("got %v, want ErrInvalidToken", err)
		}
	})

	t.Run("unsigned token", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
		s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign none: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+s)
		if _, err := am.ParseFromRequest(req); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("got %v, want ErrInvalidToken", err)
		}
	})
}
