package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Tutter/internal/auth"
)

func newTestIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	issuer, err := auth.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), "tutter-test", time.Hour)
	if err != nil {
		t.Fatalf("failed to create issuer: %v", err)
	}
	return issuer
}

// TestRequireAuth_ValidToken tests that valid tokens are accepted
func TestRequireAuth_ValidToken(t *testing.T) {
	issuer := newTestIssuer(t)
	token, _, err := issuer.Issue("user-123", "ann")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	middleware := NewAuthMiddleware(issuer, nil)

	handlerCalled := false
	handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true

		if id := GetPrincipalID(r); id != "user-123" {
			t.Errorf("expected principal 'user-123', got %s", id)
		}
		claims := GetJWTClaims(r)
		if claims == nil || claims.Username != "ann" {
			t.Errorf("expected claims with username 'ann', got %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !handlerCalled {
		t.Error("handler was not called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

// TestRequireAuth_Rejects tests the 401 paths
func TestRequireAuth_Rejects(t *testing.T) {
	issuer := newTestIssuer(t)
	middleware := NewAuthMiddleware(issuer, nil)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			}))

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON error, got content type %q", ct)
			}
		})
	}
}

// TestSetTestPrincipal tests the test helper
func TestSetTestPrincipal(t *testing.T) {
	ctx := SetTestPrincipal(context.Background(), "user-9")
	if got := GetAuthenticatedPrincipal(ctx); got != "user-9" {
		t.Errorf("expected user-9, got %s", got)
	}
	if got := GetAuthenticatedPrincipal(context.Background()); got != "" {
		t.Errorf("expected empty principal, got %s", got)
	}
}
