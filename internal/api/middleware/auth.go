package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"Tutter/internal/auth"
)

// Context keys for storing principal information
type contextKey string

const (
	PrincipalIDKey contextKey = "principal_id"
	JWTClaimsKey   contextKey = "jwt_claims"
)

// TokenVerifier checks session tokens
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware enforces bearer-token authentication for protected routes
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier TokenVerifier, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// RequireAuth ensures the request carries a valid token.
// Returns 401 otherwise; on success injects the principal id and claims into the context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeAuthError(w, "Missing Authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeAuthError(w, "Invalid Authorization header format. Expected: Bearer <token>")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Info("authentication failed",
				"ip", getClientIP(r), "method", r.Method, "path", r.URL.Path, "error", err)
			writeAuthError(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalIDKey, claims.Subject)
		ctx = context.WithValue(ctx, JWTClaimsKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipalID extracts the principal id from the request context.
// Returns empty string if not authenticated.
func GetPrincipalID(r *http.Request) string {
	return GetAuthenticatedPrincipal(r.Context())
}

// GetAuthenticatedPrincipal extracts the principal id from a context.
// Returns empty string if not authenticated.
func GetAuthenticatedPrincipal(ctx context.Context) string {
	id, _ := ctx.Value(PrincipalIDKey).(string)
	return id
}

// GetJWTClaims extracts the JWT claims from the request context
func GetJWTClaims(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

// SetTestPrincipal sets the principal in the context.
// This function should ONLY be used in tests to mock authenticated users.
func SetTestPrincipal(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, PrincipalIDKey, principalID)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, "AuthenticationRequired", message)
}

func writeJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   errorType,
		"message": message,
	}); err != nil {
		slog.Warn("failed to write error response", "error", err)
	}
}
