package remote

import (
	"errors"
	"fmt"
	"net/http"

	"Tutter/internal/core/docstore"
)

// Typed errors for server responses that have no docstore equivalent.
// NotFound and Conflict map to docstore.ErrNotFound and docstore.ErrConflict.
var (
	// ErrUnauthorized indicates a missing, invalid or expired token (HTTP 401)
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the principal may not perform the operation (HTTP 403)
	ErrForbidden = errors.New("forbidden")

	// ErrBadRequest indicates the request was rejected as invalid (HTTP 400)
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited indicates too many requests (HTTP 429)
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a non-2xx XRPC response
type APIError struct {
	Name       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Name, e.Message)
}

// IsAuthError returns true if re-authenticating might help
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// wrapAPIError maps an HTTP failure to the typed errors callers check with errors.Is
func wrapAPIError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest:
			return fmt.Errorf("%s: %w: %s", operation, ErrBadRequest, apiErr.Message)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: %s", operation, ErrUnauthorized, apiErr.Message)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w: %s", operation, ErrForbidden, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %s", operation, docstore.ErrNotFound, apiErr.Message)
		case http.StatusConflict:
			return fmt.Errorf("%s: %w: %s", operation, docstore.ErrConflict, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w: %w: %s", operation, docstore.ErrUnavailable, ErrRateLimited, apiErr.Message)
		}
	}

	// Server errors, timeouts and transport failures
	return fmt.Errorf("%s failed: %w: %w", operation, docstore.ErrUnavailable, err)
}
