package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"Tutter/internal/api/handlers"
	"Tutter/internal/core/accounts"
)

// Handler serves the account procedures
type Handler struct {
	service accounts.Service
}

// NewHandler creates a new account handler
func NewHandler(service accounts.Service) *Handler {
	return &Handler{service: service}
}

// HandleSignUp creates an account and returns a session
// POST /xrpc/social.tutter.auth.signUp
//
// Request body: { "email": "...", "password": "...", "username": "..." }
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "Method not allowed")
		return
	}

	var req accounts.SignUpRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	resp, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, resp)
}

// HandleSignIn exchanges credentials for a session
// POST /xrpc/social.tutter.auth.signIn
//
// Request body: { "email": "...", "password": "..." }
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "Method not allowed")
		return
	}

	var req accounts.SignInRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	resp, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, resp)
}

func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *accounts.ValidationError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Error())
	case errors.Is(err, accounts.ErrEmailTaken):
		handlers.WriteError(w, http.StatusConflict, "EmailTaken", "An account with this email already exists")
	case errors.Is(err, accounts.ErrInvalidCredentials):
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Invalid email or password")
	default:
		slog.Error("account handler error", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
