package routes

import (
	"github.com/go-chi/chi/v5"

	"Tutter/internal/api/handlers/auth"
	"Tutter/internal/core/accounts"
)

// RegisterAuthRoutes registers the public account endpoints
func RegisterAuthRoutes(r chi.Router, service accounts.Service) {
	h := auth.NewHandler(service)

	r.Post("/xrpc/social.tutter.auth.signUp", h.HandleSignUp)
	r.Post("/xrpc/social.tutter.auth.signIn", h.HandleSignIn)
}
