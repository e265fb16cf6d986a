package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Tutter/internal/api/handlers/store"
	"Tutter/internal/api/middleware"
	"Tutter/internal/core/changes"
	"Tutter/internal/core/documents"
)

// RegisterStoreRoutes registers document store XRPC endpoints.
// Every store endpoint requires a session token.
func RegisterStoreRoutes(r chi.Router, service documents.Service, hub *changes.Hub, authMiddleware *middleware.AuthMiddleware, checkOrigin func(*http.Request) bool, logger *slog.Logger) {
	query := store.NewQueryHandler(service)
	get := store.NewGetDocumentHandler(service)
	write := store.NewWriteDocumentHandler(service)
	subscribe := store.NewSubscribeHandler(hub, checkOrigin, logger)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Get("/xrpc/social.tutter.store.query", query.HandleQuery)
		r.Get("/xrpc/social.tutter.store.getDocument", get.HandleGetDocument)
		r.Post("/xrpc/social.tutter.store.createDocument", write.HandleCreateDocument)
		r.Post("/xrpc/social.tutter.store.updateDocument", write.HandleUpdateDocument)
		r.Post("/xrpc/social.tutter.store.deleteDocument", write.HandleDeleteDocument)
		r.Get("/xrpc/social.tutter.store.subscribe", subscribe.HandleSubscribe)
	})
}
