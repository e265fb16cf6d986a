package store

import (
	"encoding/json"
	"net/http"

	"Tutter/internal/api/handlers"
	"Tutter/internal/api/middleware"
	"Tutter/internal/core/docstore"
	"Tutter/internal/core/documents"
)

// QueryResponse lists documents in store order
type QueryResponse struct {
	Documents []docstore.Document `json:"documents"`
}

// QueryHandler handles collection queries
type QueryHandler struct {
	service documents.Service
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(service documents.Service) *QueryHandler {
	return &QueryHandler{service: service}
}

// HandleQuery lists documents of a collection
// GET /xrpc/social.tutter.store.query?collection=posts&filter={"liked":true}
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if collection == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "collection is required")
		return
	}

	var filter docstore.Filter
	if raw := r.URL.Query().Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "filter must be a JSON object")
			return
		}
	}

	docs, err := h.service.Query(r.Context(), middleware.GetPrincipalID(r), collection, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, QueryResponse{Documents: docs})
}
