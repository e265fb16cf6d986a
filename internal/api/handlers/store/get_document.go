package store

import (
	"net/http"

	"Tutter/internal/api/handlers"
	"Tutter/internal/api/middleware"
	"Tutter/internal/core/documents"
)

// GetDocumentHandler handles single-document reads
type GetDocumentHandler struct {
	service documents.Service
}

// NewGetDocumentHandler creates a new get document handler
func NewGetDocumentHandler(service documents.Service) *GetDocumentHandler {
	return &GetDocumentHandler{service: service}
}

// HandleGetDocument returns one document
// GET /xrpc/social.tutter.store.getDocument?collection=posts&id=...
func (h *GetDocumentHandler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	id := r.URL.Query().Get("id")
	if collection == "" || id == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "collection and id are required")
		return
	}

	doc, err := h.service.Get(r.Context(), middleware.GetPrincipalID(r), collection, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, doc)
}
