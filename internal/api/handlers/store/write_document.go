package store

import (
	"encoding/json"
	"net/http"

	"Tutter/internal/api/handlers"
	"Tutter/internal/api/middleware"
	"Tutter/internal/core/docstore"
	"Tutter/internal/core/documents"
)

// DocumentRequest is the body of create, update and delete procedures
type DocumentRequest struct {
	Fields     docstore.Fields `json:"fields,omitempty"`
	Collection string          `json:"collection"`
	ID         string          `json:"id,omitempty"`
}

// WriteDocumentHandler handles document procedures
type WriteDocumentHandler struct {
	service documents.Service
}

// NewWriteDocumentHandler creates a new write handler
func NewWriteDocumentHandler(service documents.Service) *WriteDocumentHandler {
	return &WriteDocumentHandler{service: service}
}

// HandleCreateDocument stores a new document
// POST /xrpc/social.tutter.store.createDocument
//
// Request body: { "collection": "posts", "id": "optional", "fields": {...} }
func (h *WriteDocumentHandler) HandleCreateDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if req.Fields == nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "fields is required")
		return
	}

	doc, err := h.service.Create(r.Context(), middleware.GetPrincipalID(r), req.Collection, req.ID, req.Fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, doc)
}

// HandleUpdateDocument merges fields into a document
// POST /xrpc/social.tutter.store.updateDocument
//
// Request body: { "collection": "posts", "id": "...", "fields": {...} }
func (h *WriteDocumentHandler) HandleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if req.ID == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "id is required")
		return
	}

	doc, err := h.service.Update(r.Context(), middleware.GetPrincipalID(r), req.Collection, req.ID, req.Fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, doc)
}

// HandleDeleteDocument removes a document
// POST /xrpc/social.tutter.store.deleteDocument
//
// Request body: { "collection": "posts", "id": "..." }
func (h *WriteDocumentHandler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if req.ID == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "id is required")
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetPrincipalID(r), req.Collection, req.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, map[string]any{})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*DocumentRequest, bool) {
	if r.Method != http.MethodPost {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "Method not allowed")
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return nil, false
	}
	if req.Collection == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "collection is required")
		return nil, false
	}
	return &req, true
}
