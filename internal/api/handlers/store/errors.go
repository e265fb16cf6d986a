package store

import (
	"errors"
	"log/slog"
	"net/http"

	"Tutter/internal/api/handlers"
	"Tutter/internal/core/documents"
)

// maxBodyBytes bounds request bodies of store procedures
const maxBodyBytes = 1 << 20

// handleServiceError converts service errors to XRPC error responses
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *documents.ValidationError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Error())
	case documents.IsUnknownCollection(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	case errors.Is(err, documents.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "DocumentNotFound", "Document not found")
	case errors.Is(err, documents.ErrForbidden):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthorized", "Not authorized to modify this document")
	case errors.Is(err, documents.ErrConflict):
		handlers.WriteError(w, http.StatusConflict, "AlreadyExists", "A document with this id already exists")
	default:
		// Log the actual error, return a generic message
		slog.Error("store handler error", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
