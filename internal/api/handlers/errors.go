package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// XRPCError is the body of every error response
type XRPCError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(XRPCError{
		Error:   errorType,
		Message: message,
	}); err != nil {
		slog.Warn("failed to encode error response", "error", err)
	}
}

// WriteJSON writes a 200 JSON response
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}
