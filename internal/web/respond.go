package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evcraddock/guestbook/internal/docstore"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// storeError maps a store failure onto a response.
func storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, docstore.ErrNotFound) {
		apiError(w, "not found", http.StatusNotFound)
		return
	}
	slog.Error("store request failed", "error", err)
	apiError(w, "internal error", http.StatusInternalServerError)
}
