package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/guestbook/internal/auth"
)

type apiKeyResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

type apiKeyCreateResponse struct {
	Key    string         `json:"key"` // raw key, shown once
	APIKey apiKeyResponse `json:"api_key"`
}

func keyResponse(k auth.APIKey) apiKeyResponse {
	resp := apiKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		CreatedAt: k.CreatedAt.UTC().Format(time.RFC3339),
	}
	if k.LastUsedAt != nil {
		s := k.LastUsedAt.UTC().Format(time.RFC3339)
		resp.LastUsedAt = &s
	}
	return resp
}

// handleAPIKeysRoute routes /api/keys and /api/keys/{id}. Only operators
// holding an API key may manage keys; anonymous sessions may not.
func (s *Server) handleAPIKeysRoute(w http.ResponseWriter, r *http.Request) {
	if s.apiKeys == nil {
		apiError(w, "not found", http.StatusNotFound)
		return
	}
	if p, ok := auth.PrincipalFrom(r.Context()); !ok || !p.APIKey {
		apiError(w, "api key required", http.StatusForbidden)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/keys")

	if path == "" || path == "/" {
		switch r.Method {
		case http.MethodGet:
			s.handleListKeys(w, r)
		case http.MethodPost:
			s.handleCreateKey(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method == http.MethodDelete {
		s.handleDeleteKey(w, r, strings.TrimPrefix(path, "/"))
		return
	}

	apiError(w, "method not allowed", http.StatusMethodNotAllowed)
}

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	raw, key, err := s.apiKeys.Create(r.Context(), name)
	if err != nil {
		slog.Error("creating api key", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, apiKeyCreateResponse{Key: raw, APIKey: keyResponse(*key)}, http.StatusCreated)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.apiKeys.List(r.Context())
	if err != nil {
		slog.Error("listing api keys", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]apiKeyResponse, len(keys))
	for i, k := range keys {
		resp[i] = keyResponse(k)
	}
	apiJSON(w, resp, http.StatusOK)
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		apiError(w, "invalid key ID", http.StatusBadRequest)
		return
	}

	if err := s.apiKeys.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			apiError(w, "key not found", http.StatusNotFound)
			return
		}
		slog.Error("deleting api key", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
