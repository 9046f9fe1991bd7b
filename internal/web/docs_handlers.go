package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/guestbook/internal/docstore"
)

const maxWait = 60 * time.Second

// listResponse is the body of a collection read.
type listResponse struct {
	Version   uint64              `json:"version"`
	Documents []docstore.Document `json:"documents"`
}

// handleDocsRoute routes /api/docs/{collection}[/{id}] requests.
func (s *Server) handleDocsRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/docs/"), "/")
	collection, id, hasID := strings.Cut(path, "/")

	if !s.collections[collection] {
		apiError(w, "unknown collection", http.StatusNotFound)
		return
	}
	if hasID && (id == "" || strings.Contains(id, "/")) {
		apiError(w, "invalid document ID", http.StatusBadRequest)
		return
	}

	if !hasID {
		switch r.Method {
		case http.MethodGet:
			s.apiListDocs(w, r, collection)
		case http.MethodPost:
			s.apiCreateDoc(w, r, collection)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.apiGetDoc(w, r, collection, id)
	case http.MethodPatch:
		s.apiUpdateDoc(w, r, collection, id)
	case http.MethodDelete:
		s.apiDeleteDoc(w, r, collection, id)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiListDocs returns the ordered collection. When the caller passes the
// version it already has and a wait, the request is held until the
// collection changes or the wait runs out.
func (s *Server) apiListDocs(w http.ResponseWriter, r *http.Request, collection string) {
	q := r.URL.Query()

	desc := false
	if v := q.Get("desc"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			apiError(w, "desc must be a boolean", http.StatusBadRequest)
			return
		}
		desc = b
	}

	version, changed := s.store.Changes(collection)
	if v := q.Get("version"); v != "" {
		known, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apiError(w, "invalid version", http.StatusBadRequest)
			return
		}
		wait, err := parseWait(q.Get("wait"))
		if err != nil {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if known == version && wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-changed:
			case <-timer.C:
			case <-r.Context().Done():
				timer.Stop()
				return
			}
			timer.Stop()
			version, _ = s.store.Changes(collection)
		}
	}

	docs, err := s.store.List(r.Context(), docstore.Query{
		Collection: collection,
		OrderBy:    q.Get("order"),
		Descending: desc,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	if docs == nil {
		docs = []docstore.Document{}
	}

	apiJSON(w, listResponse{Version: version, Documents: docs}, http.StatusOK)
}

func parseWait(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	secs, err := strconv.Atoi(s)
	if err != nil || secs < 0 {
		return 0, errInvalidWait
	}
	return min(time.Duration(secs)*time.Second, maxWait), nil
}

func (s *Server) apiCreateDoc(w http.ResponseWriter, r *http.Request, collection string) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	id, err := s.store.Create(r.Context(), collection, fields)
	if err != nil {
		storeError(w, err)
		return
	}

	apiJSON(w, map[string]string{"id": id}, http.StatusCreated)
}

func (s *Server) apiGetDoc(w http.ResponseWriter, r *http.Request, collection, id string) {
	doc, err := s.store.Get(r.Context(), collection, id)
	if err != nil {
		storeError(w, err)
		return
	}
	apiJSON(w, doc, http.StatusOK)
}

func (s *Server) apiUpdateDoc(w http.ResponseWriter, r *http.Request, collection, id string) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	if err := s.store.Update(r.Context(), collection, id, fields); err != nil {
		storeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiDeleteDoc(w http.ResponseWriter, r *http.Request, collection, id string) {
	if err := s.store.Delete(r.Context(), collection, id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeFields reads a JSON object body. Null members are kept so that
// updates can remove fields.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var fields map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&fields); err != nil {
		apiError(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if fields == nil {
		apiError(w, "request body must be a JSON object", http.StatusBadRequest)
		return nil, false
	}
	return fields, true
}
