package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/guestbook/internal/view"
)

var errInvalidWait = errors.New("wait must be a non-negative number of seconds")

// ready reports whether the live mirrors have data to derive views from,
// writing a 503 when they do not.
func (s *Server) ready(w http.ResponseWriter) bool {
	for _, st := range []struct {
		loading bool
		err     string
	}{
		{s.properties.Loading(), s.properties.Err()},
		{s.units.Loading(), s.units.Err()},
		{s.guests.Loading(), s.guests.Err()},
	} {
		if st.err != "" {
			apiError(w, st.err, http.StatusServiceUnavailable)
			return false
		}
		if st.loading {
			apiError(w, "loading", http.StatusServiceUnavailable)
			return false
		}
	}
	return true
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.ready(w) {
		return
	}

	today := view.BuildToday(s.properties.Items(), s.units.Items(), s.guests.Items(), s.now().In(s.loc))
	apiJSON(w, today, http.StatusOK)
}

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := s.now().In(s.loc)
	year, month := now.Year(), now.Month()
	q := r.URL.Query()

	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			apiError(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			apiError(w, "month must be 1-12", http.StatusBadRequest)
			return
		}
		month = time.Month(m)
	}

	if !s.ready(w) {
		return
	}
	apiJSON(w, view.Monthly(s.guests.Items(), year, month, s.loc, q.Get("property")), http.StatusOK)
}

// handlePropertyRoute routes /api/properties/{id}/occupancy.
func (s *Server) handlePropertyRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/properties/")
	id, ok := strings.CutSuffix(path, "/occupancy")
	if !ok || id == "" || strings.Contains(id, "/") {
		apiError(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.ready(w) {
		return
	}

	p, found := s.properties.Find(id)
	if !found {
		apiError(w, "property not found", http.StatusNotFound)
		return
	}

	apiJSON(w, map[string]any{
		"property": p,
		"units":    view.PropertyOccupancy(s.units.Items(), s.guests.Items(), id, s.now()),
	}, http.StatusOK)
}
