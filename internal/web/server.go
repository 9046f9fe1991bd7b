// Package web provides the guestbook HTTP API: the document store
// endpoints used by remote clients and the derived dashboard views.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/evcraddock/guestbook/internal/auth"
	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/logging"
	"github.com/evcraddock/guestbook/internal/metrics"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/unit"
)

// Config wires a Server to its collaborators. APIKeys, Metrics and
// CORSOrigins are optional.
type Config struct {
	Store      *docstore.SQLStore
	Tokens     *auth.TokenIssuer
	APIKeys    *auth.APIKeyStore
	Properties *property.Repository
	Units      *unit.Repository
	Guests     *guest.Repository
	Metrics    *metrics.Recorder
	Location   *time.Location

	CORSOrigins []string
}

// Server is the HTTP API server.
type Server struct {
	store       *docstore.SQLStore
	tokens      *auth.TokenIssuer
	apiKeys     *auth.APIKeyStore
	properties  *property.Repository
	units       *unit.Repository
	guests      *guest.Repository
	loc         *time.Location
	now         func() time.Time
	collections map[string]bool
	mux         *http.ServeMux
	handler     http.Handler
}

// NewServer creates an API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil || cfg.Tokens == nil {
		return nil, errors.New("web: store and token issuer are required")
	}
	if cfg.Properties == nil || cfg.Units == nil || cfg.Guests == nil {
		return nil, errors.New("web: repositories are required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	s := &Server{
		store:      cfg.Store,
		tokens:     cfg.Tokens,
		apiKeys:    cfg.APIKeys,
		properties: cfg.Properties,
		units:      cfg.Units,
		guests:     cfg.Guests,
		loc:        loc,
		now:        time.Now,
		collections: map[string]bool{
			property.Collection: true,
			unit.Collection:     true,
			guest.Collection:    true,
		},
		mux: http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/auth/anonymous", s.handleAnonymousSignIn)
	s.mux.HandleFunc("/api/keys", s.handleAPIKeysRoute)
	s.mux.HandleFunc("/api/keys/", s.handleAPIKeysRoute)
	s.mux.HandleFunc("/api/docs/", s.handleDocsRoute)
	s.mux.HandleFunc("/api/today", s.handleToday)
	s.mux.HandleFunc("/api/finance", s.handleFinance)
	s.mux.HandleFunc("/api/properties/", s.handlePropertyRoute)

	var obs logging.RequestObserver
	if cfg.Metrics != nil {
		s.mux.Handle("/metrics", cfg.Metrics.Handler())
		obs = cfg.Metrics
	}

	var h http.Handler = s.mux
	h = auth.RequireAPIAuth(cfg.Tokens, cfg.APIKeys, h)
	if len(cfg.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         600,
		}).Handler(h)
	}
	s.handler = logging.RequestLogger(obs, h)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleAnonymousSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tok, err := s.tokens.IssueAnonymous()
	if err != nil {
		slog.Error("issuing anonymous token", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("anonymous session started", "uid", tok.UID)
	apiJSON(w, tok, http.StatusCreated)
}
