// ABOUTME: HTTP server wiring the API, control endpoint, and cache controller
// ABOUTME: Owns the mux, middleware, and graceful shutdown

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/mindease/internal/auth"
	"github.com/2389/mindease/internal/gateway"
	"github.com/2389/mindease/internal/lifecycle"
	"github.com/2389/mindease/internal/store"
	"github.com/2389/mindease/internal/wellness"
)

// Server serves the wellness API and routes everything else through the
// cache lifecycle controller.
type Server struct {
	store      store.Store
	gateway    *gateway.Gateway
	controller *lifecycle.Controller
	wellness   *wellness.Service
	accounts   *auth.Manager
	logger     *slog.Logger
	httpServer *http.Server
}

// Config carries the server's dependencies.
type Config struct {
	Addr       string
	Store      store.Store
	Gateway    *gateway.Gateway
	Controller *lifecycle.Controller
	Wellness   *wellness.Service
	Accounts   *auth.Manager
	Logger     *slog.Logger
}

// New creates a server. Accounts may be nil, disabling the auth endpoints.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:      cfg.Store,
		gateway:    cfg.Gateway,
		controller: cfg.Controller,
		wellness:   cfg.Wellness,
		accounts:   cfg.Accounts,
		logger:     logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/control", s.handleControl)

	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/chat/history", s.handleChatHistory)
	mux.HandleFunc("/api/journal", s.handleJournal)
	mux.HandleFunc("/api/journal/", s.handleJournalEntry)
	mux.HandleFunc("/api/mood", s.handleMood)
	mux.HandleFunc("/api/mood/stats", s.handleMoodStats)
	mux.HandleFunc("/api/meditations", s.handleMeditations)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.handleImport)
	mux.HandleFunc("/api/providers", s.handleProviders)
	mux.HandleFunc("/api/providers/", s.handleProviderKey)

	if s.accounts != nil {
		mux.HandleFunc("/api/auth/signup", s.handleSignup)
		mux.HandleFunc("/api/auth/login", s.handleLogin)
	}

	// Everything else is app-shell traffic served through the controller
	if s.controller != nil {
		mux.Handle("/", s.controller)
	}

	var handler http.Handler = mux
	if s.accounts != nil {
		handler = auth.OptionalAuthMiddleware(s.accounts.Verifier())(mux)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the wired handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
