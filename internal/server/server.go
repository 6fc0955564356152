// Package server exposes blackjack sessions over WebSocket. Every connection
// owns an independent engine; sessions share nothing.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lox/freebet/internal/game"
	"github.com/lox/freebet/internal/randutil"
	"github.com/lox/freebet/internal/strategy"
)

// Config holds the server settings
type Config struct {
	Addr           string
	Rules          game.Rules
	AllowedOrigins []string // empty allows any origin
	Seed           int64    // sessions derive their shuffle seeds from this
}

// Server represents the WebSocket server
type Server struct {
	config      Config
	upgrader    websocket.Upgrader
	connections map[*Connection]struct{}
	sessions    atomic.Int64
	logger      *log.Logger
	mu          sync.RWMutex
	httpServer  *http.Server
}

// NewServer creates a new session server
func NewServer(config Config, logger *log.Logger) *Server {
	if config.Rules.NumDecks == 0 {
		config.Rules = game.DefaultRules()
	}
	s := &Server{
		config:      config,
		connections: make(map[*Connection]struct{}),
		logger:      logger.WithPrefix("server"),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return s
}

// Routes sets up the HTTP routes with middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/strategy", s.handleStrategy)
		r.Get("/rules", s.handleRules)
	})
	r.Get("/ws", s.handleWebSocket)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", s.config.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server and closes every session
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.logger.Info("Server stopped")
	return err
}

// SessionCount returns the number of open sessions
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.config.AllowedOrigins, origin)
}

// handleWebSocket upgrades the request and starts a fresh session
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	sessionID := uuid.NewString()
	n := s.sessions.Add(1)
	seed := randutil.Derive(s.config.Seed, int(n))
	engine := game.NewEngine(randutil.New(seed), s.logger.With("session", sessionID),
		game.WithRules(s.config.Rules))

	client := NewConnection(conn, sessionID, engine, s.logger)

	s.mu.Lock()
	s.connections[client] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Session started", "session", sessionID, "remote", r.RemoteAddr, "total", total)

	client.Start()

	go func() {
		<-client.Done()
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Session ended", "session", sessionID, "total", total)
	}()
}

// handleStrategy returns a strategy chart. variant is "standard" or "free".
func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	var table *strategy.Table
	switch r.URL.Query().Get("variant") {
	case "", "standard":
		table = strategy.Standard()
	case "free":
		table = strategy.FreeBet()
	default:
		s.writeJSON(w, http.StatusBadRequest, ErrorData{
			Code:    "invalid_variant",
			Message: "variant must be standard or free",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, StrategyDataFromTable(table))
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.config.Rules)
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}
