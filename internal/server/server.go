// Package server provides the HTTP and WebSocket mirror of the chatbox
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/transcript"
	"github.com/AymNine/vrc-osc-scripts/internal/store"
	"github.com/AymNine/vrc-osc-scripts/internal/trace"
)

// HistoryResponse is returned by /api/history.
type HistoryResponse struct {
	Seconds int                `json:"seconds"`
	Entries []transcript.Entry `json:"entries"`
}

// StateResponse is returned by /api/state.
type StateResponse struct {
	State map[string]any   `json:"state"`
	Stats map[string]int64 `json:"stats,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithStats exposes dispatch counters on /api/state.
func WithStats(fn func() map[string]int64) Option {
	return func(s *Server) { s.stats = fn }
}

// Server mirrors chatbox events to WebSocket clients and exposes read-only state.
type Server struct {
	history transcript.Store
	state   *store.Store
	cfg     *store.Store
	stats   func() map[string]int64

	mu    sync.RWMutex
	conns map[*websocket.Conn]chan transcript.Event
	done  chan struct{}
}

// New creates a server and starts broadcasting history events.
func New(history transcript.Store, state, cfg *store.Store, opts ...Option) *Server {
	s := &Server{
		history: history,
		state:   state,
		cfg:     cfg,
		conns:   make(map[*websocket.Conn]chan transcript.Event),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.broadcastEvents()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Use(trace.Middleware)
	r.Use(middleware.Recoverer)

	// WebSocket endpoint
	r.Get("/ws", s.handleWebSocket)

	// REST API
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/config", s.handleConfig)
	r.Get("/api/state", s.handleState)

	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mirror server starting", "http", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Done is closed when the history event stream ends.
func (s *Server) Done() <-chan struct{} { return s.done }

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	events := make(chan transcript.Event, ClientBuffer)
	s.mu.Lock()
	s.conns[conn] = events
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	log := trace.Logger(r.Context())
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// The mirror is one-way; CloseRead discards client frames and ends ctx on close.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			log.Debug("websocket disconnected", "remote", r.RemoteAddr)
			return
		case evt := <-events:
			if err := writeEvent(ctx, conn, evt); err != nil {
				log.Debug("websocket write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt transcript.Event) error {
	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, evt)
}

// broadcastEvents queues each event for every client in order. A client
// whose queue is full misses the event rather than stalling the others.
func (s *Server) broadcastEvents() {
	defer close(s.done)
	for evt := range s.history.Events() {
		s.mu.RLock()
		for _, events := range s.conns {
			select {
			case events <- evt:
			default:
				slog.Debug("websocket client lagging, event dropped", "type", evt.Type)
			}
		}
		s.mu.RUnlock()
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	seconds := 0
	if v := r.URL.Query().Get("seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > MaxHistorySeconds {
			http.Error(w, "seconds must be an integer between 0 and 86400", http.StatusBadRequest)
			return
		}
		seconds = n
	}

	entries := s.history.Recent(time.Duration(seconds) * time.Second)
	writeJSON(w, HistoryResponse{Seconds: seconds, Entries: entries})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cfg.Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := StateResponse{State: s.state.Snapshot()}
	if s.stats != nil {
		resp.Stats = s.stats()
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response write failed", "error", err)
	}
}
