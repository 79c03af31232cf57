// Package server provides the HTTP receiver for inbound OAGIS messages.
//
// The server exposes two endpoints:
//
//   - POST {basePath} - Receives an inbound OAGIS XML document as the
//     request body and returns the dispatch result as JSON. The HTTP
//     status is 200 for processed messages (successful or not; the result
//     body carries the error entries) and 4xx/5xx only for transport-level
//     problems.
//   - GET /health - Liveness probe, checks store connectivity.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sirosfoundation/go-oagis/internal/config"
	"github.com/sirosfoundation/go-oagis/internal/dispatch"
	"github.com/sirosfoundation/go-oagis/internal/storage"
)

// maxMessageBytes bounds one inbound document body.
const maxMessageBytes = 16 << 20

// Server is the OAGIS HTTP receiver.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpSrv    *http.Server
	store      storage.Store
	dispatcher *dispatch.Dispatcher
}

// New creates a server over a dispatcher and store.
func New(cfg *config.Config, store storage.Store, dispatcher *dispatch.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		dispatcher: dispatcher,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.BasePath, s.handleMessage)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info("server started", "addr", s.httpSrv.Addr, "base_path", s.cfg.Server.BasePath)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		s.logger.Error("failed to read request body", "error", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	start := time.Now()
	result := s.dispatcher.Receive(r.Context(), body)
	s.logger.Info("message dispatched",
		"success", result.Success,
		"errors", len(result.Errors),
		"duration", time.Since(start),
	)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("failed to encode dispatch result", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}
