// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultListenAddress = ":8080"

var ErrServerAlreadyStarted = errors.New("server already started")

type Config struct {
	ListenAddress string
	Logger        *slog.Logger
	PromRegistry  prometheus.Registerer
	// RequestTimeout bounds the handling of a single request
	RequestTimeout time.Duration
}

// Server is the voter weight REST API server
type Server struct {
	config     Config
	logger     *slog.Logger
	service    Service
	metrics    *apiMetrics
	handler    http.Handler
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance
func New(cfg Config, service Service) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		config:  cfg,
		logger:  cfg.Logger.With("component", "api"),
		service: service,
	}
	if cfg.PromRegistry != nil {
		s.metrics = &apiMetrics{}
		s.metrics.init(cfg.PromRegistry)
	}
	s.handler = s.router()
	return s
}

// Handler returns the HTTP handler serving the API routes
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.config.RequestTimeout))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	})

	r.Get("/health", s.handleHealth)
	r.Route("/api/v0", func(r chi.Router) {
		r.Get("/registrars/{address}", s.handleGetRegistrar)
		r.Route("/voter-weight-records", func(r chi.Router) {
			r.Post("/", s.handleCreateVoterWeightRecord)
			r.Get("/{address}", s.handleGetVoterWeightRecord)
			r.Post("/{address}/update", s.handleUpdateVoterWeightRecord)
			r.Get("/{address}/attestations", s.handleGetAttestations)
		})
		r.Put("/accounts/{address}", s.handlePutAccount)
	})
	return r
}

// Start starts the HTTP server in a background goroutine. The server is
// shut down when ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return ErrServerAlreadyStarted
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.handler,
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info(
		"API listener started",
		"address", ln.Addr().String(),
	)

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}
