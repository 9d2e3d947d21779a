// Package server provides the HTTP server for SignCoach.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/signcoach/internal/capture"
	"github.com/ayusman/signcoach/internal/detector"
	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/metrics"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/recognition"
	"github.com/ayusman/signcoach/internal/server/api"
	"github.com/ayusman/signcoach/internal/store"
)

// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
const ShutdownTimeout = 10 * time.Second

// Config holds the server configuration. Every component is optional; the
// routes that need a missing one are not mounted.
type Config struct {
	StaticDir string
	Store     *store.Store
	Engine    *recognition.Engine
	Library   *recognition.Library
	Trainer   *handshape.Trainer
	Sessions  *practice.Registry

	// Camera and Detector feed the MJPEG stream and the live landmark feed.
	// The camera must already be open.
	Camera   capture.Camera
	Detector detector.Detector

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server is the SignCoach HTTP server.
type Server struct {
	config Config
	router chi.Router
	logger *slog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/api/health", s.handleHealth)

	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	if s.config.Store != nil {
		var lib api.Reloader
		if s.config.Library != nil {
			lib = s.config.Library
		}
		api.NewSignHandler(s.config.Store, lib, s.config.Trainer, s.logger).Register(r)
	}

	if s.config.Engine != nil {
		api.NewClassifyHandler(s.config.Engine, s.logger).Register(r)
		api.NewPatternHandler(s.config.Engine).Register(r)
	}

	if s.config.Sessions != nil {
		api.NewSessionHandler(s.config.Sessions, s.logger).Register(r)
	}

	if s.config.Camera != nil {
		r.Get("/api/stream", NewStreamHandler(s.config.Camera).ServeHTTP)
	}

	if s.config.Camera != nil && s.config.Detector != nil && s.config.Engine != nil {
		landmarks := NewLandmarksHandler(s.config.Detector, s.config.Camera, s.config.Engine, s.logger)
		r.Get("/api/landmarks", landmarks.ServeHTTP)
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Sessions != nil {
		response["sessions"] = s.config.Sessions.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
