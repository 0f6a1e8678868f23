// Package server exposes editing sessions over a JSON/HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"facial-editor/internal/catalog"
	"facial-editor/internal/persist"
	"facial-editor/internal/session"
)

// Options configure a Server.
type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
	// EvictInterval is how often idle sessions are swept; zero uses one
	// minute.
	EvictInterval time.Duration
}

// Server serves the editing API.
type Server struct {
	registry *session.Registry
	catalog  *catalog.Store
	encoder  *persist.FileSink
	logger   *slog.Logger
	opts     Options
}

// New creates a Server over registry. shared is the read-only catalog the
// registry's sessions were built with; encoder formats exported images.
func New(registry *session.Registry, shared *catalog.Store, encoder *persist.FileSink, logger *slog.Logger, opts Options) *Server {
	if encoder == nil {
		encoder = persist.NewFileSink()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = time.Minute
	}
	return &Server{
		registry: registry,
		catalog:  shared,
		encoder:  encoder,
		logger:   logger,
		opts:     opts,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", s.handleCatalog)
		r.Get("/{category}/{name}/thumbnail", s.handleThumbnail)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Put("/canvas", s.handleSetCanvas)
			r.Post("/select", s.handleSelect)
			r.Post("/adjust", s.handleAdjust)
			r.Post("/click", s.handleClick)
			r.Post("/confirm", s.event((*session.Controller).Confirm))
			r.Post("/cancel", s.event((*session.Controller).Cancel))
			r.Post("/undo", s.event((*session.Controller).Undo))
			r.Post("/clear", s.event((*session.Controller).Clear))
			r.Post("/custom", s.handleCustom)
			r.Get("/image", s.handleImage)
			r.Get("/overlays", s.handleOverlays)
			r.Get("/catalog", s.handleSessionCatalog)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and persists the live sessions.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.registry.Run(sweepCtx, s.opts.EvictInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := s.registry.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("failed to persist sessions", "error", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
