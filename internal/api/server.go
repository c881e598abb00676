// Package api exposes the matching engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/docmatch/internal/engine"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Request limits.
const (
	MaxBodyBytes = 32 << 20
	// MaxCandidates rejects larger candidate lists outright.
	MaxCandidates = 10000
	// CandidateCap truncates candidate lists before matching.
	CandidateCap = 1000
)

// TraceHeader carries the caller's trace id.
const TraceHeader = "X-Om-Trace-Id"

// Matcher is the engine surface the handlers need.
type Matcher interface {
	Match(ctx context.Context, a, b model.Document) (model.MatchReport, error)
	Compare(a, b model.Document, certainty *float64) model.MatchReport
	MatchCandidates(ctx context.Context, primary model.Document, candidates []model.Document, progress engine.ProgressFunc) ([]model.MatchReport, error)
}

// Handler serves the matching endpoints.
type Handler struct {
	matcher Matcher
	ready   func() bool
}

// NewHandler creates a handler. A nil ready func always reports ready.
func NewHandler(matcher Matcher, ready func() bool) *Handler {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Handler{matcher: matcher, ready: ready}
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(echoTrace)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Route("/v1", func(r chi.Router) {
		r.Use(requireJSON)
		r.Post("/match", h.MatchPair)
		r.Post("/match-candidates", h.MatchCandidates)
		r.Post("/groups", h.Groups)
		r.Post("/merge-check", h.MergeCheck)
	})
}

// traceID returns the caller's trace id, or the generated request id.
func traceID(r *http.Request) string {
	if id := r.Header.Get(TraceHeader); id != "" {
		return id
	}
	return middleware.GetReqID(r.Context())
}

// echoTrace copies the caller's trace id onto the response.
func echoTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(TraceHeader); id != "" {
			w.Header().Set(TraceHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.Info("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"trace_id", traceID(r),
			"duration", time.Since(start))
	})
}

func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct != "" && !hasJSONMediaType(ct) {
			writeError(w, http.StatusUnsupportedMediaType, CodeUnsupportedMediaType,
				"Unsupported Media Type. Use application/json", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	srv *http.Server
}

// NewServer creates a server listening on addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("Shutting down server")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
