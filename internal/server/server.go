// Package server hosts a bound route table over HTTP.
//
// Besides the API routes it serves a health probe, Prometheus metrics, the
// OpenAPI description of the API and an index of the available routes.
// Unknown paths answer with a JSON:API 404 document.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/schema2api/internal/jsonapi"
	"github.com/mark3labs/schema2api/internal/routes"
)

const (
	DefaultAddr            = ":3000"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Logger          *logrus.Logger
	// Registry backs /metrics. Metrics, when set, must be registered on it.
	Registry *prometheus.Registry
	Metrics  *Metrics
	// Table is listed by the index route.
	Table routes.Table
	// OpenAPI is the rendered JSON document served at /openapi.json.
	OpenAPI []byte
}

// Server is an HTTP server for one route table.
type Server struct {
	cfg     Config
	router  *mux.Router
	handler atomic.Pointer[http.Handler]
	log     *logrus.Logger
}

// MountFunc registers API routes on the router.
type MountFunc func(*mux.Router) error

// New builds the router. API routes are mounted first so they take
// precedence over the built-in ones.
func New(cfg Config, mount MountFunc) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetOutput(io.Discard)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(cfg.Registry)
	}

	s := &Server{cfg: cfg, router: mux.NewRouter(), log: cfg.Logger}
	s.router.Use(HTTPMetricsMiddleware(cfg.Metrics))

	if mount != nil {
		if err := mount(s.router); err != nil {
			return nil, fmt.Errorf("mount routes: %w", err)
		}
	}

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.router.Handle("/metrics", metricsHandler(cfg.Registry)).Methods(http.MethodGet)
	s.router.HandleFunc("/openapi.json", s.openAPI).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.index).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(notFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	h := Chain(
		RequestIDMiddleware,
		LoggingMiddleware(s.log),
		RecoveryMiddleware(s.log),
	)(s.router)
	s.handler.Store(&h)
	return s, nil
}

// Handler returns the fully wrapped handler. It follows later calls to Swap.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		(*s.handler.Load()).ServeHTTP(w, r)
	})
}

// Swap makes s serve next's routes. Requests already in flight finish on the
// previous handler.
func (s *Server) Swap(next *Server) {
	s.handler.Store(next.handler.Load())
	s.log.WithField("routes", len(next.cfg.Table)).Info("routes replaced")
}

func (s *Server) Addr() string { return s.cfg.Addr }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within the
// configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.WithField("addr", ln.Addr().String()).Info("server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		s.log.Info("HTTP server shutdown complete")
		return nil
	})
	return g.Wait()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "application/json", map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"routes":    len(s.cfg.Table),
	})
}

func (s *Server) openAPI(w http.ResponseWriter, r *http.Request) {
	if len(s.cfg.OpenAPI) == 0 {
		notFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.cfg.OpenAPI)
}

type indexEntry struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Kind   string `json:"kind"`
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	entries := make([]indexEntry, 0, len(s.cfg.Table))
	for _, rt := range s.cfg.Table {
		entries = append(entries, indexEntry{Method: rt.Method, Path: rt.Display(), Kind: string(rt.Kind)})
	}
	writeJSON(w, http.StatusOK, "application/json", map[string]any{
		"routes":  entries,
		"openapi": "/openapi.json",
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeDocument(w, http.StatusNotFound, jsonapi.FormatError(http.StatusNotFound, "Not Found",
		fmt.Sprintf("No route matches %s %s.", r.Method, r.URL.Path)))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeDocument(w, http.StatusMethodNotAllowed, jsonapi.FormatError(http.StatusMethodNotAllowed, "Method Not Allowed",
		fmt.Sprintf("%s is not supported on %s; this API is read-only.", r.Method, r.URL.Path)))
}

// Banner writes the route listing printed at startup.
func Banner(w io.Writer, baseURL string, t routes.Table) {
	fmt.Fprintln(w, "Generated the following endpoints:")
	for _, rt := range t {
		fmt.Fprintf(w, "  %-4s %s%s\n", rt.Method, baseURL, rt.Display())
	}
}
