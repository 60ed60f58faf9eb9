// Package http serves the liveness and readiness endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spesebot/internal/log"
)

// ReadinessCheck reports whether one dependency is ready to serve traffic.
// Chat transports implement it.
type ReadinessCheck interface {
	Name() string
	Ready() bool
}

// Server wraps http.Server with the health routes mounted on a chi router.
type Server struct {
	http.Server
	checks  []ReadinessCheck
	started time.Time
	logger  *log.Logger
}

// NewServer builds a server listening on addr.
func NewServer(addr string, logger *log.Logger, checks ...ReadinessCheck) *Server {
	logger = logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		checks:  checks,
		started: time.Now(),
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(log.Middleware(logger))
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Health server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports 200 once every check passes, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if c.Ready() {
			checks[c.Name()] = "ok"
			continue
		}
		checks[c.Name()] = "not_ready"
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	if code != http.StatusOK {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Readiness check failed", "checks", checks)
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
