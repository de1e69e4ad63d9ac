// Package health serves liveness, readiness and Prometheus metrics for the
// long-running siloddns service.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Readiness states reported by /ready.
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

// HealthChecker returns an error when a component cannot do its job.
type HealthChecker func(ctx context.Context) error

// DegradedChecker reports a component that works but needs attention.
type DegradedChecker func(ctx context.Context) (degraded bool, message string)

// HealthStatus is one checker's outcome.
type HealthStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// DegradedStatus is one degraded component.
type DegradedStatus struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Response is the JSON body of /health and /ready.
type Response struct {
	Status     string           `json:"status"`
	Components []HealthStatus   `json:"components,omitempty"`
	Degraded   []DegradedStatus `json:"degraded,omitempty"`
}

type namedChecker struct {
	name     string
	check    HealthChecker
	degraded DegradedChecker
}

// Server provides /health, /ready, and /metrics endpoints.
type Server struct {
	port    int
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.RWMutex
	checkers []namedChecker
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout bounds a whole /ready evaluation.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// New creates a health server for the given port. Nothing listens until Start.
func New(port int, opts ...Option) *Server {
	s := &Server{
		port:    port,
		mux:     http.NewServeMux(),
		logger:  slog.Default(),
		timeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ready", s.handleReady)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

// RegisterChecker adds a readiness check. Components are reported in
// registration order.
func (s *Server) RegisterChecker(name string, checker HealthChecker) {
	s.register(namedChecker{name: name, check: checker})
}

// RegisterDegradedChecker adds a check that can mark the service degraded
// without making it unready.
func (s *Server) RegisterDegradedChecker(name string, checker DegradedChecker) {
	s.register(namedChecker{name: name, degraded: checker})
}

func (s *Server) register(c namedChecker) {
	s.mu.Lock()
	s.checkers = append(s.checkers, c)
	s.mu.Unlock()
	s.logger.Debug("registered health check", slog.String("name", c.name))
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Check runs every registered check and summarizes them.
func (s *Server) Check(ctx context.Context) Response {
	s.mu.RLock()
	checkers := append([]namedChecker(nil), s.checkers...)
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp := Response{Status: StatusReady}
	unhealthy := false

	for _, c := range checkers {
		if c.check != nil {
			st := HealthStatus{Name: c.name, Healthy: true}
			if err := c.check(ctx); err != nil {
				st.Healthy = false
				st.Error = err.Error()
				unhealthy = true
				s.logger.Warn("health check failed",
					slog.String("component", c.name),
					slog.String("error", err.Error()),
				)
			}
			resp.Components = append(resp.Components, st)
		}
		if c.degraded != nil {
			if degraded, msg := c.degraded(ctx); degraded {
				resp.Degraded = append(resp.Degraded, DegradedStatus{Name: c.name, Message: msg})
			}
		}
	}

	switch {
	case unhealthy:
		resp.Status = StatusNotReady
	case len(resp.Degraded) > 0:
		resp.Status = StatusDegraded
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Status: "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := s.Check(r.Context())

	code := http.StatusOK
	if resp.Status == StatusNotReady {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Start binds the port and serves in the background. A bind failure is
// returned to the caller.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("health server: %w", err)
	}

	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("health server listening", slog.String("addr", ln.Addr().String()))
		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the health server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
