package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readyTimeout = 2 * time.Second

// ReadyFunc reports whether the process can serve analyses.
type ReadyFunc func(ctx context.Context) error

// Server exposes a registry on /metrics and a readiness probe on /healthz,
// on a port separate from the API.
type Server struct {
	srv   *http.Server
	ready ReadyFunc
	log   *slog.Logger
}

// NewServer builds the metrics server. A nil ready func always reports healthy.
func NewServer(port int, reg *prometheus.Registry, ready ReadyFunc) *Server {
	s := &Server{
		ready: ready,
		log:   slog.With("component", "metrics-server"),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(reg,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			Registry:          reg,
			EnableOpenMetrics: true,
			ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
		}),
	))
	mux.HandleFunc("/healthz", s.healthz)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.log.Warn("readiness check failed", "error", err)
			http.Error(w, "unavailable: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("ok"))
}

// Handler returns the mux, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("Starting metrics server", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	s.log.Error("Metrics server error", "error", err)
	return err
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
