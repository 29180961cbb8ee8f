package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	UptimeSeconds    float64   `json:"uptime_seconds"`
	SnapshotsWritten float64   `json:"snapshots_written"`
	SnapshotErrors   float64   `json:"snapshot_errors"`
}

// Server exposes the monitoring surface: /health and /metrics. It carries no
// analysis state of its own.
type Server struct {
	httpServer *http.Server
	metrics    *MetricsRegistry
	router     *mux.Router
	startedAt  time.Time
}

// NewServer creates a monitoring server bound to addr.
func NewServer(addr string, metrics *MetricsRegistry) *Server {
	s := &Server{
		metrics:   metrics,
		router:    mux.NewRouter(),
		startedAt: time.Now(),
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the server's routing handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("Monitoring server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := HealthStatus{
		Status:           "healthy",
		Timestamp:        time.Now().UTC(),
		UptimeSeconds:    time.Since(s.startedAt).Seconds(),
		SnapshotsWritten: CounterValue(s.metrics.SnapshotWrites),
		SnapshotErrors:   CounterValue(s.metrics.SnapshotErrors),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("Failed to encode health response")
	}
}
