package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/lifeline/internal/core/domain"
)

// QueueStats is implemented by the offline queue for the stats endpoint.
type QueueStats interface {
	Stats() map[string]any
	CurrentCapability() domain.Capability
}

// Server provides HTTP endpoints for health monitoring and metrics.
type Server struct {
	monitor *Monitor
	queue   QueueStats
	server  *http.Server
}

// NewServer creates a new health server.
func NewServer(monitor *Monitor, queue QueueStats, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		queue:   queue,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.HandleFunc("/capability", s.handleCapability)
	mux.HandleFunc("/queue/stats", s.handleQueueStats)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.Snapshot()

	response := map[string]string{"status": string(report.Overall)}
	w.Header().Set("Content-Type", "application/json")

	if report.Overall == domain.StatusCritical || report.Overall == domain.StatusOffline {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleCapability(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"capability": string(s.queue.CurrentCapability()),
	})
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.queue.Stats())
}
