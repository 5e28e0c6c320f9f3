// Package web exposes the scheduler's state over HTTP: a JSON snapshot
// endpoint and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zenzone/guardian/internal/types"
)

var (
	healthScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guardian_health_score",
		Help: "Current health score (0-100)",
	})

	optimizationScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guardian_optimization_score",
		Help: "Current optimization score (0-100)",
	})

	metricPercent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "guardian_metric_percent",
		Help: "Latest sampled value per metric",
	}, []string{"metric"})

	anomalyCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guardian_anomalies",
		Help: "Anomalies in the latest analysis pass",
	})

	reclaimableBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guardian_reclaimable_bytes",
		Help: "Bytes the current cleanup plan could reclaim",
	})

	cycleCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guardian_cycles_total",
		Help: "Scheduler ticks since start",
	})

	snapshotRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardian_snapshot_requests_total",
		Help: "Snapshot endpoint requests served",
	})
)

// Snapshotter produces the current state for export.
type Snapshotter interface {
	Snapshot() types.Snapshot
}

// Server serves /snapshot and /metrics.
type Server struct {
	router *mux.Router
	source Snapshotter
}

// NewServer builds the HTTP surface over a snapshot source.
func NewServer(source Snapshotter) *Server {
	s := &Server{router: mux.NewRouter(), source: source}
	s.router.HandleFunc("/snapshot", s.snapshotHandler).Methods("GET")
	s.router.HandleFunc("/healthz", s.healthzHandler).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler())
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	publish(snap)
	snapshotRequests.Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       "ok",
		"health_score": snap.Health.Value,
		"cycle":        snap.Cycle,
		"timestamp":    time.Now().UTC(),
	})
}

// publish pushes a snapshot into the Prometheus gauges.
func publish(snap types.Snapshot) {
	healthScore.Set(snap.Health.Value)
	optimizationScore.Set(snap.OptimizationScore)
	anomalyCount.Set(float64(len(snap.Anomalies)))
	cycleCount.Set(float64(snap.Cycle))
	if snap.Latest != nil {
		for _, m := range types.AllMetrics() {
			metricPercent.WithLabelValues(string(m)).Set(snap.Latest.Value(m))
		}
	}
	if snap.Plan != nil {
		reclaimableBytes.Set(float64(snap.Plan.TotalReclaimableBytes))
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
