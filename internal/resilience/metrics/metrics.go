package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vietddude/lifeline/internal/core/domain"
)

var (
	// RecoveryAttempts tracks strategy attempts per operation and outcome
	RecoveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifeline_recovery_attempts_total",
			Help: "Total number of recovery strategy attempts",
		},
		[]string{"operation", "strategy", "outcome"},
	)

	// RecoveryDuration tracks end-to-end recovery latency
	RecoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lifeline_recovery_duration_seconds",
			Help:    "Recovery run latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// FallbackSelections tracks asset selections per tier
	FallbackSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifeline_fallback_selections_total",
			Help: "Total number of fallback asset selections",
		},
		[]string{"tier"},
	)

	// ValidationProbes tracks asset validation probes and cache hits
	ValidationProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifeline_validation_probes_total",
			Help: "Total number of asset validation lookups",
		},
		[]string{"result"},
	)

	// QueueDepth tracks pending offline operations
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lifeline_offline_queue_depth",
			Help: "Number of pending offline operations",
		},
	)

	// QueueOperations tracks queue outcomes per operation type
	QueueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifeline_offline_operations_total",
			Help: "Total number of offline queue operation outcomes",
		},
		[]string{"type", "outcome"},
	)

	// SyncRuns tracks explicit queue syncs
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifeline_sync_runs_total",
			Help: "Total number of explicit queue syncs",
		},
		[]string{"outcome"},
	)

	// SubsystemHealth reports subsystem status (0 healthy, 1 degraded, 2 critical, 3 offline)
	SubsystemHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lifeline_subsystem_health",
			Help: "Subsystem health status (0=healthy 1=degraded 2=critical 3=offline)",
		},
		[]string{"subsystem"},
	)

	// ConnectivityQuality reports the current connectivity quality score
	ConnectivityQuality = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lifeline_connectivity_quality",
			Help: "Connectivity quality score in [0,1]",
		},
	)

	// ConnectivityOffline reports whether the link is considered offline
	ConnectivityOffline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lifeline_connectivity_offline",
			Help: "1 when connectivity is offline, 0 otherwise",
		},
	)
)

// SetConnectivityState publishes the connectivity gauges.
func SetConnectivityState(state domain.ConnectivityState, quality float64) {
	ConnectivityQuality.Set(quality)
	if state == domain.ConnectivityOffline {
		ConnectivityOffline.Set(1)
	} else {
		ConnectivityOffline.Set(0)
	}
}

// SetSubsystemHealth publishes one subsystem's health gauge.
func SetSubsystemHealth(subsystem domain.Subsystem, status domain.SubsystemStatus) {
	var v float64
	switch status {
	case domain.StatusDegraded:
		v = 1
	case domain.StatusCritical:
		v = 2
	case domain.StatusOffline:
		v = 3
	}
	SubsystemHealth.WithLabelValues(string(subsystem)).Set(v)
}
