// Package health monitors the remote subsystems and derives an aggregate
// status consumed by the recovery engine and offline queue.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/infra/remote"
	"github.com/vietddude/lifeline/internal/resilience/connectivity"
	"github.com/vietddude/lifeline/internal/resilience/metrics"
)

// Config holds monitor settings.
type Config struct {
	Interval          time.Duration `yaml:"interval"`
	ProbeTimeout      time.Duration `yaml:"probe_timeout"`
	DegradedThreshold time.Duration `yaml:"degraded_threshold"`
}

// DefaultConfig returns the default probing cadence.
func DefaultConfig() Config {
	return Config{
		Interval:          60 * time.Second,
		ProbeTimeout:      5 * time.Second,
		DegradedThreshold: 2 * time.Second,
	}
}

// Monitor periodically probes each subsystem. Probes are independent and
// time-boxed; consumers read the latest snapshot and never wait for a fresh
// probe.
type Monitor struct {
	cfg    Config
	prober remote.Prober
	conn   connectivity.Source
	log    *slog.Logger

	mu   sync.RWMutex
	last domain.SystemHealth
}

// NewMonitor creates a monitor. The initial snapshot reports every
// subsystem healthy until the first check completes.
func NewMonitor(cfg Config, prober remote.Prober, conn connectivity.Source) *Monitor {
	def := DefaultConfig()
	if cfg.Interval == 0 {
		cfg.Interval = def.Interval
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = def.ProbeTimeout
	}
	if cfg.DegradedThreshold == 0 {
		cfg.DegradedThreshold = def.DegradedThreshold
	}

	subsystems := make(map[domain.Subsystem]domain.SubsystemStatus)
	for _, s := range domain.Subsystems() {
		subsystems[s] = domain.StatusHealthy
	}

	return &Monitor{
		cfg:    cfg,
		prober: prober,
		conn:   conn,
		log:    slog.Default().With("component", "health"),
		last: domain.SystemHealth{
			Subsystems:  subsystems,
			Overall:     domain.StatusHealthy,
			LastChecked: time.Now(),
		},
	}
}

// Start runs the check loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.CheckNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

// Snapshot returns the latest health report without probing.
func (m *Monitor) Snapshot() domain.SystemHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subsystems := make(map[domain.Subsystem]domain.SubsystemStatus, len(m.last.Subsystems))
	for k, v := range m.last.Subsystems {
		subsystems[k] = v
	}
	return domain.SystemHealth{
		Subsystems:  subsystems,
		Overall:     m.last.Overall,
		LastChecked: m.last.LastChecked,
	}
}

// CheckNow probes every subsystem and replaces the snapshot wholesale.
func (m *Monitor) CheckNow(ctx context.Context) domain.SystemHealth {
	subsystems := make(map[domain.Subsystem]domain.SubsystemStatus)

	offline := m.conn != nil && m.conn.IsOffline()

	for _, s := range domain.Subsystems() {
		if offline {
			subsystems[s] = domain.StatusOffline
			continue
		}
		subsystems[s] = m.probeOne(ctx, s)
	}

	report := domain.SystemHealth{
		Subsystems:  subsystems,
		Overall:     Aggregate(subsystems),
		LastChecked: time.Now(),
	}

	for s, status := range subsystems {
		metrics.SetSubsystemHealth(s, status)
	}
	if report.Overall != domain.StatusHealthy {
		m.log.Warn("System health degraded", "overall", report.Overall)
	}

	m.mu.Lock()
	m.last = report
	m.mu.Unlock()

	return report
}

// probeOne runs a single time-boxed probe. A probe that fails or times out
// yields critical; a slow probe yields degraded.
func (m *Monitor) probeOne(ctx context.Context, s domain.Subsystem) domain.SubsystemStatus {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	err := m.prober.Probe(probeCtx, s)
	latency := time.Since(start)

	if err != nil {
		m.log.Debug("Subsystem probe failed", "subsystem", s, "error", err)
		return domain.StatusCritical
	}
	if latency > m.cfg.DegradedThreshold {
		return domain.StatusDegraded
	}
	return domain.StatusHealthy
}

// Aggregate derives the overall status: healthy iff all healthy, critical if
// any critical or offline, otherwise degraded.
func Aggregate(subsystems map[domain.Subsystem]domain.SubsystemStatus) domain.SubsystemStatus {
	allHealthy := true
	allOffline := len(subsystems) > 0
	anyCritical := false

	for _, status := range subsystems {
		if status != domain.StatusHealthy {
			allHealthy = false
		}
		if status != domain.StatusOffline {
			allOffline = false
		}
		if status == domain.StatusCritical {
			anyCritical = true
		}
	}

	switch {
	case allHealthy:
		return domain.StatusHealthy
	case allOffline:
		return domain.StatusOffline
	case anyCritical:
		return domain.StatusCritical
	default:
		return domain.StatusDegraded
	}
}
