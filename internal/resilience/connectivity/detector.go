package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/resilience/metrics"
)

// DetectorConfig holds probe settings for the connectivity detector.
type DetectorConfig struct {
	ProbeURL         string        `yaml:"probe_url"`
	Interval         time.Duration `yaml:"interval"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	SlowThreshold    time.Duration `yaml:"slow_threshold"`
	FailureThreshold int           `yaml:"failure_threshold"`
	WindowSize       int           `yaml:"window_size"`
}

// DefaultDetectorConfig returns sensible probe defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ProbeURL:         "https://www.google.com/generate_204",
		Interval:         10 * time.Second,
		ProbeTimeout:     5 * time.Second,
		SlowThreshold:    2 * time.Second,
		FailureThreshold: 3,
		WindowSize:       10,
	}
}

type probeOutcome struct {
	ok      bool
	latency time.Duration
}

// Detector derives the connectivity state from periodic HTTP probes.
// Consecutive failures beyond the threshold mean OFFLINE; intermittent
// failures inside the window mean UNSTABLE; high latency means SLOW.
type Detector struct {
	cfg    DetectorConfig
	client *http.Client
	log    *slog.Logger

	mu          sync.RWMutex
	state       domain.ConnectivityState
	quality     float64
	consecFails int
	window      []probeOutcome
	listeners   []Listener
}

// NewDetector creates a detector; the initial state is ONLINE until the
// first probe says otherwise.
func NewDetector(cfg DetectorConfig) *Detector {
	def := DefaultDetectorConfig()
	if cfg.ProbeURL == "" {
		cfg.ProbeURL = def.ProbeURL
	}
	if cfg.Interval == 0 {
		cfg.Interval = def.Interval
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = def.ProbeTimeout
	}
	if cfg.SlowThreshold == 0 {
		cfg.SlowThreshold = def.SlowThreshold
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = def.WindowSize
	}

	return &Detector{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.ProbeTimeout},
		log:     slog.Default().With("component", "connectivity"),
		state:   domain.ConnectivityOnline,
		quality: 1.0,
	}
}

// Start runs the probe loop until ctx is cancelled.
func (d *Detector) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	d.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.probe(ctx)
		}
	}
}

// State returns the current state.
func (d *Detector) State() domain.ConnectivityState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Quality returns the fraction of recent probes that succeeded.
func (d *Detector) Quality() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.quality
}

// IsOnline reports whether any remote work can be attempted.
func (d *Detector) IsOnline() bool {
	return d.State() != domain.ConnectivityOffline
}

// IsOffline reports whether the link is down.
func (d *Detector) IsOffline() bool {
	return d.State() == domain.ConnectivityOffline
}

// Subscribe registers a listener for state changes.
func (d *Detector) Subscribe(fn Listener) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

func (d *Detector) probe(ctx context.Context) {
	start := time.Now()
	err := d.doProbe(ctx)
	latency := time.Since(start)

	d.record(probeOutcome{ok: err == nil, latency: latency})
}

func (d *Detector) doProbe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.cfg.ProbeURL, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// record folds one probe outcome into the window and recomputes the state.
func (d *Detector) record(o probeOutcome) {
	d.mu.Lock()

	if o.ok {
		d.consecFails = 0
	} else {
		d.consecFails++
	}

	d.window = append(d.window, o)
	if len(d.window) > d.cfg.WindowSize {
		d.window = d.window[1:]
	}

	successes := 0
	for _, w := range d.window {
		if w.ok {
			successes++
		}
	}
	d.quality = float64(successes) / float64(len(d.window))

	newState := d.deriveState(o)
	changed := newState != d.state
	old := d.state
	d.state = newState
	quality := d.quality
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.Unlock()

	metrics.SetConnectivityState(newState, quality)

	if !changed {
		return
	}
	d.log.Info("Connectivity state changed",
		"from", old, "to", newState, "quality", quality)
	for _, fn := range listeners {
		fn(newState, quality)
	}
}

func (d *Detector) deriveState(last probeOutcome) domain.ConnectivityState {
	if d.consecFails >= d.cfg.FailureThreshold {
		return domain.ConnectivityOffline
	}
	if d.quality < 0.7 {
		return domain.ConnectivityUnstable
	}
	if last.ok && last.latency > d.cfg.SlowThreshold {
		return domain.ConnectivitySlow
	}
	if !last.ok {
		return domain.ConnectivityUnstable
	}
	return domain.ConnectivityOnline
}
