package offline

import (
	"github.com/vietddude/lifeline/internal/core/domain"
)

// CurrentCapability returns the current offline capability level.
func (q *Queue) CurrentCapability() domain.Capability {
	q.capMu.Lock()
	defer q.capMu.Unlock()
	return q.capability
}

// OnCapabilityChange registers a listener fired whenever the capability
// level changes.
func (q *Queue) OnCapabilityChange(fn func(domain.Capability)) {
	q.capMu.Lock()
	q.capListeners = append(q.capListeners, fn)
	q.capMu.Unlock()
}

// refreshCapability recomputes the level and notifies listeners on change.
func (q *Queue) refreshCapability() {
	next := q.computeCapability()

	q.capMu.Lock()
	changed := next != q.capability
	q.capability = next
	listeners := make([]func(domain.Capability), len(q.capListeners))
	copy(listeners, q.capListeners)
	q.capMu.Unlock()

	if !changed {
		return
	}
	q.log.Info("Capability level changed", "capability", next)
	for _, fn := range listeners {
		fn(next)
	}
}

// computeCapability derives the level from connectivity and system health.
func (q *Queue) computeCapability() domain.Capability {
	if q.conn.IsOffline() {
		return domain.CapabilityNone
	}

	overall := domain.StatusHealthy
	if q.health != nil {
		overall = q.health.Snapshot().Overall
	}

	state := q.conn.State()
	switch {
	case state == domain.ConnectivityUnstable,
		overall == domain.StatusCritical,
		overall == domain.StatusOffline:
		return domain.CapabilityMinimal
	case state == domain.ConnectivitySlow, overall == domain.StatusDegraded:
		return domain.CapabilityLimited
	default:
		return domain.CapabilityFull
	}
}
