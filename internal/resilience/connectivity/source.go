// Package connectivity classifies the network link into discrete states and
// notifies subscribers on change.
package connectivity

import (
	"sync"

	"github.com/vietddude/lifeline/internal/core/domain"
)

// Listener receives state change notifications.
type Listener func(state domain.ConnectivityState, quality float64)

// Source supplies the current connectivity state and quality score.
type Source interface {
	State() domain.ConnectivityState
	Quality() float64
	IsOnline() bool
	IsOffline() bool
	Subscribe(fn Listener)
}

// StaticSource is a settable source, used in tests and in deployments where
// connectivity is managed externally.
type StaticSource struct {
	mu        sync.RWMutex
	state     domain.ConnectivityState
	quality   float64
	listeners []Listener
}

// NewStatic creates a source fixed at the given state until SetState is called.
func NewStatic(state domain.ConnectivityState) *StaticSource {
	quality := 1.0
	if state == domain.ConnectivityOffline {
		quality = 0
	}
	return &StaticSource{state: state, quality: quality}
}

// State returns the current state.
func (s *StaticSource) State() domain.ConnectivityState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Quality returns the current quality score in [0, 1].
func (s *StaticSource) Quality() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quality
}

// IsOnline reports whether any remote work can be attempted.
func (s *StaticSource) IsOnline() bool {
	return s.State() != domain.ConnectivityOffline
}

// IsOffline reports whether the link is down.
func (s *StaticSource) IsOffline() bool {
	return s.State() == domain.ConnectivityOffline
}

// Subscribe registers a listener for state changes.
func (s *StaticSource) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// SetState updates the state and notifies subscribers if it changed.
func (s *StaticSource) SetState(state domain.ConnectivityState, quality float64) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.quality = quality
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(state, quality)
	}
}
