package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/infra/persistence"
	"github.com/vietddude/lifeline/internal/resilience/metrics"
)

// CachedResponse is a reusable remote result kept for offline answers.
type CachedResponse struct {
	Response  string    `json:"response"`
	ImageURL  string    `json:"image_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expires_at"`
}

// snapshotState is the durable layout persisted under one store key.
type snapshotState struct {
	Operations        []*domain.OfflineOperation `json:"operations"`
	CachedResponses   map[string]CachedResponse  `json:"cached_responses"`
	LastOnline        time.Time                  `json:"last_online"`
	OfflineDurationMs int64                      `json:"offline_duration_ms"`
	SavedAt           time.Time                  `json:"saved_at"`
}

// Persist serializes the queue and derived state to the durable store.
func (q *Queue) Persist(ctx context.Context) error {
	q.mu.Lock()
	state := snapshotState{
		Operations:        make([]*domain.OfflineOperation, 0, len(q.ops)),
		CachedResponses:   make(map[string]CachedResponse, len(q.cached)),
		LastOnline:        q.lastOnline,
		OfflineDurationMs: q.offlineDuration.Milliseconds(),
		SavedAt:           time.Now(),
	}
	for _, op := range q.ops {
		cp := *op
		state.Operations = append(state.Operations, &cp)
	}
	for k, v := range q.cached {
		state.CachedResponses[k] = v
	}
	q.mu.Unlock()

	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal queue state: %w", err)
	}
	if err := q.store.Save(ctx, q.cfg.StorageKey, blob); err != nil {
		return fmt.Errorf("failed to save queue state: %w", err)
	}
	return nil
}

// Restore rebuilds the queue from the durable store. A missing snapshot is
// not an error. Operations caught mid-processing by a crash revert to
// pending.
func (q *Queue) Restore(ctx context.Context) error {
	blob, err := q.store.Load(ctx, q.cfg.StorageKey)
	if errors.Is(err, persistence.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load queue state: %w", err)
	}

	var state snapshotState
	if err := json.Unmarshal(blob, &state); err != nil {
		return fmt.Errorf("failed to unmarshal queue state: %w", err)
	}

	q.mu.Lock()
	q.ops = q.ops[:0]
	for _, op := range state.Operations {
		if op.Status == domain.OperationStatusProcessing {
			op.Status = domain.OperationStatusPending
		}
		if op.Status != domain.OperationStatusPending {
			continue
		}
		q.ops = append(q.ops, op)
	}
	q.cached = state.CachedResponses
	if q.cached == nil {
		q.cached = make(map[string]CachedResponse)
	}
	if !state.LastOnline.IsZero() {
		q.lastOnline = state.LastOnline
	}
	q.offlineDuration = time.Duration(state.OfflineDurationMs) * time.Millisecond
	depth := len(q.ops)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	q.log.Info("Restored offline queue state",
		"operations", depth, "cached_responses", len(state.CachedResponses))
	return nil
}

// CacheResponse stores a reusable response under a lookup key.
func (q *Queue) CacheResponse(key string, resp CachedResponse) {
	if resp.Timestamp.IsZero() {
		resp.Timestamp = time.Now()
	}
	q.mu.Lock()
	q.cached[key] = resp
	q.mu.Unlock()
}

// CachedResponseFor returns a fresh cached response for the key, if any.
func (q *Queue) CachedResponseFor(key string) (CachedResponse, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	resp, ok := q.cached[key]
	if !ok {
		return CachedResponse{}, false
	}
	if !resp.ExpiresAt.IsZero() && time.Now().After(resp.ExpiresAt) {
		delete(q.cached, key)
		return CachedResponse{}, false
	}
	return resp, true
}
