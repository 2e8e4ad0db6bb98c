package offline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/infra/persistence"
	"github.com/vietddude/lifeline/internal/resilience/connectivity"
	"github.com/vietddude/lifeline/internal/resilience/metrics"
)

// ErrSyncInProgress is returned when SyncPendingOperations is called while
// another sync is in flight. Syncs are single-flight by contract.
var ErrSyncInProgress = &domain.TypedError{
	Kind: domain.KindSyncAlreadyInProgress,
	Err:  fmt.Errorf("sync already in progress"),
}

// Config holds queue settings.
type Config struct {
	DrainInterval     time.Duration `yaml:"drain_interval"`
	PersistInterval   time.Duration `yaml:"persist_interval"`
	BatchSize         int           `yaml:"batch_size"`
	DefaultMaxRetries int           `yaml:"max_retries"`
	StorageKey        string        `yaml:"storage_key"`
}

// DefaultConfig returns the default queue cadence.
func DefaultConfig() Config {
	return Config{
		DrainInterval:     5 * time.Second,
		PersistInterval:   30 * time.Second,
		BatchSize:         5,
		DefaultMaxRetries: 3,
		StorageKey:        "offline_state",
	}
}

// HealthSource supplies the latest system health snapshot.
type HealthSource interface {
	Snapshot() domain.SystemHealth
}

// Queue owns every offline operation exclusively. All mutation happens
// under one mutex so a drain tick and a concurrent enqueue cannot corrupt
// ordering.
type Queue struct {
	cfg        Config
	dispatcher Dispatcher
	store      persistence.Store
	conn       connectivity.Source
	health     HealthSource
	log        *slog.Logger

	mu              sync.Mutex
	ops             []*domain.OfflineOperation
	cached          map[string]CachedResponse
	lastOnline      time.Time
	offlineSince    time.Time
	offlineDuration time.Duration
	completedTotal  int
	failedTotal     int

	syncing atomic.Bool
	drainCh chan struct{}

	capMu        sync.Mutex
	capability   domain.Capability
	capListeners []func(domain.Capability)
}

// NewQueue creates a queue. Call Restore before Start to rebuild state from
// the durable store.
func NewQueue(
	cfg Config,
	dispatcher Dispatcher,
	store persistence.Store,
	conn connectivity.Source,
	health HealthSource,
) *Queue {
	def := DefaultConfig()
	if cfg.DrainInterval == 0 {
		cfg.DrainInterval = def.DrainInterval
	}
	if cfg.PersistInterval == 0 {
		cfg.PersistInterval = def.PersistInterval
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.DefaultMaxRetries == 0 {
		cfg.DefaultMaxRetries = def.DefaultMaxRetries
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = def.StorageKey
	}

	q := &Queue{
		cfg:        cfg,
		dispatcher: dispatcher,
		store:      store,
		conn:       conn,
		health:     health,
		log:        slog.Default().With("component", "offline"),
		cached:     make(map[string]CachedResponse),
		lastOnline: time.Now(),
		drainCh:    make(chan struct{}, 1),
	}
	q.capability = q.computeCapability()

	conn.Subscribe(q.onConnectivityChange)
	return q
}

// Enqueue assigns an id and timestamp and inserts the operation keeping the
// queue sorted by (priority desc, enqueuedAt asc). Returns the id.
func (q *Queue) Enqueue(op *domain.OfflineOperation) (string, error) {
	if op == nil {
		return "", fmt.Errorf("operation is nil")
	}
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	if op.EnqueuedAt.IsZero() {
		op.EnqueuedAt = time.Now()
	}
	if op.Priority == "" {
		op.Priority = domain.PriorityMedium
	}
	if op.MaxRetries == 0 {
		op.MaxRetries = q.cfg.DefaultMaxRetries
	}
	if op.Payload == nil {
		op.Payload = make(map[string]any)
	}
	op.Status = domain.OperationStatusPending
	op.RetryCount = 0

	q.mu.Lock()
	q.ops = append(q.ops, op)
	sort.SliceStable(q.ops, func(i, j int) bool {
		if q.ops[i].Priority.Rank() != q.ops[j].Priority.Rank() {
			return q.ops[i].Priority.Rank() > q.ops[j].Priority.Rank()
		}
		return q.ops[i].EnqueuedAt.Before(q.ops[j].EnqueuedAt)
	})
	depth := len(q.ops)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	q.log.Debug("Enqueued offline operation",
		"id", op.ID, "type", op.Type, "priority", op.Priority, "depth", depth)
	return op.ID, nil
}

// Start runs the drain and persistence loops until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	drainTicker := time.NewTicker(q.cfg.DrainInterval)
	defer drainTicker.Stop()
	persistTicker := time.NewTicker(q.cfg.PersistInterval)
	defer persistTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-drainTicker.C:
			q.drainBatch(ctx)
			q.refreshCapability()
		case <-q.drainCh:
			q.drainBatch(ctx)
		case <-persistTicker.C:
			if err := q.Persist(ctx); err != nil {
				q.log.Error("Failed to persist queue state", "error", err)
			}
		}
	}
}

// Stop persists the queue state one last time.
func (q *Queue) Stop(ctx context.Context) error {
	return q.Persist(ctx)
}

// onConnectivityChange tracks offline spans and triggers an immediate drain
// when connectivity returns.
func (q *Queue) onConnectivityChange(state domain.ConnectivityState, quality float64) {
	q.mu.Lock()
	if state == domain.ConnectivityOffline {
		if q.offlineSince.IsZero() {
			q.offlineSince = time.Now()
		}
	} else {
		if !q.offlineSince.IsZero() {
			q.offlineDuration += time.Since(q.offlineSince)
			q.offlineSince = time.Time{}
		}
		q.lastOnline = time.Now()
	}
	q.mu.Unlock()

	q.refreshCapability()

	if state != domain.ConnectivityOffline {
		select {
		case q.drainCh <- struct{}{}:
		default:
		}
	}
}

// drainBatch processes a bounded batch of pending operations.
func (q *Queue) drainBatch(ctx context.Context) {
	if q.conn.IsOffline() {
		return
	}
	batch := q.claimPending(q.cfg.BatchSize)
	for _, op := range batch {
		q.executeOne(ctx, op)
	}
}

// claimPending marks up to n pending operations as processing and returns
// them, preserving queue order.
func (q *Queue) claimPending(n int) []*domain.OfflineOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	var batch []*domain.OfflineOperation
	for _, op := range q.ops {
		if len(batch) == n {
			break
		}
		if op.Status == domain.OperationStatusPending {
			op.Status = domain.OperationStatusProcessing
			batch = append(batch, op)
		}
	}
	return batch
}

type execOutcome int

const (
	outcomeCompleted execOutcome = iota
	outcomeRetried
	outcomeFailed
)

// executeOne dispatches one claimed operation and settles its outcome.
func (q *Queue) executeOne(ctx context.Context, op *domain.OfflineOperation) (execOutcome, error) {
	err := q.dispatcher.Dispatch(ctx, op)

	q.mu.Lock()
	defer q.mu.Unlock()

	if err == nil {
		q.removeLocked(op.ID)
		q.completedTotal++
		metrics.QueueOperations.WithLabelValues(string(op.Type), "completed").Inc()
		metrics.QueueDepth.Set(float64(len(q.ops)))
		q.log.Debug("Offline operation completed", "id", op.ID, "type", op.Type)
		return outcomeCompleted, nil
	}

	op.RetryCount++
	if op.RetryCount < op.MaxRetries {
		op.Status = domain.OperationStatusPending
		metrics.QueueOperations.WithLabelValues(string(op.Type), "retried").Inc()
		q.log.Debug("Offline operation failed, will retry",
			"id", op.ID, "type", op.Type, "retry", op.RetryCount, "error", err)
		return outcomeRetried, err
	}

	// Retries exhausted: log before removal so nothing vanishes silently.
	op.Status = domain.OperationStatusFailed
	q.removeLocked(op.ID)
	q.failedTotal++
	metrics.QueueOperations.WithLabelValues(string(op.Type), "failed").Inc()
	metrics.QueueDepth.Set(float64(len(q.ops)))
	q.log.Warn("Offline operation dropped after exhausting retries",
		"id", op.ID, "type", op.Type, "retries", op.RetryCount, "error", err)
	return outcomeFailed, err
}

func (q *Queue) removeLocked(id string) {
	for i, op := range q.ops {
		if op.ID == id {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			return
		}
	}
}

// SyncPendingOperations drains the entire pending set once, exclusively.
// A concurrent call fails fast with ErrSyncInProgress and processes
// nothing.
func (q *Queue) SyncPendingOperations(ctx context.Context) (*domain.SyncResult, error) {
	if !q.syncing.CompareAndSwap(false, true) {
		metrics.SyncRuns.WithLabelValues("rejected").Inc()
		return nil, ErrSyncInProgress
	}
	defer q.syncing.Store(false)

	start := time.Now()
	result := &domain.SyncResult{}

	// Claim the whole pending set up front so an operation that reverts to
	// pending during this run is not processed twice.
	batch := q.claimPending(q.pendingCount())

	for _, op := range batch {
		outcome, err := q.executeOne(ctx, op)
		switch outcome {
		case outcomeCompleted:
			result.OperationsSynced++
		case outcomeRetried:
			result.OperationsFailed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s (%s): %v", op.ID, op.Type, err))
		case outcomeFailed:
			result.OperationsFailed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s (%s): retries exhausted: %v", op.ID, op.Type, err))
		}
	}

	result.Duration = time.Since(start)
	result.Success = result.OperationsFailed == 0

	outcome := "success"
	if !result.Success {
		outcome = "partial"
	}
	metrics.SyncRuns.WithLabelValues(outcome).Inc()
	q.log.Info("Sync completed",
		"synced", result.OperationsSynced,
		"failed", result.OperationsFailed,
		"duration", result.Duration)
	return result, nil
}

func (q *Queue) pendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, op := range q.ops {
		if op.Status == domain.OperationStatusPending {
			n++
		}
	}
	return n
}

// Pending returns a copy of the queued operations, in drain order.
func (q *Queue) Pending() []*domain.OfflineOperation {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*domain.OfflineOperation, 0, len(q.ops))
	for _, op := range q.ops {
		cp := *op
		out = append(out, &cp)
	}
	return out
}

// Stats returns a snapshot of queue counters for the stats endpoint.
func (q *Queue) Stats() map[string]any {
	q.mu.Lock()
	defer q.mu.Unlock()

	byPriority := make(map[string]int)
	for _, op := range q.ops {
		byPriority[string(op.Priority)]++
	}

	offlineDuration := q.offlineDuration
	if !q.offlineSince.IsZero() {
		offlineDuration += time.Since(q.offlineSince)
	}

	return map[string]any{
		"pending":             len(q.ops),
		"by_priority":         byPriority,
		"completed_total":     q.completedTotal,
		"failed_total":        q.failedTotal,
		"cached_responses":    len(q.cached),
		"last_online":         q.lastOnline,
		"offline_duration_ms": offlineDuration.Milliseconds(),
	}
}
