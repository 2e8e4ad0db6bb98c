package offline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/infra/persistence/memorystore"
	"github.com/vietddude/lifeline/internal/resilience/connectivity"
)

// fakeDispatcher scripts per-operation outcomes.
type fakeDispatcher struct {
	mu       sync.Mutex
	failIDs  map[string]bool
	failAll  bool
	executed []string
	block    chan struct{} // non-nil blocks Dispatch until closed
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, op *domain.OfflineOperation) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.executed = append(f.executed, op.ID)
	fail := f.failAll || f.failIDs[op.ID]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("dispatch failed for %s", op.ID)
	}
	return nil
}

func (f *fakeDispatcher) executedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.executed))
	copy(out, f.executed)
	return out
}

// fakeHealth returns a fixed snapshot.
type fakeHealth struct {
	overall domain.SubsystemStatus
}

func (f *fakeHealth) Snapshot() domain.SystemHealth {
	return domain.SystemHealth{Overall: f.overall, LastChecked: time.Now()}
}

func newTestQueue(
	dispatcher Dispatcher,
	conn connectivity.Source,
	health HealthSource,
) *Queue {
	return NewQueue(Config{
		DrainInterval:     time.Hour, // ticks never fire in tests
		PersistInterval:   time.Hour,
		BatchSize:         5,
		DefaultMaxRetries: 3,
	}, dispatcher, memorystore.New(), conn, health)
}

func TestQueue_EnqueueDefaults(t *testing.T) {
	q := newTestQueue(&fakeDispatcher{}, connectivity.NewStatic(domain.ConnectivityOnline), &fakeHealth{overall: domain.StatusHealthy})

	id, err := q.Enqueue(&domain.OfflineOperation{Type: domain.OperationChat})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if id == "" {
		t.Error("expected generated id")
	}

	ops := q.Pending()
	if len(ops) != 1 {
		t.Fatalf("expected 1 pending op, got %d", len(ops))
	}
	op := ops[0]
	if op.Priority != domain.PriorityMedium {
		t.Errorf("expected default medium priority, got %s", op.Priority)
	}
	if op.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", op.MaxRetries)
	}
	if op.Status != domain.OperationStatusPending {
		t.Errorf("expected pending status, got %s", op.Status)
	}
	if op.EnqueuedAt.IsZero() {
		t.Error("expected enqueue timestamp set")
	}
}

func TestQueue_OrderedByPriorityThenAge(t *testing.T) {
	q := newTestQueue(&fakeDispatcher{}, connectivity.NewStatic(domain.ConnectivityOnline), &fakeHealth{overall: domain.StatusHealthy})

	base := time.Now()
	q.Enqueue(&domain.OfflineOperation{ID: "low", Priority: domain.PriorityLow, EnqueuedAt: base})
	q.Enqueue(&domain.OfflineOperation{ID: "high-late", Priority: domain.PriorityHigh, EnqueuedAt: base.Add(time.Second)})
	q.Enqueue(&domain.OfflineOperation{ID: "high-early", Priority: domain.PriorityHigh, EnqueuedAt: base})
	q.Enqueue(&domain.OfflineOperation{ID: "med", Priority: domain.PriorityMedium, EnqueuedAt: base})

	want := []string{"high-early", "high-late", "med", "low"}
	ops := q.Pending()
	for i, id := range want {
		if ops[i].ID != id {
			t.Fatalf("queue order = %v, want %v", ids(ops), want)
		}
	}
}

func ids(ops []*domain.OfflineOperation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.ID
	}
	return out
}

func TestQueue_DrainSkipsWhileOffline(t *testing.T) {
	d := &fakeDispatcher{}
	q := newTestQueue(d, connectivity.NewStatic(domain.ConnectivityOffline), &fakeHealth{overall: domain.StatusHealthy})
	q.Enqueue(&domain.OfflineOperation{ID: "op-1"})

	q.drainBatch(context.Background())

	if len(d.executedIDs()) != 0 {
		t.Error("must not dispatch while offline")
	}
	if len(q.Pending()) != 1 {
		t.Error("operation must stay queued")
	}
}

func TestQueue_DrainRemovesCompleted(t *testing.T) {
	d := &fakeDispatcher{}
	q := newTestQueue(d, connectivity.NewStatic(domain.ConnectivityOnline), &fakeHealth{overall: domain.StatusHealthy})
	q.Enqueue(&domain.OfflineOperation{ID: "op-1"})
	q.Enqueue(&domain.OfflineOperation{ID: "op-2"})

	q.drainBatch(context.Background())

	if len(q.Pending()) != 0 {
		t.Errorf("expected queue drained, got %d pending", len(q.Pending()))
	}
	if got := d.executedIDs(); len(got) != 2 {
		t.Errorf("expected both ops dispatched, got %v", got)
	}
}

func TestQueue_DrainBatchIsBounded(t *testing.T) {
	d := &fakeDispatcher{}
	q := newTestQueue(d, connectivity.NewStatic(domain.ConnectivityOnline), &fakeHealth{overall: domain.StatusHealthy})
	for i := 0; i < 8; i++ {
		q.Enqueue(&domain.OfflineOperation{ID: fmt.Sprintf("op-%d", i)})
	}

	q.drainBatch(context.Background())

	if len(d.executedIDs()) != 5 {
		t.Errorf("expected batch of 5, got %d", len(d.executedIDs()))
	}
	if len(q.Pending()) != 3 {
		t.Errorf("expected 3 left, got %d", len(q.Pending()))
	}
}

func TestQueue_RetryUntilExhaustionThenDrop(t *testing.T) {
	d := &fakeDispatcher{failAll: true}
	q := newTestQueue(d, connectivity.NewStatic(domain.ConnectivityOnline), &fakeHealth{overall: domain.StatusHealthy})
	q.Enqueue(&domain.OfflineOperation{ID: "doomed", MaxRetries: 3})

	// Attempts 1 and 2 revert to pending, attempt 3 exhausts and drops.
	for i := 0; i < 2; i++ {
		q.drainBatch(context.Background())
		ops := q.Pending()
		if len(ops) != 1 {
			t.Fatalf("attempt %d: expected op retained, got %d pending", i+1, len(ops))
		}
		if ops[0].RetryCount != i+1 {
			t.Errorf("attempt %d: retry count = %d", i+1, ops[0].RetryCount)
		}
		if ops[0].Status != domain.OperationStatusPending {
			t.Errorf("attempt %d: status = %s", i+1, ops[0].Status)
		}
	}

	q.drainBatch(context.Background())
	if len(q.Pending()) != 0 {
		t.Error("expected op dropped after exactly MaxRetries attempts")
	}
	if len(d.executedIDs()) != 3 {
		t.Errorf("expected exactly 3 dispatch attempts, got %d", len(d.executedIDs()))
	}

	stats := q.Stats()
	if stats["failed_total"] != 1 {
		t.Errorf("expected failed_total 1, got %v", stats["failed_total"])
	}
}

func TestQueue_SyncDrainsEverything(t *testing.T) {
	d := &fakeDispatcher{}
	q := newTestQueue(d, connectivity.NewStatic(domain.ConnectivityOnline), &fakeHealth{overall: domain.StatusHealthy})
	for i := 0; i < 12; i++ {
		q.Enqueue(&domain.OfflineOperation{ID: fmt.Sprintf("op-%d", i)})
	}

	result, err := q.SyncPendingOperations(context.Background())
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !result.Success {
		t.Error("expected success with no failures")
	}
	if result.OperationsSynced != 12 {
		t.Errorf("expected 12 synced, got %d", result.OperationsSynced)
	}
	if len(q.Pending()) != 0 {
		t.Errorf("expected empty queue, got %d", len(q.Pending()))
	}
}

func TestQueue_SyncReportsPartialFailure(t *testing.T) {
	d := &fakeDispatcher{failIDs: map[string]bool{"bad": true}}
	q := newTestQueue(d, connectivity.NewStatic(domain.ConnectivityOnline), &fakeHealth{overall: domain.StatusHealthy})
	q.Enqueue(&domain.OfflineOperation{ID: "good"})
	q.Enqueue(&domain.OfflineOperation{ID: "bad"})

	result, err := q.SyncPendingOperations(context.Background())
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.Success {
		t.Error("expected partial failure")
	}
	if result.OperationsSynced != 1 || result.OperationsFailed != 1 {
		t.Errorf("synced=%d failed=%d, want 1/1", result.OperationsSynced, result.OperationsFailed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error recorded, got %d", len(result.Errors))
	}

	// The failed op reverts to pending and is not reprocessed in this run.
	if len(q.Pending()) != 1 {
		t.Errorf("expected failed op retained, got %d", len(q.Pending()))
	}
}

func TestQueue_SyncIsSingleFlight(t *testing.T) {
	block := make(chan struct{})
	d := &fakeDispatcher{block: block}
	q := newTestQueue(d, connectivity.NewStatic(domain.ConnectivityOnline), &fakeHealth{overall: domain.StatusHealthy})
	q.Enqueue(&domain.OfflineOperation{ID: "op-1"})

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		q.SyncPendingOperations(context.Background())
		close(done)
	}()

	<-started
	// Give the first sync time to claim the flag.
	time.Sleep(20 * time.Millisecond)

	_, err := q.SyncPendingOperations(context.Background())
	if err == nil {
		t.Fatal("expected concurrent sync rejected")
	}
	var typed *domain.TypedError
	if !asTyped(err, &typed) || typed.Kind != domain.KindSyncAlreadyInProgress {
		t.Errorf("expected KindSyncAlreadyInProgress, got %v", err)
	}

	close(block)
	<-done

	// The flag is released after completion.
	if _, err := q.SyncPendingOperations(context.Background()); err != nil {
		t.Errorf("expected sync allowed after first finished, got %v", err)
	}
}

func asTyped(err error, target **domain.TypedError) bool {
	t, ok := err.(*domain.TypedError)
	if ok {
		*target = t
	}
	return ok
}

func TestQueue_ConnectivityRestoreSignalsDrain(t *testing.T) {
	conn := connectivity.NewStatic(domain.ConnectivityOffline)
	q := newTestQueue(&fakeDispatcher{}, conn, &fakeHealth{overall: domain.StatusHealthy})

	conn.SetState(domain.ConnectivityOnline, 1.0)

	select {
	case <-q.drainCh:
	default:
		t.Error("expected drain signal after connectivity restored")
	}
}

func TestQueue_StatsShape(t *testing.T) {
	q := newTestQueue(&fakeDispatcher{}, connectivity.NewStatic(domain.ConnectivityOnline), &fakeHealth{overall: domain.StatusHealthy})
	q.Enqueue(&domain.OfflineOperation{Priority: domain.PriorityHigh})
	q.Enqueue(&domain.OfflineOperation{Priority: domain.PriorityHigh})
	q.Enqueue(&domain.OfflineOperation{Priority: domain.PriorityLow})

	stats := q.Stats()
	if stats["pending"] != 3 {
		t.Errorf("expected 3 pending, got %v", stats["pending"])
	}
	byPriority, ok := stats["by_priority"].(map[string]int)
	if !ok {
		t.Fatalf("unexpected by_priority type %T", stats["by_priority"])
	}
	if byPriority["high"] != 2 || byPriority["low"] != 1 {
		t.Errorf("unexpected priority breakdown: %v", byPriority)
	}
}

// -----------------------------------------------------------------------------
// capability
// -----------------------------------------------------------------------------

func TestQueue_CapabilityLevels(t *testing.T) {
	cases := []struct {
		name   string
		state  domain.ConnectivityState
		health domain.SubsystemStatus
		want   domain.Capability
	}{
		{"online healthy", domain.ConnectivityOnline, domain.StatusHealthy, domain.CapabilityFull},
		{"slow", domain.ConnectivitySlow, domain.StatusHealthy, domain.CapabilityLimited},
		{"degraded health", domain.ConnectivityOnline, domain.StatusDegraded, domain.CapabilityLimited},
		{"unstable", domain.ConnectivityUnstable, domain.StatusHealthy, domain.CapabilityMinimal},
		{"critical health", domain.ConnectivityOnline, domain.StatusCritical, domain.CapabilityMinimal},
		{"offline", domain.ConnectivityOffline, domain.StatusHealthy, domain.CapabilityNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := connectivity.NewStatic(tc.state)
			q := newTestQueue(&fakeDispatcher{}, conn, &fakeHealth{overall: tc.health})
			if got := q.CurrentCapability(); got != tc.want {
				t.Errorf("capability = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestQueue_CapabilityChangeNotifiesListeners(t *testing.T) {
	conn := connectivity.NewStatic(domain.ConnectivityOnline)
	q := newTestQueue(&fakeDispatcher{}, conn, &fakeHealth{overall: domain.StatusHealthy})

	var got []domain.Capability
	q.OnCapabilityChange(func(c domain.Capability) { got = append(got, c) })

	conn.SetState(domain.ConnectivityOffline, 0)
	conn.SetState(domain.ConnectivityOnline, 1.0)

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0] != domain.CapabilityNone || got[1] != domain.CapabilityFull {
		t.Errorf("unexpected capability sequence: %v", got)
	}
}
