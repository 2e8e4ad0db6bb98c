package recovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
)

// stubStrategy is a scriptable strategy for engine tests.
type stubStrategy struct {
	name     string
	priority int
	applies  bool
	execute  func(ctx context.Context, fctx *domain.FailureContext) (*domain.RecoveryResult, error)
}

func (s *stubStrategy) Name() string             { return s.name }
func (s *stubStrategy) Priority() int            { return s.priority }
func (s *stubStrategy) MaxAttempts() int         { return 1 }
func (s *stubStrategy) BaseDelay() time.Duration { return 0 }

func (s *stubStrategy) AppliesTo(fctx *domain.FailureContext) bool { return s.applies }

func (s *stubStrategy) Execute(
	ctx context.Context,
	fctx *domain.FailureContext,
) (*domain.RecoveryResult, error) {
	return s.execute(ctx, fctx)
}

func succeeding(name string, priority int) *stubStrategy {
	return &stubStrategy{
		name: name, priority: priority, applies: true,
		execute: func(ctx context.Context, fctx *domain.FailureContext) (*domain.RecoveryResult, error) {
			return &domain.RecoveryResult{Success: true, Data: map[string]any{"by": name}}, nil
		},
	}
}

func failing(name string, priority int) *stubStrategy {
	return &stubStrategy{
		name: name, priority: priority, applies: true,
		execute: func(ctx context.Context, fctx *domain.FailureContext) (*domain.RecoveryResult, error) {
			return nil, fmt.Errorf("%s failed", name)
		},
	}
}

func TestEngine_NoStrategyRegistered(t *testing.T) {
	e := NewEngine(0)

	result := e.ExecuteRecovery(context.Background(), domain.OperationChat, nil)
	if result == nil {
		t.Fatal("result is nil")
	}
	if result.Success {
		t.Error("expected failure with empty registry")
	}
	if result.Err == nil || result.Err.Kind != domain.KindNoStrategyAvailable {
		t.Errorf("expected KindNoStrategyAvailable, got %v", result.Err)
	}
}

func TestEngine_PriorityOrder(t *testing.T) {
	e := NewEngine(0)
	// Registered low first; the high-priority one must still win.
	e.Register(domain.OperationChat, succeeding("low", 1))
	e.Register(domain.OperationChat, succeeding("high", 10))
	e.Register(domain.OperationChat, succeeding("mid", 5))

	result := e.ExecuteRecovery(context.Background(), domain.OperationChat, nil)
	if !result.Success {
		t.Fatalf("expected success, got %v", result.Err)
	}
	if result.StrategyName != "high" {
		t.Errorf("expected strategy high, got %s", result.StrategyName)
	}
}

func TestEngine_EqualPriorityKeepsRegistrationOrder(t *testing.T) {
	e := NewEngine(0)
	e.Register(domain.OperationChat, succeeding("first", 5))
	e.Register(domain.OperationChat, succeeding("second", 5))

	result := e.ExecuteRecovery(context.Background(), domain.OperationChat, nil)
	if result.StrategyName != "first" {
		t.Errorf("expected registration order tie-break, got %s", result.StrategyName)
	}
}

func TestEngine_FallsThroughOnFailure(t *testing.T) {
	e := NewEngine(0)
	e.Register(domain.OperationChat, failing("broken", 10))
	e.Register(domain.OperationChat, succeeding("backup", 1))

	result := e.ExecuteRecovery(context.Background(), domain.OperationChat, nil)
	if !result.Success {
		t.Fatalf("expected backup to succeed, got %v", result.Err)
	}
	if result.StrategyName != "backup" {
		t.Errorf("expected backup, got %s", result.StrategyName)
	}
	if result.RetryCount != 2 {
		t.Errorf("expected 2 attempts, got %d", result.RetryCount)
	}
}

func TestEngine_SkipsInapplicableStrategies(t *testing.T) {
	e := NewEngine(0)
	skipped := succeeding("skipped", 10)
	skipped.applies = false
	e.Register(domain.OperationChat, skipped)
	e.Register(domain.OperationChat, succeeding("eligible", 1))

	result := e.ExecuteRecovery(context.Background(), domain.OperationChat, nil)
	if result.StrategyName != "eligible" {
		t.Errorf("expected eligible, got %s", result.StrategyName)
	}
	if result.RetryCount != 1 {
		t.Errorf("inapplicable strategies must not count as attempts, got %d", result.RetryCount)
	}
}

func TestEngine_AbsorbsPanics(t *testing.T) {
	e := NewEngine(0)
	e.Register(domain.OperationChat, &stubStrategy{
		name: "panicky", priority: 10, applies: true,
		execute: func(ctx context.Context, fctx *domain.FailureContext) (*domain.RecoveryResult, error) {
			panic("boom")
		},
	})
	e.Register(domain.OperationChat, succeeding("calm", 1))

	result := e.ExecuteRecovery(context.Background(), domain.OperationChat, nil)
	if !result.Success {
		t.Fatalf("panic must not abort the search, got %v", result.Err)
	}
	if result.StrategyName != "calm" {
		t.Errorf("expected calm, got %s", result.StrategyName)
	}
}

func TestEngine_ExhaustionPreservesLastError(t *testing.T) {
	e := NewEngine(0)
	e.Register(domain.OperationChat, failing("a", 10))
	e.Register(domain.OperationChat, failing("b", 5))

	result := e.ExecuteRecovery(context.Background(), domain.OperationChat, nil)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.StrategyName != "none" {
		t.Errorf("expected strategy none, got %s", result.StrategyName)
	}
	if result.Err == nil {
		t.Fatal("expected last error preserved")
	}
	if result.RetryCount != 2 {
		t.Errorf("expected 2 attempts, got %d", result.RetryCount)
	}
}

func TestEngine_ContextDefaults(t *testing.T) {
	e := NewEngine(0)
	var seen domain.FailureContext
	e.Register(domain.OperationImage, &stubStrategy{
		name: "inspect", priority: 1, applies: true,
		execute: func(ctx context.Context, fctx *domain.FailureContext) (*domain.RecoveryResult, error) {
			seen = *fctx
			return &domain.RecoveryResult{Success: true}, nil
		},
	})

	e.ExecuteRecovery(context.Background(), domain.OperationImage, nil)

	if seen.Operation != domain.OperationImage {
		t.Errorf("expected operation set, got %s", seen.Operation)
	}
	if seen.AttemptCount != 1 {
		t.Errorf("expected attempt count defaulted to 1, got %d", seen.AttemptCount)
	}
	if seen.PartialData == nil {
		t.Error("expected partial data map initialized")
	}
	if seen.StartTime.IsZero() {
		t.Error("expected start time set")
	}
}

func TestEngine_HistoryRecordsAttempts(t *testing.T) {
	e := NewEngine(0)
	e.Register(domain.OperationChat, failing("a", 10))
	e.Register(domain.OperationChat, succeeding("b", 5))

	e.ExecuteRecovery(context.Background(), domain.OperationChat, nil)

	stats := e.History().Stats()
	if stats.Total != 2 {
		t.Errorf("expected 2 recorded attempts, got %d", stats.Total)
	}
	if stats.Successes != 1 {
		t.Errorf("expected 1 success, got %d", stats.Successes)
	}
}

func TestEngine_ConfiguredHistorySize(t *testing.T) {
	e := NewEngine(2)
	e.Register(domain.OperationChat, succeeding("only", 1))

	for i := 0; i < 5; i++ {
		e.ExecuteRecovery(context.Background(), domain.OperationChat, nil)
	}

	if got := e.History().Stats().Total; got != 2 {
		t.Errorf("expected history bounded at configured size 2, got %d", got)
	}
}

func TestHistory_RingBufferBound(t *testing.T) {
	h := NewHistory(10)
	for i := 0; i < 25; i++ {
		h.Record(Attempt{Strategy: fmt.Sprintf("s%d", i), Success: true, Timestamp: time.Now()})
	}

	recent := h.Recent(100)
	if len(recent) != 10 {
		t.Fatalf("expected ring bounded at 10, got %d", len(recent))
	}
	// Newest first
	if recent[0].Strategy != "s24" {
		t.Errorf("expected newest attempt first, got %s", recent[0].Strategy)
	}
}
