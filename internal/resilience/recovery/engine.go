// Package recovery chooses, in priority order, among registered recovery
// strategies when an upstream operation fails, and always hands the caller
// a usable result.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/resilience/metrics"
)

// defaultHistorySize bounds the attempt ring buffer when no size is
// configured.
const defaultHistorySize = 100

// Strategy is a named, conditionally-applicable procedure that attempts to
// produce a usable result after a failure. Strategies are registered per
// operation type at start-up and immutable afterwards.
type Strategy interface {
	Name() string

	// Priority orders strategies: higher is tried first. Equal priorities
	// keep registration order.
	Priority() int

	MaxAttempts() int
	BaseDelay() time.Duration

	// AppliesTo decides eligibility for this failure; it must not have
	// side effects.
	AppliesTo(fctx *domain.FailureContext) bool

	// Execute attempts recovery. A returned error or an unsuccessful
	// result means "try the next strategy".
	Execute(ctx context.Context, fctx *domain.FailureContext) (*domain.RecoveryResult, error)
}

// Engine holds the per-operation strategy registries and the attempt
// history.
type Engine struct {
	mu       sync.RWMutex
	registry map[domain.OperationType][]Strategy
	history  *History
	log      *slog.Logger
}

// NewEngine creates an empty engine retaining the last historySize
// attempts; a non-positive size falls back to the default.
func NewEngine(historySize int) *Engine {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Engine{
		registry: make(map[domain.OperationType][]Strategy),
		history:  NewHistory(historySize),
		log:      slog.Default().With("component", "recovery"),
	}
}

// Register adds a strategy for an operation type. Registration order is the
// tie-break for equal priorities.
func (e *Engine) Register(op domain.OperationType, s Strategy) {
	e.mu.Lock()
	e.registry[op] = append(e.registry[op], s)
	e.mu.Unlock()
}

// History exposes the attempt ring buffer for statistics.
func (e *Engine) History() *History {
	return e.history
}

// ExecuteRecovery runs the registered strategies for the operation type in
// strictly descending priority order and returns exactly one result. It
// never returns nil and never panics; a strategy failure only moves the
// search to the next strategy.
func (e *Engine) ExecuteRecovery(
	ctx context.Context,
	op domain.OperationType,
	partial *domain.FailureContext,
) *domain.RecoveryResult {
	start := time.Now()
	fctx := buildContext(op, partial)

	strategies := e.strategiesFor(op)
	if len(strategies) == 0 {
		return &domain.RecoveryResult{
			Success: false,
			Err: &domain.TypedError{
				Kind: domain.KindNoStrategyAvailable,
				Err:  fmt.Errorf("no strategy registered for operation %s", op),
			},
			StrategyName: "none",
			Timestamp:    time.Now(),
		}
	}

	var lastErr *domain.TypedError
	if fctx.LastError != nil {
		lastErr = fctx.LastError
	}

	attempts := 0
	for _, s := range strategies {
		if !s.AppliesTo(&fctx) {
			continue
		}
		attempts++

		attemptStart := time.Now()
		result, err := execute(ctx, s, &fctx)
		elapsed := time.Since(attemptStart)

		success := err == nil && result != nil && result.Success
		e.recordAttempt(op, s.Name(), success, err, elapsed)

		if success {
			if result.StrategyName == "" {
				result.StrategyName = s.Name()
			}
			result.RetryCount = attempts
			result.Timestamp = time.Now()
			metrics.RecoveryDuration.WithLabelValues(string(op)).
				Observe(time.Since(start).Seconds())
			return result
		}

		if err != nil {
			lastErr = Typed(err)
		} else if result != nil && result.Err != nil {
			lastErr = result.Err
		}
		e.log.Debug("Strategy failed, trying next",
			"operation", op, "strategy", s.Name(), "error", lastErr)
	}

	metrics.RecoveryDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	// Every strategy exhausted. Preserve the last error for diagnostics.
	return &domain.RecoveryResult{
		Success:      false,
		Err:          lastErr,
		StrategyName: "none",
		RetryCount:   attempts,
		Timestamp:    time.Now(),
	}
}

// strategiesFor snapshots the registry, sorted by priority descending with
// stable order for ties.
func (e *Engine) strategiesFor(op domain.OperationType) []Strategy {
	e.mu.RLock()
	registered := e.registry[op]
	strategies := make([]Strategy, len(registered))
	copy(strategies, registered)
	e.mu.RUnlock()

	sort.SliceStable(strategies, func(i, j int) bool {
		return strategies[i].Priority() > strategies[j].Priority()
	})
	return strategies
}

func (e *Engine) recordAttempt(
	op domain.OperationType,
	strategy string,
	success bool,
	err error,
	elapsed time.Duration,
) {
	outcome := "success"
	errMsg := ""
	if !success {
		outcome = "failure"
		if err != nil {
			errMsg = err.Error()
		}
	}
	metrics.RecoveryAttempts.WithLabelValues(string(op), strategy, outcome).Inc()
	e.history.Record(Attempt{
		Operation: op,
		Strategy:  strategy,
		Success:   success,
		Error:     errMsg,
		Duration:  elapsed,
		Timestamp: time.Now(),
	})
}

// execute shields the engine from a panicking strategy: a panic is treated
// as "strategy failed, try next".
func execute(
	ctx context.Context,
	s Strategy,
	fctx *domain.FailureContext,
) (result *domain.RecoveryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Execute(ctx, fctx)
}

// buildContext fills in the defaults the failure site may have omitted.
func buildContext(op domain.OperationType, partial *domain.FailureContext) domain.FailureContext {
	var fctx domain.FailureContext
	if partial != nil {
		fctx = *partial
	}
	fctx.Operation = op
	if fctx.AttemptCount < 1 {
		fctx.AttemptCount = 1
	}
	if fctx.StartTime.IsZero() {
		fctx.StartTime = time.Now()
	}
	if fctx.PartialData == nil {
		fctx.PartialData = make(map[string]any)
	}
	return fctx
}
