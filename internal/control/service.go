// Package control wires the resilience components together and owns the
// application lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/lifeline/internal/core/config"
	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/infra/persistence"
	"github.com/vietddude/lifeline/internal/infra/persistence/badgerstore"
	"github.com/vietddude/lifeline/internal/infra/persistence/memorystore"
	"github.com/vietddude/lifeline/internal/infra/persistence/redisstore"
	"github.com/vietddude/lifeline/internal/infra/remote"
	"github.com/vietddude/lifeline/internal/infra/remote/httpprobe"
	"github.com/vietddude/lifeline/internal/infra/remote/openaiclient"
	"github.com/vietddude/lifeline/internal/resilience/connectivity"
	"github.com/vietddude/lifeline/internal/resilience/fallback"
	"github.com/vietddude/lifeline/internal/resilience/health"
	"github.com/vietddude/lifeline/internal/resilience/offline"
	"github.com/vietddude/lifeline/internal/resilience/recovery"
)

// Strategy priorities, descending. Higher runs first.
const (
	priorityCompletePartial   = 10
	priorityDeriveFromContext = 8
	priorityQueueForLater     = 7
	priorityRetrySimplified   = 5
	priorityFallbackMessage   = 1
)

// Service is the main application struct that manages the component
// lifecycle.
type Service struct {
	cfg          *config.AppConfig
	store        persistence.Store
	client       remote.Client
	detector     *connectivity.Detector
	monitor      *health.Monitor
	healthServer *health.Server
	selector     *fallback.Selector
	engine       *recovery.Engine
	queue        *offline.Queue
	responder    *offline.OfflineResponder
	log          *slog.Logger
}

// NewService creates a service with all dependencies initialized.
func NewService(cfg *config.AppConfig) (*Service, error) {

	// 1. Initialize durable storage
	store, err := newStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// 2. Initialize remote client
	client, err := openaiclient.New(cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("failed to init remote client: %w", err)
	}

	// 3. Connectivity detector
	detector := connectivity.NewDetector(cfg.Connectivity)

	// 4. Health monitor over the configured subsystem endpoints
	prober := httpprobe.NewProber(
		cfg.Health.SubsystemEndpoints(),
		cfg.Health.Monitor.ProbeTimeout,
	)
	monitor := health.NewMonitor(cfg.Health.Monitor, prober, detector)

	// 5. Fallback selector
	catalog := fallback.DefaultCatalog()
	if len(cfg.Fallback.Assets) > 0 {
		catalog = fallback.NewCatalog(cfg.Fallback.Assets)
		slog.Info("Using configured fallback catalog", "assets", len(cfg.Fallback.Assets))
	}
	checker := httpprobe.NewURLChecker(0)
	selector := fallback.NewSelector(catalog, detector, checker, cfg.Fallback.Selector)

	// 6. Offline queue with the remote dispatcher
	dispatcher := offline.NewRemoteDispatcher(client)
	queue := offline.NewQueue(cfg.Queue, dispatcher, store, detector, monitor)

	// 7. Recovery engine. Registration order breaks priority ties.
	engine := recovery.NewEngine(cfg.Recovery.HistorySize)
	registerStrategies(engine, client, detector, selector, queue, cfg.Recovery.Retry)

	healthServer := health.NewServer(monitor, queue, cfg.Server.Port)

	return &Service{
		cfg:          cfg,
		store:        store,
		client:       client,
		detector:     detector,
		monitor:      monitor,
		healthServer: healthServer,
		selector:     selector,
		engine:       engine,
		queue:        queue,
		responder:    offline.NewOfflineResponder(selector),
		log:          slog.Default(),
	}, nil
}

// newStore selects the durable backend from configuration.
func newStore(cfg config.StorageConfig) (persistence.Store, error) {
	switch cfg.Backend {
	case "redis":
		store, err := redisstore.New(cfg.Redis)
		if err != nil {
			return nil, err
		}
		slog.Info("Using Redis storage")
		return store, nil
	case "memory":
		slog.Info("Using Memory storage")
		return memorystore.New(), nil
	default:
		store, err := badgerstore.New(cfg.Badger)
		if err != nil {
			return nil, err
		}
		slog.Info("Using Badger storage", "path", cfg.Badger.Path)
		return store, nil
	}
}

// registerStrategies installs the standard strategy set for every operation
// type it applies to.
func registerStrategies(
	engine *recovery.Engine,
	client remote.Client,
	conn connectivity.Source,
	selector recovery.AssetSelector,
	queue recovery.Enqueuer,
	retry recovery.RetryConfig,
) {
	completePartial := recovery.NewCompletePartial(priorityCompletePartial)
	deriveContext := recovery.NewDeriveFromContext(priorityDeriveFromContext)
	queueForLater := recovery.NewQueueForLater(priorityQueueForLater, queue, conn)
	retrySimplified := recovery.NewRetrySimplified(priorityRetrySimplified, client, conn, retry)
	fallbackMessage := recovery.NewFallbackMessage(priorityFallbackMessage, selector)

	for _, op := range []domain.OperationType{
		domain.OperationChat,
		domain.OperationImage,
		domain.OperationSearch,
	} {
		engine.Register(op, completePartial)
		engine.Register(op, deriveContext)
		engine.Register(op, queueForLater)
		engine.Register(op, retrySimplified)
		engine.Register(op, fallbackMessage)
	}

	// Storage and sync operations have no partial output to complete.
	for _, op := range []domain.OperationType{
		domain.OperationStorage,
		domain.OperationSync,
	} {
		engine.Register(op, queueForLater)
		engine.Register(op, fallbackMessage)
	}
}

// Start starts the service and all its components.
func (s *Service) Start(ctx context.Context) error {
	// Rebuild queue state before anything drains it.
	if err := s.queue.Restore(ctx); err != nil {
		s.log.Warn("Failed to restore offline queue state", "error", err)
	}

	go func() {
		if err := s.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Health server failed", "error", err)
		}
	}()

	go s.detector.Start(ctx)
	go s.monitor.Start(ctx)
	go s.queue.Start(ctx)

	s.log.Info("Service started", "port", s.cfg.Server.Port)
	return nil
}

// Stop stops the service, persisting queue state last.
func (s *Service) Stop(ctx context.Context) error {
	s.log.Info("Stopping service...")

	if err := s.queue.Stop(ctx); err != nil {
		s.log.Warn("Failed to persist queue state", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("Failed to close storage", "error", err)
	}

	return s.healthServer.Stop(ctx)
}

// ExecuteRecovery runs the strategy chain for a failed operation.
func (s *Service) ExecuteRecovery(
	ctx context.Context,
	op domain.OperationType,
	fctx *domain.FailureContext,
) *domain.RecoveryResult {
	return s.engine.ExecuteRecovery(ctx, op, fctx)
}

// SelectFallback picks the best available asset for a context tag.
func (s *Service) SelectFallback(
	ctx context.Context,
	contextTag string,
	opts fallback.Options,
) fallback.Selection {
	return s.selector.Select(ctx, contextTag, opts)
}

// EnqueueOffline stores an operation for execution once connectivity allows.
func (s *Service) EnqueueOffline(op *domain.OfflineOperation) (string, error) {
	return s.queue.Enqueue(op)
}

// SyncPendingOperations drains the whole queue once, exclusively.
func (s *Service) SyncPendingOperations(ctx context.Context) (*domain.SyncResult, error) {
	return s.queue.SyncPendingOperations(ctx)
}

// OfflineRespond answers from local knowledge when no remote path exists.
func (s *Service) OfflineRespond(ctx context.Context, input string) (string, fallback.Selection) {
	return s.responder.Respond(ctx, input)
}

// OfflineStats returns queue counters.
func (s *Service) OfflineStats() map[string]any {
	return s.queue.Stats()
}

// CurrentCapability returns the current offline capability level.
func (s *Service) CurrentCapability() domain.Capability {
	return s.queue.CurrentCapability()
}

// OnCapabilityChange registers a capability change listener.
func (s *Service) OnCapabilityChange(fn func(domain.Capability)) {
	s.queue.OnCapabilityChange(fn)
}

// SystemHealth returns the latest health snapshot.
func (s *Service) SystemHealth() domain.SystemHealth {
	return s.monitor.Snapshot()
}

// RecoveryStats returns aggregate recovery attempt statistics.
func (s *Service) RecoveryStats() recovery.Stats {
	return s.engine.History().Stats()
}
