package worker

import (
	"context"
	"sync"
	"time"

	"order-tracker/internal/reconcile"
	"order-tracker/internal/session"
	"order-tracker/internal/store"
	"order-tracker/pkg/metrics"

	"go.uber.org/zap"
)

// SessionLister lists the currently live buyer sessions.
// session.Registry is the production implementation.
type SessionLister interface {
	Active(ctx context.Context) ([]session.BuyerContext, error)
}

// Manager keeps one SessionWorker running per live buyer session. It
// refreshes the worker set from the session registry on its own ticker:
// new sessions get a worker, expired sessions get theirs stopped.
type Manager struct {
	store           store.Store
	reconciler      *reconcile.Reconciler
	registry        SessionLister
	identity        IdentityResolver
	pollInterval    time.Duration
	refreshInterval time.Duration
	logger          *zap.Logger

	workers      map[string]*SessionWorker // effective buyer id -> worker
	workersMutex sync.RWMutex
	stopChan     chan struct{}
	stopOnce     sync.Once
}

// NewManager creates a Manager.
func NewManager(
	s store.Store,
	reconciler *reconcile.Reconciler,
	registry SessionLister,
	identity IdentityResolver,
	pollInterval time.Duration,
	refreshInterval time.Duration,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		store:           s,
		reconciler:      reconciler,
		registry:        registry,
		identity:        identity,
		pollInterval:    pollInterval,
		refreshInterval: refreshInterval,
		logger:          logger,
		workers:         make(map[string]*SessionWorker),
		stopChan:        make(chan struct{}),
	}
}

// Start runs the manager loop until the context is cancelled or Stop is
// called.
func (m *Manager) Start(ctx context.Context) {
	m.logger.Info("worker manager started",
		zap.Duration("poll_interval", m.pollInterval),
		zap.Duration("refresh_interval", m.refreshInterval),
	)

	if err := m.refreshWorkers(ctx); err != nil {
		m.logger.Error("initial session refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("worker manager stopping: context cancelled")
			m.stopAllWorkers()
			return

		case <-m.stopChan:
			m.logger.Info("worker manager stopped")
			m.stopAllWorkers()
			return

		case <-ticker.C:
			if err := m.refreshWorkers(ctx); err != nil {
				m.logger.Error("session refresh failed", zap.Error(err))
			}
		}
	}
}

// refreshWorkers reconciles the running worker set against the live
// sessions in the registry.
func (m *Manager) refreshWorkers(ctx context.Context) error {
	sessions, err := m.registry.Active(ctx)
	if err != nil {
		return err
	}

	live := make(map[string]session.BuyerContext, len(sessions))
	for _, bc := range sessions {
		live[bc.EffectiveBuyerID] = bc
	}

	m.workersMutex.Lock()
	defer m.workersMutex.Unlock()

	for buyerID, w := range m.workers {
		if _, ok := live[buyerID]; !ok {
			m.logger.Info("stopping worker for ended session", zap.String("buyer_id", buyerID))
			w.Stop()
			delete(m.workers, buyerID)
		}
	}

	for buyerID, bc := range live {
		if _, exists := m.workers[buyerID]; !exists {
			m.logger.Info("starting worker for new session", zap.String("buyer_id", buyerID))
			w := NewSessionWorker(bc, m.store, m.reconciler, m.identity, m.pollInterval, m.logger)
			m.workers[buyerID] = w
			go w.Run(ctx)
		}
	}

	metrics.UpdateSessionWorkerTotal(len(m.workers))

	m.logger.Debug("session refresh complete",
		zap.Int("live_sessions", len(live)),
		zap.Int("workers", len(m.workers)),
	)

	return nil
}

// WorkerFor returns the running worker for an effective buyer, if any.
func (m *Manager) WorkerFor(buyerID string) (*SessionWorker, bool) {
	m.workersMutex.RLock()
	defer m.workersMutex.RUnlock()
	w, ok := m.workers[buyerID]
	return w, ok
}

// WorkerCount returns the number of running workers.
func (m *Manager) WorkerCount() int {
	m.workersMutex.RLock()
	defer m.workersMutex.RUnlock()
	return len(m.workers)
}

// Stop halts the manager and all its workers.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

func (m *Manager) stopAllWorkers() {
	m.workersMutex.Lock()
	defer m.workersMutex.Unlock()

	m.logger.Info("stopping all session workers", zap.Int("count", len(m.workers)))
	for _, w := range m.workers {
		w.Stop()
	}
	m.workers = make(map[string]*SessionWorker)
	metrics.UpdateSessionWorkerTotal(0)
}
