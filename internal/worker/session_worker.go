package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"order-tracker/internal/reconcile"
	"order-tracker/internal/session"
	"order-tracker/internal/store"
	"order-tracker/internal/view"
	"order-tracker/pkg/metrics"

	"go.uber.org/zap"
)

// ErrIdentityLost is returned by a cycle when the session's effective
// buyer has disappeared. The worker stops itself and leaves the empty
// view behind for the presentation layer.
var ErrIdentityLost = errors.New("session identity lost")

// errCycleDiscarded marks a cycle whose results were thrown away because
// the worker was stopped or the context cancelled while it was in flight.
var errCycleDiscarded = errors.New("cycle results discarded")

// IdentityResolver resolves the acting identity for a principal.
// session.Registry is the production implementation.
type IdentityResolver interface {
	Resolve(ctx context.Context, principalID string) (session.BuyerContext, error)
}

// SessionWorker drives one buyer session's tracking loop: every poll
// interval it fetches a snapshot, reconciles it, re-fetches once when
// anything was healed, and derives the view the buyer sees.
//
// Cycles never overlap. The loop runs each cycle synchronously and
// drops any timer event that fired while a cycle was in flight, and
// manual refreshes share the same cycle mutex.
type SessionWorker struct {
	buyer      session.BuyerContext
	store      store.Store
	reconciler *reconcile.Reconciler
	identity   IdentityResolver
	interval   time.Duration
	logger     *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once

	cycleMu sync.Mutex // at-most-one-in-flight for cycles

	mu       sync.RWMutex
	current  view.DerivedView
	lastGood *store.Snapshot
}

// NewSessionWorker creates a worker for one buyer session.
func NewSessionWorker(
	buyer session.BuyerContext,
	s store.Store,
	reconciler *reconcile.Reconciler,
	identity IdentityResolver,
	interval time.Duration,
	logger *zap.Logger,
) *SessionWorker {
	return &SessionWorker{
		buyer:      buyer,
		store:      s,
		reconciler: reconciler,
		identity:   identity,
		interval:   interval,
		logger: logger.With(
			zap.String("principal_id", buyer.PrincipalID),
			zap.String("buyer_id", buyer.EffectiveBuyerID),
		),
		stopChan: make(chan struct{}),
		current:  view.Empty(buyer.EffectiveBuyerID),
	}
}

// Run executes the polling loop until the context is cancelled or Stop
// is called. The first cycle runs immediately so a fresh session does
// not wait a full interval for its view.
func (w *SessionWorker) Run(ctx context.Context) {
	w.logger.Info("session worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runCycle(ctx, "tick")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session worker stopping: context cancelled")
			return

		case <-w.stopChan:
			w.logger.Info("session worker stopped")
			return

		case <-ticker.C:
			w.runCycle(ctx, "tick")

			// A tick that fired while the cycle ran is dropped, not
			// queued; the next full interval schedules the next pass.
			select {
			case <-ticker.C:
				metrics.RecordTickDropped()
				w.logger.Debug("dropped overlapping tick")
			default:
			}
		}
	}
}

// Stop halts the loop. An in-flight fetch may still complete but its
// results are discarded: no heal write is issued and no view published.
func (w *SessionWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
}

// BuyerID returns the effective buyer this worker tracks.
func (w *SessionWorker) BuyerID() string {
	return w.buyer.EffectiveBuyerID
}

// CurrentView returns the most recently derived view.
func (w *SessionWorker) CurrentView() view.DerivedView {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// RefreshNow runs one synchronous fetch+reconcile+derive cycle and
// returns the resulting view; used for immediate feedback after a user
// action. It obeys the same one-in-flight discipline as the timer.
func (w *SessionWorker) RefreshNow(ctx context.Context) (view.DerivedView, error) {
	return w.cycle(ctx, "manual")
}

// runCycle is the timer-path wrapper around cycle.
func (w *SessionWorker) runCycle(ctx context.Context, trigger string) {
	if _, err := w.cycle(ctx, trigger); err != nil {
		if errors.Is(err, ErrIdentityLost) || errors.Is(err, errCycleDiscarded) {
			return
		}
		// Fetch and heal errors are transient; the next tick retries.
		w.logger.Warn("cycle finished with error", zap.Error(err))
	}
}

// cycle performs one pass. On fetch failure it falls back to the
// last-known-good snapshot (or the empty view if none exists yet) and
// never attempts a heal. After a pass that healed anything it re-fetches
// once so the derived view reflects the corrected state without waiting
// another interval.
func (w *SessionWorker) cycle(ctx context.Context, trigger string) (view.DerivedView, error) {
	w.cycleMu.Lock()
	defer w.cycleMu.Unlock()

	started := time.Now()

	// Identity first: reconciliation and analytics must run against the
	// current effective buyer, and a vanished session means stop.
	if _, err := w.identity.Resolve(ctx, w.buyer.PrincipalID); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			w.logger.Info("effective buyer gone, stopping worker")
			w.publish(view.Empty(w.buyer.EffectiveBuyerID), nil)
			w.Stop()
			metrics.RecordViewRefresh(trigger, "identity_lost")
			return w.CurrentView(), ErrIdentityLost
		}
		// Registry unreachable is transient; keep the known identity.
		w.logger.Warn("identity resolve failed, assuming unchanged", zap.Error(err))
	}

	snap, err := store.FetchSnapshot(ctx, w.store, w.buyer.EffectiveBuyerID)
	if err != nil {
		metrics.RecordSnapshotFetch("failure")
		metrics.RecordViewRefresh(trigger, "fetch_failed")
		w.logger.Warn("snapshot fetch failed, serving last known good", zap.Error(err))
		return w.fallbackView(), fmt.Errorf("fetch snapshot: %w", err)
	}
	metrics.RecordSnapshotFetch("success")

	// A stop or cancellation that arrived during the fetch discards the
	// snapshot before any heal write.
	if w.discarding(ctx) {
		metrics.RecordViewRefresh(trigger, "cancelled")
		return w.CurrentView(), errCycleDiscarded
	}

	healed, healErr := w.reconciler.Reconcile(ctx, snap)
	if healed > 0 {
		// Re-fetch once so this derive already shows the healed orders.
		if fresh, err := store.FetchSnapshot(ctx, w.store, w.buyer.EffectiveBuyerID); err == nil {
			snap = fresh
		} else {
			metrics.RecordSnapshotFetch("failure")
			w.logger.Warn("post-heal refetch failed, deriving from pre-heal snapshot", zap.Error(err))
		}
	}

	// Results observed after cancellation or stop are discarded.
	if w.discarding(ctx) {
		metrics.RecordViewRefresh(trigger, "cancelled")
		return w.CurrentView(), errCycleDiscarded
	}

	v := view.FromSnapshot(snap)
	w.publish(v, snap)

	metrics.RecordReconcilePass(statusOf(healErr), healed, time.Since(started).Seconds())
	metrics.RecordViewRefresh(trigger, "success")

	w.logger.Debug("cycle complete",
		zap.String("trigger", trigger),
		zap.Int("healed", healed),
		zap.Int("active_batches", len(v.ActiveBatches)),
		zap.Int("past_batches", len(v.PastBatches)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return v, healErr
}

// discarding reports whether the cycle's results must be thrown away:
// Stop was called or the caller's context cancelled while the cycle was
// in flight.
func (w *SessionWorker) discarding(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-w.stopChan:
		return true
	default:
		return false
	}
}

// fallbackView serves the last-known-good derivation, or the empty view
// when no snapshot has ever succeeded.
func (w *SessionWorker) fallbackView() view.DerivedView {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.lastGood != nil {
		return w.current
	}
	return view.Empty(w.buyer.EffectiveBuyerID)
}

func (w *SessionWorker) publish(v view.DerivedView, snap *store.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = v
	if snap != nil {
		w.lastGood = snap
	}
}

func statusOf(err error) string {
	if err != nil {
		return "partial"
	}
	return "success"
}
