// Package reconcile corrects drift between batch-level and order-level
// status. Payment completion updates orders and pickup completion
// updates batches through independent workflows, so a batch can settle
// while its orders still read "paid". Each pass finds those orders and
// advances them, one idempotent write per order.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"order-tracker/internal/model"
	"order-tracker/internal/store"
	"order-tracker/pkg/metrics"

	"go.uber.org/zap"
)

// HealFailure records one order whose corrective write failed. The
// order stays paid and remains a candidate for the next pass.
type HealFailure struct {
	OrderID string
	BatchID string
	Err     error
}

// HealError aggregates the failures of one pass. The pass still reports
// the writes that succeeded; callers treat this error as retry-later,
// never as fatal.
type HealError struct {
	Failures []HealFailure
}

func (e *HealError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.OrderID)
	}
	return fmt.Sprintf("heal failed for %d order(s): %s", len(e.Failures), strings.Join(ids, ", "))
}

// Reconciler applies the corrective writes for one snapshot at a time.
type Reconciler struct {
	store       store.Store
	healTimeout time.Duration
	logger      *zap.Logger
}

// NewReconciler creates a Reconciler. healTimeout bounds the heal
// writes of a single pass.
func NewReconciler(s store.Store, healTimeout time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:       s,
		healTimeout: healTimeout,
		logger:      logger,
	}
}

// Reconcile heals every paid order that belongs to a completed batch in
// the snapshot. Writes for distinct orders are issued concurrently and
// each write stands alone: a failure neither blocks nor rolls back the
// others. The returned count is the number of writes that succeeded; if
// any failed the count comes with a *HealError listing them.
//
// Running a second pass over an unchanged, fully healed snapshot finds
// no candidates and performs zero writes.
func (r *Reconciler) Reconcile(ctx context.Context, snap *store.Snapshot) (int, error) {
	candidates := r.candidates(snap)
	if len(candidates) == 0 {
		return 0, nil
	}

	r.logger.Info("reconciling drifted orders",
		zap.String("buyer_id", snap.BuyerID),
		zap.Int("candidates", len(candidates)),
	)

	healCtx := ctx
	if r.healTimeout > 0 {
		var cancel context.CancelFunc
		healCtx, cancel = context.WithTimeout(ctx, r.healTimeout)
		defer cancel()
	}

	var (
		mu       sync.Mutex
		healed   int
		failures []HealFailure
		wg       sync.WaitGroup
	)

	for _, order := range candidates {
		wg.Add(1)
		go func(o model.Order) {
			defer wg.Done()

			err := r.store.SetOrderStatus(healCtx, o.ID, model.OrderStatusPickedUp)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, HealFailure{OrderID: o.ID, BatchID: o.BatchID, Err: err})
				metrics.RecordHealWrite("failure")
				r.logger.Error("heal write failed",
					zap.String("buyer_id", snap.BuyerID),
					zap.String("order_id", o.ID),
					zap.String("batch_id", o.BatchID),
					zap.Error(err),
				)
				return
			}
			healed++
			metrics.RecordHealWrite("success")
		}(order)
	}
	wg.Wait()

	r.logger.Info("reconcile pass finished",
		zap.String("buyer_id", snap.BuyerID),
		zap.Int("healed", healed),
		zap.Int("failed", len(failures)),
	)

	if len(failures) > 0 {
		return healed, &HealError{Failures: failures}
	}
	return healed, nil
}

// candidates returns the orders matching the drift condition: order
// paid, owning batch completed. Cancelled and refunded orders never
// qualify, and batch status itself is never touched.
func (r *Reconciler) candidates(snap *store.Snapshot) []model.Order {
	completed := make(map[string]bool, len(snap.Batches))
	for i := range snap.Batches {
		if snap.Batches[i].IsCompleted() {
			completed[snap.Batches[i].ID] = true
		}
	}
	if len(completed) == 0 {
		return nil
	}

	var out []model.Order
	for _, o := range snap.Orders {
		if o.IsPaid() && completed[o.BatchID] {
			out = append(out, o)
		}
	}
	return out
}
