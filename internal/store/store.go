// Package store defines the contract against the externally owned
// persistent store. The tracker reads batches and orders through it and
// writes exactly one thing back: an order's corrected status.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"order-tracker/internal/model"
)

// Store is the collaborator contract for the order/batch store. The
// repository package provides the MySQL implementation; tests substitute
// fakes.
type Store interface {
	FetchOrdersByBuyer(ctx context.Context, buyerID string) ([]model.Order, error)
	FetchBatchesByBuyer(ctx context.Context, buyerID string) ([]model.Batch, error)
	SetOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error
}

// Snapshot is one buyer's batches and orders read together. The
// reconciler must only ever compare batches and orders taken from the
// same snapshot; mixing a stale batch view with a fresher order view
// produces phantom drift.
type Snapshot struct {
	BuyerID   string
	Batches   []model.Batch
	Orders    []model.Order
	FetchedAt time.Time
}

// FetchSnapshot reads the buyer's batches and orders concurrently and
// returns them as one snapshot. If either fetch fails the whole
// snapshot fails; a partial snapshot is never handed to the reconciler.
func FetchSnapshot(ctx context.Context, s Store, buyerID string) (*Snapshot, error) {
	var (
		wg       sync.WaitGroup
		batches  []model.Batch
		orders   []model.Order
		batchErr error
		orderErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		batches, batchErr = s.FetchBatchesByBuyer(ctx, buyerID)
	}()
	go func() {
		defer wg.Done()
		orders, orderErr = s.FetchOrdersByBuyer(ctx, buyerID)
	}()
	wg.Wait()

	if batchErr != nil {
		return nil, fmt.Errorf("fetch batches for buyer %s: %w", buyerID, batchErr)
	}
	if orderErr != nil {
		return nil, fmt.Errorf("fetch orders for buyer %s: %w", buyerID, orderErr)
	}

	return &Snapshot{
		BuyerID:   buyerID,
		Batches:   batches,
		Orders:    orders,
		FetchedAt: time.Now(),
	}, nil
}
