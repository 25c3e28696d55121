package repository

import (
	"context"

	"order-tracker/internal/model"
	"order-tracker/internal/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store adapts the order and batch repositories to the store.Store
// contract consumed by the reconciler and the session workers.
type Store struct {
	orders  *OrderRepository
	batches *BatchRepository
}

var _ store.Store = (*Store)(nil)

// NewStore creates the MySQL-backed store.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{
		orders:  NewOrderRepository(db, logger),
		batches: NewBatchRepository(db, logger),
	}
}

// FetchOrdersByBuyer returns the buyer's orders.
func (s *Store) FetchOrdersByBuyer(ctx context.Context, buyerID string) ([]model.Order, error) {
	return s.orders.FindByBuyer(ctx, buyerID)
}

// FetchBatchesByBuyer returns the buyer's batches.
func (s *Store) FetchBatchesByBuyer(ctx context.Context, buyerID string) ([]model.Batch, error) {
	return s.batches.FindByBuyer(ctx, buyerID)
}

// SetOrderStatus applies one corrective order-status write.
func (s *Store) SetOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return s.orders.UpdateStatus(ctx, orderID, status)
}
