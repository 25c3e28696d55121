package repository

import (
	"context"
	"fmt"

	"order-tracker/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderRepository reads buyer orders and applies the single corrective
// write this service owns.
type OrderRepository struct {
	*BaseRepository
}

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(db *gorm.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// FindByBuyer returns every order belonging to the buyer, newest first.
func (r *OrderRepository) FindByBuyer(ctx context.Context, buyerID string) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("query orders by buyer: %w", err)
	}
	return orders, nil
}

// UpdateStatus advances one order to the given status. The WHERE clause
// re-checks the paid precondition so a concurrent pass that already
// healed the order turns this write into a no-op instead of clobbering
// a newer status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPaid).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("update order %s status: %w", orderID, result.Error)
	}

	if result.RowsAffected == 0 {
		// Already advanced by another writer; converged either way.
		r.logger.Debug("order status already settled",
			zap.String("order_id", orderID),
			zap.String("status", status.String()),
		)
	}

	return nil
}
