package repository

import (
	"context"
	"fmt"

	"order-tracker/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BatchRepository reads buyer pickup batches. Batches are never written
// here; pickup workflows own them.
type BatchRepository struct {
	*BaseRepository
}

// NewBatchRepository creates a BatchRepository.
func NewBatchRepository(db *gorm.DB, logger *zap.Logger) *BatchRepository {
	return &BatchRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// FindByBuyer returns every batch belonging to the buyer, newest first.
func (r *BatchRepository) FindByBuyer(ctx context.Context, buyerID string) ([]model.Batch, error) {
	var batches []model.Batch
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("query batches by buyer: %w", err)
	}
	return batches, nil
}
