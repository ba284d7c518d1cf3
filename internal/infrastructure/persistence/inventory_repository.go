package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInventoryRecordRepository implements inventory.RecordRepository using GORM.
// Stock changes are single conditional UPDATE statements so concurrent
// transactions cannot drive quantity below zero.
type GormInventoryRecordRepository struct {
	db *gorm.DB
}

// NewGormInventoryRecordRepository creates a new GormInventoryRecordRepository
func NewGormInventoryRecordRepository(db *gorm.DB) *GormInventoryRecordRepository {
	return &GormInventoryRecordRepository{db: db}
}

// FindByKey finds the record for a product/variant/batch key
func (r *GormInventoryRecordRepository) FindByKey(ctx context.Context, key inventory.StockKey) (*inventory.InventoryRecord, error) {
	var model models.InventoryRecordModel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_id = ? AND batch_number = ?",
			key.ProductID, models.VariantColumn(key.VariantID), key.BatchNumber).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a record by its ID
func (r *GormInventoryRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryRecord, error) {
	var model models.InventoryRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new record. A second record for the same key is rejected.
func (r *GormInventoryRecordRepository) Create(ctx context.Context, record *inventory.InventoryRecord) error {
	if err := r.db.WithContext(ctx).Create(models.InventoryRecordModelFromDomain(record)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DecrementIfAvailable subtracts quantity while quantity >= requested at
// write time. The reservation is clamped to the new quantity.
func (r *GormInventoryRecordRepository) DecrementIfAvailable(ctx context.Context, recordID uuid.UUID, quantity int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecordModel{}).
		Where("id = ? AND quantity >= ?", recordID, quantity).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity - ?", quantity),
			"reserved_quantity": gorm.Expr(
				"CASE WHEN reserved_quantity > quantity - ? THEN quantity - ? ELSE reserved_quantity END",
				quantity, quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseReserved lowers the reservation by min(quantity, reserved).
// A missing record is not an error.
func (r *GormInventoryRecordRepository) ReleaseReserved(ctx context.Context, recordID uuid.UUID, quantity int64) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryRecordModel{}).
		Where("id = ?", recordID).
		Updates(map[string]any{
			"reserved_quantity": gorm.Expr(
				"CASE WHEN reserved_quantity > ? THEN reserved_quantity - ? ELSE 0 END",
				quantity, quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		}).Error
}

var _ inventory.RecordRepository = (*GormInventoryRecordRepository)(nil)
