package persistence

import (
	"context"
	"errors"

	"github.com/erp/orderflow/internal/domain/finance"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sourceTable queries a finance table through its (source_type, source_id)
// unique index. M is the row model.
type sourceTable[M any] struct {
	db *gorm.DB
}

func (t sourceTable[M]) where(ctx context.Context, sourceType string, sourceID uuid.UUID) *gorm.DB {
	return t.db.WithContext(ctx).
		Model(new(M)).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID)
}

func (t sourceTable[M]) count(ctx context.Context, sourceType string, sourceID uuid.UUID) (int64, error) {
	var n int64
	err := t.where(ctx, sourceType, sourceID).Count(&n).Error
	return n, err
}

func (t sourceTable[M]) first(ctx context.Context, sourceType string, sourceID uuid.UUID) (*M, error) {
	row := new(M)
	err := t.where(ctx, sourceType, sourceID).First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// insert maps a lost race on the source index to a retryable conflict.
func (t sourceTable[M]) insert(ctx context.Context, row *M, entity string, sourceID uuid.UUID) error {
	err := t.db.WithContext(ctx).Create(row).Error
	if isUniqueViolation(err) {
		return shared.NewConcurrentModificationError(entity, sourceID)
	}
	return err
}

// GormRefundRecordRepository implements finance.RefundRecordRepository using GORM
type GormRefundRecordRepository struct {
	rows sourceTable[models.RefundRecordModel]
}

// NewGormRefundRecordRepository creates a refund repository on db
func NewGormRefundRecordRepository(db *gorm.DB) *GormRefundRecordRepository {
	return &GormRefundRecordRepository{rows: sourceTable[models.RefundRecordModel]{db: db}}
}

// ExistsBySource reports whether a refund already references the source document
func (r *GormRefundRecordRepository) ExistsBySource(ctx context.Context, sourceType finance.RefundSourceType, sourceID uuid.UUID) (bool, error) {
	n, err := r.CountBySource(ctx, sourceType, sourceID)
	return n > 0, err
}

// FindBySource returns the refund for a source document, or shared.ErrNotFound
func (r *GormRefundRecordRepository) FindBySource(ctx context.Context, sourceType finance.RefundSourceType, sourceID uuid.UUID) (*finance.RefundRecord, error) {
	row, err := r.rows.first(ctx, string(sourceType), sourceID)
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

// CountBySource counts refunds referencing the source document
func (r *GormRefundRecordRepository) CountBySource(ctx context.Context, sourceType finance.RefundSourceType, sourceID uuid.UUID) (int64, error) {
	return r.rows.count(ctx, string(sourceType), sourceID)
}

// Create fails with a concurrency conflict when another transaction already
// inserted the refund for the same source.
func (r *GormRefundRecordRepository) Create(ctx context.Context, record *finance.RefundRecord) error {
	return r.rows.insert(ctx, models.RefundRecordModelFromDomain(record), "refund_record", record.SourceID)
}

// GormReceivableRecordRepository implements finance.ReceivableRecordRepository using GORM
type GormReceivableRecordRepository struct {
	rows sourceTable[models.ReceivableRecordModel]
}

// NewGormReceivableRecordRepository creates a receivable repository on db
func NewGormReceivableRecordRepository(db *gorm.DB) *GormReceivableRecordRepository {
	return &GormReceivableRecordRepository{rows: sourceTable[models.ReceivableRecordModel]{db: db}}
}

// ExistsBySource reports whether a receivable already references the source document
func (r *GormReceivableRecordRepository) ExistsBySource(ctx context.Context, sourceType finance.ReceivableSourceType, sourceID uuid.UUID) (bool, error) {
	n, err := r.CountBySource(ctx, sourceType, sourceID)
	return n > 0, err
}

// FindBySource returns the receivable for a source document, or shared.ErrNotFound
func (r *GormReceivableRecordRepository) FindBySource(ctx context.Context, sourceType finance.ReceivableSourceType, sourceID uuid.UUID) (*finance.ReceivableRecord, error) {
	row, err := r.rows.first(ctx, string(sourceType), sourceID)
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

// CountBySource counts receivables referencing the source document
func (r *GormReceivableRecordRepository) CountBySource(ctx context.Context, sourceType finance.ReceivableSourceType, sourceID uuid.UUID) (int64, error) {
	return r.rows.count(ctx, string(sourceType), sourceID)
}

// Create inserts a receivable; a second one for the same source is a concurrency conflict
func (r *GormReceivableRecordRepository) Create(ctx context.Context, record *finance.ReceivableRecord) error {
	return r.rows.insert(ctx, models.ReceivableRecordModelFromDomain(record), "receivable_record", record.SourceID)
}

var (
	_ finance.RefundRecordRepository     = (*GormRefundRecordRepository)(nil)
	_ finance.ReceivableRecordRepository = (*GormReceivableRecordRepository)(nil)
)
