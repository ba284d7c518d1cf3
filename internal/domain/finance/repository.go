package finance

import (
	"context"

	"github.com/google/uuid"
)

// RefundRecordRepository defines persistence for refund records
type RefundRecordRepository interface {
	// ExistsBySource checks if a refund already references the source document
	ExistsBySource(ctx context.Context, sourceType RefundSourceType, sourceID uuid.UUID) (bool, error)

	// FindBySource finds the refund for a source document.
	// Returns shared.ErrNotFound if absent.
	FindBySource(ctx context.Context, sourceType RefundSourceType, sourceID uuid.UUID) (*RefundRecord, error)

	// CountBySource counts refunds referencing the source document
	CountBySource(ctx context.Context, sourceType RefundSourceType, sourceID uuid.UUID) (int64, error)

	// Create inserts a new refund record.
	// A second record for the same source fails with a concurrency conflict.
	Create(ctx context.Context, record *RefundRecord) error
}

// ReceivableRecordRepository defines persistence for receivable records
type ReceivableRecordRepository interface {
	// ExistsBySource checks if a receivable already references the source document
	ExistsBySource(ctx context.Context, sourceType ReceivableSourceType, sourceID uuid.UUID) (bool, error)

	// FindBySource finds the receivable for a source document.
	// Returns shared.ErrNotFound if absent.
	FindBySource(ctx context.Context, sourceType ReceivableSourceType, sourceID uuid.UUID) (*ReceivableRecord, error)

	// CountBySource counts receivables referencing the source document
	CountBySource(ctx context.Context, sourceType ReceivableSourceType, sourceID uuid.UUID) (int64, error)

	// Create inserts a new receivable record.
	// A second record for the same source fails with a concurrency conflict.
	Create(ctx context.Context, record *ReceivableRecord) error
}
