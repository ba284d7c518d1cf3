package finance

import (
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RefundRecordStatus string

const (
	RefundRecordStatusPending    RefundRecordStatus = "pending"
	RefundRecordStatusProcessing RefundRecordStatus = "processing"
	RefundRecordStatusCompleted  RefundRecordStatus = "completed"
)

func (s RefundRecordStatus) String() string { return string(s) }

type RefundSourceType string

// RefundSourceTypeReturnOrder marks refunds raised by a completed return.
const RefundSourceTypeReturnOrder RefundSourceType = "RETURN_ORDER"

// RefundRecord tracks money owed back to a customer. RefundAmount is fixed
// at creation; ProcessedAmount plus RemainingAmount always equals it.
type RefundRecord struct {
	shared.BaseAggregateRoot

	RefundNumber string
	SourceType   RefundSourceType
	SourceID     uuid.UUID
	SourceNumber string
	CustomerID   uuid.UUID
	CustomerName string

	RefundAmount    decimal.Decimal
	RemainingAmount decimal.Decimal
	ProcessedAmount decimal.Decimal
	Status          RefundRecordStatus
}

// NewRefundRecord opens a pending refund for the whole amount.
func NewRefundRecord(
	refundNumber string,
	sourceType RefundSourceType,
	sourceID uuid.UUID,
	sourceNumber string,
	customerID uuid.UUID,
	customerName string,
	refundAmount decimal.Decimal,
) (*RefundRecord, error) {
	doc := sourceDocument{
		kind:       "Refund",
		number:     refundNumber,
		numberCode: "INVALID_REFUND_NUMBER",
		sourceID:   sourceID,
		customerID: customerID,
		amount:     refundAmount,
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	return &RefundRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RefundNumber:      refundNumber,
		SourceType:        sourceType,
		SourceID:          sourceID,
		SourceNumber:      sourceNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		RefundAmount:      refundAmount,
		RemainingAmount:   refundAmount,
		ProcessedAmount:   decimal.Zero,
		Status:            RefundRecordStatusPending,
	}, nil
}

func (r *RefundRecord) IsFullyProcessed() bool {
	return r.RemainingAmount.IsZero()
}
