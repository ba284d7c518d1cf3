package finance

import (
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReceivableStatus string

const (
	ReceivableStatusPending ReceivableStatus = "pending"
	ReceivableStatusPartial ReceivableStatus = "partial"
	ReceivableStatusPaid    ReceivableStatus = "paid"
)

func (s ReceivableStatus) String() string { return string(s) }

type ReceivableSourceType string

// ReceivableSourceTypeFactoryShipment marks the balance left on a completed
// factory shipment.
const ReceivableSourceTypeFactoryShipment ReceivableSourceType = "FACTORY_SHIPMENT"

// ReceivableRecord tracks money a customer owes. PaidAmount plus
// OutstandingAmount always equals TotalAmount.
type ReceivableRecord struct {
	shared.BaseAggregateRoot

	ReceivableNumber string
	SourceType       ReceivableSourceType
	SourceID         uuid.UUID
	SourceNumber     string
	CustomerID       uuid.UUID
	CustomerName     string

	TotalAmount       decimal.Decimal
	PaidAmount        decimal.Decimal
	OutstandingAmount decimal.Decimal
	Status            ReceivableStatus
}

// NewReceivableRecord opens a pending receivable with amount outstanding.
func NewReceivableRecord(
	receivableNumber string,
	sourceType ReceivableSourceType,
	sourceID uuid.UUID,
	sourceNumber string,
	customerID uuid.UUID,
	customerName string,
	amount decimal.Decimal,
) (*ReceivableRecord, error) {
	doc := sourceDocument{
		kind:       "Receivable",
		number:     receivableNumber,
		numberCode: "INVALID_RECEIVABLE_NUMBER",
		sourceID:   sourceID,
		customerID: customerID,
		amount:     amount,
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	return &ReceivableRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceivableNumber:  receivableNumber,
		SourceType:        sourceType,
		SourceID:          sourceID,
		SourceNumber:      sourceNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		TotalAmount:       amount,
		PaidAmount:        decimal.Zero,
		OutstandingAmount: amount,
		Status:            ReceivableStatusPending,
	}, nil
}

func (r *ReceivableRecord) IsSettled() bool {
	return r.OutstandingAmount.IsZero()
}
