// Package finance holds the money documents a completed order leaves
// behind: refunds owed to customers and receivables owed by them. Each is
// keyed by its source document and at most one exists per source.
package finance

import (
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxDocumentNumberLength matches the varchar(50) number columns.
const MaxDocumentNumberLength = 50

// sourceDocument is what both record kinds need from the order that
// produced them.
type sourceDocument struct {
	kind       string
	number     string
	numberCode string
	sourceID   uuid.UUID
	customerID uuid.UUID
	amount     decimal.Decimal
}

func (d sourceDocument) validate() error {
	switch {
	case d.number == "":
		return shared.NewDomainError(d.numberCode, d.kind+" number cannot be empty")
	case len(d.number) > MaxDocumentNumberLength:
		return shared.NewDomainError(d.numberCode, d.kind+" number cannot exceed 50 characters")
	case d.sourceID == uuid.Nil:
		return shared.NewDomainError("INVALID_SOURCE", "Source ID cannot be empty")
	case d.customerID == uuid.Nil:
		return shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	case !d.amount.IsPositive():
		return shared.NewDomainError("INVALID_AMOUNT", d.kind+" amount must be positive")
	}
	return nil
}
