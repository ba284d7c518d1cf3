package trade

import (
	"time"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcessType is how a completed return is settled with the customer
type ProcessType string

const (
	ProcessTypeRefund   ProcessType = "refund"
	ProcessTypeExchange ProcessType = "exchange"
	ProcessTypeRepair   ProcessType = "repair"
)

// IsValid checks if the process type is known
func (p ProcessType) IsValid() bool {
	switch p {
	case ProcessTypeRefund, ProcessTypeExchange, ProcessTypeRepair:
		return true
	}
	return false
}

// ReturnOrder is a customer return, optionally linked to the sales order it came from
type ReturnOrder struct {
	OrderHeader
	ReturnNumber string
	SalesOrderID *uuid.UUID
	ProcessType  ProcessType
	RefundAmount decimal.Decimal
	SubmittedAt  *time.Time
	ApprovedAt   *time.Time
	RejectedAt   *time.Time
}

// NewReturnOrder creates a new draft return order
func NewReturnOrder(returnNumber string, customerID uuid.UUID, customerName string, processType ProcessType) (*ReturnOrder, error) {
	if returnNumber == "" {
		return nil, shared.NewDomainError("INVALID_RETURN_NUMBER", "Return number cannot be empty")
	}
	if !processType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PROCESS_TYPE", "Unknown return process type")
	}
	header, err := newOrderHeader(customerID, customerName)
	if err != nil {
		return nil, err
	}
	return &ReturnOrder{
		OrderHeader:  header,
		ReturnNumber: returnNumber,
		ProcessType:  processType,
		RefundAmount: decimal.Zero,
	}, nil
}

// AddItem adds a returned line item to a draft return
func (o *ReturnOrder) AddItem(productID uuid.UUID, productName string, quantity int64, unitPrice decimal.Decimal) (*OrderItem, error) {
	return o.addItem(productID, productName, quantity, unitPrice)
}

// LinkSalesOrder records the sales order the goods were sold on
func (o *ReturnOrder) LinkSalesOrder(salesOrderID uuid.UUID) {
	o.SalesOrderID = &salesOrderID
}

// SetRefundAmount sets the amount owed back to the customer
func (o *ReturnOrder) SetRefundAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund amount cannot be negative")
	}
	o.RefundAmount = amount
	o.UpdatedAt = time.Now()
	return nil
}

// IsRefund reports whether completing the return pays money back
func (o *ReturnOrder) IsRefund() bool {
	return o.ProcessType == ProcessTypeRefund
}

// EntityType implements Order
func (o *ReturnOrder) EntityType() EntityType {
	return EntityTypeReturnOrder
}

// Number implements Order
func (o *ReturnOrder) Number() string {
	return o.ReturnNumber
}

// ApplyTransition implements Order
func (o *ReturnOrder) ApplyTransition(target Status, remarks *string, at time.Time) {
	switch target {
	case StatusSubmitted:
		o.SubmittedAt = &at
	case StatusApproved:
		o.ApprovedAt = &at
	case StatusRejected:
		o.RejectedAt = &at
	}
	o.applyCommon(target, remarks, at)
}

var _ Order = (*ReturnOrder)(nil)
