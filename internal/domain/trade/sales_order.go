package trade

import (
	"time"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrder is an outbound customer order. Shipping or completing a confirmed
// order consumes stock; cancelling it releases the reservation.
type SalesOrder struct {
	OrderHeader
	OrderNumber string
	TotalAmount decimal.Decimal
	ConfirmedAt *time.Time
	ShippedAt   *time.Time
}

// NewSalesOrder creates a new draft sales order
func NewSalesOrder(orderNumber string, customerID uuid.UUID, customerName string) (*SalesOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	header, err := newOrderHeader(customerID, customerName)
	if err != nil {
		return nil, err
	}
	return &SalesOrder{
		OrderHeader: header,
		OrderNumber: orderNumber,
		TotalAmount: decimal.Zero,
	}, nil
}

// AddItem adds a line item to a draft order
func (o *SalesOrder) AddItem(productID uuid.UUID, productName string, quantity int64, unitPrice decimal.Decimal) (*OrderItem, error) {
	item, err := o.addItem(productID, productName, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	o.TotalAmount = o.itemsTotal()
	return item, nil
}

// EntityType implements Order
func (o *SalesOrder) EntityType() EntityType {
	return EntityTypeSalesOrder
}

// Number implements Order
func (o *SalesOrder) Number() string {
	return o.OrderNumber
}

// ApplyTransition implements Order
func (o *SalesOrder) ApplyTransition(target Status, remarks *string, at time.Time) {
	switch target {
	case StatusConfirmed:
		o.ConfirmedAt = &at
	case StatusShipped:
		o.ShippedAt = &at
	}
	o.applyCommon(target, remarks, at)
}

var _ Order = (*SalesOrder)(nil)
