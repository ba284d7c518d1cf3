package trade

import (
	"time"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FactoryShipmentOrder tracks goods produced by a factory and shipped to a
// customer, from planning through deposit, transit and delivery.
type FactoryShipmentOrder struct {
	OrderHeader
	ShipmentNumber   string
	TotalAmount      decimal.Decimal
	DepositAmount    decimal.Decimal
	DepositPaidAt    *time.Time
	FactoryShippedAt *time.Time
	DeliveredAt      *time.Time
}

// NewFactoryShipmentOrder creates a new draft factory shipment order
func NewFactoryShipmentOrder(shipmentNumber string, customerID uuid.UUID, customerName string) (*FactoryShipmentOrder, error) {
	if shipmentNumber == "" {
		return nil, shared.NewDomainError("INVALID_SHIPMENT_NUMBER", "Shipment number cannot be empty")
	}
	header, err := newOrderHeader(customerID, customerName)
	if err != nil {
		return nil, err
	}
	return &FactoryShipmentOrder{
		OrderHeader:    header,
		ShipmentNumber: shipmentNumber,
		TotalAmount:    decimal.Zero,
		DepositAmount:  decimal.Zero,
	}, nil
}

// AddItem adds a line item to a draft shipment
func (o *FactoryShipmentOrder) AddItem(productID uuid.UUID, productName string, quantity int64, unitPrice decimal.Decimal) (*OrderItem, error) {
	item, err := o.addItem(productID, productName, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	o.TotalAmount = o.itemsTotal()
	return item, nil
}

// SetDeposit sets the deposit the customer pays before production ships
func (o *FactoryShipmentOrder) SetDeposit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Deposit amount cannot be negative")
	}
	if amount.GreaterThan(o.TotalAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Deposit amount cannot exceed total amount")
	}
	o.DepositAmount = amount
	o.UpdatedAt = time.Now()
	return nil
}

// BalanceDue returns the amount still owed after the deposit
func (o *FactoryShipmentOrder) BalanceDue() decimal.Decimal {
	return o.TotalAmount.Sub(o.DepositAmount)
}

// EntityType implements Order
func (o *FactoryShipmentOrder) EntityType() EntityType {
	return EntityTypeFactoryShipment
}

// Number implements Order
func (o *FactoryShipmentOrder) Number() string {
	return o.ShipmentNumber
}

// ApplyTransition implements Order
func (o *FactoryShipmentOrder) ApplyTransition(target Status, remarks *string, at time.Time) {
	switch target {
	case StatusDepositPaid:
		o.DepositPaidAt = &at
	case StatusFactoryShipped:
		o.FactoryShippedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	}
	o.applyCommon(target, remarks, at)
}

var _ Order = (*FactoryShipmentOrder)(nil)
