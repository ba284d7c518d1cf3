package trade

import (
	"time"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the behaviour the transition engine needs from every order variant
type Order interface {
	shared.AggregateRoot
	EntityType() EntityType
	Number() string
	CurrentStatus() Status
	LineItems() []OrderItem
	// ApplyTransition moves the order to target and bumps its version.
	// Legality is checked by ValidateTransition before this is called.
	ApplyTransition(target Status, remarks *string, at time.Time)
}

// OrderItem is a line item shared by all order variants.
// Items are immutable once the order exists.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	VariantID   *uuid.UUID
	BatchNumber string
	Quantity    int64
	UnitPrice   decimal.Decimal
	CreatedAt   time.Time
}

// NewOrderItem creates a new order line item
func NewOrderItem(orderID, productID uuid.UUID, productName string, quantity int64, unitPrice decimal.Decimal) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		CreatedAt:   time.Now(),
	}, nil
}

// Amount returns Quantity * UnitPrice
func (i OrderItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// OrderHeader holds the fields and transition bookkeeping every variant shares
type OrderHeader struct {
	shared.BaseAggregateRoot
	CustomerID   uuid.UUID
	CustomerName string
	Status       Status
	Items        []OrderItem
	Remarks      *string
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

func newOrderHeader(customerID uuid.UUID, customerName string) (OrderHeader, error) {
	if customerID == uuid.Nil {
		return OrderHeader{}, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return OrderHeader{}, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	return OrderHeader{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		CustomerName:      customerName,
		Status:            StatusDraft,
		Items:             make([]OrderItem, 0),
	}, nil
}

// CurrentStatus returns the order's status
func (h *OrderHeader) CurrentStatus() Status {
	return h.Status
}

// LineItems returns the order's items in their stored order
func (h *OrderHeader) LineItems() []OrderItem {
	return h.Items
}

func (h *OrderHeader) addItem(productID uuid.UUID, productName string, quantity int64, unitPrice decimal.Decimal) (*OrderItem, error) {
	if h.Status != StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Items can only be added to draft orders")
	}
	item, err := NewOrderItem(h.ID, productID, productName, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	h.Items = append(h.Items, *item)
	h.UpdatedAt = time.Now()
	return &h.Items[len(h.Items)-1], nil
}

func (h *OrderHeader) itemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range h.Items {
		total = total.Add(item.Amount())
	}
	return total
}

// applyCommon writes the fields every variant updates on a transition
func (h *OrderHeader) applyCommon(target Status, remarks *string, at time.Time) {
	h.Status = target
	if remarks != nil {
		r := *remarks
		h.Remarks = &r
	}
	switch target {
	case StatusCompleted:
		h.CompletedAt = &at
	case StatusCancelled:
		h.CancelledAt = &at
	}
	h.Touch(at)
}
