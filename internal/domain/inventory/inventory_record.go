package inventory

import (
	"fmt"
	"time"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
)

// StockKey identifies an inventory record. VariantID and BatchNumber are
// optional; a nil variant and an empty batch are part of the key.
type StockKey struct {
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	BatchNumber string
}

// String returns a readable form of the key for diagnostics
func (k StockKey) String() string {
	s := k.ProductID.String()
	if k.VariantID != nil {
		s += "/" + k.VariantID.String()
	}
	if k.BatchNumber != "" {
		s += "#" + k.BatchNumber
	}
	return s
}

// Equal compares keys by value
func (k StockKey) Equal(other StockKey) bool {
	if k.ProductID != other.ProductID || k.BatchNumber != other.BatchNumber {
		return false
	}
	if k.VariantID == nil || other.VariantID == nil {
		return k.VariantID == nil && other.VariantID == nil
	}
	return *k.VariantID == *other.VariantID
}

// InventoryRecord is the on-hand and reserved stock of one product/variant/batch.
// Invariant: 0 <= ReservedQuantity <= Quantity.
type InventoryRecord struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	ProductName      string
	VariantID        *uuid.UUID
	BatchNumber      string
	Quantity         int64
	ReservedQuantity int64
	Version          int
	UpdatedAt        time.Time
}

// NewInventoryRecord creates a record for stock that was received elsewhere
func NewInventoryRecord(key StockKey, productName string, quantity, reserved int64) (*InventoryRecord, error) {
	if key.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if reserved < 0 || reserved > quantity {
		return nil, shared.NewDomainError("INVALID_QUANTITY",
			fmt.Sprintf("Reserved quantity %d must be between 0 and %d", reserved, quantity))
	}
	return &InventoryRecord{
		ID:               uuid.New(),
		ProductID:        key.ProductID,
		ProductName:      productName,
		VariantID:        key.VariantID,
		BatchNumber:      key.BatchNumber,
		Quantity:         quantity,
		ReservedQuantity: reserved,
		Version:          1,
		UpdatedAt:        time.Now(),
	}, nil
}

// Key returns the record's stock key
func (r *InventoryRecord) Key() StockKey {
	return StockKey{ProductID: r.ProductID, VariantID: r.VariantID, BatchNumber: r.BatchNumber}
}

// AvailableQuantity returns stock that is neither consumed nor reserved
func (r *InventoryRecord) AvailableQuantity() int64 {
	return r.Quantity - r.ReservedQuantity
}

// CanFulfill checks if there's enough available stock
func (r *InventoryRecord) CanFulfill(quantity int64) bool {
	return r.AvailableQuantity() >= quantity
}

// ApplyDecrement removes quantity from on-hand stock if at least that much is
// on hand, clamping the reservation so it never exceeds what is left.
// It returns false and leaves the record untouched otherwise.
// Stores that cannot express this as one conditional statement use it directly.
func (r *InventoryRecord) ApplyDecrement(quantity int64) bool {
	if r.Quantity < quantity {
		return false
	}
	r.Quantity -= quantity
	if r.ReservedQuantity > r.Quantity {
		r.ReservedQuantity = r.Quantity
	}
	if r.ReservedQuantity < 0 {
		r.ReservedQuantity = 0
	}
	r.Version++
	r.UpdatedAt = time.Now()
	return true
}

// ApplyRelease lowers the reservation by quantity, never below zero.
// It returns the amount actually released.
func (r *InventoryRecord) ApplyRelease(quantity int64) int64 {
	released := quantity
	if released > r.ReservedQuantity {
		released = r.ReservedQuantity
	}
	if released <= 0 {
		return 0
	}
	r.ReservedQuantity -= released
	r.Version++
	r.UpdatedAt = time.Now()
	return released
}
