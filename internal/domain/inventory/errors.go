package inventory

import (
	"fmt"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
)

// InsufficientStockError reports that available stock is below the requested quantity
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ProductName, e.Available, e.Requested)
}

// Unwrap allows errors.Is(err, shared.ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// RecordNotFoundError reports that no inventory record matches a line item
type RecordNotFoundError struct {
	ProductName string
	Key         StockKey
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("no inventory record for %s (%s)", e.ProductName, e.Key)
}

// Unwrap allows errors.Is(err, shared.ErrNotFound)
func (e *RecordNotFoundError) Unwrap() error {
	return shared.ErrNotFound
}
