package inventory

import (
	"context"
	"errors"

	"github.com/erp/orderflow/internal/domain/shared"
)

// StockLine is one quantity of one stock key to decrement or release
type StockLine struct {
	Key         StockKey
	ProductName string
	Quantity    int64
}

// Ledger applies order-driven stock movements. It holds no state; every call
// works through the LedgerStore bound to the caller's transaction, so a
// failure on any line is rolled back together with earlier lines.
type Ledger struct{}

// NewLedger creates a new Ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Decrement consumes stock for every line in order. The first failing line
// aborts the batch:
//   - *RecordNotFoundError when no record matches
//   - *InsufficientStockError when available < requested
//   - *shared.ConcurrentModificationError when the conditional write lost a race
func (l *Ledger) Decrement(ctx context.Context, store LedgerStore, lines []StockLine) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}

		record, err := store.FindByKey(ctx, line.Key)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return &RecordNotFoundError{ProductName: line.ProductName, Key: line.Key}
			}
			return err
		}

		if !record.CanFulfill(line.Quantity) {
			return &InsufficientStockError{
				ProductID:   line.Key.ProductID,
				ProductName: line.ProductName,
				Available:   record.AvailableQuantity(),
				Requested:   line.Quantity,
			}
		}

		ok, err := store.DecrementIfAvailable(ctx, record.ID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return shared.NewConcurrentModificationError("inventory_record", record.ID)
		}
	}
	return nil
}

// Release returns reserved stock for every line. Missing records are skipped.
func (l *Ledger) Release(ctx context.Context, store LedgerStore, lines []StockLine) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}

		record, err := store.FindByKey(ctx, line.Key)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return err
		}

		if err := store.ReleaseReserved(ctx, record.ID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}
