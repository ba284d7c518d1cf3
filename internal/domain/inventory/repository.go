package inventory

import (
	"context"

	"github.com/google/uuid"
)

// LedgerStore is the data-access port the Ledger mutates stock through.
// All methods run inside the caller's transaction.
type LedgerStore interface {
	// FindByKey returns the record for the key, or shared.ErrNotFound
	FindByKey(ctx context.Context, key StockKey) (*InventoryRecord, error)

	// DecrementIfAvailable subtracts quantity from the record only if its
	// quantity is still >= quantity at write time, clamping the reservation
	// to the new quantity. It returns false when no row matched.
	DecrementIfAvailable(ctx context.Context, recordID uuid.UUID, quantity int64) (bool, error)

	// ReleaseReserved lowers the reservation by min(quantity, reserved)
	ReleaseReserved(ctx context.Context, recordID uuid.UUID, quantity int64) error
}

// RecordRepository is the administrative side of inventory records:
// stocking and lookups that are not part of an order transition.
type RecordRepository interface {
	LedgerStore

	// FindByID finds a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryRecord, error)

	// Create inserts a new record
	Create(ctx context.Context, record *InventoryRecord) error
}
