package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository persists one order variant. Implementations are bound to
// the caller's transaction when obtained from a transaction scope.
type OrderRepository interface {
	// EntityType returns the variant this repository stores
	EntityType() EntityType

	// FindByID loads the order with its items.
	// Returns *OrderNotFoundError if absent.
	FindByID(ctx context.Context, id uuid.UUID) (Order, error)

	// FindStatus returns only the current status.
	// Returns *OrderNotFoundError if absent.
	FindStatus(ctx context.Context, id uuid.UUID) (Status, error)

	// Create inserts a new order with its items
	Create(ctx context.Context, order Order) error

	// UpdateStatus writes status, remarks, milestone timestamps and version
	// only if the stored version still equals expectedVersion.
	// Returns *shared.ConcurrentModificationError when no row matched.
	UpdateStatus(ctx context.Context, order Order, expectedVersion int) error
}
