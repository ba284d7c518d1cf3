package trade

import (
	"fmt"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrUnknownEntityType is returned for an entity type with no transition table
var ErrUnknownEntityType = shared.NewDomainError("INVALID_ENTITY_TYPE", "Unknown order entity type")

// TransitionError reports a status change that is not in the transition table
type TransitionError struct {
	EntityType EntityType
	Current    Status
	Target     Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition %s from %s to %s", e.EntityType, e.Current, e.Target)
}

// Unwrap allows errors.Is(err, shared.ErrInvalidState)
func (e *TransitionError) Unwrap() error {
	return shared.ErrInvalidState
}

// InvalidStatusError reports a status value outside the entity's closed set
type InvalidStatusError struct {
	EntityType EntityType
	Value      string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("%q is not a valid %s status", e.Value, e.EntityType)
}

// Unwrap allows errors.Is(err, shared.ErrInvalidInput)
func (e *InvalidStatusError) Unwrap() error {
	return shared.ErrInvalidInput
}

// OrderNotFoundError reports a missing order
type OrderNotFoundError struct {
	EntityType EntityType
	ID         uuid.UUID
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.EntityType, e.ID)
}

// Unwrap allows errors.Is(err, shared.ErrNotFound)
func (e *OrderNotFoundError) Unwrap() error {
	return shared.ErrNotFound
}
