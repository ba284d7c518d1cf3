package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DomainError is a business rule violation identified by a stable code.
// Two domain errors match under errors.Is when their codes are equal, so a
// specific message still matches the generic sentinel of its code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any *DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	return errors.As(target, &t) && t.Code == e.Code
}

// NewDomainError creates a domain error with the given code.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Sentinels for the codes the transition engine branches on.
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// ConcurrentModificationError reports a conditional write that matched no
// row because another transaction changed it first. Re-reading and retrying
// may succeed.
type ConcurrentModificationError struct {
	Resource string
	ID       uuid.UUID
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %s was modified by another process", e.Resource, e.ID)
}

func (e *ConcurrentModificationError) Unwrap() error {
	return ErrConcurrencyConflict
}

// NewConcurrentModificationError creates a ConcurrentModificationError.
func NewConcurrentModificationError(resource string, id uuid.UUID) *ConcurrentModificationError {
	return &ConcurrentModificationError{Resource: resource, ID: id}
}
