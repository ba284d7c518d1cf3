package trade

import (
	"errors"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/domain/trade"
)

// ErrorKind classifies the outcome of a transition for callers that need to
// branch on it without inspecting concrete error types.
type ErrorKind string

const (
	KindNone                   ErrorKind = ""
	KindNotFound               ErrorKind = "not_found"
	KindTransition             ErrorKind = "transition"
	KindInsufficientStock      ErrorKind = "insufficient_stock"
	KindConcurrentModification ErrorKind = "concurrent_modification"
	KindInvalidInput           ErrorKind = "invalid_input"
	KindInternal               ErrorKind = "internal"
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	if k == KindNone {
		return "ok"
	}
	return string(k)
}

// Retryable reports whether re-reading state and re-issuing the request may succeed
func (k ErrorKind) Retryable() bool {
	return k == KindConcurrentModification
}

// KindOf maps an error returned by OrderTransitionService to its ErrorKind.
// Anything that is not a domain error is internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, shared.ErrConcurrencyConflict):
		return KindConcurrentModification
	case errors.Is(err, shared.ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, shared.ErrInvalidState):
		return KindTransition
	case errors.Is(err, shared.ErrNotFound):
		return KindNotFound
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, trade.ErrUnknownEntityType):
		return KindInvalidInput
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return KindInvalidInput
	}
	return KindInternal
}
