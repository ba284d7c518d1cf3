package shared

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultIdempotencyTTL is how long an applied transition key is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers transition requests that were already applied.
// Keys are opaque to the store; build them with TransitionKey.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl and reports false if it was already recorded.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// TransitionKey scopes a client idempotency key to one order and target
// status, so the same client key sent for another order or status is a new
// request rather than a replay.
func TransitionKey(entityType string, orderID uuid.UUID, target, clientKey string) string {
	return strings.Join([]string{"transition", entityType, orderID.String(), target, clientKey}, ":")
}
