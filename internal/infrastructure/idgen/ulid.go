// Package idgen issues document numbers for records created by the order engine.
package idgen

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator issues numbers of the form PREFIX-<ULID>. ULIDs sort by
// creation time, so numbers issued later compare greater.
type ULIDGenerator struct {
	now func() time.Time
}

// NewULIDGenerator creates a generator backed by the wall clock.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{now: time.Now}
}

// Next returns a new number with the given prefix.
func (g *ULIDGenerator) Next(ctx context.Context, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := ulid.New(ulid.Timestamp(g.now()), ulid.DefaultEntropy())
	if err != nil {
		return "", err
	}
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return id.String(), nil
	}
	return prefix + "-" + id.String(), nil
}
