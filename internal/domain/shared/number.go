package shared

import "context"

// NumberGenerator issues unique human-readable document numbers
// such as refund or receivable numbers.
type NumberGenerator interface {
	Next(ctx context.Context, prefix string) (string, error)
}
