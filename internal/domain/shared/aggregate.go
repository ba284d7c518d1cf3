package shared

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is anything persisted with a compare-and-swap on its version.
type AggregateRoot interface {
	GetID() uuid.UUID
	GetVersion() int
	GetUpdatedAt() time.Time
}

// BaseAggregateRoot is embedded by orders, inventory records and finance
// records. Version starts at 1 and Touch is the only thing that moves it,
// one step per accepted change; a save is valid only while the stored
// version still equals the one that was loaded.
type BaseAggregateRoot struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	created := time.Now()
	return BaseAggregateRoot{ID: uuid.New(), CreatedAt: created, UpdatedAt: created, Version: 1}
}

func (a *BaseAggregateRoot) GetID() uuid.UUID { return a.ID }
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }
func (a *BaseAggregateRoot) GetUpdatedAt() time.Time { return a.UpdatedAt }

// Touch stamps a change made at the given time.
func (a *BaseAggregateRoot) Touch(at time.Time) {
	a.UpdatedAt = at
	a.Version++
}
