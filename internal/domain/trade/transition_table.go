package trade

// InventoryEffect describes what a transition does to the inventory ledger
type InventoryEffect string

const (
	EffectNone      InventoryEffect = "none"
	EffectDecrement InventoryEffect = "decrement"
	EffectRelease   InventoryEffect = "release"
)

// String returns the string representation of InventoryEffect
func (e InventoryEffect) String() string {
	return string(e)
}

type edge struct {
	to     Status
	effect InventoryEffect
}

// transitionTables maps each entity type to its status graph. Every status of
// the entity appears as a key; terminal statuses map to an empty edge list.
// Edge order is the order AllowedTransitions reports.
var transitionTables = map[EntityType]map[Status][]edge{
	EntityTypeSalesOrder: {
		StatusDraft: {
			{StatusConfirmed, EffectNone},
			{StatusCancelled, EffectNone},
		},
		StatusConfirmed: {
			{StatusShipped, EffectDecrement},
			{StatusCompleted, EffectDecrement},
			{StatusCancelled, EffectRelease},
		},
		StatusShipped:   {},
		StatusCompleted: {},
		StatusCancelled: {},
	},
	EntityTypeFactoryShipment: {
		StatusDraft: {
			{StatusPlanning, EffectNone},
			{StatusCancelled, EffectNone},
		},
		StatusPlanning: {
			{StatusWaitingDeposit, EffectNone},
			{StatusCancelled, EffectNone},
		},
		StatusWaitingDeposit: {
			{StatusDepositPaid, EffectNone},
			{StatusCancelled, EffectNone},
		},
		StatusDepositPaid: {
			{StatusFactoryShipped, EffectNone},
			{StatusCancelled, EffectNone},
		},
		StatusFactoryShipped: {{StatusInTransit, EffectNone}},
		StatusInTransit:      {{StatusArrived, EffectNone}},
		StatusArrived:        {{StatusDelivered, EffectNone}},
		StatusDelivered:      {{StatusCompleted, EffectNone}},
		StatusCompleted:      {},
		StatusCancelled:      {},
	},
	EntityTypeReturnOrder: {
		StatusDraft: {
			{StatusSubmitted, EffectNone},
			{StatusCancelled, EffectNone},
		},
		StatusSubmitted: {
			{StatusApproved, EffectNone},
			{StatusRejected, EffectNone},
			{StatusCancelled, EffectNone},
		},
		StatusApproved: {
			{StatusProcessing, EffectNone},
			{StatusCancelled, EffectNone},
		},
		StatusProcessing: {
			{StatusCompleted, EffectNone},
			{StatusCancelled, EffectNone},
		},
		StatusCompleted: {},
		StatusRejected:  {},
		StatusCancelled: {},
	},
}

// ValidateTransition checks the requested move against the entity's transition
// table and returns the inventory effect attached to the edge.
// It has no side effects and must run before any mutation.
func ValidateTransition(entityType EntityType, current, target Status) (InventoryEffect, error) {
	table, ok := transitionTables[entityType]
	if !ok {
		return EffectNone, ErrUnknownEntityType
	}
	for _, e := range table[current] {
		if e.to == target {
			return e.effect, nil
		}
	}
	return EffectNone, &TransitionError{
		EntityType: entityType,
		Current:    current,
		Target:     target,
	}
}

// CanTransition reports whether current -> target is a legal move
func CanTransition(entityType EntityType, current, target Status) bool {
	_, err := ValidateTransition(entityType, current, target)
	return err == nil
}

// AllowedTransitions returns the statuses reachable from current in one step
func AllowedTransitions(entityType EntityType, current Status) []Status {
	edges := transitionTables[entityType][current]
	out := make([]Status, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.to)
	}
	return out
}

// IsTerminal reports whether no transition leaves the status
func IsTerminal(entityType EntityType, s Status) bool {
	return s.ValidFor(entityType) && len(transitionTables[entityType][s]) == 0
}

// InitialStatus is the status every order of the entity type is created in
func InitialStatus(entityType EntityType) Status {
	return StatusDraft
}

// Statuses returns every status of the entity type in a stable order
func Statuses(entityType EntityType) []Status {
	table := transitionTables[entityType]
	if table == nil {
		return nil
	}
	seen := make(map[Status]bool, len(table))
	out := make([]Status, 0, len(table))
	var walk func(s Status)
	walk = func(s Status) {
		if seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
		for _, e := range table[s] {
			walk(e.to)
		}
	}
	walk(InitialStatus(entityType))
	return out
}
