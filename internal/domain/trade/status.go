package trade

// EntityType identifies which order lifecycle a status belongs to
type EntityType string

const (
	EntityTypeSalesOrder      EntityType = "sales_order"
	EntityTypeFactoryShipment EntityType = "factory_shipment"
	EntityTypeReturnOrder     EntityType = "return_order"
)

// EntityTypes lists every order entity type the engine drives
var EntityTypes = []EntityType{
	EntityTypeSalesOrder,
	EntityTypeFactoryShipment,
	EntityTypeReturnOrder,
}

// IsValid checks if the entity type is known
func (e EntityType) IsValid() bool {
	_, ok := transitionTables[e]
	return ok
}

// String returns the string representation of EntityType
func (e EntityType) String() string {
	return string(e)
}

// ParseEntityType converts a raw string into a known EntityType
func ParseEntityType(raw string) (EntityType, error) {
	e := EntityType(raw)
	if !e.IsValid() {
		return "", ErrUnknownEntityType
	}
	return e, nil
}

// Status is an order lifecycle status. The set of statuses valid for an
// entity type is the key set of that entity's transition table.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"

	// Factory shipment pipeline
	StatusPlanning       Status = "planning"
	StatusWaitingDeposit Status = "waiting_deposit"
	StatusDepositPaid    Status = "deposit_paid"
	StatusFactoryShipped Status = "factory_shipped"
	StatusInTransit      Status = "in_transit"
	StatusArrived        Status = "arrived"
	StatusDelivered      Status = "delivered"

	// Return order workflow
	StatusSubmitted  Status = "submitted"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusProcessing Status = "processing"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ValidFor checks if the status belongs to the entity type's closed set
func (s Status) ValidFor(entityType EntityType) bool {
	table, ok := transitionTables[entityType]
	if !ok {
		return false
	}
	_, ok = table[s]
	return ok
}

// ParseStatus converts a raw string into a Status of the given entity type
func ParseStatus(entityType EntityType, raw string) (Status, error) {
	if !entityType.IsValid() {
		return "", ErrUnknownEntityType
	}
	s := Status(raw)
	if !s.ValidFor(entityType) {
		return "", &InvalidStatusError{EntityType: entityType, Value: raw}
	}
	return s, nil
}
