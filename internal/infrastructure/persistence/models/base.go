package models

import (
	"time"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel holds the columns every versioned table shares. Version
// is the compare-and-swap guard for status writes.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot copies identity, timestamps and version from the domain
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}

// ToDomainAggregateRoot rebuilds the domain BaseAggregateRoot
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Version:   m.Version,
	}
}

// All returns every model for AutoMigrate in tests and local development.
// Production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&SalesOrderModel{},
		&SalesOrderItemModel{},
		&FactoryShipmentOrderModel{},
		&FactoryShipmentItemModel{},
		&ReturnOrderModel{},
		&ReturnOrderItemModel{},
		&InventoryRecordModel{},
		&RefundRecordModel{},
		&ReceivableRecordModel{},
	}
}
