package models

import (
	"time"

	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/google/uuid"
)

// InventoryRecordModel is the persistence model for an inventory record.
// A missing variant is stored as the nil UUID so the stock key can be a
// plain composite unique index.
type InventoryRecordModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_stock_key,priority:1"`
	VariantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_stock_key,priority:2"`
	BatchNumber      string    `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_inventory_stock_key,priority:3"`
	ProductName      string    `gorm:"type:varchar(200);not null"`
	Quantity         int64     `gorm:"not null;default:0"`
	ReservedQuantity int64     `gorm:"not null;default:0"`
	Version          int       `gorm:"not null;default:1"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryRecordModel) TableName() string {
	return "inventory_records"
}

// ToDomain converts the persistence model to a domain InventoryRecord.
func (m *InventoryRecordModel) ToDomain() *inventory.InventoryRecord {
	return &inventory.InventoryRecord{
		ID:               m.ID,
		ProductID:        m.ProductID,
		ProductName:      m.ProductName,
		VariantID:        VariantFromColumn(m.VariantID),
		BatchNumber:      m.BatchNumber,
		Quantity:         m.Quantity,
		ReservedQuantity: m.ReservedQuantity,
		Version:          m.Version,
		UpdatedAt:        m.UpdatedAt,
	}
}

// InventoryRecordModelFromDomain creates a persistence model from a domain InventoryRecord.
func InventoryRecordModelFromDomain(r *inventory.InventoryRecord) *InventoryRecordModel {
	return &InventoryRecordModel{
		ID:               r.ID,
		ProductID:        r.ProductID,
		VariantID:        VariantColumn(r.VariantID),
		BatchNumber:      r.BatchNumber,
		ProductName:      r.ProductName,
		Quantity:         r.Quantity,
		ReservedQuantity: r.ReservedQuantity,
		Version:          r.Version,
		CreatedAt:        r.UpdatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// VariantColumn maps an optional variant to its stored value.
func VariantColumn(v *uuid.UUID) uuid.UUID {
	if v == nil {
		return uuid.Nil
	}
	return *v
}

// VariantFromColumn maps a stored variant back to the optional domain value.
func VariantFromColumn(v uuid.UUID) *uuid.UUID {
	if v == uuid.Nil {
		return nil
	}
	return &v
}
