package models

import (
	"github.com/erp/orderflow/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundRecordModel is the persistence model for a refund record.
// The (source_type, source_id) unique index guarantees one refund per return.
type RefundRecordModel struct {
	AggregateModel
	RefundNumber    string                     `gorm:"type:varchar(50);not null;uniqueIndex"`
	SourceType      finance.RefundSourceType   `gorm:"type:varchar(30);not null;uniqueIndex:idx_refund_source,priority:1"`
	SourceID        uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:idx_refund_source,priority:2"`
	SourceNumber    string                     `gorm:"type:varchar(50);not null"`
	CustomerID      uuid.UUID                  `gorm:"type:uuid;not null;index"`
	CustomerName    string                     `gorm:"type:varchar(200);not null"`
	RefundAmount    decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	RemainingAmount decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	ProcessedAmount decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	Status          finance.RefundRecordStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
}

// TableName returns the table name for GORM
func (RefundRecordModel) TableName() string {
	return "refund_records"
}

// ToDomain converts the persistence model to a domain RefundRecord.
func (m *RefundRecordModel) ToDomain() *finance.RefundRecord {
	return &finance.RefundRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		RefundNumber:      m.RefundNumber,
		SourceType:        m.SourceType,
		SourceID:          m.SourceID,
		SourceNumber:      m.SourceNumber,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		RefundAmount:      m.RefundAmount,
		RemainingAmount:   m.RemainingAmount,
		ProcessedAmount:   m.ProcessedAmount,
		Status:            m.Status,
	}
}

// RefundRecordModelFromDomain creates a persistence model from a domain RefundRecord.
func RefundRecordModelFromDomain(r *finance.RefundRecord) *RefundRecordModel {
	m := &RefundRecordModel{
		RefundNumber:    r.RefundNumber,
		SourceType:      r.SourceType,
		SourceID:        r.SourceID,
		SourceNumber:    r.SourceNumber,
		CustomerID:      r.CustomerID,
		CustomerName:    r.CustomerName,
		RefundAmount:    r.RefundAmount,
		RemainingAmount: r.RemainingAmount,
		ProcessedAmount: r.ProcessedAmount,
		Status:          r.Status,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// ReceivableRecordModel is the persistence model for a receivable record.
type ReceivableRecordModel struct {
	AggregateModel
	ReceivableNumber  string                       `gorm:"type:varchar(50);not null;uniqueIndex"`
	SourceType        finance.ReceivableSourceType `gorm:"type:varchar(30);not null;uniqueIndex:idx_receivable_source,priority:1"`
	SourceID          uuid.UUID                    `gorm:"type:uuid;not null;uniqueIndex:idx_receivable_source,priority:2"`
	SourceNumber      string                       `gorm:"type:varchar(50);not null"`
	CustomerID        uuid.UUID                    `gorm:"type:uuid;not null;index"`
	CustomerName      string                       `gorm:"type:varchar(200);not null"`
	TotalAmount       decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	PaidAmount        decimal.Decimal              `gorm:"type:decimal(18,4);not null;default:0"`
	OutstandingAmount decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Status            finance.ReceivableStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
}

// TableName returns the table name for GORM
func (ReceivableRecordModel) TableName() string {
	return "receivable_records"
}

// ToDomain converts the persistence model to a domain ReceivableRecord.
func (m *ReceivableRecordModel) ToDomain() *finance.ReceivableRecord {
	return &finance.ReceivableRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ReceivableNumber:  m.ReceivableNumber,
		SourceType:        m.SourceType,
		SourceID:          m.SourceID,
		SourceNumber:      m.SourceNumber,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		OutstandingAmount: m.OutstandingAmount,
		Status:            m.Status,
	}
}

// ReceivableRecordModelFromDomain creates a persistence model from a domain ReceivableRecord.
func ReceivableRecordModelFromDomain(r *finance.ReceivableRecord) *ReceivableRecordModel {
	m := &ReceivableRecordModel{
		ReceivableNumber:  r.ReceivableNumber,
		SourceType:        r.SourceType,
		SourceID:          r.SourceID,
		SourceNumber:      r.SourceNumber,
		CustomerID:        r.CustomerID,
		CustomerName:      r.CustomerName,
		TotalAmount:       r.TotalAmount,
		PaidAmount:        r.PaidAmount,
		OutstandingAmount: r.OutstandingAmount,
		Status:            r.Status,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}
