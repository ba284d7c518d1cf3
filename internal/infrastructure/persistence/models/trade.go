package models

import (
	"time"

	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderHeaderColumns are the columns every order table carries.
type OrderHeaderColumns struct {
	AggregateModel
	CustomerID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	CustomerName string       `gorm:"type:varchar(200);not null"`
	Status       trade.Status `gorm:"type:varchar(30);not null;default:'draft';index"`
	Remarks      *string      `gorm:"type:text"`
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

func (c *OrderHeaderColumns) fromDomain(h *trade.OrderHeader) {
	c.FromDomainAggregateRoot(h.BaseAggregateRoot)
	c.CustomerID = h.CustomerID
	c.CustomerName = h.CustomerName
	c.Status = h.Status
	c.Remarks = h.Remarks
	c.CompletedAt = h.CompletedAt
	c.CancelledAt = h.CancelledAt
}

func (c *OrderHeaderColumns) toDomain(items []trade.OrderItem) trade.OrderHeader {
	return trade.OrderHeader{
		BaseAggregateRoot: c.ToDomainAggregateRoot(),
		CustomerID:        c.CustomerID,
		CustomerName:      c.CustomerName,
		Status:            c.Status,
		Items:             items,
		Remarks:           c.Remarks,
		CompletedAt:       c.CompletedAt,
		CancelledAt:       c.CancelledAt,
	}
}

// OrderItemColumns are the columns every order item table carries.
// LineNo keeps items in the order they were added.
type OrderItemColumns struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null;default:0"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	VariantID   *uuid.UUID      `gorm:"type:uuid"`
	BatchNumber string          `gorm:"type:varchar(100);not null;default:''"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// ToDomain converts the columns to a domain OrderItem.
func (c *OrderItemColumns) ToDomain() trade.OrderItem {
	return trade.OrderItem{
		ID:          c.ID,
		OrderID:     c.OrderID,
		ProductID:   c.ProductID,
		ProductName: c.ProductName,
		VariantID:   c.VariantID,
		BatchNumber: c.BatchNumber,
		Quantity:    c.Quantity,
		UnitPrice:   c.UnitPrice,
		CreatedAt:   c.CreatedAt,
	}
}

func itemColumnsFromDomain(orderID uuid.UUID, lineNo int, i trade.OrderItem) OrderItemColumns {
	return OrderItemColumns{
		ID:          i.ID,
		OrderID:     orderID,
		LineNo:      lineNo,
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		VariantID:   i.VariantID,
		BatchNumber: i.BatchNumber,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		CreatedAt:   i.CreatedAt,
	}
}

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	OrderHeaderColumns
	OrderNumber string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	TotalAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	ConfirmedAt *time.Time
	ShippedAt   *time.Time
	Items       []SalesOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	items := make([]trade.OrderItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}
	return &trade.SalesOrder{
		OrderHeader: m.toDomain(items),
		OrderNumber: m.OrderNumber,
		TotalAmount: m.TotalAmount,
		ConfirmedAt: m.ConfirmedAt,
		ShippedAt:   m.ShippedAt,
	}
}

// SalesOrderModelFromDomain creates a persistence model from a domain SalesOrder.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{
		OrderNumber: o.OrderNumber,
		TotalAmount: o.TotalAmount,
		ConfirmedAt: o.ConfirmedAt,
		ShippedAt:   o.ShippedAt,
		Items:       make([]SalesOrderItemModel, len(o.Items)),
	}
	m.fromDomain(&o.OrderHeader)
	for i, item := range o.Items {
		m.Items[i] = SalesOrderItemModel{itemColumnsFromDomain(o.ID, i, item)}
	}
	return m
}

// SalesOrderItemModel is a sales order line.
type SalesOrderItemModel struct {
	OrderItemColumns
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}

// FactoryShipmentOrderModel is the persistence model for the FactoryShipmentOrder aggregate root.
type FactoryShipmentOrderModel struct {
	OrderHeaderColumns
	ShipmentNumber   string                     `gorm:"type:varchar(50);not null;uniqueIndex"`
	TotalAmount      decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	DepositAmount    decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	DepositPaidAt    *time.Time
	FactoryShippedAt *time.Time
	DeliveredAt      *time.Time
	Items            []FactoryShipmentItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (FactoryShipmentOrderModel) TableName() string {
	return "factory_shipment_orders"
}

// ToDomain converts the persistence model to a domain FactoryShipmentOrder.
func (m *FactoryShipmentOrderModel) ToDomain() *trade.FactoryShipmentOrder {
	items := make([]trade.OrderItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}
	return &trade.FactoryShipmentOrder{
		OrderHeader:      m.toDomain(items),
		ShipmentNumber:   m.ShipmentNumber,
		TotalAmount:      m.TotalAmount,
		DepositAmount:    m.DepositAmount,
		DepositPaidAt:    m.DepositPaidAt,
		FactoryShippedAt: m.FactoryShippedAt,
		DeliveredAt:      m.DeliveredAt,
	}
}

// FactoryShipmentOrderModelFromDomain creates a persistence model from a domain FactoryShipmentOrder.
func FactoryShipmentOrderModelFromDomain(o *trade.FactoryShipmentOrder) *FactoryShipmentOrderModel {
	m := &FactoryShipmentOrderModel{
		ShipmentNumber:   o.ShipmentNumber,
		TotalAmount:      o.TotalAmount,
		DepositAmount:    o.DepositAmount,
		DepositPaidAt:    o.DepositPaidAt,
		FactoryShippedAt: o.FactoryShippedAt,
		DeliveredAt:      o.DeliveredAt,
		Items:            make([]FactoryShipmentItemModel, len(o.Items)),
	}
	m.fromDomain(&o.OrderHeader)
	for i, item := range o.Items {
		m.Items[i] = FactoryShipmentItemModel{itemColumnsFromDomain(o.ID, i, item)}
	}
	return m
}

// FactoryShipmentItemModel is a factory shipment line.
type FactoryShipmentItemModel struct {
	OrderItemColumns
}

// TableName returns the table name for GORM
func (FactoryShipmentItemModel) TableName() string {
	return "factory_shipment_items"
}

// ReturnOrderModel is the persistence model for the ReturnOrder aggregate root.
type ReturnOrderModel struct {
	OrderHeaderColumns
	ReturnNumber string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	SalesOrderID *uuid.UUID             `gorm:"type:uuid;index"`
	ProcessType  trade.ProcessType      `gorm:"type:varchar(20);not null;default:'refund'"`
	RefundAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	SubmittedAt  *time.Time
	ApprovedAt   *time.Time
	RejectedAt   *time.Time
	Items        []ReturnOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (ReturnOrderModel) TableName() string {
	return "return_orders"
}

// ToDomain converts the persistence model to a domain ReturnOrder.
func (m *ReturnOrderModel) ToDomain() *trade.ReturnOrder {
	items := make([]trade.OrderItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}
	return &trade.ReturnOrder{
		OrderHeader:  m.toDomain(items),
		ReturnNumber: m.ReturnNumber,
		SalesOrderID: m.SalesOrderID,
		ProcessType:  m.ProcessType,
		RefundAmount: m.RefundAmount,
		SubmittedAt:  m.SubmittedAt,
		ApprovedAt:   m.ApprovedAt,
		RejectedAt:   m.RejectedAt,
	}
}

// ReturnOrderModelFromDomain creates a persistence model from a domain ReturnOrder.
func ReturnOrderModelFromDomain(o *trade.ReturnOrder) *ReturnOrderModel {
	m := &ReturnOrderModel{
		ReturnNumber: o.ReturnNumber,
		SalesOrderID: o.SalesOrderID,
		ProcessType:  o.ProcessType,
		RefundAmount: o.RefundAmount,
		SubmittedAt:  o.SubmittedAt,
		ApprovedAt:   o.ApprovedAt,
		RejectedAt:   o.RejectedAt,
		Items:        make([]ReturnOrderItemModel, len(o.Items)),
	}
	m.fromDomain(&o.OrderHeader)
	for i, item := range o.Items {
		m.Items[i] = ReturnOrderItemModel{itemColumnsFromDomain(o.ID, i, item)}
	}
	return m
}

// ReturnOrderItemModel is a returned line.
type ReturnOrderItemModel struct {
	OrderItemColumns
}

// TableName returns the table name for GORM
func (ReturnOrderItemModel) TableName() string {
	return "return_order_items"
}
