package persistence

import (
	"context"
	"errors"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/erp/orderflow/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// orderTable holds the queries the three order repositories share.
type orderTable struct {
	db         *gorm.DB
	entityType trade.EntityType
	model      func() any
}

func (t orderTable) findStatus(ctx context.Context, id uuid.UUID) (trade.Status, error) {
	var row struct {
		Status trade.Status
	}
	res := t.db.WithContext(ctx).
		Model(t.model()).
		Select("status").
		Where("id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", &trade.OrderNotFoundError{EntityType: t.entityType, ID: id}
	}
	return row.Status, nil
}

func (t orderTable) first(ctx context.Context, dest any, id uuid.UUID) error {
	err := t.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no")
		}).
		First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &trade.OrderNotFoundError{EntityType: t.entityType, ID: id}
	}
	return err
}

// updateStatus writes cols only while the row is still at expectedVersion.
func (t orderTable) updateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, cols map[string]any) error {
	res := t.db.WithContext(ctx).
		Model(t.model()).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewConcurrentModificationError(string(t.entityType), id)
	}
	return nil
}

func (t orderTable) create(ctx context.Context, model any) error {
	if err := t.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func headerColumns(h *trade.OrderHeader) map[string]any {
	return map[string]any{
		"status":       h.Status,
		"remarks":      h.Remarks,
		"completed_at": h.CompletedAt,
		"cancelled_at": h.CancelledAt,
		"version":      h.Version,
		"updated_at":   h.UpdatedAt,
	}
}

func typeMismatch(want trade.EntityType, got trade.Order) error {
	return shared.NewDomainError("INVALID_ENTITY_TYPE",
		"expected "+want.String()+", got "+got.EntityType().String())
}

// GormSalesOrderRepository implements trade.OrderRepository for sales orders
type GormSalesOrderRepository struct {
	orderTable
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{orderTable{
		db:         db,
		entityType: trade.EntityTypeSalesOrder,
		model:      func() any { return &models.SalesOrderModel{} },
	}}
}

// EntityType implements trade.OrderRepository
func (r *GormSalesOrderRepository) EntityType() trade.EntityType {
	return trade.EntityTypeSalesOrder
}

// FindByID loads a sales order with its items
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (trade.Order, error) {
	var m models.SalesOrderModel
	if err := r.first(ctx, &m, id); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindStatus returns the current status of a sales order
func (r *GormSalesOrderRepository) FindStatus(ctx context.Context, id uuid.UUID) (trade.Status, error) {
	return r.findStatus(ctx, id)
}

// Create inserts a sales order and its items
func (r *GormSalesOrderRepository) Create(ctx context.Context, order trade.Order) error {
	o, ok := order.(*trade.SalesOrder)
	if !ok {
		return typeMismatch(trade.EntityTypeSalesOrder, order)
	}
	return r.create(ctx, models.SalesOrderModelFromDomain(o))
}

// UpdateStatus writes the transition fields with a version check
func (r *GormSalesOrderRepository) UpdateStatus(ctx context.Context, order trade.Order, expectedVersion int) error {
	o, ok := order.(*trade.SalesOrder)
	if !ok {
		return typeMismatch(trade.EntityTypeSalesOrder, order)
	}
	cols := headerColumns(&o.OrderHeader)
	cols["confirmed_at"] = o.ConfirmedAt
	cols["shipped_at"] = o.ShippedAt
	return r.updateStatus(ctx, o.ID, expectedVersion, cols)
}

// GormFactoryShipmentOrderRepository implements trade.OrderRepository for factory shipments
type GormFactoryShipmentOrderRepository struct {
	orderTable
}

// NewGormFactoryShipmentOrderRepository creates a new GormFactoryShipmentOrderRepository
func NewGormFactoryShipmentOrderRepository(db *gorm.DB) *GormFactoryShipmentOrderRepository {
	return &GormFactoryShipmentOrderRepository{orderTable{
		db:         db,
		entityType: trade.EntityTypeFactoryShipment,
		model:      func() any { return &models.FactoryShipmentOrderModel{} },
	}}
}

// EntityType implements trade.OrderRepository
func (r *GormFactoryShipmentOrderRepository) EntityType() trade.EntityType {
	return trade.EntityTypeFactoryShipment
}

// FindByID loads a factory shipment with its items
func (r *GormFactoryShipmentOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (trade.Order, error) {
	var m models.FactoryShipmentOrderModel
	if err := r.first(ctx, &m, id); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindStatus returns the current status of a factory shipment
func (r *GormFactoryShipmentOrderRepository) FindStatus(ctx context.Context, id uuid.UUID) (trade.Status, error) {
	return r.findStatus(ctx, id)
}

// Create inserts a factory shipment and its items
func (r *GormFactoryShipmentOrderRepository) Create(ctx context.Context, order trade.Order) error {
	o, ok := order.(*trade.FactoryShipmentOrder)
	if !ok {
		return typeMismatch(trade.EntityTypeFactoryShipment, order)
	}
	return r.create(ctx, models.FactoryShipmentOrderModelFromDomain(o))
}

// UpdateStatus writes the transition fields with a version check
func (r *GormFactoryShipmentOrderRepository) UpdateStatus(ctx context.Context, order trade.Order, expectedVersion int) error {
	o, ok := order.(*trade.FactoryShipmentOrder)
	if !ok {
		return typeMismatch(trade.EntityTypeFactoryShipment, order)
	}
	cols := headerColumns(&o.OrderHeader)
	cols["deposit_paid_at"] = o.DepositPaidAt
	cols["factory_shipped_at"] = o.FactoryShippedAt
	cols["delivered_at"] = o.DeliveredAt
	return r.updateStatus(ctx, o.ID, expectedVersion, cols)
}

// GormReturnOrderRepository implements trade.OrderRepository for return orders
type GormReturnOrderRepository struct {
	orderTable
}

// NewGormReturnOrderRepository creates a new GormReturnOrderRepository
func NewGormReturnOrderRepository(db *gorm.DB) *GormReturnOrderRepository {
	return &GormReturnOrderRepository{orderTable{
		db:         db,
		entityType: trade.EntityTypeReturnOrder,
		model:      func() any { return &models.ReturnOrderModel{} },
	}}
}

// EntityType implements trade.OrderRepository
func (r *GormReturnOrderRepository) EntityType() trade.EntityType {
	return trade.EntityTypeReturnOrder
}

// FindByID loads a return order with its items
func (r *GormReturnOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (trade.Order, error) {
	var m models.ReturnOrderModel
	if err := r.first(ctx, &m, id); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindStatus returns the current status of a return order
func (r *GormReturnOrderRepository) FindStatus(ctx context.Context, id uuid.UUID) (trade.Status, error) {
	return r.findStatus(ctx, id)
}

// Create inserts a return order and its items
func (r *GormReturnOrderRepository) Create(ctx context.Context, order trade.Order) error {
	o, ok := order.(*trade.ReturnOrder)
	if !ok {
		return typeMismatch(trade.EntityTypeReturnOrder, order)
	}
	return r.create(ctx, models.ReturnOrderModelFromDomain(o))
}

// UpdateStatus writes the transition fields with a version check
func (r *GormReturnOrderRepository) UpdateStatus(ctx context.Context, order trade.Order, expectedVersion int) error {
	o, ok := order.(*trade.ReturnOrder)
	if !ok {
		return typeMismatch(trade.EntityTypeReturnOrder, order)
	}
	cols := headerColumns(&o.OrderHeader)
	cols["submitted_at"] = o.SubmittedAt
	cols["approved_at"] = o.ApprovedAt
	cols["rejected_at"] = o.RejectedAt
	return r.updateStatus(ctx, o.ID, expectedVersion, cols)
}

var (
	_ trade.OrderRepository = (*GormSalesOrderRepository)(nil)
	_ trade.OrderRepository = (*GormFactoryShipmentOrderRepository)(nil)
	_ trade.OrderRepository = (*GormReturnOrderRepository)(nil)
)
