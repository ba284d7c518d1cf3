package persistence

import (
	"context"

	apptrade "github.com/erp/orderflow/internal/application/trade"
	"github.com/erp/orderflow/internal/domain/finance"
	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to the unit of work shares the same *gorm.DB tx.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Orders returns the order repository for the entity type, scoped to the current transaction.
func (r *gormTransactionalRepositories) Orders(entityType trade.EntityType) (trade.OrderRepository, error) {
	return NewOrderRepository(r.tx, entityType)
}

// Stock returns the inventory ledger store scoped to the current transaction.
func (r *gormTransactionalRepositories) Stock() inventory.LedgerStore {
	return NewGormInventoryRecordRepository(r.tx)
}

// Refunds returns the refund record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Refunds() finance.RefundRecordRepository {
	return NewGormRefundRecordRepository(r.tx)
}

// Receivables returns the receivable record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Receivables() finance.ReceivableRecordRepository {
	return NewGormReceivableRecordRepository(r.tx)
}

// NewOrderRepository returns the GORM repository for an order entity type
func NewOrderRepository(db *gorm.DB, entityType trade.EntityType) (trade.OrderRepository, error) {
	switch entityType {
	case trade.EntityTypeSalesOrder:
		return NewGormSalesOrderRepository(db), nil
	case trade.EntityTypeFactoryShipment:
		return NewGormFactoryShipmentOrderRepository(db), nil
	case trade.EntityTypeReturnOrder:
		return NewGormReturnOrderRepository(db), nil
	default:
		return nil, trade.ErrUnknownEntityType
	}
}

// Ensure GormTransactionScope implements TransactionScope
var _ apptrade.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ apptrade.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
