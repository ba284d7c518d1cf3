package trade

import (
	"context"

	"github.com/erp/orderflow/internal/domain/finance"
	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/domain/trade"
)

// TransactionScope runs a unit of work. Every repository handed to fn shares
// one database transaction, committed if fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories an order transition
// touches, all bound to the same transaction.
type TransactionalRepositories interface {
	// Orders returns the repository for the entity type, or trade.ErrUnknownEntityType
	Orders(entityType trade.EntityType) (trade.OrderRepository, error)
	// Stock returns the inventory ledger store
	Stock() inventory.LedgerStore
	// Refunds returns the refund record repository
	Refunds() finance.RefundRecordRepository
	// Receivables returns the receivable record repository
	Receivables() finance.ReceivableRecordRepository
}

// NoOpTransactionScope runs the unit of work without a real transaction.
// This is useful for testing with in-memory or mocked repositories.
type NoOpTransactionScope struct {
	orders      map[trade.EntityType]trade.OrderRepository
	stock       inventory.LedgerStore
	refunds     finance.RefundRecordRepository
	receivables finance.ReceivableRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	orders []trade.OrderRepository,
	stock inventory.LedgerStore,
	refunds finance.RefundRecordRepository,
	receivables finance.ReceivableRecordRepository,
) *NoOpTransactionScope {
	byType := make(map[trade.EntityType]trade.OrderRepository, len(orders))
	for _, repo := range orders {
		byType[repo.EntityType()] = repo
	}
	return &NoOpTransactionScope{
		orders:      byType,
		stock:       stock,
		refunds:     refunds,
		receivables: receivables,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Orders returns the order repository for the entity type
func (s *NoOpTransactionScope) Orders(entityType trade.EntityType) (trade.OrderRepository, error) {
	repo, ok := s.orders[entityType]
	if !ok {
		return nil, trade.ErrUnknownEntityType
	}
	return repo, nil
}

// Stock returns the ledger store
func (s *NoOpTransactionScope) Stock() inventory.LedgerStore {
	return s.stock
}

// Refunds returns the refund repository
func (s *NoOpTransactionScope) Refunds() finance.RefundRecordRepository {
	return s.refunds
}

// Receivables returns the receivable repository
func (s *NoOpTransactionScope) Receivables() finance.ReceivableRecordRepository {
	return s.receivables
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
