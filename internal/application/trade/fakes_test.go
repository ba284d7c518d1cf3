package trade

import (
	"context"
	"fmt"
	"sync"

	"github.com/erp/orderflow/internal/domain/finance"
	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/google/uuid"
)

// memOrders stores orders by value so every FindByID returns a private snapshot
type memOrders struct {
	mu         sync.Mutex
	entityType trade.EntityType
	orders     map[uuid.UUID]trade.Order
}

func newMemOrders(entityType trade.EntityType, orders ...trade.Order) *memOrders {
	m := &memOrders{entityType: entityType, orders: make(map[uuid.UUID]trade.Order)}
	for _, o := range orders {
		m.orders[o.GetID()] = cloneOrder(o)
	}
	return m
}

func cloneOrder(o trade.Order) trade.Order {
	switch v := o.(type) {
	case *trade.SalesOrder:
		c := *v
		return &c
	case *trade.FactoryShipmentOrder:
		c := *v
		return &c
	case *trade.ReturnOrder:
		c := *v
		return &c
	}
	return o
}

func (m *memOrders) EntityType() trade.EntityType { return m.entityType }

func (m *memOrders) FindByID(_ context.Context, id uuid.UUID) (trade.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, &trade.OrderNotFoundError{EntityType: m.entityType, ID: id}
	}
	return cloneOrder(o), nil
}

func (m *memOrders) FindStatus(ctx context.Context, id uuid.UUID) (trade.Status, error) {
	o, err := m.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return o.CurrentStatus(), nil
}

func (m *memOrders) Create(_ context.Context, o trade.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.GetID()] = cloneOrder(o)
	return nil
}

func (m *memOrders) UpdateStatus(_ context.Context, o trade.Order, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.GetID()]
	if !ok || stored.GetVersion() != expectedVersion {
		return shared.NewConcurrentModificationError(string(m.entityType), o.GetID())
	}
	m.orders[o.GetID()] = cloneOrder(o)
	return nil
}

func (m *memOrders) status(id uuid.UUID) trade.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].CurrentStatus()
}

// memStock is a LedgerStore whose conditional writes are atomic under a mutex.
// When readBarrier is set every FindByKey waits on it after reading.
type memStock struct {
	mu          sync.Mutex
	records     map[uuid.UUID]inventory.InventoryRecord
	readBarrier *sync.WaitGroup
}

func newMemStock(records ...*inventory.InventoryRecord) *memStock {
	s := &memStock{records: make(map[uuid.UUID]inventory.InventoryRecord)}
	for _, r := range records {
		s.records[r.ID] = *r
	}
	return s
}

func (s *memStock) FindByKey(_ context.Context, key inventory.StockKey) (*inventory.InventoryRecord, error) {
	s.mu.Lock()
	var found *inventory.InventoryRecord
	for _, r := range s.records {
		if r.Key().Equal(key) {
			c := r
			found = &c
			break
		}
	}
	s.mu.Unlock()

	if s.readBarrier != nil {
		s.readBarrier.Done()
		s.readBarrier.Wait()
	}
	if found == nil {
		return nil, shared.ErrNotFound
	}
	return found, nil
}

func (s *memStock) DecrementIfAvailable(_ context.Context, id uuid.UUID, quantity int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return false, nil
	}
	applied := r.ApplyDecrement(quantity)
	s.records[id] = r
	return applied, nil
}

func (s *memStock) ReleaseReserved(_ context.Context, id uuid.UUID, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		r.ApplyRelease(quantity)
		s.records[id] = r
	}
	return nil
}

func (s *memStock) get(id uuid.UUID) inventory.InventoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

type memRefunds struct {
	mu      sync.Mutex
	records []*finance.RefundRecord
}

func (m *memRefunds) ExistsBySource(ctx context.Context, st finance.RefundSourceType, id uuid.UUID) (bool, error) {
	n, err := m.CountBySource(ctx, st, id)
	return n > 0, err
}

func (m *memRefunds) FindBySource(_ context.Context, st finance.RefundSourceType, id uuid.UUID) (*finance.RefundRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.SourceType == st && r.SourceID == id {
			return r, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRefunds) CountBySource(_ context.Context, st finance.RefundSourceType, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.SourceType == st && r.SourceID == id {
			n++
		}
	}
	return n, nil
}

func (m *memRefunds) Create(_ context.Context, r *finance.RefundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

type memReceivables struct {
	mu      sync.Mutex
	records []*finance.ReceivableRecord
}

func (m *memReceivables) ExistsBySource(ctx context.Context, st finance.ReceivableSourceType, id uuid.UUID) (bool, error) {
	n, err := m.CountBySource(ctx, st, id)
	return n > 0, err
}

func (m *memReceivables) FindBySource(_ context.Context, st finance.ReceivableSourceType, id uuid.UUID) (*finance.ReceivableRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.SourceType == st && r.SourceID == id {
			return r, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memReceivables) CountBySource(_ context.Context, st finance.ReceivableSourceType, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.SourceType == st && r.SourceID == id {
			n++
		}
	}
	return n, nil
}

func (m *memReceivables) Create(_ context.Context, r *finance.ReceivableRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

// seqNumbers issues PREFIX-0001, PREFIX-0002, ...
type seqNumbers struct {
	mu sync.Mutex
	n  int
}

func (s *seqNumbers) Next(_ context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%04d", prefix, s.n), nil
}
