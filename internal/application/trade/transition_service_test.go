package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/erp/orderflow/internal/infrastructure/cache"
	"github.com/erp/orderflow/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type serviceFixture struct {
	svc         *OrderTransitionService
	sales       *memOrders
	shipments   *memOrders
	returns     *memOrders
	stock       *memStock
	refunds     *memRefunds
	receivables *memReceivables
	logs        *observer.ObservedLogs
}

func newServiceFixture(t *testing.T, records ...*inventory.InventoryRecord) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		sales:       newMemOrders(trade.EntityTypeSalesOrder),
		shipments:   newMemOrders(trade.EntityTypeFactoryShipment),
		returns:     newMemOrders(trade.EntityTypeReturnOrder),
		stock:       newMemStock(records...),
		refunds:     &memRefunds{},
		receivables: &memReceivables{},
	}
	scope := NewNoOpTransactionScope(
		[]trade.OrderRepository{f.sales, f.shipments, f.returns},
		f.stock, f.refunds, f.receivables,
	)

	numbers := &seqNumbers{}
	resolver := NewCascadeResolver(
		NewRefundOnReturnCompleted(numbers),
		NewReceivableOnShipmentCompleted(numbers, nil),
	)

	core, logs := observer.New(zap.DebugLevel)
	f.logs = logs
	f.svc = NewOrderTransitionService(scope, resolver, zap.New(core))
	return f
}

func stockRecord(t *testing.T, productID uuid.UUID, quantity, reserved int64) *inventory.InventoryRecord {
	t.Helper()
	r, err := inventory.NewInventoryRecord(inventory.StockKey{ProductID: productID}, "Widget", quantity, reserved)
	require.NoError(t, err)
	return r
}

// confirmedSalesOrder builds a sales order already at confirmed
func confirmedSalesOrder(t *testing.T, productID uuid.UUID, quantity int64) *trade.SalesOrder {
	t.Helper()
	so, err := trade.NewSalesOrder("SO-"+uuid.NewString()[:8], uuid.New(), "Acme Retail")
	require.NoError(t, err)
	_, err = so.AddItem(productID, "Widget", quantity, decimal.NewFromInt(3))
	require.NoError(t, err)
	so.ApplyTransition(trade.StatusConfirmed, nil, time.Now())
	return so
}

func transition(entity trade.EntityType, id uuid.UUID, target trade.Status) TransitionRequest {
	return TransitionRequest{EntityType: entity, OrderID: id, TargetStatus: target}
}

func TestTransition_ShipDecrementsStock(t *testing.T) {
	p1 := uuid.New()
	record := stockRecord(t, p1, 10, 0)
	f := newServiceFixture(t, record)
	so := confirmedSalesOrder(t, p1, 10)
	require.NoError(t, f.sales.Create(context.Background(), so))

	result, err := f.svc.Transition(context.Background(), transition(trade.EntityTypeSalesOrder, so.ID, trade.StatusShipped))
	require.NoError(t, err)

	assert.Equal(t, trade.StatusConfirmed, result.PreviousStatus)
	assert.Equal(t, trade.StatusShipped, result.Status)
	assert.Equal(t, trade.EffectDecrement, result.Effect)
	assert.Equal(t, so.Version+1, result.Version)
	assert.False(t, result.Cascade.Created)

	got := f.stock.get(record.ID)
	assert.Equal(t, int64(0), got.Quantity)
	assert.Equal(t, int64(0), got.ReservedQuantity)
	assert.Equal(t, trade.StatusShipped, f.sales.status(so.ID))
	assert.Equal(t, 1, f.logs.FilterMessage("order transitioned").Len())
}

func TestTransition_ConcurrentShipOneWins(t *testing.T) {
	p1 := uuid.New()
	record := stockRecord(t, p1, 10, 0)
	f := newServiceFixture(t, record)
	so := confirmedSalesOrder(t, p1, 10)
	require.NoError(t, f.sales.Create(context.Background(), so))

	// Both requests read the same stock snapshot before either writes
	var barrier sync.WaitGroup
	barrier.Add(2)
	f.stock.readBarrier = &barrier

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Transition(context.Background(), transition(trade.EntityTypeSalesOrder, so.ID, trade.StatusShipped))
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch KindOf(err) {
		case KindNone:
			wins++
		case KindConcurrentModification:
			conflicts++
			var cm *shared.ConcurrentModificationError
			assert.ErrorAs(t, err, &cm)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, int64(0), f.stock.get(record.ID).Quantity)
}

func TestTransition_InsufficientStock(t *testing.T) {
	p1 := uuid.New()
	record := stockRecord(t, p1, 5, 0)
	f := newServiceFixture(t, record)
	so := confirmedSalesOrder(t, p1, 10)
	require.NoError(t, f.sales.Create(context.Background(), so))

	_, err := f.svc.Transition(context.Background(), transition(trade.EntityTypeSalesOrder, so.ID, trade.StatusShipped))

	var ise *inventory.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(5), ise.Available)
	assert.Equal(t, int64(10), ise.Requested)
	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.Equal(t, trade.StatusConfirmed, f.sales.status(so.ID))
	assert.Equal(t, int64(5), f.stock.get(record.ID).Quantity)
	assert.Equal(t, 1, f.logs.FilterMessage("order transition rejected").Len())
}

func TestTransition_CancelReleasesReservation(t *testing.T) {
	for _, reserved := range []int64{10, 4} {
		t.Run("", func(t *testing.T) {
			p1 := uuid.New()
			record := stockRecord(t, p1, 20, reserved)
			f := newServiceFixture(t, record)
			so := confirmedSalesOrder(t, p1, 10)
			require.NoError(t, f.sales.Create(context.Background(), so))

			result, err := f.svc.Transition(context.Background(), transition(trade.EntityTypeSalesOrder, so.ID, trade.StatusCancelled))
			require.NoError(t, err)
			assert.Equal(t, trade.EffectRelease, result.Effect)

			got := f.stock.get(record.ID)
			assert.Equal(t, int64(0), got.ReservedQuantity)
			assert.Equal(t, int64(20), got.Quantity)
		})
	}
}

func TestTransition_CancelWithoutStockRecord(t *testing.T) {
	f := newServiceFixture(t)
	so := confirmedSalesOrder(t, uuid.New(), 3)
	require.NoError(t, f.sales.Create(context.Background(), so))

	result, err := f.svc.Transition(context.Background(), transition(trade.EntityTypeSalesOrder, so.ID, trade.StatusCancelled))
	require.NoError(t, err)
	assert.Equal(t, trade.StatusCancelled, result.Status)
}

func completableReturn(t *testing.T, refund decimal.Decimal) *trade.ReturnOrder {
	t.Helper()
	ro, err := trade.NewReturnOrder("RO-"+uuid.NewString()[:8], uuid.New(), "Acme Retail", trade.ProcessTypeRefund)
	require.NoError(t, err)
	require.NoError(t, ro.SetRefundAmount(refund))
	for _, s := range []trade.Status{trade.StatusSubmitted, trade.StatusApproved, trade.StatusProcessing} {
		ro.ApplyTransition(s, nil, time.Now())
	}
	return ro
}

func TestTransition_ReturnCompletedCreatesOneRefund(t *testing.T) {
	f := newServiceFixture(t)
	ro := completableReturn(t, decimal.NewFromInt(60))
	require.NoError(t, f.returns.Create(context.Background(), ro))

	result, err := f.svc.Transition(context.Background(), transition(trade.EntityTypeReturnOrder, ro.ID, trade.StatusCompleted))
	require.NoError(t, err)
	assert.True(t, result.Cascade.Created)
	assert.Equal(t, CascadeKindRefund, result.Cascade.Kind)

	_, err = f.svc.Transition(context.Background(), transition(trade.EntityTypeReturnOrder, ro.ID, trade.StatusCompleted))
	var te *trade.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, trade.StatusCompleted, te.Current)

	require.Len(t, f.refunds.records, 1)
	assert.True(t, decimal.NewFromInt(60).Equal(f.refunds.records[0].RemainingAmount))
}

func TestTransition_ReplayWithIdempotencyKey(t *testing.T) {
	f := newServiceFixture(t)
	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	f.svc.SetIdempotencyStore(store, time.Hour)

	ro := completableReturn(t, decimal.NewFromInt(60))
	require.NoError(t, f.returns.Create(context.Background(), ro))

	req := transition(trade.EntityTypeReturnOrder, ro.ID, trade.StatusCompleted)
	req.IdempotencyKey = "client-retry-1"

	first, err := f.svc.Transition(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.svc.Transition(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, trade.StatusCompleted, second.Status)
	assert.Equal(t, first.Version, second.Version)
	assert.False(t, second.Cascade.Created)

	require.Len(t, f.refunds.records, 1)

	t.Run("different key is a new request", func(t *testing.T) {
		req.IdempotencyKey = "client-retry-2"
		_, err := f.svc.Transition(context.Background(), req)
		assert.Equal(t, KindTransition, KindOf(err))
	})
}

func TestTransition_FactoryShipmentCompletedIsTerminal(t *testing.T) {
	f := newServiceFixture(t)
	fs, err := trade.NewFactoryShipmentOrder("FS-1", uuid.New(), "Acme Wholesale")
	require.NoError(t, err)
	fs.ApplyTransition(trade.StatusCompleted, nil, time.Now())
	require.NoError(t, f.shipments.Create(context.Background(), fs))

	_, err = f.svc.Transition(context.Background(), transition(trade.EntityTypeFactoryShipment, fs.ID, trade.StatusInTransit))

	var te *trade.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, trade.StatusCompleted, te.Current)
	assert.Equal(t, trade.StatusInTransit, te.Target)
	assert.Equal(t, trade.StatusCompleted, f.shipments.status(fs.ID))
}

func TestTransition_FactoryShipmentCompletedCreatesReceivable(t *testing.T) {
	f := newServiceFixture(t)
	fs, err := trade.NewFactoryShipmentOrder("FS-2", uuid.New(), "Acme Wholesale")
	require.NoError(t, err)
	_, err = fs.AddItem(uuid.New(), "Pallet", 2, decimal.NewFromInt(400))
	require.NoError(t, err)
	require.NoError(t, fs.SetDeposit(decimal.NewFromInt(200)))
	fs.ApplyTransition(trade.StatusDelivered, nil, time.Now())
	require.NoError(t, f.shipments.Create(context.Background(), fs))

	result, err := f.svc.Transition(context.Background(), transition(trade.EntityTypeFactoryShipment, fs.ID, trade.StatusCompleted))
	require.NoError(t, err)
	assert.True(t, result.Cascade.Created)
	assert.Equal(t, CascadeKindReceivable, result.Cascade.Kind)
	require.Len(t, f.receivables.records, 1)
	assert.True(t, decimal.NewFromInt(600).Equal(f.receivables.records[0].TotalAmount))
}

func TestTransition_InputErrors(t *testing.T) {
	f := newServiceFixture(t)
	so := confirmedSalesOrder(t, uuid.New(), 1)
	require.NoError(t, f.sales.Create(context.Background(), so))

	tests := []struct {
		name string
		req  TransitionRequest
		kind ErrorKind
	}{
		{"unknown entity", transition("purchase_order", so.ID, trade.StatusShipped), KindInvalidInput},
		{"nil id", transition(trade.EntityTypeSalesOrder, uuid.Nil, trade.StatusShipped), KindInvalidInput},
		{"status of another entity", transition(trade.EntityTypeSalesOrder, so.ID, trade.StatusInTransit), KindInvalidInput},
		{"missing order", transition(trade.EntityTypeSalesOrder, uuid.New(), trade.StatusShipped), KindNotFound},
		{"illegal move", transition(trade.EntityTypeSalesOrder, so.ID, trade.StatusDraft), KindTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Transition(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
	assert.Equal(t, trade.StatusConfirmed, f.sales.status(so.ID))
}

func TestTransition_StockRecordMissing(t *testing.T) {
	f := newServiceFixture(t)
	so := confirmedSalesOrder(t, uuid.New(), 2)
	require.NoError(t, f.sales.Create(context.Background(), so))

	_, err := f.svc.Transition(context.Background(), transition(trade.EntityTypeSalesOrder, so.ID, trade.StatusCompleted))
	var rnf *inventory.RecordNotFoundError
	require.ErrorAs(t, err, &rnf)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGetCurrentStatusAndDescribe(t *testing.T) {
	f := newServiceFixture(t)
	so := confirmedSalesOrder(t, uuid.New(), 1)
	require.NoError(t, f.sales.Create(context.Background(), so))
	ctx := context.Background()

	status, err := f.svc.GetCurrentStatus(ctx, trade.EntityTypeSalesOrder, so.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusConfirmed, status)

	view, err := f.svc.DescribeStatus(ctx, trade.EntityTypeSalesOrder, so.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []trade.Status{trade.StatusShipped, trade.StatusCompleted, trade.StatusCancelled}, view.AllowedTransitions)
	assert.False(t, view.Terminal)

	_, err = f.svc.GetCurrentStatus(ctx, trade.EntityTypeSalesOrder, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.GetCurrentStatus(ctx, "unknown", so.ID)
	assert.ErrorIs(t, err, trade.ErrUnknownEntityType)
}

func TestTransition_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := telemetry.NewTransitionMetrics(provider.Meter("test"))
	require.NoError(t, err)

	f := newServiceFixture(t)
	f.svc.SetTransitionMetrics(metrics)

	ro := completableReturn(t, decimal.NewFromInt(10))
	require.NoError(t, f.returns.Create(context.Background(), ro))
	_, err = f.svc.Transition(context.Background(), transition(trade.EntityTypeReturnOrder, ro.ID, trade.StatusCompleted))
	require.NoError(t, err)
	_, err = f.svc.Transition(context.Background(), transition(trade.EntityTypeReturnOrder, ro.ID, trade.StatusCancelled))
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	outcomes := map[string]int64{}
	var cascades int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "erp_order_transition_total":
					v, _ := dp.Attributes.Value(telemetry.AttrOutcome)
					outcomes[v.AsString()] += dp.Value
				case "erp_cascade_created_total":
					cascades += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), outcomes["ok"])
	assert.Equal(t, int64(1), outcomes["transition"])
	assert.Equal(t, int64(1), cascades)
}
