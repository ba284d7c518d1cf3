package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/orderflow/internal/domain/finance"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefundReturn(t *testing.T, amount decimal.Decimal) *trade.ReturnOrder {
	t.Helper()
	ro, err := trade.NewReturnOrder("RO-1001", uuid.New(), "Acme Retail", trade.ProcessTypeRefund)
	require.NoError(t, err)
	require.NoError(t, ro.SetRefundAmount(amount))
	return ro
}

func newShipment(t *testing.T, total, deposit int64) *trade.FactoryShipmentOrder {
	t.Helper()
	fs, err := trade.NewFactoryShipmentOrder("FS-2001", uuid.New(), "Acme Wholesale")
	require.NoError(t, err)
	_, err = fs.AddItem(uuid.New(), "Pallet", 1, decimal.NewFromInt(total))
	require.NoError(t, err)
	require.NoError(t, fs.SetDeposit(decimal.NewFromInt(deposit)))
	return fs
}

func newCascadeRepos() (*NoOpTransactionScope, *memRefunds, *memReceivables) {
	refunds := &memRefunds{}
	receivables := &memReceivables{}
	scope := NewNoOpTransactionScope(nil, newMemStock(), refunds, receivables)
	return scope, refunds, receivables
}

func TestRefundOnReturnCompleted(t *testing.T) {
	ctx := context.Background()
	rule := NewRefundOnReturnCompleted(&seqNumbers{})
	resolver := NewCascadeResolver(rule)
	repos, refunds, _ := newCascadeRepos()

	ro := newRefundReturn(t, decimal.NewFromFloat(88.25))
	ro.ApplyTransition(trade.StatusCompleted, nil, time.Now())

	first, err := resolver.Resolve(ctx, repos, ro, trade.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, CascadeKindRefund, first.Kind)
	assert.Equal(t, "RF-0001", first.RecordNumber)

	t.Run("resolving again creates nothing", func(t *testing.T) {
		second, err := resolver.Resolve(ctx, repos, ro, trade.StatusCompleted)
		require.NoError(t, err)
		assert.False(t, second.Created)
		assert.Equal(t, CascadeKindRefund, second.Kind)
	})

	require.Len(t, refunds.records, 1)
	record := refunds.records[0]
	assert.Equal(t, first.RecordID, record.ID)
	assert.Equal(t, finance.RefundSourceTypeReturnOrder, record.SourceType)
	assert.Equal(t, ro.ID, record.SourceID)
	assert.Equal(t, "RO-1001", record.SourceNumber)
	assert.True(t, decimal.NewFromFloat(88.25).Equal(record.RemainingAmount))
	assert.True(t, record.ProcessedAmount.IsZero())
	assert.Equal(t, finance.RefundRecordStatusPending, record.Status)
}

func TestRefundOnReturnCompleted_Applies(t *testing.T) {
	rule := NewRefundOnReturnCompleted(&seqNumbers{})
	refund := newRefundReturn(t, decimal.NewFromInt(10))

	exchange, err := trade.NewReturnOrder("RO-2", uuid.New(), "Acme", trade.ProcessTypeExchange)
	require.NoError(t, err)

	assert.True(t, rule.Applies(refund, trade.StatusCompleted))
	assert.False(t, rule.Applies(refund, trade.StatusApproved))
	assert.False(t, rule.Applies(exchange, trade.StatusCompleted))
	assert.False(t, rule.Applies(newShipment(t, 100, 0), trade.StatusCompleted))
}

func TestRefundOnReturnCompleted_ZeroAmount(t *testing.T) {
	repos, refunds, _ := newCascadeRepos()
	rule := NewRefundOnReturnCompleted(&seqNumbers{})

	outcome, err := rule.Apply(context.Background(), repos, newRefundReturn(t, decimal.Zero))
	require.NoError(t, err)
	assert.False(t, outcome.Created)
	assert.Empty(t, refunds.records)
}

func TestReceivableOnShipmentCompleted(t *testing.T) {
	ctx := context.Background()
	repos, _, receivables := newCascadeRepos()
	resolver := NewCascadeResolver()
	resolver.Register(NewReceivableOnShipmentCompleted(&seqNumbers{}, nil))

	fs := newShipment(t, 1000, 250)

	for i := 0; i < 2; i++ {
		_, err := resolver.Resolve(ctx, repos, fs, trade.StatusCompleted)
		require.NoError(t, err)
	}

	require.Len(t, receivables.records, 1)
	record := receivables.records[0]
	assert.Equal(t, finance.ReceivableSourceTypeFactoryShipment, record.SourceType)
	assert.True(t, decimal.NewFromInt(750).Equal(record.TotalAmount))
	assert.True(t, decimal.NewFromInt(750).Equal(record.OutstandingAmount))
	assert.Equal(t, "AR-0001", record.ReceivableNumber)

	t.Run("custom policy", func(t *testing.T) {
		repos, _, receivables := newCascadeRepos()
		full := func(o *trade.FactoryShipmentOrder) decimal.Decimal { return o.TotalAmount }
		rule := NewReceivableOnShipmentCompleted(&seqNumbers{}, full)

		_, err := rule.Apply(ctx, repos, newShipment(t, 1000, 250))
		require.NoError(t, err)
		require.Len(t, receivables.records, 1)
		assert.True(t, decimal.NewFromInt(1000).Equal(receivables.records[0].TotalAmount))
	})

	t.Run("fully paid deposit owes nothing", func(t *testing.T) {
		repos, _, receivables := newCascadeRepos()
		rule := NewReceivableOnShipmentCompleted(&seqNumbers{}, nil)

		outcome, err := rule.Apply(ctx, repos, newShipment(t, 500, 500))
		require.NoError(t, err)
		assert.False(t, outcome.Created)
		assert.Empty(t, receivables.records)
	})
}

func TestCascadeResolver_NoMatchingRule(t *testing.T) {
	repos, refunds, receivables := newCascadeRepos()
	resolver := NewCascadeResolver(
		NewRefundOnReturnCompleted(&seqNumbers{}),
		NewReceivableOnShipmentCompleted(&seqNumbers{}, nil),
	)
	assert.Equal(t, []string{"refund_on_return_completed", "receivable_on_shipment_completed"}, resolver.Rules())

	so, err := trade.NewSalesOrder("SO-1", uuid.New(), "Acme")
	require.NoError(t, err)

	outcome, err := resolver.Resolve(context.Background(), repos, so, trade.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, CascadeOutcome{}, outcome)
	assert.Empty(t, refunds.records)
	assert.Empty(t, receivables.records)
}

type failingNumbers struct{}

func (failingNumbers) Next(context.Context, string) (string, error) {
	return "", errors.New("sequence unavailable")
}

func TestCascadeResolver_RuleErrorIsFatal(t *testing.T) {
	repos, refunds, _ := newCascadeRepos()
	resolver := NewCascadeResolver(NewRefundOnReturnCompleted(failingNumbers{}))

	_, err := resolver.Resolve(context.Background(), repos, newRefundReturn(t, decimal.NewFromInt(5)), trade.StatusCompleted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refund_on_return_completed")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Empty(t, refunds.records)
}

func TestCascadeResolver_DuplicateInsertIsConflict(t *testing.T) {
	ro := newRefundReturn(t, decimal.NewFromInt(5))
	repos := NewNoOpTransactionScope(nil, newMemStock(), &conflictingRefunds{}, &memReceivables{})
	resolver := NewCascadeResolver(NewRefundOnReturnCompleted(&seqNumbers{}))

	_, err := resolver.Resolve(context.Background(), repos, ro, trade.StatusCompleted)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, KindConcurrentModification, KindOf(err))
}

// conflictingRefunds sees no record but loses the insert race
type conflictingRefunds struct{ memRefunds }

func (*conflictingRefunds) Create(_ context.Context, r *finance.RefundRecord) error {
	return shared.NewConcurrentModificationError("refund_record", r.SourceID)
}
