package trade

import (
	"context"
	"fmt"

	"github.com/erp/orderflow/internal/domain/finance"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CascadeKind names the kind of dependent record a cascade rule creates
type CascadeKind string

const (
	CascadeKindRefund     CascadeKind = "refund"
	CascadeKindReceivable CascadeKind = "receivable"
)

// CascadeOutcome reports what a cascade did. Created is false when no rule
// matched or the record already existed.
type CascadeOutcome struct {
	Created      bool        `json:"created"`
	Kind         CascadeKind `json:"kind,omitempty"`
	RecordID     uuid.UUID   `json:"record_id,omitempty"`
	RecordNumber string      `json:"record_number,omitempty"`
}

// CascadeRule creates one kind of dependent record when an order reaches a
// triggering status. Apply must check-then-create through repos so that the
// check and the insert share the status write's transaction.
type CascadeRule interface {
	Name() string
	Applies(order trade.Order, newStatus trade.Status) bool
	Apply(ctx context.Context, repos TransactionalRepositories, order trade.Order) (CascadeOutcome, error)
}

// CascadeResolver runs the first rule that applies to a transition
type CascadeResolver struct {
	rules []CascadeRule
}

// NewCascadeResolver creates a resolver with rules evaluated in the given order
func NewCascadeResolver(rules ...CascadeRule) *CascadeResolver {
	return &CascadeResolver{rules: rules}
}

// Register appends a rule
func (r *CascadeResolver) Register(rule CascadeRule) {
	r.rules = append(r.rules, rule)
}

// Rules returns the registered rule names in evaluation order
func (r *CascadeResolver) Rules() []string {
	names := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		names = append(names, rule.Name())
	}
	return names
}

// Resolve runs the matching rule, if any. A rule error fails the whole transition.
func (r *CascadeResolver) Resolve(ctx context.Context, repos TransactionalRepositories, order trade.Order, newStatus trade.Status) (CascadeOutcome, error) {
	for _, rule := range r.rules {
		if !rule.Applies(order, newStatus) {
			continue
		}
		outcome, err := rule.Apply(ctx, repos, order)
		if err != nil {
			return CascadeOutcome{}, fmt.Errorf("cascade %s: %w", rule.Name(), err)
		}
		return outcome, nil
	}
	return CascadeOutcome{}, nil
}

// RefundOnReturnCompleted creates a pending refund when a refund-type return
// order is completed
type RefundOnReturnCompleted struct {
	numbers shared.NumberGenerator
}

// NewRefundOnReturnCompleted creates the refund cascade rule
func NewRefundOnReturnCompleted(numbers shared.NumberGenerator) *RefundOnReturnCompleted {
	return &RefundOnReturnCompleted{numbers: numbers}
}

// Name implements CascadeRule
func (r *RefundOnReturnCompleted) Name() string {
	return "refund_on_return_completed"
}

// Applies implements CascadeRule
func (r *RefundOnReturnCompleted) Applies(order trade.Order, newStatus trade.Status) bool {
	ro, ok := order.(*trade.ReturnOrder)
	return ok && newStatus == trade.StatusCompleted && ro.IsRefund()
}

// Apply implements CascadeRule
func (r *RefundOnReturnCompleted) Apply(ctx context.Context, repos TransactionalRepositories, order trade.Order) (CascadeOutcome, error) {
	ro, ok := order.(*trade.ReturnOrder)
	if !ok {
		return CascadeOutcome{}, fmt.Errorf("refund cascade expects a return order, got %s", order.EntityType())
	}
	outcome := CascadeOutcome{Kind: CascadeKindRefund}
	if !ro.RefundAmount.IsPositive() {
		return outcome, nil
	}

	refunds := repos.Refunds()
	exists, err := refunds.ExistsBySource(ctx, finance.RefundSourceTypeReturnOrder, ro.ID)
	if err != nil {
		return CascadeOutcome{}, err
	}
	if exists {
		return outcome, nil
	}

	number, err := r.numbers.Next(ctx, "RF")
	if err != nil {
		return CascadeOutcome{}, fmt.Errorf("generate refund number: %w", err)
	}

	record, err := finance.NewRefundRecord(
		number,
		finance.RefundSourceTypeReturnOrder,
		ro.ID,
		ro.ReturnNumber,
		ro.CustomerID,
		ro.CustomerName,
		ro.RefundAmount,
	)
	if err != nil {
		return CascadeOutcome{}, err
	}
	if err := refunds.Create(ctx, record); err != nil {
		return CascadeOutcome{}, err
	}

	outcome.Created = true
	outcome.RecordID = record.ID
	outcome.RecordNumber = record.RefundNumber
	return outcome, nil
}

// ReceivableAmountPolicy decides how much a completed factory shipment leaves owing
type ReceivableAmountPolicy func(order *trade.FactoryShipmentOrder) decimal.Decimal

// BalanceDuePolicy bills the total minus the deposit already paid
func BalanceDuePolicy(order *trade.FactoryShipmentOrder) decimal.Decimal {
	return order.BalanceDue()
}

// ReceivableOnShipmentCompleted creates a pending receivable when a factory
// shipment is completed
type ReceivableOnShipmentCompleted struct {
	numbers shared.NumberGenerator
	policy  ReceivableAmountPolicy
}

// NewReceivableOnShipmentCompleted creates the receivable cascade rule.
// A nil policy uses BalanceDuePolicy.
func NewReceivableOnShipmentCompleted(numbers shared.NumberGenerator, policy ReceivableAmountPolicy) *ReceivableOnShipmentCompleted {
	if policy == nil {
		policy = BalanceDuePolicy
	}
	return &ReceivableOnShipmentCompleted{numbers: numbers, policy: policy}
}

// Name implements CascadeRule
func (r *ReceivableOnShipmentCompleted) Name() string {
	return "receivable_on_shipment_completed"
}

// Applies implements CascadeRule
func (r *ReceivableOnShipmentCompleted) Applies(order trade.Order, newStatus trade.Status) bool {
	_, ok := order.(*trade.FactoryShipmentOrder)
	return ok && newStatus == trade.StatusCompleted
}

// Apply implements CascadeRule
func (r *ReceivableOnShipmentCompleted) Apply(ctx context.Context, repos TransactionalRepositories, order trade.Order) (CascadeOutcome, error) {
	fs, ok := order.(*trade.FactoryShipmentOrder)
	if !ok {
		return CascadeOutcome{}, fmt.Errorf("receivable cascade expects a factory shipment, got %s", order.EntityType())
	}
	outcome := CascadeOutcome{Kind: CascadeKindReceivable}
	amount := r.policy(fs)
	if !amount.IsPositive() {
		return outcome, nil
	}

	receivables := repos.Receivables()
	exists, err := receivables.ExistsBySource(ctx, finance.ReceivableSourceTypeFactoryShipment, fs.ID)
	if err != nil {
		return CascadeOutcome{}, err
	}
	if exists {
		return outcome, nil
	}

	number, err := r.numbers.Next(ctx, "AR")
	if err != nil {
		return CascadeOutcome{}, fmt.Errorf("generate receivable number: %w", err)
	}

	record, err := finance.NewReceivableRecord(
		number,
		finance.ReceivableSourceTypeFactoryShipment,
		fs.ID,
		fs.ShipmentNumber,
		fs.CustomerID,
		fs.CustomerName,
		amount,
	)
	if err != nil {
		return CascadeOutcome{}, err
	}
	if err := receivables.Create(ctx, record); err != nil {
		return CascadeOutcome{}, err
	}

	outcome.Created = true
	outcome.RecordID = record.ID
	outcome.RecordNumber = record.ReceivableNumber
	return outcome, nil
}

var (
	_ CascadeRule = (*RefundOnReturnCompleted)(nil)
	_ CascadeRule = (*ReceivableOnShipmentCompleted)(nil)
)
