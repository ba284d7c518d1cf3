package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/erp/orderflow/internal/infrastructure/logger"
	"github.com/erp/orderflow/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransitionRequest asks for one order to move to a target status
type TransitionRequest struct {
	EntityType     trade.EntityType
	OrderID        uuid.UUID
	TargetStatus   trade.Status
	Remarks        *string
	IdempotencyKey string
}

// TransitionResult summarizes the order after a transition
type TransitionResult struct {
	EntityType     trade.EntityType      `json:"entity_type"`
	OrderID        uuid.UUID             `json:"order_id"`
	OrderNumber    string                `json:"order_number"`
	PreviousStatus trade.Status          `json:"previous_status,omitempty"`
	Status         trade.Status          `json:"status"`
	Effect         trade.InventoryEffect `json:"inventory_effect"`
	Version        int                   `json:"version"`
	Cascade        CascadeOutcome        `json:"cascade"`
	Replayed       bool                  `json:"replayed"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// StatusView is the current status of an order together with the moves it allows
type StatusView struct {
	EntityType         trade.EntityType `json:"entity_type"`
	OrderID            uuid.UUID        `json:"order_id"`
	Status             trade.Status     `json:"status"`
	AllowedTransitions []trade.Status   `json:"allowed_transitions"`
	Terminal           bool             `json:"terminal"`
}

// OrderTransitionService drives orders through their transition tables,
// applying inventory effects and cascades in one unit of work.
type OrderTransitionService struct {
	txScope        TransactionScope
	ledger         *inventory.Ledger
	cascade        *CascadeResolver
	logger         *zap.Logger
	now            func() time.Time
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	metrics        *telemetry.TransitionMetrics
}

// NewOrderTransitionService creates a new OrderTransitionService
func NewOrderTransitionService(
	txScope TransactionScope,
	cascade *CascadeResolver,
	log *zap.Logger,
) *OrderTransitionService {
	if cascade == nil {
		cascade = NewCascadeResolver()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderTransitionService{
		txScope: txScope,
		ledger:  inventory.NewLedger(),
		cascade: cascade,
		logger:  log,
		now:     time.Now,
	}
}

// SetIdempotencyStore enables replay detection for requests carrying an idempotency key
func (s *OrderTransitionService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	s.idempotency = store
	s.idempotencyTTL = ttl
}

// SetTransitionMetrics sets the metrics recorder (optional)
func (s *OrderTransitionService) SetTransitionMetrics(m *telemetry.TransitionMetrics) {
	s.metrics = m
}

// SetClock overrides the time source used for transition timestamps
func (s *OrderTransitionService) SetClock(now func() time.Time) {
	s.now = now
}

// Transition validates and applies a status change. On any error the unit of
// work is rolled back and nothing is persisted. ConcurrentModification errors
// are returned to the caller as-is; they are never retried here.
func (s *OrderTransitionService) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "order_transition.transition",
		telemetry.SpanAttrEntityType.String(req.EntityType.String()),
		telemetry.SpanAttrOrderID.String(req.OrderID.String()),
		telemetry.SpanAttrToStatus.String(req.TargetStatus.String()),
	)

	result, err := s.transition(ctx, req)

	kind := KindOf(err)
	defer func() { telemetry.Finish(span, err, kind.String()) }()

	from := trade.Status("")
	if result != nil {
		from = result.PreviousStatus
		span.SetAttributes(
			telemetry.SpanAttrFromStatus.String(from.String()),
			telemetry.SpanAttrOrderNumber.String(result.OrderNumber),
			telemetry.SpanAttrEffect.String(result.Effect.String()),
			telemetry.SpanAttrReplayed.Bool(result.Replayed),
		)
	}
	s.metrics.RecordTransition(ctx, req.EntityType.String(), from.String(), req.TargetStatus.String(), kind.String(), time.Since(start))

	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("entity_type", req.EntityType.String()),
		zap.String("order_id", req.OrderID.String()),
		zap.String("target_status", req.TargetStatus.String()),
	)
	if err != nil {
		fields := []zap.Field{zap.String("kind", kind.String()), zap.Error(err)}
		if kind == KindInternal {
			log.Error("order transition failed", fields...)
		} else {
			log.Info("order transition rejected", fields...)
		}
		return nil, err
	}

	if result.Cascade.Created {
		span.SetAttributes(telemetry.SpanAttrCascadeKind.String(string(result.Cascade.Kind)))
		s.metrics.RecordCascadeCreated(ctx, req.EntityType.String(), string(result.Cascade.Kind))
	}
	log.Info("order transitioned",
		zap.String("previous_status", result.PreviousStatus.String()),
		zap.String("inventory_effect", result.Effect.String()),
		zap.Bool("cascade_created", result.Cascade.Created),
		zap.Bool("replayed", result.Replayed),
		zap.Int("version", result.Version),
	)
	return result, nil
}

func (s *OrderTransitionService) transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if !req.EntityType.IsValid() {
		return nil, trade.ErrUnknownEntityType
	}
	if req.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required: %w", shared.ErrInvalidInput)
	}
	target, err := trade.ParseStatus(req.EntityType, req.TargetStatus.String())
	if err != nil {
		return nil, err
	}

	replayKey := s.replayKey(req)
	if replayKey != "" {
		if result, ok := s.replay(ctx, req, target, replayKey); ok {
			return result, nil
		}
	}

	var result *TransitionResult
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders, err := repos.Orders(req.EntityType)
		if err != nil {
			return err
		}

		order, err := orders.FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}

		from := order.CurrentStatus()
		effect, err := trade.ValidateTransition(req.EntityType, from, target)
		if err != nil {
			return err
		}

		switch effect {
		case trade.EffectDecrement:
			if err := s.ledger.Decrement(ctx, repos.Stock(), stockLines(order)); err != nil {
				return err
			}
		case trade.EffectRelease:
			if err := s.ledger.Release(ctx, repos.Stock(), stockLines(order)); err != nil {
				return err
			}
		}

		expectedVersion := order.GetVersion()
		order.ApplyTransition(target, req.Remarks, s.now())
		if err := orders.UpdateStatus(ctx, order, expectedVersion); err != nil {
			return err
		}

		outcome, err := s.cascade.Resolve(ctx, repos, order, target)
		if err != nil {
			return err
		}

		result = newTransitionResult(order, from, effect, outcome)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayKey != "" {
		if _, markErr := s.idempotency.MarkProcessed(ctx, replayKey, s.idempotencyTTL); markErr != nil {
			logger.WithLogger(ctx, s.logger).Warn("failed to record idempotency key",
				zap.String("key", replayKey),
				zap.Error(markErr),
			)
		}
	}
	return result, nil
}

// replay returns the current state of the order when the idempotency key was
// already applied and the order still sits at the requested status. Anything
// else falls through to a normal transition.
func (s *OrderTransitionService) replay(ctx context.Context, req TransitionRequest, target trade.Status, key string) (*TransitionResult, bool) {
	processed, err := s.idempotency.IsProcessed(ctx, key)
	if err != nil {
		logger.WithLogger(ctx, s.logger).Warn("idempotency lookup failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	if !processed {
		return nil, false
	}

	var result *TransitionResult
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders, err := repos.Orders(req.EntityType)
		if err != nil {
			return err
		}
		order, err := orders.FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if order.CurrentStatus() != target {
			return nil
		}
		result = newTransitionResult(order, "", trade.EffectNone, CascadeOutcome{})
		result.Replayed = true
		return nil
	})
	if err != nil || result == nil {
		return nil, false
	}
	return result, true
}

func (s *OrderTransitionService) replayKey(req TransitionRequest) string {
	if s.idempotency == nil || req.IdempotencyKey == "" {
		return ""
	}
	return shared.TransitionKey(req.EntityType.String(), req.OrderID, req.TargetStatus.String(), req.IdempotencyKey)
}

// GetCurrentStatus returns the order's current status
func (s *OrderTransitionService) GetCurrentStatus(ctx context.Context, entityType trade.EntityType, orderID uuid.UUID) (trade.Status, error) {
	if !entityType.IsValid() {
		return "", trade.ErrUnknownEntityType
	}

	var status trade.Status
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders, err := repos.Orders(entityType)
		if err != nil {
			return err
		}
		status, err = orders.FindStatus(ctx, orderID)
		return err
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// DescribeStatus returns the current status with the transitions it allows
func (s *OrderTransitionService) DescribeStatus(ctx context.Context, entityType trade.EntityType, orderID uuid.UUID) (*StatusView, error) {
	status, err := s.GetCurrentStatus(ctx, entityType, orderID)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		EntityType:         entityType,
		OrderID:            orderID,
		Status:             status,
		AllowedTransitions: trade.AllowedTransitions(entityType, status),
		Terminal:           trade.IsTerminal(entityType, status),
	}, nil
}

func newTransitionResult(order trade.Order, from trade.Status, effect trade.InventoryEffect, outcome CascadeOutcome) *TransitionResult {
	return &TransitionResult{
		EntityType:     order.EntityType(),
		OrderID:        order.GetID(),
		OrderNumber:    order.Number(),
		PreviousStatus: from,
		Status:         order.CurrentStatus(),
		Effect:         effect,
		Version:        order.GetVersion(),
		Cascade:        outcome,
		UpdatedAt:      order.GetUpdatedAt(),
	}
}

// stockLines converts order items into ledger lines, keeping item order
func stockLines(order trade.Order) []inventory.StockLine {
	items := order.LineItems()
	lines := make([]inventory.StockLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventory.StockLine{
			Key: inventory.StockKey{
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				BatchNumber: item.BatchNumber,
			},
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
	}
	return lines
}
