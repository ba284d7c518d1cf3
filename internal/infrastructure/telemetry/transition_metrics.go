package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OutcomeConcurrentModification is the outcome label of a lost optimistic race.
const OutcomeConcurrentModification = "concurrent_modification"

// TransitionMetrics counts order status transitions and the records they cascade into.
// A nil *TransitionMetrics is valid and records nothing.
type TransitionMetrics struct {
	transitions *Counter
	cascades    *Counter
	conflicts   *Counter
	duration    *Histogram
}

// NewTransitionMetrics registers the transition instruments on meter.
func NewTransitionMetrics(meter metric.Meter) (*TransitionMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var m TransitionMetrics
	var errs [4]error
	m.transitions, errs[0] = TransitionTotal.Counter(meter)
	m.cascades, errs[1] = CascadeCreatedTotal.Counter(meter)
	m.conflicts, errs[2] = InventoryConflictTotal.Counter(meter)
	m.duration, errs[3] = TransitionDuration.Histogram(meter)
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordTransition records one transition attempt. outcome is "ok" or an error kind.
func (m *TransitionMetrics) RecordTransition(ctx context.Context, entityType, from, to, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrEntityType.String(entityType),
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
		AttrOutcome.String(outcome),
	}
	m.transitions.Inc(ctx, attrs...)
	m.duration.Observe(ctx, d, attrs...)
	if outcome == OutcomeConcurrentModification {
		m.conflicts.Inc(ctx, AttrEntityType.String(entityType))
	}
}

// RecordCascadeCreated records a refund or receivable record created by a transition.
func (m *TransitionMetrics) RecordCascadeCreated(ctx context.Context, entityType, kind string) {
	if m == nil {
		return
	}
	m.cascades.Inc(ctx, AttrEntityType.String(entityType), AttrCascadeKind.String(kind))
}
