package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for application spans.
const TracerName = "orderflow"

// Span attribute keys for order transitions.
const (
	SpanAttrEntityType     = attribute.Key("entity_type")
	SpanAttrOrderID        = attribute.Key("order_id")
	SpanAttrOrderNumber    = attribute.Key("order_number")
	SpanAttrFromStatus     = attribute.Key("from_status")
	SpanAttrToStatus       = attribute.Key("to_status")
	SpanAttrEffect         = attribute.Key("inventory_effect")
	SpanAttrCascadeKind    = attribute.Key("cascade_kind")
	SpanAttrReplayed       = attribute.Key("replayed")
	SpanAttrIdempotencyKey = attribute.Key("idempotency_key")
	SpanAttrErrorKind      = attribute.Key("error.kind")
)

// StartSpan starts an internal span on the global provider. The caller must
// end it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records err on the span and marks the span failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Finish sets the span status from err, tagging rejections with kind, and
// ends it.
func Finish(span trace.Span, err error, kind string) {
	if span == nil {
		return
	}
	if err != nil {
		span.SetAttributes(SpanAttrErrorKind.String(kind))
		RecordError(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the trace ID of the span in ctx, or "" without one.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.TraceID().IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
