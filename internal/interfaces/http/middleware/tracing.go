// Package middleware provides HTTP middleware for the order transition API.
package middleware

import (
	"net/http"

	"github.com/erp/orderflow/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader carries the trace ID back so clients can quote it.
const TraceIDHeader = "X-Trace-ID"

// AttrRequestID ties a server span to the access log line.
const AttrRequestID = attribute.Key("request_id")

type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts a server span per request through otelgin, named
// "METHOD route". Disabled tracing yields a pass-through handler.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanDecorator runs inside Tracing. It tags the span with the request ID
// and the order route parameters, echoes X-Trace-ID, and after the handler
// records the status code. Only 5xx marks the span failed: a 409 or 422 is
// an expected business answer to a transition request.
func SpanDecorator() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)
		if traceID := telemetry.GetTraceID(ctx); traceID != "" {
			c.Header(TraceIDHeader, traceID)
		}
		if !span.IsRecording() {
			c.Next()
			return
		}

		span.SetAttributes(routeAttributes(c)...)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(telemetry.AttrHTTPStatusCode.Int(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func routeAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	add := func(key attribute.Key, value string) {
		if value != "" {
			attrs = append(attrs, key.String(value))
		}
	}
	add(AttrRequestID, GetRequestID(c))
	add(telemetry.SpanAttrEntityType, c.Param("entity_type"))
	add(telemetry.SpanAttrOrderID, c.Param("id"))
	return attrs
}
