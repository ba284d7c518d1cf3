package middleware

import (
	"errors"
	"time"

	"github.com/erp/orderflow/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const unmatchedRoute = "unmatched"

// HTTPMetrics returns a middleware recording request count, latency and
// in-flight requests. Labels use the route pattern, never the raw path, so
// order IDs do not explode cardinality.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	total, errTotal := telemetry.HTTPRequestTotal.Counter(meter)
	latency, errLatency := telemetry.HTTPRequestDuration.Histogram(meter)
	inflight, errInflight := telemetry.HTTPActiveRequests.UpDownCounter(meter)
	if err := errors.Join(errTotal, errLatency, errInflight); err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		inflight.Add(ctx, 1)
		defer inflight.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}
		latency.Observe(ctx, time.Since(start), attrs...)
		total.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
	}, nil
}
