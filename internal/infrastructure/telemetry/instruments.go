package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when an instrument is requested from a nil meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Instrument describes one metric. The same description is used whether the
// instrument ends up as a counter, histogram or up-down counter.
type Instrument struct {
	Name        string
	Description string
	Unit        string
	Buckets     []float64 // histograms only
}

// Order engine instruments.
var (
	TransitionTotal = Instrument{
		Name:        "erp_order_transition_total",
		Description: "Order status transition attempts by outcome",
		Unit:        "{transition}",
	}
	TransitionDuration = Instrument{
		Name:        "erp_order_transition_duration_seconds",
		Description: "Time spent applying an order status transition",
		Unit:        "s",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}
	CascadeCreatedTotal = Instrument{
		Name:        "erp_cascade_created_total",
		Description: "Financial records created by completed transitions",
		Unit:        "{record}",
	}
	InventoryConflictTotal = Instrument{
		Name:        "erp_inventory_conflict_total",
		Description: "Transitions rejected by a concurrent modification",
		Unit:        "{conflict}",
	}
)

// HTTP server instruments.
var (
	HTTPRequestTotal = Instrument{
		Name:        "http_server_request_total",
		Description: "Total number of HTTP requests",
		Unit:        "{request}",
	}
	HTTPRequestDuration = Instrument{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}
	HTTPActiveRequests = Instrument{
		Name:        "http_server_active_requests",
		Description: "Number of currently active HTTP requests",
		Unit:        "{request}",
	}
)

// Metric attribute keys.
const (
	AttrEntityType  = attribute.Key("entity_type")
	AttrFromStatus  = attribute.Key("from_status")
	AttrToStatus    = attribute.Key("to_status")
	AttrOutcome     = attribute.Key("outcome")
	AttrCascadeKind = attribute.Key("cascade_kind")

	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
)

// Counter is a monotonically increasing int64 metric.
type Counter struct {
	counter metric.Int64Counter
}

// Counter registers i as an int64 counter on meter.
func (i Instrument) Counter(meter metric.Meter) (*Counter, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	c, err := meter.Int64Counter(i.Name, metric.WithDescription(i.Description), metric.WithUnit(i.Unit))
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", i.Name, err)
	}
	return &Counter{counter: c}, nil
}

// Inc adds one.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram records durations in seconds.
type Histogram struct {
	histogram metric.Float64Histogram
}

// Histogram registers i as a float64 histogram on meter, using i.Buckets
// when set.
func (i Instrument) Histogram(meter metric.Meter) (*Histogram, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	opts := []metric.Float64HistogramOption{metric.WithDescription(i.Description), metric.WithUnit(i.Unit)}
	if len(i.Buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(i.Buckets...))
	}
	h, err := meter.Float64Histogram(i.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("create histogram %s: %w", i.Name, err)
	}
	return &Histogram{histogram: h}, nil
}

// Observe records d.
func (h *Histogram) Observe(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// UpDownCounter registers i as an int64 up-down counter on meter.
func (i Instrument) UpDownCounter(meter metric.Meter) (metric.Int64UpDownCounter, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	c, err := meter.Int64UpDownCounter(i.Name, metric.WithDescription(i.Description), metric.WithUnit(i.Unit))
	if err != nil {
		return nil, fmt.Errorf("create up-down counter %s: %w", i.Name, err)
	}
	return c, nil
}
