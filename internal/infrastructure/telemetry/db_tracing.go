package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Span attributes added on top of the ones otelgorm records.
const (
	AttrDBConditionalMiss = attribute.Key("db.conditional_miss")
	AttrDBSlowQuery       = attribute.Key("db.slow_query")
	AttrDBDurationMS      = attribute.Key("db.query_duration_ms")
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // keep bind variables in db.statement (dev only)
	SlowQueryThresh time.Duration // default 200ms
	DBSystem        string        // reported as db.name
}

// DefaultDBTracingConfig returns tracing disabled with a 200ms slow-query threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin installs otelgorm and annotates its spans with the two
// outcomes the order engine cares about: a conditional UPDATE that matched
// no row (a lost stock or version race) and a query over the slow threshold.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// RegisterOtelGorm installs otelgorm on db followed by the engine's callbacks.
// It is a no-op when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("register otelgorm: %w", err)
	}

	// Each hook must run before otelgorm's after-hook ends the span.
	cb := db.Callback()
	hooks := []struct {
		name     string
		register func(name string, fn func(*gorm.DB)) error
		fn       func(*gorm.DB)
	}{
		{"start:create", cb.Create().Before("gorm:create").Register, p.markStart},
		{"start:query", cb.Query().Before("gorm:query").Register, p.markStart},
		{"start:update", cb.Update().Before("gorm:update").Register, p.markStart},
		{"start:raw", cb.Raw().Before("gorm:raw").Register, p.markStart},
		{"end:create", cb.Create().After("gorm:create").Before("otel:after:create").Register, p.annotate(false)},
		{"end:query", cb.Query().After("gorm:query").Before("otel:after:select").Register, p.annotate(false)},
		{"end:update", cb.Update().After("gorm:update").Before("otel:after:update").Register, p.annotate(true)},
		{"end:raw", cb.Raw().After("gorm:raw").Before("otel:after:raw").Register, p.annotate(false)},
	}
	for _, h := range hooks {
		if err := h.register("orderflow:db_"+h.name, h.fn); err != nil {
			return fmt.Errorf("register db callback %s: %w", h.name, err)
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

// annotate returns the after-callback. conditional marks UPDATEs, where zero
// affected rows means the WHERE guard rejected the write.
func (p *DBTracingPlugin) annotate(conditional bool) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}

		if conditional && db.Error == nil && db.Statement.RowsAffected == 0 {
			span.SetAttributes(AttrDBConditionalMiss.Bool(true))
		}

		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok {
			return
		}
		if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				AttrDBSlowQuery.Bool(true),
				AttrDBDurationMS.Int64(elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
			p.logger.Warn("Slow query",
				zap.String("table", db.Statement.Table),
				zap.Duration("elapsed", elapsed),
				zap.String("trace_id", span.SpanContext().TraceID().String()),
			)
		}
	}
}
