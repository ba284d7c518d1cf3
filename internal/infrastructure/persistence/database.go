package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erp/orderflow/internal/infrastructure/config"
	"github.com/erp/orderflow/internal/infrastructure/logger"
	"github.com/erp/orderflow/internal/infrastructure/persistence/models"
	"github.com/erp/orderflow/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database owns the order store connection pool.
type Database struct {
	DB     *gorm.DB
	pool   *sql.DB
	driver string
}

// Options configure NewDatabase beyond the connection settings.
type Options struct {
	Logger  *zap.Logger
	Tracing telemetry.DBTracingConfig
}

// NewDatabase connects with the pool limits from cfg, verifies the
// connection and installs query tracing when opts.Tracing enables it. The
// tracing slow-query threshold also drives the GORM logger.
func NewDatabase(cfg *config.DatabaseConfig, opts Options) (*Database, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	var logOpts []logger.GormLoggerOption
	if opts.Tracing.SlowQueryThresh > 0 {
		logOpts = append(logOpts, logger.WithSlowThreshold(opts.Tracing.SlowQueryThresh))
	}
	db, err := gorm.Open(dialector, GormConfig(log, cfg.LogLevel, logOpts...))
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", cfg.Driver, err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("persistence: connection pool: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	d := &Database{DB: db, pool: pool, driver: cfg.Driver}
	if err := d.Ping(); err != nil {
		_ = pool.Close()
		return nil, err
	}

	if err := telemetry.NewDBTracingPlugin(opts.Tracing, log).RegisterOtelGorm(db); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("persistence: register tracing: %w", err)
	}
	return d, nil
}

// GormConfig is shared by every connection. TranslateError surfaces unique
// violations as gorm.ErrDuplicatedKey, which the refund cascade relies on.
func GormConfig(zapLogger *zap.Logger, logLevel string, opts ...logger.GormLoggerOption) *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.NewGormLogger(zapLogger, logger.MapGormLogLevel(logLevel), opts...),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("persistence: unsupported database driver %q", cfg.Driver)
}

// EnsureSchema creates the tables from the models on sqlite. Postgres
// schemas are owned by the versioned migrations, so it does nothing there.
func (d *Database) EnsureSchema(ctx context.Context) error {
	if d.driver != "sqlite" {
		return nil
	}
	if err := d.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("persistence: create sqlite schema: %w", err)
	}
	return nil
}

func (d *Database) Ping() error {
	return d.PingContext(context.Background())
}

// PingContext backs the readiness probe.
func (d *Database) PingContext(ctx context.Context) error {
	if err := d.pool.PingContext(ctx); err != nil {
		return fmt.Errorf("persistence: ping: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.pool.Close()
}
