package persistence

import (
	"context"
	"testing"

	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/infrastructure/config"
	"github.com/erp/orderflow/internal/infrastructure/persistence/models"
	"github.com/erp/orderflow/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sqliteConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:       "sqlite",
		DBName:       ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}
}

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(), Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.PingContext(context.Background()))
	require.NoError(t, db.EnsureSchema(context.Background()))
	assert.True(t, db.DB.Migrator().HasTable(&models.InventoryRecordModel{}))
}

func TestNewDatabase_ClosedPoolFailsPing(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(), Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.ErrorContains(t, db.Ping(), "persistence: ping")
}

func TestNewDatabase_WithTracing(t *testing.T) {
	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = true
	tracing.DBSystem = "sqlite"

	db, err := NewDatabase(sqliteConfig(), Options{Logger: zap.NewNop(), Tracing: tracing})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.EnsureSchema(context.Background()))

	repo := NewGormInventoryRecordRepository(db.DB)
	record, err := inventory.NewInventoryRecord(inventory.StockKey{ProductID: uuid.New()}, "Widget", 5, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), record))

	ok, err := repo.DecrementIfAvailable(context.Background(), record.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Driver = "mysql"

	_, err := NewDatabase(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(assert.AnError))
	assert.True(t, isUniqueViolation(errString(`ERROR: duplicate key value violates unique constraint "idx_refund_source" (SQLSTATE 23505)`)))
	assert.True(t, isUniqueViolation(errString("UNIQUE constraint failed: refund_records.source_type, refund_records.source_id")))
}

type errString string

func (e errString) Error() string { return string(e) }
