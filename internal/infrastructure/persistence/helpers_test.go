package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/orderflow/internal/domain/inventory"
	"github.com/erp/orderflow/internal/domain/trade"
	"github.com/erp/orderflow/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newSQLiteDB opens a private in-memory database with the full schema.
// A single connection keeps every statement on the same memory database.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig(zap.NewNop(), "silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newMockDB opens a postgres-dialect GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func createTestSalesOrder(t *testing.T, lines ...inventory.StockKey) *trade.SalesOrder {
	t.Helper()

	order, err := trade.NewSalesOrder("SO-"+uuid.NewString()[:8], uuid.New(), "Acme Retail")
	require.NoError(t, err)
	for i, key := range lines {
		item, err := order.AddItem(key.ProductID, "Widget", int64(i+2), decimal.NewFromInt(10))
		require.NoError(t, err)
		item.VariantID = key.VariantID
		item.BatchNumber = key.BatchNumber
	}
	return order
}

func createTestRecord(t *testing.T, db *gorm.DB, key inventory.StockKey, quantity, reserved int64) *inventory.InventoryRecord {
	t.Helper()

	record, err := inventory.NewInventoryRecord(key, "Widget", quantity, reserved)
	require.NoError(t, err)
	require.NoError(t, NewGormInventoryRecordRepository(db).Create(t.Context(), record))
	return record
}
