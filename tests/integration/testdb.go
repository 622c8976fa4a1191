// Package integration exercises the real GORM repositories and the billing
// commit path against an in-memory SQLite database. The SQL the repositories
// emit (conditional decrements, the counter upsert, guarded coupon updates)
// is written to run on both PostgreSQL and SQLite, which keeps these tests
// hermetic while still going through a real database engine.
package integration

import (
	"testing"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/inventory"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/trade"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory SQLite database with the full schema.
// A single connection is enforced so every statement sees the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&catalog.Product{},
		&catalog.ProductVariant{},
		&partner.Customer{},
		&trade.Order{},
		&billing.Coupon{},
		&billing.Counter{},
		&billing.Bill{},
		&billing.BillItem{},
		&inventory.StockTransaction{},
	), "failed to migrate schema")

	return db
}
