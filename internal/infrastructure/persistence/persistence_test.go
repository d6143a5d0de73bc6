package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sellerdesk/backend/internal/domain/inventory"
	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/sales"
	syncdomain "github.com/sellerdesk/backend/internal/domain/sync"
)

// newTestDB opens an in-memory database with the full schema. The pool is
// pinned to one connection so every query sees the same in-memory instance.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&marketplace.CatalogItem{},
		&marketplace.DuplicateGroup{},
		&syncdomain.Run{},
		&inventory.Item{},
		&sales.MarketplaceOrderLine{},
	))
	return db
}
