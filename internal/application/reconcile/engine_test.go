package reconcile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/infrastructure/config"
	"github.com/sellerdesk/backend/internal/infrastructure/persistence"
)

func newTestEngine(t *testing.T) (*Engine, *persistence.Database) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&marketplace.CatalogItem{}, &marketplace.DuplicateGroup{}))

	database := &persistence.Database{DB: db}
	engine := NewEngine(database, &config.ReconcileConfig{
		TieBreakOrder: []string{"price", "stock", "account"},
	}, zap.NewNop())
	return engine, database
}

func seedItem(t *testing.T, db *persistence.Database, account marketplace.AccountType, externalID, key, price string, stock int) *marketplace.CatalogItem {
	t.Helper()
	now := time.Now()
	item := &marketplace.CatalogItem{
		ID:           uuid.New(),
		AccountType:  account,
		ExternalID:   externalID,
		MatchingKey:  key,
		SKU:          "SKU-" + externalID,
		Name:         "Item " + externalID,
		Price:        decimal.RequireFromString(price),
		Currency:     "RON",
		Stock:        stock,
		SyncStatus:   marketplace.SyncStatusSynced,
		LastSyncedAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.DB.Create(item).Error)
	return item
}

func TestEngine_Detect(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	main := seedItem(t, db, marketplace.AccountTypeMain, "1", "PNK-A", "10.00", 3)
	fbe := seedItem(t, db, marketplace.AccountTypeFBE, "2", "PNK-A", "8.00", 5)
	// single-account key produces no group
	seedItem(t, db, marketplace.AccountTypeMain, "3", "PNK-B", "12.00", 1)

	views, err := engine.Detect(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)

	group := views[0]
	assert.Equal(t, "PNK-A", group.MatchingKey)
	assert.Equal(t, main.ID.String(), group.MainItemID)
	assert.Equal(t, fbe.ID.String(), group.FBEItemID)
	assert.True(t, group.PriceDelta.Equal(decimal.RequireFromString("2.00")))
	assert.Equal(t, -2, group.StockDelta)
	// FBE has the lower price, so it wins the first comparator
	assert.Equal(t, "FBE", group.PreferredAccount)
	assert.Equal(t, string(marketplace.ResolutionStatusUnresolved), group.Status)
}

func TestEngine_DetectIsIdempotent(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	seedItem(t, db, marketplace.AccountTypeMain, "1", "PNK-A", "10.00", 3)
	seedItem(t, db, marketplace.AccountTypeFBE, "2", "PNK-A", "8.00", 5)

	first, err := engine.Detect(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := engine.Detect(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	var count int64
	require.NoError(t, db.DB.Model(&marketplace.DuplicateGroup{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEngine_DetectRefreshesOpenGroupOnMembershipShift(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	seedItem(t, db, marketplace.AccountTypeMain, "1", "PNK-A", "10.00", 3)
	fbe := seedItem(t, db, marketplace.AccountTypeFBE, "2", "PNK-A", "8.00", 5)

	first, err := engine.Detect(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// the FBE listing is replaced by a fresher one for the same key
	require.NoError(t, db.DB.Model(&marketplace.CatalogItem{}).
		Where("id = ?", fbe.ID).
		Update("sync_status", marketplace.SyncStatusSuperseded).Error)
	replacement := seedItem(t, db, marketplace.AccountTypeFBE, "5", "PNK-A", "7.00", 2)

	second, err := engine.Detect(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, replacement.ID.String(), second[0].FBEItemID)
	assert.True(t, second[0].PriceDelta.Equal(decimal.RequireFromString("3.00")))

	// the open group was refreshed, not joined by a second one
	var count int64
	require.NoError(t, db.DB.Model(&marketplace.DuplicateGroup{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEngine_DetectSymmetry(t *testing.T) {
	// the same pair seeded in the opposite write order yields the same group
	engine, db := newTestEngine(t)
	ctx := context.Background()

	fbe := seedItem(t, db, marketplace.AccountTypeFBE, "2", "PNK-A", "8.00", 5)
	main := seedItem(t, db, marketplace.AccountTypeMain, "1", "PNK-A", "10.00", 3)

	views, err := engine.Detect(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, main.ID.String(), views[0].MainItemID)
	assert.Equal(t, fbe.ID.String(), views[0].FBEItemID)
	assert.True(t, views[0].PriceDelta.Equal(decimal.RequireFromString("2.00")))
}

func TestEngine_PreferredAccountTieBreak(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	t.Run("equal price falls through to stock", func(t *testing.T) {
		seedItem(t, db, marketplace.AccountTypeMain, "10", "PNK-T1", "9.00", 7)
		seedItem(t, db, marketplace.AccountTypeFBE, "11", "PNK-T1", "9.00", 3)

		views, err := engine.Detect(ctx)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "MAIN", views[0].PreferredAccount)
	})

	t.Run("equal price and stock falls through to account", func(t *testing.T) {
		seedItem(t, db, marketplace.AccountTypeMain, "20", "PNK-T2", "9.00", 4)
		seedItem(t, db, marketplace.AccountTypeFBE, "21", "PNK-T2", "9.00", 4)

		views, err := engine.Detect(ctx)
		require.NoError(t, err)
		for _, v := range views {
			if v.MatchingKey == "PNK-T2" {
				assert.Equal(t, "MAIN", v.PreferredAccount)
				return
			}
		}
		t.Fatal("group for PNK-T2 not found")
	})
}

func TestEngine_ResolveKeepMain(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	seedItem(t, db, marketplace.AccountTypeMain, "1", "PNK-A", "10.00", 3)
	fbe := seedItem(t, db, marketplace.AccountTypeFBE, "2", "PNK-A", "8.00", 5)

	views, err := engine.Detect(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)

	resolved, err := engine.Resolve(ctx, views[0].ID, marketplace.StrategyKeepMain)
	require.NoError(t, err)
	assert.Equal(t, string(marketplace.ResolutionStatusResolved), resolved.Status)
	require.NotNil(t, resolved.Strategy)
	assert.Equal(t, string(marketplace.StrategyKeepMain), *resolved.Strategy)
	require.NotNil(t, resolved.ResolvedAt)

	// the losing member is superseded, never deleted
	var reloaded marketplace.CatalogItem
	require.NoError(t, db.DB.First(&reloaded, "id = ?", fbe.ID).Error)
	assert.Equal(t, marketplace.SyncStatusSuperseded, reloaded.SyncStatus)

	t.Run("resolving twice is rejected", func(t *testing.T) {
		_, err := engine.Resolve(ctx, views[0].ID, marketplace.StrategyKeepFBE)
		assert.Error(t, err)
	})

	t.Run("superseded member does not re-trigger detection", func(t *testing.T) {
		again, err := engine.Detect(ctx)
		require.NoError(t, err)
		assert.Empty(t, again)
	})
}

func TestEngine_ResolveMergeBest(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	main := seedItem(t, db, marketplace.AccountTypeMain, "1", "PNK-A", "10.00", 9)
	fbe := seedItem(t, db, marketplace.AccountTypeFBE, "2", "PNK-A", "8.00", 5)

	views, err := engine.Detect(ctx)
	require.NoError(t, err)

	resolved, err := engine.Resolve(ctx, views[0].ID, marketplace.StrategyMergeBest)
	require.NoError(t, err)
	require.NotEmpty(t, resolved.MergedPayload)

	var merged struct {
		Price     decimal.Decimal `json:"price"`
		PriceFrom string          `json:"price_from"`
		Stock     int             `json:"stock"`
		StockFrom string          `json:"stock_from"`
	}
	require.NoError(t, json.Unmarshal([]byte(resolved.MergedPayload), &merged))
	assert.True(t, merged.Price.Equal(decimal.RequireFromString("8.00")))
	assert.Equal(t, "FBE", merged.PriceFrom)
	assert.Equal(t, 9, merged.Stock)
	assert.Equal(t, "MAIN", merged.StockFrom)

	// merge_best stages only, neither member is mutated
	for _, id := range []uuid.UUID{main.ID, fbe.ID} {
		var item marketplace.CatalogItem
		require.NoError(t, db.DB.First(&item, "id = ?", id).Error)
		assert.Equal(t, marketplace.SyncStatusSynced, item.SyncStatus)
	}
}

func TestEngine_ResolveManualReview(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	seedItem(t, db, marketplace.AccountTypeMain, "1", "PNK-A", "10.00", 3)
	fbe := seedItem(t, db, marketplace.AccountTypeFBE, "2", "PNK-A", "8.00", 5)

	views, err := engine.Detect(ctx)
	require.NoError(t, err)

	resolved, err := engine.Resolve(ctx, views[0].ID, marketplace.StrategyManualReview)
	require.NoError(t, err)
	assert.Equal(t, string(marketplace.ResolutionStatusResolved), resolved.Status)
	assert.Empty(t, resolved.MergedPayload)

	var item marketplace.CatalogItem
	require.NoError(t, db.DB.First(&item, "id = ?", fbe.ID).Error)
	assert.Equal(t, marketplace.SyncStatusSynced, item.SyncStatus)
}

func TestEngine_ResolveValidation(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Resolve(ctx, "not-a-uuid", marketplace.StrategyKeepMain)
	assert.Error(t, err)

	_, err = engine.Resolve(ctx, uuid.NewString(), marketplace.ResolutionStrategy("flip_coin"))
	assert.Error(t, err)
}

func TestEngine_List(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	seedItem(t, db, marketplace.AccountTypeMain, "1", "PNK-A", "10.00", 3)
	seedItem(t, db, marketplace.AccountTypeFBE, "2", "PNK-A", "8.00", 5)
	seedItem(t, db, marketplace.AccountTypeMain, "3", "PNK-B", "7.00", 1)
	seedItem(t, db, marketplace.AccountTypeFBE, "4", "PNK-B", "7.50", 2)

	views, err := engine.Detect(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	_, err = engine.Resolve(ctx, views[0].ID, marketplace.StrategyManualReview)
	require.NoError(t, err)

	unresolved, total, err := engine.List(ctx, ListRequest{Status: "UNRESOLVED", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, unresolved, 1)

	all, total, err := engine.List(ctx, ListRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}
