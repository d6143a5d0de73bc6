package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	syncdomain "github.com/sellerdesk/backend/internal/domain/sync"
	"github.com/sellerdesk/backend/internal/infrastructure/config"
	"github.com/sellerdesk/backend/internal/infrastructure/persistence"
)

func testOrchestratorConfig() *config.SyncConfig {
	return &config.SyncConfig{
		PageSize:           2,
		SubBatchSize:       10,
		IncrementalPageCap: 5,
		FullPageCap:        20,
		IncrementalTimeout: 5 * time.Second,
		FullTimeout:        15 * time.Second,
		LookbackDays:       7,
	}
}

func newTestOrchestrator(t *testing.T, db *persistence.Database, client marketplace.Client, cfg *config.SyncConfig) (*Orchestrator, *persistence.GormRunRepository) {
	t.Helper()
	runs := persistence.NewGormRunRepository(db.DB)
	fetcher := NewPaginatedFetcher(client, zap.NewNop())
	writer := NewUpsertWriter(db, cfg.SubBatchSize, zap.NewNop())
	bridge := NewInventoryBridge(
		persistence.NewGormCatalogItemRepository(db.DB),
		persistence.NewGormInventoryRepository(db.DB),
		map[marketplace.AccountType]string{
			marketplace.AccountTypeMain: "MAIN-WH",
			marketplace.AccountTypeFBE:  "FBE-WH",
		},
		zap.NewNop(),
	)
	return NewOrchestrator(runs, fetcher, writer, bridge, cfg, zap.NewNop()), runs
}

func waitForRun(t *testing.T, runs *persistence.GormRunRepository, id string) *syncdomain.Run {
	t.Helper()
	runID, err := uuid.Parse(id)
	require.NoError(t, err)
	run, err := runs.FindByID(context.Background(), runID)
	require.NoError(t, err)
	return run
}

func TestOrchestrator_CompletesRunAndBridgesInventory(t *testing.T) {
	db := newTestDatabase(t)
	client := &fakeClient{fetch: func(_ context.Context, req marketplace.PageRequest) (*marketplace.Page, error) {
		return catalogPage(req.Page, 1), nil
	}}
	orch, runs := newTestOrchestrator(t, db, client, testOrchestratorConfig())

	views, err := orch.Start(context.Background(), StartRequest{
		Account:  "MAIN",
		Resource: "products",
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, string(syncdomain.RunStatusPending), views[0].Status)

	orch.Wait()

	run := waitForRun(t, runs, views[0].ID)
	assert.Equal(t, syncdomain.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.PagesFetched)
	assert.Equal(t, 1, run.ItemsCreated)
	assert.Equal(t, syncdomain.ModeIncremental, run.Mode)
	require.NotNil(t, run.FinishedAt)

	// the bridge materialized warehouse inventory from the synced catalog
	items, err := persistence.NewGormInventoryRepository(db.DB).FindBySKU(context.Background(), "SKU-1-0")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "MAIN-WH", items[0].WarehouseCode)
}

func TestOrchestrator_RejectsConcurrentRunForSamePair(t *testing.T) {
	db := newTestDatabase(t)
	gate := make(chan struct{})
	client := &fakeClient{fetch: func(ctx context.Context, req marketplace.PageRequest) (*marketplace.Page, error) {
		select {
		case <-gate:
			return &marketplace.Page{Number: req.Page}, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", marketplace.ErrTransient, ctx.Err())
		}
	}}
	orch, runs := newTestOrchestrator(t, db, client, testOrchestratorConfig())
	ctx := context.Background()

	views, err := orch.Start(ctx, StartRequest{Account: "MAIN", Resource: "products"})
	require.NoError(t, err)
	require.Len(t, views, 1)

	_, err = orch.Start(ctx, StartRequest{Account: "MAIN", Resource: "products"})
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	// a different resource for the same account is independent
	_, err = orch.Start(ctx, StartRequest{Account: "MAIN", Resource: "orders"})
	require.NoError(t, err)

	close(gate)
	orch.Wait()

	// once finished, the pair is free again
	views2, err := orch.Start(ctx, StartRequest{Account: "MAIN", Resource: "products"})
	require.NoError(t, err)
	orch.Wait()
	assert.Equal(t, syncdomain.RunStatusCompleted, waitForRun(t, runs, views2[0].ID).Status)
}

func TestOrchestrator_AccountsFailIndependently(t *testing.T) {
	db := newTestDatabase(t)
	client := &fakeClient{fetch: func(_ context.Context, req marketplace.PageRequest) (*marketplace.Page, error) {
		if req.Account == marketplace.AccountTypeMain {
			return nil, fmt.Errorf("%w: HTTP 401", marketplace.ErrFatal)
		}
		return catalogPage(req.Page, 1), nil
	}}
	orch, runs := newTestOrchestrator(t, db, client, testOrchestratorConfig())

	// empty account starts one run per configured account
	views, err := orch.Start(context.Background(), StartRequest{Resource: "products"})
	require.NoError(t, err)
	require.Len(t, views, 2)

	orch.Wait()

	byAccount := map[string]*syncdomain.Run{}
	for _, v := range views {
		byAccount[v.AccountType] = waitForRun(t, runs, v.ID)
	}
	assert.Equal(t, syncdomain.RunStatusFailed, byAccount["MAIN"].Status)
	assert.NotEmpty(t, byAccount["MAIN"].LastError)
	assert.Equal(t, syncdomain.RunStatusCompleted, byAccount["FBE"].Status)
}

func TestOrchestrator_TimedOutRunKeepsCommittedProgress(t *testing.T) {
	db := newTestDatabase(t)
	client := &fakeClient{fetch: func(ctx context.Context, req marketplace.PageRequest) (*marketplace.Page, error) {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", marketplace.ErrTransient, ctx.Err())
		case <-time.After(120 * time.Millisecond):
			return catalogPage(req.Page, 2), nil
		}
	}}
	cfg := testOrchestratorConfig()
	cfg.IncrementalTimeout = 300 * time.Millisecond
	cfg.IncrementalPageCap = 1000
	orch, runs := newTestOrchestrator(t, db, client, cfg)

	views, err := orch.Start(context.Background(), StartRequest{Account: "MAIN", Resource: "products"})
	require.NoError(t, err)

	orch.Wait()

	run := waitForRun(t, runs, views[0].ID)
	assert.Equal(t, syncdomain.RunStatusTimedOut, run.Status)
	assert.Greater(t, run.PagesFetched, 0)

	// the pages written before the deadline stayed committed
	count, err := persistence.NewGormCatalogItemRepository(db.DB).Count(context.Background(), marketplace.AccountTypeMain)
	require.NoError(t, err)
	assert.Equal(t, int64(run.ItemsCreated), count)
	assert.Greater(t, count, int64(0))
}

func TestOrchestrator_PageCapOverrideOnlyLowers(t *testing.T) {
	db := newTestDatabase(t)
	client := &fakeClient{fetch: func(_ context.Context, req marketplace.PageRequest) (*marketplace.Page, error) {
		return catalogPage(req.Page, 2), nil
	}}
	cfg := testOrchestratorConfig()
	cfg.IncrementalPageCap = 4
	orch, runs := newTestOrchestrator(t, db, client, cfg)

	t.Run("override below the configured cap applies", func(t *testing.T) {
		pageCap := 2
		views, err := orch.Start(context.Background(), StartRequest{Account: "MAIN", Resource: "products", PageCap: &pageCap})
		require.NoError(t, err)
		orch.Wait()
		assert.Equal(t, 2, waitForRun(t, runs, views[0].ID).PagesFetched)
	})

	t.Run("override above the configured cap is ignored", func(t *testing.T) {
		pageCap := 100
		views, err := orch.Start(context.Background(), StartRequest{Account: "FBE", Resource: "products", PageCap: &pageCap})
		require.NoError(t, err)
		orch.Wait()
		assert.Equal(t, 4, waitForRun(t, runs, views[0].ID).PagesFetched)
	})
}

func TestOrchestrator_StartValidation(t *testing.T) {
	db := newTestDatabase(t)
	orch, _ := newTestOrchestrator(t, db, &fakeClient{}, testOrchestratorConfig())
	ctx := context.Background()

	_, err := orch.Start(ctx, StartRequest{Account: "MAIN", Resource: "catalog"})
	assert.Error(t, err)

	_, err = orch.Start(ctx, StartRequest{Account: "SIDE", Resource: "products"})
	assert.Error(t, err)

	_, err = orch.Start(ctx, StartRequest{Account: "MAIN", Resource: "products", Mode: "weekly"})
	assert.Error(t, err)
}

func TestOrchestrator_GetAndListRuns(t *testing.T) {
	db := newTestDatabase(t)
	client := &fakeClient{fetch: func(_ context.Context, req marketplace.PageRequest) (*marketplace.Page, error) {
		return &marketplace.Page{Number: req.Page}, nil
	}}
	orch, _ := newTestOrchestrator(t, db, client, testOrchestratorConfig())
	ctx := context.Background()

	views, err := orch.Start(ctx, StartRequest{Account: "MAIN", Resource: "orders", Mode: "full"})
	require.NoError(t, err)
	orch.Wait()

	t.Run("get by id", func(t *testing.T) {
		view, err := orch.GetRun(ctx, views[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "full", view.Mode)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := orch.GetRun(ctx, "not-a-uuid")
		assert.Error(t, err)
	})

	t.Run("list filters by account", func(t *testing.T) {
		listed, total, err := orch.ListRuns(ctx, ListRequest{Account: "MAIN", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, listed, 1)
		assert.Equal(t, views[0].ID, listed[0].ID)
	})
}
