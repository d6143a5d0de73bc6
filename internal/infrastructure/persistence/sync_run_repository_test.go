package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	syncdomain "github.com/sellerdesk/backend/internal/domain/sync"
)

func TestGormRunRepository_CountRunning(t *testing.T) {
	repo := NewGormRunRepository(newTestDB(t))
	ctx := context.Background()

	running, err := syncdomain.NewRun(marketplace.AccountTypeMain, marketplace.ResourceKindProducts, syncdomain.ModeIncremental)
	require.NoError(t, err)
	require.NoError(t, running.Start())
	require.NoError(t, repo.Create(ctx, running))

	finished, err := syncdomain.NewRun(marketplace.AccountTypeMain, marketplace.ResourceKindProducts, syncdomain.ModeIncremental)
	require.NoError(t, err)
	require.NoError(t, finished.Start())
	require.NoError(t, finished.Complete())
	require.NoError(t, repo.Create(ctx, finished))

	t.Run("counts pending and running only", func(t *testing.T) {
		count, err := repo.CountRunning(ctx, marketplace.AccountTypeMain, marketplace.ResourceKindProducts)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("other account is independent", func(t *testing.T) {
		count, err := repo.CountRunning(ctx, marketplace.AccountTypeFBE, marketplace.ResourceKindProducts)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("other resource is independent", func(t *testing.T) {
		count, err := repo.CountRunning(ctx, marketplace.AccountTypeMain, marketplace.ResourceKindOrders)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestGormRunRepository_FindAll(t *testing.T) {
	repo := NewGormRunRepository(newTestDB(t))
	ctx := context.Background()

	mainRun, err := syncdomain.NewRun(marketplace.AccountTypeMain, marketplace.ResourceKindProducts, syncdomain.ModeFull)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, mainRun))

	fbeRun, err := syncdomain.NewRun(marketplace.AccountTypeFBE, marketplace.ResourceKindOrders, syncdomain.ModeIncremental)
	require.NoError(t, err)
	require.NoError(t, fbeRun.Start())
	require.NoError(t, fbeRun.Fail("boom"))
	require.NoError(t, repo.Create(ctx, fbeRun))

	t.Run("unfiltered returns everything", func(t *testing.T) {
		runs, err := repo.FindAll(ctx, syncdomain.RunFilter{})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("filters by account", func(t *testing.T) {
		account := marketplace.AccountTypeFBE
		runs, err := repo.FindAll(ctx, syncdomain.RunFilter{AccountType: &account})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, fbeRun.ID, runs[0].ID)
	})

	t.Run("filters by status", func(t *testing.T) {
		status := syncdomain.RunStatusFailed
		count, err := repo.Count(ctx, syncdomain.RunFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormRunRepository_UpdatePersistsCounters(t *testing.T) {
	repo := NewGormRunRepository(newTestDB(t))
	ctx := context.Background()

	run, err := syncdomain.NewRun(marketplace.AccountTypeMain, marketplace.ResourceKindOffers, syncdomain.ModeIncremental)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, run))

	require.NoError(t, run.Start())
	run.RecordPage()
	run.RecordProgress(100, 60, 39, 1)
	require.NoError(t, repo.Update(ctx, run))

	reloaded, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.RunStatusRunning, reloaded.Status)
	assert.Equal(t, 1, reloaded.PagesFetched)
	assert.Equal(t, 100, reloaded.ItemsFetched)
	assert.Equal(t, 60, reloaded.ItemsCreated)
	assert.Equal(t, 39, reloaded.ItemsUpdated)
	assert.Equal(t, 1, reloaded.ItemsFailed)
}
