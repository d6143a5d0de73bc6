package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/shared"
)

func seedGroup(t *testing.T, repo *GormDuplicateGroupRepository, key string, detectedAt time.Time, status marketplace.ResolutionStatus) *marketplace.DuplicateGroup {
	t.Helper()
	group := &marketplace.DuplicateGroup{
		ID:          uuid.New(),
		MatchingKey: key,
		MainItemID:  uuid.New(),
		FBEItemID:   uuid.New(),
		Status:      status,
		DetectedAt:  detectedAt,
		CreatedAt:   detectedAt,
		UpdatedAt:   detectedAt,
	}
	require.NoError(t, repo.Save(context.Background(), group))
	return group
}

func TestGormDuplicateGroupRepository_FindByMatchingKey(t *testing.T) {
	repo := NewGormDuplicateGroupRepository(newTestDB(t))
	ctx := context.Background()

	older := seedGroup(t, repo, "PNK-1", time.Now().Add(-time.Hour), marketplace.ResolutionStatusResolved)
	newer := seedGroup(t, repo, "PNK-1", time.Now(), marketplace.ResolutionStatusUnresolved)

	t.Run("returns the most recent group for the key", func(t *testing.T) {
		group, err := repo.FindByMatchingKey(ctx, "PNK-1")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, group.ID)
		assert.NotEqual(t, older.ID, group.ID)
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		_, err := repo.FindByMatchingKey(ctx, "PNK-MISSING")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormDuplicateGroupRepository_FindAllByStatus(t *testing.T) {
	repo := NewGormDuplicateGroupRepository(newTestDB(t))
	ctx := context.Background()

	seedGroup(t, repo, "PNK-A", time.Now(), marketplace.ResolutionStatusUnresolved)
	seedGroup(t, repo, "PNK-B", time.Now(), marketplace.ResolutionStatusResolved)

	unresolved := marketplace.ResolutionStatusUnresolved
	groups, err := repo.FindAll(ctx, &unresolved, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "PNK-A", groups[0].MatchingKey)

	count, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
