package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
)

func newTestRun(t *testing.T) *Run {
	t.Helper()
	run, err := NewRun(marketplace.AccountTypeMain, marketplace.ResourceKindProducts, ModeIncremental)
	require.NoError(t, err)
	return run
}

func TestNewRun_Validation(t *testing.T) {
	_, err := NewRun("SIDE", marketplace.ResourceKindProducts, ModeIncremental)
	assert.Error(t, err)

	_, err = NewRun(marketplace.AccountTypeMain, "catalog", ModeIncremental)
	assert.Error(t, err)

	_, err = NewRun(marketplace.AccountTypeMain, marketplace.ResourceKindProducts, "weekly")
	assert.Error(t, err)
}

func TestRun_Lifecycle(t *testing.T) {
	t.Run("completes without failures", func(t *testing.T) {
		run := newTestRun(t)
		assert.Equal(t, RunStatusPending, run.Status)

		require.NoError(t, run.Start())
		assert.Equal(t, RunStatusRunning, run.Status)
		require.NotNil(t, run.StartedAt)

		run.RecordPage()
		run.RecordProgress(100, 60, 40, 0)

		require.NoError(t, run.Complete())
		assert.Equal(t, RunStatusCompleted, run.Status)
		require.NotNil(t, run.FinishedAt)
	})

	t.Run("record failures downgrade completion", func(t *testing.T) {
		run := newTestRun(t)
		require.NoError(t, run.Start())
		run.RecordProgress(10, 8, 0, 2)

		require.NoError(t, run.Complete())
		assert.Equal(t, RunStatusCompletedWithFailures, run.Status)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		run := newTestRun(t)
		require.NoError(t, run.Start())
		assert.Error(t, run.Start())
	})

	t.Run("cannot complete from pending", func(t *testing.T) {
		run := newTestRun(t)
		assert.Error(t, run.Complete())
	})

	t.Run("fail records the error", func(t *testing.T) {
		run := newTestRun(t)
		require.NoError(t, run.Start())
		require.NoError(t, run.Fail("upstream rejected credentials"))
		assert.Equal(t, RunStatusFailed, run.Status)
		assert.Equal(t, "upstream rejected credentials", run.LastError)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		run := newTestRun(t)
		require.NoError(t, run.Start())
		require.NoError(t, run.TimeOut())
		assert.Equal(t, RunStatusTimedOut, run.Status)

		assert.Error(t, run.Fail("late"))
		assert.Error(t, run.TimeOut())
		assert.Error(t, run.Complete())
	})
}

func TestRunStatus_IsTerminal(t *testing.T) {
	assert.False(t, RunStatusPending.IsTerminal())
	assert.False(t, RunStatusRunning.IsTerminal())
	assert.True(t, RunStatusCompleted.IsTerminal())
	assert.True(t, RunStatusCompletedWithFailures.IsTerminal())
	assert.True(t, RunStatusFailed.IsTerminal())
	assert.True(t, RunStatusTimedOut.IsTerminal())
}
