package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
)

// RunFilter defines filter criteria for listing sync runs
type RunFilter struct {
	AccountType *marketplace.AccountType
	Resource    *marketplace.ResourceKind
	Status      *RunStatus
	Page        int
	PageSize    int
}

// RunRepository persists sync runs. The orchestrator is the only writer.
type RunRepository interface {
	// Create inserts a new run
	Create(ctx context.Context, run *Run) error

	// Update persists the current run state and counters
	Update(ctx context.Context, run *Run) error

	// FindByID finds a run by id
	FindByID(ctx context.Context, id uuid.UUID) (*Run, error)

	// FindAll lists runs matching the filter, newest first
	FindAll(ctx context.Context, filter RunFilter) ([]Run, error)

	// Count counts runs matching the filter
	Count(ctx context.Context, filter RunFilter) (int64, error)

	// CountRunning counts non-terminal runs for one (account, resource) pair.
	// Used to enforce the single-running-run invariant.
	CountRunning(ctx context.Context, account marketplace.AccountType, resource marketplace.ResourceKind) (int64, error)
}
