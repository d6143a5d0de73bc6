package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/shared"
)

// Mode selects how far back a sync run reaches
type Mode string

const (
	// ModeIncremental fetches records modified within the lookback window
	ModeIncremental Mode = "incremental"
	// ModeFull fetches from the beginning with no date filter. Full runs must
	// be configured with a materially larger timeout and page cap.
	ModeFull Mode = "full"
)

// IsValid returns true if the mode is known
func (m Mode) IsValid() bool {
	return m == ModeIncremental || m == ModeFull
}

// RunStatus is the lifecycle state of a sync run.
// Transitions: PENDING -> RUNNING -> {COMPLETED, COMPLETED_WITH_FAILURES,
// FAILED, TIMED_OUT}. There is no transition back into RUNNING.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	// RunStatusCompletedWithFailures means the run finished but some records
	// failed validation or persistence
	RunStatusCompletedWithFailures RunStatus = "COMPLETED_WITH_FAILURES"
	RunStatusFailed                RunStatus = "FAILED"
	RunStatusTimedOut              RunStatus = "TIMED_OUT"
)

// IsTerminal returns true once the run has left the RUNNING state for good
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusCompletedWithFailures, RunStatusFailed, RunStatusTimedOut:
		return true
	default:
		return false
	}
}

// Run records one execution of the fetch-and-upsert pipeline for one account
// and resource kind. Counters are scoped to the run that produced them and
// updated incrementally as pages complete, so progress is observable and
// partially durable even when the run later times out.
type Run struct {
	ID          uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	AccountType marketplace.AccountType  `gorm:"column:account_type;size:10;not null;index:idx_sync_runs_account_resource"`
	Resource    marketplace.ResourceKind `gorm:"column:resource_kind;size:20;not null;index:idx_sync_runs_account_resource"`
	Mode        Mode                     `gorm:"column:mode;size:20;not null"`
	Status      RunStatus                `gorm:"column:status;size:30;not null"`

	PagesFetched int    `gorm:"column:pages_fetched;default:0"`
	ItemsFetched int    `gorm:"column:items_fetched;default:0"`
	ItemsCreated int    `gorm:"column:items_created;default:0"`
	ItemsUpdated int    `gorm:"column:items_updated;default:0"`
	ItemsFailed  int    `gorm:"column:items_failed;default:0"`
	LastError    string `gorm:"column:last_error;type:text"`

	StartedAt  *time.Time `gorm:"column:started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

// TableName returns the database table name
func (Run) TableName() string {
	return "sync_runs"
}

// NewRun creates a pending run for one account and resource kind
func NewRun(account marketplace.AccountType, resource marketplace.ResourceKind, mode Mode) (*Run, error) {
	if !account.IsValid() {
		return nil, shared.NewDomainError("SYNC_RUN_INVALID", "unknown account type")
	}
	if !resource.IsValid() {
		return nil, shared.NewDomainError("SYNC_RUN_INVALID", "unknown resource kind")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("SYNC_RUN_INVALID", "unknown sync mode")
	}
	now := time.Now()
	return &Run{
		ID:          uuid.New(),
		AccountType: account,
		Resource:    resource,
		Mode:        mode,
		Status:      RunStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Start transitions the run into RUNNING
func (r *Run) Start() error {
	if r.Status != RunStatusPending {
		return shared.NewDomainError("SYNC_RUN_STATE", "run can only start from PENDING")
	}
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
	r.UpdatedAt = now
	return nil
}

// RecordProgress accumulates per-sub-batch counters while the run is RUNNING
func (r *Run) RecordProgress(fetched, created, updated, failed int) {
	r.ItemsFetched += fetched
	r.ItemsCreated += created
	r.ItemsUpdated += updated
	r.ItemsFailed += failed
	r.UpdatedAt = time.Now()
}

// RecordPage increments the fetched page counter
func (r *Run) RecordPage() {
	r.PagesFetched++
	r.UpdatedAt = time.Now()
}

// Complete transitions the run into its terminal success state. Runs with
// record-level failures finish as COMPLETED_WITH_FAILURES, distinct from both
// plain success and hard failure.
func (r *Run) Complete() error {
	if r.Status != RunStatusRunning {
		return shared.NewDomainError("SYNC_RUN_STATE", "run can only complete from RUNNING")
	}
	now := time.Now()
	if r.ItemsFailed > 0 {
		r.Status = RunStatusCompletedWithFailures
	} else {
		r.Status = RunStatusCompleted
	}
	r.FinishedAt = &now
	r.UpdatedAt = now
	return nil
}

// Fail transitions the run into FAILED, recording the terminal error
func (r *Run) Fail(errMsg string) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("SYNC_RUN_STATE", "run already finished")
	}
	now := time.Now()
	r.Status = RunStatusFailed
	r.LastError = errMsg
	r.FinishedAt = &now
	r.UpdatedAt = now
	return nil
}

// TimeOut transitions the run into TIMED_OUT. Data committed before the
// deadline remains committed; only the status records the truncation.
func (r *Run) TimeOut() error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("SYNC_RUN_STATE", "run already finished")
	}
	now := time.Now()
	r.Status = RunStatusTimedOut
	r.FinishedAt = &now
	r.UpdatedAt = now
	return nil
}
