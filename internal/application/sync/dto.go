package sync

import (
	"time"

	syncdomain "github.com/sellerdesk/backend/internal/domain/sync"
)

// StartRequest asks the orchestrator to start sync runs. An empty Account
// starts one run per configured account; Mode defaults to incremental.
type StartRequest struct {
	Account  string `json:"account"`
	Resource string `json:"resource" binding:"required"`
	Mode     string `json:"mode"`
	// PageCap optionally lowers the configured page cap for this run. It can
	// never raise it.
	PageCap *int `json:"page_cap"`
}

// ListRequest filters the run listing
type ListRequest struct {
	Account  string `form:"account"`
	Resource string `form:"resource"`
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// RunView is the outward representation of a sync run
type RunView struct {
	ID           string     `json:"id"`
	AccountType  string     `json:"account_type"`
	Resource     string     `json:"resource"`
	Mode         string     `json:"mode"`
	Status       string     `json:"status"`
	PagesFetched int        `json:"pages_fetched"`
	ItemsFetched int        `json:"items_fetched"`
	ItemsCreated int        `json:"items_created"`
	ItemsUpdated int        `json:"items_updated"`
	ItemsFailed  int        `json:"items_failed"`
	LastError    string     `json:"last_error,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewRunView converts a domain run to its outward representation
func NewRunView(run *syncdomain.Run) RunView {
	return RunView{
		ID:           run.ID.String(),
		AccountType:  run.AccountType.String(),
		Resource:     run.Resource.String(),
		Mode:         string(run.Mode),
		Status:       string(run.Status),
		PagesFetched: run.PagesFetched,
		ItemsFetched: run.ItemsFetched,
		ItemsCreated: run.ItemsCreated,
		ItemsUpdated: run.ItemsUpdated,
		ItemsFailed:  run.ItemsFailed,
		LastError:    run.LastError,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		CreatedAt:    run.CreatedAt,
	}
}

// RecordFailure describes one record that failed transform or persistence
type RecordFailure struct {
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// BatchOutcome summarizes one write call. A non-empty Failed list does not
// imply the batch errored; failed records are isolated per record.
type BatchOutcome struct {
	Created int
	Updated int
	Failed  []RecordFailure
}
