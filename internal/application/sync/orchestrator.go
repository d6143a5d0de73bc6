package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/shared"
	syncdomain "github.com/sellerdesk/backend/internal/domain/sync"
	"github.com/sellerdesk/backend/internal/infrastructure/config"
)

// ErrAlreadyRunning indicates a run for the same (account, resource) pair is
// still pending or running
var ErrAlreadyRunning = errors.New("a sync run for this account and resource is already running")

// finalizeTimeout bounds the terminal status write once the run context is
// spent
const finalizeTimeout = 10 * time.Second

// bridgeTimeout bounds the post-run inventory bridge pass
const bridgeTimeout = time.Minute

// Orchestrator coordinates the fetch-and-upsert pipeline per account. Start
// returns run ids immediately; execution happens in background goroutines,
// each under its own wall-clock deadline. Exactly one run per (account,
// resource) may be in flight, enforced both in process and against the store.
type Orchestrator struct {
	runs    syncdomain.RunRepository
	fetcher *PaginatedFetcher
	writer  *UpsertWriter
	bridge  *InventoryBridge
	cfg     *config.SyncConfig
	logger  *zap.Logger

	mu     sync.Mutex
	active map[string]struct{}

	// wg tracks background runs for graceful shutdown
	wg sync.WaitGroup
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	runs syncdomain.RunRepository,
	fetcher *PaginatedFetcher,
	writer *UpsertWriter,
	bridge *InventoryBridge,
	cfg *config.SyncConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		runs:    runs,
		fetcher: fetcher,
		writer:  writer,
		bridge:  bridge,
		cfg:     cfg,
		logger:  logger,
		active:  make(map[string]struct{}),
	}
}

// Start creates and launches sync runs. With no account in the request, one
// run per configured account is launched and they execute concurrently.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) ([]RunView, error) {
	resource := marketplace.ResourceKind(req.Resource)
	if !resource.IsValid() {
		return nil, shared.NewDomainError("SYNC_RUN_INVALID", "unknown resource kind")
	}

	mode := syncdomain.Mode(req.Mode)
	if req.Mode == "" {
		mode = syncdomain.ModeIncremental
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("SYNC_RUN_INVALID", "unknown sync mode")
	}

	var accounts []marketplace.AccountType
	if req.Account == "" {
		accounts = marketplace.AllAccountTypes()
	} else {
		account := marketplace.AccountType(req.Account)
		if !account.IsValid() {
			return nil, shared.NewDomainError("SYNC_RUN_INVALID", "unknown account type")
		}
		accounts = []marketplace.AccountType{account}
	}

	started := make([]*syncdomain.Run, 0, len(accounts))
	acquired := make([]string, 0, len(accounts))
	releaseAll := func() {
		for _, key := range acquired {
			o.release(key)
		}
	}

	for _, account := range accounts {
		key := runKey(account, resource)
		if err := o.acquire(ctx, account, resource, key); err != nil {
			releaseAll()
			return nil, err
		}
		acquired = append(acquired, key)

		run, err := syncdomain.NewRun(account, resource, mode)
		if err != nil {
			releaseAll()
			return nil, err
		}
		if err := o.runs.Create(ctx, run); err != nil {
			releaseAll()
			return nil, err
		}
		started = append(started, run)
	}

	views := make([]RunView, 0, len(started))
	for _, run := range started {
		views = append(views, NewRunView(run))
		o.wg.Add(1)
		go o.execute(run, req.PageCap)
	}
	return views, nil
}

// GetRun returns one run by id
func (o *Orchestrator) GetRun(ctx context.Context, id string) (*RunView, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, shared.NewDomainError("SYNC_RUN_INVALID", "invalid run id")
	}
	run, err := o.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	view := NewRunView(run)
	return &view, nil
}

// ListRuns returns runs matching the filter with the total count
func (o *Orchestrator) ListRuns(ctx context.Context, req ListRequest) ([]RunView, int64, error) {
	filter := syncdomain.RunFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Account != "" {
		account := marketplace.AccountType(req.Account)
		if !account.IsValid() {
			return nil, 0, shared.NewDomainError("SYNC_RUN_INVALID", "unknown account type")
		}
		filter.AccountType = &account
	}
	if req.Resource != "" {
		resource := marketplace.ResourceKind(req.Resource)
		if !resource.IsValid() {
			return nil, 0, shared.NewDomainError("SYNC_RUN_INVALID", "unknown resource kind")
		}
		filter.Resource = &resource
	}
	if req.Status != "" {
		status := syncdomain.RunStatus(req.Status)
		filter.Status = &status
	}

	runs, err := o.runs.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := o.runs.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	views := make([]RunView, 0, len(runs))
	for i := range runs {
		views = append(views, NewRunView(&runs[i]))
	}
	return views, total, nil
}

// Wait blocks until all in-flight runs have finished. Used on shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// ---------------------------------------------------------------------------
// Run execution
// ---------------------------------------------------------------------------

func (o *Orchestrator) execute(run *syncdomain.Run, pageCapOverride *int) {
	defer o.wg.Done()
	defer o.release(runKey(run.AccountType, run.Resource))

	timeout := o.cfg.IncrementalTimeout
	pageCap := o.cfg.IncrementalPageCap
	var modifiedSince *time.Time
	if run.Mode == syncdomain.ModeFull {
		timeout = o.cfg.FullTimeout
		pageCap = o.cfg.FullPageCap
	} else {
		since := time.Now().AddDate(0, 0, -o.cfg.LookbackDays)
		modifiedSince = &since
	}
	if pageCapOverride != nil && *pageCapOverride > 0 && *pageCapOverride < pageCap {
		pageCap = *pageCapOverride
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger := o.logger.With(
		zap.String("run_id", run.ID.String()),
		zap.String("account", run.AccountType.String()),
		zap.String("resource", run.Resource.String()),
		zap.String("mode", string(run.Mode)),
	)

	if err := run.Start(); err != nil {
		logger.Error("cannot start run", zap.Error(err))
		return
	}
	if err := o.runs.Update(ctx, run); err != nil {
		logger.Error("failed to persist run start", zap.Error(err))
		o.finalize(run, logger, func() error { return run.Fail(err.Error()) })
		return
	}
	logger.Info("sync run started", zap.Int("page_cap", pageCap))

	consume := func(ctx context.Context, page *marketplace.Page) error {
		run.RecordPage()
		progress := func(fetched, created, updated, failed int) {
			run.RecordProgress(fetched, created, updated, failed)
			if err := o.runs.Update(ctx, run); err != nil {
				logger.Warn("failed to persist run progress", zap.Error(err))
			}
		}
		var err error
		if run.Resource == marketplace.ResourceKindOrders {
			_, err = o.writer.WriteOrderRecords(ctx, run.AccountType, page.Orders, progress)
		} else {
			_, err = o.writer.WriteCatalogRecords(ctx, run.AccountType, page.CatalogItems, progress)
		}
		return err
	}

	result, fetchErr := o.fetcher.Fetch(ctx, FetchParams{
		Account:       run.AccountType,
		Resource:      run.Resource,
		PageSize:      o.cfg.PageSize,
		PageCap:       pageCap,
		ModifiedSince: modifiedSince,
	}, consume)

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		o.finalize(run, logger, run.TimeOut)
		logger.Warn("sync run timed out",
			zap.Int("pages_fetched", run.PagesFetched),
			zap.Int("items_fetched", run.ItemsFetched),
		)
	case fetchErr != nil:
		o.finalize(run, logger, func() error { return run.Fail(fetchErr.Error()) })
		logger.Error("sync run failed",
			zap.String("stop_reason", string(result.Stopped)),
			zap.Error(fetchErr),
		)
	default:
		o.finalize(run, logger, run.Complete)
		logger.Info("sync run finished",
			zap.String("status", string(run.Status)),
			zap.String("stop_reason", string(result.Stopped)),
			zap.Int("pages_fetched", run.PagesFetched),
			zap.Int("items_created", run.ItemsCreated),
			zap.Int("items_updated", run.ItemsUpdated),
			zap.Int("items_failed", run.ItemsFailed),
		)
	}

	o.runBridge(run, logger)
}

// finalize applies the terminal transition and persists it on a fresh context,
// since the run's own context may already be spent
func (o *Orchestrator) finalize(run *syncdomain.Run, logger *zap.Logger, transition func() error) {
	if err := transition(); err != nil {
		logger.Error("invalid terminal transition", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	if err := o.runs.Update(ctx, run); err != nil {
		logger.Error("failed to persist final run state", zap.Error(err))
	}
}

// runBridge invokes the inventory bridge once per finished catalog run.
// Bridge failure is logged, never propagated into the run status.
func (o *Orchestrator) runBridge(run *syncdomain.Run, logger *zap.Logger) {
	if !run.Resource.IsCatalog() {
		return
	}
	if run.Status != syncdomain.RunStatusCompleted && run.Status != syncdomain.RunStatusCompletedWithFailures {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
	defer cancel()
	if err := o.bridge.SyncFromCatalog(ctx, run.AccountType); err != nil {
		logger.Warn("inventory bridge failed", zap.Error(err))
	}
}

func (o *Orchestrator) acquire(ctx context.Context, account marketplace.AccountType, resource marketplace.ResourceKind, key string) error {
	o.mu.Lock()
	if _, busy := o.active[key]; busy {
		o.mu.Unlock()
		return ErrAlreadyRunning
	}
	o.active[key] = struct{}{}
	o.mu.Unlock()

	count, err := o.runs.CountRunning(ctx, account, resource)
	if err != nil {
		o.release(key)
		return err
	}
	if count > 0 {
		o.release(key)
		return ErrAlreadyRunning
	}
	return nil
}

func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	delete(o.active, key)
	o.mu.Unlock()
}

func runKey(account marketplace.AccountType, resource marketplace.ResourceKind) string {
	return account.String() + "/" + resource.String()
}
