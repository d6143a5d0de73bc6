package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/shared"
	"github.com/sellerdesk/backend/internal/infrastructure/config"
	"github.com/sellerdesk/backend/internal/infrastructure/persistence"
)

// Engine detects cross-account duplicate listings and applies resolution
// strategies. Detection is idempotent: a key whose current membership is
// already recorded, resolved or not, produces no new group.
type Engine struct {
	db       *persistence.Database
	tieBreak []string
	logger   *zap.Logger
}

// NewEngine creates a new Engine. The comparator order comes from
// configuration; recognized comparators are "price" (lower wins), "stock"
// (higher wins) and "account" (MAIN wins).
func NewEngine(db *persistence.Database, cfg *config.ReconcileConfig, logger *zap.Logger) *Engine {
	return &Engine{
		db:       db,
		tieBreak: cfg.TieBreakOrder,
		logger:   logger,
	}
}

// Detect scans the catalog for matching keys present under both accounts and
// records one duplicate group per key. Returns the groups for every duplicate
// key, existing ones included.
func (e *Engine) Detect(ctx context.Context) ([]GroupView, error) {
	catalog := persistence.NewGormCatalogItemRepository(e.db.DB)
	groups := persistence.NewGormDuplicateGroupRepository(e.db.DB)

	keys, err := catalog.FindDuplicateKeys(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]GroupView, 0, len(keys))
	var created int
	for _, key := range keys {
		group, wasCreated, err := e.detectKey(ctx, catalog, groups, key)
		if err != nil {
			return nil, err
		}
		if group == nil {
			continue
		}
		if wasCreated {
			created++
		}
		views = append(views, NewGroupView(group))
	}

	e.logger.Info("duplicate detection finished",
		zap.Int("duplicate_keys", len(keys)),
		zap.Int("groups_created", created),
	)
	return views, nil
}

// detectKey records the duplicate group for one matching key. Returns nil
// when the key has no valid member on one of the accounts.
func (e *Engine) detectKey(ctx context.Context, catalog marketplace.CatalogItemRepository, groups marketplace.DuplicateGroupRepository, key string) (*marketplace.DuplicateGroup, bool, error) {
	items, err := catalog.FindByMatchingKey(ctx, key)
	if err != nil {
		return nil, false, err
	}

	main := pickMember(items, marketplace.AccountTypeMain)
	fbe := pickMember(items, marketplace.AccountTypeFBE)
	if main == nil || fbe == nil {
		return nil, false, nil
	}

	existing, err := groups.FindByMatchingKey(ctx, key)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}
	if existing != nil && existing.SameMembership(main.ID, fbe.ID) {
		return existing, false, nil
	}

	now := time.Now()
	if existing != nil && !existing.IsResolved() {
		// membership shifted under an open group: refresh it in place so the
		// key never carries two unresolved groups
		existing.RefreshMembership(main.ID, fbe.ID,
			main.Price.Sub(fbe.Price), main.Stock-fbe.Stock,
			e.preferredAccount(main, fbe), now)
		if err := groups.Save(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	group := &marketplace.DuplicateGroup{
		ID:               uuid.New(),
		MatchingKey:      key,
		MainItemID:       main.ID,
		FBEItemID:        fbe.ID,
		PriceDelta:       main.Price.Sub(fbe.Price),
		StockDelta:       main.Stock - fbe.Stock,
		PreferredAccount: e.preferredAccount(main, fbe),
		Status:           marketplace.ResolutionStatusUnresolved,
		DetectedAt:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := groups.Save(ctx, group); err != nil {
		return nil, false, err
	}
	return group, true, nil
}

// pickMember selects the account's representative item for a key: the most
// recently synced non-superseded one. Superseded items already lost an
// earlier resolution and must not re-trigger detection.
func pickMember(items []marketplace.CatalogItem, account marketplace.AccountType) *marketplace.CatalogItem {
	var best *marketplace.CatalogItem
	for i := range items {
		item := &items[i]
		if item.AccountType != account || item.SyncStatus == marketplace.SyncStatusSuperseded {
			continue
		}
		if best == nil || item.LastSyncedAt.After(best.LastSyncedAt) {
			best = item
		}
	}
	return best
}

// preferredAccount runs the configured comparators in order until one of
// them breaks the tie
func (e *Engine) preferredAccount(main, fbe *marketplace.CatalogItem) marketplace.AccountType {
	for _, comparator := range e.tieBreak {
		switch comparator {
		case "price":
			if cmp := main.Price.Cmp(fbe.Price); cmp != 0 {
				if cmp < 0 {
					return marketplace.AccountTypeMain
				}
				return marketplace.AccountTypeFBE
			}
		case "stock":
			if main.Stock != fbe.Stock {
				if main.Stock > fbe.Stock {
					return marketplace.AccountTypeMain
				}
				return marketplace.AccountTypeFBE
			}
		case "account":
			return marketplace.AccountTypeMain
		}
	}
	return marketplace.AccountTypeMain
}

// List returns duplicate groups, optionally filtered by resolution status
func (e *Engine) List(ctx context.Context, req ListRequest) ([]GroupView, int64, error) {
	groups := persistence.NewGormDuplicateGroupRepository(e.db.DB)

	var status *marketplace.ResolutionStatus
	if req.Status != "" {
		s := marketplace.ResolutionStatus(req.Status)
		status = &s
	}

	found, err := groups.FindAll(ctx, status, shared.Filter{Page: req.Page, PageSize: req.PageSize})
	if err != nil {
		return nil, 0, err
	}
	total, err := groups.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}

	views := make([]GroupView, 0, len(found))
	for i := range found {
		views = append(views, NewGroupView(&found[i]))
	}
	return views, total, nil
}

// Resolve applies a strategy to one group. keep_main and keep_fbe mark the
// losing member superseded; merge_best stages a merged record on the group
// without touching either member; manual_review only flags the group. No
// strategy ever deletes a catalog item.
func (e *Engine) Resolve(ctx context.Context, groupID string, strategy marketplace.ResolutionStrategy) (*GroupView, error) {
	id, err := uuid.Parse(groupID)
	if err != nil {
		return nil, shared.NewDomainError("DUPLICATE_GROUP_INVALID", "invalid group id")
	}
	if !strategy.IsValid() {
		return nil, shared.NewDomainError("DUPLICATE_GROUP_INVALID", "unknown resolution strategy")
	}

	var resolved *marketplace.DuplicateGroup
	err = e.db.Transaction(func(tx *gorm.DB) error {
		catalog := persistence.NewGormCatalogItemRepository(tx)
		groups := persistence.NewGormDuplicateGroupRepository(tx)

		group, err := groups.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if group.IsResolved() {
			return shared.NewDomainError("DUPLICATE_GROUP_RESOLVED", "group is already resolved")
		}

		now := time.Now()
		switch strategy {
		case marketplace.StrategyKeepMain:
			if err := supersedeMember(ctx, catalog, group.FBEItemID, now); err != nil {
				return err
			}
		case marketplace.StrategyKeepFBE:
			if err := supersedeMember(ctx, catalog, group.MainItemID, now); err != nil {
				return err
			}
		case marketplace.StrategyMergeBest:
			payload, err := e.buildMergedPayload(ctx, catalog, group)
			if err != nil {
				return err
			}
			group.MergedPayload = payload
		case marketplace.StrategyManualReview:
			// flag only
		}

		group.Resolve(strategy, now)
		if err := groups.Save(ctx, group); err != nil {
			return err
		}
		resolved = group
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("duplicate group resolved",
		zap.String("group_id", resolved.ID.String()),
		zap.String("matching_key", resolved.MatchingKey),
		zap.String("strategy", string(strategy)),
	)
	view := NewGroupView(resolved)
	return &view, nil
}

func supersedeMember(ctx context.Context, catalog marketplace.CatalogItemRepository, itemID uuid.UUID, now time.Time) error {
	item, err := catalog.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	item.Supersede(now)
	return catalog.Save(ctx, item)
}

// buildMergedPayload takes the best field from each member: the lower price
// and the higher stock, each with provenance
func (e *Engine) buildMergedPayload(ctx context.Context, catalog marketplace.CatalogItemRepository, group *marketplace.DuplicateGroup) (string, error) {
	main, err := catalog.FindByID(ctx, group.MainItemID)
	if err != nil {
		return "", err
	}
	fbe, err := catalog.FindByID(ctx, group.FBEItemID)
	if err != nil {
		return "", err
	}

	merged := mergedRecord{
		MatchingKey: group.MatchingKey,
		SKU:         main.SKU,
		Name:        main.Name,
		Price:       main.Price,
		PriceFrom:   main.AccountType.String(),
		Stock:       main.Stock,
		StockFrom:   main.AccountType.String(),
		Currency:    main.Currency,
	}
	if fbe.Price.LessThan(main.Price) {
		merged.Price = fbe.Price
		merged.PriceFrom = fbe.AccountType.String()
	}
	if fbe.Stock > main.Stock {
		merged.Stock = fbe.Stock
		merged.StockFrom = fbe.AccountType.String()
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
