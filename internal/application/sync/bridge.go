package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sellerdesk/backend/internal/domain/inventory"
	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/shared"
)

// bridgePageSize is how many catalog items the bridge reads per page
const bridgePageSize = 500

// InventoryBridge copies synced catalog stock figures into warehouse-level
// inventory items keyed by (warehouse, product sku). The orchestrator invokes
// it at most once per finished catalog run; its failure never fails the run.
type InventoryBridge struct {
	catalog    marketplace.CatalogItemRepository
	inventory  inventory.ItemRepository
	warehouses map[marketplace.AccountType]string
	logger     *zap.Logger
}

// NewInventoryBridge creates a new InventoryBridge
func NewInventoryBridge(
	catalog marketplace.CatalogItemRepository,
	inv inventory.ItemRepository,
	warehouses map[marketplace.AccountType]string,
	logger *zap.Logger,
) *InventoryBridge {
	return &InventoryBridge{
		catalog:    catalog,
		inventory:  inv,
		warehouses: warehouses,
		logger:     logger,
	}
}

// SyncFromCatalog upserts inventory quantities for every active catalog item
// of the account
func (b *InventoryBridge) SyncFromCatalog(ctx context.Context, account marketplace.AccountType) error {
	warehouse, ok := b.warehouses[account]
	if !ok || warehouse == "" {
		return shared.NewDomainError("BRIDGE_NO_WAREHOUSE", "no warehouse configured for account "+account.String())
	}

	var synced int
	for page := 1; ; page++ {
		items, err := b.catalog.FindByAccount(ctx, account, shared.Filter{Page: page, PageSize: bridgePageSize})
		if err != nil {
			return err
		}
		for i := range items {
			item := &items[i]
			if item.SyncStatus == marketplace.SyncStatusSuperseded {
				continue
			}
			if err := b.upsertItem(ctx, warehouse, item.SKU, item.Stock); err != nil {
				return err
			}
			synced++
		}
		if len(items) < bridgePageSize {
			break
		}
	}

	b.logger.Info("inventory bridge finished",
		zap.String("account", account.String()),
		zap.String("warehouse", warehouse),
		zap.Int("items_synced", synced),
	)
	return nil
}

func (b *InventoryBridge) upsertItem(ctx context.Context, warehouse, sku string, stock int) error {
	now := time.Now()
	qty := decimal.NewFromInt(int64(stock))

	existing, err := b.inventory.FindByWarehouseAndSKU(ctx, warehouse, sku)
	switch {
	case err == nil:
		existing.SetOnHand(qty, now)
		return b.inventory.Save(ctx, existing)
	case errors.Is(err, shared.ErrNotFound):
		return b.inventory.Save(ctx, &inventory.Item{
			ID:            uuid.New(),
			WarehouseCode: warehouse,
			ProductSKU:    sku,
			OnHand:        qty,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	default:
		return err
	}
}
