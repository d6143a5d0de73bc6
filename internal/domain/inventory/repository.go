package inventory

import (
	"context"

	"github.com/sellerdesk/backend/internal/domain/shared"
)

// ItemRepository persists inventory items keyed by (warehouse, product sku)
type ItemRepository interface {
	// FindByWarehouseAndSKU finds one item by its natural key
	FindByWarehouseAndSKU(ctx context.Context, warehouseCode, sku string) (*Item, error)

	// FindBySKU lists items for a product across warehouses
	FindBySKU(ctx context.Context, sku string) ([]Item, error)

	// FindBelowReorderPoint lists items whose available quantity fell below
	// their reorder point
	FindBelowReorderPoint(ctx context.Context, filter shared.Filter) ([]Item, error)

	// Save creates or updates an item
	Save(ctx context.Context, item *Item) error
}
