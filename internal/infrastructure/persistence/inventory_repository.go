package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sellerdesk/backend/internal/domain/inventory"
	"github.com/sellerdesk/backend/internal/domain/shared"
)

// GormInventoryRepository implements inventory.ItemRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// FindByWarehouseAndSKU finds one item by its natural key
func (r *GormInventoryRepository) FindByWarehouseAndSKU(ctx context.Context, warehouseCode, sku string) (*inventory.Item, error) {
	var item inventory.Item
	if err := r.db.WithContext(ctx).
		Where("warehouse_code = ? AND product_sku = ?", warehouseCode, sku).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindBySKU lists items for a product across warehouses
func (r *GormInventoryRepository) FindBySKU(ctx context.Context, sku string) ([]inventory.Item, error) {
	var items []inventory.Item
	if err := r.db.WithContext(ctx).
		Where("product_sku = ?", sku).
		Order("warehouse_code").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindBelowReorderPoint lists items whose available quantity fell below their
// reorder point
func (r *GormInventoryRepository) FindBelowReorderPoint(ctx context.Context, filter shared.Filter) ([]inventory.Item, error) {
	var items []inventory.Item
	query := r.db.WithContext(ctx).
		Model(&inventory.Item{}).
		Where("reorder_point > 0 AND (on_hand - reserved) < reorder_point").
		Order("product_sku")
	if limit := filter.Limit(); limit > 0 {
		query = query.Limit(limit).Offset(filter.Offset())
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates an item
func (r *GormInventoryRepository) Save(ctx context.Context, item *inventory.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Ensure interface compliance
var _ inventory.ItemRepository = (*GormInventoryRepository)(nil)
