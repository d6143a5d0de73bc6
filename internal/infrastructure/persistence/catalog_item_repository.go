package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/shared"
)

// GormCatalogItemRepository implements marketplace.CatalogItemRepository
// using GORM. Constructed per transaction by the sync pipeline so every write
// runs against the caller's explicit transaction handle.
type GormCatalogItemRepository struct {
	db *gorm.DB
}

// NewGormCatalogItemRepository creates a new GormCatalogItemRepository
func NewGormCatalogItemRepository(db *gorm.DB) *GormCatalogItemRepository {
	return &GormCatalogItemRepository{db: db}
}

// FindByID finds a catalog item by its local id
func (r *GormCatalogItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.CatalogItem, error) {
	var item marketplace.CatalogItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByAccountAndExternalID finds the item addressed by the upsert key
func (r *GormCatalogItemRepository) FindByAccountAndExternalID(ctx context.Context, account marketplace.AccountType, externalID string) (*marketplace.CatalogItem, error) {
	var item marketplace.CatalogItem
	if err := r.db.WithContext(ctx).
		Where("account_type = ? AND external_id = ?", account, externalID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByAccount lists items for one account
func (r *GormCatalogItemRepository) FindByAccount(ctx context.Context, account marketplace.AccountType, filter shared.Filter) ([]marketplace.CatalogItem, error) {
	var items []marketplace.CatalogItem
	query := r.db.WithContext(ctx).
		Model(&marketplace.CatalogItem{}).
		Where("account_type = ?", account).
		Order("external_id")
	if limit := filter.Limit(); limit > 0 {
		query = query.Limit(limit).Offset(filter.Offset())
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByMatchingKey lists all items sharing a matching key, any account
func (r *GormCatalogItemRepository) FindByMatchingKey(ctx context.Context, key string) ([]marketplace.CatalogItem, error) {
	var items []marketplace.CatalogItem
	if err := r.db.WithContext(ctx).
		Where("matching_key = ?", key).
		Order("account_type").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindDuplicateKeys returns matching keys present under at least two distinct
// account types
func (r *GormCatalogItemRepository) FindDuplicateKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).
		Model(&marketplace.CatalogItem{}).
		Select("matching_key").
		Where("matching_key <> ''").
		Group("matching_key").
		Having("COUNT(DISTINCT account_type) >= 2").
		Order("matching_key").
		Pluck("matching_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Save creates or updates an item
func (r *GormCatalogItemRepository) Save(ctx context.Context, item *marketplace.CatalogItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Count counts items for an account
func (r *GormCatalogItemRepository) Count(ctx context.Context, account marketplace.AccountType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&marketplace.CatalogItem{}).
		Where("account_type = ?", account).
		Count(&count).Error
	return count, err
}

// Ensure interface compliance
var _ marketplace.CatalogItemRepository = (*GormCatalogItemRepository)(nil)
