package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/sales"
	"github.com/sellerdesk/backend/internal/domain/shared"
)

// GormOrderLineRepository implements sales.MarketplaceOrderLineRepository.
// Constructed per transaction by the sync pipeline, like the catalog item
// repository.
type GormOrderLineRepository struct {
	db *gorm.DB
}

// NewGormOrderLineRepository creates a new GormOrderLineRepository
func NewGormOrderLineRepository(db *gorm.DB) *GormOrderLineRepository {
	return &GormOrderLineRepository{db: db}
}

// FindByNaturalKey finds one line by its upsert key
func (r *GormOrderLineRepository) FindByNaturalKey(ctx context.Context, account marketplace.AccountType, orderExternalID, lineExternalID string) (*sales.MarketplaceOrderLine, error) {
	var line sales.MarketplaceOrderLine
	if err := r.db.WithContext(ctx).
		Where("account_type = ? AND order_external_id = ? AND line_external_id = ?",
			account, orderExternalID, lineExternalID).
		First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

// Save creates or updates a line
func (r *GormOrderLineRepository) Save(ctx context.Context, line *sales.MarketplaceOrderLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// Ensure interface compliance
var _ sales.MarketplaceOrderLineRepository = (*GormOrderLineRepository)(nil)
