package marketplace

import (
	"context"

	"github.com/google/uuid"

	"github.com/sellerdesk/backend/internal/domain/shared"
)

// CatalogItemRepository persists catalog items. Write methods are expected to
// run against the explicit transaction handle the caller constructed the
// repository with; the sync pipeline never relies on an ambient session.
type CatalogItemRepository interface {
	// FindByID finds an item by its local id
	FindByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error)

	// FindByAccountAndExternalID finds the item addressed by the upsert key
	FindByAccountAndExternalID(ctx context.Context, account AccountType, externalID string) (*CatalogItem, error)

	// FindByAccount lists items for one account
	FindByAccount(ctx context.Context, account AccountType, filter shared.Filter) ([]CatalogItem, error)

	// FindByMatchingKey lists all items sharing a matching key, any account
	FindByMatchingKey(ctx context.Context, key string) ([]CatalogItem, error)

	// FindDuplicateKeys returns matching keys present under at least two
	// distinct account types
	FindDuplicateKeys(ctx context.Context) ([]string, error)

	// Save creates or updates an item
	Save(ctx context.Context, item *CatalogItem) error

	// Count counts items for an account
	Count(ctx context.Context, account AccountType) (int64, error)
}

// DuplicateGroupRepository persists duplicate groups
type DuplicateGroupRepository interface {
	// FindByID finds a group by id
	FindByID(ctx context.Context, id uuid.UUID) (*DuplicateGroup, error)

	// FindByMatchingKey finds the most recent group for a matching key
	FindByMatchingKey(ctx context.Context, key string) (*DuplicateGroup, error)

	// FindAll lists groups, optionally filtered by resolution status
	FindAll(ctx context.Context, status *ResolutionStatus, filter shared.Filter) ([]DuplicateGroup, error)

	// Save creates or updates a group
	Save(ctx context.Context, group *DuplicateGroup) error

	// Count counts groups matching the status filter
	Count(ctx context.Context, status *ResolutionStatus) (int64, error)
}
