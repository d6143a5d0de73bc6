package marketplace

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sellerdesk/backend/internal/domain/shared"
)

// SyncStatus tracks the lifecycle of a locally stored catalog item
type SyncStatus string

const (
	// SyncStatusSynced means the item matches the last fetched marketplace state
	SyncStatusSynced SyncStatus = "SYNCED"
	// SyncStatusPending means the item was created locally and not yet confirmed
	SyncStatusPending SyncStatus = "PENDING"
	// SyncStatusSuperseded means the item lost a duplicate resolution and is
	// retained for audit only
	SyncStatusSuperseded SyncStatus = "SUPERSEDED"
	// SyncStatusInactive means the marketplace reported the listing as inactive
	SyncStatusInactive SyncStatus = "INACTIVE"
)

// CatalogItem is the local representation of one marketplace product or offer.
// Uniquely addressed by (account_type, external_id); the sync path only ever
// upserts on that pair and soft-deactivates, never deletes.
type CatalogItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	AccountType  AccountType     `gorm:"column:account_type;size:10;not null;uniqueIndex:idx_catalog_account_external,priority:1;index:idx_catalog_matching_key,priority:2"`
	ExternalID   string          `gorm:"column:external_id;size:64;not null;uniqueIndex:idx_catalog_account_external,priority:2"`
	MatchingKey  string          `gorm:"column:matching_key;size:64;index:idx_catalog_matching_key,priority:1"`
	SKU          string          `gorm:"column:sku;size:100;not null"`
	Name         string          `gorm:"column:name;size:255"`
	Price        decimal.Decimal `gorm:"column:price;type:decimal(20,4);default:0"`
	MinPrice     decimal.Decimal `gorm:"column:min_price;type:decimal(20,4);default:0"`
	MaxPrice     decimal.Decimal `gorm:"column:max_price;type:decimal(20,4);default:0"`
	Currency     string          `gorm:"column:currency;size:3"`
	Stock        int             `gorm:"column:stock;default:0"`
	SyncStatus   SyncStatus      `gorm:"column:sync_status;size:20;not null"`
	LastSyncedAt time.Time       `gorm:"column:last_synced_at"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

// TableName returns the database table name
func (CatalogItem) TableName() string {
	return "catalog_items"
}

// NewCatalogItemFromRecord builds a new catalog item from a fetched record
func NewCatalogItemFromRecord(account AccountType, rec CatalogRecord, now time.Time) (*CatalogItem, error) {
	if err := ValidateRecord(rec); err != nil {
		return nil, err
	}
	item := &CatalogItem{
		ID:          uuid.New(),
		AccountType: account,
		ExternalID:  rec.ExternalID,
		CreatedAt:   now,
	}
	item.applyRecord(rec, now)
	return item, nil
}

// ApplyRecord updates the item from a freshly fetched record. The sync status
// and last-synced timestamp are always touched so "last seen" stays accurate
// even when no content field changed.
func (c *CatalogItem) ApplyRecord(rec CatalogRecord, now time.Time) error {
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	c.applyRecord(rec, now)
	return nil
}

func (c *CatalogItem) applyRecord(rec CatalogRecord, now time.Time) {
	c.MatchingKey = rec.MatchingKey
	c.SKU = rec.SKU
	c.Name = rec.Name
	c.Price = rec.Price
	c.MinPrice = rec.MinPrice
	c.MaxPrice = rec.MaxPrice
	c.Currency = rec.Currency
	c.Stock = rec.Stock
	if rec.Active {
		c.SyncStatus = SyncStatusSynced
	} else {
		c.SyncStatus = SyncStatusInactive
	}
	c.LastSyncedAt = now
	c.UpdatedAt = now
}

// Supersede marks the item as the losing member of a resolved duplicate group.
// The record itself is kept for audit.
func (c *CatalogItem) Supersede(now time.Time) {
	c.SyncStatus = SyncStatusSuperseded
	c.UpdatedAt = now
}

// ValidateRecord checks the invariants a fetched record must satisfy before
// it may be persisted
func ValidateRecord(rec CatalogRecord) error {
	if strings.TrimSpace(rec.ExternalID) == "" {
		return shared.NewDomainError("CATALOG_RECORD_INVALID", "external id is required")
	}
	if strings.TrimSpace(rec.SKU) == "" {
		return shared.NewDomainError("CATALOG_RECORD_INVALID", "sku is required")
	}
	if rec.Price.IsNegative() {
		return shared.NewDomainError("CATALOG_RECORD_INVALID", "price cannot be negative")
	}
	if rec.Stock < 0 {
		return shared.NewDomainError("CATALOG_RECORD_INVALID", "stock cannot be negative")
	}
	return nil
}
