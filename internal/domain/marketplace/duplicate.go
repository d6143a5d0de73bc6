package marketplace

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ResolutionStrategy selects how a cross-account duplicate is resolved
type ResolutionStrategy string

const (
	// StrategyKeepMain keeps the MAIN listing and supersedes the FBE one
	StrategyKeepMain ResolutionStrategy = "keep_main"
	// StrategyKeepFBE keeps the FBE listing and supersedes the MAIN one
	StrategyKeepFBE ResolutionStrategy = "keep_fbe"
	// StrategyMergeBest stages a merged record taking the best field from
	// each member; it never mutates the members themselves
	StrategyMergeBest ResolutionStrategy = "merge_best"
	// StrategyManualReview flags the group for a human, no automatic mutation
	StrategyManualReview ResolutionStrategy = "manual_review"
)

// IsValid returns true if the strategy is known
func (s ResolutionStrategy) IsValid() bool {
	switch s {
	case StrategyKeepMain, StrategyKeepFBE, StrategyMergeBest, StrategyManualReview:
		return true
	default:
		return false
	}
}

// ResolutionStatus is the lifecycle state of a duplicate group
type ResolutionStatus string

const (
	ResolutionStatusUnresolved ResolutionStatus = "UNRESOLVED"
	ResolutionStatusResolved   ResolutionStatus = "RESOLVED"
)

// DuplicateGroup records two catalog items, one per account, sharing the same
// marketplace matching key. Detection creates it; applying a strategy or a
// manual review resolves it. Members are referenced, never deleted.
type DuplicateGroup struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	MatchingKey string    `gorm:"column:matching_key;size:64;not null;index"`
	MainItemID  uuid.UUID `gorm:"column:main_item_id;type:uuid;not null"`
	FBEItemID   uuid.UUID `gorm:"column:fbe_item_id;type:uuid;not null"`

	PriceDelta decimal.Decimal `gorm:"column:price_delta;type:decimal(20,4);default:0"`
	StockDelta int             `gorm:"column:stock_delta;default:0"`
	// PreferredAccount is the winner under the configured comparator order
	PreferredAccount AccountType `gorm:"column:preferred_account;size:10"`

	Status   ResolutionStatus    `gorm:"column:status;size:20;not null"`
	Strategy *ResolutionStrategy `gorm:"column:strategy;size:20"`
	// MergedPayload holds the staged merge_best record as JSON; callers apply
	// it explicitly, the engine never writes it back to catalog items
	MergedPayload string `gorm:"column:merged_payload;type:text"`

	DetectedAt time.Time  `gorm:"column:detected_at;not null"`
	ResolvedAt *time.Time `gorm:"column:resolved_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

// TableName returns the database table name
func (DuplicateGroup) TableName() string {
	return "duplicate_groups"
}

// SameMembership reports whether the group references the same two items
func (g *DuplicateGroup) SameMembership(mainID, fbeID uuid.UUID) bool {
	return g.MainItemID == mainID && g.FBEItemID == fbeID
}

// RefreshMembership re-points an unresolved group at the key's current pair
// and recomputes its deltas and preferred member
func (g *DuplicateGroup) RefreshMembership(mainID, fbeID uuid.UUID, priceDelta decimal.Decimal, stockDelta int, preferred AccountType, now time.Time) {
	g.MainItemID = mainID
	g.FBEItemID = fbeID
	g.PriceDelta = priceDelta
	g.StockDelta = stockDelta
	g.PreferredAccount = preferred
	g.DetectedAt = now
	g.UpdatedAt = now
}

// Resolve marks the group resolved with the strategy that was applied
func (g *DuplicateGroup) Resolve(strategy ResolutionStrategy, now time.Time) {
	g.Status = ResolutionStatusResolved
	g.Strategy = &strategy
	g.ResolvedAt = &now
	g.UpdatedAt = now
}

// IsResolved returns true once a strategy or manual review has been recorded
func (g *DuplicateGroup) IsResolved() bool {
	return g.Status == ResolutionStatusResolved
}
