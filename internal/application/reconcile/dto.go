package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
)

// GroupView is the outward representation of a duplicate group
type GroupView struct {
	ID               string          `json:"id"`
	MatchingKey      string          `json:"matching_key"`
	MainItemID       string          `json:"main_item_id"`
	FBEItemID        string          `json:"fbe_item_id"`
	PriceDelta       decimal.Decimal `json:"price_delta"`
	StockDelta       int             `json:"stock_delta"`
	PreferredAccount string          `json:"preferred_account"`
	Status           string          `json:"status"`
	Strategy         *string         `json:"strategy,omitempty"`
	MergedPayload    string          `json:"merged_payload,omitempty"`
	DetectedAt       time.Time       `json:"detected_at"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
}

// NewGroupView converts a domain group to its outward representation
func NewGroupView(group *marketplace.DuplicateGroup) GroupView {
	view := GroupView{
		ID:               group.ID.String(),
		MatchingKey:      group.MatchingKey,
		MainItemID:       group.MainItemID.String(),
		FBEItemID:        group.FBEItemID.String(),
		PriceDelta:       group.PriceDelta,
		StockDelta:       group.StockDelta,
		PreferredAccount: group.PreferredAccount.String(),
		Status:           string(group.Status),
		MergedPayload:    group.MergedPayload,
		DetectedAt:       group.DetectedAt,
		ResolvedAt:       group.ResolvedAt,
	}
	if group.Strategy != nil {
		s := string(*group.Strategy)
		view.Strategy = &s
	}
	return view
}

// ListRequest filters the duplicate group listing
type ListRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ResolveRequest selects the strategy to apply to one group
type ResolveRequest struct {
	Strategy string `json:"strategy" binding:"required"`
}

// mergedRecord is the staged merge_best result: the best individual field
// from each member, with provenance. It is stored as JSON on the group for
// the caller to apply explicitly.
type mergedRecord struct {
	MatchingKey string          `json:"matching_key"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	PriceFrom   string          `json:"price_from"`
	Stock       int             `json:"stock"`
	StockFrom   string          `json:"stock_from"`
	Currency    string          `json:"currency"`
}
