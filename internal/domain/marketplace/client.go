package marketplace

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PageRequest describes one paginated read against the marketplace API.
// Pages are 1-indexed.
type PageRequest struct {
	Account  AccountType
	Resource ResourceKind
	Page     int
	PageSize int
	// ModifiedSince applies the incremental-mode date filter when non-nil.
	// Full syncs leave it nil and fetch from the beginning.
	ModifiedSince *time.Time
}

// Validate checks the request parameters
func (r *PageRequest) Validate() error {
	if !r.Account.IsValid() {
		return ErrAccountNotConfigured
	}
	if !r.Resource.IsValid() {
		return ErrFatal
	}
	if r.Page < 1 || r.PageSize < 1 {
		return ErrFatal
	}
	return nil
}

// CatalogRecord is a product or offer row as returned by the marketplace,
// normalized at the adapter boundary to the fields the sync path persists.
type CatalogRecord struct {
	ExternalID  string
	MatchingKey string
	SKU         string
	Name        string
	Price       decimal.Decimal
	MinPrice    decimal.Decimal
	MaxPrice    decimal.Decimal
	Currency    string
	Stock       int
	Active      bool
}

// OrderLine is one line item of a marketplace order
type OrderLine struct {
	ProductSKU string
	ExternalID string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
}

// OrderRecord is one marketplace order with its line items
type OrderRecord struct {
	ExternalID string
	Status     string
	OrderDate  time.Time
	Currency   string
	Lines      []OrderLine
}

// Page is one finite page of marketplace records. Exactly one of the two
// slices is populated depending on the requested resource kind.
type Page struct {
	Number       int
	CatalogItems []CatalogRecord
	Orders       []OrderRecord
	TotalCount   int64
}

// Size returns the number of records on the page
func (p *Page) Size() int {
	if len(p.Orders) > 0 {
		return len(p.Orders)
	}
	return len(p.CatalogItems)
}

// Client is the port for the external marketplace API. Implementations must
// enforce the per-(account, endpoint class) rate limit with blocking acquire
// semantics and retry transient failures internally.
type Client interface {
	// FetchPage fetches one page of the requested resource. It blocks while
	// the account's token bucket is empty rather than failing; the returned
	// error is one of the taxonomy sentinels (wrapped) when the call fails.
	FetchPage(ctx context.Context, req PageRequest) (*Page, error)
}
