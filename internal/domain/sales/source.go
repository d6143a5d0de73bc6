package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind identifies one of the three independent sales data sources
type SourceKind string

const (
	// SourceMarketplaceOrders are order lines pulled from the marketplace
	SourceMarketplaceOrders SourceKind = "marketplace_orders"
	// SourceSalesOrders are the merchant's internal sales order lines
	SourceSalesOrders SourceKind = "sales_orders"
	// SourceInternalOrders are generic internal order lines
	SourceInternalOrders SourceKind = "internal_orders"
)

// String returns the string representation of SourceKind
func (k SourceKind) String() string {
	return string(k)
}

// Source is one sales data source. Each source has its own schema and status
// vocabulary; implementations normalize down to (product sku, quantity) at
// this boundary so the aggregator never branches on source-specific shape.
//
// Availability is resolved once at construction: a deployment without the
// source's underlying table reports Available() == false and the aggregator
// skips it with a warning instead of failing the whole aggregation.
type Source interface {
	// Kind identifies the source
	Kind() SourceKind

	// Available reports whether the source's storage is provisioned
	Available() bool

	// SoldSince returns the quantity sold per product sku since the given
	// time, counting only the source's "counted" statuses
	SoldSince(ctx context.Context, skus []string, since time.Time) (map[string]decimal.Decimal, error)
}
