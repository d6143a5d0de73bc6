package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sellerdesk/backend/internal/domain/sales"
)

// Each sales source reads its own table with its own schema and status
// vocabulary and normalizes down to (product sku, quantity sold). Availability
// is resolved once at construction via a table existence check so deployments
// without an optional source skip it instead of failing every aggregation.

type soldRow struct {
	ProductSKU string          `gorm:"column:product_sku"`
	Quantity   decimal.Decimal `gorm:"column:quantity"`
}

func sumSold(ctx context.Context, db *gorm.DB, table, skuCol, qtyCol, dateCol string, statuses []string, skus []string, since time.Time) (map[string]decimal.Decimal, error) {
	var rows []soldRow
	err := db.WithContext(ctx).
		Table(table).
		Select(skuCol+" AS product_sku, SUM("+qtyCol+") AS quantity").
		Where(skuCol+" IN ?", skus).
		Where("status IN ?", statuses).
		Where(dateCol+" >= ?", since).
		Group(skuCol).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		result[row.ProductSKU] = row.Quantity
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Marketplace order lines
// ---------------------------------------------------------------------------

// MarketplaceOrderSource reads order lines synchronized from the marketplace.
// Only lines on orders past preparation count as sold.
type MarketplaceOrderSource struct {
	db        *gorm.DB
	available bool
}

// NewMarketplaceOrderSource creates a MarketplaceOrderSource
func NewMarketplaceOrderSource(db *gorm.DB) *MarketplaceOrderSource {
	return &MarketplaceOrderSource{
		db:        db,
		available: db.Migrator().HasTable("marketplace_order_lines"),
	}
}

// Kind identifies the source
func (s *MarketplaceOrderSource) Kind() sales.SourceKind {
	return sales.SourceMarketplaceOrders
}

// Available reports whether the backing table is provisioned
func (s *MarketplaceOrderSource) Available() bool {
	return s.available
}

// SoldSince sums sold quantity per sku since the given time
func (s *MarketplaceOrderSource) SoldSince(ctx context.Context, skus []string, since time.Time) (map[string]decimal.Decimal, error) {
	return sumSold(ctx, s.db, "marketplace_order_lines", "product_sku", "quantity", "order_date",
		[]string{"prepared", "finalized"}, skus, since)
}

// ---------------------------------------------------------------------------
// Sales order lines
// ---------------------------------------------------------------------------

// SalesOrderSource reads the merchant's own sales order lines. Draft orders
// are excluded until confirmed.
type SalesOrderSource struct {
	db        *gorm.DB
	available bool
}

// NewSalesOrderSource creates a SalesOrderSource
func NewSalesOrderSource(db *gorm.DB) *SalesOrderSource {
	return &SalesOrderSource{
		db:        db,
		available: db.Migrator().HasTable("sales_order_lines"),
	}
}

// Kind identifies the source
func (s *SalesOrderSource) Kind() sales.SourceKind {
	return sales.SourceSalesOrders
}

// Available reports whether the backing table is provisioned
func (s *SalesOrderSource) Available() bool {
	return s.available
}

// SoldSince sums sold quantity per sku since the given time
func (s *SalesOrderSource) SoldSince(ctx context.Context, skus []string, since time.Time) (map[string]decimal.Decimal, error) {
	return sumSold(ctx, s.db, "sales_order_lines", "item_sku", "qty_ordered", "doc_date",
		[]string{"confirmed", "shipped", "invoiced"}, skus, since)
}

// ---------------------------------------------------------------------------
// Internal order lines
// ---------------------------------------------------------------------------

// InternalOrderSource reads generic internal order lines. Pending orders are
// excluded; processing and completed count as sold.
type InternalOrderSource struct {
	db        *gorm.DB
	available bool
}

// NewInternalOrderSource creates an InternalOrderSource
func NewInternalOrderSource(db *gorm.DB) *InternalOrderSource {
	return &InternalOrderSource{
		db:        db,
		available: db.Migrator().HasTable("internal_order_lines"),
	}
}

// Kind identifies the source
func (s *InternalOrderSource) Kind() sales.SourceKind {
	return sales.SourceInternalOrders
}

// Available reports whether the backing table is provisioned
func (s *InternalOrderSource) Available() bool {
	return s.available
}

// SoldSince sums sold quantity per sku since the given time
func (s *InternalOrderSource) SoldSince(ctx context.Context, skus []string, since time.Time) (map[string]decimal.Decimal, error) {
	return sumSold(ctx, s.db, "internal_order_lines", "sku", "quantity", "created_at",
		[]string{"processing", "completed"}, skus, since)
}

// Ensure interface compliance
var (
	_ sales.Source = (*MarketplaceOrderSource)(nil)
	_ sales.Source = (*SalesOrderSource)(nil)
	_ sales.Source = (*InternalOrderSource)(nil)
)
