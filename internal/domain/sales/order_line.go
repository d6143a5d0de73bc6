package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
)

// MarketplaceOrderLine is one synchronized marketplace order line. The sync
// path upserts these; the velocity aggregator reads them as one of its three
// sources. Uniquely addressed by (account_type, order_external_id,
// line_external_id).
type MarketplaceOrderLine struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	AccountType     marketplace.AccountType `gorm:"column:account_type;size:10;not null;uniqueIndex:idx_mkt_order_line,priority:1"`
	OrderExternalID string                  `gorm:"column:order_external_id;size:64;not null;uniqueIndex:idx_mkt_order_line,priority:2"`
	LineExternalID  string                  `gorm:"column:line_external_id;size:64;not null;uniqueIndex:idx_mkt_order_line,priority:3"`

	ProductSKU string          `gorm:"column:product_sku;size:100;not null;index"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);default:0"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:decimal(20,4);default:0"`
	Currency   string          `gorm:"column:currency;size:3"`
	Status     string          `gorm:"column:status;size:20;not null"`
	OrderDate  time.Time       `gorm:"column:order_date;index"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the database table name
func (MarketplaceOrderLine) TableName() string {
	return "marketplace_order_lines"
}

// NewOrderLineFromRecord builds a new line from a fetched order and line
func NewOrderLineFromRecord(account marketplace.AccountType, order marketplace.OrderRecord, line marketplace.OrderLine, now time.Time) *MarketplaceOrderLine {
	l := &MarketplaceOrderLine{
		ID:              uuid.New(),
		AccountType:     account,
		OrderExternalID: order.ExternalID,
		LineExternalID:  line.ExternalID,
		CreatedAt:       now,
	}
	l.ApplyRecord(order, line, now)
	return l
}

// ApplyRecord refreshes the line from a freshly fetched order and line
func (l *MarketplaceOrderLine) ApplyRecord(order marketplace.OrderRecord, line marketplace.OrderLine, now time.Time) {
	l.ProductSKU = line.ProductSKU
	l.Quantity = line.Quantity
	l.UnitPrice = line.UnitPrice
	l.Currency = order.Currency
	l.Status = order.Status
	l.OrderDate = order.OrderDate
	l.UpdatedAt = now
}

// MarketplaceOrderLineRepository persists synchronized order lines
type MarketplaceOrderLineRepository interface {
	// FindByNaturalKey finds one line by its upsert key
	FindByNaturalKey(ctx context.Context, account marketplace.AccountType, orderExternalID, lineExternalID string) (*MarketplaceOrderLine, error)

	// Save creates or updates a line
	Save(ctx context.Context, line *MarketplaceOrderLine) error
}
