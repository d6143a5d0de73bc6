package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one warehouse-level stock record. The sync bridge materializes
// these from catalog stock figures so low-stock views are populated without
// a second manual action; the reorder advisor reads the thresholds.
type Item struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	WarehouseCode string    `gorm:"column:warehouse_code;size:20;not null;uniqueIndex:idx_inventory_warehouse_sku,priority:1"`
	ProductSKU    string    `gorm:"column:product_sku;size:100;not null;uniqueIndex:idx_inventory_warehouse_sku,priority:2"`

	OnHand   decimal.Decimal `gorm:"column:on_hand;type:decimal(20,4);default:0"`
	Reserved decimal.Decimal `gorm:"column:reserved;type:decimal(20,4);default:0"`

	MinStock     int `gorm:"column:min_stock;default:0"`
	ReorderPoint int `gorm:"column:reorder_point;default:0"`
	MaxStock     int `gorm:"column:max_stock;default:0"`
	// ManualReorderQty overrides any computed recommendation when set
	ManualReorderQty *int `gorm:"column:manual_reorder_qty"`
	// PendingOrderQty is the quantity on open purchase orders not yet received
	PendingOrderQty int `gorm:"column:pending_order_qty;default:0"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the database table name
func (Item) TableName() string {
	return "inventory_items"
}

// Available returns the sellable quantity
func (i *Item) Available() decimal.Decimal {
	return i.OnHand.Sub(i.Reserved)
}

// SetOnHand updates the on-hand quantity from a synced stock figure
func (i *Item) SetOnHand(qty decimal.Decimal, now time.Time) {
	i.OnHand = qty
	i.UpdatedAt = now
}
