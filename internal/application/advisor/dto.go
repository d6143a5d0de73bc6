package advisor

import (
	"github.com/shopspring/decimal"
)

// VelocityClass is the coarse classification of a product's sales velocity
type VelocityClass string

const (
	VelocityVeryLow VelocityClass = "very-low"
	VelocityLow     VelocityClass = "low"
	VelocityMedium  VelocityClass = "medium"
	VelocityHigh    VelocityClass = "high"
)

// VelocityRequest asks for sales velocity over a trailing window
type VelocityRequest struct {
	SKUs   []string `json:"skus" binding:"required"`
	Months int      `json:"months"`
}

// VelocityReport is the computed velocity for one product
type VelocityReport struct {
	ProductSKU   string                     `json:"product_sku"`
	WindowMonths int                        `json:"window_months"`
	TotalSold    decimal.Decimal            `json:"total_sold"`
	AvgMonthly   decimal.Decimal            `json:"avg_monthly"`
	Class        VelocityClass              `json:"velocity_class"`
	BySource     map[string]decimal.Decimal `json:"by_source"`
}

// ReorderRequest asks for a reorder recommendation for one warehouse item
type ReorderRequest struct {
	WarehouseCode string `json:"warehouse_code" binding:"required"`
	SKU           string `json:"sku" binding:"required"`
	Months        int    `json:"months"`
}

// ReorderRecommendation is a derived value, recomputed on demand
type ReorderRecommendation struct {
	ProductSKU      string          `json:"product_sku"`
	WarehouseCode   string          `json:"warehouse_code"`
	TotalSoldWindow decimal.Decimal `json:"total_sold_window"`
	AvgMonthly      decimal.Decimal `json:"avg_monthly"`
	VelocityClass   VelocityClass   `json:"velocity_class"`
	RecommendedQty  int             `json:"recommended_quantity"`
	// Basis names the rule that produced the quantity
	Basis string `json:"basis"`
}

// Recommendation bases, in priority order
const (
	BasisManualOverride = "manual_override"
	BasisMaxStock       = "max_stock"
	BasisReorderPoint   = "reorder_point"
	BasisVelocity       = "velocity"
)
