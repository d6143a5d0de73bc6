package advisor

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sellerdesk/backend/internal/domain/inventory"
)

// velocityRestockFactor sizes the velocity-based recommendation at two
// months of demand plus a 1.5-month safety margin
var velocityRestockFactor = decimal.NewFromFloat(3.5)

// Advisor recommends reorder quantities from current stock, configured
// thresholds and the velocity signal. Rules apply in strict priority order:
// a manual override wins outright, then a max-stock fill-up, then twice the
// reorder point, then the velocity projection.
type Advisor struct {
	inventory  inventory.ItemRepository
	aggregator *Aggregator
	logger     *zap.Logger
}

// NewAdvisor creates a new Advisor
func NewAdvisor(inv inventory.ItemRepository, aggregator *Aggregator, logger *zap.Logger) *Advisor {
	return &Advisor{
		inventory:  inv,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Recommend computes the reorder recommendation for one warehouse item
func (a *Advisor) Recommend(ctx context.Context, req ReorderRequest) (*ReorderRecommendation, error) {
	item, err := a.inventory.FindByWarehouseAndSKU(ctx, req.WarehouseCode, req.SKU)
	if err != nil {
		return nil, err
	}

	reports, err := a.aggregator.SoldLastNMonths(ctx, []string{req.SKU}, req.Months)
	if err != nil {
		return nil, err
	}
	report := reports[req.SKU]

	rec := &ReorderRecommendation{
		ProductSKU:      req.SKU,
		WarehouseCode:   req.WarehouseCode,
		TotalSoldWindow: report.TotalSold,
		AvgMonthly:      report.AvgMonthly,
		VelocityClass:   report.Class,
	}
	rec.RecommendedQty, rec.Basis = recommendQty(item, report.AvgMonthly)

	a.logger.Debug("reorder recommendation computed",
		zap.String("sku", req.SKU),
		zap.String("warehouse", req.WarehouseCode),
		zap.Int("quantity", rec.RecommendedQty),
		zap.String("basis", rec.Basis),
	)
	return rec, nil
}

// recommendQty applies the priority ladder. The manual override is returned
// verbatim; computed quantities subtract what is already on order and never
// go negative.
func recommendQty(item *inventory.Item, avgMonthly decimal.Decimal) (int, string) {
	if item.ManualReorderQty != nil {
		return *item.ManualReorderQty, BasisManualOverride
	}

	available := int(item.Available().IntPart())

	var qty int
	var basis string
	switch {
	case item.MaxStock > 0:
		qty = item.MaxStock - available
		basis = BasisMaxStock
	case item.ReorderPoint > 0:
		qty = item.ReorderPoint*2 - available
		basis = BasisReorderPoint
	default:
		projected := avgMonthly.Mul(velocityRestockFactor).Round(0)
		qty = int(projected.IntPart()) - available
		basis = BasisVelocity
	}

	qty -= item.PendingOrderQty
	if qty < 0 {
		qty = 0
	}
	return qty, basis
}
