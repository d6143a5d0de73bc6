package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sellerdesk/backend/internal/domain/sales"
	"github.com/sellerdesk/backend/internal/infrastructure/cache"
	"github.com/sellerdesk/backend/internal/infrastructure/config"
)

// Aggregator computes trailing-window sold quantities by summing the three
// independent sales sources. A source whose storage is not provisioned
// contributes zero with a warning; it never fails the aggregation.
type Aggregator struct {
	sources []sales.Source
	cache   cache.VelocityCache
	cfg     *config.AdvisorConfig
	logger  *zap.Logger
}

// NewAggregator creates a new Aggregator. The cache may be nil, in which case
// every call recomputes.
func NewAggregator(sources []sales.Source, velocityCache cache.VelocityCache, cfg *config.AdvisorConfig, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		sources: sources,
		cache:   velocityCache,
		cfg:     cfg,
		logger:  logger,
	}
}

// SoldLastNMonths returns one velocity report per requested sku. A months
// value of zero falls back to the configured window.
func (a *Aggregator) SoldLastNMonths(ctx context.Context, skus []string, months int) (map[string]VelocityReport, error) {
	if months <= 0 {
		months = a.cfg.WindowMonths
	}

	reports := make(map[string]VelocityReport, len(skus))
	misses := make([]string, 0, len(skus))
	for _, sku := range skus {
		if cached, ok := a.readCache(ctx, sku, months); ok {
			reports[sku] = *cached
			continue
		}
		misses = append(misses, sku)
	}
	if len(misses) == 0 {
		return reports, nil
	}

	since := time.Now().AddDate(0, -months, 0)
	totals := make(map[string]decimal.Decimal, len(misses))
	bySource := make(map[string]map[string]decimal.Decimal, len(misses))
	for _, sku := range misses {
		totals[sku] = decimal.Zero
		bySource[sku] = make(map[string]decimal.Decimal, len(a.sources))
	}

	for _, source := range a.sources {
		kind := source.Kind().String()
		if !source.Available() {
			a.logger.Warn("sales source unavailable, contributing zero",
				zap.String("source", kind),
			)
			for _, sku := range misses {
				bySource[sku][kind] = decimal.Zero
			}
			continue
		}
		sold, err := source.SoldSince(ctx, misses, since)
		if err != nil {
			return nil, fmt.Errorf("sales source %s: %w", kind, err)
		}
		for _, sku := range misses {
			qty := sold[sku]
			bySource[sku][kind] = qty
			totals[sku] = totals[sku].Add(qty)
		}
	}

	monthsDec := decimal.NewFromInt(int64(months))
	for _, sku := range misses {
		report := VelocityReport{
			ProductSKU:   sku,
			WindowMonths: months,
			TotalSold:    totals[sku],
			AvgMonthly:   totals[sku].Div(monthsDec).Round(2),
			BySource:     bySource[sku],
		}
		report.Class = a.classify(report.AvgMonthly)
		reports[sku] = report
		a.writeCache(ctx, sku, months, &report)
	}

	return reports, nil
}

// classify maps an average monthly quantity onto the configured ladder
func (a *Aggregator) classify(avgMonthly decimal.Decimal) VelocityClass {
	switch {
	case avgMonthly.GreaterThanOrEqual(decimal.NewFromFloat(a.cfg.HighThreshold)):
		return VelocityHigh
	case avgMonthly.GreaterThanOrEqual(decimal.NewFromFloat(a.cfg.MediumThreshold)):
		return VelocityMedium
	case avgMonthly.GreaterThanOrEqual(decimal.NewFromFloat(a.cfg.LowThreshold)):
		return VelocityLow
	default:
		return VelocityVeryLow
	}
}

func velocityCacheKey(sku string, months int) string {
	return fmt.Sprintf("%s:%d", sku, months)
}

func (a *Aggregator) readCache(ctx context.Context, sku string, months int) (*VelocityReport, bool) {
	if a.cache == nil {
		return nil, false
	}
	payload, ok, err := a.cache.Get(ctx, velocityCacheKey(sku, months))
	if err != nil {
		a.logger.Warn("velocity cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var report VelocityReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false
	}
	return &report, true
}

func (a *Aggregator) writeCache(ctx context.Context, sku string, months int, report *VelocityReport) {
	if a.cache == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, velocityCacheKey(sku, months), payload, a.cfg.CacheTTL); err != nil {
		a.logger.Warn("velocity cache write failed", zap.Error(err))
	}
}
