package advisor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sellerdesk/backend/internal/domain/sales"
	"github.com/sellerdesk/backend/internal/infrastructure/cache"
	"github.com/sellerdesk/backend/internal/infrastructure/config"
)

// stubSource is a scripted sales source
type stubSource struct {
	kind      sales.SourceKind
	available bool
	sold      map[string]decimal.Decimal
	err       error
}

func (s *stubSource) Kind() sales.SourceKind { return s.kind }
func (s *stubSource) Available() bool        { return s.available }
func (s *stubSource) SoldSince(_ context.Context, skus []string, _ time.Time) (map[string]decimal.Decimal, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make(map[string]decimal.Decimal, len(skus))
	for _, sku := range skus {
		if qty, ok := s.sold[sku]; ok {
			result[sku] = qty
		}
	}
	return result, nil
}

func testAdvisorConfig() *config.AdvisorConfig {
	return &config.AdvisorConfig{
		WindowMonths:    6,
		HighThreshold:   10,
		MediumThreshold: 5,
		LowThreshold:    1,
		CacheTTL:        time.Minute,
	}
}

func TestAggregator_SumsAcrossSources(t *testing.T) {
	sources := []sales.Source{
		&stubSource{kind: sales.SourceMarketplaceOrders, available: true, sold: map[string]decimal.Decimal{"SKU-1": decimal.NewFromInt(3)}},
		&stubSource{kind: sales.SourceSalesOrders, available: true, sold: map[string]decimal.Decimal{"SKU-1": decimal.NewFromInt(2)}},
		&stubSource{kind: sales.SourceInternalOrders, available: true, sold: map[string]decimal.Decimal{"SKU-1": decimal.NewFromInt(1)}},
	}
	agg := NewAggregator(sources, nil, testAdvisorConfig(), zap.NewNop())

	reports, err := agg.SoldLastNMonths(context.Background(), []string{"SKU-1"}, 6)
	require.NoError(t, err)
	report := reports["SKU-1"]

	assert.True(t, report.TotalSold.Equal(decimal.NewFromInt(6)), "got %s", report.TotalSold)
	assert.Equal(t, "1", report.AvgMonthly.String())
	assert.Equal(t, VelocityLow, report.Class)
	assert.Equal(t, 6, report.WindowMonths)
	require.Len(t, report.BySource, 3)
	assert.True(t, report.BySource["marketplace_orders"].Equal(decimal.NewFromInt(3)))
}

func TestAggregator_UnavailableSourceContributesZero(t *testing.T) {
	sources := []sales.Source{
		&stubSource{kind: sales.SourceMarketplaceOrders, available: true, sold: map[string]decimal.Decimal{"SKU-1": decimal.NewFromInt(4)}},
		&stubSource{kind: sales.SourceSalesOrders, available: false},
	}
	agg := NewAggregator(sources, nil, testAdvisorConfig(), zap.NewNop())

	reports, err := agg.SoldLastNMonths(context.Background(), []string{"SKU-1"}, 6)
	require.NoError(t, err)
	report := reports["SKU-1"]

	assert.True(t, report.TotalSold.Equal(decimal.NewFromInt(4)))
	assert.True(t, report.BySource["sales_orders"].IsZero())
}

func TestAggregator_SourceErrorEscalates(t *testing.T) {
	sources := []sales.Source{
		&stubSource{kind: sales.SourceMarketplaceOrders, available: true, err: fmt.Errorf("query failed")},
	}
	agg := NewAggregator(sources, nil, testAdvisorConfig(), zap.NewNop())

	_, err := agg.SoldLastNMonths(context.Background(), []string{"SKU-1"}, 6)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marketplace_orders")
}

func TestAggregator_Classification(t *testing.T) {
	cases := []struct {
		total int64
		class VelocityClass
	}{
		{total: 12, class: VelocityHigh},
		{total: 10, class: VelocityHigh},
		{total: 6, class: VelocityMedium},
		{total: 2, class: VelocityLow},
		{total: 0, class: VelocityVeryLow},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d per month", tc.total), func(t *testing.T) {
			sources := []sales.Source{
				&stubSource{kind: sales.SourceMarketplaceOrders, available: true,
					sold: map[string]decimal.Decimal{"SKU-1": decimal.NewFromInt(tc.total)}},
			}
			agg := NewAggregator(sources, nil, testAdvisorConfig(), zap.NewNop())

			reports, err := agg.SoldLastNMonths(context.Background(), []string{"SKU-1"}, 1)
			require.NoError(t, err)
			assert.Equal(t, tc.class, reports["SKU-1"].Class)
		})
	}
}

func TestAggregator_ZeroMonthsFallsBackToWindow(t *testing.T) {
	sources := []sales.Source{
		&stubSource{kind: sales.SourceMarketplaceOrders, available: true,
			sold: map[string]decimal.Decimal{"SKU-1": decimal.NewFromInt(2)}},
	}
	agg := NewAggregator(sources, nil, testAdvisorConfig(), zap.NewNop())

	reports, err := agg.SoldLastNMonths(context.Background(), []string{"SKU-1"}, 0)
	require.NoError(t, err)
	report := reports["SKU-1"]
	assert.Equal(t, 6, report.WindowMonths)
	assert.Equal(t, "0.33", report.AvgMonthly.String())
	assert.Equal(t, VelocityVeryLow, report.Class)
}

func TestAggregator_CachesComputedReports(t *testing.T) {
	source := &stubSource{kind: sales.SourceMarketplaceOrders, available: true,
		sold: map[string]decimal.Decimal{"SKU-1": decimal.NewFromInt(6)}}
	agg := NewAggregator([]sales.Source{source}, cache.NewInMemoryVelocityCache(), testAdvisorConfig(), zap.NewNop())
	ctx := context.Background()

	first, err := agg.SoldLastNMonths(ctx, []string{"SKU-1"}, 6)
	require.NoError(t, err)

	// a change in the underlying data is not visible within the TTL
	source.sold["SKU-1"] = decimal.NewFromInt(60)
	second, err := agg.SoldLastNMonths(ctx, []string{"SKU-1"}, 6)
	require.NoError(t, err)
	assert.True(t, second["SKU-1"].TotalSold.Equal(first["SKU-1"].TotalSold))

	// a different window is a different cache key
	other, err := agg.SoldLastNMonths(ctx, []string{"SKU-1"}, 3)
	require.NoError(t, err)
	assert.True(t, other["SKU-1"].TotalSold.Equal(decimal.NewFromInt(60)))
}
