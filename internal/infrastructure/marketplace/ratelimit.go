package marketplace

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
)

// LimiterRegistry holds one token bucket per (account, endpoint class) pair.
// Catalog and order endpoints carry separate request budgets on the upstream
// API, so sharing a bucket across classes would starve the cheaper one.
//
// Thread Safety: the map is built once at construction and never mutated, so
// reads need no locking; rate.Limiter itself is safe for concurrent use.
type LimiterRegistry struct {
	limiters map[string]*rate.Limiter
}

// LimiterRates holds the request budget for one account
type LimiterRates struct {
	CatalogRPS float64
	OrderRPS   float64
	Burst      int
}

// NewLimiterRegistry builds the registry from per-account budgets
func NewLimiterRegistry(rates map[marketplace.AccountType]LimiterRates) *LimiterRegistry {
	limiters := make(map[string]*rate.Limiter, len(rates)*2)
	for account, r := range rates {
		burst := r.Burst
		if burst <= 0 {
			burst = 1
		}
		limiters[limiterKey(account, marketplace.EndpointClassCatalog)] = rate.NewLimiter(rate.Limit(r.CatalogRPS), burst)
		limiters[limiterKey(account, marketplace.EndpointClassOrders)] = rate.NewLimiter(rate.Limit(r.OrderRPS), burst)
	}
	return &LimiterRegistry{limiters: limiters}
}

// Acquire blocks until a request slot is available for the pair or the
// context is cancelled
func (r *LimiterRegistry) Acquire(ctx context.Context, account marketplace.AccountType, class marketplace.EndpointClass) error {
	limiter, ok := r.limiters[limiterKey(account, class)]
	if !ok {
		return fmt.Errorf("%w: no rate limiter for account %s", marketplace.ErrAccountNotConfigured, account)
	}
	return limiter.Wait(ctx)
}

func limiterKey(account marketplace.AccountType, class marketplace.EndpointClass) string {
	return string(account) + "/" + string(class)
}
