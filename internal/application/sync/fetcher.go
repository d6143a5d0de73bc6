package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
)

// maxConsecutivePageFailures aborts the loop once this many pages in a row
// fail after the client's own retries are exhausted
const maxConsecutivePageFailures = 3

// StopReason records why the fetch loop ended
type StopReason string

const (
	StopEndOfData      StopReason = "end_of_data"
	StopPageCap        StopReason = "page_cap"
	StopCancelled      StopReason = "cancelled"
	StopErrorThreshold StopReason = "error_threshold"
	StopFatal          StopReason = "fatal"
)

// FetchParams describes one bounded fetch loop over a paginated resource
type FetchParams struct {
	Account       marketplace.AccountType
	Resource      marketplace.ResourceKind
	PageSize      int
	PageCap       int
	ModifiedSince *time.Time
}

// PageConsumer handles one successfully fetched page. Returning an error
// aborts the loop.
type PageConsumer func(ctx context.Context, page *marketplace.Page) error

// FetchResult summarizes a finished fetch loop
type FetchResult struct {
	PagesFetched int
	Stopped      StopReason
}

// PaginatedFetcher drives a sequential page loop over one account's resource.
// It stops on end-of-data (empty or short page), the page cap, context
// cancellation between pages, a fatal error, or too many consecutive page
// failures.
type PaginatedFetcher struct {
	client marketplace.Client
	logger *zap.Logger
}

// NewPaginatedFetcher creates a new PaginatedFetcher
func NewPaginatedFetcher(client marketplace.Client, logger *zap.Logger) *PaginatedFetcher {
	return &PaginatedFetcher{client: client, logger: logger}
}

// Fetch runs the page loop, handing every fetched page to consume
func (f *PaginatedFetcher) Fetch(ctx context.Context, params FetchParams, consume PageConsumer) (*FetchResult, error) {
	result := &FetchResult{}
	consecutiveFailures := 0

	page := 1
	for {
		if params.PageCap > 0 && page > params.PageCap {
			result.Stopped = StopPageCap
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			result.Stopped = StopCancelled
			return result, err
		}

		fetched, err := f.client.FetchPage(ctx, marketplace.PageRequest{
			Account:       params.Account,
			Resource:      params.Resource,
			Page:          page,
			PageSize:      params.PageSize,
			ModifiedSince: params.ModifiedSince,
		})
		if err != nil {
			if ctx.Err() != nil {
				result.Stopped = StopCancelled
				return result, ctx.Err()
			}
			if errors.Is(err, marketplace.ErrFatal) ||
				errors.Is(err, marketplace.ErrInvalidResponse) ||
				errors.Is(err, marketplace.ErrAccountNotConfigured) {
				result.Stopped = StopFatal
				return result, err
			}
			consecutiveFailures++
			f.logger.Warn("page fetch failed",
				zap.String("account", params.Account.String()),
				zap.String("resource", params.Resource.String()),
				zap.Int("page", page),
				zap.Int("consecutive_failures", consecutiveFailures),
				zap.Error(err),
			)
			if consecutiveFailures >= maxConsecutivePageFailures {
				result.Stopped = StopErrorThreshold
				return result, fmt.Errorf("aborting after %d consecutive page failures: %w", consecutiveFailures, err)
			}
			// re-request the same page so its records are not lost
			continue
		}
		consecutiveFailures = 0

		if fetched.Size() == 0 {
			result.Stopped = StopEndOfData
			return result, nil
		}

		if err := consume(ctx, fetched); err != nil {
			result.Stopped = StopCancelled
			return result, err
		}
		result.PagesFetched++

		// A short page is the last page
		if fetched.Size() < params.PageSize {
			result.Stopped = StopEndOfData
			return result, nil
		}
		page++
	}
}
