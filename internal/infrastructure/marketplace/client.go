package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed API response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// RetryPolicy controls how transient failures are retried
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// HTTPClient implements marketplace.Client against the seller API. Every call
// acquires the (account, endpoint class) token bucket before going out, and
// transient failures are retried with exponential backoff inside FetchPage so
// callers only see the final outcome.
type HTTPClient struct {
	accounts   map[marketplace.AccountType]config.AccountConfig
	limiters   *LimiterRegistry
	httpClient *http.Client
	retry      RetryPolicy
	logger     *zap.Logger
}

// NewHTTPClient creates an HTTPClient from the sync configuration
func NewHTTPClient(cfg *config.SyncConfig, logger *zap.Logger) *HTTPClient {
	accounts := map[marketplace.AccountType]config.AccountConfig{
		marketplace.AccountTypeMain: cfg.Main,
		marketplace.AccountTypeFBE:  cfg.FBE,
	}
	rates := make(map[marketplace.AccountType]LimiterRates, len(accounts))
	for account, acct := range accounts {
		rates[account] = LimiterRates{
			CatalogRPS: acct.CatalogRPS,
			OrderRPS:   acct.OrderRPS,
			Burst:      acct.Burst,
		}
	}
	return &HTTPClient{
		accounts: accounts,
		limiters: NewLimiterRegistry(rates),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		retry: RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
		logger: logger,
	}
}

// FetchPage fetches one page of the requested resource
func (c *HTTPClient) FetchPage(ctx context.Context, req marketplace.PageRequest) (*marketplace.Page, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	acct, ok := c.accounts[req.Account]
	if !ok || acct.BaseURL == "" {
		return nil, fmt.Errorf("%w: %s", marketplace.ErrAccountNotConfigured, req.Account)
	}

	class := req.Resource.EndpointClass()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retry.BaseDelay
	maxRetries := uint64(0)
	if c.retry.MaxAttempts > 1 {
		maxRetries = uint64(c.retry.MaxAttempts - 1)
	}
	policy := backoff.WithMaxRetries(backoff.WithContext(expo, ctx), maxRetries)

	var page *marketplace.Page
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiters.Acquire(ctx, req.Account, class); err != nil {
			return backoff.Permanent(err)
		}

		start := time.Now()
		fetched, err := c.fetchOnce(ctx, acct, req)
		latency := time.Since(start)

		fields := []zap.Field{
			zap.String("account", req.Account.String()),
			zap.String("endpoint_class", class.String()),
			zap.String("resource", req.Resource.String()),
			zap.Int("page", req.Page),
			zap.Int("attempt", attempt),
			zap.Duration("latency", latency),
		}
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if errors.Is(err, marketplace.ErrTransient) || errors.Is(err, marketplace.ErrRateLimited) {
				c.logger.Warn("marketplace fetch failed, will retry", append(fields, zap.Error(err))...)
				return err
			}
			c.logger.Error("marketplace fetch failed", append(fields, zap.Error(err))...)
			return backoff.Permanent(err)
		}

		c.logger.Debug("marketplace fetch completed", append(fields, zap.Int("records", fetched.Size()))...)
		page = fetched
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *HTTPClient) fetchOnce(ctx context.Context, acct config.AccountConfig, req marketplace.PageRequest) (*marketplace.Page, error) {
	body := readRequest{
		CurrentPage:  req.Page,
		ItemsPerPage: req.PageSize,
	}
	if req.ModifiedSince != nil {
		body.ModifiedAfter = req.ModifiedSince.Format(apiTimeFormat)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", marketplace.ErrFatal, err)
	}

	endpoint := strings.TrimRight(acct.BaseURL, "/") + "/" + req.Resource.String() + "/read"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", marketplace.ErrFatal, err)
	}
	httpReq.SetBasicAuth(acct.Username, acct.Password)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrTransient, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", marketplace.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP 429", marketplace.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrTransient, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrFatal, resp.StatusCode)
	}

	return decodePage(req, respBody)
}

func decodePage(req marketplace.PageRequest, body []byte) (*marketplace.Page, error) {
	if req.Resource == marketplace.ResourceKindOrders {
		var envelope orderEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("%w: failed to parse response: %v", marketplace.ErrInvalidResponse, err)
		}
		if envelope.IsError {
			return nil, fmt.Errorf("%w: %s", marketplace.ErrFatal, envelope.errorText())
		}
		page := &marketplace.Page{
			Number:     req.Page,
			Orders:     make([]marketplace.OrderRecord, 0, len(envelope.Results)),
			TotalCount: envelope.TotalCount,
		}
		for i := range envelope.Results {
			page.Orders = append(page.Orders, envelope.Results[i].toDomain())
		}
		return page, nil
	}

	var envelope catalogEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", marketplace.ErrInvalidResponse, err)
	}
	if envelope.IsError {
		return nil, fmt.Errorf("%w: %s", marketplace.ErrFatal, envelope.errorText())
	}
	page := &marketplace.Page{
		Number:       req.Page,
		CatalogItems: make([]marketplace.CatalogRecord, 0, len(envelope.Results)),
		TotalCount:   envelope.TotalCount,
	}
	for i := range envelope.Results {
		page.CatalogItems = append(page.CatalogItems, envelope.Results[i].toDomain())
	}
	return page, nil
}

// Ensure HTTPClient implements the marketplace client port
var _ marketplace.Client = (*HTTPClient)(nil)
