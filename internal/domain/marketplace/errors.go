package marketplace

import "errors"

// Error taxonomy for outbound marketplace calls. The client classifies every
// failure into exactly one of these so callers can branch with errors.Is.
var (
	// ErrTransient indicates a retryable upstream failure (5xx, timeout,
	// connection reset). Surfaced only after the client exhausts its retries.
	ErrTransient = errors.New("marketplace: transient upstream failure")

	// ErrFatal indicates a non-retryable failure (bad credentials, malformed
	// request, 4xx other than 429). Surfaced immediately, never retried.
	ErrFatal = errors.New("marketplace: fatal request failure")

	// ErrRateLimited indicates the per-account request budget is exhausted.
	// The client normally absorbs this by blocking on the token bucket; it
	// surfaces only when the context is cancelled while waiting.
	ErrRateLimited = errors.New("marketplace: rate limited")

	// ErrInvalidResponse indicates the upstream payload could not be decoded
	ErrInvalidResponse = errors.New("marketplace: invalid response payload")

	// ErrAccountNotConfigured indicates no credentials exist for the account
	ErrAccountNotConfigured = errors.New("marketplace: account not configured")
)
