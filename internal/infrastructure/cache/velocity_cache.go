package cache

import (
	"context"
	"time"
)

// VelocityCache stores computed sales velocity reports keyed by product and
// window so repeated advisor calls within the TTL skip the three source
// queries. Payloads are opaque serialized bytes; the advisor owns the schema.
type VelocityCache interface {
	// Get returns the cached payload and true when the key is present and
	// not expired
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the payload under the key with the given TTL
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}
