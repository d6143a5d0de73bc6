package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryVelocityCache implements VelocityCache with a process-local map.
// Suitable for single-instance deployments and testing.
//
// Thread Safety: safe for concurrent use.
type InMemoryVelocityCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
}

type inMemoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewInMemoryVelocityCache creates a new in-memory velocity cache
func NewInMemoryVelocityCache() *InMemoryVelocityCache {
	return &InMemoryVelocityCache{
		entries: make(map[string]inMemoryEntry),
	}
}

// Get returns the cached payload for the key
func (c *InMemoryVelocityCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.payload, true, nil
}

// Set stores the payload under the key with the given TTL
func (c *InMemoryVelocityCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = inMemoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Ensure InMemoryVelocityCache implements VelocityCache
var _ VelocityCache = (*InMemoryVelocityCache)(nil)
