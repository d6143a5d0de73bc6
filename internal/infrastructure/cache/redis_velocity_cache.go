package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisVelocityCache implements VelocityCache using Redis. Suitable for
// deployments running more than one instance.
type RedisVelocityCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisVelocityCache creates a new Redis-backed velocity cache
func NewRedisVelocityCache(cfg RedisConfig) (*RedisVelocityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisVelocityCache{
		client:    client,
		keyPrefix: "advisor:velocity:",
	}, nil
}

// NewRedisVelocityCacheWithClient creates a cache with an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisVelocityCacheWithClient(client *redis.Client, keyPrefix string) *RedisVelocityCache {
	if keyPrefix == "" {
		keyPrefix = "advisor:velocity:"
	}
	return &RedisVelocityCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached payload for the key
func (c *RedisVelocityCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read velocity cache: %w", err)
	}
	return payload, true, nil
}

// Set stores the payload under the key with the given TTL
func (c *RedisVelocityCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write velocity cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisVelocityCache) Close() error {
	return c.client.Close()
}

// Ensure RedisVelocityCache implements VelocityCache
var _ VelocityCache = (*RedisVelocityCache)(nil)
