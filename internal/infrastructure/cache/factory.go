package cache

import (
	"go.uber.org/zap"

	"github.com/sellerdesk/backend/internal/infrastructure/config"
)

// NewVelocityCache creates a velocity cache based on configuration. When
// Redis is enabled and reachable the cache is shared across instances;
// otherwise it falls back to a process-local one with a warning.
func NewVelocityCache(cfg config.RedisConfig, logger *zap.Logger) VelocityCache {
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-memory velocity cache")
		return NewInMemoryVelocityCache()
	}

	store, err := NewRedisVelocityCache(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory velocity cache",
			zap.Error(err),
		)
		return NewInMemoryVelocityCache()
	}

	logger.Info("using redis velocity cache")
	return store
}
