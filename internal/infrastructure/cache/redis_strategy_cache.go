package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	infraconfig "github.com/bva/backend/internal/infrastructure/config"
	"github.com/bva/backend/internal/infrastructure/mlservice"
)

const strategyKeyPrefix = "restock:strategy:"

// RedisStrategyCache implements StrategyCache using Redis. It is suitable
// for distributed deployments where multiple instances share cached
// strategies.
type RedisStrategyCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisStrategyCache creates a Redis-backed strategy cache and verifies
// the connection.
func NewRedisStrategyCache(cfg infraconfig.RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisStrategyCache, error) {
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

	return NewRedisStrategyCacheWithClient(client, ttl, logger), nil
}

// NewRedisStrategyCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisStrategyCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStrategyCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStrategyCache{
		client:    client,
		keyPrefix: strategyKeyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

// Get returns the cached strategy for the key. Redis errors and decode
// failures are logged and reported as a miss.
func (c *RedisStrategyCache) Get(ctx context.Context, key string) (*mlservice.StrategyResponse, bool) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Strategy cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var strategy mlservice.StrategyResponse
	if err := json.Unmarshal(raw, &strategy); err != nil {
		c.logger.Warn("Strategy cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return &strategy, true
}

// Set stores a strategy under the key. Redis errors are logged and
// swallowed.
func (c *RedisStrategyCache) Set(ctx context.Context, key string, strategy *mlservice.StrategyResponse) {
	raw, err := json.Marshal(strategy)
	if err != nil {
		c.logger.Warn("Strategy cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, c.keyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Strategy cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateShop removes every cached strategy for the shop.
func (c *RedisStrategyCache) InvalidateShop(ctx context.Context, shopID uuid.UUID) {
	pattern := c.keyPrefix + shopID.String() + ":*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("Strategy cache delete failed", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Strategy cache scan failed", zap.String("shop_id", shopID.String()), zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisStrategyCache) Close() error {
	return c.client.Close()
}

// Ensure RedisStrategyCache implements StrategyCache
var _ StrategyCache = (*RedisStrategyCache)(nil)
