package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

// unreachableClient points at a closed port so every command fails fast.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisStrategyCache_DegradesToMissWhenRedisDown(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	c := NewRedisStrategyCacheWithClient(client, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()
	shopID := uuid.New()
	key := shopID.String() + ":abc"

	// Reads report a miss instead of an error
	got, ok := c.Get(ctx, key)
	assert.False(t, ok)
	assert.Nil(t, got)

	// Writes and invalidation do not panic or propagate errors
	c.Set(ctx, key, sampleStrategy(shopID))
	c.InvalidateShop(ctx, shopID)
}

func TestNewRedisStrategyCacheWithClient_Defaults(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	c := NewRedisStrategyCacheWithClient(client, 0, nil)
	assert.Equal(t, 5*time.Minute, c.ttl)
	assert.NotNil(t, c.logger)
	assert.Equal(t, strategyKeyPrefix, c.keyPrefix)
}
