package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bva/backend/internal/infrastructure/mlservice"
)

// strategyEntry holds a cached strategy with its expiration
type strategyEntry struct {
	strategy  *mlservice.StrategyResponse
	expiresAt time.Time
}

// InMemoryStrategyCache implements StrategyCache using an in-memory map.
// Suitable for single-instance deployments and testing. Expired entries
// are pruned lazily on access.
type InMemoryStrategyCache struct {
	mu      sync.RWMutex
	entries map[string]strategyEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryStrategyCache creates a new in-memory strategy cache
func NewInMemoryStrategyCache(ttl time.Duration) *InMemoryStrategyCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InMemoryStrategyCache{
		entries: make(map[string]strategyEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached strategy for the key
func (c *InMemoryStrategyCache) Get(ctx context.Context, key string) (*mlservice.StrategyResponse, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.strategy, true
}

// Set stores a strategy under the key
func (c *InMemoryStrategyCache) Set(ctx context.Context, key string, strategy *mlservice.StrategyResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = strategyEntry{
		strategy:  strategy,
		expiresAt: c.now().Add(c.ttl),
	}
}

// InvalidateShop removes every cached strategy for the shop
func (c *InMemoryStrategyCache) InvalidateShop(ctx context.Context, shopID uuid.UUID) {
	prefix := shopID.String() + ":"

	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of live entries (for testing/monitoring)
func (c *InMemoryStrategyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryStrategyCache implements StrategyCache
var _ StrategyCache = (*InMemoryStrategyCache)(nil)
