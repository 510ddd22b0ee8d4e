package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bva/backend/internal/infrastructure/mlservice"
)

func sampleStrategy(shopID uuid.UUID) *mlservice.StrategyResponse {
	return &mlservice.StrategyResponse{
		Strategy: mlservice.GoalProfit,
		ShopID:   shopID.String(),
		Budget:   5000,
		Items: []mlservice.StrategyItem{
			{ProductID: "p-1", Name: "Widget", Qty: 10, UnitCost: 40, TotalCost: 400},
		},
		Totals: &mlservice.StrategyTotals{TotalItems: 1, TotalQty: 10, TotalCost: 400},
	}
}

func TestInMemoryStrategyCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryStrategyCache(time.Minute)
	shopID := uuid.New()
	key := shopID.String() + ":abc"

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, sampleStrategy(shopID))

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, shopID.String(), got.ShopID)
	assert.Len(t, got.Items, 1)
}

func TestInMemoryStrategyCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryStrategyCache(time.Minute)
	shopID := uuid.New()
	key := shopID.String() + ":abc"

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set(ctx, key, sampleStrategy(shopID))

	_, ok := c.Get(ctx, key)
	require.True(t, ok)

	// Past the TTL the entry is gone and pruned
	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestInMemoryStrategyCache_InvalidateShop(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryStrategyCache(time.Minute)
	shopA := uuid.New()
	shopB := uuid.New()

	c.Set(ctx, shopA.String()+":k1", sampleStrategy(shopA))
	c.Set(ctx, shopA.String()+":k2", sampleStrategy(shopA))
	c.Set(ctx, shopB.String()+":k1", sampleStrategy(shopB))

	c.InvalidateShop(ctx, shopA)

	_, ok := c.Get(ctx, shopA.String()+":k1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, shopA.String()+":k2")
	assert.False(t, ok)
	_, ok = c.Get(ctx, shopB.String()+":k1")
	assert.True(t, ok)
}

func TestInMemoryStrategyCache_DefaultTTL(t *testing.T) {
	c := NewInMemoryStrategyCache(0)
	assert.Equal(t, 5*time.Minute, c.ttl)
}

func TestStrategyKey(t *testing.T) {
	shopID := uuid.New()
	req := &mlservice.StrategyRequest{
		ShopID: shopID.String(),
		Budget: 5000,
		Goal:   mlservice.GoalBalanced,
		Products: []mlservice.ProductInput{
			{ProductID: "p-1", Name: "Widget", Price: 100, Cost: 40, Stock: 3},
		},
		RestockDays: 14,
	}

	k1 := StrategyKey(shopID, req)
	k2 := StrategyKey(shopID, req)
	assert.Equal(t, k1, k2)
	assert.Contains(t, k1, shopID.String()+":")

	// Changing any input changes the key
	other := *req
	other.Budget = 6000
	assert.NotEqual(t, k1, StrategyKey(shopID, &other))
}
