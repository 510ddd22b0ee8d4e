// Package cache provides caching for computed restock strategies so that
// repeated requests with the same inputs do not hit the ML service again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bva/backend/internal/infrastructure/mlservice"
)

// StrategyCache stores computed restock strategies keyed by shop and
// request fingerprint. Implementations must degrade gracefully: a cache
// failure is a miss, never an error surfaced to the caller.
type StrategyCache interface {
	// Get returns a cached strategy and whether it was present.
	Get(ctx context.Context, key string) (*mlservice.StrategyResponse, bool)

	// Set stores a strategy under the key for the cache's TTL.
	Set(ctx context.Context, key string, strategy *mlservice.StrategyResponse)

	// InvalidateShop drops all cached strategies for a shop.
	InvalidateShop(ctx context.Context, shopID uuid.UUID)
}

// StrategyKey builds a cache key from the shop and a fingerprint of the
// request. Two identical requests for the same shop share a key.
func StrategyKey(shopID uuid.UUID, req *mlservice.StrategyRequest) string {
	payload, err := json.Marshal(req)
	if err != nil {
		// Marshal of the request struct cannot fail; fall back to a
		// per-shop key so at worst entries collide within the shop.
		return fmt.Sprintf("%s:unhashed", shopID)
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s:%s", shopID, hex.EncodeToString(sum[:16]))
}
