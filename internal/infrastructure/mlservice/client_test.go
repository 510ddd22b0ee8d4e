package mlservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ComputeStrategy(t *testing.T) {
	t.Run("posts request and parses strategy", func(t *testing.T) {
		var gotPath string
		var gotBody StrategyRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"strategy": "profit",
				"shop_id": "shop-1",
				"budget": 1000,
				"items": [{"product_id":"p-1","name":"Widget","qty":20,"unit_cost":8,"total_cost":160,"expected_profit":240,"expected_revenue":400,"days_of_stock":14,"priority_score":0.91}],
				"totals": {"total_items":1,"total_qty":20,"total_cost":160,"budget_used_pct":16,"expected_revenue":400,"expected_profit":240,"expected_roi":150,"avg_days_of_stock":14},
				"reasoning": ["high margin, low stock"],
				"warnings": []
			}`))
		}))
		defer server.Close()

		client := NewClient(Options{BaseURL: server.URL})
		result, err := client.ComputeStrategy(context.Background(), StrategyRequest{
			ShopID:      "shop-1",
			Budget:      1000,
			Goal:        GoalProfit,
			RestockDays: 14,
			Products: []ProductInput{
				{ProductID: "p-1", Name: "Widget", Price: 20, Cost: 8, Stock: 3, AvgDailySales: 1.5, ProfitMargin: 0.6, MinOrderQty: 1},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "/api/v1/restock/strategy", gotPath)
		assert.Equal(t, "shop-1", gotBody.ShopID)
		assert.Equal(t, GoalProfit, gotBody.Goal)
		require.Len(t, result.Items, 1)
		assert.Equal(t, 20, result.Items[0].Qty)
		assert.Equal(t, 1, result.Totals.TotalItems)
		assert.Equal(t, []string{"high margin, low stock"}, result.Reasoning)
	})

	t.Run("includes service error body in failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"detail":"budget must be greater than 0"}`))
		}))
		defer server.Close()

		client := NewClient(Options{BaseURL: server.URL})
		_, err := client.ComputeStrategy(context.Background(), StrategyRequest{ShopID: "shop-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRejected)
		assert.Contains(t, err.Error(), "budget must be greater than 0")
		assert.Contains(t, err.Error(), "422")
	})

	t.Run("rejects 2xx payload without items field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"strategy":"profit","shop_id":"shop-1"}`))
		}))
		defer server.Close()

		client := NewClient(Options{BaseURL: server.URL})
		_, err := client.ComputeStrategy(context.Background(), StrategyRequest{ShopID: "shop-1"})
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("rejects 2xx payload without totals field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"strategy":"profit","shop_id":"shop-1","items":[]}`))
		}))
		defer server.Close()

		client := NewClient(Options{BaseURL: server.URL})
		_, err := client.ComputeStrategy(context.Background(), StrategyRequest{ShopID: "shop-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidResponse)
		assert.Contains(t, err.Error(), "totals")
	})

	t.Run("rejects unknown strategy label", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"strategy":"yolo","shop_id":"shop-1","items":[],"totals":{}}`))
		}))
		defer server.Close()

		client := NewClient(Options{BaseURL: server.URL})
		_, err := client.ComputeStrategy(context.Background(), StrategyRequest{ShopID: "shop-1"})
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("unreachable service maps to ErrUnavailable", func(t *testing.T) {
		client := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
		_, err := client.ComputeStrategy(context.Background(), StrategyRequest{ShopID: "shop-1"})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("accepts empty items slice", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"strategy":"balanced","shop_id":"shop-1","items":[],"totals":{},"reasoning":["nothing needs restocking"]}`))
		}))
		defer server.Close()

		client := NewClient(Options{BaseURL: server.URL})
		result, err := client.ComputeStrategy(context.Background(), StrategyRequest{ShopID: "shop-1"})
		require.NoError(t, err)
		assert.Empty(t, result.Items)
	})
}

func TestClient_Health(t *testing.T) {
	t.Run("parses healthy response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"healthy","components":{"cache":"up"}}`))
		}))
		defer server.Close()

		client := NewClient(Options{BaseURL: server.URL})
		health, err := client.Health(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "up", health.Components["cache"])
	})

	t.Run("down service maps to ErrUnavailable", func(t *testing.T) {
		client := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
		_, err := client.Health(context.Background())
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestGoal_IsValid(t *testing.T) {
	assert.True(t, GoalProfit.IsValid())
	assert.True(t, GoalVolume.IsValid())
	assert.True(t, GoalBalanced.IsValid())
	assert.False(t, Goal("yolo").IsValid())
	assert.False(t, Goal("").IsValid())
}
