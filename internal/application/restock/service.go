// Package restock orchestrates restock strategy computation: it snapshots
// the shop's catalog and recent sales, shapes them into the ML service's
// contract, and caches the returned strategy.
package restock

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/infrastructure/cache"
	"github.com/bva/backend/internal/infrastructure/mlservice"
	"github.com/bva/backend/internal/infrastructure/telemetry"
)

// salesWindow is how far back the demand signal reaches
const salesWindow = 90 * 24 * time.Hour

var (
	ErrInvalidBudget      = errors.New("restock: budget must be positive")
	ErrInvalidGoal        = errors.New("restock: goal must be profit, volume, or balanced")
	ErrInvalidRestockDays = errors.New("restock: restock days must be positive")
	ErrNoEligibleProducts = errors.New("restock: no products with positive price and cost")
)

// PlanRequest is a restock strategy request from the API layer
type PlanRequest struct {
	ShopID      uuid.UUID
	Budget      decimal.Decimal
	Goal        string
	RestockDays int
	// IsPayday and UpcomingHoliday are demand context hints forwarded to the
	// optimizer untouched
	IsPayday        bool
	UpcomingHoliday string
}

// StrategyClient is the slice of the ML service client this service needs
type StrategyClient interface {
	ComputeStrategy(ctx context.Context, req mlservice.StrategyRequest) (*mlservice.StrategyResponse, error)
	Health(ctx context.Context) (*mlservice.HealthResponse, error)
}

// Service computes restock plans against the external optimizer
type Service struct {
	products   commerce.ProductRepository
	sales      commerce.SaleRepository
	ml         StrategyClient
	strategies cache.StrategyCache
	logger     *zap.Logger

	now func() time.Time
}

// NewService creates a restock Service
func NewService(
	products commerce.ProductRepository,
	sales commerce.SaleRepository,
	ml StrategyClient,
	strategies cache.StrategyCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		products:   products,
		sales:      sales,
		ml:         ml,
		strategies: strategies,
		logger:     logger,
		now:        time.Now,
	}
}

// ComputeRestockPlan validates the request, shapes the shop's catalog and
// 90-day sales history into the optimizer contract, and returns the computed
// strategy. Results are cached per request; a cache failure falls through to
// a direct call. Transport and upstream errors surface the service's own
// error body and are never retried here.
func (s *Service) ComputeRestockPlan(ctx context.Context, req PlanRequest) (*mlservice.StrategyResponse, error) {
	goal := mlservice.Goal(req.Goal)
	if !goal.IsValid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidGoal, req.Goal)
	}
	if req.Budget.Sign() <= 0 {
		return nil, ErrInvalidBudget
	}
	if req.RestockDays <= 0 {
		return nil, ErrInvalidRestockDays
	}

	inputs, err := s.buildProductInputs(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrNoEligibleProducts
	}

	mlReq := mlservice.StrategyRequest{
		ShopID:          req.ShopID.String(),
		Budget:          req.Budget.InexactFloat64(),
		Goal:            goal,
		Products:        inputs,
		RestockDays:     req.RestockDays,
		IsPayday:        req.IsPayday,
		UpcomingHoliday: req.UpcomingHoliday,
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "restock", "compute_strategy",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, req.ShopID.String()),
		telemetry.WithAttribute("goal", string(goal)),
	)
	defer span.End()

	key := cache.StrategyKey(req.ShopID, &mlReq)
	if cached, ok := s.strategies.Get(ctx, key); ok {
		telemetry.AddEvent(span, "strategy_cache_hit")
		s.logger.Debug("restock strategy served from cache",
			zap.String("shopId", req.ShopID.String()))
		return cached, nil
	}

	strategy, err := s.ml.ComputeStrategy(ctx, mlReq)
	if err != nil {
		err = fmt.Errorf("restock: compute strategy: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.strategies.Set(ctx, key, strategy)

	s.logger.Info("restock strategy computed",
		zap.String("shopId", req.ShopID.String()),
		zap.String("goal", string(goal)),
		zap.Int("items", len(strategy.Items)))
	return strategy, nil
}

// Health proxies the ML service's health check
func (s *Service) Health(ctx context.Context) (*mlservice.HealthResponse, error) {
	return s.ml.Health(ctx)
}

// ---------------------------------------------------------------------------
// Input shaping
// ---------------------------------------------------------------------------

// buildProductInputs snapshots the catalog, joins the 90-day sales window,
// and drops products the optimizer would reject.
func (s *Service) buildProductInputs(ctx context.Context, shopID uuid.UUID) ([]mlservice.ProductInput, error) {
	products, err := s.products.FindByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}

	sales, err := s.sales.FindByShopSince(ctx, shopID, s.now().Add(-salesWindow))
	if err != nil {
		return nil, err
	}
	demand := dailyDemand(products, sales)

	inputs := make([]mlservice.ProductInput, 0, len(products))
	for i := range products {
		p := &products[i]
		if !p.HasPositiveEconomics() {
			continue
		}

		avgDaily, sold := demand[p.ID]
		if len(sales) == 0 && !sold {
			// No sales history at all. Feed the optimizer a small
			// deterministic demo series instead of an empty signal so a
			// fresh shop still gets a usable plan.
			avgDaily = demoDailySales(p.ID)
		}

		inputs = append(inputs, mlservice.ProductInput{
			ProductID:     p.ID.String(),
			Name:          p.Name,
			Price:         p.Price.InexactFloat64(),
			Cost:          p.Cost.InexactFloat64(),
			Stock:         p.Stock,
			Category:      p.Category,
			AvgDailySales: avgDaily.InexactFloat64(),
			ProfitMargin:  p.ProfitMargin().InexactFloat64(),
			MinOrderQty:   1,
		})
	}
	return inputs, nil
}

// dailyDemand averages each product's sold quantity over the sales window.
// Sale lines resolve to a product by local ID when the reconciler linked
// them, falling back to the remote external ID.
func dailyDemand(products []commerce.Product, sales []commerce.Sale) map[uuid.UUID]decimal.Decimal {
	byExternalID := make(map[string]uuid.UUID, len(products))
	for i := range products {
		if products[i].ExternalID != "" {
			byExternalID[products[i].ExternalID] = products[i].ID
		}
	}

	quantities := make(map[uuid.UUID]int64)
	for i := range sales {
		for _, item := range sales[i].Items {
			var productID uuid.UUID
			switch {
			case item.ProductID != nil:
				productID = *item.ProductID
			case item.ExternalProductID != "":
				id, ok := byExternalID[item.ExternalProductID]
				if !ok {
					continue
				}
				productID = id
			default:
				continue
			}
			quantities[productID] += int64(item.Quantity)
		}
	}

	windowDays := decimal.NewFromInt(int64(salesWindow / (24 * time.Hour)))
	demand := make(map[uuid.UUID]decimal.Decimal, len(quantities))
	for id, qty := range quantities {
		demand[id] = decimal.NewFromInt(qty).Div(windowDays)
	}
	return demand
}

// demoDailySales derives a stable pseudo-demand in [0.5, 3.4] units/day from
// the product ID, so repeated calls for the same catalog produce the same
// plan.
func demoDailySales(productID uuid.UUID) decimal.Decimal {
	h := fnv.New32a()
	h.Write(productID[:])
	step := int64(h.Sum32() % 30)
	return decimal.NewFromFloat(0.5).Add(decimal.NewFromInt(step).Div(decimal.NewFromInt(10)))
}
