package integration

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/domain/shared"
	"github.com/bva/backend/internal/infrastructure/telemetry"
)

// fallbackMargin is applied when a sale line cannot be joined to a local
// product with a known cost.
var fallbackMargin = decimal.NewFromFloat(0.20)

// saleJitterWindow is how far back synced sales are spread. Forecasting
// needs a non-degenerate time series even when the whole order history
// arrives in one sync, so each new sale gets a CreatedAt drawn uniformly
// from this trailing window. The real order time stays in OrderedAt.
const saleJitterWindow = 30 * 24 * time.Hour

// SyncService reconciles remote storefront data into the local catalog.
// Both sync operations are pure upserts: running them twice against
// unchanged remote data leaves local rows identical.
type SyncService struct {
	products commerce.ProductRepository
	sales    commerce.SaleRepository
	registry integration.StorefrontRegistry
	logger   *zap.Logger

	now    func() time.Time
	jitter func() float64
}

// NewSyncService creates a new SyncService
func NewSyncService(
	products commerce.ProductRepository,
	sales commerce.SaleRepository,
	registry integration.StorefrontRegistry,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		products: products,
		sales:    sales,
		registry: registry,
		logger:   logger,
		now:      time.Now,
		jitter:   rand.Float64,
	}
}

// ---------------------------------------------------------------------------
// Product Sync
// ---------------------------------------------------------------------------

// SyncProducts fetches the remote catalog and upserts it into the local
// product table. A failure on one product is logged and skipped; the
// returned count covers successfully reconciled products only.
func (s *SyncService) SyncProducts(ctx context.Context, shopID uuid.UUID, platform integration.PlatformCode, token string) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "integration", "sync_products",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, shopID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPlatform, platform.String()),
	)
	defer span.End()

	client, err := s.registry.GetClient(platform)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}

	remotes, err := client.FetchProducts(ctx, shopID.String(), token)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}

	count := 0
	for _, remote := range remotes {
		if remote.ExternalID == "" {
			continue
		}
		if err := s.syncProduct(ctx, shopID, platform, remote); err != nil {
			s.logger.Warn("Product sync failed for one product",
				zap.String("shop_id", shopID.String()),
				zap.String("external_id", remote.ExternalID),
				zap.Error(err),
			)
			continue
		}
		count++
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrProductCount, count)
	s.logger.Info("Product sync completed",
		zap.String("shop_id", shopID.String()),
		zap.String("platform", platform.String()),
		zap.Int("fetched", len(remotes)),
		zap.Int("synced", count),
	)

	return count, nil
}

// syncProduct reconciles one remote product through the identity ladder:
// externalID match, then SKU match, then create. A unique violation on
// create means another sync won the race; resolve again and update once.
func (s *SyncService) syncProduct(ctx context.Context, shopID uuid.UUID, platform integration.PlatformCode, remote integration.RemoteProduct) error {
	existing, err := s.resolveProduct(ctx, shopID, platform, remote)
	if err != nil && !errors.Is(err, commerce.ErrProductNotFound) {
		return err
	}
	if existing != nil {
		existing.ApplyRemote(remote)
		return s.products.Update(ctx, existing)
	}

	product := commerce.NewProductFromRemote(shopID, platform, remote)
	err = s.products.Save(ctx, product)
	if err == nil {
		return nil
	}
	if !errors.Is(err, commerce.ErrDuplicateProduct) {
		return err
	}

	// Lost an insert race; the row exists now.
	existing, err = s.resolveProduct(ctx, shopID, platform, remote)
	if err != nil {
		return err
	}
	existing.ApplyRemote(remote)
	return s.products.Update(ctx, existing)
}

// resolveProduct finds the local row for a remote product, preferring the
// externalID identity and falling back to SKU.
func (s *SyncService) resolveProduct(ctx context.Context, shopID uuid.UUID, platform integration.PlatformCode, remote integration.RemoteProduct) (*commerce.Product, error) {
	product, err := s.products.FindByExternalID(ctx, shopID, remote.ExternalID)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, commerce.ErrProductNotFound) {
		return nil, err
	}

	sku := remote.SKU
	if sku == "" {
		sku = platform.DefaultSKU(remote.ExternalID)
	}
	return s.products.FindBySKU(ctx, shopID, sku)
}

// ---------------------------------------------------------------------------
// Sales Sync
// ---------------------------------------------------------------------------

// SyncSales fetches remote orders and upserts them as local sales. Returns
// the count of successfully reconciled sales.
func (s *SyncService) SyncSales(ctx context.Context, shopID uuid.UUID, platform integration.PlatformCode, token string) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "integration", "sync_sales",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, shopID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPlatform, platform.String()),
	)
	defer span.End()

	client, err := s.registry.GetClient(platform)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}

	remotes, err := client.FetchOrders(ctx, shopID.String(), token)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}

	count := 0
	for _, remote := range remotes {
		if remote.ExternalID == "" {
			continue
		}
		if err := s.syncSale(ctx, shopID, platform, remote); err != nil {
			s.logger.Warn("Sales sync failed for one order",
				zap.String("shop_id", shopID.String()),
				zap.String("external_id", remote.ExternalID),
				zap.Error(err),
			)
			continue
		}
		count++
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrSaleCount, count)
	s.logger.Info("Sales sync completed",
		zap.String("shop_id", shopID.String()),
		zap.String("platform", platform.String()),
		zap.Int("fetched", len(remotes)),
		zap.Int("synced", count),
	)

	return count, nil
}

// syncSale reconciles one remote order. Existing sales keep their jittered
// CreatedAt; new sales get one drawn from the trailing window.
func (s *SyncService) syncSale(ctx context.Context, shopID uuid.UUID, platform integration.PlatformCode, remote integration.RemoteOrder) error {
	items, revenue, profit := s.resolveEconomics(ctx, shopID, remote)

	existing, err := s.sales.FindByExternalID(ctx, shopID, remote.ExternalID)
	if err == nil {
		existing.ApplyRemote(remote, revenue, profit, items)
		return s.sales.Update(ctx, existing)
	}
	if !errors.Is(err, commerce.ErrSaleNotFound) {
		return err
	}

	sale := s.newSale(shopID, platform, remote, items, revenue, profit)
	err = s.sales.Save(ctx, sale)
	if err == nil {
		return nil
	}
	if !errors.Is(err, commerce.ErrDuplicateSale) {
		return err
	}

	existing, err = s.sales.FindByExternalID(ctx, shopID, remote.ExternalID)
	if err != nil {
		return err
	}
	existing.ApplyRemote(remote, revenue, profit, items)
	return s.sales.Update(ctx, existing)
}

func (s *SyncService) newSale(shopID uuid.UUID, platform integration.PlatformCode, remote integration.RemoteOrder, items []commerce.SaleItem, revenue, profit decimal.Decimal) *commerce.Sale {
	sale := &commerce.Sale{
		BaseEntity:      shared.NewBaseEntity(),
		ShopID:          shopID,
		ExternalID:      remote.ExternalID,
		Platform:        platform,
		PlatformOrderID: remote.PlatformOrderID,
		Items:           items,
		Total:           remote.Total,
		Revenue:         revenue,
		Profit:          profit,
		Status:          remote.Status,
		CustomerName:    remote.CustomerName,
		CustomerPhone:   remote.CustomerPhone,
		OrderedAt:       remote.OrderedAt,
	}

	// Spread first-synced sales uniformly across the trailing window
	offset := time.Duration(s.jitter() * float64(saleJitterWindow))
	sale.CreatedAt = s.now().Add(-offset)
	return sale
}

// resolveEconomics computes revenue and profit for an order. Lines that
// join to a local product with a known positive cost use the real margin;
// everything else falls back to the flat margin. Orders without line items
// are valued at their total with the fallback margin.
func (s *SyncService) resolveEconomics(ctx context.Context, shopID uuid.UUID, remote integration.RemoteOrder) ([]commerce.SaleItem, decimal.Decimal, decimal.Decimal) {
	if len(remote.Items) == 0 {
		return nil, remote.Total, remote.Total.Mul(fallbackMargin)
	}

	items := make([]commerce.SaleItem, 0, len(remote.Items))
	revenue := decimal.Zero
	profit := decimal.Zero

	for _, line := range remote.Items {
		qty := decimal.NewFromInt(int64(line.Quantity))
		lineRevenue := line.Price.Mul(qty)
		revenue = revenue.Add(lineRevenue)

		item := commerce.SaleItem{
			ExternalProductID: line.ExternalProductID,
			Name:              line.Name,
			Quantity:          line.Quantity,
			Price:             line.Price,
		}

		lineProfit := lineRevenue.Mul(fallbackMargin)
		if line.ExternalProductID != "" {
			if product, err := s.products.FindByExternalID(ctx, shopID, line.ExternalProductID); err == nil {
				item.ProductID = &product.ID
				if product.Cost.Sign() > 0 {
					lineProfit = line.Price.Sub(product.Cost).Mul(qty)
				}
			}
		}
		profit = profit.Add(lineProfit)

		items = append(items, item)
	}

	return items, revenue, profit
}
