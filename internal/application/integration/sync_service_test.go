package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/domain/shared"
	"github.com/bva/backend/internal/infrastructure/persistence"
	"github.com/bva/backend/internal/infrastructure/persistence/models"
)

// ---------------------------------------------------------------------------
// Test Fixture
// ---------------------------------------------------------------------------

// stubClient is a canned storefront client. Calls are counted so tests can
// assert that gated operations never reach the network layer.
type stubClient struct {
	platform      integration.PlatformCode
	products      []integration.RemoteProduct
	orders        []integration.RemoteOrder
	testErr       error
	fetchCalls    int
	lastToken     string
	lastShopRef   string
	testCallCount int
}

func (c *stubClient) PlatformCode() integration.PlatformCode { return c.platform }

func (c *stubClient) FetchProducts(ctx context.Context, shopRef, token string) ([]integration.RemoteProduct, error) {
	c.fetchCalls++
	c.lastShopRef = shopRef
	c.lastToken = token
	return c.products, nil
}

func (c *stubClient) FetchOrders(ctx context.Context, shopRef, token string) ([]integration.RemoteOrder, error) {
	c.fetchCalls++
	c.lastShopRef = shopRef
	c.lastToken = token
	return c.orders, nil
}

func (c *stubClient) TestConnection(ctx context.Context, token string) error {
	c.testCallCount++
	c.lastToken = token
	return c.testErr
}

type stubRegistry struct {
	clients map[integration.PlatformCode]integration.StorefrontClient
}

func (r *stubRegistry) GetClient(platform integration.PlatformCode) (integration.StorefrontClient, error) {
	client, ok := r.clients[platform]
	if !ok {
		return nil, integration.ErrPlatformNotRegistered
	}
	return client, nil
}

func (r *stubRegistry) ListClients() []integration.StorefrontClient {
	out := make([]integration.StorefrontClient, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

type syncFixture struct {
	db       *gorm.DB
	products *persistence.GormProductRepository
	sales    *persistence.GormSaleRepository
	client   *stubClient
	service  *SyncService
	shopID   uuid.UUID
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ShopModel{},
		&models.ProductModel{},
		&models.SaleModel{},
		&models.IntegrationModel{},
	))

	client := &stubClient{platform: integration.PlatformCodeShopee}
	registry := &stubRegistry{clients: map[integration.PlatformCode]integration.StorefrontClient{
		integration.PlatformCodeShopee: client,
	}}

	products := persistence.NewGormProductRepository(db)
	sales := persistence.NewGormSaleRepository(db)
	service := NewSyncService(products, sales, registry, zap.NewNop())

	return &syncFixture{
		db:       db,
		products: products,
		sales:    sales,
		client:   client,
		service:  service,
		shopID:   uuid.New(),
	}
}

func remoteProduct(externalID, sku, name string, price, cost float64, stock int) integration.RemoteProduct {
	return integration.RemoteProduct{
		ExternalID: externalID,
		SKU:        sku,
		Name:       name,
		Price:      decimal.NewFromFloat(price),
		Cost:       decimal.NewFromFloat(cost),
		Stock:      stock,
	}
}

// ---------------------------------------------------------------------------
// Product Sync Tests
// ---------------------------------------------------------------------------

func TestSyncService_SyncProducts_CreatesAndIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.client.products = []integration.RemoteProduct{
		remoteProduct("ext-1", "SKU-1", "Widget", 100, 40, 5),
		remoteProduct("ext-2", "SKU-2", "Gadget", 50, 20, 8),
	}

	count, err := f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	first, err := f.products.FindByShop(ctx, f.shopID)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Second run with unchanged remote data changes nothing
	count, err = f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	second, err := f.products.FindByShop(ctx, f.shopID)
	require.NoError(t, err)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.True(t, first[i].Price.Equal(second[i].Price))
		assert.Equal(t, first[i].SKU, second[i].SKU)
	}
}

func TestSyncService_SyncProducts_UpdatesByExternalID(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.client.products = []integration.RemoteProduct{remoteProduct("ext-1", "SKU-1", "Widget", 100, 40, 5)}
	_, err := f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)

	f.client.products = []integration.RemoteProduct{remoteProduct("ext-1", "SKU-1", "Widget v2", 120, 45, 3)}
	count, err := f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := f.products.FindByExternalID(ctx, f.shopID, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", got.Name)
	assert.True(t, decimal.NewFromInt(120).Equal(got.Price))
	assert.Equal(t, 3, got.Stock)

	n, err := f.products.CountByShop(ctx, f.shopID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSyncService_SyncProducts_SKUMatchBackfillsExternalID(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	// A manually created product with no remote identity yet
	seed := &commerce.Product{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     f.shopID,
		SKU:        "SKU-1",
		Name:       "Hand-entered Widget",
		Price:      decimal.NewFromInt(90),
	}
	require.NoError(t, f.products.Save(ctx, seed))

	f.client.products = []integration.RemoteProduct{remoteProduct("ext-1", "SKU-1", "Widget", 100, 40, 5)}
	count, err := f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := f.products.FindBySKU(ctx, f.shopID, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, seed.ID, got.ID)
	assert.Equal(t, "ext-1", got.ExternalID)
	assert.Equal(t, "Widget", got.Name)

	n, err := f.products.CountByShop(ctx, f.shopID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSyncService_SyncProducts_DefaultSKUWhenRemoteHasNone(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.client.products = []integration.RemoteProduct{remoteProduct("ext-9", "", "Unsku'd", 10, 4, 1)}
	_, err := f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)

	got, err := f.products.FindByExternalID(ctx, f.shopID, "ext-9")
	require.NoError(t, err)
	assert.Equal(t, "SHOPEE-ext-9", got.SKU)
}

func TestSyncService_SyncProducts_SkipsRemoteRowsWithoutID(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.client.products = []integration.RemoteProduct{
		remoteProduct("", "SKU-X", "No identity", 10, 4, 1),
		remoteProduct("ext-1", "SKU-1", "Widget", 100, 40, 5),
	}

	count, err := f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// raceProductRepo simulates losing an insert race: Save actually inserts
// the row (the concurrent winner) but reports a duplicate to the caller.
type raceProductRepo struct {
	commerce.ProductRepository
	raced bool
}

func (r *raceProductRepo) Save(ctx context.Context, product *commerce.Product) error {
	if !r.raced {
		r.raced = true
		if err := r.ProductRepository.Save(ctx, product); err != nil {
			return err
		}
		return commerce.ErrDuplicateProduct
	}
	return r.ProductRepository.Save(ctx, product)
}

func TestSyncService_SyncProducts_RecoversFromInsertRace(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	raced := &raceProductRepo{ProductRepository: f.products}
	f.service.products = raced

	f.client.products = []integration.RemoteProduct{remoteProduct("ext-1", "SKU-1", "Widget", 100, 40, 5)}
	count, err := f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, raced.raced)

	n, err := f.products.CountByShop(ctx, f.shopID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

// ---------------------------------------------------------------------------
// Sales Sync Tests
// ---------------------------------------------------------------------------

func remoteOrder(externalID string, total float64, items ...integration.RemoteOrderItem) integration.RemoteOrder {
	return integration.RemoteOrder{
		ExternalID:      externalID,
		PlatformOrderID: "ORD-" + externalID,
		Status:          "completed",
		Total:           decimal.NewFromFloat(total),
		Items:           items,
		OrderedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSyncService_SyncSales_CreatesWithJitteredCreatedAt(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	now := time.Now()
	f.service.now = func() time.Time { return now }
	f.service.jitter = func() float64 { return 0.5 }

	f.client.orders = []integration.RemoteOrder{remoteOrder("o-1", 200)}
	count, err := f.service.SyncSales(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	sale, err := f.sales.FindByExternalID(ctx, f.shopID, "o-1")
	require.NoError(t, err)

	want := now.Add(-15 * 24 * time.Hour)
	assert.WithinDuration(t, want, sale.CreatedAt, time.Second)
	// The real order timestamp is preserved separately
	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), sale.OrderedAt.UTC())
}

func TestSyncService_SyncSales_JitterStaysInWindow(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	now := time.Now()
	f.service.now = func() time.Time { return now }

	f.client.orders = []integration.RemoteOrder{
		remoteOrder("o-1", 10), remoteOrder("o-2", 20), remoteOrder("o-3", 30),
		remoteOrder("o-4", 40), remoteOrder("o-5", 50),
	}
	_, err := f.service.SyncSales(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)

	sales, err := f.sales.FindByShopSince(ctx, f.shopID, now.Add(-31*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, sales, 5)
	for _, sale := range sales {
		assert.False(t, sale.CreatedAt.After(now))
		assert.False(t, sale.CreatedAt.Before(now.Add(-30*24*time.Hour)))
	}
}

func TestSyncService_SyncSales_RepeatSyncKeepsCreatedAt(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.service.jitter = func() float64 { return 0.25 }
	f.client.orders = []integration.RemoteOrder{remoteOrder("o-1", 200)}
	_, err := f.service.SyncSales(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)

	first, err := f.sales.FindByExternalID(ctx, f.shopID, "o-1")
	require.NoError(t, err)

	// A different jitter draw on the second run must not move CreatedAt
	f.service.jitter = func() float64 { return 0.9 }
	count, err := f.service.SyncSales(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	second, err := f.sales.FindByExternalID(ctx, f.shopID, "o-1")
	require.NoError(t, err)
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Second)

	n, err := f.sales.CountByShop(ctx, f.shopID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSyncService_SyncSales_ProfitFromProductCostJoin(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	// Product with a known cost of 40 at price 100
	f.client.products = []integration.RemoteProduct{remoteProduct("ext-1", "SKU-1", "Widget", 100, 40, 5)}
	_, err := f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)

	f.client.orders = []integration.RemoteOrder{remoteOrder("o-1", 200,
		integration.RemoteOrderItem{ExternalProductID: "ext-1", Name: "Widget", Quantity: 2, Price: decimal.NewFromInt(100)},
	)}
	_, err = f.service.SyncSales(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)

	sale, err := f.sales.FindByExternalID(ctx, f.shopID, "o-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(sale.Revenue), "revenue %s", sale.Revenue)
	// (100-40)*2
	assert.True(t, decimal.NewFromInt(120).Equal(sale.Profit), "profit %s", sale.Profit)
	require.Len(t, sale.Items, 1)
	require.NotNil(t, sale.Items[0].ProductID)
}

func TestSyncService_SyncSales_FallbackMarginForUnknownProducts(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.client.orders = []integration.RemoteOrder{remoteOrder("o-1", 300,
		integration.RemoteOrderItem{ExternalProductID: "nope", Name: "Mystery", Quantity: 3, Price: decimal.NewFromInt(100)},
	)}
	_, err := f.service.SyncSales(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)

	sale, err := f.sales.FindByExternalID(ctx, f.shopID, "o-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(sale.Revenue))
	// 300 * 0.20
	assert.True(t, decimal.NewFromInt(60).Equal(sale.Profit), "profit %s", sale.Profit)
	require.Len(t, sale.Items, 1)
	assert.Nil(t, sale.Items[0].ProductID)
}

func TestSyncService_SyncSales_OrderWithoutItemsValuedAtTotal(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.client.orders = []integration.RemoteOrder{remoteOrder("o-1", 150)}
	_, err := f.service.SyncSales(ctx, f.shopID, integration.PlatformCodeShopee, "tok")
	require.NoError(t, err)

	sale, err := f.sales.FindByExternalID(ctx, f.shopID, "o-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(sale.Revenue))
	assert.True(t, decimal.NewFromInt(30).Equal(sale.Profit))
	assert.Empty(t, sale.Items)
}

func TestSyncService_UnknownPlatform(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.service.SyncProducts(ctx, f.shopID, integration.PlatformCodeLazada, "tok")
	assert.ErrorIs(t, err, integration.ErrPlatformNotRegistered)
}
