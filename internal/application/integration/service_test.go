package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/infrastructure/persistence"
	"github.com/bva/backend/internal/infrastructure/persistence/models"
)

type serviceFixture struct {
	db           *gorm.DB
	service      *Service
	integrations *persistence.GormIntegrationRepository
	products     *persistence.GormProductRepository
	client       *stubClient
	registry     *stubRegistry
	shop         *commerce.Shop
}

func newServiceFixture(t *testing.T) *serviceFixture {
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

	integrations := persistence.NewGormIntegrationRepository(db)
	products := persistence.NewGormProductRepository(db)
	sales := persistence.NewGormSaleRepository(db)
	shops := persistence.NewGormShopRepository(db)

	shop, err := commerce.NewShop("My Shop", uuid.New(), integration.PlatformCodeShopee)
	require.NoError(t, err)
	require.NoError(t, shops.Save(context.Background(), shop))

	syncService := NewSyncService(products, sales, registry, zap.NewNop())
	service := NewService(integrations, shops, registry, syncService, zap.NewNop())

	return &serviceFixture{
		db:           db,
		service:      service,
		integrations: integrations,
		products:     products,
		client:       client,
		registry:     registry,
		shop:         shop,
	}
}

// ---------------------------------------------------------------------------
// Connect Tests
// ---------------------------------------------------------------------------

func TestService_Connect_CreatesIntegrationWithConsent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.client.products = []integration.RemoteProduct{remoteProduct("ext-1", "SKU-1", "Widget", 100, 40, 5)}

	result, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "tok-1", integration.Settings{})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Empty(t, result.SyncWarning)

	integ := result.Integration
	assert.True(t, integ.Settings.IsActive)
	assert.True(t, integ.Settings.TermsAccepted)
	assert.NotNil(t, integ.Settings.TermsAcceptedAt)
	assert.Equal(t, "tok-1", integ.Settings.ShopeeToken)

	// Auto-sync ran and pulled the catalog
	n, err := f.products.CountByShop(ctx, f.shop.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestService_Connect_SecondConnectRefreshesInPlace(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "tok-1", integration.Settings{})
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "tok-2", integration.Settings{})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Integration.ID, second.Integration.ID)
	assert.Equal(t, "tok-2", second.Integration.Settings.ShopeeToken)

	all, err := f.service.ListByShop(ctx, f.shop.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_Connect_PreservesUnknownSettingsKeys(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "tok-1",
		integration.Settings{Extra: map[string]any{"legacyWebhookId": "wh-7"}})
	require.NoError(t, err)
	require.True(t, first.Created)

	_, err = f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "tok-2", integration.Settings{})
	require.NoError(t, err)

	got, err := f.service.Get(ctx, first.Integration.ID)
	require.NoError(t, err)
	assert.Equal(t, "wh-7", got.Settings.Extra["legacyWebhookId"])
}

func TestService_Connect_SyncFailureIsWarningOnly(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// No Lazada client registered, so the auto-sync cannot run
	result, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeLazada, "tok-1", integration.Settings{})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.NotEmpty(t, result.SyncWarning)

	// The integration still exists and is connected
	got, err := f.service.Get(ctx, result.Integration.ID)
	require.NoError(t, err)
	assert.True(t, got.Settings.IsActive)
}

func TestService_Connect_UnknownShop(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Connect(context.Background(), uuid.New(), integration.PlatformCodeShopee, "tok", integration.Settings{})
	assert.ErrorIs(t, err, commerce.ErrShopNotFound)
}

// ---------------------------------------------------------------------------
// Sync Tests
// ---------------------------------------------------------------------------

func TestService_Sync_GatedIntegrationMakesNoRemoteCall(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "tok-1", integration.Settings{})
	require.NoError(t, err)
	callsAfterConnect := f.client.fetchCalls

	// Deactivate directly in storage
	integ, err := f.service.Get(ctx, result.Integration.ID)
	require.NoError(t, err)
	integ.Settings.IsActive = false
	require.NoError(t, f.integrations.Update(ctx, integ))

	_, err = f.service.Sync(ctx, integ.ID, "")
	assert.ErrorIs(t, err, integration.ErrIntegrationInactive)
	assert.Equal(t, callsAfterConnect, f.client.fetchCalls)
}

func TestService_Sync_StoredTokenWinsOverFallback(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "stored-tok", integration.Settings{})
	require.NoError(t, err)

	f.client.products = []integration.RemoteProduct{remoteProduct("ext-1", "SKU-1", "Widget", 100, 40, 5)}
	syncResult, err := f.service.Sync(ctx, result.Integration.ID, "fallback-tok")
	require.NoError(t, err)
	assert.Equal(t, 1, syncResult.ProductsSynced)
	assert.Equal(t, "stored-tok", f.client.lastToken)
	assert.Equal(t, f.shop.ID.String(), f.client.lastShopRef)
}

func TestService_Sync_FallbackTokenUsedWhenNoneStored(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "", integration.Settings{})
	require.NoError(t, err)

	_, err = f.service.Sync(ctx, result.Integration.ID, "fallback-tok")
	require.NoError(t, err)
	assert.Equal(t, "fallback-tok", f.client.lastToken)

	// Missing both tokens refuses before any remote call
	calls := f.client.fetchCalls
	_, err = f.service.Sync(ctx, result.Integration.ID, "")
	assert.ErrorIs(t, err, integration.ErrMissingToken)
	assert.Equal(t, calls, f.client.fetchCalls)
}

func TestService_Sync_UnknownIntegration(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Sync(context.Background(), uuid.New(), "tok")
	assert.ErrorIs(t, err, integration.ErrIntegrationNotFound)
}

// ---------------------------------------------------------------------------
// TestConnection Tests
// ---------------------------------------------------------------------------

func TestService_TestConnection_SurfacesRemoteFailure(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "tok-1", integration.Settings{})
	require.NoError(t, err)

	require.NoError(t, f.service.TestConnection(ctx, result.Integration.ID, ""))
	assert.Equal(t, 1, f.client.testCallCount)

	f.client.testErr = errors.New("401 unauthorized")
	err = f.service.TestConnection(ctx, result.Integration.ID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestService_TestConnection_GatedByConsent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "tok-1", integration.Settings{})
	require.NoError(t, err)

	integ, err := f.service.Get(ctx, result.Integration.ID)
	require.NoError(t, err)
	integ.Settings.TermsAccepted = false
	require.NoError(t, f.integrations.Update(ctx, integ))

	err = f.service.TestConnection(ctx, integ.ID, "")
	assert.ErrorIs(t, err, integration.ErrTermsNotAccepted)
	assert.Equal(t, 0, f.client.testCallCount)
}

// ---------------------------------------------------------------------------
// Delete Tests
// ---------------------------------------------------------------------------

func TestService_Delete_IsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.service.Connect(ctx, f.shop.ID, integration.PlatformCodeShopee, "tok-1", integration.Settings{})
	require.NoError(t, err)

	deleted, err := f.service.Delete(ctx, result.Integration.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.service.Delete(ctx, result.Integration.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = f.service.Get(ctx, result.Integration.ID)
	assert.ErrorIs(t, err, integration.ErrIntegrationNotFound)
}
