// Package integration implements the storefront integration lifecycle and
// the sync engine behind it.
package integration

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/domain/integration"
)

// SyncResult reports how many records one sync run reconciled
type SyncResult struct {
	ProductsSynced int `json:"productsSynced"`
	SalesSynced    int `json:"salesSynced"`
}

// ConnectResult is the outcome of a connect request
type ConnectResult struct {
	Integration *integration.Integration
	// Created is false when the connect refreshed an existing integration
	Created bool
	// SyncWarning carries the auto-sync failure, if any. Connect itself
	// succeeds regardless; a later manual sync can retry.
	SyncWarning string
}

// Service owns the Integration lifecycle: connect, sync, test, delete.
type Service struct {
	integrations integration.Repository
	shops        commerce.ShopRepository
	registry     integration.StorefrontRegistry
	sync         *SyncService
	logger       *zap.Logger
}

// NewService creates a new integration Service
func NewService(
	integrations integration.Repository,
	shops commerce.ShopRepository,
	registry integration.StorefrontRegistry,
	sync *SyncService,
	logger *zap.Logger,
) *Service {
	return &Service{
		integrations: integrations,
		shops:        shops,
		registry:     registry,
		sync:         sync,
		logger:       logger,
	}
}

// ---------------------------------------------------------------------------
// Connect
// ---------------------------------------------------------------------------

// Connect creates the integration for (shop, platform) or refreshes it when
// one already exists. Either way an immediate sync fires; its failure is
// reported as a warning, never as a connect failure.
func (s *Service) Connect(ctx context.Context, shopID uuid.UUID, platform integration.PlatformCode, token string, settings integration.Settings) (*ConnectResult, error) {
	if _, err := s.shops.FindByID(ctx, shopID); err != nil {
		return nil, err
	}

	integ, created, err := s.createOrRefresh(ctx, shopID, platform, token, settings)
	if err != nil {
		return nil, err
	}

	result := &ConnectResult{Integration: integ, Created: created}

	if syncErr := s.syncIntegration(ctx, integ, ""); syncErr != nil {
		s.logger.Warn("Auto-sync after connect failed",
			zap.String("integration_id", integ.ID.String()),
			zap.String("shop_id", shopID.String()),
			zap.Error(syncErr),
		)
		result.SyncWarning = syncErr.Error()
	}

	return result, nil
}

func (s *Service) createOrRefresh(ctx context.Context, shopID uuid.UUID, platform integration.PlatformCode, token string, settings integration.Settings) (*integration.Integration, bool, error) {
	existing, err := s.integrations.FindByShopAndPlatform(ctx, shopID, platform)
	if err == nil {
		existing.Refresh(token, settings)
		if err := s.integrations.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, integration.ErrIntegrationNotFound) {
		return nil, false, err
	}

	integ, err := integration.NewIntegration(shopID, platform, token)
	if err != nil {
		return nil, false, err
	}
	integ.Settings.Merge(settings)

	err = s.integrations.Save(ctx, integ)
	if err == nil {
		return integ, true, nil
	}
	if !errors.Is(err, integration.ErrDuplicateIntegration) {
		return nil, false, err
	}

	// A concurrent connect created the row first; refresh it instead.
	existing, err = s.integrations.FindByShopAndPlatform(ctx, shopID, platform)
	if err != nil {
		return nil, false, err
	}
	existing.Refresh(token, settings)
	if err := s.integrations.Update(ctx, existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ---------------------------------------------------------------------------
// Sync / Test
// ---------------------------------------------------------------------------

// Sync runs a full product and sales sync for the integration. It refuses
// with a domain error, before any network call, when the integration is
// inactive or consent is missing.
func (s *Service) Sync(ctx context.Context, integrationID uuid.UUID, fallbackToken string) (*SyncResult, error) {
	integ, err := s.integrations.FindByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	return s.syncWithResult(ctx, integ, fallbackToken)
}

func (s *Service) syncWithResult(ctx context.Context, integ *integration.Integration, fallbackToken string) (*SyncResult, error) {
	if err := integ.CanSync(); err != nil {
		return nil, err
	}

	token, err := integ.ResolveToken(fallbackToken)
	if err != nil {
		return nil, err
	}

	products, err := s.sync.SyncProducts(ctx, integ.ShopID, integ.Platform, token)
	if err != nil {
		return nil, err
	}
	sales, err := s.sync.SyncSales(ctx, integ.ShopID, integ.Platform, token)
	if err != nil {
		return nil, err
	}

	return &SyncResult{ProductsSynced: products, SalesSynced: sales}, nil
}

func (s *Service) syncIntegration(ctx context.Context, integ *integration.Integration, fallbackToken string) error {
	_, err := s.syncWithResult(ctx, integ, fallbackToken)
	return err
}

// TestConnection verifies the integration's credentials against the remote
// clone. Gated like Sync; unlike the fetch paths a remote failure surfaces.
func (s *Service) TestConnection(ctx context.Context, integrationID uuid.UUID, fallbackToken string) error {
	integ, err := s.integrations.FindByID(ctx, integrationID)
	if err != nil {
		return err
	}
	if err := integ.CanSync(); err != nil {
		return err
	}

	token, err := integ.ResolveToken(fallbackToken)
	if err != nil {
		return err
	}

	client, err := s.registry.GetClient(integ.Platform)
	if err != nil {
		return err
	}

	return client.TestConnection(ctx, token)
}

// ---------------------------------------------------------------------------
// Read / Delete
// ---------------------------------------------------------------------------

// Get returns one integration by ID
func (s *Service) Get(ctx context.Context, integrationID uuid.UUID) (*integration.Integration, error) {
	return s.integrations.FindByID(ctx, integrationID)
}

// ListByShop returns all integrations for a shop
func (s *Service) ListByShop(ctx context.Context, shopID uuid.UUID) ([]integration.Integration, error) {
	return s.integrations.FindByShop(ctx, shopID)
}

// Delete removes the integration. Deleting one that is already gone is not
// an error; the bool result reports whether a row existed.
func (s *Service) Delete(ctx context.Context, integrationID uuid.UUID) (bool, error) {
	deleted, err := s.integrations.Delete(ctx, integrationID)
	if err != nil {
		return false, err
	}
	if !deleted {
		s.logger.Debug("Delete of absent integration treated as no-op",
			zap.String("integration_id", integrationID.String()))
	}
	return deleted, nil
}
