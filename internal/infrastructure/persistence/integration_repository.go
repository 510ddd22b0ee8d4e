package persistence

import (
	"context"
	"errors"

	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIntegrationRepository implements integration.Repository using GORM
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// FindByID finds an integration by its ID
func (r *GormIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShopAndPlatform finds the integration for a (shop, platform) pair
func (r *GormIntegrationRepository) FindByShopAndPlatform(ctx context.Context, shopID uuid.UUID, platform integration.PlatformCode) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND platform = ?", shopID, platform).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShop finds all integrations for a shop
func (r *GormIntegrationRepository) FindByShop(ctx context.Context, shopID uuid.UUID) ([]integration.Integration, error) {
	var integrationModels []models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("platform ASC").
		Find(&integrationModels).Error; err != nil {
		return nil, err
	}

	integrations := make([]integration.Integration, len(integrationModels))
	for i, model := range integrationModels {
		integrations[i] = *model.ToDomain()
	}
	return integrations, nil
}

// Save creates an integration. A second integration for the same
// (shop, platform) pair fails the unique index and maps to
// ErrDuplicateIntegration.
func (r *GormIntegrationRepository) Save(ctx context.Context, i *integration.Integration) error {
	model := models.IntegrationModelFromDomain(i)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if IsUniqueViolation(err) {
			return integration.ErrDuplicateIntegration
		}
		return err
	}
	return nil
}

// Update persists changes to an existing integration
func (r *GormIntegrationRepository) Update(ctx context.Context, i *integration.Integration) error {
	model := models.IntegrationModelFromDomain(i)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes an integration. Deleting an absent row is not an error; the
// bool result reports whether a row was actually removed.
func (r *GormIntegrationRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.IntegrationModel{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
