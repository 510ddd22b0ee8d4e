package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bva/backend/internal/domain/campaign"
	"github.com/bva/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCampaignRepository implements campaign.Repository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// FindByID finds a campaign by its ID
func (r *GormCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	var model models.CampaignModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, campaign.ErrCampaignNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShop finds all campaigns for a shop, newest first
func (r *GormCampaignRepository) FindByShop(ctx context.Context, shopID uuid.UUID) ([]campaign.Campaign, error) {
	var campaignModels []models.CampaignModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Find(&campaignModels).Error; err != nil {
		return nil, err
	}

	campaigns := make([]campaign.Campaign, len(campaignModels))
	for i, model := range campaignModels {
		campaigns[i] = *model.ToDomain()
	}
	return campaigns, nil
}

// FindDue finds SCHEDULED campaigns whose scheduled time has passed
func (r *GormCampaignRepository) FindDue(ctx context.Context, now time.Time) ([]campaign.Campaign, error) {
	var campaignModels []models.CampaignModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", campaign.StatusScheduled, now).
		Order("scheduled_at ASC").
		Find(&campaignModels).Error; err != nil {
		return nil, err
	}

	campaigns := make([]campaign.Campaign, len(campaignModels))
	for i, model := range campaignModels {
		campaigns[i] = *model.ToDomain()
	}
	return campaigns, nil
}

// Save creates a campaign
func (r *GormCampaignRepository) Save(ctx context.Context, c *campaign.Campaign) error {
	model := &models.CampaignModel{}
	model.FromDomain(c)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing campaign
func (r *GormCampaignRepository) Update(ctx context.Context, c *campaign.Campaign) error {
	model := &models.CampaignModel{}
	model.FromDomain(c)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a campaign
func (r *GormCampaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CampaignModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return campaign.ErrCampaignNotFound
	}
	return nil
}
