package persistence

import (
	"context"
	"errors"

	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShopRepository implements commerce.ShopRepository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// FindByID finds a shop by its ID
func (r *GormShopRepository) FindByID(ctx context.Context, id uuid.UUID) (*commerce.Shop, error) {
	var model models.ShopModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrShopNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner finds all shops owned by a user
func (r *GormShopRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]commerce.Shop, error) {
	var shopModels []models.ShopModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&shopModels).Error; err != nil {
		return nil, err
	}

	shops := make([]commerce.Shop, len(shopModels))
	for i, model := range shopModels {
		shops[i] = *model.ToDomain()
	}
	return shops, nil
}

// FindAccessible finds shops the user owns plus shops shared with them
func (r *GormShopRepository) FindAccessible(ctx context.Context, userID uuid.UUID) ([]commerce.Shop, error) {
	var shopModels []models.ShopModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Or("id IN (?)", r.db.Model(&models.ShopAccessModel{}).
			Select("shop_id").
			Where("user_id = ?", userID)).
		Order("created_at ASC").
		Find(&shopModels).Error; err != nil {
		return nil, err
	}

	shops := make([]commerce.Shop, len(shopModels))
	for i, model := range shopModels {
		shops[i] = *model.ToDomain()
	}
	return shops, nil
}

// Save creates or updates a shop
func (r *GormShopRepository) Save(ctx context.Context, shop *commerce.Shop) error {
	model := &models.ShopModel{}
	model.FromDomain(shop)
	return r.db.WithContext(ctx).Save(model).Error
}
