package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSaleRepository implements commerce.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*commerce.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrSaleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a sale by its remote order identifier
func (r *GormSaleRepository) FindByExternalID(ctx context.Context, shopID uuid.UUID, externalID string) (*commerce.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND external_id = ?", shopID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrSaleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShopSince finds sales created on or after the cutoff
func (r *GormSaleRepository) FindByShopSince(ctx context.Context, shopID uuid.UUID, since time.Time) ([]commerce.Sale, error) {
	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND created_at >= ?", shopID, since).
		Order("created_at ASC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}

	sales := make([]commerce.Sale, len(saleModels))
	for i, model := range saleModels {
		sales[i] = *model.ToDomain()
	}
	return sales, nil
}

// Save creates a sale
func (r *GormSaleRepository) Save(ctx context.Context, sale *commerce.Sale) error {
	model := &models.SaleModel{}
	model.FromDomain(sale)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if IsUniqueViolation(err) {
			return commerce.ErrDuplicateSale
		}
		return err
	}
	return nil
}

// Update persists changes to an existing sale
func (r *GormSaleRepository) Update(ctx context.Context, sale *commerce.Sale) error {
	model := &models.SaleModel{}
	model.FromDomain(sale)
	return r.db.WithContext(ctx).Save(model).Error
}

// CountByShop counts sales for a shop
func (r *GormSaleRepository) CountByShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
