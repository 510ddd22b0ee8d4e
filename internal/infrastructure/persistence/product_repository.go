package persistence

import (
	"context"
	"errors"

	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements commerce.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*commerce.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShop finds all products for a shop
func (r *GormProductRepository) FindByShop(ctx context.Context, shopID uuid.UUID) ([]commerce.Product, error) {
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at ASC").
		Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]commerce.Product, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// FindByExternalID finds a product by its remote platform identifier
func (r *GormProductRepository) FindByExternalID(ctx context.Context, shopID uuid.UUID, externalID string) (*commerce.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND external_id = ?", shopID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a product by its SKU within a shop
func (r *GormProductRepository) FindBySKU(ctx context.Context, shopID uuid.UUID, sku string) (*commerce.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND sku = ?", shopID, sku).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates a product
func (r *GormProductRepository) Save(ctx context.Context, product *commerce.Product) error {
	model := &models.ProductModel{}
	model.FromDomain(product)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if IsUniqueViolation(err) {
			return commerce.ErrDuplicateProduct
		}
		return err
	}
	return nil
}

// Update persists changes to an existing product
func (r *GormProductRepository) Update(ctx context.Context, product *commerce.Product) error {
	model := &models.ProductModel{}
	model.FromDomain(product)
	return r.db.WithContext(ctx).Save(model).Error
}

// CountByShop counts products for a shop
func (r *GormProductRepository) CountByShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
