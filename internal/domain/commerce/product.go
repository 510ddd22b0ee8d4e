package commerce

import (
	"context"

	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Product
// ---------------------------------------------------------------------------

// Product is the local cache of a remote catalog item. Rows are created and
// updated exclusively by the reconciliation engine; every downstream feature
// (restock, ads, analytics) only reads them.
//
// Two identities must both stay unique per shop: the remote platform's
// ExternalID and the SKU. The reconciler resolves collisions on every write.
type Product struct {
	shared.BaseEntity
	// ShopID is the local shop the product belongs to
	ShopID uuid.UUID
	// ExternalID is the remote platform's product identifier; empty for rows
	// that predate external linking
	ExternalID string
	// SKU is the stock keeping unit, unique per shop
	SKU string
	// Name is the product display name
	Name string
	// Description is the product description
	Description string
	// Price is the selling price per unit
	Price decimal.Decimal
	// Cost is the acquisition cost per unit
	Cost decimal.Decimal
	// Category is the product category label
	Category string
	// ImageURL is the primary product image
	ImageURL string
	// Stock is the cached inventory level
	Stock int
}

// NewProductFromRemote builds a local product row from a fetched remote
// record. A missing remote SKU gets the platform-prefixed default.
func NewProductFromRemote(shopID uuid.UUID, platform integration.PlatformCode, remote integration.RemoteProduct) *Product {
	sku := remote.SKU
	if sku == "" {
		sku = platform.DefaultSKU(remote.ExternalID)
	}
	return &Product{
		BaseEntity:  shared.NewBaseEntity(),
		ShopID:      shopID,
		ExternalID:  remote.ExternalID,
		SKU:         sku,
		Name:        remote.Name,
		Description: remote.Description,
		Price:       remote.Price,
		Cost:        remote.Cost,
		Category:    remote.Category,
		ImageURL:    remote.ImageURL,
		Stock:       remote.Stock,
	}
}

// ApplyRemote updates the mutable fields from a fetched remote record and
// backfills the external ID when the row was previously matched by SKU only.
func (p *Product) ApplyRemote(remote integration.RemoteProduct) {
	p.Name = remote.Name
	if remote.Description != "" {
		p.Description = remote.Description
	}
	p.Price = remote.Price
	if !remote.Cost.IsZero() {
		p.Cost = remote.Cost
	}
	if remote.Category != "" {
		p.Category = remote.Category
	}
	if remote.ImageURL != "" {
		p.ImageURL = remote.ImageURL
	}
	p.Stock = remote.Stock
	if p.ExternalID == "" {
		p.ExternalID = remote.ExternalID
	}
	p.Touch()
}

// ProfitMargin returns (price-cost)/price, or zero for non-positive prices.
func (p *Product) ProfitMargin() decimal.Decimal {
	if p.Price.Sign() <= 0 {
		return decimal.Zero
	}
	return p.Price.Sub(p.Cost).Div(p.Price)
}

// HasPositiveEconomics reports whether price and cost are both strictly
// positive, which the external restock optimizer requires.
func (p *Product) HasPositiveEconomics() bool {
	return p.Price.Sign() > 0 && p.Cost.Sign() > 0
}

// ---------------------------------------------------------------------------
// Repository Port
// ---------------------------------------------------------------------------

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByShop(ctx context.Context, shopID uuid.UUID) ([]Product, error)
	// FindByExternalID resolves the (shop, externalID) identity
	FindByExternalID(ctx context.Context, shopID uuid.UUID, externalID string) (*Product, error)
	// FindBySKU resolves the (shop, sku) identity
	FindBySKU(ctx context.Context, shopID uuid.UUID, sku string) (*Product, error)
	Save(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	CountByShop(ctx context.Context, shopID uuid.UUID) (int64, error)
}
