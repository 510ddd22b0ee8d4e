package commerce

import (
	"context"
	"errors"

	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Commerce Errors
// ---------------------------------------------------------------------------

var (
	ErrShopNotFound    = errors.New("commerce: shop not found")
	ErrProductNotFound = errors.New("commerce: product not found")
	ErrSaleNotFound    = errors.New("commerce: sale not found")
	ErrInvalidShop     = errors.New("commerce: invalid shop")
	// ErrDuplicateProduct signals a (shop, sku) or (shop, externalID)
	// uniqueness conflict on insert
	ErrDuplicateProduct = errors.New("commerce: duplicate product")
	// ErrDuplicateSale signals a (shop, externalID) uniqueness conflict
	// on insert
	ErrDuplicateSale = errors.New("commerce: duplicate sale")
)

// ---------------------------------------------------------------------------
// Shop
// ---------------------------------------------------------------------------

// Shop is a seller's storefront identity on one platform. The platform is
// fixed at registration and never switched afterwards.
type Shop struct {
	shared.BaseEntity
	// Name is the shop display name
	Name string
	// OwnerID is the registering user
	OwnerID uuid.UUID
	// Platform is the storefront platform the shop lives on
	Platform integration.PlatformCode
}

// NewShop creates a shop for an owner on a platform
func NewShop(name string, ownerID uuid.UUID, platform integration.PlatformCode) (*Shop, error) {
	if name == "" || ownerID == uuid.Nil || !platform.IsValid() {
		return nil, ErrInvalidShop
	}
	return &Shop{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		OwnerID:    ownerID,
		Platform:   platform,
	}, nil
}

// ShopAccess grants a non-owner user access to a shop. Access is shared use,
// not ownership; the owner row never appears here.
type ShopAccess struct {
	shared.BaseEntity
	ShopID uuid.UUID
	UserID uuid.UUID
	// Role is a free-form access label, e.g. "manager"
	Role string
}

// ---------------------------------------------------------------------------
// Repository Ports
// ---------------------------------------------------------------------------

// ShopRepository defines persistence operations for shops
type ShopRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Shop, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]Shop, error)
	// FindAccessible returns shops the user owns plus shops shared with them
	// through ShopAccess links.
	FindAccessible(ctx context.Context, userID uuid.UUID) ([]Shop, error)
	Save(ctx context.Context, shop *Shop) error
}
