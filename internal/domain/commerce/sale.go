package commerce

import (
	"context"
	"time"

	"github.com/bva/backend/internal/domain/integration"
	"github.com/bva/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Sale
// ---------------------------------------------------------------------------

// SaleItem is one line of a synced sale
type SaleItem struct {
	// ProductID is the local product the line resolved to; nil when the
	// remote product is not in the local catalog
	ProductID *uuid.UUID `json:"productId,omitempty"`
	// ExternalProductID is the remote product identifier
	ExternalProductID string `json:"externalProductId"`
	// Name is the product name at order time
	Name string `json:"name"`
	// Quantity is the ordered quantity
	Quantity int `json:"quantity"`
	// Price is the unit price paid
	Price decimal.Decimal `json:"price"`
}

// Sale is the local cache of a remote order.
//
// CreatedAt is deliberately NOT the remote order time: synced historical
// sales are spread uniformly across the trailing 30 days so the forecasting
// service trains on a non-degenerate time series. The real remote timestamp
// is preserved in OrderedAt.
type Sale struct {
	shared.BaseEntity
	// ShopID is the local shop the sale belongs to
	ShopID uuid.UUID
	// ExternalID is the remote platform's order identifier, unique per shop
	ExternalID string
	// Platform is the storefront platform the order came from
	Platform integration.PlatformCode
	// PlatformOrderID is the buyer-facing order number
	PlatformOrderID string
	// Items contains the order line items
	Items []SaleItem
	// Total is the amount the buyer paid
	Total decimal.Decimal
	// Revenue is the recognized revenue for the sale
	Revenue decimal.Decimal
	// Profit is revenue minus resolved item costs
	Profit decimal.Decimal
	// Status is the remote order status string
	Status string
	// CustomerName is the buyer's display name
	CustomerName string
	// CustomerPhone is the buyer's phone number
	CustomerPhone string
	// OrderedAt is the real order timestamp on the remote platform
	OrderedAt time.Time
}

// ApplyRemote refreshes the mutable fields from a re-fetched remote order.
// The jittered CreatedAt assigned on first sync is left untouched so repeat
// syncs do not reshuffle the training series.
func (s *Sale) ApplyRemote(remote integration.RemoteOrder, revenue, profit decimal.Decimal, items []SaleItem) {
	s.PlatformOrderID = remote.PlatformOrderID
	s.Items = items
	s.Total = remote.Total
	s.Revenue = revenue
	s.Profit = profit
	s.Status = remote.Status
	s.CustomerName = remote.CustomerName
	s.CustomerPhone = remote.CustomerPhone
	s.OrderedAt = remote.OrderedAt
	s.Touch()
}

// ---------------------------------------------------------------------------
// Repository Port
// ---------------------------------------------------------------------------

// SaleRepository defines persistence operations for sales
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	// FindByExternalID resolves the (shop, externalID) identity
	FindByExternalID(ctx context.Context, shopID uuid.UUID, externalID string) (*Sale, error)
	// FindByShopSince returns sales with CreatedAt on or after the cutoff
	FindByShopSince(ctx context.Context, shopID uuid.UUID, since time.Time) ([]Sale, error)
	Save(ctx context.Context, sale *Sale) error
	Update(ctx context.Context, sale *Sale) error
	CountByShop(ctx context.Context, shopID uuid.UUID) (int64, error)
}
