package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Remote Value Objects
// ---------------------------------------------------------------------------

// RemoteProduct represents a catalog item as fetched from a storefront clone
type RemoteProduct struct {
	// ExternalID is the clone's own product identifier
	ExternalID string
	// SKU is the remote SKU; may be empty, in which case the reconciler
	// generates a platform-prefixed one
	SKU string
	// Name is the product display name
	Name string
	// Description is the product description
	Description string
	// Price is the selling price per unit
	Price decimal.Decimal
	// Cost is the acquisition cost per unit; zero when the clone hides it
	Cost decimal.Decimal
	// Category is the product category label
	Category string
	// ImageURL is the primary product image
	ImageURL string
	// Stock is the current remote inventory level
	Stock int
}

// RemoteOrderItem represents a line item of a remote order
type RemoteOrderItem struct {
	// ExternalProductID links the line to a remote product
	ExternalProductID string
	// Name is the product name at order time
	Name string
	// Quantity is the ordered quantity
	Quantity int
	// Price is the unit price paid
	Price decimal.Decimal
}

// RemoteOrder represents an order as fetched from a storefront clone
type RemoteOrder struct {
	// ExternalID is the clone's own order identifier
	ExternalID string
	// PlatformOrderID is the buyer-facing order number
	PlatformOrderID string
	// Status is the remote order status string, passed through verbatim
	Status string
	// Total is the total amount paid
	Total decimal.Decimal
	// Items contains the order line items
	Items []RemoteOrderItem
	// CustomerName is the buyer's display name
	CustomerName string
	// CustomerPhone is the buyer's phone number
	CustomerPhone string
	// OrderedAt is the real order timestamp on the clone
	OrderedAt time.Time
}

// ---------------------------------------------------------------------------
// StorefrontClient Port Interface
// ---------------------------------------------------------------------------

// StorefrontClient defines the port interface for reading data out of a
// remote storefront clone. Implementations live in the infrastructure layer.
//
// Every operation is a read. The clones belong to external platforms, so a
// client must never issue a mutating request against them.
type StorefrontClient interface {
	// PlatformCode returns the platform this client talks to
	PlatformCode() PlatformCode

	// FetchProducts lists the catalog visible to the token. shopRef scopes
	// the request to a remote shop when the clone supports it; clients fall
	// back to unscoped listing endpoints on failure. An unreachable clone
	// yields an empty slice, not an error.
	FetchProducts(ctx context.Context, shopRef, token string) ([]RemoteProduct, error)

	// FetchOrders lists orders visible to the token, with the same fallback
	// and empty-on-failure semantics as FetchProducts.
	FetchOrders(ctx context.Context, shopRef, token string) ([]RemoteOrder, error)

	// TestConnection verifies the token against the clone. Unlike the fetch
	// operations, a hard transport or credential failure surfaces as an
	// error so that the connect flow can report it.
	TestConnection(ctx context.Context, token string) error
}

// StorefrontRegistry provides access to the configured storefront clients
type StorefrontRegistry interface {
	// GetClient returns the client for the specified platform
	GetClient(platform PlatformCode) (StorefrontClient, error)

	// ListClients returns all registered clients
	ListClients() []StorefrontClient
}
