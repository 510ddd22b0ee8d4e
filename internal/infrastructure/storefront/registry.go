package storefront

import (
	"github.com/bva/backend/internal/domain/integration"
)

// Registry is the in-memory implementation of the StorefrontRegistry port.
// Clients are registered once at startup.
type Registry struct {
	clients map[integration.PlatformCode]integration.StorefrontClient
	order   []integration.PlatformCode
}

// NewRegistry creates an empty client registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[integration.PlatformCode]integration.StorefrontClient),
	}
}

// Register adds a client for its platform, replacing any previous one
func (r *Registry) Register(client integration.StorefrontClient) {
	code := client.PlatformCode()
	if _, exists := r.clients[code]; !exists {
		r.order = append(r.order, code)
	}
	r.clients[code] = client
}

// GetClient returns the client for the specified platform
func (r *Registry) GetClient(platform integration.PlatformCode) (integration.StorefrontClient, error) {
	client, ok := r.clients[platform]
	if !ok {
		return nil, integration.ErrPlatformNotRegistered
	}
	return client, nil
}

// ListClients returns all registered clients in registration order
func (r *Registry) ListClients() []integration.StorefrontClient {
	clients := make([]integration.StorefrontClient, 0, len(r.order))
	for _, code := range r.order {
		clients = append(clients, r.clients[code])
	}
	return clients
}
