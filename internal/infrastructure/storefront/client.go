package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/bva/backend/internal/domain/integration"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client talks to one storefront clone over its read-only JSON API. The
// clone builds differ in which listing endpoints they expose, so every fetch
// walks an ordered endpoint list and takes the first 2xx response.
type Client struct {
	platform integration.PlatformCode
	http     *resty.Client
	logger   *zap.Logger
}

// Options configures a storefront client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	Logger     *zap.Logger
}

// NewClient creates a client for one platform's clone
func NewClient(platform integration.PlatformCode, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetHeader("Accept", "application/json")

	return &Client{
		platform: platform,
		http:     httpClient,
		logger:   opts.Logger.With(zap.String("platform", platform.String())),
	}
}

// PlatformCode returns the platform this client talks to
func (c *Client) PlatformCode() integration.PlatformCode {
	return c.platform
}

// FetchProducts lists the remote catalog. The shop-scoped endpoint is tried
// first; an unreachable clone yields an empty slice.
func (c *Client) FetchProducts(ctx context.Context, shopRef, token string) ([]integration.RemoteProduct, error) {
	endpoints := productEndpoints(shopRef)

	var wire []wireProduct
	if ok := c.fetchList(ctx, token, endpoints, &wire); !ok {
		c.logger.Warn("product fetch failed on all endpoints, returning empty catalog",
			zap.String("shopRef", shopRef))
		return []integration.RemoteProduct{}, nil
	}

	products := make([]integration.RemoteProduct, 0, len(wire))
	for _, w := range wire {
		products = append(products, w.toDomain())
	}
	c.logger.Debug("fetched remote products", zap.Int("count", len(products)))
	return products, nil
}

// FetchOrders lists remote orders with the same fallback and
// empty-on-failure semantics as FetchProducts.
func (c *Client) FetchOrders(ctx context.Context, shopRef, token string) ([]integration.RemoteOrder, error) {
	endpoints := orderEndpoints(shopRef)

	var wire []wireOrder
	if ok := c.fetchList(ctx, token, endpoints, &wire); !ok {
		c.logger.Warn("order fetch failed on all endpoints, returning empty list",
			zap.String("shopRef", shopRef))
		return []integration.RemoteOrder{}, nil
	}

	orders := make([]integration.RemoteOrder, 0, len(wire))
	for _, w := range wire {
		orders = append(orders, w.toDomain())
	}
	c.logger.Debug("fetched remote orders", zap.Int("count", len(orders)))
	return orders, nil
}

// TestConnection verifies the token against the clone. Unlike the fetch
// operations a failure here is returned to the caller, so the connect flow
// can report exactly why the clone rejected us.
func (c *Client) TestConnection(ctx context.Context, token string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/api/products")
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrRemoteRequestFailed, err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return integration.ErrRemoteUnauthenticated
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d", integration.ErrRemoteRequestFailed, resp.StatusCode())
	}

	var probe []wireProduct
	if err := decodeList(resp.Body(), &probe); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrRemoteInvalidResponse, err)
	}
	return nil
}

// fetchList walks the endpoint list and decodes the first 2xx body into out.
// It reports false when every endpoint failed.
func (c *Client) fetchList(ctx context.Context, token string, endpoints []string, out any) bool {
	for _, endpoint := range endpoints {
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			Get(endpoint)
		if err != nil {
			c.logger.Debug("endpoint unreachable",
				zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}
		if resp.IsError() {
			c.logger.Debug("endpoint returned error status",
				zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode()))
			continue
		}
		if err := decodeList(resp.Body(), out); err != nil {
			c.logger.Debug("endpoint returned unparseable body",
				zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}
		return true
	}
	return false
}

// productEndpoints returns the ordered product listing endpoints for a shop
func productEndpoints(shopRef string) []string {
	endpoints := make([]string, 0, 2)
	if shopRef != "" {
		endpoints = append(endpoints, fmt.Sprintf("/api/products/shop/%s", shopRef))
	}
	return append(endpoints, "/api/products")
}

// orderEndpoints returns the ordered order listing endpoints for a shop
func orderEndpoints(shopRef string) []string {
	endpoints := make([]string, 0, 4)
	if shopRef != "" {
		endpoints = append(endpoints,
			fmt.Sprintf("/api/orders/seller/%s", shopRef),
			fmt.Sprintf("/api/orders/shop/%s", shopRef),
		)
	}
	return append(endpoints, "/api/orders/my", "/api/orders")
}
