package mlservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable means the service could not be reached at all
	ErrUnavailable = errors.New("mlservice: service unavailable")
	// ErrRejected means the service answered with a non-2xx status
	ErrRejected = errors.New("mlservice: request rejected")
	// ErrInvalidResponse means the service answered 2xx with a payload that
	// does not look like a strategy
	ErrInvalidResponse = errors.New("mlservice: invalid strategy response")
)

// Client calls the external ML restock strategy service
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// Options configures the ML service client
type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a client for the ML service
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   httpClient,
		logger: opts.Logger,
	}
}

// ComputeStrategy posts a strategy request and validates the response shape.
// A non-2xx answer includes the service's own error body in the returned
// error so the operator can see what the optimizer complained about.
func (c *Client) ComputeStrategy(ctx context.Context, req StrategyRequest) (*StrategyResponse, error) {
	var result StrategyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/api/v1/restock/strategy")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode(), resp.String())
	}

	if err := validateStrategy(&result); err != nil {
		return nil, err
	}

	c.logger.Debug("computed restock strategy",
		zap.String("shopId", result.ShopID),
		zap.Int("items", len(result.Items)),
		zap.Float64("budgetUsedPct", result.Totals.BudgetUsedPct))
	return &result, nil
}

// Health checks the service's health endpoint
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode())
	}
	return &result, nil
}

// validateStrategy checks that a 2xx payload actually carries a strategy.
// Items may legitimately be empty (nothing worth restocking), but the items
// and totals fields and the strategy label must be present.
func validateStrategy(s *StrategyResponse) error {
	if s.Items == nil {
		return fmt.Errorf("%w: missing items field", ErrInvalidResponse)
	}
	if s.Totals == nil {
		return fmt.Errorf("%w: missing totals field", ErrInvalidResponse)
	}
	if !s.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidResponse, s.Strategy)
	}
	return nil
}
