// Package scheduler runs the background poller that publishes due
// campaigns.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bva/backend/internal/domain/campaign"
	"github.com/bva/backend/internal/domain/commerce"
)

// ---------------------------------------------------------------------------
// CampaignPollerConfig
// ---------------------------------------------------------------------------

// CampaignPollerConfig holds configuration for the campaign publish poller
type CampaignPollerConfig struct {
	// Interval is the fixed tick interval
	Interval time.Duration
	// MaxPublishRetries bounds publish attempts before a campaign is
	// forced back to draft
	MaxPublishRetries int
	// TickTimeout is the maximum time one tick may run
	TickTimeout time.Duration
}

// DefaultCampaignPollerConfig returns default poller configuration
func DefaultCampaignPollerConfig() CampaignPollerConfig {
	return CampaignPollerConfig{
		Interval:          30 * time.Second,
		MaxPublishRetries: 3,
		TickTimeout:       25 * time.Second,
	}
}

// Validate validates the configuration
func (c *CampaignPollerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxPublishRetries < 1 {
		return ErrInvalidConfig
	}
	if c.TickTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// CampaignPoller
// ---------------------------------------------------------------------------

// CampaignPoller periodically publishes SCHEDULED campaigns whose time has
// come. Campaigns scheduled natively on the platform are skipped; the
// platform publishes those itself. A failed publish is retried on later
// ticks until MaxPublishRetries is reached, at which point the campaign is
// forced back to DRAFT and the shop owner is notified.
type CampaignPoller struct {
	config        CampaignPollerConfig
	campaigns     campaign.Repository
	notifications campaign.NotificationRepository
	shops         commerce.ShopRepository
	publisher     campaign.SocialPublisher
	logger        *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	now func() time.Time
}

// NewCampaignPoller creates a new campaign poller
func NewCampaignPoller(
	config CampaignPollerConfig,
	campaigns campaign.Repository,
	notifications campaign.NotificationRepository,
	shops commerce.ShopRepository,
	publisher campaign.SocialPublisher,
	logger *zap.Logger,
) (*CampaignPoller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &CampaignPoller{
		config:        config,
		campaigns:     campaigns,
		notifications: notifications,
		shops:         shops,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// Start starts the poller loop
func (p *CampaignPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.runLoop(ctx)

	p.logger.Info("Campaign poller started",
		zap.Duration("interval", p.config.Interval),
		zap.Int("max_publish_retries", p.config.MaxPublishRetries),
	)

	return nil
}

// Stop gracefully stops the poller
func (p *CampaignPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Campaign poller stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Campaign poller stop timed out")
		return ctx.Err()
	}
}

// runLoop ticks at the configured interval until the context is cancelled
func (p *CampaignPoller) runLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick processes all currently due campaigns. A failure on one campaign
// never blocks the others.
func (p *CampaignPoller) Tick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, p.config.TickTimeout)
	defer cancel()

	due, err := p.campaigns.FindDue(tickCtx, p.now())
	if err != nil {
		p.logger.Error("Failed to load due campaigns", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	p.logger.Debug("Processing due campaigns", zap.Int("count", len(due)))

	for i := range due {
		c := &due[i]
		if c.Content.ScheduledVia == campaign.ScheduledViaNative {
			// The platform owns this publish; record it as done.
			p.confirmNative(tickCtx, c)
			continue
		}
		p.publish(tickCtx, c)
	}
}

// confirmNative marks a natively scheduled campaign as published once its
// time passes. The platform releases the post on its own schedule.
func (p *CampaignPoller) confirmNative(ctx context.Context, c *campaign.Campaign) {
	c.MarkPublished(c.Content.ExternalPostID)
	if err := p.campaigns.Update(ctx, c); err != nil {
		p.logger.Error("Failed to confirm natively scheduled campaign",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
	}
}

// publish attempts one publish of a poller-scheduled campaign
func (p *CampaignPoller) publish(ctx context.Context, c *campaign.Campaign) {
	result, err := p.publisher.PublishPost(ctx, &campaign.PostRequest{
		Message:  c.Content.Copy,
		Hashtags: c.Content.Hashtags,
		ImageURL: c.ImageURL,
	})
	if err != nil {
		p.handleFailure(ctx, c, err)
		return
	}

	c.MarkPublished(result.PostID)
	if err := p.campaigns.Update(ctx, c); err != nil {
		p.logger.Error("Failed to persist published campaign",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("Campaign published",
		zap.String("campaign_id", c.ID.String()),
		zap.String("shop_id", c.ShopID.String()),
		zap.String("post_id", result.PostID),
	)

	p.notifyPublished(ctx, c)
}

// notifyPublished creates a success notification for the shop owner
func (p *CampaignPoller) notifyPublished(ctx context.Context, c *campaign.Campaign) {
	shop, err := p.shops.FindByID(ctx, c.ShopID)
	if err != nil {
		p.logger.Error("Failed to resolve shop for publish notification",
			zap.String("campaign_id", c.ID.String()),
			zap.String("shop_id", c.ShopID.String()),
			zap.Error(err),
		)
		return
	}

	notification := campaign.NewNotification(
		shop.OwnerID,
		"Campaign published",
		fmt.Sprintf("Campaign %q is now live.", c.Name),
		campaign.NotificationTypeSuccess,
	)

	if err := p.notifications.Save(ctx, notification); err != nil {
		p.logger.Error("Failed to save publish notification",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
	}
}

// handleFailure records a failed attempt and, once retries are exhausted,
// returns the campaign to draft and notifies the shop owner
func (p *CampaignPoller) handleFailure(ctx context.Context, c *campaign.Campaign, pubErr error) {
	exhausted := c.RecordPublishFailure(pubErr.Error(), p.config.MaxPublishRetries)

	if err := p.campaigns.Update(ctx, c); err != nil {
		p.logger.Error("Failed to persist campaign publish failure",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
		return
	}

	if !exhausted {
		p.logger.Warn("Campaign publish failed, will retry",
			zap.String("campaign_id", c.ID.String()),
			zap.Int("retry_count", c.Content.PublishRetryCount),
			zap.Int("max_retries", p.config.MaxPublishRetries),
			zap.Error(pubErr),
		)
		return
	}

	p.logger.Error("Campaign publish retries exhausted, returned to draft",
		zap.String("campaign_id", c.ID.String()),
		zap.String("shop_id", c.ShopID.String()),
		zap.Error(pubErr),
	)

	p.notifyFailure(ctx, c, pubErr)
}

// notifyFailure creates an error notification for the shop owner
func (p *CampaignPoller) notifyFailure(ctx context.Context, c *campaign.Campaign, pubErr error) {
	shop, err := p.shops.FindByID(ctx, c.ShopID)
	if err != nil {
		p.logger.Error("Failed to resolve shop for failure notification",
			zap.String("campaign_id", c.ID.String()),
			zap.String("shop_id", c.ShopID.String()),
			zap.Error(err),
		)
		return
	}

	notification := campaign.NewNotification(
		shop.OwnerID,
		"Campaign publishing failed",
		fmt.Sprintf("Campaign %q could not be published after %d attempts and was returned to draft: %v",
			c.Name, p.config.MaxPublishRetries, pubErr),
		campaign.NotificationTypeError,
	)

	if err := p.notifications.Save(ctx, notification); err != nil {
		p.logger.Error("Failed to save failure notification",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
	}
}
