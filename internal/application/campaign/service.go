// Package campaign implements campaign management and the publish flow
// around the social platform adapter.
package campaign

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bva/backend/internal/domain/campaign"
	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/infrastructure/telemetry"
)

// imageKeyPrefix namespaces stored ad images per shop
const imageKeyPrefix = "campaigns"

// ScheduleResult reports how a schedule request was carried out
type ScheduleResult struct {
	Campaign *campaign.Campaign
	// Warning carries an advisory failure, e.g. native scheduling was
	// attempted but the platform refused and the poller took over.
	Warning string
}

// PublishResult reports the outcome of an explicit publish request
type PublishResult struct {
	Campaign *campaign.Campaign
	PostID   string
	PostURL  string
	// Warning is set when the publish failed; the campaign state is left
	// unchanged so the caller can retry.
	Warning string
}

// Service owns campaign CRUD and the scheduling/publishing flow.
type Service struct {
	campaigns     campaign.Repository
	notifications campaign.NotificationRepository
	shops         commerce.ShopRepository
	publisher     campaign.SocialPublisher
	images        ImageStore
	// nativeHorizon is the minimum lead time for handing the publish to
	// the platform's own scheduler; anything closer goes to the poller
	nativeHorizon time.Duration
	logger        *zap.Logger
}

// NewService creates a new campaign Service
func NewService(
	campaigns campaign.Repository,
	notifications campaign.NotificationRepository,
	shops commerce.ShopRepository,
	publisher campaign.SocialPublisher,
	images ImageStore,
	nativeHorizon time.Duration,
	logger *zap.Logger,
) *Service {
	if nativeHorizon <= 0 {
		nativeHorizon = 10 * time.Minute
	}
	return &Service{
		campaigns:     campaigns,
		notifications: notifications,
		shops:         shops,
		publisher:     publisher,
		images:        images,
		nativeHorizon: nativeHorizon,
		logger:        logger,
	}
}

// ---------------------------------------------------------------------------
// CRUD
// ---------------------------------------------------------------------------

// Create creates a draft campaign. A base64 data URL image is uploaded to
// object storage and replaced with its hosted URL.
func (s *Service) Create(ctx context.Context, shopID uuid.UUID, name string, content campaign.Content, imageURL string) (*campaign.Campaign, error) {
	if _, err := s.shops.FindByID(ctx, shopID); err != nil {
		return nil, err
	}

	hosted, err := s.hostImage(ctx, shopID, imageURL)
	if err != nil {
		return nil, err
	}

	c, err := campaign.NewCampaign(shopID, name, content, hosted)
	if err != nil {
		return nil, err
	}

	if err := s.campaigns.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the mutable fields of a draft or scheduled campaign
func (s *Service) Update(ctx context.Context, id uuid.UUID, name string, content campaign.Content, imageURL string) (*campaign.Campaign, error) {
	c, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == campaign.StatusPublished {
		return nil, campaign.ErrAlreadyPublished
	}

	if name != "" {
		c.Name = name
	}
	if imageURL != "" {
		hosted, err := s.hostImage(ctx, c.ShopID, imageURL)
		if err != nil {
			return nil, err
		}
		c.ImageURL = hosted
	}

	// Carry the publish audit trail over the incoming content
	content.ScheduledVia = c.Content.ScheduledVia
	content.ExternalPostID = c.Content.ExternalPostID
	content.PublishRetryCount = c.Content.PublishRetryCount
	content.PublishedAt = c.Content.PublishedAt
	content.LastPublishError = c.Content.LastPublishError
	c.Content = content
	c.Touch()

	if err := s.campaigns.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns one campaign by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	return s.campaigns.FindByID(ctx, id)
}

// ListByShop returns all campaigns for a shop
func (s *Service) ListByShop(ctx context.Context, shopID uuid.UUID) ([]campaign.Campaign, error) {
	return s.campaigns.FindByShop(ctx, shopID)
}

// Delete removes a campaign
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.campaigns.Delete(ctx, id)
}

// hostImage uploads base64 data URLs and passes anything else through
func (s *Service) hostImage(ctx context.Context, shopID uuid.UUID, imageURL string) (string, error) {
	if imageURL == "" || !strings.HasPrefix(imageURL, "data:") {
		return imageURL, nil
	}
	return s.images.StoreDataURL(ctx, imageKeyPrefix+"/"+shopID.String(), imageURL)
}

// ---------------------------------------------------------------------------
// Schedule / Unschedule
// ---------------------------------------------------------------------------

// Schedule queues a campaign for publishing at the given time. With enough
// lead time the platform's native scheduler is tried first; a refusal there
// is advisory only and the internal poller takes over. Close schedules go
// straight to the poller.
func (s *Service) Schedule(ctx context.Context, id uuid.UUID, when time.Time) (*ScheduleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "schedule",
		telemetry.WithAttribute(telemetry.SpanAttrCampaignID, id.String()),
	)
	defer span.End()

	c, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrShopID, c.ShopID.String())

	result := &ScheduleResult{Campaign: c}

	via := campaign.ScheduledViaPoller
	externalPostID := ""

	if time.Until(when) >= s.nativeHorizon && s.publisher.HasCredentials() {
		post, pubErr := s.publisher.PublishPost(ctx, &campaign.PostRequest{
			Message:     c.Content.Copy,
			Hashtags:    c.Content.Hashtags,
			ImageURL:    c.ImageURL,
			ScheduledAt: &when,
		})
		if pubErr != nil {
			s.logger.Warn("Native scheduling failed, falling back to poller",
				zap.String("campaign_id", c.ID.String()),
				zap.Error(pubErr),
			)
			result.Warning = "native scheduling unavailable: " + pubErr.Error()
		} else if post.Scheduled {
			via = campaign.ScheduledViaNative
			externalPostID = post.PostID
		}
	}

	if err := c.Schedule(when, via, externalPostID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.campaigns.Update(ctx, c); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCampaignStatus, string(c.Status))
	telemetry.AddEvent(span, "campaign_scheduled", "via", string(via))

	s.logger.Info("Campaign scheduled",
		zap.String("campaign_id", c.ID.String()),
		zap.Time("scheduled_at", when),
		zap.String("via", string(via)),
	)

	return result, nil
}

// Unschedule returns a scheduled campaign to draft. Unscheduling a campaign
// that is not scheduled is a no-op; the second return reports whether the
// campaign actually changed.
func (s *Service) Unschedule(ctx context.Context, id uuid.UUID) (*campaign.Campaign, bool, error) {
	c, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if err := c.Unschedule(); err != nil {
		if errors.Is(err, campaign.ErrNotScheduled) {
			return c, false, nil
		}
		return nil, false, err
	}
	if err := s.campaigns.Update(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// ---------------------------------------------------------------------------
// Publish
// ---------------------------------------------------------------------------

// Publish posts the campaign immediately. On success the campaign becomes
// PUBLISHED and the shop owner gets a notification; on failure the state is
// left unchanged and the failure is reported as a warning.
func (s *Service) Publish(ctx context.Context, id uuid.UUID) (*PublishResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "publish",
		telemetry.WithAttribute(telemetry.SpanAttrCampaignID, id.String()),
	)
	defer span.End()

	c, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if c.Status == campaign.StatusPublished {
		telemetry.RecordError(span, campaign.ErrAlreadyPublished)
		return nil, campaign.ErrAlreadyPublished
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrShopID, c.ShopID.String())

	result := &PublishResult{Campaign: c}

	post, pubErr := s.publisher.PublishPost(ctx, &campaign.PostRequest{
		Message:  c.Content.Copy,
		Hashtags: c.Content.Hashtags,
		ImageURL: c.ImageURL,
	})
	if pubErr != nil {
		telemetry.RecordError(span, pubErr)
		s.logger.Warn("Campaign publish failed",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(pubErr),
		)
		result.Warning = pubErr.Error()
		return result, nil
	}

	c.MarkPublished(post.PostID)
	if err := s.campaigns.Update(ctx, c); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrExternalPostID, post.PostID)
	result.PostID = post.PostID
	result.PostURL = post.PostURL
	s.notifyPublished(ctx, c)

	return result, nil
}

func (s *Service) notifyPublished(ctx context.Context, c *campaign.Campaign) {
	shop, err := s.shops.FindByID(ctx, c.ShopID)
	if err != nil {
		s.logger.Warn("Could not resolve shop for publish notification",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
		return
	}

	n := campaign.NewNotification(
		shop.OwnerID,
		"Campaign published",
		"Campaign \""+c.Name+"\" is now live.",
		campaign.NotificationTypeSuccess,
	)
	if err := s.notifications.Save(ctx, n); err != nil {
		s.logger.Warn("Failed to save publish notification",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
	}
}
