package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bva/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Campaign Errors
// ---------------------------------------------------------------------------

var (
	ErrCampaignNotFound     = errors.New("campaign: campaign not found")
	ErrScheduleTimeInPast   = errors.New("campaign: scheduled time must be in the future")
	ErrNotScheduled         = errors.New("campaign: campaign is not scheduled")
	ErrAlreadyPublished     = errors.New("campaign: campaign is already published")
	ErrInvalidCampaign      = errors.New("campaign: invalid campaign")
	ErrPublisherUnavailable = errors.New("campaign: social publisher not configured")
)

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status represents the campaign lifecycle state
type Status string

const (
	// StatusDraft is the initial state; also the terminal state after
	// exhausted publish retries
	StatusDraft Status = "DRAFT"
	// StatusScheduled means the campaign is queued for publishing
	StatusScheduled Status = "SCHEDULED"
	// StatusPublished means the post is live on the external platform
	StatusPublished Status = "PUBLISHED"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ScheduledVia identifies which mechanism will publish a scheduled campaign
type ScheduledVia string

const (
	// ScheduledViaNative means the external platform's own scheduling API
	// accepted the post and will publish it
	ScheduledViaNative ScheduledVia = "native"
	// ScheduledViaPoller means the internal poller publishes the campaign
	// when it comes due
	ScheduledViaPoller ScheduledVia = "poller"
)

// ---------------------------------------------------------------------------
// Content
// ---------------------------------------------------------------------------

// Content is the campaign payload blob: ad copy, targeting hints, and the
// publish audit trail. Unknown keys in the stored JSON are preserved in
// Extra so forward-compatible fields survive updates.
type Content struct {
	// Copy is the ad copy text
	Copy string
	// Playbook is the generation playbook the copy came from
	Playbook string
	// Hashtags are appended to the caption at publish time
	Hashtags []string
	// Platform is the social platform the campaign targets
	Platform string
	// ScheduledVia records which mechanism owns the pending publish
	ScheduledVia ScheduledVia
	// ExternalPostID is the platform's post identifier once known
	ExternalPostID string
	// PublishRetryCount counts failed poller publish attempts
	PublishRetryCount int
	// PublishedAt is when the post went live
	PublishedAt *time.Time
	// LastPublishError is the most recent publish failure message
	LastPublishError string
	// Extra holds forward-compatible keys
	Extra map[string]any
}

type contentJSON struct {
	Copy              string       `json:"copy,omitempty"`
	Playbook          string       `json:"playbook,omitempty"`
	Hashtags          []string     `json:"hashtags,omitempty"`
	Platform          string       `json:"platform,omitempty"`
	ScheduledVia      ScheduledVia `json:"scheduledVia,omitempty"`
	ExternalPostID    string       `json:"externalPostId,omitempty"`
	PublishRetryCount int          `json:"publishRetryCount,omitempty"`
	PublishedAt       *time.Time   `json:"publishedAt,omitempty"`
	LastPublishError  string       `json:"lastPublishError,omitempty"`
}

var knownContentKeys = map[string]struct{}{
	"copy":              {},
	"playbook":          {},
	"hashtags":          {},
	"platform":          {},
	"scheduledVia":      {},
	"externalPostId":    {},
	"publishRetryCount": {},
	"publishedAt":       {},
	"lastPublishError":  {},
}

// MarshalJSON serializes known fields and re-emits preserved Extra keys.
func (c Content) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+9)
	for k, v := range c.Extra {
		out[k] = v
	}
	known, err := json.Marshal(contentJSON{
		Copy:              c.Copy,
		Playbook:          c.Playbook,
		Hashtags:          c.Hashtags,
		Platform:          c.Platform,
		ScheduledVia:      c.ScheduledVia,
		ExternalPostID:    c.ExternalPostID,
		PublishRetryCount: c.PublishRetryCount,
		PublishedAt:       c.PublishedAt,
		LastPublishError:  c.LastPublishError,
	})
	if err != nil {
		return nil, err
	}
	var knownMap map[string]any
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses known fields and stashes unknown keys in Extra.
func (c *Content) UnmarshalJSON(data []byte) error {
	var known contentJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extra := make(map[string]any)
	for k, v := range raw {
		if _, ok := knownContentKeys[k]; ok {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		extra[k] = val
	}
	if len(extra) == 0 {
		extra = nil
	}
	*c = Content{
		Copy:              known.Copy,
		Playbook:          known.Playbook,
		Hashtags:          known.Hashtags,
		Platform:          known.Platform,
		ScheduledVia:      known.ScheduledVia,
		ExternalPostID:    known.ExternalPostID,
		PublishRetryCount: known.PublishRetryCount,
		PublishedAt:       known.PublishedAt,
		LastPublishError:  known.LastPublishError,
		Extra:             extra,
	}
	return nil
}

// ---------------------------------------------------------------------------
// Campaign Entity
// ---------------------------------------------------------------------------

// Campaign is an ad campaign in one of DRAFT, SCHEDULED, or PUBLISHED.
// All status transitions go through the methods below.
type Campaign struct {
	shared.BaseEntity
	// ShopID is the shop the campaign advertises for
	ShopID uuid.UUID
	// Name is the campaign display name
	Name string
	// Content carries the ad payload and publish audit trail
	Content Content
	// ImageURL is denormalized out of Content for direct querying
	ImageURL string
	// Status is the lifecycle state
	Status Status
	// ScheduledAt is when a SCHEDULED campaign comes due
	ScheduledAt *time.Time
}

// NewCampaign creates a draft campaign
func NewCampaign(shopID uuid.UUID, name string, content Content, imageURL string) (*Campaign, error) {
	if shopID == uuid.Nil || name == "" {
		return nil, ErrInvalidCampaign
	}
	return &Campaign{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		Name:       name,
		Content:    content,
		ImageURL:   imageURL,
		Status:     StatusDraft,
	}, nil
}

// Schedule moves the campaign to SCHEDULED for the given time. The time must
// be strictly in the future.
func (c *Campaign) Schedule(when time.Time, via ScheduledVia, externalPostID string) error {
	if c.Status == StatusPublished {
		return ErrAlreadyPublished
	}
	if !when.After(time.Now()) {
		return ErrScheduleTimeInPast
	}
	c.Status = StatusScheduled
	c.ScheduledAt = &when
	c.Content.ScheduledVia = via
	c.Content.ExternalPostID = externalPostID
	c.Content.PublishRetryCount = 0
	c.Content.LastPublishError = ""
	c.Touch()
	return nil
}

// Unschedule returns a SCHEDULED campaign to DRAFT.
func (c *Campaign) Unschedule() error {
	if c.Status != StatusScheduled {
		return ErrNotScheduled
	}
	c.Status = StatusDraft
	c.ScheduledAt = nil
	c.Content.ScheduledVia = ""
	c.Touch()
	return nil
}

// MarkPublished moves the campaign to PUBLISHED and records the external
// post identity.
func (c *Campaign) MarkPublished(externalPostID string) {
	now := time.Now()
	c.Status = StatusPublished
	c.Content.ExternalPostID = externalPostID
	c.Content.PublishedAt = &now
	c.Content.LastPublishError = ""
	c.ScheduledAt = nil
	c.Touch()
}

// RecordPublishFailure increments the retry counter and, once maxRetries is
// exceeded, forces the campaign back to DRAFT. Returns true when the
// campaign gave up and needs manual attention.
func (c *Campaign) RecordPublishFailure(errMsg string, maxRetries int) bool {
	c.Content.PublishRetryCount++
	c.Content.LastPublishError = errMsg
	c.Touch()
	if c.Content.PublishRetryCount < maxRetries {
		return false
	}
	c.Status = StatusDraft
	c.ScheduledAt = nil
	c.Content.ScheduledVia = ""
	return true
}

// IsDue reports whether a SCHEDULED campaign should be published now.
func (c *Campaign) IsDue(now time.Time) bool {
	return c.Status == StatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now)
}

// ---------------------------------------------------------------------------
// Repository Port
// ---------------------------------------------------------------------------

// Repository defines persistence operations for campaigns
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	FindByShop(ctx context.Context, shopID uuid.UUID) ([]Campaign, error)
	// FindDue returns SCHEDULED campaigns with ScheduledAt <= now
	FindDue(ctx context.Context, now time.Time) ([]Campaign, error)
	Save(ctx context.Context, campaign *Campaign) error
	Update(ctx context.Context, campaign *Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
}
