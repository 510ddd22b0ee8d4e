package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bva/backend/internal/domain/campaign"
	"github.com/bva/backend/internal/domain/commerce"
	"github.com/bva/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Test Fakes
// ---------------------------------------------------------------------------

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*campaign.Campaign
	findErr   error
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[uuid.UUID]*campaign.Campaign)}
}

func (r *fakeCampaignRepo) FindByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, campaign.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) FindByShop(ctx context.Context, shopID uuid.UUID) ([]campaign.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []campaign.Campaign
	for _, c := range r.campaigns {
		if c.ShopID == shopID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) FindDue(ctx context.Context, now time.Time) ([]campaign.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []campaign.Campaign
	for _, c := range r.campaigns {
		if c.IsDue(now) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) Save(ctx context.Context, c *campaign.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, c *campaign.Campaign) error {
	return r.Save(ctx, c)
}

func (r *fakeCampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.campaigns, id)
	return nil
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	saved []*campaign.Notification
}

func (r *fakeNotificationRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]campaign.Notification, error) {
	return nil, nil
}

func (r *fakeNotificationRepo) Save(ctx context.Context, n *campaign.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, n)
	return nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return nil
}

type fakeShopRepo struct {
	shops map[uuid.UUID]*commerce.Shop
}

func (r *fakeShopRepo) FindByID(ctx context.Context, id uuid.UUID) (*commerce.Shop, error) {
	s, ok := r.shops[id]
	if !ok {
		return nil, commerce.ErrShopNotFound
	}
	return s, nil
}

func (r *fakeShopRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]commerce.Shop, error) {
	return nil, nil
}

func (r *fakeShopRepo) FindAccessible(ctx context.Context, userID uuid.UUID) ([]commerce.Shop, error) {
	return nil, nil
}

func (r *fakeShopRepo) Save(ctx context.Context, shop *commerce.Shop) error {
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	calls    int
	messages []string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{}
}

func (p *fakePublisher) PublishPost(ctx context.Context, req *campaign.PostRequest) (*campaign.PostResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.messages = append(p.messages, req.Message)
	return &campaign.PostResult{PostID: "post-123"}, nil
}

func (p *fakePublisher) HasCredentials() bool { return true }

// failingPublisher fails every publish with a fixed error
type failingPublisher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *failingPublisher) PublishPost(ctx context.Context, req *campaign.PostRequest) (*campaign.PostResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return nil, p.err
}

func (p *failingPublisher) HasCredentials() bool { return true }

// selectivePublisher fails for one message and succeeds for everything else
type selectivePublisher struct {
	failMessage string
}

func (p *selectivePublisher) PublishPost(ctx context.Context, req *campaign.PostRequest) (*campaign.PostResult, error) {
	if req.Message == p.failMessage {
		return nil, errors.New("graph api rejected the post")
	}
	return &campaign.PostResult{PostID: "post-ok"}, nil
}

func (p *selectivePublisher) HasCredentials() bool { return true }

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

type pollerEnv struct {
	poller        *CampaignPoller
	campaigns     *fakeCampaignRepo
	notifications *fakeNotificationRepo
	shop          *commerce.Shop
}

func newPollerEnv(t *testing.T, publisher campaign.SocialPublisher) *pollerEnv {
	t.Helper()

	shop, err := commerce.NewShop("Test Shop", uuid.New(), integration.PlatformCodeShopee)
	require.NoError(t, err)

	campaigns := newFakeCampaignRepo()
	notifications := &fakeNotificationRepo{}
	shops := &fakeShopRepo{shops: map[uuid.UUID]*commerce.Shop{shop.ID: shop}}

	poller, err := NewCampaignPoller(
		DefaultCampaignPollerConfig(),
		campaigns, notifications, shops, publisher,
		zap.NewNop(),
	)
	require.NoError(t, err)

	return &pollerEnv{
		poller:        poller,
		campaigns:     campaigns,
		notifications: notifications,
		shop:          shop,
	}
}

func dueCampaign(t *testing.T, shopID uuid.UUID, via campaign.ScheduledVia, copy string) *campaign.Campaign {
	t.Helper()

	c, err := campaign.NewCampaign(shopID, "Spring Sale", campaign.Content{
		Copy:     copy,
		Hashtags: []string{"sale"},
	}, "https://cdn.example.com/ad.png")
	require.NoError(t, err)

	externalID := ""
	if via == campaign.ScheduledViaNative {
		externalID = "native-post-1"
	}
	require.NoError(t, c.Schedule(time.Now().Add(time.Minute), via, externalID))

	// Backdate so the campaign is due
	past := time.Now().Add(-time.Minute)
	c.ScheduledAt = &past
	return c
}

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestCampaignPollerConfig_Validate(t *testing.T) {
	cfg := DefaultCampaignPollerConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Interval = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = cfg
	bad.MaxPublishRetries = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = cfg
	bad.TickTimeout = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}

// ---------------------------------------------------------------------------
// Tick Tests
// ---------------------------------------------------------------------------

func TestCampaignPoller_Tick_PublishesDueCampaign(t *testing.T) {
	publisher := newFakePublisher()
	env := newPollerEnv(t, publisher)
	ctx := context.Background()

	c := dueCampaign(t, env.shop.ID, campaign.ScheduledViaPoller, "Big savings this week")
	require.NoError(t, env.campaigns.Save(ctx, c))

	env.poller.Tick(ctx)

	got, err := env.campaigns.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusPublished, got.Status)
	assert.Equal(t, "post-123", got.Content.ExternalPostID)
	assert.NotNil(t, got.Content.PublishedAt)
	assert.Nil(t, got.ScheduledAt)
	assert.Equal(t, 1, publisher.calls)

	require.Len(t, env.notifications.saved, 1)
	n := env.notifications.saved[0]
	assert.Equal(t, env.shop.OwnerID, n.UserID)
	assert.Equal(t, campaign.NotificationTypeSuccess, n.Type)
	assert.Contains(t, n.Message, "Spring Sale")
}

func TestCampaignPoller_Tick_SkipsFutureCampaigns(t *testing.T) {
	publisher := newFakePublisher()
	env := newPollerEnv(t, publisher)
	ctx := context.Background()

	c, err := campaign.NewCampaign(env.shop.ID, "Later", campaign.Content{Copy: "soon"}, "")
	require.NoError(t, err)
	require.NoError(t, c.Schedule(time.Now().Add(time.Hour), campaign.ScheduledViaPoller, ""))
	require.NoError(t, env.campaigns.Save(ctx, c))

	env.poller.Tick(ctx)

	got, err := env.campaigns.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusScheduled, got.Status)
	assert.Equal(t, 0, publisher.calls)
}

func TestCampaignPoller_Tick_NativeCampaignConfirmedWithoutPublish(t *testing.T) {
	publisher := newFakePublisher()
	env := newPollerEnv(t, publisher)
	ctx := context.Background()

	c := dueCampaign(t, env.shop.ID, campaign.ScheduledViaNative, "platform owns this")
	require.NoError(t, env.campaigns.Save(ctx, c))

	env.poller.Tick(ctx)

	got, err := env.campaigns.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusPublished, got.Status)
	assert.Equal(t, "native-post-1", got.Content.ExternalPostID)
	assert.Equal(t, 0, publisher.calls)
}

func TestCampaignPoller_Tick_FailureIncrementsRetryAndStaysScheduled(t *testing.T) {
	publisher := &failingPublisher{err: errors.New("graph api down")}
	env := newPollerEnv(t, publisher)
	ctx := context.Background()

	c := dueCampaign(t, env.shop.ID, campaign.ScheduledViaPoller, "retry me")
	require.NoError(t, env.campaigns.Save(ctx, c))

	env.poller.Tick(ctx)

	got, err := env.campaigns.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusScheduled, got.Status)
	assert.Equal(t, 1, got.Content.PublishRetryCount)
	assert.Contains(t, got.Content.LastPublishError, "graph api down")
	assert.Empty(t, env.notifications.saved)
}

func TestCampaignPoller_Tick_ExhaustedRetriesForceDraftAndNotify(t *testing.T) {
	publisher := &failingPublisher{err: errors.New("graph api down")}
	env := newPollerEnv(t, publisher)
	ctx := context.Background()

	c := dueCampaign(t, env.shop.ID, campaign.ScheduledViaPoller, "doomed")
	require.NoError(t, env.campaigns.Save(ctx, c))

	// Default config allows three attempts
	env.poller.Tick(ctx)
	env.poller.Tick(ctx)
	env.poller.Tick(ctx)

	got, err := env.campaigns.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusDraft, got.Status)
	assert.Nil(t, got.ScheduledAt)
	assert.Equal(t, 3, got.Content.PublishRetryCount)
	assert.Equal(t, 3, publisher.calls)

	require.Len(t, env.notifications.saved, 1)
	n := env.notifications.saved[0]
	assert.Equal(t, env.shop.OwnerID, n.UserID)
	assert.Equal(t, campaign.NotificationTypeError, n.Type)
	assert.Contains(t, n.Message, "Spring Sale")
	assert.Contains(t, n.Message, "graph api down")

	// A draft campaign is no longer due; further ticks do nothing
	env.poller.Tick(ctx)
	assert.Equal(t, 3, publisher.calls)
}

func TestCampaignPoller_Tick_OneFailureDoesNotBlockOthers(t *testing.T) {
	publisher := &selectivePublisher{failMessage: "bad"}
	env := newPollerEnv(t, publisher)
	ctx := context.Background()

	failing := dueCampaign(t, env.shop.ID, campaign.ScheduledViaPoller, "bad")
	healthy := dueCampaign(t, env.shop.ID, campaign.ScheduledViaPoller, "good")
	require.NoError(t, env.campaigns.Save(ctx, failing))
	require.NoError(t, env.campaigns.Save(ctx, healthy))

	env.poller.Tick(ctx)

	gotFailing, err := env.campaigns.FindByID(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusScheduled, gotFailing.Status)
	assert.Equal(t, 1, gotFailing.Content.PublishRetryCount)

	gotHealthy, err := env.campaigns.FindByID(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusPublished, gotHealthy.Status)
}

// ---------------------------------------------------------------------------
// Lifecycle Tests
// ---------------------------------------------------------------------------

func TestCampaignPoller_StartStop(t *testing.T) {
	publisher := newFakePublisher()
	env := newPollerEnv(t, publisher)
	ctx := context.Background()

	require.NoError(t, env.poller.Start(ctx))
	// Starting twice is a no-op
	require.NoError(t, env.poller.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, env.poller.Stop(stopCtx))
	// Stopping twice is a no-op
	require.NoError(t, env.poller.Stop(stopCtx))
}

func TestNewCampaignPoller_RejectsInvalidConfig(t *testing.T) {
	_, err := NewCampaignPoller(CampaignPollerConfig{}, nil, nil, nil, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
