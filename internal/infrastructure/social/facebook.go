package social

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bva/backend/internal/domain/campaign"
	"go.uber.org/zap"
)

// Config errors
var (
	ErrFacebookConfigMissingPageID = errors.New("social: facebook page ID is required")
	ErrFacebookConfigMissingToken  = errors.New("social: facebook access token is required")
)

// FacebookConfig holds Meta Graph API credentials for one page
type FacebookConfig struct {
	GraphURL    string
	PageID      string
	AccessToken string
	Timeout     time.Duration
}

// Validate checks the presence of required credentials
func (c *FacebookConfig) Validate() error {
	if c.PageID == "" {
		return ErrFacebookConfigMissingPageID
	}
	if c.AccessToken == "" {
		return ErrFacebookConfigMissingToken
	}
	return nil
}

var _ campaign.SocialPublisher = (*FacebookPublisher)(nil)

// FacebookPublisher implements campaign.SocialPublisher against the Meta
// Graph API. A post with an image goes to /{page}/photos (URL images as a
// form field, data URLs re-encoded as a multipart upload); text-only posts
// go to /{page}/feed. A future scheduled_publish_time turns the call into a
// native scheduled post.
type FacebookPublisher struct {
	config     *FacebookConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFacebookPublisher creates a publisher for one Facebook page. Missing
// credentials are not an error here; HasCredentials gates actual publishing.
func NewFacebookPublisher(config *FacebookConfig, logger *zap.Logger) *FacebookPublisher {
	if config.GraphURL == "" {
		config.GraphURL = "https://graph.facebook.com/v18.0"
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacebookPublisher{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// HasCredentials reports whether the publisher is configured to post
func (p *FacebookPublisher) HasCredentials() bool {
	return p.config.Validate() == nil
}

// PublishPost posts a campaign to the page. Hashtags are appended to the
// caption as "#tag" tokens. A non-nil ScheduledAt asks the platform itself
// to hold the post until then.
func (p *FacebookPublisher) PublishPost(ctx context.Context, req *campaign.PostRequest) (*campaign.PostResult, error) {
	if err := p.config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", campaign.ErrPublisherUnavailable, err)
	}

	caption := buildCaption(req.Message, req.Hashtags)

	var (
		postID string
		err    error
	)
	switch {
	case req.ImageURL == "":
		postID, err = p.postFeed(ctx, caption, req.ScheduledAt)
	case strings.HasPrefix(req.ImageURL, "data:image"):
		postID, err = p.postPhotoUpload(ctx, caption, req.ImageURL, req.ScheduledAt)
	default:
		postID, err = p.postPhotoURL(ctx, caption, req.ImageURL, req.ScheduledAt)
	}
	if err != nil {
		return nil, err
	}

	p.logger.Info("published facebook post",
		zap.String("pageId", p.config.PageID),
		zap.String("postId", postID),
		zap.Bool("scheduled", req.ScheduledAt != nil))

	return &campaign.PostResult{
		PostID:    postID,
		PostURL:   fmt.Sprintf("https://facebook.com/%s", postID),
		Scheduled: req.ScheduledAt != nil,
	}, nil
}

// buildCaption appends hashtags to the message body
func buildCaption(message string, hashtags []string) string {
	if len(hashtags) == 0 {
		return message
	}
	tags := make([]string, 0, len(hashtags))
	for _, tag := range hashtags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		tags = append(tags, "#"+tag)
	}
	if len(tags) == 0 {
		return message
	}
	return message + "\n\n" + strings.Join(tags, " ")
}

// postFeed creates a text-only post via /{page}/feed
func (p *FacebookPublisher) postFeed(ctx context.Context, caption string, scheduledAt *time.Time) (string, error) {
	params := url.Values{}
	params.Set("message", caption)
	params.Set("access_token", p.config.AccessToken)
	applySchedule(params, scheduledAt)

	endpoint := fmt.Sprintf("%s/%s/feed", p.config.GraphURL, p.config.PageID)
	return p.doForm(ctx, endpoint, params)
}

// postPhotoURL creates a photo post from a hosted image via /{page}/photos
func (p *FacebookPublisher) postPhotoURL(ctx context.Context, caption, imageURL string, scheduledAt *time.Time) (string, error) {
	params := url.Values{}
	params.Set("url", imageURL)
	params.Set("message", caption)
	params.Set("access_token", p.config.AccessToken)
	applySchedule(params, scheduledAt)

	endpoint := fmt.Sprintf("%s/%s/photos", p.config.GraphURL, p.config.PageID)
	return p.doForm(ctx, endpoint, params)
}

// postPhotoUpload decodes a data URL and uploads the bytes as multipart
func (p *FacebookPublisher) postPhotoUpload(ctx context.Context, caption, dataURL string, scheduledAt *time.Time) (string, error) {
	imageBytes, err := decodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("social: invalid image data: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("source", "image.png")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(imageBytes); err != nil {
		return "", err
	}
	if err := writer.WriteField("message", caption); err != nil {
		return "", err
	}
	if err := writer.WriteField("access_token", p.config.AccessToken); err != nil {
		return "", err
	}
	if scheduledAt != nil {
		if err := writer.WriteField("scheduled_publish_time", strconv.FormatInt(scheduledAt.Unix(), 10)); err != nil {
			return "", err
		}
		if err := writer.WriteField("published", "false"); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/photos", p.config.GraphURL, p.config.PageID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	return p.execute(httpReq)
}

// applySchedule marks the post for native platform scheduling
func applySchedule(params url.Values, scheduledAt *time.Time) {
	if scheduledAt == nil {
		return
	}
	params.Set("scheduled_publish_time", strconv.FormatInt(scheduledAt.Unix(), 10))
	params.Set("published", "false")
}

// doForm posts url-encoded form params and returns the created post ID
func (p *FacebookPublisher) doForm(ctx context.Context, endpoint string, params url.Values) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return p.execute(httpReq)
}

// execute runs the request and extracts the Graph API post ID
func (p *FacebookPublisher) execute(req *http.Request) (string, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("social: facebook request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("social: reading facebook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("social: facebook API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return "", fmt.Errorf("social: unexpected facebook response: %w", err)
	}
	if result.PostID != "" {
		return result.PostID, nil
	}
	if result.ID == "" {
		return "", fmt.Errorf("social: facebook response carried no post id")
	}
	return result.ID, nil
}

// decodeDataURL strips the data URL prefix and decodes the base64 payload
func decodeDataURL(dataURL string) ([]byte, error) {
	payload := dataURL
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		payload = dataURL[idx+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}
