package campaign

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// SocialPublisher Port Interface
// ---------------------------------------------------------------------------

// PostRequest describes a post to create on the external social platform
type PostRequest struct {
	// Message is the ad copy; hashtags are appended by the adapter
	Message string
	// Hashtags are rendered as "#tag" and appended to the caption
	Hashtags []string
	// ImageURL is either an http(s) URL or a base64 data URI
	ImageURL string
	// ScheduledAt requests native platform scheduling when set; nil means
	// publish immediately
	ScheduledAt *time.Time
}

// PostResult is the outcome of a successful post creation
type PostResult struct {
	// PostID is the platform's identifier for the created post
	PostID string
	// PostURL is a browser link to the post
	PostURL string
	// Scheduled reports whether the platform accepted a native schedule
	Scheduled bool
}

// SocialPublisher defines the port interface for the external social media
// platform. The concrete Graph API adapter lives in the infrastructure layer.
type SocialPublisher interface {
	// PublishPost creates a post. With ScheduledAt set it attempts the
	// platform's native scheduled-publish; otherwise the post goes live
	// immediately.
	PublishPost(ctx context.Context, req *PostRequest) (*PostResult, error)

	// HasCredentials reports whether the adapter is configured well enough
	// to attempt a publish at all.
	HasCredentials() bool
}
