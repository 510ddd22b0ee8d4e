package storage

import (
	"context"

	campaignapp "github.com/bva/backend/internal/application/campaign"
)

// PassthroughImageStore is used when object storage is disabled. It hands
// the data URL straight back so the social adapter falls back to a direct
// multipart upload instead of a hosted image URL.
type PassthroughImageStore struct{}

// NewPassthroughImageStore creates a new PassthroughImageStore
func NewPassthroughImageStore() *PassthroughImageStore {
	return &PassthroughImageStore{}
}

// Ensure PassthroughImageStore implements ImageStore
var _ campaignapp.ImageStore = (*PassthroughImageStore)(nil)

// StoreDataURL returns the data URL unchanged
func (s *PassthroughImageStore) StoreDataURL(ctx context.Context, keyPrefix, dataURL string) (string, error) {
	return dataURL, nil
}

// Delete is a no-op
func (s *PassthroughImageStore) Delete(ctx context.Context, storageKey string) error {
	return nil
}
