package campaign

import "context"

// ImageStore hosts campaign ad images so that social platforms can fetch
// them by URL. Implementations live in the infrastructure layer.
type ImageStore interface {
	// StoreDataURL persists the image encoded in a base64 data URL under
	// the given key prefix and returns a publicly reachable URL for it.
	StoreDataURL(ctx context.Context, keyPrefix, dataURL string) (string, error)

	// Delete removes a previously stored image. Deleting a key that does
	// not exist is not an error.
	Delete(ctx context.Context, storageKey string) error
}
