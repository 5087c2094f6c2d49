// Package metadata is the key-value corner of the local durable store.
// It holds the per-collection sync cursors, the global collection cursor,
// the cached favorites-collection pointer, and the user's key attributes.
package metadata

import (
	"context"
	"fmt"
)

// Well-known keys.
const (
	// KeyCollectionUpdationTime is the global cursor for the collection
	// list itself.
	KeyCollectionUpdationTime = "collection-updation-time"

	// KeyFavCollection caches the favorites-collection pointer (JSON).
	KeyFavCollection = "fav-collection"

	// KeyKeyAttributes caches the user's key attributes (JSON).
	KeyKeyAttributes = "key-attributes"

	// KeyUserID holds the current user's id, needed to pick the
	// owner-wrapped vs share-wrapped key unwrap branch.
	KeyUserID = "user-id"

	// KeyAuthToken holds the API auth token for the current session.
	KeyAuthToken = "auth-token"
)

// CollectionTimeKey returns the per-collection sync cursor key.
func CollectionTimeKey(collectionID int64) string {
	return fmt.Sprintf("%d-time", collectionID)
}

// Repository is a namespaced key-value store. Get returns nil (no error)
// for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
