// Package api implements the remote photovault API surface consumed by
// the sync engines and the content pipeline. All requests carry a
// bearer-style auth token header; failures are mapped to typed errors the
// core can inspect.
package api

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/client/models"
)

// Client is the transport collaborator. The retry/backoff policy lives in
// the HTTP client supplied by the caller, not here.
type Client interface {
	// GetCollections returns collections with updationTime > sinceTime.
	GetCollections(ctx context.Context, sinceTime string) ([]models.Collection, error)

	// CreateCollection creates a collection and returns the
	// server-assigned record (id, owner, updationTime populated).
	CreateCollection(ctx context.Context, c models.Collection) (models.Collection, error)

	// GetCollectionDiff returns up to limit file changes for a
	// collection with updationTime > sinceTime, ordered by updationTime.
	GetCollectionDiff(ctx context.Context, collectionID int64, sinceTime string, limit int) ([]models.File, error)

	// AddFiles attaches files (keys re-wrapped with the target
	// collection's key) to a collection.
	AddFiles(ctx context.Context, collectionID int64, files []models.CollectionFileItem) error

	// RemoveFiles detaches files from a collection.
	RemoveFiles(ctx context.Context, collectionID int64, fileIDs []int64) error

	// GetPreview fetches the encrypted thumbnail bytes of a file.
	GetPreview(ctx context.Context, fileID int64) ([]byte, error)

	// GetFile fetches the encrypted original bytes of a file.
	GetFile(ctx context.Context, fileID int64) ([]byte, error)

	// Close releases transport resources.
	Close() error
}
