// Package collections persists the synced collection set.
package collections

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/client/models"
)

// Repository stores the merged, visible (non-tombstoned) collection set.
// ReplaceAll swaps the whole set; the sync engine always persists a full
// merge result so the stored state is a consistent snapshot.
type Repository interface {
	ReplaceAll(ctx context.Context, collections []models.Collection) error
	GetAll(ctx context.Context) ([]models.Collection, error)
}
