// Package files persists the merged, visible file set.
package files

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/client/models"
)

// Repository stores the current visible file set across all collections,
// sorted by descending creation time. ReplaceAll swaps the set wholesale;
// the diff engine persists a full merge result per page so tombstoned
// rows vanish along with the write.
type Repository interface {
	ReplaceAll(ctx context.Context, files []models.File) error
	GetAll(ctx context.Context) ([]models.File, error)
}
