package services

import "github.com/dmitrijs2005/photovault/internal/client/models"

// CollectionSummary pairs a collection with its newest file, for gallery
// headers.
type CollectionSummary struct {
	Collection models.Collection
	LatestFile *models.File
}

// CollectionsWithLatestFile projects each collection owned by userID
// (favorites excluded) onto its newest contained file. Files is expected
// sorted newest first, as both Sync and Local return it, so the first
// match per collection wins. Collections with no files yet are included
// with a nil LatestFile.
func CollectionsWithLatestFile(collections []models.Collection, files []models.File, userID int64) []CollectionSummary {
	latest := make(map[int64]*models.File, len(collections))
	for i := range files {
		f := &files[i]
		if _, ok := latest[f.CollectionID]; !ok {
			latest[f.CollectionID] = f
		}
	}

	result := make([]CollectionSummary, 0, len(collections))
	for _, c := range collections {
		if c.Owner.ID != userID || c.Type == models.CollectionTypeFavorites {
			continue
		}
		result = append(result, CollectionSummary{Collection: c, LatestFile: latest[c.ID]})
	}
	return result
}
