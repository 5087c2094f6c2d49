package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	"github.com/dmitrijs2005/photovault/internal/client/api"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/collections"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/files"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/logging"
)

// Snapshot is one progressive view of the file set during a diff sync.
// Changed reports whether the applied page contained at least one
// surviving non-tombstone change, so the caller knows when derived views
// (such as favorites) need refreshing.
type Snapshot struct {
	Files   []models.File
	Changed bool
}

// SnapshotFunc receives snapshots as pages are applied. Returning an
// error aborts the sync.
type SnapshotFunc func(Snapshot) error

// FileService reconciles the local file set with the remote, one
// collection at a time, through the paged change feed.
type FileService interface {
	// Sync pages through each collection's change feed, merging pages
	// into the local set and persisting list + cursor atomically per
	// page. since, when non-empty, overrides the persisted cursor for
	// every collection; otherwise each collection resumes from its own.
	// emit (optional) is called once per applied page so callers can
	// render progressively. Collections are processed sequentially; a
	// tombstoned collection is skipped, leaving its files in place.
	Sync(ctx context.Context, collections []models.Collection, since string, emit SnapshotFunc) ([]models.File, error)

	// Local returns the persisted visible file set, newest first, with
	// file keys unwrapped again through their owning collections.
	Local(ctx context.Context) ([]models.File, error)
}

type fileService struct {
	client   api.Client
	keys     *KeyService
	db       *sql.DB
	pageSize int
	log      logging.Logger
}

// NewFileService constructs the file diff sync engine. pageSize bounds
// each change-feed request.
func NewFileService(client api.Client, keys *KeyService, db *sql.DB, pageSize int, log logging.Logger) FileService {
	return &fileService{client: client, keys: keys, db: db, pageSize: pageSize, log: log.With("service", "files")}
}

func (s *fileService) Sync(ctx context.Context, collectionSet []models.Collection, since string, emit SnapshotFunc) ([]models.File, error) {
	metadataRepo := metadata.NewSQLiteRepository(s.db)

	current, err := s.Local(ctx)
	if err != nil {
		return nil, err
	}

	for _, collection := range collectionSet {
		if collection.IsDeleted {
			// orphaned files stay put; garbage collection is a
			// separate policy, not a side effect of sync
			continue
		}

		cursor := since
		if cursor == "" {
			cursor, err = s.loadCursor(ctx, metadataRepo, collection.ID)
			if err != nil {
				return nil, err
			}
		}

		for {
			page, err := s.client.GetCollectionDiff(ctx, collection.ID, cursor, s.pageSize)
			if err != nil {
				return nil, fmt.Errorf("fetch diff for collection %d: %w", collection.ID, err)
			}
			if len(page) == 0 {
				break
			}

			for i := range page {
				if page[i].IsDeleted {
					continue
				}
				if err := s.decryptFile(&page[i], collection.Key); err != nil {
					return nil, err
				}
			}

			merged, changed := MergePage(current, page)
			current = merged

			// pages must be applied in fetch order: this page's last
			// updationTime is the next page's starting cursor
			cursor = strconv.FormatInt(page[len(page)-1].UpdationTime, 10)

			err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
				if err := files.NewSQLiteRepository(tx).ReplaceAll(ctx, current); err != nil {
					return err
				}
				return metadata.NewSQLiteRepository(tx).Set(ctx,
					metadata.CollectionTimeKey(collection.ID), []byte(cursor))
			})
			if err != nil {
				return nil, fmt.Errorf("persist files for collection %d: %w", collection.ID, err)
			}

			if emit != nil {
				if err := emit(Snapshot{Files: current, Changed: changed}); err != nil {
					return nil, err
				}
			}

			if len(page) < s.pageSize {
				// short page: this collection has converged
				break
			}
		}
	}

	s.log.Info(ctx, "files synced", "collections", len(collectionSet), "files", len(current))
	return current, nil
}

func (s *fileService) Local(ctx context.Context) ([]models.File, error) {
	list, err := files.NewSQLiteRepository(s.db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load local files: %w", err)
	}
	return s.unwrapAll(ctx, list)
}

// unwrapAll restores file keys on files read back from the store. Only
// the collection-wrapped form is persisted, so every key is unwrapped
// again through its owning collection. A file whose collection is no
// longer present locally stays listed with a nil key; it cannot be
// decrypted or re-shared until a sync brings the collection back.
func (s *fileService) unwrapAll(ctx context.Context, list []models.File) ([]models.File, error) {
	if len(list) == 0 {
		return list, nil
	}

	local, err := collections.NewSQLiteRepository(s.db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load local collections: %w", err)
	}
	keys := make(map[int64][]byte, len(local))
	for i := range local {
		key, err := s.keys.UnwrapCollectionKey(&local[i])
		if err != nil {
			return nil, err
		}
		keys[local[i].ID] = key
	}

	for i := range list {
		if list[i].Key != nil {
			continue
		}
		collectionKey, ok := keys[list[i].CollectionID]
		if !ok {
			continue
		}
		key, err := s.keys.UnwrapFileKey(&list[i], collectionKey)
		if err != nil {
			return nil, err
		}
		list[i].Key = key
	}
	return list, nil
}

// MergePage merges a fetched page into the existing file set:
// last-write-wins per (collectionID, id) on updationTime, tombstoned
// winners dropped, result sorted by descending creation time so
// downstream rendering needs no further sorting. Pure and idempotent:
// merging the same page twice yields the same set.
func MergePage(existing, page []models.File) (merged []models.File, changed bool) {
	latest := make(map[string]models.File, len(existing)+len(page))
	for _, f := range existing {
		uid := f.UID()
		if cur, ok := latest[uid]; !ok || cur.UpdationTime < f.UpdationTime {
			latest[uid] = f
		}
	}
	for _, f := range page {
		uid := f.UID()
		if cur, ok := latest[uid]; !ok || cur.UpdationTime < f.UpdationTime {
			latest[uid] = f
			if !f.IsDeleted {
				changed = true
			}
		}
	}

	merged = make([]models.File, 0, len(latest))
	for _, f := range latest {
		if !f.IsDeleted {
			merged = append(merged, f)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Info.CreationTime != merged[j].Info.CreationTime {
			return merged[i].Info.CreationTime > merged[j].Info.CreationTime
		}
		return merged[i].ID > merged[j].ID
	})
	return merged, changed
}

// decryptFile unwraps the file key and decrypts metadata in place.
func (s *fileService) decryptFile(f *models.File, collectionKey []byte) error {
	key, err := s.keys.UnwrapFileKey(f, collectionKey)
	if err != nil {
		return err
	}
	f.Key = key

	info, err := s.keys.DecryptMetadata(f, key)
	if err != nil {
		return err
	}
	f.Info = info
	return nil
}

func (s *fileService) loadCursor(ctx context.Context, repo metadata.Repository, collectionID int64) (string, error) {
	raw, err := repo.Get(ctx, metadata.CollectionTimeKey(collectionID))
	if err != nil {
		return "", fmt.Errorf("load cursor for collection %d: %w", collectionID, err)
	}
	if raw == nil {
		return "0", nil
	}
	return string(raw), nil
}
