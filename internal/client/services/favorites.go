package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/client/api"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/files"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/logging"
)

const favoritesName = "Favorites"

// FavoritesService manages the user's favorites collection: membership
// queries against the synced file set and add/remove mutations.
type FavoritesService interface {
	// FavoriteCollection returns the cached favorites collection with
	// its key unwrapped. ok is false when none has been observed yet.
	FavoriteCollection(ctx context.Context) (c models.Collection, ok bool, err error)

	// FavoriteFileIDs returns the ids of files currently in the
	// favorites collection.
	FavoriteFileIDs(ctx context.Context) (map[int64]struct{}, error)

	// Add puts a file into the favorites collection, creating the
	// collection on first use. The file key is re-wrapped with the
	// favorites collection key.
	Add(ctx context.Context, f models.File) error

	// Remove takes a file out of the favorites collection.
	Remove(ctx context.Context, f models.File) error
}

type favoritesService struct {
	client      api.Client
	keys        *KeyService
	collections CollectionService
	db          *sql.DB
	log         logging.Logger
}

// NewFavoritesService constructs the favorites manager.
func NewFavoritesService(client api.Client, keys *KeyService, collections CollectionService, db *sql.DB, log logging.Logger) FavoritesService {
	return &favoritesService{
		client:      client,
		keys:        keys,
		collections: collections,
		db:          db,
		log:         log.With("service", "favorites"),
	}
}

func (s *favoritesService) FavoriteCollection(ctx context.Context) (models.Collection, bool, error) {
	raw, err := metadata.NewSQLiteRepository(s.db).Get(ctx, metadata.KeyFavCollection)
	if err != nil {
		return models.Collection{}, false, fmt.Errorf("load favorites pointer: %w", err)
	}
	if raw == nil {
		return models.Collection{}, false, nil
	}

	var c models.Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Collection{}, false, fmt.Errorf("decode favorites pointer: %w", err)
	}

	key, err := s.keys.UnwrapCollectionKey(&c)
	if err != nil {
		return models.Collection{}, false, err
	}
	c.Key = key
	return c, true, nil
}

func (s *favoritesService) FavoriteFileIDs(ctx context.Context) (map[int64]struct{}, error) {
	fav, ok, err := s.FavoriteCollection(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{})
	if !ok {
		return ids, nil
	}

	all, err := files.NewSQLiteRepository(s.db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load local files: %w", err)
	}
	for _, f := range all {
		if f.CollectionID == fav.ID {
			ids[f.ID] = struct{}{}
		}
	}
	return ids, nil
}

func (s *favoritesService) Add(ctx context.Context, f models.File) error {
	if f.Key == nil {
		// an absent key must not be re-wrapped into an empty one
		return fmt.Errorf("favorite file %d: %w", f.ID, common.ErrMissingKey)
	}

	fav, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}

	encryptedKey, nonce, err := cryptox.SecretboxSeal(f.Key, fav.Key)
	if err != nil {
		return fmt.Errorf("rewrap file key: %w", err)
	}

	item := models.CollectionFileItem{
		ID:                 f.ID,
		EncryptedKey:       cryptox.ToB64(encryptedKey),
		KeyDecryptionNonce: cryptox.ToB64(nonce),
	}
	if err := s.client.AddFiles(ctx, fav.ID, []models.CollectionFileItem{item}); err != nil {
		return fmt.Errorf("add file %d to favorites: %w", f.ID, err)
	}
	s.log.Info(ctx, "file favorited", "file", f.ID)
	return nil
}

func (s *favoritesService) Remove(ctx context.Context, f models.File) error {
	fav, ok, err := s.FavoriteCollection(ctx)
	if err != nil {
		return err
	}
	if !ok {
		// nothing to remove from
		return nil
	}
	if err := s.client.RemoveFiles(ctx, fav.ID, []int64{f.ID}); err != nil {
		return fmt.Errorf("remove file %d from favorites: %w", f.ID, err)
	}
	s.log.Info(ctx, "file unfavorited", "file", f.ID)
	return nil
}

// ensureCollection returns the favorites collection, creating it on
// first use and caching the pointer so later lookups skip the network.
func (s *favoritesService) ensureCollection(ctx context.Context) (models.Collection, error) {
	fav, ok, err := s.FavoriteCollection(ctx)
	if err != nil {
		return models.Collection{}, err
	}
	if ok {
		return fav, nil
	}

	created, err := s.collections.Create(ctx, favoritesName, models.CollectionTypeFavorites)
	if err != nil {
		return models.Collection{}, err
	}

	encoded, err := json.Marshal(created)
	if err != nil {
		return models.Collection{}, fmt.Errorf("encode favorites pointer: %w", err)
	}
	repo := metadata.NewSQLiteRepository(s.db)
	if existing, err := repo.Get(ctx, metadata.KeyFavCollection); err != nil {
		return models.Collection{}, err
	} else if existing == nil {
		if err := repo.Set(ctx, metadata.KeyFavCollection, encoded); err != nil {
			return models.Collection{}, fmt.Errorf("cache favorites pointer: %w", err)
		}
	}
	return created, nil
}
