package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/photovault/internal/client/api"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/collections"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/logging"
)

// CollectionService reconciles the local collection set with the remote.
type CollectionService interface {
	// Sync fetches collections changed since the persisted cursor,
	// unwraps their secrets, merges them into the local set
	// (last-write-wins on updationTime, tombstones dropped), persists
	// set and cursor atomically, and returns the visible set with keys
	// unwrapped.
	Sync(ctx context.Context) ([]models.Collection, error)

	// Local returns the persisted collection set with keys unwrapped,
	// without touching the network.
	Local(ctx context.Context) ([]models.Collection, error)

	// Create creates a collection of the given type: generates its key,
	// wraps it with the master key, encrypts the name with the
	// collection key, and returns the server-assigned record with
	// secrets unwrapped.
	Create(ctx context.Context, name string, typ models.CollectionType) (models.Collection, error)

	// CreateAlbum is Create with the album type.
	CreateAlbum(ctx context.Context, name string) (models.Collection, error)
}

type collectionService struct {
	client api.Client
	keys   *KeyService
	db     *sql.DB
	log    logging.Logger
}

// NewCollectionService constructs the collection sync engine.
func NewCollectionService(client api.Client, keys *KeyService, db *sql.DB, log logging.Logger) CollectionService {
	return &collectionService{client: client, keys: keys, db: db, log: log.With("service", "collections")}
}

func (s *collectionService) Sync(ctx context.Context) ([]models.Collection, error) {
	metadataRepo := metadata.NewSQLiteRepository(s.db)
	collectionRepo := collections.NewSQLiteRepository(s.db)

	local, err := collectionRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load local collections: %w", err)
	}

	cursor, err := s.loadCursor(ctx, metadataRepo)
	if err != nil {
		return nil, err
	}

	fetched, err := s.client.GetCollections(ctx, strconv.FormatInt(cursor, 10))
	if err != nil {
		return nil, fmt.Errorf("fetch collections: %w", err)
	}

	if len(fetched) == 0 {
		// nothing changed remotely; the persisted state stays valid
		return s.unwrapAll(local)
	}

	for i := range fetched {
		if fetched[i].IsDeleted {
			continue
		}
		if err := s.unwrapSecrets(&fetched[i]); err != nil {
			return nil, err
		}
	}

	visible, newCursor := mergeCollections(local, fetched, cursor)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txMetadata := metadata.NewSQLiteRepository(tx)

		if err := s.cacheFavorites(ctx, txMetadata, fetched); err != nil {
			return err
		}
		// data first, cursor second: a crash in between leaves the
		// cursor behind the data, never ahead of it
		if err := collections.NewSQLiteRepository(tx).ReplaceAll(ctx, visible); err != nil {
			return err
		}
		return txMetadata.Set(ctx, metadata.KeyCollectionUpdationTime,
			[]byte(strconv.FormatInt(newCursor, 10)))
	})
	if err != nil {
		return nil, fmt.Errorf("persist collections: %w", err)
	}

	s.log.Info(ctx, "collections synced", "fetched", len(fetched), "visible", len(visible), "cursor", newCursor)
	return s.unwrapAll(visible)
}

func (s *collectionService) Local(ctx context.Context) ([]models.Collection, error) {
	local, err := collections.NewSQLiteRepository(s.db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load local collections: %w", err)
	}
	return s.unwrapAll(local)
}

func (s *collectionService) Create(ctx context.Context, name string, typ models.CollectionType) (models.Collection, error) {
	masterKey, err := s.keys.MasterKey()
	if err != nil {
		return models.Collection{}, err
	}

	collectionKey := cryptox.GenerateKey()

	encryptedKey, keyNonce, err := cryptox.SecretboxSeal(collectionKey, masterKey)
	if err != nil {
		return models.Collection{}, fmt.Errorf("wrap collection key: %w", err)
	}
	encryptedName, nameNonce, err := cryptox.SecretboxSeal([]byte(name), collectionKey)
	if err != nil {
		return models.Collection{}, fmt.Errorf("encrypt collection name: %w", err)
	}

	created, err := s.client.CreateCollection(ctx, models.Collection{
		Type:                typ,
		EncryptedKey:        cryptox.ToB64(encryptedKey),
		KeyDecryptionNonce:  cryptox.ToB64(keyNonce),
		EncryptedName:       cryptox.ToB64(encryptedName),
		NameDecryptionNonce: cryptox.ToB64(nameNonce),
	})
	if err != nil {
		return models.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	created.Key = collectionKey
	created.Name = name
	s.log.Info(ctx, "collection created", "id", created.ID, "type", typ)
	return created, nil
}

func (s *collectionService) CreateAlbum(ctx context.Context, name string) (models.Collection, error) {
	return s.Create(ctx, name, models.CollectionTypeAlbum)
}

// mergeCollections unions local and fetched keyed by id, keeping the
// instance with the larger updationTime. Tombstoned survivors are
// dropped from the visible set but still advance the cursor: a deletion
// is an observed server event. Pure, so merge semantics are testable
// without I/O.
func mergeCollections(local, fetched []models.Collection, cursor int64) (visible []models.Collection, newCursor int64) {
	latest := make(map[int64]models.Collection, len(local)+len(fetched))
	for _, c := range local {
		if cur, ok := latest[c.ID]; !ok || cur.UpdationTime < c.UpdationTime {
			latest[c.ID] = c
		}
	}
	for _, c := range fetched {
		if cur, ok := latest[c.ID]; !ok || cur.UpdationTime < c.UpdationTime {
			latest[c.ID] = c
		}
	}

	newCursor = cursor
	visible = make([]models.Collection, 0, len(latest))
	for _, c := range latest {
		if c.UpdationTime > newCursor {
			newCursor = c.UpdationTime
		}
		if !c.IsDeleted {
			visible = append(visible, c)
		}
	}
	return visible, newCursor
}

// unwrapSecrets populates Key and Name on a fetched collection.
func (s *collectionService) unwrapSecrets(c *models.Collection) error {
	key, err := s.keys.UnwrapCollectionKey(c)
	if err != nil {
		return err
	}
	c.Key = key
	if c.Name == "" && c.EncryptedName != "" {
		name, err := s.keys.DecryptName(c, key)
		if err != nil {
			return err
		}
		c.Name = name
	}
	return nil
}

// unwrapAll ensures every returned collection carries its key. Locally
// loaded collections come back from the store without key material.
func (s *collectionService) unwrapAll(list []models.Collection) ([]models.Collection, error) {
	for i := range list {
		if list[i].Key != nil {
			continue
		}
		key, err := s.keys.UnwrapCollectionKey(&list[i])
		if err != nil {
			return nil, err
		}
		list[i].Key = key
	}
	return list, nil
}

// cacheFavorites records the favorites-collection pointer the first time
// one is observed. First-wins: an already cached pointer is never
// overwritten, since which collection is "favorites" does not rotate.
func (s *collectionService) cacheFavorites(ctx context.Context, repo metadata.Repository, fetched []models.Collection) error {
	existing, err := repo.Get(ctx, metadata.KeyFavCollection)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	for _, c := range fetched {
		if c.Type != models.CollectionTypeFavorites || c.IsDeleted {
			continue
		}
		encoded, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode favorites pointer: %w", err)
		}
		return repo.Set(ctx, metadata.KeyFavCollection, encoded)
	}
	return nil
}

func (s *collectionService) loadCursor(ctx context.Context, repo metadata.Repository) (int64, error) {
	raw, err := repo.Get(ctx, metadata.KeyCollectionUpdationTime)
	if err != nil {
		return 0, fmt.Errorf("load collection cursor: %w", err)
	}
	if raw == nil {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse collection cursor %q: %w", raw, err)
	}
	return cursor, nil
}
