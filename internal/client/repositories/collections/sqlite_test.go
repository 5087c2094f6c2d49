package collections

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/photovault/internal/client/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:collectionsrepo?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS collections (
  id INTEGER PRIMARY KEY,
  owner_id INTEGER NOT NULL,
  owner_email TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  encrypted_key TEXT NOT NULL,
  key_decryption_nonce TEXT NOT NULL DEFAULT '',
  encrypted_name TEXT NOT NULL DEFAULT '',
  name_decryption_nonce TEXT NOT NULL DEFAULT '',
  updation_time INTEGER NOT NULL,
  is_deleted INTEGER NOT NULL DEFAULT 0
);
DELETE FROM collections;
`)
	require.NoError(t, err)
	return db
}

func TestReplaceAll_RoundTrip(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	in := []models.Collection{
		{ID: 1, Owner: models.User{ID: 10, Email: "a@b.c"}, Type: models.CollectionTypeFolder,
			Name: "Camera", EncryptedKey: "ek1", KeyDecryptionNonce: "n1", UpdationTime: 100},
		{ID: 2, Owner: models.User{ID: 10}, Type: models.CollectionTypeAlbum,
			Name: "Trip", EncryptedKey: "ek2", KeyDecryptionNonce: "n2", UpdationTime: 200},
	}
	require.NoError(t, repo.ReplaceAll(ctx, in))

	got, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// newest first
	require.Equal(t, int64(2), got[0].ID)
	require.Equal(t, models.CollectionTypeAlbum, got[0].Type)
	require.Equal(t, "Camera", got[1].Name)
	require.Nil(t, got[1].Key, "unwrapped keys are never persisted")
}

func TestReplaceAll_Swaps(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []models.Collection{
		{ID: 1, Type: models.CollectionTypeFolder, EncryptedKey: "ek", UpdationTime: 1},
	}))
	require.NoError(t, repo.ReplaceAll(ctx, []models.Collection{
		{ID: 9, Type: models.CollectionTypeFolder, EncryptedKey: "ek", UpdationTime: 2},
	}))

	got, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(9), got[0].ID)
}
