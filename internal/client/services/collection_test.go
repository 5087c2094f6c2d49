package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/metadata"
)

func TestCollectionSync_FreshState(t *testing.T) {
	fx := newKeyFixture(t)
	db := openTestDB(t)
	ctx := context.Background()

	c1, _ := fx.sealedCollection(t, 1, "Camera", models.CollectionTypeFolder, 100)
	c2, _ := fx.sealedCollection(t, 2, "Holiday", models.CollectionTypeAlbum, 120)

	var since []string
	client := &fakeClient{
		getCollections: func(_ context.Context, sinceTime string) ([]models.Collection, error) {
			since = append(since, sinceTime)
			return []models.Collection{c1, c2}, nil
		},
	}

	svc := NewCollectionService(client, fx.svc, db, testLogger())
	got, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0"}, since)

	require.Len(t, got, 2)
	byID := collectionsByID(got)
	require.Equal(t, "Camera", byID[1].Name)
	require.Equal(t, "Holiday", byID[2].Name)
	require.NotNil(t, byID[1].Key)

	raw, err := metadata.NewSQLiteRepository(db).Get(ctx, metadata.KeyCollectionUpdationTime)
	require.NoError(t, err)
	require.Equal(t, []byte("120"), raw)
}

func TestCollectionSync_EmptyFetchKeepsState(t *testing.T) {
	fx := newKeyFixture(t)
	db := openTestDB(t)
	ctx := context.Background()

	c1, _ := fx.sealedCollection(t, 1, "Camera", models.CollectionTypeFolder, 100)
	client := &fakeClient{
		getCollections: func(_ context.Context, _ string) ([]models.Collection, error) {
			return []models.Collection{c1}, nil
		},
	}
	svc := NewCollectionService(client, fx.svc, db, testLogger())
	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	var since string
	client.getCollections = func(_ context.Context, sinceTime string) ([]models.Collection, error) {
		since = sinceTime
		return nil, nil
	}

	got, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, "100", since)
	require.Len(t, got, 1)
	require.Equal(t, "Camera", got[0].Name)
	require.NotNil(t, got[0].Key)
}

func TestCollectionSync_TombstoneRemovesAndAdvancesCursor(t *testing.T) {
	fx := newKeyFixture(t)
	db := openTestDB(t)
	ctx := context.Background()

	c1, _ := fx.sealedCollection(t, 1, "Camera", models.CollectionTypeFolder, 100)
	c2, _ := fx.sealedCollection(t, 2, "Holiday", models.CollectionTypeAlbum, 110)
	client := &fakeClient{
		getCollections: func(_ context.Context, _ string) ([]models.Collection, error) {
			return []models.Collection{c1, c2}, nil
		},
	}
	svc := NewCollectionService(client, fx.svc, db, testLogger())
	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	// the deleted collection arrives as a tombstone with only identity
	// and clock; its secrets are gone
	client.getCollections = func(_ context.Context, _ string) ([]models.Collection, error) {
		return []models.Collection{{ID: 2, UpdationTime: 150, IsDeleted: true}}, nil
	}

	got, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].ID)

	raw, err := metadata.NewSQLiteRepository(db).Get(ctx, metadata.KeyCollectionUpdationTime)
	require.NoError(t, err)
	require.Equal(t, []byte("150"), raw)
}

func TestCollectionSync_FavoritesPointerFirstWins(t *testing.T) {
	fx := newKeyFixture(t)
	db := openTestDB(t)
	ctx := context.Background()

	fav1, _ := fx.sealedCollection(t, 5, "Favorites", models.CollectionTypeFavorites, 100)
	client := &fakeClient{
		getCollections: func(_ context.Context, _ string) ([]models.Collection, error) {
			return []models.Collection{fav1}, nil
		},
	}
	svc := NewCollectionService(client, fx.svc, db, testLogger())
	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	fav2, _ := fx.sealedCollection(t, 9, "Favorites", models.CollectionTypeFavorites, 200)
	client.getCollections = func(_ context.Context, _ string) ([]models.Collection, error) {
		return []models.Collection{fav2}, nil
	}
	_, err = svc.Sync(ctx)
	require.NoError(t, err)

	favorites := NewFavoritesService(client, fx.svc, svc, db, testLogger())
	fav, ok, err := favorites.FavoriteCollection(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(5), fav.ID)
}

func TestMergeCollections_LastWriteWins(t *testing.T) {
	local := []models.Collection{
		{ID: 1, Name: "old", UpdationTime: 100},
		{ID: 2, Name: "kept", UpdationTime: 90},
	}
	fetched := []models.Collection{
		{ID: 1, Name: "new", UpdationTime: 140},
		{ID: 3, Name: "added", UpdationTime: 130},
	}

	visible, cursor := mergeCollections(local, fetched, 100)
	require.Equal(t, int64(140), cursor)

	byID := collectionsByID(visible)
	require.Len(t, byID, 3)
	require.Equal(t, "new", byID[1].Name)
	require.Equal(t, "kept", byID[2].Name)
	require.Equal(t, "added", byID[3].Name)
}

func TestMergeCollections_StaleFetchDoesNotRegress(t *testing.T) {
	local := []models.Collection{{ID: 1, Name: "current", UpdationTime: 200}}
	fetched := []models.Collection{{ID: 1, Name: "stale", UpdationTime: 150}}

	visible, cursor := mergeCollections(local, fetched, 200)
	require.Equal(t, int64(200), cursor)
	require.Len(t, visible, 1)
	require.Equal(t, "current", visible[0].Name)
}

func TestMergeCollections_Idempotent(t *testing.T) {
	local := []models.Collection{{ID: 1, UpdationTime: 100}}
	fetched := []models.Collection{
		{ID: 1, UpdationTime: 140},
		{ID: 2, UpdationTime: 150, IsDeleted: true},
	}

	first, cursor1 := mergeCollections(local, fetched, 100)
	second, cursor2 := mergeCollections(first, fetched, cursor1)

	require.Equal(t, cursor1, cursor2)
	require.ElementsMatch(t, first, second)
}

func TestCollectionCreate_ReturnsUsableSecrets(t *testing.T) {
	fx := newKeyFixture(t)
	db := openTestDB(t)
	ctx := context.Background()

	client := &fakeClient{
		createCollection: func(_ context.Context, c models.Collection) (models.Collection, error) {
			c.ID = 77
			c.Owner = models.User{ID: testUserID}
			c.UpdationTime = 500
			return c, nil
		},
	}
	svc := NewCollectionService(client, fx.svc, db, testLogger())

	created, err := svc.CreateAlbum(ctx, "Trip")
	require.NoError(t, err)
	require.Equal(t, int64(77), created.ID)
	require.Equal(t, models.CollectionTypeAlbum, created.Type)
	require.Equal(t, "Trip", created.Name)

	// the wrapped secrets must round-trip through the key service
	key, err := fx.svc.UnwrapCollectionKey(&created)
	require.NoError(t, err)
	require.Equal(t, created.Key, key)

	name, err := fx.svc.DecryptName(&created, key)
	require.NoError(t, err)
	require.Equal(t, "Trip", name)
}

func collectionsByID(list []models.Collection) map[int64]models.Collection {
	byID := make(map[int64]models.Collection, len(list))
	for _, c := range list {
		byID[c.ID] = c
	}
	return byID
}
