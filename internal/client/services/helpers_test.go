package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/store"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/logging"
)

const (
	testUserID     = int64(42)
	testPassphrase = "correct horse battery staple"
	testOpsLimit   = 1
	testMemLimit   = 64 * 1024
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := store.Open(context.Background(), dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"collections", "files", "metadata"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	return db
}

// fakeClient is a function-backed api.Client. Unset endpoints return
// empty results.
type fakeClient struct {
	getCollections   func(ctx context.Context, sinceTime string) ([]models.Collection, error)
	createCollection func(ctx context.Context, c models.Collection) (models.Collection, error)
	getDiff          func(ctx context.Context, collectionID int64, sinceTime string, limit int) ([]models.File, error)
	addFiles         func(ctx context.Context, collectionID int64, items []models.CollectionFileItem) error
	removeFiles      func(ctx context.Context, collectionID int64, fileIDs []int64) error
	getPreview       func(ctx context.Context, fileID int64) ([]byte, error)
	getFile          func(ctx context.Context, fileID int64) ([]byte, error)

	previewCalls atomic.Int64
	fileCalls    atomic.Int64
}

func (f *fakeClient) GetCollections(ctx context.Context, sinceTime string) ([]models.Collection, error) {
	if f.getCollections == nil {
		return nil, nil
	}
	return f.getCollections(ctx, sinceTime)
}

func (f *fakeClient) CreateCollection(ctx context.Context, c models.Collection) (models.Collection, error) {
	if f.createCollection == nil {
		return c, nil
	}
	return f.createCollection(ctx, c)
}

func (f *fakeClient) GetCollectionDiff(ctx context.Context, collectionID int64, sinceTime string, limit int) ([]models.File, error) {
	if f.getDiff == nil {
		return nil, nil
	}
	return f.getDiff(ctx, collectionID, sinceTime, limit)
}

func (f *fakeClient) AddFiles(ctx context.Context, collectionID int64, items []models.CollectionFileItem) error {
	if f.addFiles == nil {
		return nil
	}
	return f.addFiles(ctx, collectionID, items)
}

func (f *fakeClient) RemoveFiles(ctx context.Context, collectionID int64, fileIDs []int64) error {
	if f.removeFiles == nil {
		return nil
	}
	return f.removeFiles(ctx, collectionID, fileIDs)
}

func (f *fakeClient) GetPreview(ctx context.Context, fileID int64) ([]byte, error) {
	f.previewCalls.Add(1)
	if f.getPreview == nil {
		return nil, nil
	}
	return f.getPreview(ctx, fileID)
}

func (f *fakeClient) GetFile(ctx context.Context, fileID int64) ([]byte, error) {
	f.fileCalls.Add(1)
	if f.getFile == nil {
		return nil, nil
	}
	return f.getFile(ctx, fileID)
}

func (f *fakeClient) Close() error { return nil }

// keyFixture holds an unlocked key service plus the raw keys tests need
// to construct wrapped fixtures.
type keyFixture struct {
	masterKey   []byte
	recoveryKey []byte
	attrs       models.KeyAttributes
	svc         *KeyService
}

func newKeyFixture(t *testing.T) *keyFixture {
	t.Helper()

	masterKey := cryptox.GenerateKey()
	recoveryKey := cryptox.GenerateKey()
	salt := cryptox.GenerateSalt()

	kek := cryptox.DeriveKey([]byte(testPassphrase), salt, testOpsLimit, testMemLimit)
	encryptedKey, keyNonce, err := cryptox.SecretboxSeal(masterKey, kek)
	require.NoError(t, err)

	publicKey, secretKey, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)
	encryptedSecretKey, secretKeyNonce, err := cryptox.SecretboxSeal(secretKey, masterKey)
	require.NoError(t, err)

	masterWithRecovery, masterNonce, err := cryptox.SecretboxSeal(masterKey, recoveryKey)
	require.NoError(t, err)
	recoveryWithMaster, recoveryNonce, err := cryptox.SecretboxSeal(recoveryKey, masterKey)
	require.NoError(t, err)

	attrs := models.KeyAttributes{
		KekSalt:                           cryptox.ToB64(salt),
		OpsLimit:                          testOpsLimit,
		MemLimit:                          testMemLimit,
		EncryptedKey:                      cryptox.ToB64(encryptedKey),
		KeyDecryptionNonce:                cryptox.ToB64(keyNonce),
		PublicKey:                         cryptox.ToB64(publicKey),
		EncryptedSecretKey:                cryptox.ToB64(encryptedSecretKey),
		SecretKeyDecryptionNonce:          cryptox.ToB64(secretKeyNonce),
		MasterKeyEncryptedWithRecoveryKey: cryptox.ToB64(masterWithRecovery),
		MasterKeyDecryptionNonce:          cryptox.ToB64(masterNonce),
		RecoveryKeyEncryptedWithMasterKey: cryptox.ToB64(recoveryWithMaster),
		RecoveryKeyDecryptionNonce:        cryptox.ToB64(recoveryNonce),
	}

	svc := NewKeyService(testUserID, attrs)
	require.NoError(t, svc.UnlockWithPassphrase([]byte(testPassphrase)))
	t.Cleanup(svc.Close)

	return &keyFixture{masterKey: masterKey, recoveryKey: recoveryKey, attrs: attrs, svc: svc}
}

// sealedCollection builds an owner-wrapped collection with a fresh key.
// The returned collection has Key and Name unset, as if freshly fetched.
func (fx *keyFixture) sealedCollection(t *testing.T, id int64, name string, typ models.CollectionType, updationTime int64) (models.Collection, []byte) {
	t.Helper()

	key := cryptox.GenerateKey()
	encryptedKey, keyNonce, err := cryptox.SecretboxSeal(key, fx.masterKey)
	require.NoError(t, err)
	encryptedName, nameNonce, err := cryptox.SecretboxSeal([]byte(name), key)
	require.NoError(t, err)

	return models.Collection{
		ID:                  id,
		Owner:               models.User{ID: testUserID},
		Type:                typ,
		EncryptedKey:        cryptox.ToB64(encryptedKey),
		KeyDecryptionNonce:  cryptox.ToB64(keyNonce),
		EncryptedName:       cryptox.ToB64(encryptedName),
		NameDecryptionNonce: cryptox.ToB64(nameNonce),
		UpdationTime:        updationTime,
	}, key
}

// sealedFile builds a file whose key is wrapped with collectionKey and
// whose metadata payload is encrypted with the file key.
func sealedFile(t *testing.T, collectionKey []byte, collectionID, id int64, title string, creationTime, updationTime int64) (models.File, []byte) {
	t.Helper()

	fileKey := cryptox.GenerateKey()
	encryptedKey, keyNonce, err := cryptox.SecretboxSeal(fileKey, collectionKey)
	require.NoError(t, err)

	payload, err := json.Marshal(models.FileMetadata{
		Title:        title,
		CreationTime: creationTime,
		FileType:     models.FileTypeImage,
	})
	require.NoError(t, err)
	encryptedMeta, metaNonce, err := cryptox.SecretboxSeal(payload, fileKey)
	require.NoError(t, err)

	return models.File{
		ID:                 id,
		CollectionID:       collectionID,
		EncryptedKey:       cryptox.ToB64(encryptedKey),
		KeyDecryptionNonce: cryptox.ToB64(keyNonce),
		Metadata: models.FileAttribute{
			EncryptedData:   cryptox.ToB64(encryptedMeta),
			DecryptionNonce: cryptox.ToB64(metaNonce),
		},
		UpdationTime: updationTime,
	}, fileKey
}
