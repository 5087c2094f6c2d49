// Package services contains the application services of the photovault
// client core: the key hierarchy manager, the collection and file sync
// engines, the content pipeline, and the favorites projection.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
)

// KeyService is the key hierarchy manager. It derives the user's master
// key from a passphrase (or recovery key), caches it for the life of the
// session, and unwraps collection keys, file keys, and file metadata.
//
// The master key cleartext lives only inside this service; Close wipes
// it. Nothing here persists key material.
type KeyService struct {
	userID int64
	attrs  models.KeyAttributes

	mu        sync.Mutex
	masterKey []byte
	secretKey []byte
}

// NewKeyService constructs a locked key service for the given user and
// their remotely stored key attributes.
func NewKeyService(userID int64, attrs models.KeyAttributes) *KeyService {
	return &KeyService{userID: userID, attrs: attrs}
}

// UserID returns the current user's id, used to pick the unwrap branch
// for collection keys.
func (s *KeyService) UserID() int64 { return s.userID }

// DeriveKeyEncryptionKey derives the passphrase KEK using the cost
// parameters recorded in the key attributes. Deterministic for identical
// inputs; whether the passphrase was right is only known once the master
// key unwrap authenticates.
func (s *KeyService) DeriveKeyEncryptionKey(passphrase []byte) ([]byte, error) {
	salt, err := cryptox.FromB64(s.attrs.KekSalt)
	if err != nil {
		return nil, fmt.Errorf("kek salt: %w", err)
	}
	return cryptox.DeriveKey(passphrase, salt, s.attrs.OpsLimit, s.attrs.MemLimit), nil
}

// UnlockWithPassphrase derives the KEK and unwraps the master key,
// caching it for the session. An unwrap that fails authentication means
// the passphrase was wrong and surfaces as common.ErrWrongPassphrase.
func (s *KeyService) UnlockWithPassphrase(passphrase []byte) error {
	kek, err := s.DeriveKeyEncryptionKey(passphrase)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(kek)

	masterKey, err := s.unwrap(s.attrs.EncryptedKey, s.attrs.KeyDecryptionNonce, kek)
	if err != nil {
		if errors.Is(err, common.ErrDecryptionFailed) {
			return common.ErrWrongPassphrase
		}
		return err
	}

	s.setMasterKey(masterKey)
	return nil
}

// UnlockWithRecoveryKey unwraps the master key from its recovery-key
// wrapped ciphertext, the regeneration path that does not need the
// passphrase.
func (s *KeyService) UnlockWithRecoveryKey(recoveryKey []byte) error {
	masterKey, err := s.unwrap(s.attrs.MasterKeyEncryptedWithRecoveryKey, s.attrs.MasterKeyDecryptionNonce, recoveryKey)
	if err != nil {
		return fmt.Errorf("unwrap master key with recovery key: %w", err)
	}
	s.setMasterKey(masterKey)
	return nil
}

// MasterKey returns the session master key, or common.ErrKeyLocked if the
// session has not been unlocked.
func (s *KeyService) MasterKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.masterKey == nil {
		return nil, common.ErrKeyLocked
	}
	return s.masterKey, nil
}

// SecretKey unwraps (and caches) the user's asymmetric secret key from
// the master key. Needed to open share-wrapped collection keys.
func (s *KeyService) SecretKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secretKey != nil {
		return s.secretKey, nil
	}
	if s.masterKey == nil {
		return nil, common.ErrKeyLocked
	}
	secretKey, err := s.unwrap(s.attrs.EncryptedSecretKey, s.attrs.SecretKeyDecryptionNonce, s.masterKey)
	if err != nil {
		return nil, fmt.Errorf("unwrap secret key: %w", err)
	}
	s.secretKey = secretKey
	return secretKey, nil
}

// RecoveryKey unwraps the recovery key from the master key so it can be
// shown to the user.
func (s *KeyService) RecoveryKey() ([]byte, error) {
	masterKey, err := s.MasterKey()
	if err != nil {
		return nil, err
	}
	recoveryKey, err := s.unwrap(s.attrs.RecoveryKeyEncryptedWithMasterKey, s.attrs.RecoveryKeyDecryptionNonce, masterKey)
	if err != nil {
		return nil, fmt.Errorf("unwrap recovery key: %w", err)
	}
	return recoveryKey, nil
}

// UnwrapCollectionKey unwraps a collection's symmetric key, dispatching
// on how the key reached this user: an owner-wrapped key opens with the
// master key, a share-wrapped key opens as a sealed box with the user's
// secret key.
func (s *KeyService) UnwrapCollectionKey(c *models.Collection) ([]byte, error) {
	switch wrap := c.KeyWrap(s.userID).(type) {
	case models.OwnerWrapped:
		masterKey, err := s.MasterKey()
		if err != nil {
			return nil, err
		}
		key, err := s.unwrap(wrap.EncryptedKey, wrap.Nonce, masterKey)
		if err != nil {
			return nil, fmt.Errorf("unwrap collection %d key: %w", c.ID, err)
		}
		return key, nil
	case models.ShareWrapped:
		secretKey, err := s.SecretKey()
		if err != nil {
			return nil, err
		}
		publicKey, err := cryptox.FromB64(s.attrs.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("public key: %w", err)
		}
		sealed, err := cryptox.FromB64(wrap.EncryptedKey)
		if err != nil {
			return nil, fmt.Errorf("sealed collection key: %w", err)
		}
		key, err := cryptox.SealedBoxOpen(sealed, publicKey, secretKey)
		if err != nil {
			return nil, fmt.Errorf("open shared collection %d key: %w", c.ID, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unknown key wrap %T", common.ErrInternal, wrap)
	}
}

// DecryptName decrypts a collection's name with its unwrapped key.
func (s *KeyService) DecryptName(c *models.Collection, collectionKey []byte) (string, error) {
	name, err := s.unwrap(c.EncryptedName, c.NameDecryptionNonce, collectionKey)
	if err != nil {
		return "", fmt.Errorf("decrypt collection %d name: %w", c.ID, err)
	}
	return string(name), nil
}

// UnwrapFileKey unwraps a file's key with its owning collection's key.
func (s *KeyService) UnwrapFileKey(f *models.File, collectionKey []byte) ([]byte, error) {
	key, err := s.unwrap(f.EncryptedKey, f.KeyDecryptionNonce, collectionKey)
	if err != nil {
		return nil, fmt.Errorf("unwrap file %s key: %w", f.UID(), err)
	}
	return key, nil
}

// DecryptMetadata decrypts a file's metadata payload with the file key.
func (s *KeyService) DecryptMetadata(f *models.File, fileKey []byte) (models.FileMetadata, error) {
	plaintext, err := s.unwrap(f.Metadata.EncryptedData, f.Metadata.DecryptionNonce, fileKey)
	if err != nil {
		return models.FileMetadata{}, fmt.Errorf("decrypt file %s metadata: %w", f.UID(), err)
	}
	var md models.FileMetadata
	if err := json.Unmarshal(plaintext, &md); err != nil {
		return models.FileMetadata{}, fmt.Errorf("%w: bad metadata payload for %s", common.ErrDecryptionFailed, f.UID())
	}
	return md, nil
}

// Close wipes all cached key material. The service is unusable after.
func (s *KeyService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	common.WipeByteArray(s.masterKey)
	common.WipeByteArray(s.secretKey)
	s.masterKey = nil
	s.secretKey = nil
}

func (s *KeyService) setMasterKey(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterKey = key
}

// unwrap decodes base64 ciphertext+nonce and performs an authenticated
// secretbox open with the given key.
func (s *KeyService) unwrap(encryptedB64, nonceB64 string, key []byte) ([]byte, error) {
	ciphertext, err := cryptox.FromB64(encryptedB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	nonce, err := cryptox.FromB64(nonceB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return cryptox.SecretboxOpen(ciphertext, nonce, key)
}
