// Package models defines the synced entities of the photovault client:
// collections, files, and the user's key attributes.
package models

// CollectionType classifies a collection.
type CollectionType string

const (
	CollectionTypeFolder    CollectionType = "folder"
	CollectionTypeFavorites CollectionType = "favorites"
	CollectionTypeAlbum     CollectionType = "album"
)

// User identifies the owner of a collection.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Collection is a synced collection record. EncryptedKey wraps the
// collection's own symmetric key: with the master key when the current
// user owns the collection, or as a sealed box addressed to the owner's
// public key when the collection was shared to them. UpdationTime is the
// server-assigned logical clock used both as the sync watermark and as
// the last-write-wins tie-break.
type Collection struct {
	ID                  int64          `json:"id"`
	Owner               User           `json:"owner"`
	Type                CollectionType `json:"type"`
	EncryptedKey        string         `json:"encryptedKey"`
	KeyDecryptionNonce  string         `json:"keyDecryptionNonce,omitempty"`
	EncryptedName       string         `json:"encryptedName"`
	NameDecryptionNonce string         `json:"nameDecryptionNonce,omitempty"`
	UpdationTime        int64          `json:"updationTime"`
	IsDeleted           bool           `json:"isDeleted,omitempty"`

	// Name is the decrypted collection name, populated after the
	// collection key has been unwrapped.
	Name string `json:"-"`

	// Key is the unwrapped collection key. Held in memory for the life
	// of the session only, never serialized or persisted.
	Key []byte `json:"-"`
}

// KeyWrap returns the tagged variant describing how this collection's key
// is wrapped for the user identified by currentUserID.
func (c *Collection) KeyWrap(currentUserID int64) CollectionKeyWrap {
	if c.Owner.ID == currentUserID {
		return OwnerWrapped{EncryptedKey: c.EncryptedKey, Nonce: c.KeyDecryptionNonce}
	}
	return ShareWrapped{EncryptedKey: c.EncryptedKey}
}

// CollectionKeyWrap is the tagged variant for the two ways a collection
// key reaches a user: wrapped with their master key (owner), or sealed to
// their public key (shared-to).
type CollectionKeyWrap interface {
	isCollectionKeyWrap()
}

// OwnerWrapped is a collection key encrypted with the owner's master key.
type OwnerWrapped struct {
	EncryptedKey string
	Nonce        string
}

func (OwnerWrapped) isCollectionKeyWrap() {}

// ShareWrapped is a collection key sealed anonymously to the recipient's
// public key. Opening it requires the recipient's secret key.
type ShareWrapped struct {
	EncryptedKey string
}

func (ShareWrapped) isCollectionKeyWrap() {}

// CollectionFileItem references a file inside an add-files or move-files
// request, carrying the file key re-wrapped with the target collection's
// key.
type CollectionFileItem struct {
	ID                 int64  `json:"id"`
	EncryptedKey       string `json:"encryptedKey"`
	KeyDecryptionNonce string `json:"keyDecryptionNonce"`
}
