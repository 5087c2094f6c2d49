package models

import "fmt"

// FileType enumerates the supported media kinds.
type FileType int

const (
	FileTypeImage FileType = iota
	FileTypeVideo
	FileTypeLivePhoto
)

// FileAttribute describes one encrypted payload of a file. The original
// and thumbnail payloads are fetched separately and carry an
// authenticated-decryption header; the metadata payload is inlined and
// carries its own nonce.
type FileAttribute struct {
	EncryptedData    string `json:"encryptedData,omitempty"`
	DecryptionHeader string `json:"decryptionHeader,omitempty"`
	DecryptionNonce  string `json:"decryptionNonce,omitempty"`
}

// FileMetadata is the decrypted metadata payload.
type FileMetadata struct {
	Title        string   `json:"title"`
	CreationTime int64    `json:"creationTime"`
	FileType     FileType `json:"fileType"`
}

// File is a synced file record. Its key is wrapped by the owning
// collection's key, so the natural identity for merging is the pair
// (CollectionID, ID).
type File struct {
	ID                 int64         `json:"id"`
	CollectionID       int64         `json:"collectionID"`
	EncryptedKey       string        `json:"encryptedKey"`
	KeyDecryptionNonce string        `json:"keyDecryptionNonce"`
	File               FileAttribute `json:"file"`
	Thumbnail          FileAttribute `json:"thumbnail"`
	Metadata           FileAttribute `json:"metadata"`
	UpdationTime       int64         `json:"updationTime"`
	IsDeleted          bool          `json:"isDeleted,omitempty"`

	// Key is the unwrapped file key, derived transitively through the
	// owning collection's key. In-memory only.
	Key []byte `json:"-"`

	// Info is the decrypted metadata, populated during diff sync and
	// persisted in plain columns so the local set can stay sorted by
	// creation time without key material.
	Info FileMetadata `json:"-"`
}

// UID is the dedup key for last-write-wins merging.
func (f *File) UID() string {
	return fmt.Sprintf("%d-%d", f.CollectionID, f.ID)
}
