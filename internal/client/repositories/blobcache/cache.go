// Package blobcache is a durable cache of decrypted preview bytes keyed
// by file id, backed by a bbolt database separate from the SQLite store.
// Writes are best effort: previews can always be refetched, so callers
// treat a failed Put as a warning, not an error path.
package blobcache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var bucketThumbs = []byte("thumbs")

// Cache wraps a bbolt database holding decrypted thumbnails.
type Cache struct {
	db *bbolt.DB
}

// Open opens or creates the cache database at path. The parent directory
// is created if it does not exist.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("blobcache: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("blobcache: open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketThumbs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blobcache: create bucket: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

// Get returns the cached bytes for a file id, or nil on a miss.
func (c *Cache) Get(fileID int64) ([]byte, error) {
	var out []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketThumbs).Get(fileKey(fileID))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("blobcache: get %d: %w", fileID, err)
	}
	return out, nil
}

// Put stores the bytes for a file id, overwriting any previous entry.
func (c *Cache) Put(fileID int64, data []byte) error {
	err := c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketThumbs).Put(fileKey(fileID), data)
	})
	if err != nil {
		return fmt.Errorf("blobcache: put %d: %w", fileID, err)
	}
	return nil
}

// Delete removes the entry for a file id. Removing a missing entry is not
// an error.
func (c *Cache) Delete(fileID int64) error {
	err := c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketThumbs).Delete(fileKey(fileID))
	})
	if err != nil {
		return fmt.Errorf("blobcache: delete %d: %w", fileID, err)
	}
	return nil
}

// fileKey encodes a file id as an 8-byte big-endian key.
func fileKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}
