package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/photovault/internal/client/api"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/blobcache"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/filex"
	"github.com/dmitrijs2005/photovault/internal/logging"
)

const originalsDirName = "originals"

// DownloadService is the content pipeline: it fetches encrypted blobs,
// decrypts them with the per-file key, de-duplicates concurrent requests
// for the same file and caches decrypted previews across sessions.
type DownloadService interface {
	// GetPreview returns the decrypted thumbnail bytes for a file.
	// Concurrent calls for the same file id share a single fetch.
	GetPreview(ctx context.Context, f models.File) ([]byte, error)

	// GetFile decrypts the original into a session-scoped directory and
	// returns the path. Originals are not cached beyond the session.
	GetFile(ctx context.Context, f models.File) (string, error)

	// Close removes the session's decrypted originals and closes the
	// preview cache.
	Close() error
}

type downloadService struct {
	client   api.Client
	cache    *blobcache.Cache
	previews singleflight.Group
	files    singleflight.Group
	dir      string
	log      logging.Logger
}

// NewDownloadService opens the preview cache at cachePath and prepares
// the session directory for decrypted originals.
func NewDownloadService(client api.Client, cachePath string, log logging.Logger) (DownloadService, error) {
	cache, err := blobcache.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("open preview cache: %w", err)
	}

	dir, err := filex.EnsureSubDir(originalsDirName)
	if err != nil {
		cache.Close()
		return nil, err
	}

	return &downloadService{
		client: client,
		cache:  cache,
		dir:    dir,
		log:    log.With("service", "downloads"),
	}, nil
}

func (s *downloadService) GetPreview(ctx context.Context, f models.File) ([]byte, error) {
	if f.Key == nil {
		return nil, fmt.Errorf("preview %d: %w", f.ID, common.ErrMissingKey)
	}

	if data, err := s.cache.Get(f.ID); err != nil {
		s.log.Error(ctx, "preview cache read failed", "file", f.ID, "error", err)
	} else if data != nil {
		return data, nil
	}

	v, err, _ := s.previews.Do(flightKey(f.ID), func() (any, error) {
		// the flight may be serving callers beyond the one whose
		// context this is; don't let that caller's cancellation fail
		// the rest
		ctx := context.WithoutCancel(ctx)

		ciphertext, err := s.client.GetPreview(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch preview %d: %w", f.ID, err)
		}

		plaintext, err := decodeBlob(ciphertext, f.Thumbnail.DecryptionHeader, f.Key)
		if err != nil {
			return nil, err
		}

		// cache write failures degrade to refetching next session
		if err := s.cache.Put(f.ID, plaintext); err != nil {
			s.log.Error(ctx, "preview cache write failed", "file", f.ID, "error", err)
		}
		return plaintext, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *downloadService) GetFile(ctx context.Context, f models.File) (string, error) {
	if f.Key == nil {
		return "", fmt.Errorf("file %d: %w", f.ID, common.ErrMissingKey)
	}

	v, err, _ := s.files.Do(flightKey(f.ID), func() (any, error) {
		ctx := context.WithoutCancel(ctx)

		ciphertext, err := s.client.GetFile(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch file %d: %w", f.ID, err)
		}

		plaintext, err := decodeBlob(ciphertext, f.File.DecryptionHeader, f.Key)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(s.dir, uuid.NewString()+filepath.Ext(f.Info.Title))
		if err := os.WriteFile(path, plaintext, 0o600); err != nil {
			return nil, fmt.Errorf("write original %d: %w", f.ID, err)
		}
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *downloadService) Close() error {
	if err := os.RemoveAll(s.dir); err != nil {
		s.log.Error(context.Background(), "remove originals dir", "error", err)
	}
	return s.cache.Close()
}

func flightKey(id int64) string {
	return fmt.Sprintf("%d", id)
}

// decodeBlob decrypts a fetched blob with its detached header. The
// header travels base64-encoded in the file's attributes.
func decodeBlob(ciphertext []byte, headerB64 string, key []byte) ([]byte, error) {
	header, err := cryptox.FromB64(headerB64)
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	return cryptox.BlobOpen(ciphertext, header, key)
}
