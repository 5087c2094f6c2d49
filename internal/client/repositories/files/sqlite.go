package files

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx). File keys are stored only in their collection-wrapped form;
// decrypted metadata fields are stored in plain columns so the set can be
// read back sorted without key material.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, files []models.File) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("failed to clear files: %w", err)
	}

	query := `INSERT INTO files
		(collection_id, id, encrypted_key, key_decryption_nonce,
		 file_decryption_header, thumbnail_decryption_header,
		 metadata_encrypted_data, metadata_decryption_nonce,
		 title, creation_time, file_type, updation_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, f := range files {
		_, err := r.db.ExecContext(ctx, query,
			f.CollectionID, f.ID, f.EncryptedKey, f.KeyDecryptionNonce,
			f.File.DecryptionHeader, f.Thumbnail.DecryptionHeader,
			f.Metadata.EncryptedData, f.Metadata.DecryptionNonce,
			f.Info.Title, f.Info.CreationTime, int(f.Info.FileType),
			f.UpdationTime)
		if err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.UID(), err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.File, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT collection_id, id, encrypted_key, key_decryption_nonce,
		       file_decryption_header, thumbnail_decryption_header,
		       metadata_encrypted_data, metadata_decryption_nonce,
		       title, creation_time, file_type, updation_time
		FROM files ORDER BY creation_time DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []models.File
	for rows.Next() {
		var f models.File
		var fileType int
		if err := rows.Scan(&f.CollectionID, &f.ID, &f.EncryptedKey, &f.KeyDecryptionNonce,
			&f.File.DecryptionHeader, &f.Thumbnail.DecryptionHeader,
			&f.Metadata.EncryptedData, &f.Metadata.DecryptionNonce,
			&f.Info.Title, &f.Info.CreationTime, &fileType,
			&f.UpdationTime); err != nil {
			return nil, err
		}
		f.Info.FileType = models.FileType(fileType)
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
