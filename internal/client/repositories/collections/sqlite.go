package collections

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx). Unwrapped collection keys are never written; only the wrapped
// forms and the decrypted display name are stored.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, collections []models.Collection) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM collections`); err != nil {
		return fmt.Errorf("failed to clear collections: %w", err)
	}

	query := `INSERT INTO collections
		(id, owner_id, owner_email, type, name, encrypted_key, key_decryption_nonce,
		 encrypted_name, name_decryption_nonce, updation_time, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, c := range collections {
		_, err := r.db.ExecContext(ctx, query,
			c.ID, c.Owner.ID, c.Owner.Email, string(c.Type), c.Name,
			c.EncryptedKey, c.KeyDecryptionNonce,
			c.EncryptedName, c.NameDecryptionNonce,
			c.UpdationTime, c.IsDeleted)
		if err != nil {
			return fmt.Errorf("failed to insert collection %d: %w", c.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, owner_email, type, name, encrypted_key, key_decryption_nonce,
		       encrypted_name, name_decryption_nonce, updation_time, is_deleted
		FROM collections ORDER BY updation_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select collections: %w", err)
	}
	defer rows.Close()

	var result []models.Collection
	for rows.Next() {
		var c models.Collection
		var typ string
		if err := rows.Scan(&c.ID, &c.Owner.ID, &c.Owner.Email, &typ, &c.Name,
			&c.EncryptedKey, &c.KeyDecryptionNonce,
			&c.EncryptedName, &c.NameDecryptionNonce,
			&c.UpdationTime, &c.IsDeleted); err != nil {
			return nil, err
		}
		c.Type = models.CollectionType(typ)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
