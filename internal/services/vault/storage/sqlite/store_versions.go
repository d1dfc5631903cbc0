package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/services/vault/document"
	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/user"
)

const versionColumns = "id, document_id, storage_object_id, version_number, uploaded_by, file_name, file_type, file_size, comment, created_at"

func scanVersion(row *sql.Row) (document.Version, error) {
	var v document.Version
	var createdAt int64
	if err := row.Scan(
		&v.ID, &v.DocumentID, &v.StorageObjectID, &v.VersionNumber, &v.UploadedBy,
		&v.FileName, &v.FileType, &v.FileSize, &v.Comment, &createdAt,
	); err != nil {
		return document.Version{}, err
	}
	v.CreatedAt = fromMillis(createdAt)
	return v, nil
}

// CreateVersion inserts a version, allocating the next version number and
// bumping the parent document's updatedAt inside the same transaction. The
// unique (document, version_number) index catches a lost race.
func (s *Store) CreateVersion(ctx context.Context, v document.Version, updatedAt time.Time) (document.Version, error) {
	if s == nil || s.sqlDB == nil {
		return document.Version{}, fmt.Errorf("storage is not configured")
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", v.DocumentID).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return storage.ErrNotFound
			}
			return fmt.Errorf("check document: %w", err)
		}

		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(version_number), 0) + 1 FROM document_versions WHERE document_id = ?",
			v.DocumentID,
		).Scan(&v.VersionNumber); err != nil {
			return fmt.Errorf("allocate version number: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_versions ("+versionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			v.ID, v.DocumentID, v.StorageObjectID, v.VersionNumber, v.UploadedBy,
			v.FileName, v.FileType, v.FileSize, v.Comment, toMillis(v.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE documents SET updated_at = ? WHERE id = ?",
			toMillis(updatedAt), v.DocumentID,
		); err != nil {
			return fmt.Errorf("touch document: %w", err)
		}
		return nil
	})
	if err != nil {
		return document.Version{}, err
	}
	return v, nil
}

// ListVersionsByDocument returns versions newest first, enriched with the
// uploader's user record when it still exists.
func (s *Store) ListVersionsByDocument(ctx context.Context, documentID string) ([]storage.VersionWithUploader, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT v.id, v.document_id, v.storage_object_id, v.version_number, v.uploaded_by,
       v.file_name, v.file_type, v.file_size, v.comment, v.created_at,
       u.id, u.external_id, u.email, u.display_name, u.avatar_url, u.created_at, u.updated_at
FROM document_versions v
LEFT JOIN users u ON u.id = v.uploaded_by
WHERE v.document_id = ?
ORDER BY v.version_number DESC`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions by document: %w", err)
	}
	defer rows.Close()

	var result []storage.VersionWithUploader
	for rows.Next() {
		var entry storage.VersionWithUploader
		var createdAt int64
		var userID, externalID, email, displayName, avatarURL sql.NullString
		var userCreatedAt, userUpdatedAt sql.NullInt64
		if err := rows.Scan(
			&entry.Version.ID, &entry.Version.DocumentID, &entry.Version.StorageObjectID,
			&entry.Version.VersionNumber, &entry.Version.UploadedBy,
			&entry.Version.FileName, &entry.Version.FileType, &entry.Version.FileSize,
			&entry.Version.Comment, &createdAt,
			&userID, &externalID, &email, &displayName, &avatarURL, &userCreatedAt, &userUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan version row: %w", err)
		}
		entry.Version.CreatedAt = fromMillis(createdAt)
		if userID.Valid {
			entry.Uploader = &user.User{
				ID:          userID.String,
				ExternalID:  externalID.String,
				Email:       email.String,
				DisplayName: displayName.String,
				AvatarURL:   avatarURL.String,
				CreatedAt:   fromMillis(userCreatedAt.Int64),
				UpdatedAt:   fromMillis(userUpdatedAt.Int64),
			}
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate version rows: %w", err)
	}
	return result, nil
}

// GetVersionByStorageObject resolves a version by its blob reference.
func (s *Store) GetVersionByStorageObject(ctx context.Context, storageObjectID string) (document.Version, error) {
	if s == nil || s.sqlDB == nil {
		return document.Version{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+versionColumns+" FROM document_versions WHERE storage_object_id = ?",
		storageObjectID,
	)
	v, err := scanVersion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return document.Version{}, storage.ErrNotFound
		}
		return document.Version{}, fmt.Errorf("get version by storage object: %w", err)
	}
	return v, nil
}
