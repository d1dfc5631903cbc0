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

const documentColumns = "id, name, team_id, created_by, created_at, updated_at"

func scanDocument(row *sql.Row) (document.Document, error) {
	var doc document.Document
	var createdAt, updatedAt int64
	if err := row.Scan(&doc.ID, &doc.Name, &doc.TeamID, &doc.CreatedBy, &createdAt, &updatedAt); err != nil {
		return document.Document{}, err
	}
	doc.CreatedAt = fromMillis(createdAt)
	doc.UpdatedAt = fromMillis(updatedAt)
	return doc, nil
}

// PutDocument inserts a document record.
func (s *Store) PutDocument(ctx context.Context, doc document.Document) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO documents ("+documentColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		doc.ID, doc.Name, doc.TeamID, doc.CreatedBy, toMillis(doc.CreatedAt), toMillis(doc.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument loads a document by id.
func (s *Store) GetDocument(ctx context.Context, documentID string) (document.Document, error) {
	if s == nil || s.sqlDB == nil {
		return document.Document{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", documentID)
	doc, err := scanDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return document.Document{}, storage.ErrNotFound
		}
		return document.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListDocumentsByTeam returns documents enriched with creator, latest
// version, and version count.
func (s *Store) ListDocumentsByTeam(ctx context.Context, teamID string) ([]storage.DocumentSummary, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT d.id, d.name, d.team_id, d.created_by, d.created_at, d.updated_at,
       u.id, u.external_id, u.email, u.display_name, u.avatar_url, u.created_at, u.updated_at,
       (SELECT COUNT(*) FROM document_versions v WHERE v.document_id = d.id)
FROM documents d
LEFT JOIN users u ON u.id = d.created_by
WHERE d.team_id = ?
ORDER BY d.created_at`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents by team: %w", err)
	}
	defer rows.Close()

	var result []storage.DocumentSummary
	for rows.Next() {
		var entry storage.DocumentSummary
		var createdAt, updatedAt int64
		var userID, externalID, email, displayName, avatarURL sql.NullString
		var userCreatedAt, userUpdatedAt sql.NullInt64
		if err := rows.Scan(
			&entry.Document.ID, &entry.Document.Name, &entry.Document.TeamID, &entry.Document.CreatedBy,
			&createdAt, &updatedAt,
			&userID, &externalID, &email, &displayName, &avatarURL, &userCreatedAt, &userUpdatedAt,
			&entry.VersionCount,
		); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		entry.Document.CreatedAt = fromMillis(createdAt)
		entry.Document.UpdatedAt = fromMillis(updatedAt)
		if userID.Valid {
			entry.Creator = &user.User{
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
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}

	for i := range result {
		latest, err := s.latestVersion(ctx, result[i].Document.ID)
		if err != nil {
			return nil, err
		}
		result[i].LatestVersion = latest
	}
	return result, nil
}

func (s *Store) latestVersion(ctx context.Context, documentID string) (*document.Version, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+versionColumns+" FROM document_versions WHERE document_id = ? ORDER BY version_number DESC LIMIT 1",
		documentID,
	)
	v, err := scanVersion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest version: %w", err)
	}
	return &v, nil
}

// RenameDocument updates the name and bumps updatedAt.
func (s *Store) RenameDocument(ctx context.Context, documentID, name string, updatedAt time.Time) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE documents SET name = ?, updated_at = ? WHERE id = ?",
		name, toMillis(updatedAt), documentID,
	)
	if err != nil {
		return fmt.Errorf("rename document: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteDocumentCascade removes every version then the document in one
// transaction and returns the referenced storage object ids.
func (s *Store) DeleteDocumentCascade(ctx context.Context, documentID string) ([]string, error) {
	var objectIDs []string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", documentID).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return storage.ErrNotFound
			}
			return fmt.Errorf("check document: %w", err)
		}

		ids, err := collectStorageObjectIDs(ctx, tx,
			"SELECT storage_object_id FROM document_versions WHERE document_id = ? ORDER BY version_number",
			documentID,
		)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM document_versions WHERE document_id = ?", documentID); err != nil {
			return fmt.Errorf("delete document versions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}

		objectIDs = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objectIDs, nil
}
