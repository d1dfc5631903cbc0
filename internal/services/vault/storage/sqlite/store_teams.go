package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
)

const teamColumns = "id, name, created_by, created_at"

// CreateTeamWithFounder inserts a team and its founding admin membership as
// one transaction.
func (s *Store) CreateTeamWithFounder(ctx context.Context, t team.Team, founder team.Member) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO teams ("+teamColumns+") VALUES (?, ?, ?, ?)",
			t.ID, t.Name, t.CreatedBy, toMillis(t.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert team: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO team_members ("+memberColumns+") VALUES (?, ?, ?, ?, ?)",
			founder.ID, founder.TeamID, founder.UserID, string(founder.Role), toMillis(founder.JoinedAt),
		); err != nil {
			return fmt.Errorf("insert founding member: %w", err)
		}
		return nil
	})
}

// GetTeam loads a team by id.
func (s *Store) GetTeam(ctx context.Context, teamID string) (team.Team, error) {
	if s == nil || s.sqlDB == nil {
		return team.Team{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+teamColumns+" FROM teams WHERE id = ?", teamID)

	var t team.Team
	var createdAt int64
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedBy, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return team.Team{}, storage.ErrNotFound
		}
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

// ListTeamsByUser returns every team the user belongs to with their role.
func (s *Store) ListTeamsByUser(ctx context.Context, userID string) ([]storage.TeamWithRole, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT t.id, t.name, t.created_by, t.created_at, m.role
FROM team_members m
JOIN teams t ON t.id = m.team_id
WHERE m.user_id = ?
ORDER BY t.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list teams by user: %w", err)
	}
	defer rows.Close()

	var result []storage.TeamWithRole
	for rows.Next() {
		var entry storage.TeamWithRole
		var createdAt int64
		var role string
		if err := rows.Scan(&entry.Team.ID, &entry.Team.Name, &entry.Team.CreatedBy, &createdAt, &role); err != nil {
			return nil, fmt.Errorf("scan team row: %w", err)
		}
		entry.Team.CreatedAt = fromMillis(createdAt)
		entry.Role = team.Role(role)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team rows: %w", err)
	}
	return result, nil
}

// DeleteTeamCascade removes the team and every dependent record in one
// transaction: members, invites, versions, documents, then the team itself.
// Referenced storage object ids are collected for post-commit blob cleanup.
func (s *Store) DeleteTeamCascade(ctx context.Context, teamID string) (storage.CascadeResult, error) {
	var result storage.CascadeResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM teams WHERE id = ?", teamID).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return storage.ErrNotFound
			}
			return fmt.Errorf("check team: %w", err)
		}

		objectIDs, err := collectStorageObjectIDs(ctx, tx,
			`SELECT v.storage_object_id
			 FROM document_versions v
			 JOIN documents d ON d.id = v.document_id
			 WHERE d.team_id = ?
			 ORDER BY v.created_at`,
			teamID,
		)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM team_members WHERE team_id = ?", teamID)
		if err != nil {
			return fmt.Errorf("delete team members: %w", err)
		}
		result.MembersDeleted, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, "DELETE FROM invites WHERE team_id = ?", teamID)
		if err != nil {
			return fmt.Errorf("delete invites: %w", err)
		}
		result.InvitesDeleted, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx,
			"DELETE FROM document_versions WHERE document_id IN (SELECT id FROM documents WHERE team_id = ?)",
			teamID,
		)
		if err != nil {
			return fmt.Errorf("delete document versions: %w", err)
		}
		result.VersionsDeleted, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, "DELETE FROM documents WHERE team_id = ?", teamID)
		if err != nil {
			return fmt.Errorf("delete documents: %w", err)
		}
		result.DocumentsDeleted, _ = res.RowsAffected()

		if _, err := tx.ExecContext(ctx, "DELETE FROM teams WHERE id = ?", teamID); err != nil {
			return fmt.Errorf("delete team: %w", err)
		}

		result.StorageObjectIDs = objectIDs
		return nil
	})
	if err != nil {
		return storage.CascadeResult{}, err
	}
	return result, nil
}

func collectStorageObjectIDs(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("collect storage object ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var objectID string
		if err := rows.Scan(&objectID); err != nil {
			return nil, fmt.Errorf("scan storage object id: %w", err)
		}
		ids = append(ids, objectID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate storage object ids: %w", err)
	}
	return ids, nil
}
