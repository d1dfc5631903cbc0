package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

const memberColumns = "id, team_id, user_id, role, joined_at"

func scanMember(row *sql.Row) (team.Member, error) {
	var m team.Member
	var role string
	var joinedAt int64
	if err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &role, &joinedAt); err != nil {
		return team.Member{}, err
	}
	m.Role = team.Role(role)
	m.JoinedAt = fromMillis(joinedAt)
	return m, nil
}

// PutMember inserts a membership record. The unique (team, user) index
// rejects duplicates.
func (s *Store) PutMember(ctx context.Context, m team.Member) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO team_members ("+memberColumns+") VALUES (?, ?, ?, ?, ?)",
		m.ID, m.TeamID, m.UserID, string(m.Role), toMillis(m.JoinedAt),
	); err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// GetMember loads a membership by id.
func (s *Store) GetMember(ctx context.Context, memberID string) (team.Member, error) {
	if s == nil || s.sqlDB == nil {
		return team.Member{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM team_members WHERE id = ?", memberID)
	m, err := scanMember(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return team.Member{}, storage.ErrNotFound
		}
		return team.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetMemberByTeamAndUser loads the at-most-one membership for the pair.
func (s *Store) GetMemberByTeamAndUser(ctx context.Context, teamID, userID string) (team.Member, error) {
	if s == nil || s.sqlDB == nil {
		return team.Member{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM team_members WHERE team_id = ? AND user_id = ?",
		teamID, userID,
	)
	m, err := scanMember(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return team.Member{}, storage.ErrNotFound
		}
		return team.Member{}, fmt.Errorf("get member by team and user: %w", err)
	}
	return m, nil
}

// ListMembersByTeam returns memberships enriched with user records. The user
// pointer is nil when the user row was deprovisioned.
func (s *Store) ListMembersByTeam(ctx context.Context, teamID string) ([]storage.MemberWithUser, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT m.id, m.team_id, m.user_id, m.role, m.joined_at,
       u.id, u.external_id, u.email, u.display_name, u.avatar_url, u.created_at, u.updated_at
FROM team_members m
LEFT JOIN users u ON u.id = m.user_id
WHERE m.team_id = ?
ORDER BY m.joined_at`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members by team: %w", err)
	}
	defer rows.Close()

	var result []storage.MemberWithUser
	for rows.Next() {
		var entry storage.MemberWithUser
		var role string
		var joinedAt int64
		var userID, externalID, email, displayName, avatarURL sql.NullString
		var userCreatedAt, userUpdatedAt sql.NullInt64
		if err := rows.Scan(
			&entry.Member.ID, &entry.Member.TeamID, &entry.Member.UserID, &role, &joinedAt,
			&userID, &externalID, &email, &displayName, &avatarURL, &userCreatedAt, &userUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		entry.Member.Role = team.Role(role)
		entry.Member.JoinedAt = fromMillis(joinedAt)
		if userID.Valid {
			entry.User = &user.User{
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
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}
	return result, nil
}

// UpdateMemberRole overwrites the role unconditionally. The creator's own
// role is deliberately not protected here; removal is the only guarded path.
func (s *Store) UpdateMemberRole(ctx context.Context, memberID string, role team.Role) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE team_members SET role = ? WHERE id = ?",
		string(role), memberID,
	)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteMember removes a membership record.
func (s *Store) DeleteMember(ctx context.Context, memberID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM team_members WHERE id = ?", memberID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
