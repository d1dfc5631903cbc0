package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
)

const inviteColumns = "id, team_id, email, role, invited_by, status, created_at"

func collectInvites(rows *sql.Rows) ([]team.Invite, error) {
	defer rows.Close()

	var invites []team.Invite
	for rows.Next() {
		var invite team.Invite
		var role, status string
		var createdAt int64
		if err := rows.Scan(&invite.ID, &invite.TeamID, &invite.Email, &role, &invite.InvitedBy, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan invite row: %w", err)
		}
		invite.Role = team.Role(role)
		invite.Status = team.InviteStatus(status)
		invite.CreatedAt = fromMillis(createdAt)
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invite rows: %w", err)
	}
	return invites, nil
}

// PutInvite inserts an invite record. The partial unique index rejects a
// second pending invite for the same (team, email).
func (s *Store) PutInvite(ctx context.Context, invite team.Invite) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO invites ("+inviteColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		invite.ID, invite.TeamID, invite.Email, string(invite.Role), invite.InvitedBy,
		string(invite.Status), toMillis(invite.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

// GetInvite loads an invite by id.
func (s *Store) GetInvite(ctx context.Context, inviteID string) (team.Invite, error) {
	if s == nil || s.sqlDB == nil {
		return team.Invite{}, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT "+inviteColumns+" FROM invites WHERE id = ?", inviteID)
	if err != nil {
		return team.Invite{}, fmt.Errorf("get invite: %w", err)
	}
	invites, err := collectInvites(rows)
	if err != nil {
		return team.Invite{}, err
	}
	if len(invites) == 0 {
		return team.Invite{}, storage.ErrNotFound
	}
	return invites[0], nil
}

// GetPendingInvite returns the at-most-one pending invite for the pair.
func (s *Store) GetPendingInvite(ctx context.Context, teamID, email string) (team.Invite, error) {
	if s == nil || s.sqlDB == nil {
		return team.Invite{}, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+inviteColumns+" FROM invites WHERE team_id = ? AND email = ? AND status = ?",
		teamID, email, string(team.InviteStatusPending),
	)
	if err != nil {
		return team.Invite{}, fmt.Errorf("get pending invite: %w", err)
	}
	invites, err := collectInvites(rows)
	if err != nil {
		return team.Invite{}, err
	}
	if len(invites) == 0 {
		return team.Invite{}, storage.ErrNotFound
	}
	return invites[0], nil
}

// ListPendingInvitesByTeam returns pending invites enriched with the
// inviter's display name, "Unknown" when the inviter row is gone.
func (s *Store) ListPendingInvitesByTeam(ctx context.Context, teamID string) ([]storage.InviteWithInviter, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT i.id, i.team_id, i.email, i.role, i.invited_by, i.status, i.created_at, u.display_name
FROM invites i
LEFT JOIN users u ON u.id = i.invited_by
WHERE i.team_id = ? AND i.status = ?
ORDER BY i.created_at`,
		teamID, string(team.InviteStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending invites: %w", err)
	}
	defer rows.Close()

	var result []storage.InviteWithInviter
	for rows.Next() {
		var entry storage.InviteWithInviter
		var role, status string
		var createdAt int64
		var inviterName sql.NullString
		if err := rows.Scan(
			&entry.Invite.ID, &entry.Invite.TeamID, &entry.Invite.Email, &role,
			&entry.Invite.InvitedBy, &status, &createdAt, &inviterName,
		); err != nil {
			return nil, fmt.Errorf("scan pending invite row: %w", err)
		}
		entry.Invite.Role = team.Role(role)
		entry.Invite.Status = team.InviteStatus(status)
		entry.Invite.CreatedAt = fromMillis(createdAt)
		entry.InviterName = "Unknown"
		if inviterName.Valid && inviterName.String != "" {
			entry.InviterName = inviterName.String
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending invite rows: %w", err)
	}
	return result, nil
}

// UpdateInviteStatus moves an invite to a terminal state.
func (s *Store) UpdateInviteStatus(ctx context.Context, inviteID string, status team.InviteStatus) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE invites SET status = ? WHERE id = ?",
		string(status), inviteID,
	)
	if err != nil {
		return fmt.Errorf("update invite status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
