package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

const userColumns = "id, external_id, email, display_name, avatar_url, created_at, updated_at"

func scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	var createdAt, updatedAt int64
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.DisplayName, &u.AvatarURL, &createdAt, &updatedAt); err != nil {
		return user.User{}, err
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func getUserBy(ctx context.Context, q queryRower, column, value string) (user.User, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, nil
}

// GetUser loads a user by internal id.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	return getUserBy(ctx, s.sqlDB, "id", userID)
}

// GetUserByExternalID loads a user by the identity provider's subject.
func (s *Store) GetUserByExternalID(ctx context.Context, externalID string) (user.User, error) {
	return getUserBy(ctx, s.sqlDB, "external_id", externalID)
}

// GetUserByEmail loads a user by exact email match.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return getUserBy(ctx, s.sqlDB, "email", email)
}

// ProvisionUser upserts a user by external id and, on first creation,
// converts every pending invite with a matching email to a membership. The
// whole operation is one transaction so a crash can never leave an accepted
// invite without its member row.
func (s *Store) ProvisionUser(ctx context.Context, candidate user.User) (storage.ProvisionResult, error) {
	if s == nil || s.sqlDB == nil {
		return storage.ProvisionResult{}, fmt.Errorf("storage is not configured")
	}
	candidate.ExternalID = strings.TrimSpace(candidate.ExternalID)
	if candidate.ExternalID == "" {
		return storage.ProvisionResult{}, fmt.Errorf("external id is required")
	}

	var result storage.ProvisionResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := getUserBy(ctx, tx, "external_id", candidate.ExternalID)
		switch {
		case err == nil:
			// Update path: pure field overwrite, identifiers kept.
			existing.Email = candidate.Email
			existing.DisplayName = candidate.DisplayName
			existing.AvatarURL = candidate.AvatarURL
			existing.UpdatedAt = candidate.UpdatedAt
			if _, err := tx.ExecContext(ctx,
				"UPDATE users SET email = ?, display_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?",
				existing.Email, existing.DisplayName, existing.AvatarURL, toMillis(existing.UpdatedAt), existing.ID,
			); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
			result = storage.ProvisionResult{User: existing}
			return nil
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
			candidate.ID, candidate.ExternalID, candidate.Email, candidate.DisplayName, candidate.AvatarURL,
			toMillis(candidate.CreatedAt), toMillis(candidate.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		accepted, err := s.acceptPendingInvites(ctx, tx, candidate)
		if err != nil {
			return err
		}
		result = storage.ProvisionResult{User: candidate, Created: true, AcceptedInvites: accepted}
		return nil
	})
	if err != nil {
		return storage.ProvisionResult{}, err
	}
	return result, nil
}

// acceptPendingInvites converts pending invites matching the new user's email
// (case-sensitive exact match) into memberships.
func (s *Store) acceptPendingInvites(ctx context.Context, tx *sql.Tx, u user.User) ([]storage.AcceptedInvite, error) {
	if u.Email == "" {
		return nil, nil
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT "+inviteColumns+" FROM invites WHERE email = ? AND status = ? ORDER BY created_at",
		u.Email, string(team.InviteStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending invites for email: %w", err)
	}
	invites, err := collectInvites(rows)
	if err != nil {
		return nil, err
	}

	accepted := make([]storage.AcceptedInvite, 0, len(invites))
	for _, invite := range invites {
		memberID, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate member id: %w", err)
		}
		member := team.Member{
			ID:       memberID,
			TeamID:   invite.TeamID,
			UserID:   u.ID,
			Role:     invite.Role,
			JoinedAt: s.clock().UTC(),
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO team_members ("+memberColumns+") VALUES (?, ?, ?, ?, ?)",
			member.ID, member.TeamID, member.UserID, string(member.Role), toMillis(member.JoinedAt),
		); err != nil {
			return nil, fmt.Errorf("insert member for invite %s: %w", invite.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE invites SET status = ? WHERE id = ?",
			string(team.InviteStatusAccepted), invite.ID,
		); err != nil {
			return nil, fmt.Errorf("accept invite %s: %w", invite.ID, err)
		}
		invite.Status = team.InviteStatusAccepted
		accepted = append(accepted, storage.AcceptedInvite{Invite: invite, Member: member})
	}
	return accepted, nil
}

// DeleteUserByExternalID removes the user row only. Memberships, documents,
// and invites keep their references; dangling user ids are accepted.
func (s *Store) DeleteUserByExternalID(ctx context.Context, externalID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM users WHERE external_id = ?", externalID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
