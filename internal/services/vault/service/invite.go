package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

var errInviteNotFound = apperrors.New(apperrors.CodeInviteNotFound, "invite not found in this team")

// ListPendingInvites returns the team's pending invites with inviter names.
// Any member may look; only admins may cancel.
func (s *Service) ListPendingInvites(ctx context.Context, caller user.User, teamID string) ([]storage.InviteWithInviter, error) {
	if _, err := s.gate.RequireMembership(ctx, caller, teamID); err != nil {
		return nil, err
	}
	invites, err := s.stores.Invites.ListPendingInvitesByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list pending invites: %w", err)
	}
	return invites, nil
}

// CancelInvite moves a pending invite to cancelled. An invite belonging to a
// different team is reported as not found, never leaked.
func (s *Service) CancelInvite(ctx context.Context, caller user.User, teamID, inviteID string) error {
	if _, err := s.gate.RequireRole(ctx, caller, teamID, team.RoleAdmin); err != nil {
		return err
	}

	invite, err := s.stores.Invites.GetInvite(ctx, inviteID)
	if err != nil || invite.TeamID != teamID {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("get invite: %w", err)
		}
		return errInviteNotFound
	}
	if invite.Status != team.InviteStatusPending {
		return apperrors.WithMetadata(apperrors.CodeInviteNotPending,
			"invite is not pending", map[string]string{"status": string(invite.Status)})
	}

	if err := s.stores.Invites.UpdateInviteStatus(ctx, inviteID, team.InviteStatusCancelled); err != nil {
		return fmt.Errorf("cancel invite: %w", err)
	}
	return nil
}
