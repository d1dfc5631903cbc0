package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/services/vault/mail"
	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

// AddMemberOutcome reports how AddOrInviteMember resolved.
type AddMemberOutcome string

const (
	// OutcomeAdded means the email belonged to a provisioned user who became
	// a member immediately.
	OutcomeAdded AddMemberOutcome = "added"
	// OutcomeInvited means a pending invite was recorded for a not-yet-known
	// email.
	OutcomeInvited AddMemberOutcome = "invited"
)

var errTeamNotFound = apperrors.New(apperrors.CodeTeamNotFound, "team not found")

// CreateTeam creates a team with the caller as its founding admin member, in
// one transaction.
func (s *Service) CreateTeam(ctx context.Context, caller user.User, name string) (team.Team, error) {
	newTeam, err := team.NewTeam(name, caller.ID, s.clock, s.newID)
	if err != nil {
		return team.Team{}, err
	}
	founder, err := team.NewMember(newTeam.ID, caller.ID, team.RoleAdmin, s.clock, s.newID)
	if err != nil {
		return team.Team{}, err
	}
	if err := s.stores.Teams.CreateTeamWithFounder(ctx, newTeam, founder); err != nil {
		return team.Team{}, fmt.Errorf("create team: %w", err)
	}
	return newTeam, nil
}

// ListTeams returns the caller's teams with their role in each.
func (s *Service) ListTeams(ctx context.Context, caller user.User) ([]storage.TeamWithRole, error) {
	teams, err := s.stores.Teams.ListTeamsByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// GetTeam returns a team with the caller's role. Missing teams surface before
// the membership check so callers can distinguish the two.
func (s *Service) GetTeam(ctx context.Context, caller user.User, teamID string) (storage.TeamWithRole, error) {
	found, err := s.stores.Teams.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.TeamWithRole{}, errTeamNotFound
		}
		return storage.TeamWithRole{}, fmt.Errorf("get team: %w", err)
	}
	member, err := s.gate.RequireMembership(ctx, caller, teamID)
	if err != nil {
		return storage.TeamWithRole{}, err
	}
	return storage.TeamWithRole{Team: found, Role: member.Role}, nil
}

// GetMembers returns the team's memberships enriched with user records.
func (s *Service) GetMembers(ctx context.Context, caller user.User, teamID string) ([]storage.MemberWithUser, error) {
	if _, err := s.gate.RequireMembership(ctx, caller, teamID); err != nil {
		return nil, err
	}
	members, err := s.stores.Members.ListMembersByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// AddOrInviteMember adds a provisioned user directly or records a pending
// invite for an unknown email. Only admins may call it. The invite path
// schedules a notification email; delivery failures never fail the operation.
func (s *Service) AddOrInviteMember(ctx context.Context, caller user.User, teamID, email, roleValue string) (AddMemberOutcome, error) {
	member, err := s.gate.RequireRole(ctx, caller, teamID, team.RoleAdmin)
	if err != nil {
		return "", err
	}
	role, err := team.ParseRole(roleValue)
	if err != nil {
		return "", err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperrors.New(apperrors.CodeEmailEmpty, "email is required")
	}

	existing, err := s.stores.Users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if _, err := s.stores.Members.GetMemberByTeamAndUser(ctx, teamID, existing.ID); err == nil {
			return "", apperrors.New(apperrors.CodeAlreadyMember, "user is already a member of this team")
		} else if !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("check existing membership: %w", err)
		}
		newMember, err := team.NewMember(teamID, existing.ID, role, s.clock, s.newID)
		if err != nil {
			return "", err
		}
		if err := s.stores.Members.PutMember(ctx, newMember); err != nil {
			return "", fmt.Errorf("add member: %w", err)
		}
		return OutcomeAdded, nil
	case !errors.Is(err, storage.ErrNotFound):
		return "", fmt.Errorf("look up user by email: %w", err)
	}

	if _, err := s.stores.Invites.GetPendingInvite(ctx, teamID, email); err == nil {
		return "", apperrors.New(apperrors.CodeDuplicateInvite, "a pending invite already exists for this email")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("check pending invite: %w", err)
	}

	invite, err := team.NewInvite(teamID, email, role, caller.ID, s.clock, s.newID)
	if err != nil {
		return "", err
	}
	if err := s.stores.Invites.PutInvite(ctx, invite); err != nil {
		return "", fmt.Errorf("record invite: %w", err)
	}

	s.scheduleInviteEmail(ctx, caller, member.TeamID, invite)
	return OutcomeInvited, nil
}

// scheduleInviteEmail enqueues the notification for a new invite. Everything
// here is best effort; the invite row is already committed.
func (s *Service) scheduleInviteEmail(ctx context.Context, inviter user.User, teamID string, invite team.Invite) {
	if s.emails == nil {
		return
	}
	teamName := teamID
	if found, err := s.stores.Teams.GetTeam(ctx, teamID); err == nil {
		teamName = found.Name
	}
	s.emails.Enqueue(mail.InviteEmail{
		ToEmail:     invite.Email,
		TeamName:    teamName,
		InviterName: inviter.DisplayName,
		Role:        string(invite.Role),
	})
}

// UpdateMemberRole overwrites a member's role. The target must belong to the
// team; the creator's own role is deliberately not protected.
func (s *Service) UpdateMemberRole(ctx context.Context, caller user.User, teamID, memberID, roleValue string) error {
	if _, err := s.gate.RequireRole(ctx, caller, teamID, team.RoleAdmin); err != nil {
		return err
	}
	role, err := team.ParseRole(roleValue)
	if err != nil {
		return err
	}
	member, err := s.stores.Members.GetMember(ctx, memberID)
	if err != nil || member.TeamID != teamID {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("get member: %w", err)
		}
		return apperrors.New(apperrors.CodeMemberNotFound, "member not found in this team")
	}
	if err := s.stores.Members.UpdateMemberRole(ctx, memberID, role); err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership. The team creator can never be removed.
func (s *Service) RemoveMember(ctx context.Context, caller user.User, teamID, memberID string) error {
	if _, err := s.gate.RequireRole(ctx, caller, teamID, team.RoleAdmin); err != nil {
		return err
	}
	member, err := s.stores.Members.GetMember(ctx, memberID)
	if err != nil || member.TeamID != teamID {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("get member: %w", err)
		}
		return apperrors.New(apperrors.CodeMemberNotFound, "member not found in this team")
	}

	found, err := s.stores.Teams.GetTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	if member.UserID == found.CreatedBy {
		return apperrors.New(apperrors.CodeCannotRemoveCreator, "the team creator cannot be removed")
	}

	if err := s.stores.Members.DeleteMember(ctx, memberID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// DeleteTeam removes a team and everything it owns. Only the creator may
// delete, and they must still hold the admin role. Blob deletions run after
// the transaction commits and are never rolled back.
func (s *Service) DeleteTeam(ctx context.Context, caller user.User, teamID string) error {
	found, err := s.stores.Teams.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errTeamNotFound
		}
		return fmt.Errorf("get team: %w", err)
	}
	if _, err := s.gate.RequireRole(ctx, caller, teamID, team.RoleAdmin); err != nil {
		return err
	}
	if found.CreatedBy != caller.ID {
		return apperrors.New(apperrors.CodeNotTeamCreator, "only the team creator can delete the team")
	}

	result, err := s.stores.Teams.DeleteTeamCascade(ctx, teamID)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	s.logger.Info("team deleted",
		zap.String("team_id", teamID),
		zap.Int64("members", result.MembersDeleted),
		zap.Int64("invites", result.InvitesDeleted),
		zap.Int64("documents", result.DocumentsDeleted),
		zap.Int64("versions", result.VersionsDeleted),
	)
	s.deleteObjects(ctx, result.StorageObjectIDs)
	return nil
}
