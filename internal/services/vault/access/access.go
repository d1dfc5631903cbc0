// Package access enforces team membership and role checks for vault
// operations.
package access

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

// Gate answers membership and role questions against stored memberships.
// Every check is a live storage read; a removed member loses access on the
// next call.
type Gate struct {
	members storage.MemberStore
}

// NewGate creates a gate over the given member store.
func NewGate(members storage.MemberStore) *Gate {
	return &Gate{members: members}
}

// RequireMembership returns the caller's membership in the team, or a
// NOT_A_TEAM_MEMBER error when none exists.
func (g *Gate) RequireMembership(ctx context.Context, u user.User, teamID string) (team.Member, error) {
	if g == nil || g.members == nil {
		return team.Member{}, fmt.Errorf("access gate is not configured")
	}
	member, err := g.members.GetMemberByTeamAndUser(ctx, teamID, u.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return team.Member{}, apperrors.WithMetadata(apperrors.CodeNotATeamMember,
				"not a member of this team", map[string]string{"team_id": teamID})
		}
		return team.Member{}, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}

// RequireRole returns the caller's membership when its role is one of the
// allowed set. A non-member fails with NOT_A_TEAM_MEMBER before any role
// comparison; a member outside the set fails with INSUFFICIENT_ROLE.
func (g *Gate) RequireRole(ctx context.Context, u user.User, teamID string, allowed ...team.Role) (team.Member, error) {
	member, err := g.RequireMembership(ctx, u, teamID)
	if err != nil {
		return team.Member{}, err
	}
	for _, role := range allowed {
		if member.Role == role {
			return member, nil
		}
	}
	return team.Member{}, apperrors.WithMetadata(apperrors.CodeInsufficientRole,
		"insufficient role for this operation", map[string]string{
			"team_id": teamID,
			"role":    string(member.Role),
		})
}
