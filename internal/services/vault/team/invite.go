package team

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/platform/id"
)

// InviteStatus tracks the invite lifecycle. pending is the only non-terminal
// state.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusCancelled InviteStatus = "cancelled"
)

// ErrEmptyInviteEmail indicates an invite without a target address.
var ErrEmptyInviteEmail = apperrors.New(apperrors.CodeEmailEmpty, "invite email is required")

// Invite is a pending grant of membership to an email address that has no
// account yet. At most one pending invite exists per (team, email).
type Invite struct {
	ID        string
	TeamID    string
	Email     string
	Role      Role
	InvitedBy string
	Status    InviteStatus
	CreatedAt time.Time
}

// NewInvite creates a pending invite record.
//
// The email is stored as received after trimming; acceptance matching is a
// case-sensitive exact match on this value.
func NewInvite(teamID, email string, role Role, invitedBy string, now func() time.Time, idGenerator func() (string, error)) (Invite, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return Invite{}, ErrEmptyInviteEmail
	}
	if !role.Valid() {
		return Invite{}, ErrInvalidRole
	}

	inviteID, err := idGenerator()
	if err != nil {
		return Invite{}, fmt.Errorf("generate invite id: %w", err)
	}

	return Invite{
		ID:        inviteID,
		TeamID:    teamID,
		Email:     email,
		Role:      role,
		InvitedBy: invitedBy,
		Status:    InviteStatusPending,
		CreatedAt: now().UTC(),
	}, nil
}
