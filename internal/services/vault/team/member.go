package team

import (
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/platform/id"
)

// Member ties a user to a team with a role. At most one member row exists per
// (team, user) pair.
type Member struct {
	ID       string
	TeamID   string
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// NewMember creates a membership record.
func NewMember(teamID, userID string, role Role, now func() time.Time, idGenerator func() (string, error)) (Member, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	if !role.Valid() {
		return Member{}, ErrInvalidRole
	}

	memberID, err := idGenerator()
	if err != nil {
		return Member{}, fmt.Errorf("generate member id: %w", err)
	}

	return Member{
		ID:       memberID,
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: now().UTC(),
	}, nil
}
