// Package team provides workgroup, membership, and invite records.
package team

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/platform/id"
)

// ErrEmptyName indicates a team without a name.
var ErrEmptyName = apperrors.New(apperrors.CodeTeamNameEmpty, "team name is required")

// Team is a named workgroup with one creator and a role-scoped member set.
type Team struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

// NewTeam creates a team record owned by the given user.
//
// A team is only ever persisted together with its founding admin membership;
// callers pair this with NewMember and store both atomically.
func NewTeam(name string, createdBy string, now func() time.Time, idGenerator func() (string, error)) (Team, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Team{}, ErrEmptyName
	}

	teamID, err := idGenerator()
	if err != nil {
		return Team{}, fmt.Errorf("generate team id: %w", err)
	}

	return Team{
		ID:        teamID,
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now().UTC(),
	}, nil
}
