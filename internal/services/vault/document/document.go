// Package document provides versioned document records owned by teams.
package document

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/platform/id"
)

// ErrEmptyName indicates a document without a name.
var ErrEmptyName = apperrors.New(apperrors.CodeDocumentNameEmpty, "document name is required")

// Document is a named container holding an ordered history of versions.
type Document struct {
	ID        string
	Name      string
	TeamID    string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDocument creates a document record inside a team.
func NewDocument(teamID, name, createdBy string, now func() time.Time, idGenerator func() (string, error)) (Document, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Document{}, ErrEmptyName
	}

	documentID, err := idGenerator()
	if err != nil {
		return Document{}, fmt.Errorf("generate document id: %w", err)
	}

	createdAt := now().UTC()
	return Document{
		ID:        documentID,
		Name:      name,
		TeamID:    teamID,
		CreatedBy: createdBy,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}
