package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/services/vault/document"
	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

var errDocumentNotFound = apperrors.New(apperrors.CodeDocumentNotFound, "document not found")

// DocumentDetail is a single document with its creator and the caller's role
// in the owning team.
type DocumentDetail struct {
	Document   document.Document
	Creator    *user.User
	CallerRole team.Role
}

// requireDocument loads a document and the caller's membership in its team.
// A missing document surfaces before any membership information leaks.
func (s *Service) requireDocument(ctx context.Context, caller user.User, documentID string, roles ...team.Role) (document.Document, team.Member, error) {
	doc, err := s.stores.Documents.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return document.Document{}, team.Member{}, errDocumentNotFound
		}
		return document.Document{}, team.Member{}, fmt.Errorf("get document: %w", err)
	}

	var member team.Member
	if len(roles) == 0 {
		member, err = s.gate.RequireMembership(ctx, caller, doc.TeamID)
	} else {
		member, err = s.gate.RequireRole(ctx, caller, doc.TeamID, roles...)
	}
	if err != nil {
		return document.Document{}, team.Member{}, err
	}
	return doc, member, nil
}

// CreateDocument creates an empty document in the team. Admins and editors
// only.
func (s *Service) CreateDocument(ctx context.Context, caller user.User, teamID, name string) (document.Document, error) {
	if _, err := s.stores.Teams.GetTeam(ctx, teamID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return document.Document{}, errTeamNotFound
		}
		return document.Document{}, fmt.Errorf("get team: %w", err)
	}
	if _, err := s.gate.RequireRole(ctx, caller, teamID, team.RoleAdmin, team.RoleEditor); err != nil {
		return document.Document{}, err
	}

	doc, err := document.NewDocument(teamID, name, caller.ID, s.clock, s.newID)
	if err != nil {
		return document.Document{}, err
	}
	if err := s.stores.Documents.PutDocument(ctx, doc); err != nil {
		return document.Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns the team's documents enriched with creator, latest
// version, and version count. Any member may list.
func (s *Service) ListDocuments(ctx context.Context, caller user.User, teamID string) ([]storage.DocumentSummary, error) {
	if _, err := s.gate.RequireMembership(ctx, caller, teamID); err != nil {
		return nil, err
	}
	documents, err := s.stores.Documents.ListDocumentsByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return documents, nil
}

// GetDocument returns one document with its creator and the caller's role.
func (s *Service) GetDocument(ctx context.Context, caller user.User, documentID string) (DocumentDetail, error) {
	doc, member, err := s.requireDocument(ctx, caller, documentID)
	if err != nil {
		return DocumentDetail{}, err
	}

	detail := DocumentDetail{Document: doc, CallerRole: member.Role}
	creator, err := s.stores.Users.GetUser(ctx, doc.CreatedBy)
	switch {
	case err == nil:
		detail.Creator = &creator
	case !errors.Is(err, storage.ErrNotFound):
		return DocumentDetail{}, fmt.Errorf("get document creator: %w", err)
	}
	return detail, nil
}

// RenameDocument changes the document's name and bumps updatedAt. Admins and
// editors only.
func (s *Service) RenameDocument(ctx context.Context, caller user.User, documentID, name string) error {
	if _, _, err := s.requireDocument(ctx, caller, documentID, team.RoleAdmin, team.RoleEditor); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return document.ErrEmptyName
	}
	if err := s.stores.Documents.RenameDocument(ctx, documentID, name, s.clock().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errDocumentNotFound
		}
		return fmt.Errorf("rename document: %w", err)
	}
	return nil
}

// DeleteDocument removes the document and all its versions. Admins only. Blob
// deletions run after commit and are never rolled back.
func (s *Service) DeleteDocument(ctx context.Context, caller user.User, documentID string) error {
	if _, _, err := s.requireDocument(ctx, caller, documentID, team.RoleAdmin); err != nil {
		return err
	}
	objectIDs, err := s.stores.Documents.DeleteDocumentCascade(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errDocumentNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}
	s.logger.Info("document deleted",
		zap.String("document_id", documentID),
		zap.Int("versions", len(objectIDs)),
	)
	s.deleteObjects(ctx, objectIDs)
	return nil
}
