package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/services/vault/blob"
	"github.com/docvault/docvault/internal/services/vault/document"
	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

// CreateVersion attaches an uploaded blob as the document's next version.
// Admins and editors only. The version number and the parent's updatedAt bump
// happen inside the insert transaction.
func (s *Service) CreateVersion(ctx context.Context, caller user.User, input document.NewVersionInput) (document.Version, error) {
	if _, _, err := s.requireDocument(ctx, caller, input.DocumentID, team.RoleAdmin, team.RoleEditor); err != nil {
		return document.Version{}, err
	}

	input.UploadedBy = caller.ID
	v, err := document.NewVersion(input, s.clock, s.newID)
	if err != nil {
		return document.Version{}, err
	}

	created, err := s.stores.Versions.CreateVersion(ctx, v, s.clock().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return document.Version{}, errDocumentNotFound
		}
		return document.Version{}, fmt.Errorf("create version: %w", err)
	}
	return created, nil
}

// ListVersions returns the document's versions newest first, enriched with
// uploaders. Any member may list.
func (s *Service) ListVersions(ctx context.Context, caller user.User, documentID string) ([]storage.VersionWithUploader, error) {
	if _, _, err := s.requireDocument(ctx, caller, documentID); err != nil {
		return nil, err
	}
	versions, err := s.stores.Versions.ListVersionsByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// RequestUploadTarget reserves a blob object for an authenticated caller.
// Membership is checked later, when the object is attached to a document.
func (s *Service) RequestUploadTarget(ctx context.Context, caller user.User) (blob.UploadTarget, error) {
	if s.blobs == nil {
		return blob.UploadTarget{}, fmt.Errorf("object storage is not configured")
	}
	target, err := s.blobs.RequestUploadTarget(ctx)
	if err != nil {
		return blob.UploadTarget{}, fmt.Errorf("request upload target: %w", err)
	}
	return target, nil
}

// ResolveDownloadURL returns a retrieval URL for a version's content. The
// caller must be a member of the team owning the document the object belongs
// to; an unreferenced object is indistinguishable from a missing one.
func (s *Service) ResolveDownloadURL(ctx context.Context, caller user.User, storageObjectID string) (string, error) {
	version, err := s.stores.Versions.GetVersionByStorageObject(ctx, storageObjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", apperrors.New(apperrors.CodeNotFound, "object not found")
		}
		return "", fmt.Errorf("resolve version for object: %w", err)
	}
	if _, _, err := s.requireDocument(ctx, caller, version.DocumentID); err != nil {
		return "", err
	}

	if s.blobs == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	url, err := s.blobs.ResolveRetrievalURL(ctx, storageObjectID)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return "", apperrors.New(apperrors.CodeNotFound, "object not found")
		}
		return "", fmt.Errorf("resolve retrieval url: %w", err)
	}
	return url, nil
}
