// Package storage defines the persistence contracts for the vault service.
package storage

import (
	"context"
	"time"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/services/vault/document"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ProvisionResult reports the outcome of an idempotent user upsert.
type ProvisionResult struct {
	User    user.User
	Created bool
	// AcceptedInvites lists the pending invites converted to memberships
	// when the user was created. Empty on the update path.
	AcceptedInvites []AcceptedInvite
}

// AcceptedInvite pairs a flipped invite with the membership it produced.
type AcceptedInvite struct {
	Invite team.Invite
	Member team.Member
}

// UserStore persists durable identity records.
type UserStore interface {
	// ProvisionUser upserts by external id as one transaction. When no row
	// exists, candidate is inserted and every pending invite whose email
	// exactly matches the candidate's email is converted to a membership.
	// When a row exists, email/display name/avatar are overwritten and the
	// candidate's identifiers are ignored.
	ProvisionUser(ctx context.Context, candidate user.User) (ProvisionResult, error)
	GetUser(ctx context.Context, userID string) (user.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	DeleteUserByExternalID(ctx context.Context, externalID string) error
}

// TeamWithRole pairs a team with the role of the user the list was scoped to.
type TeamWithRole struct {
	Team team.Team
	Role team.Role
}

// CascadeResult reports what a team cascade removed.
type CascadeResult struct {
	MembersDeleted   int64
	InvitesDeleted   int64
	DocumentsDeleted int64
	VersionsDeleted  int64
	// StorageObjectIDs references blobs whose version rows were removed.
	// The caller deletes these from external storage after the transaction
	// commits; blob deletion is never part of the transaction.
	StorageObjectIDs []string
}

// TeamStore persists workgroup records.
type TeamStore interface {
	// CreateTeamWithFounder inserts the team and its founding admin
	// membership as one transaction. A team is never observable without
	// its founder.
	CreateTeamWithFounder(ctx context.Context, t team.Team, founder team.Member) error
	GetTeam(ctx context.Context, teamID string) (team.Team, error)
	ListTeamsByUser(ctx context.Context, userID string) ([]TeamWithRole, error)
	// DeleteTeamCascade removes members, invites, documents, versions, and
	// the team itself in one transaction, in that order.
	DeleteTeamCascade(ctx context.Context, teamID string) (CascadeResult, error)
}

// MemberWithUser pairs a membership with its user record when it still exists.
type MemberWithUser struct {
	Member team.Member
	User   *user.User
}

// MemberStore persists team membership records.
type MemberStore interface {
	PutMember(ctx context.Context, m team.Member) error
	GetMember(ctx context.Context, memberID string) (team.Member, error)
	GetMemberByTeamAndUser(ctx context.Context, teamID, userID string) (team.Member, error)
	ListMembersByTeam(ctx context.Context, teamID string) ([]MemberWithUser, error)
	UpdateMemberRole(ctx context.Context, memberID string, role team.Role) error
	DeleteMember(ctx context.Context, memberID string) error
}

// InviteWithInviter pairs an invite with the inviter's display name.
type InviteWithInviter struct {
	Invite      team.Invite
	InviterName string
}

// InviteStore persists invite records.
type InviteStore interface {
	PutInvite(ctx context.Context, invite team.Invite) error
	GetInvite(ctx context.Context, inviteID string) (team.Invite, error)
	// GetPendingInvite returns the at-most-one pending invite for the pair.
	GetPendingInvite(ctx context.Context, teamID, email string) (team.Invite, error)
	ListPendingInvitesByTeam(ctx context.Context, teamID string) ([]InviteWithInviter, error)
	UpdateInviteStatus(ctx context.Context, inviteID string, status team.InviteStatus) error
}

// DocumentSummary enriches a document with its creator and latest version.
type DocumentSummary struct {
	Document      document.Document
	Creator       *user.User
	LatestVersion *document.Version
	VersionCount  int64
}

// DocumentStore persists document records.
type DocumentStore interface {
	PutDocument(ctx context.Context, doc document.Document) error
	GetDocument(ctx context.Context, documentID string) (document.Document, error)
	ListDocumentsByTeam(ctx context.Context, teamID string) ([]DocumentSummary, error)
	RenameDocument(ctx context.Context, documentID, name string, updatedAt time.Time) error
	// DeleteDocumentCascade removes all versions then the document in one
	// transaction and returns the referenced storage object ids for
	// post-commit blob cleanup.
	DeleteDocumentCascade(ctx context.Context, documentID string) ([]string, error)
}

// VersionWithUploader pairs a version with its uploader when it still exists.
type VersionWithUploader struct {
	Version  document.Version
	Uploader *user.User
}

// VersionStore persists document version records.
type VersionStore interface {
	// CreateVersion allocates the next version number (max existing + 1,
	// starting at 1) and bumps the parent document's updatedAt, all inside
	// the insert transaction.
	CreateVersion(ctx context.Context, v document.Version, updatedAt time.Time) (document.Version, error)
	// ListVersionsByDocument returns versions in descending number order.
	ListVersionsByDocument(ctx context.Context, documentID string) ([]VersionWithUploader, error)
	GetVersionByStorageObject(ctx context.Context, storageObjectID string) (document.Version, error)
}
