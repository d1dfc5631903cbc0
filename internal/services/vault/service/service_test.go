package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/services/vault/blob"
	"github.com/docvault/docvault/internal/services/vault/document"
	"github.com/docvault/docvault/internal/services/vault/identity"
	"github.com/docvault/docvault/internal/services/vault/storage/sqlite"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

type fakeBlobs struct {
	mu      sync.Mutex
	next    int
	objects map[string]bool
	deleted []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string]bool{}}
}

func (f *fakeBlobs) RequestUploadTarget(_ context.Context) (blob.UploadTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	objectID := fmt.Sprintf("obj-%d", f.next)
	f.objects[objectID] = true
	return blob.UploadTarget{ObjectID: objectID, URL: "https://blobs.test/" + objectID}, nil
}

func (f *fakeBlobs) ResolveRetrievalURL(_ context.Context, objectID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.objects[objectID] {
		return "", blob.ErrObjectNotFound
	}
	return "https://blobs.test/" + objectID, nil
}

func (f *fakeBlobs) DeleteObject(_ context.Context, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectID)
	f.deleted = append(f.deleted, objectID)
	return nil
}

func (f *fakeBlobs) deletedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

func newTestService(t *testing.T) (*Service, *fakeBlobs) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	blobs := newFakeBlobs()
	svc := New(Config{
		Stores: Stores{
			Users:     store,
			Teams:     store,
			Members:   store,
			Invites:   store,
			Documents: store,
			Versions:  store,
		},
		Blobs: blobs,
	})
	return svc, blobs
}

func ensureUser(t *testing.T, svc *Service, externalID, email string) user.User {
	t.Helper()

	u, err := svc.EnsureUser(context.Background(), identity.Claim{
		ExternalID:  externalID,
		Email:       email,
		DisplayName: "User " + externalID,
	})
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	return u
}

func createTeam(t *testing.T, svc *Service, founder user.User, name string) team.Team {
	t.Helper()

	created, err := svc.CreateTeam(context.Background(), founder, name)
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	return created
}

func wantCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("err = %v, want *apperrors.Error with code %q", err, code)
	}
	if appErr.Code != code {
		t.Fatalf("code = %q, want %q", appErr.Code, code)
	}
}

func TestResolveCurrentUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ResolveCurrentUser(ctx, identity.Claim{})
	wantCode(t, err, apperrors.CodeUnauthenticated)

	_, err = svc.ResolveCurrentUser(ctx, identity.Claim{ExternalID: "ext-1"})
	wantCode(t, err, apperrors.CodeUserNotProvisioned)

	provisioned := ensureUser(t, svc, "ext-1", "one@example.com")
	resolved, err := svc.ResolveCurrentUser(ctx, identity.Claim{ExternalID: "ext-1"})
	if err != nil {
		t.Fatalf("ResolveCurrentUser: %v", err)
	}
	if resolved.ID != provisioned.ID {
		t.Fatalf("resolved id = %q, want %q", resolved.ID, provisioned.ID)
	}
}

func TestCurrentUserReturnsNilWithoutError(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.CurrentUser(ctx, identity.Claim{})
	if err != nil || u != nil {
		t.Fatalf("CurrentUser(empty) = %v, %v; want nil, nil", u, err)
	}
	u, err = svc.CurrentUser(ctx, identity.Claim{ExternalID: "unknown"})
	if err != nil || u != nil {
		t.Fatalf("CurrentUser(unprovisioned) = %v, %v; want nil, nil", u, err)
	}

	ensureUser(t, svc, "ext-1", "one@example.com")
	u, err = svc.CurrentUser(ctx, identity.Claim{ExternalID: "ext-1"})
	if err != nil || u == nil {
		t.Fatalf("CurrentUser(provisioned) = %v, %v; want user", u, err)
	}
}

func TestAddOrInviteMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := ensureUser(t, svc, "ext-admin", "admin@example.com")
	existing := ensureUser(t, svc, "ext-existing", "existing@example.com")
	created := createTeam(t, svc, admin, "Research")

	outcome, err := svc.AddOrInviteMember(ctx, admin, created.ID, "existing@example.com", "editor")
	if err != nil {
		t.Fatalf("AddOrInviteMember existing: %v", err)
	}
	if outcome != OutcomeAdded {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeAdded)
	}

	_, err = svc.AddOrInviteMember(ctx, admin, created.ID, "existing@example.com", "viewer")
	wantCode(t, err, apperrors.CodeAlreadyMember)

	outcome, err = svc.AddOrInviteMember(ctx, admin, created.ID, "new@example.com", "viewer")
	if err != nil {
		t.Fatalf("AddOrInviteMember new: %v", err)
	}
	if outcome != OutcomeInvited {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeInvited)
	}

	_, err = svc.AddOrInviteMember(ctx, admin, created.ID, "new@example.com", "viewer")
	wantCode(t, err, apperrors.CodeDuplicateInvite)

	// Non-admin members cannot add.
	_, err = svc.AddOrInviteMember(ctx, existing, created.ID, "other@example.com", "viewer")
	wantCode(t, err, apperrors.CodeInsufficientRole)

	// Invalid role rejected before any write.
	_, err = svc.AddOrInviteMember(ctx, admin, created.ID, "third@example.com", "owner")
	wantCode(t, err, apperrors.CodeInvalidRole)
}

func TestInviteAcceptedOnProvisioning(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := ensureUser(t, svc, "ext-admin", "admin@example.com")
	created := createTeam(t, svc, admin, "Research")

	if _, err := svc.AddOrInviteMember(ctx, admin, created.ID, "invitee@example.com", "editor"); err != nil {
		t.Fatalf("AddOrInviteMember: %v", err)
	}

	invitee := ensureUser(t, svc, "ext-invitee", "invitee@example.com")
	teams, err := svc.ListTeams(ctx, invitee)
	if err != nil {
		t.Fatalf("ListTeams: %v", err)
	}
	if len(teams) != 1 || teams[0].Team.ID != created.ID || teams[0].Role != team.RoleEditor {
		t.Fatalf("unexpected teams after provisioning: %+v", teams)
	}

	pending, err := svc.ListPendingInvites(ctx, admin, created.ID)
	if err != nil {
		t.Fatalf("ListPendingInvites: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending invites = %d, want 0 after acceptance", len(pending))
	}
}

func TestUpdateMemberRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := ensureUser(t, svc, "ext-admin", "admin@example.com")
	other := ensureUser(t, svc, "ext-other", "other@example.com")
	created := createTeam(t, svc, admin, "Research")
	otherTeam := createTeam(t, svc, other, "Other")

	if _, err := svc.AddOrInviteMember(ctx, admin, created.ID, "other@example.com", "viewer"); err != nil {
		t.Fatalf("AddOrInviteMember: %v", err)
	}
	members, err := svc.GetMembers(ctx, admin, created.ID)
	if err != nil {
		t.Fatalf("GetMembers: %v", err)
	}
	var target string
	for _, m := range members {
		if m.Member.UserID == other.ID {
			target = m.Member.ID
		}
	}

	if err := svc.UpdateMemberRole(ctx, admin, created.ID, target, "editor"); err != nil {
		t.Fatalf("UpdateMemberRole: %v", err)
	}

	// A member id from a different team reads as not found.
	otherMembers, err := svc.GetMembers(ctx, other, otherTeam.ID)
	if err != nil {
		t.Fatalf("GetMembers other: %v", err)
	}
	err = svc.UpdateMemberRole(ctx, admin, created.ID, otherMembers[0].Member.ID, "viewer")
	wantCode(t, err, apperrors.CodeMemberNotFound)
}

func TestRemoveMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := ensureUser(t, svc, "ext-admin", "admin@example.com")
	other := ensureUser(t, svc, "ext-other", "other@example.com")
	created := createTeam(t, svc, admin, "Research")

	if _, err := svc.AddOrInviteMember(ctx, admin, created.ID, "other@example.com", "viewer"); err != nil {
		t.Fatalf("AddOrInviteMember: %v", err)
	}
	members, err := svc.GetMembers(ctx, admin, created.ID)
	if err != nil {
		t.Fatalf("GetMembers: %v", err)
	}
	var founderID, otherID string
	for _, m := range members {
		switch m.Member.UserID {
		case admin.ID:
			founderID = m.Member.ID
		case other.ID:
			otherID = m.Member.ID
		}
	}

	err = svc.RemoveMember(ctx, admin, created.ID, founderID)
	wantCode(t, err, apperrors.CodeCannotRemoveCreator)

	if err := svc.RemoveMember(ctx, admin, created.ID, otherID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	err = svc.RemoveMember(ctx, admin, created.ID, otherID)
	wantCode(t, err, apperrors.CodeMemberNotFound)
}

func TestDeleteTeam(t *testing.T) {
	svc, blobs := newTestService(t)
	ctx := context.Background()
	admin := ensureUser(t, svc, "ext-admin", "admin@example.com")
	other := ensureUser(t, svc, "ext-other", "other@example.com")
	created := createTeam(t, svc, admin, "Research")

	// Promote another member to admin; still not the creator.
	if _, err := svc.AddOrInviteMember(ctx, admin, created.ID, "other@example.com", "admin"); err != nil {
		t.Fatalf("AddOrInviteMember: %v", err)
	}
	err := svc.DeleteTeam(ctx, other, created.ID)
	wantCode(t, err, apperrors.CodeNotTeamCreator)

	// Attach a document with a version so the cascade has blobs to clean.
	doc, err := svc.CreateDocument(ctx, admin, created.ID, "Report")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	target, err := svc.RequestUploadTarget(ctx, admin)
	if err != nil {
		t.Fatalf("RequestUploadTarget: %v", err)
	}
	if _, err := svc.CreateVersion(ctx, admin, document.NewVersionInput{
		DocumentID:      doc.ID,
		StorageObjectID: target.ObjectID,
		FileName:        "report.pdf",
	}); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	if err := svc.DeleteTeam(ctx, admin, created.ID); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	if blobs.deletedCount() != 1 {
		t.Fatalf("blob deletions = %d, want 1", blobs.deletedCount())
	}

	err = svc.DeleteTeam(ctx, admin, created.ID)
	wantCode(t, err, apperrors.CodeTeamNotFound)
}

func TestDocumentLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := ensureUser(t, svc, "ext-admin", "admin@example.com")
	viewer := ensureUser(t, svc, "ext-viewer", "viewer@example.com")
	outsider := ensureUser(t, svc, "ext-outsider", "outsider@example.com")
	created := createTeam(t, svc, admin, "Research")

	if _, err := svc.AddOrInviteMember(ctx, admin, created.ID, "viewer@example.com", "viewer"); err != nil {
		t.Fatalf("AddOrInviteMember: %v", err)
	}

	// Viewers cannot create documents.
	_, err := svc.CreateDocument(ctx, viewer, created.ID, "Nope")
	wantCode(t, err, apperrors.CodeInsufficientRole)

	doc, err := svc.CreateDocument(ctx, admin, created.ID, "Report")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	// Viewers can read.
	detail, err := svc.GetDocument(ctx, viewer, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if detail.CallerRole != team.RoleViewer || detail.Creator == nil || detail.Creator.ID != admin.ID {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	// Outsiders cannot.
	_, err = svc.GetDocument(ctx, outsider, doc.ID)
	wantCode(t, err, apperrors.CodeNotATeamMember)

	err = svc.RenameDocument(ctx, viewer, doc.ID, "Blocked")
	wantCode(t, err, apperrors.CodeInsufficientRole)
	if err := svc.RenameDocument(ctx, admin, doc.ID, "Renamed"); err != nil {
		t.Fatalf("RenameDocument: %v", err)
	}

	summaries, err := svc.ListDocuments(ctx, viewer, created.ID)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Document.Name != "Renamed" {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	err = svc.DeleteDocument(ctx, viewer, doc.ID)
	wantCode(t, err, apperrors.CodeInsufficientRole)
	if err := svc.DeleteDocument(ctx, admin, doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	_, err = svc.GetDocument(ctx, admin, doc.ID)
	wantCode(t, err, apperrors.CodeDocumentNotFound)
}

func TestVersionFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := ensureUser(t, svc, "ext-admin", "admin@example.com")
	outsider := ensureUser(t, svc, "ext-outsider", "outsider@example.com")
	created := createTeam(t, svc, admin, "Research")
	doc, err := svc.CreateDocument(ctx, admin, created.ID, "Report")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	first, err := svc.RequestUploadTarget(ctx, admin)
	if err != nil {
		t.Fatalf("RequestUploadTarget: %v", err)
	}
	second, err := svc.RequestUploadTarget(ctx, admin)
	if err != nil {
		t.Fatalf("RequestUploadTarget: %v", err)
	}

	v1, err := svc.CreateVersion(ctx, admin, document.NewVersionInput{
		DocumentID:      doc.ID,
		StorageObjectID: first.ObjectID,
		FileName:        "v1.pdf",
	})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	v2, err := svc.CreateVersion(ctx, admin, document.NewVersionInput{
		DocumentID:      doc.ID,
		StorageObjectID: second.ObjectID,
		FileName:        "v2.pdf",
		Comment:         "second draft",
	})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if v1.VersionNumber != 1 || v2.VersionNumber != 2 {
		t.Fatalf("version numbers = %d, %d, want 1, 2", v1.VersionNumber, v2.VersionNumber)
	}

	versions, err := svc.ListVersions(ctx, admin, doc.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 || versions[0].Version.VersionNumber != 2 {
		t.Fatalf("unexpected versions: %+v", versions)
	}

	// Download URLs are membership gated.
	url, err := svc.ResolveDownloadURL(ctx, admin, first.ObjectID)
	if err != nil || url == "" {
		t.Fatalf("ResolveDownloadURL: %q, %v", url, err)
	}
	_, err = svc.ResolveDownloadURL(ctx, outsider, first.ObjectID)
	wantCode(t, err, apperrors.CodeNotATeamMember)
	_, err = svc.ResolveDownloadURL(ctx, admin, "unreferenced")
	wantCode(t, err, apperrors.CodeNotFound)
}

func TestCancelInvite(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := ensureUser(t, svc, "ext-admin", "admin@example.com")
	created := createTeam(t, svc, admin, "Research")
	otherAdmin := ensureUser(t, svc, "ext-other", "other@example.com")
	otherTeam := createTeam(t, svc, otherAdmin, "Other")

	if _, err := svc.AddOrInviteMember(ctx, admin, created.ID, "guest@example.com", "viewer"); err != nil {
		t.Fatalf("AddOrInviteMember: %v", err)
	}
	pending, err := svc.ListPendingInvites(ctx, admin, created.ID)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListPendingInvites: %+v, %v", pending, err)
	}
	inviteID := pending[0].Invite.ID

	// Another team's admin cannot cancel through their own team id.
	err = svc.CancelInvite(ctx, otherAdmin, otherTeam.ID, inviteID)
	wantCode(t, err, apperrors.CodeInviteNotFound)

	if err := svc.CancelInvite(ctx, admin, created.ID, inviteID); err != nil {
		t.Fatalf("CancelInvite: %v", err)
	}
	err = svc.CancelInvite(ctx, admin, created.ID, inviteID)
	wantCode(t, err, apperrors.CodeInviteNotPending)
	err = svc.CancelInvite(ctx, admin, created.ID, "missing")
	wantCode(t, err, apperrors.CodeInviteNotFound)
}

func TestHandleIdentityEvent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.HandleIdentityEvent(ctx, identity.Event{
		Type: identity.EventUserCreated,
		Data: identity.EventData{
			ID:             "ext-hook",
			EmailAddresses: []identity.EmailAddress{{EmailAddress: "hook@example.com"}},
			FirstName:      "Hook",
			LastName:       "User",
		},
	})
	if err != nil {
		t.Fatalf("HandleIdentityEvent created: %v", err)
	}
	resolved, err := svc.ResolveCurrentUser(ctx, identity.Claim{ExternalID: "ext-hook"})
	if err != nil {
		t.Fatalf("ResolveCurrentUser: %v", err)
	}
	if resolved.DisplayName != "Hook User" {
		t.Fatalf("display name = %q, want Hook User", resolved.DisplayName)
	}

	err = svc.HandleIdentityEvent(ctx, identity.Event{
		Type: identity.EventUserDeleted,
		Data: identity.EventData{ID: "ext-hook"},
	})
	if err != nil {
		t.Fatalf("HandleIdentityEvent deleted: %v", err)
	}
	_, err = svc.ResolveCurrentUser(ctx, identity.Claim{ExternalID: "ext-hook"})
	wantCode(t, err, apperrors.CodeUserNotProvisioned)

	// Unknown events are ignored.
	if err := svc.HandleIdentityEvent(ctx, identity.Event{Type: "session.created"}); err != nil {
		t.Fatalf("HandleIdentityEvent unknown: %v", err)
	}
}
