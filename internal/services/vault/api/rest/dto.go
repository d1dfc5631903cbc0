package rest

import (
	"time"

	"github.com/docvault/docvault/internal/services/vault/document"
	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/team"
	"github.com/docvault/docvault/internal/services/vault/user"
)

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
	}
}

func toUserResponsePtr(u *user.User) *userResponse {
	if u == nil {
		return nil
	}
	resp := toUserResponse(*u)
	return &resp
}

type teamResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Role      string    `json:"role,omitempty"`
}

func toTeamResponse(t team.Team, role team.Role) teamResponse {
	return teamResponse{
		ID:        t.ID,
		Name:      t.Name,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
		Role:      string(role),
	}
}

type memberResponse struct {
	ID       string        `json:"id"`
	TeamID   string        `json:"team_id"`
	UserID   string        `json:"user_id"`
	Role     string        `json:"role"`
	JoinedAt time.Time     `json:"joined_at"`
	User     *userResponse `json:"user,omitempty"`
}

func toMemberResponse(entry storage.MemberWithUser) memberResponse {
	return memberResponse{
		ID:       entry.Member.ID,
		TeamID:   entry.Member.TeamID,
		UserID:   entry.Member.UserID,
		Role:     string(entry.Member.Role),
		JoinedAt: entry.Member.JoinedAt,
		User:     toUserResponsePtr(entry.User),
	}
}

type inviteResponse struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	InviterName string    `json:"inviter_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toInviteResponse(entry storage.InviteWithInviter) inviteResponse {
	return inviteResponse{
		ID:          entry.Invite.ID,
		TeamID:      entry.Invite.TeamID,
		Email:       entry.Invite.Email,
		Role:        string(entry.Invite.Role),
		Status:      string(entry.Invite.Status),
		InviterName: entry.InviterName,
		CreatedAt:   entry.Invite.CreatedAt,
	}
}

type versionResponse struct {
	ID              string        `json:"id"`
	DocumentID      string        `json:"document_id"`
	StorageObjectID string        `json:"storage_object_id"`
	VersionNumber   int64         `json:"version_number"`
	FileName        string        `json:"file_name"`
	FileType        string        `json:"file_type,omitempty"`
	FileSize        int64         `json:"file_size"`
	Comment         string        `json:"comment,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	Uploader        *userResponse `json:"uploader,omitempty"`
}

func toVersionResponse(v document.Version, uploader *user.User) versionResponse {
	return versionResponse{
		ID:              v.ID,
		DocumentID:      v.DocumentID,
		StorageObjectID: v.StorageObjectID,
		VersionNumber:   v.VersionNumber,
		FileName:        v.FileName,
		FileType:        v.FileType,
		FileSize:        v.FileSize,
		Comment:         v.Comment,
		CreatedAt:       v.CreatedAt,
		Uploader:        toUserResponsePtr(uploader),
	}
}

type documentResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	TeamID        string           `json:"team_id"`
	CreatedBy     string           `json:"created_by"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Creator       *userResponse    `json:"creator,omitempty"`
	LatestVersion *versionResponse `json:"latest_version,omitempty"`
	VersionCount  int64            `json:"version_count"`
	CallerRole    string           `json:"caller_role,omitempty"`
}

func toDocumentResponse(doc document.Document) documentResponse {
	return documentResponse{
		ID:        doc.ID,
		Name:      doc.Name,
		TeamID:    doc.TeamID,
		CreatedBy: doc.CreatedBy,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func toDocumentSummaryResponse(entry storage.DocumentSummary) documentResponse {
	resp := toDocumentResponse(entry.Document)
	resp.Creator = toUserResponsePtr(entry.Creator)
	resp.VersionCount = entry.VersionCount
	if entry.LatestVersion != nil {
		latest := toVersionResponse(*entry.LatestVersion, nil)
		resp.LatestVersion = &latest
	}
	return resp
}
