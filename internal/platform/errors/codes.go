// Package errors provides structured error handling for the vault service.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidRequest represents a malformed request payload.
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// Identity errors
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeUserNotProvisioned Code = "USER_NOT_PROVISIONED"
	CodeUserEmptyExternalID Code = "USER_EMPTY_EXTERNAL_ID"

	// Authorization errors
	CodeNotATeamMember   Code = "NOT_A_TEAM_MEMBER"
	CodeInsufficientRole Code = "INSUFFICIENT_ROLE"
	CodeNotTeamCreator   Code = "NOT_TEAM_CREATOR"

	// Team errors
	CodeTeamNameEmpty       Code = "TEAM_NAME_EMPTY"
	CodeTeamNotFound        Code = "TEAM_NOT_FOUND"
	CodeMemberNotFound      Code = "MEMBER_NOT_FOUND"
	CodeAlreadyMember       Code = "ALREADY_MEMBER"
	CodeCannotRemoveCreator Code = "CANNOT_REMOVE_CREATOR"
	CodeInvalidRole         Code = "INVALID_ROLE"
	CodeEmailEmpty          Code = "EMAIL_EMPTY"

	// Invite errors
	CodeDuplicateInvite  Code = "DUPLICATE_INVITE"
	CodeInviteNotFound   Code = "INVITE_NOT_FOUND"
	CodeInviteNotPending Code = "INVITE_NOT_PENDING"

	// Document errors
	CodeDocumentNameEmpty Code = "DOCUMENT_NAME_EMPTY"
	CodeDocumentNotFound  Code = "DOCUMENT_NOT_FOUND"
	CodeVersionFileEmpty  Code = "VERSION_FILE_EMPTY"
	CodeVersionNotFound   Code = "VERSION_NOT_FOUND"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeInvalidRequest,
		CodeTeamNameEmpty,
		CodeDocumentNameEmpty,
		CodeVersionFileEmpty,
		CodeInvalidRole,
		CodeEmailEmpty,
		CodeUserEmptyExternalID:
		return http.StatusBadRequest

	// Unauthorized - no usable identity claim
	case CodeUnauthenticated:
		return http.StatusUnauthorized

	// Forbidden - identity known, permission denied
	case CodeNotATeamMember,
		CodeInsufficientRole,
		CodeNotTeamCreator,
		CodeCannotRemoveCreator:
		return http.StatusForbidden

	// Not found - resource doesn't exist
	case CodeNotFound,
		CodeTeamNotFound,
		CodeMemberNotFound,
		CodeInviteNotFound,
		CodeDocumentNotFound,
		CodeVersionNotFound:
		return http.StatusNotFound

	// Conflict - state doesn't allow operation. USER_NOT_PROVISIONED is a
	// transient state the caller should retry once provisioning lands.
	case CodeAlreadyMember,
		CodeDuplicateInvite,
		CodeInviteNotPending,
		CodeUserNotProvisioned:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the condition is expected to clear on its own.
func (c Code) Retryable() bool {
	return c == CodeUserNotProvisioned
}
