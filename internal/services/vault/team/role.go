package team

import apperrors "github.com/docvault/docvault/internal/platform/errors"

// Role is the closed set of membership roles. There is no implicit hierarchy;
// every call site states its own allowed set explicitly.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ErrInvalidRole indicates a role outside the closed set.
var ErrInvalidRole = apperrors.New(apperrors.CodeInvalidRole, "role must be admin, editor, or viewer")

// ParseRole validates a raw role string against the closed set.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleEditor, RoleViewer:
		return Role(value), nil
	default:
		return "", ErrInvalidRole
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}
