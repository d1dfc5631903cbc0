// Package user provides durable identity records for authenticated callers.
package user

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/platform/id"
)

// ErrEmptyExternalID indicates a provision request without an identity subject.
var ErrEmptyExternalID = apperrors.New(apperrors.CodeUserEmptyExternalID, "external identity id is required")

// User represents a durable identity record keyed by the identity provider's
// subject. Exactly one User exists per external id.
type User struct {
	ID          string
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProvisionInput describes the identity-provider fields used to create or
// refresh a user record.
type ProvisionInput struct {
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// NormalizeProvisionInput trims fields and applies display-name fallbacks.
//
// Email matching against invites is case-sensitive on the stored value, so
// the address is kept exactly as received after trimming.
func NormalizeProvisionInput(input ProvisionInput) (ProvisionInput, error) {
	input.ExternalID = strings.TrimSpace(input.ExternalID)
	if input.ExternalID == "" {
		return ProvisionInput{}, ErrEmptyExternalID
	}
	input.Email = strings.TrimSpace(input.Email)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.DisplayName == "" {
		input.DisplayName = input.Email
	}
	if input.DisplayName == "" {
		input.DisplayName = "Unknown"
	}
	input.AvatarURL = strings.TrimSpace(input.AvatarURL)
	return input, nil
}

// NewUser creates a user record from normalized provision input.
func NewUser(input ProvisionInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeProvisionInput(input)
	if err != nil {
		return User{}, err
	}

	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	createdAt := now().UTC()
	return User{
		ID:          userID,
		ExternalID:  normalized.ExternalID,
		Email:       normalized.Email,
		DisplayName: normalized.DisplayName,
		AvatarURL:   normalized.AvatarURL,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}
