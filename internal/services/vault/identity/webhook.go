package identity

import (
	"fmt"
	"strings"

	"github.com/docvault/docvault/internal/services/vault/user"
)

// Webhook event types emitted by the identity provider.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is the identity provider's webhook envelope.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the user payload of a webhook event. Deletion events only
// populate ID.
type EventData struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
}

// EmailAddress is one address entry from the provider payload.
type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// ProvisionInput converts a created/updated event payload into user
// provisioning input. The display name joins first and last name, falling back
// to the email address when both are absent.
func (e Event) ProvisionInput() (user.ProvisionInput, error) {
	if strings.TrimSpace(e.Data.ID) == "" {
		return user.ProvisionInput{}, fmt.Errorf("webhook event has no user id")
	}

	email := ""
	if len(e.Data.EmailAddresses) > 0 {
		email = strings.TrimSpace(e.Data.EmailAddresses[0].EmailAddress)
	}

	parts := make([]string, 0, 2)
	if first := strings.TrimSpace(e.Data.FirstName); first != "" {
		parts = append(parts, first)
	}
	if last := strings.TrimSpace(e.Data.LastName); last != "" {
		parts = append(parts, last)
	}
	name := strings.Join(parts, " ")
	if name == "" {
		name = email
	}

	return user.ProvisionInput{
		ExternalID:  e.Data.ID,
		Email:       email,
		DisplayName: name,
		AvatarURL:   strings.TrimSpace(e.Data.ImageURL),
	}, nil
}
