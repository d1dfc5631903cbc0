package user

import (
	"errors"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(ProvisionInput{
		ExternalID:  " ext-1 ",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		AvatarURL:   "https://img.example.com/a.png",
	}, fixedClock, func() (string, error) { return "user-1", nil })
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	if u.ID != "user-1" {
		t.Fatalf("expected generated id, got %q", u.ID)
	}
	if u.ExternalID != "ext-1" {
		t.Fatalf("expected trimmed external id, got %q", u.ExternalID)
	}
	if !u.CreatedAt.Equal(fixedClock()) || !u.UpdatedAt.Equal(fixedClock()) {
		t.Fatal("expected timestamps from injected clock")
	}
}

func TestNewUserRequiresExternalID(t *testing.T) {
	_, err := NewUser(ProvisionInput{Email: "a@b.com"}, fixedClock, nil)
	if !errors.Is(err, ErrEmptyExternalID) {
		t.Fatalf("expected ErrEmptyExternalID, got %v", err)
	}
}

func TestNormalizeDisplayNameFallbacks(t *testing.T) {
	normalized, err := NormalizeProvisionInput(ProvisionInput{
		ExternalID: "ext-2",
		Email:      "bob@example.com",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if normalized.DisplayName != "bob@example.com" {
		t.Fatalf("expected email fallback, got %q", normalized.DisplayName)
	}

	normalized, err = NormalizeProvisionInput(ProvisionInput{ExternalID: "ext-3"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if normalized.DisplayName != "Unknown" {
		t.Fatalf("expected Unknown fallback, got %q", normalized.DisplayName)
	}
}

func TestNormalizeKeepsEmailCase(t *testing.T) {
	normalized, err := NormalizeProvisionInput(ProvisionInput{
		ExternalID: "ext-4",
		Email:      "Bob@Example.COM",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if normalized.Email != "Bob@Example.COM" {
		t.Fatalf("expected case preserved, got %q", normalized.Email)
	}
}
