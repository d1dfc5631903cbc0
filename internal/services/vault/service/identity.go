package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/services/vault/identity"
	"github.com/docvault/docvault/internal/services/vault/storage"
	"github.com/docvault/docvault/internal/services/vault/user"
)

// ResolveCurrentUser maps a verified claim to its provisioned user record.
// An empty claim fails with UNAUTHENTICATED; a claim without a user row fails
// with USER_NOT_PROVISIONED, which callers treat as retryable.
func (s *Service) ResolveCurrentUser(ctx context.Context, claim identity.Claim) (user.User, error) {
	if claim.ExternalID == "" {
		return user.User{}, apperrors.New(apperrors.CodeUnauthenticated, "authentication required")
	}
	u, err := s.stores.Users.GetUserByExternalID(ctx, claim.ExternalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, apperrors.New(apperrors.CodeUserNotProvisioned, "user record not yet provisioned")
		}
		return user.User{}, fmt.Errorf("resolve current user: %w", err)
	}
	return u, nil
}

// CurrentUser returns the caller's user record, or nil without error when the
// claim is absent or not yet provisioned.
func (s *Service) CurrentUser(ctx context.Context, claim identity.Claim) (*user.User, error) {
	u, err := s.ResolveCurrentUser(ctx, claim)
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			switch appErr.Code {
			case apperrors.CodeUnauthenticated, apperrors.CodeUserNotProvisioned:
				return nil, nil
			}
		}
		return nil, err
	}
	return &u, nil
}

// EnsureUser provisions the caller from their own claim. It is the client-side
// safety net for the webhook path and shares its upsert semantics.
func (s *Service) EnsureUser(ctx context.Context, claim identity.Claim) (user.User, error) {
	if claim.ExternalID == "" {
		return user.User{}, apperrors.New(apperrors.CodeUnauthenticated, "authentication required")
	}
	result, err := s.ProvisionOrUpdateUser(ctx, claim.ProvisionInput())
	if err != nil {
		return user.User{}, err
	}
	return result.User, nil
}

// ProvisionOrUpdateUser upserts a user record by external id. On first
// creation every pending invite with an exact-match email becomes a
// membership, atomically with the user insert.
func (s *Service) ProvisionOrUpdateUser(ctx context.Context, input user.ProvisionInput) (storage.ProvisionResult, error) {
	candidate, err := user.NewUser(input, s.clock, s.newID)
	if err != nil {
		return storage.ProvisionResult{}, err
	}

	result, err := s.stores.Users.ProvisionUser(ctx, candidate)
	if err != nil {
		return storage.ProvisionResult{}, fmt.Errorf("provision user: %w", err)
	}

	if result.Created && len(result.AcceptedInvites) > 0 {
		s.logger.Info("auto-accepted pending invites on provisioning",
			zap.String("user_id", result.User.ID),
			zap.Int("invites", len(result.AcceptedInvites)),
		)
	}
	return result, nil
}

// DeprovisionUser removes the user row for an external id. Memberships,
// documents, and invites keep their references; a missing row is a no-op.
func (s *Service) DeprovisionUser(ctx context.Context, externalID string) error {
	if externalID == "" {
		return user.ErrEmptyExternalID
	}
	if err := s.stores.Users.DeleteUserByExternalID(ctx, externalID); err != nil {
		return fmt.Errorf("deprovision user: %w", err)
	}
	return nil
}

// HandleIdentityEvent applies one identity provider webhook event. Unknown
// event types are logged and ignored.
func (s *Service) HandleIdentityEvent(ctx context.Context, event identity.Event) error {
	switch event.Type {
	case identity.EventUserCreated, identity.EventUserUpdated:
		input, err := event.ProvisionInput()
		if err != nil {
			return err
		}
		_, err = s.ProvisionOrUpdateUser(ctx, input)
		return err
	case identity.EventUserDeleted:
		return s.DeprovisionUser(ctx, event.Data.ID)
	default:
		s.logger.Info("ignoring unhandled identity event", zap.String("type", event.Type))
		return nil
	}
}
