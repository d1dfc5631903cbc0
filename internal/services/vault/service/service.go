// Package service implements DocVault's business operations over the storage
// and collaborator contracts.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/docvault/docvault/internal/platform/id"
	"github.com/docvault/docvault/internal/services/vault/access"
	"github.com/docvault/docvault/internal/services/vault/blob"
	"github.com/docvault/docvault/internal/services/vault/mail"
	"github.com/docvault/docvault/internal/services/vault/storage"
)

// Stores bundles the persistence contracts the service depends on. A single
// sqlite.Store satisfies all of them.
type Stores struct {
	Users     storage.UserStore
	Teams     storage.TeamStore
	Members   storage.MemberStore
	Invites   storage.InviteStore
	Documents storage.DocumentStore
	Versions  storage.VersionStore
}

// Config carries the service dependencies.
type Config struct {
	Stores      Stores
	Blobs       blob.ObjectStorage
	Emails      *mail.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
	IDGenerator func() (string, error)
}

// Service executes vault operations. All authorization checks happen here,
// before any write; handlers only translate transport concerns.
type Service struct {
	stores Stores
	gate   *access.Gate
	blobs  blob.ObjectStorage
	emails *mail.Dispatcher
	logger *zap.Logger
	clock  func() time.Time
	newID  func() (string, error)
}

// New creates a service from its dependencies.
func New(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = id.NewID
	}
	return &Service{
		stores: cfg.Stores,
		gate:   access.NewGate(cfg.Stores.Members),
		blobs:  cfg.Blobs,
		emails: cfg.Emails,
		logger: cfg.Logger,
		clock:  cfg.Clock,
		newID:  cfg.IDGenerator,
	}
}

// deleteObjects removes blobs referenced by already-deleted rows. Failures are
// logged and swallowed; the database deletion is never rolled back for them.
func (s *Service) deleteObjects(ctx context.Context, objectIDs []string) {
	if s.blobs == nil {
		return
	}
	for _, objectID := range objectIDs {
		if err := s.blobs.DeleteObject(ctx, objectID); err != nil {
			s.logger.Warn("delete storage object",
				zap.String("object_id", objectID),
				zap.Error(err),
			)
		}
	}
}
