// Package mail delivers invite notification emails without blocking the
// operations that trigger them.
package mail

import (
	"context"

	"go.uber.org/zap"
)

// InviteEmail is the notification sent when someone is invited to a team.
type InviteEmail struct {
	ToEmail     string
	TeamName    string
	InviterName string
	Role        string
}

// Sender delivers one email. Implementations report transient failures as
// errors; the dispatcher retries them.
type Sender interface {
	SendInviteEmail(ctx context.Context, email InviteEmail) error
}

// LogSender records emails to the log instead of delivering them. It stands in
// when no delivery provider is configured, so invite flows keep working in
// development.
type LogSender struct {
	Logger *zap.Logger
}

// SendInviteEmail logs the email and reports success.
func (s LogSender) SendInviteEmail(_ context.Context, email InviteEmail) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Warn("email delivery not configured, logging invite instead",
		zap.String("to", email.ToEmail),
		zap.String("team", email.TeamName),
		zap.String("inviter", email.InviterName),
		zap.String("role", email.Role),
	)
	return nil
}
