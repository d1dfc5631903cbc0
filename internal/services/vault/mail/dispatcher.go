package mail

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const defaultQueueSize = 64

// Dispatcher queues invite emails and delivers them from a background worker.
// Enqueueing never blocks the caller; a full queue drops the email with a log
// line rather than stalling the invite flow.
type Dispatcher struct {
	sender   Sender
	logger   *zap.Logger
	queue    chan InviteEmail
	maxTries uint
}

// NewDispatcher creates a dispatcher over the given sender. queueSize <= 0
// falls back to a small default.
func NewDispatcher(sender Sender, queueSize int, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sender:   sender,
		logger:   logger,
		queue:    make(chan InviteEmail, queueSize),
		maxTries: 4,
	}
}

// Enqueue hands an email to the background worker. Returns false when the
// queue is full and the email was dropped.
func (d *Dispatcher) Enqueue(email InviteEmail) bool {
	if d == nil || d.sender == nil {
		return false
	}
	select {
	case d.queue <- email:
		return true
	default:
		d.logger.Warn("invite email queue full, dropping email",
			zap.String("to", email.ToEmail),
			zap.String("team", email.TeamName),
		)
		return false
	}
}

// Run delivers queued emails until ctx is cancelled. Transient send failures
// retry with exponential backoff; exhausted emails are logged and dropped.
func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.sender == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case email := <-d.queue:
			d.deliver(ctx, email)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, email InviteEmail) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 5 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, d.sender.SendInviteEmail(ctx, email)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(d.maxTries),
	)
	if err != nil {
		d.logger.Error("invite email delivery failed",
			zap.String("to", email.ToEmail),
			zap.String("team", email.TeamName),
			zap.Error(err),
		)
	}
}
