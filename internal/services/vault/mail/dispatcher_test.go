package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingSender struct {
	mu       sync.Mutex
	failures int
	sent     []InviteEmail
}

func (s *recordingSender) SendInviteEmail(_ context.Context, email InviteEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("transient failure")
	}
	s.sent = append(s.sent, email)
	return nil
}

func (s *recordingSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDispatcherDelivers(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := NewDispatcher(sender, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	if !dispatcher.Enqueue(InviteEmail{ToEmail: "a@example.com", TeamName: "Research"}) {
		t.Fatal("Enqueue returned false")
	}
	waitFor(t, func() bool { return sender.sentCount() == 1 })
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	sender := &recordingSender{failures: 2}
	dispatcher := NewDispatcher(sender, 4, nil)
	dispatcher.maxTries = 5

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	dispatcher.Enqueue(InviteEmail{ToEmail: "b@example.com"})
	waitFor(t, func() bool { return sender.sentCount() == 1 })
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := NewDispatcher(sender, 1, nil)

	// No worker running; the second enqueue must drop instead of blocking.
	if !dispatcher.Enqueue(InviteEmail{ToEmail: "first@example.com"}) {
		t.Fatal("first Enqueue returned false")
	}
	if dispatcher.Enqueue(InviteEmail{ToEmail: "second@example.com"}) {
		t.Fatal("second Enqueue returned true, want drop")
	}
}

func TestLogSenderAlwaysSucceeds(t *testing.T) {
	sender := LogSender{}
	if err := sender.SendInviteEmail(context.Background(), InviteEmail{ToEmail: "x@example.com"}); err != nil {
		t.Fatalf("SendInviteEmail: %v", err)
	}
}
