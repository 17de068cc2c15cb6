package app

import (
	"context"
	"testing"
	"time"
)

type countingSessionRepo struct {
	mockLoginSessionRepo
	purges int
}

func (r *countingSessionRepo) DeleteExpired(ctx context.Context) error {
	r.purges++
	return nil
}

func TestCompletionSweeper_Sweep(t *testing.T) {
	f := newLockFixture()
	ctx := context.Background()
	_, _ = f.svc.Start(ctx, 1, StartInput{Minutes: 1})

	sessions := &countingSessionRepo{}
	auth := NewAuthService(&mockUserRepo{}, sessions)
	w := NewCompletionSweeper(f.svc, time.Second).WithLoginPurge(auth, time.Hour)

	now := f.clock.now
	w.Sweep(ctx, now)
	if status, _ := f.svc.Status(ctx, 1); status.Session == nil {
		t.Fatal("session must survive a sweep before its end")
	}
	if sessions.purges != 1 {
		t.Errorf("expected first sweep to purge, got %d", sessions.purges)
	}

	f.clock.Advance(time.Minute)
	w.Sweep(ctx, now.Add(time.Minute))
	history, _ := f.svc.History(ctx, 1, 0)
	if len(history) != 1 {
		t.Errorf("expected sweep to complete the session, got %d entries", len(history))
	}
	if sessions.purges != 1 {
		t.Errorf("expected purge at most once per hour, got %d", sessions.purges)
	}
}

func TestCompletionSweeper_RunStopsOnCancel(t *testing.T) {
	f := newLockFixture()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewCompletionSweeper(f.svc, time.Millisecond).Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
