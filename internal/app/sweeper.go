package app

import (
	"context"
	"log"
	"time"
)

// CompletionSweeper periodically completes lock sessions that ran out while
// nobody was polling them, and purges expired login sessions.
type CompletionSweeper struct {
	lock     *LockService
	interval time.Duration

	auth       *AuthService
	purgeEvery time.Duration
	lastPurge  time.Time
}

// NewCompletionSweeper creates a sweeper that ticks every interval, or every
// second when interval is not positive.
func NewCompletionSweeper(lock *LockService, interval time.Duration) *CompletionSweeper {
	if interval <= 0 {
		interval = time.Second
	}
	return &CompletionSweeper{lock: lock, interval: interval}
}

// WithLoginPurge also deletes expired login sessions at most once per every.
func (w *CompletionSweeper) WithLoginPurge(auth *AuthService, every time.Duration) *CompletionSweeper {
	w.auth = auth
	w.purgeEvery = every
	return w
}

// Run sweeps until ctx is cancelled.
func (w *CompletionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.Sweep(ctx, now)
		}
	}
}

// Sweep runs one pass.
func (w *CompletionSweeper) Sweep(ctx context.Context, now time.Time) {
	n, err := w.lock.CompleteExpired(ctx)
	if err != nil {
		log.Printf("sweeper: complete expired sessions: %v", err)
	}
	if n > 0 {
		log.Printf("sweeper: completed %d session(s)", n)
	}

	if w.auth == nil || w.purgeEvery <= 0 || now.Sub(w.lastPurge) < w.purgeEvery {
		return
	}
	w.lastPurge = now
	if err := w.auth.PurgeExpired(ctx); err != nil {
		log.Printf("sweeper: purge login sessions: %v", err)
	}
}
