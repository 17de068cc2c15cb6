package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"focuslock/internal/domain"

	"github.com/google/uuid"
)

// ErrSessionNotFinished is returned when a session is completed before its end instant.
var ErrSessionNotFinished = errors.New("focus session has not reached its end time")

// UnlockDeclinedError reports a failed early-unlock payment. The attempt has
// already been recorded and the fee raised.
type UnlockDeclinedError struct {
	Attempts int
	NextFee  float64
	Err      error
}

func (e *UnlockDeclinedError) Error() string {
	return fmt.Sprintf("unlock payment failed: %v", e.Err)
}

func (e *UnlockDeclinedError) Unwrap() error {
	return e.Err
}

// StartInput describes a session start. Zero Minutes and nil BlockedApps fall
// back to the user's settings and focus list.
type StartInput struct {
	Minutes     int      `json:"duration"`
	BlockedApps []string `json:"blockedApps"`
}

// SessionStatus is the result of one clock tick for a user.
type SessionStatus struct {
	Session          *domain.Session      `json:"session"`
	RemainingSeconds int64                `json:"remainingSeconds"`
	Progress         float64              `json:"progress"`
	UnlockFee        float64              `json:"unlockFee"`
	Completed        *domain.HistoryEntry `json:"completed,omitempty"`
}

// LockService owns every user's lock-session store. All transitions are
// serialized through one mutex.
type LockService struct {
	repo      domain.LockRepository
	payments  domain.PaymentGateway
	protector domain.AppProtector
	policy    domain.FeePolicy

	stats    *StatsService
	focus    *FocusService
	settings *SettingsService

	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

// NewLockService creates a LockService.
func NewLockService(repo domain.LockRepository, payments domain.PaymentGateway, protector domain.AppProtector, policy domain.FeePolicy) *LockService {
	return &LockService{
		repo:      repo,
		payments:  payments,
		protector: protector,
		policy:    policy,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithStats records every natural completion into stats.
func (s *LockService) WithStats(stats *StatsService) *LockService {
	s.stats = stats
	return s
}

// WithFocus supplies default blocked apps and completed-task counts.
func (s *LockService) WithFocus(focus *FocusService) *LockService {
	s.focus = focus
	return s
}

// WithSettings supplies the default session duration.
func (s *LockService) WithSettings(settings *SettingsService) *LockService {
	s.settings = settings
	return s
}

// WithClock replaces the wall clock.
func (s *LockService) WithClock(now func() time.Time) *LockService {
	s.now = now
	return s
}

// Start begins a new locked session. A session that has already run out is
// archived first; one still running is an error.
func (s *LockService) Start(ctx context.Context, userID int64, in StartInput) (*domain.Session, error) {
	minutes := in.Minutes
	if minutes == 0 && s.settings != nil {
		settings, err := s.settings.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		minutes = settings.DefaultSessionMinutes
	}
	apps := in.BlockedApps
	if apps == nil && s.focus != nil {
		focus, err := s.focus.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		apps = focus.BlockedApps
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if state.Active != nil && domain.Expired(*state.Active, now) {
		if _, err := s.complete(ctx, userID, &state, now); err != nil {
			return nil, err
		}
	}
	if err := state.Start(s.policy, s.newID(), minutes, apps, now); err != nil {
		return nil, err
	}
	if err := s.repo.SaveLockState(ctx, userID, state, nil); err != nil {
		return nil, err
	}

	if s.protector != nil {
		if err := s.protector.EnableProtection(ctx, userID); err != nil {
			log.Printf("lock: enable protection for user %d: %v", userID, err)
		}
	}

	session := *state.Active
	return &session, nil
}

// Status derives the remaining time of the active session and completes it
// when the end instant has passed.
func (s *LockService) Status(ctx context.Context, userID int64) (SessionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, userID)
	if err != nil {
		return SessionStatus{}, err
	}
	status := SessionStatus{UnlockFee: state.UnlockFee}
	if state.Active == nil {
		return status, nil
	}

	now := s.now()
	if domain.Expired(*state.Active, now) {
		entry, err := s.complete(ctx, userID, &state, now)
		if err != nil {
			return SessionStatus{}, err
		}
		status.Completed = &entry
		return status, nil
	}

	session := *state.Active
	remaining := domain.Remaining(session, now)
	status.Session = &session
	status.RemainingSeconds = int64((remaining + time.Second - 1) / time.Second)
	status.Progress = domain.Progress(session, now)
	return status, nil
}

// CompleteNaturally archives the active session once its end instant is reached.
func (s *LockService) CompleteNaturally(ctx context.Context, userID int64) (domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, userID)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	if state.Active == nil {
		return domain.HistoryEntry{}, domain.ErrNoActiveSession
	}
	now := s.now()
	if !domain.Expired(*state.Active, now) {
		return domain.HistoryEntry{}, ErrSessionNotFinished
	}
	return s.complete(ctx, userID, &state, now)
}

// Unlock validates the card, charges the current fee and ends the session
// early. A failed charge leaves the session locked and counts as an attempt.
func (s *LockService) Unlock(ctx context.Context, userID int64, card domain.Card) (domain.HistoryEntry, error) {
	if err := domain.ValidateCard(card); err != nil {
		return domain.HistoryEntry{}, err
	}

	s.mu.Lock()
	state, err := s.load(ctx, userID)
	if err != nil {
		s.mu.Unlock()
		return domain.HistoryEntry{}, err
	}
	if state.Active == nil {
		s.mu.Unlock()
		return domain.HistoryEntry{}, domain.ErrNoActiveSession
	}
	if now := s.now(); domain.Expired(*state.Active, now) {
		_, err := s.complete(ctx, userID, &state, now)
		s.mu.Unlock()
		if err != nil {
			return domain.HistoryEntry{}, err
		}
		return domain.HistoryEntry{}, domain.ErrNoActiveSession
	}
	if !state.Active.Locked {
		s.mu.Unlock()
		return domain.HistoryEntry{}, domain.ErrSessionNotLocked
	}
	sessionID := state.Active.ID
	amount := domain.RoundCents(state.UnlockFee)
	s.mu.Unlock()

	// The gateway is called without holding the lock.
	receipt, payErr := s.payments.Charge(ctx, amount, card)

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err = s.load(ctx, userID)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	if state.Active == nil || state.Active.ID != sessionID {
		if payErr == nil {
			log.Printf("lock: session %s ended while charging user %d; receipt %s needs a refund", sessionID, userID, receipt)
		}
		return domain.HistoryEntry{}, domain.ErrNoActiveSession
	}
	if now := s.now(); domain.Expired(*state.Active, now) {
		if payErr == nil {
			log.Printf("lock: session %s ran out while charging user %d; receipt %s needs a refund", sessionID, userID, receipt)
		}
		if _, err := s.complete(ctx, userID, &state, now); err != nil {
			return domain.HistoryEntry{}, err
		}
		return domain.HistoryEntry{}, domain.ErrNoActiveSession
	}

	if payErr != nil {
		if err := state.IncrementUnlockAttempt(s.policy); err != nil {
			return domain.HistoryEntry{}, err
		}
		if err := s.repo.SaveLockState(ctx, userID, state, nil); err != nil {
			return domain.HistoryEntry{}, err
		}
		return domain.HistoryEntry{}, &UnlockDeclinedError{
			Attempts: state.Active.UnlockAttempts,
			NextFee:  state.UnlockFee,
			Err:      payErr,
		}
	}

	entry, err := state.Unlock(receipt, s.now())
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	if err := s.repo.SaveLockState(ctx, userID, state, &entry); err != nil {
		return domain.HistoryEntry{}, err
	}
	return entry, nil
}

// IncrementUnlockAttempt records an unlock attempt and returns the raised fee.
func (s *LockService) IncrementUnlockAttempt(ctx context.Context, userID int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := state.IncrementUnlockAttempt(s.policy); err != nil {
		return 0, err
	}
	if err := s.repo.SaveLockState(ctx, userID, state, nil); err != nil {
		return 0, err
	}
	return state.UnlockFee, nil
}

// ResetUnlockFee puts the user's fee back to base. It is refused while a
// session is still running.
func (s *LockService) ResetUnlockFee(ctx context.Context, userID int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	if now := s.now(); state.Active != nil && domain.Expired(*state.Active, now) {
		if _, err := s.complete(ctx, userID, &state, now); err != nil {
			return 0, err
		}
	}
	if err := state.ResetUnlockFee(s.policy); err != nil {
		return 0, err
	}
	if err := s.repo.SaveLockState(ctx, userID, state, nil); err != nil {
		return 0, err
	}
	return state.UnlockFee, nil
}

// Fee returns the user's current unlock fee.
func (s *LockService) Fee(ctx context.Context, userID int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	return state.UnlockFee, nil
}

// History returns up to limit archived sessions, newest first.
func (s *LockService) History(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	return s.repo.ListHistory(ctx, userID, limit)
}

// UninstallAllowed reports whether the app may be removed. While a locked
// session runs the blocked dialog is shown and the answer is no.
func (s *LockService) UninstallAllowed(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	state, err := s.load(ctx, userID)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	if state.Active == nil || !state.Active.Locked || domain.Expired(*state.Active, s.now()) {
		return true, nil
	}
	if s.protector != nil {
		if err := s.protector.ShowBlockedDialog(ctx, userID); err != nil {
			log.Printf("lock: show blocked dialog for user %d: %v", userID, err)
		}
	}
	return false, nil
}

// CompleteExpired archives every session whose end instant has passed and
// returns how many were completed.
func (s *LockService) CompleteExpired(ctx context.Context) (int, error) {
	actives, err := s.repo.ListActiveSessions(ctx)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, a := range actives {
		if !domain.Expired(a.Session, s.now()) {
			continue
		}
		done, err := s.completeIfExpired(ctx, a.UserID, a.Session.ID)
		if err != nil {
			return completed, fmt.Errorf("complete session %s: %w", a.Session.ID, err)
		}
		if done {
			completed++
		}
	}
	return completed, nil
}

func (s *LockService) completeIfExpired(ctx context.Context, userID int64, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	now := s.now()
	if state.Active == nil || state.Active.ID != sessionID || !domain.Expired(*state.Active, now) {
		return false, nil
	}
	if _, err := s.complete(ctx, userID, &state, now); err != nil {
		return false, err
	}
	return true, nil
}

// complete must be called with s.mu held.
func (s *LockService) complete(ctx context.Context, userID int64, state *domain.LockState, now time.Time) (domain.HistoryEntry, error) {
	entry, err := state.CompleteNaturally(now)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	if err := s.repo.SaveLockState(ctx, userID, *state, &entry); err != nil {
		return domain.HistoryEntry{}, err
	}
	s.recordCompletion(ctx, userID, entry)
	return entry, nil
}

func (s *LockService) recordCompletion(ctx context.Context, userID int64, entry domain.HistoryEntry) {
	if s.stats == nil {
		return
	}
	tasks := 0
	if s.focus != nil {
		n, err := s.focus.CompletedTasks(ctx, userID)
		if err != nil {
			log.Printf("lock: count completed tasks for user %d: %v", userID, err)
		} else {
			tasks = n
		}
	}
	if _, err := s.stats.RecordSession(ctx, userID, entry.Duration, tasks); err != nil {
		log.Printf("lock: record stats for session %s: %v", entry.ID, err)
	}
}

func (s *LockService) load(ctx context.Context, userID int64) (domain.LockState, error) {
	state, err := s.repo.GetLockState(ctx, userID)
	if err != nil {
		return domain.LockState{}, err
	}
	if state == nil {
		return domain.NewLockState(s.policy), nil
	}
	return *state, nil
}
