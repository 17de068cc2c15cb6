package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidDuration is returned when a session is started with a
	// duration outside 1..MaxSessionMinutes.
	ErrInvalidDuration = errors.New("duration must be between 1 and 1440 minutes")
	// ErrSessionAlreadyActive is returned by Start while another session is active.
	ErrSessionAlreadyActive = errors.New("a focus session is already active")
	// ErrNoActiveSession is returned by transitions that need an active session.
	ErrNoActiveSession = errors.New("no active focus session")
	// ErrSessionNotLocked is returned by Unlock when the active session is not locked.
	ErrSessionNotLocked = errors.New("focus session is not locked")
)

// MaxSessionMinutes is the longest session Start accepts.
const MaxSessionMinutes = 24 * 60

// Session is one focus-lock period.
type Session struct {
	ID              string    `json:"id"`
	Duration        int       `json:"duration"`
	BlockedApps     []string  `json:"blockedApps"`
	StartedAt       time.Time `json:"startedAt"`
	EndsAt          time.Time `json:"endsAt"`
	Locked          bool      `json:"locked"`
	UnlockAttempts  int       `json:"unlockAttempts"`
	UnlockPaymentID string    `json:"unlockPaymentId,omitempty"`
}

// HistoryEntry is a snapshot of a session taken when it stopped being active.
type HistoryEntry struct {
	Session
	EndedAt     time.Time `json:"endedAt"`
	EarlyUnlock bool      `json:"earlyUnlock"`
}

// FeePolicy configures the early-unlock fee. Max of zero means unbounded.
type FeePolicy struct {
	Base   float64
	Factor float64
	Max    float64
}

// DefaultFeePolicy starts at 2.99 and grows by half on every attempt, without
// a ceiling.
var DefaultFeePolicy = FeePolicy{Base: 2.99, Factor: 1.5}

// Escalate returns the fee that follows fee after one more unlock attempt.
func (p FeePolicy) Escalate(fee float64) float64 {
	next := fee * p.Factor
	if p.Max > 0 && next > p.Max {
		next = p.Max
	}
	if next < fee {
		return fee
	}
	return next
}

// LockState is a user's lock-session store: the active session, if any, and the
// current unlock fee. History is append-only and lives in the repository.
type LockState struct {
	Active    *Session `json:"active"`
	UnlockFee float64  `json:"unlockFee"`
}

// NewLockState returns an empty state with the fee at its base value.
func NewLockState(p FeePolicy) LockState {
	return LockState{UnlockFee: p.Base}
}

// Start installs a new locked session and resets the fee to base.
func (l *LockState) Start(p FeePolicy, id string, minutes int, blockedApps []string, startedAt time.Time) error {
	if minutes <= 0 || minutes > MaxSessionMinutes {
		return ErrInvalidDuration
	}
	if l.Active != nil {
		return ErrSessionAlreadyActive
	}
	l.Active = &Session{
		ID:          id,
		Duration:    minutes,
		BlockedApps: uniqueApps(blockedApps),
		StartedAt:   startedAt,
		EndsAt:      startedAt.Add(time.Duration(minutes) * time.Minute),
		Locked:      true,
	}
	l.UnlockFee = p.Base
	return nil
}

// CompleteNaturally archives the active session as having run its course.
func (l *LockState) CompleteNaturally(now time.Time) (HistoryEntry, error) {
	if l.Active == nil {
		return HistoryEntry{}, ErrNoActiveSession
	}
	entry := archive(*l.Active, now, false)
	l.Active = nil
	return entry, nil
}

// Unlock ends the active session early against a payment receipt.
func (l *LockState) Unlock(paymentID string, now time.Time) (HistoryEntry, error) {
	if l.Active == nil {
		return HistoryEntry{}, ErrNoActiveSession
	}
	if !l.Active.Locked {
		return HistoryEntry{}, ErrSessionNotLocked
	}
	l.Active.Locked = false
	l.Active.UnlockPaymentID = paymentID
	entry := archive(*l.Active, now, true)
	l.Active = nil
	return entry, nil
}

// IncrementUnlockAttempt records a failed early-unlock attempt and raises the fee.
func (l *LockState) IncrementUnlockAttempt(p FeePolicy) error {
	if l.Active == nil {
		return ErrNoActiveSession
	}
	l.Active.UnlockAttempts++
	l.UnlockFee = p.Escalate(l.UnlockFee)
	return nil
}

// ResetUnlockFee puts the fee back to its base value. The fee never drops
// while a session is active.
func (l *LockState) ResetUnlockFee(p FeePolicy) error {
	if l.Active != nil {
		return ErrSessionAlreadyActive
	}
	l.UnlockFee = p.Base
	return nil
}

func archive(s Session, now time.Time, early bool) HistoryEntry {
	s.BlockedApps = append([]string(nil), s.BlockedApps...)
	return HistoryEntry{Session: s, EndedAt: now, EarlyUnlock: early}
}

func uniqueApps(apps []string) []string {
	out := make([]string, 0, len(apps))
	seen := make(map[string]struct{}, len(apps))
	for _, a := range apps {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ActiveSession pairs an active session with its owner.
type ActiveSession struct {
	UserID  int64
	Session Session
}

// LockRepository is the port for lock-session persistence.
type LockRepository interface {
	// GetLockState returns nil when the user has never had any lock state.
	GetLockState(ctx context.Context, userID int64) (*LockState, error)
	// SaveLockState stores state and, when archived is non-nil, appends it to
	// the user's history in the same unit of work.
	SaveLockState(ctx context.Context, userID int64, state LockState, archived *HistoryEntry) error
	// ListHistory returns up to limit entries, newest first.
	ListHistory(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error)
	ListActiveSessions(ctx context.Context) ([]ActiveSession, error)
}
