// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"focuslock/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu         sync.Mutex
	users      []*domain.User
	sessions   map[string]*domain.LoginSession
	lockStates map[int64]domain.LockState
	history    map[int64][]domain.HistoryEntry
	stats      map[int64]domain.Stats
	focus      map[int64]domain.Focus
	settings   map[int64]domain.Settings

	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions:   make(map[string]*domain.LoginSession),
		lockStates: make(map[int64]domain.LockState),
		history:    make(map[int64][]domain.HistoryEntry),
		stats:      make(map[int64]domain.Stats),
		focus:      make(map[int64]domain.Focus),
		settings:   make(map[int64]domain.Settings),
	}
}

// Ensure interfaces are met.
var (
	_ domain.UserRepository         = (*DB)(nil)
	_ domain.LockRepository         = (*DB)(nil)
	_ domain.StatsRepository        = (*DB)(nil)
	_ domain.FocusRepository        = (*DB)(nil)
	_ domain.SettingsRepository     = (*DB)(nil)
	_ domain.LoginSessionRepository = (*SessionRepo)(nil)
)

// --- UserRepository ---

// GetByEmail retrieves a user by email. It returns nil when there is none.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, email, name, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	c := *u
	return &c, nil
}

// --- LockRepository ---

// GetLockState returns the user's lock state, or nil if none was saved.
func (db *DB) GetLockState(ctx context.Context, userID int64) (*domain.LockState, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	st, ok := db.lockStates[userID]
	if !ok {
		return nil, nil
	}
	c := copyLockState(st)
	return &c, nil
}

// SaveLockState stores the state and appends archived to history.
func (db *DB) SaveLockState(ctx context.Context, userID int64, state domain.LockState, archived *domain.HistoryEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.lockStates[userID] = copyLockState(state)
	if archived != nil {
		entry := *archived
		entry.Session = copySession(archived.Session)
		db.history[userID] = append(db.history[userID], entry)
	}
	return nil
}

// ListHistory lists archived sessions, newest first.
func (db *DB) ListHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	all := db.history[userID]
	result := make([]domain.HistoryEntry, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		entry := all[i]
		entry.Session = copySession(entry.Session)
		result = append(result, entry)
	}
	return result, nil
}

// ListActiveSessions returns every user's active session.
func (db *DB) ListActiveSessions(ctx context.Context) ([]domain.ActiveSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.ActiveSession
	for userID, st := range db.lockStates {
		if st.Active != nil {
			result = append(result, domain.ActiveSession{UserID: userID, Session: copySession(*st.Active)})
		}
	}
	return result, nil
}

// --- StatsRepository ---

// GetStats returns the user's stats, or nil if none were saved.
func (db *DB) GetStats(ctx context.Context, userID int64) (*domain.Stats, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	st, ok := db.stats[userID]
	if !ok {
		return nil, nil
	}
	c := copyStats(st)
	return &c, nil
}

// SaveStats stores the user's stats.
func (db *DB) SaveStats(ctx context.Context, userID int64, stats domain.Stats) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.stats[userID] = copyStats(stats)
	return nil
}

// --- FocusRepository ---

// GetFocus returns the user's focus list, or nil if none was saved.
func (db *DB) GetFocus(ctx context.Context, userID int64) (*domain.Focus, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	f, ok := db.focus[userID]
	if !ok {
		return nil, nil
	}
	c := copyFocus(f)
	return &c, nil
}

// SaveFocus stores the user's focus list.
func (db *DB) SaveFocus(ctx context.Context, userID int64, focus domain.Focus) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.focus[userID] = copyFocus(focus)
	return nil
}

// --- SettingsRepository ---

// GetSettings returns the user's settings, or nil if none were saved.
func (db *DB) GetSettings(ctx context.Context, userID int64) (*domain.Settings, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.settings[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// SaveSettings stores the user's settings.
func (db *DB) SaveSettings(ctx context.Context, userID int64, settings domain.Settings) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.settings[userID] = settings
	return nil
}

// --- LoginSessionRepository ---

// SessionRepo implements login session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.LoginSession{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.LoginSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, token)
			return nil, nil
		}
		c := *s
		return &c, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}

// Stored values never share slices with callers.

func copySession(s domain.Session) domain.Session {
	s.BlockedApps = append([]string(nil), s.BlockedApps...)
	return s
}

func copyLockState(st domain.LockState) domain.LockState {
	if st.Active != nil {
		s := copySession(*st.Active)
		st.Active = &s
	}
	return st
}

func copyStats(st domain.Stats) domain.Stats {
	st.Weekly.DailyBreakdown = append([]domain.PeriodTotals(nil), st.Weekly.DailyBreakdown...)
	st.Monthly.WeeklyBreakdown = append([]domain.PeriodTotals(nil), st.Monthly.WeeklyBreakdown...)
	return st
}

func copyFocus(f domain.Focus) domain.Focus {
	f.Tasks = append([]domain.Task{}, f.Tasks...)
	f.BlockedApps = append([]string{}, f.BlockedApps...)
	return f
}
