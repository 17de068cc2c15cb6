package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"focuslock/internal/domain"

	"github.com/lib/pq"
)

var _ domain.LockRepository = (*DB)(nil)

// activeRow holds the nullable active-session columns of lock_state.
type activeRow struct {
	id        sql.NullString
	duration  sql.NullInt64
	apps      pq.StringArray
	startedAt sql.NullTime
	endsAt    sql.NullTime
	locked    sql.NullBool
	attempts  sql.NullInt64
	paymentID sql.NullString
}

func (r *activeRow) dest() []any {
	return []any{&r.id, &r.duration, &r.apps, &r.startedAt, &r.endsAt, &r.locked, &r.attempts, &r.paymentID}
}

func (r *activeRow) session() *domain.Session {
	if !r.id.Valid {
		return nil
	}
	return &domain.Session{
		ID:              r.id.String,
		Duration:        int(r.duration.Int64),
		BlockedApps:     []string(r.apps),
		StartedAt:       r.startedAt.Time,
		EndsAt:          r.endsAt.Time,
		Locked:          r.locked.Bool,
		UnlockAttempts:  int(r.attempts.Int64),
		UnlockPaymentID: r.paymentID.String,
	}
}

const activeColumns = "session_id, duration_minutes, blocked_apps, started_at, ends_at, locked, unlock_attempts, unlock_payment_id"

// GetLockState returns the user's lock state, or nil if none was saved.
func (d *DB) GetLockState(ctx context.Context, userID int64) (*domain.LockState, error) {
	var (
		fee float64
		row activeRow
	)
	err := d.sql.QueryRowContext(ctx,
		"SELECT unlock_fee, "+activeColumns+" FROM lock_state WHERE user_id = $1", userID,
	).Scan(append([]any{&fee}, row.dest()...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.LockState{Active: row.session(), UnlockFee: fee}, nil
}

// SaveLockState upserts the state and appends archived to history in one transaction.
func (d *DB) SaveLockState(ctx context.Context, userID int64, state domain.LockState, archived *domain.HistoryEntry) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	args := []any{userID, state.UnlockFee, nil, nil, nil, nil, nil, nil, nil, nil}
	if s := state.Active; s != nil {
		args = []any{userID, state.UnlockFee, s.ID, s.Duration, pq.Array(s.BlockedApps),
			s.StartedAt, s.EndsAt, s.Locked, s.UnlockAttempts, s.UnlockPaymentID}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO lock_state (user_id, unlock_fee, `+activeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			unlock_fee = EXCLUDED.unlock_fee,
			session_id = EXCLUDED.session_id,
			duration_minutes = EXCLUDED.duration_minutes,
			blocked_apps = EXCLUDED.blocked_apps,
			started_at = EXCLUDED.started_at,
			ends_at = EXCLUDED.ends_at,
			locked = EXCLUDED.locked,
			unlock_attempts = EXCLUDED.unlock_attempts,
			unlock_payment_id = EXCLUDED.unlock_payment_id`, args...)
	if err != nil {
		return fmt.Errorf("save lock state: %w", err)
	}

	if archived != nil {
		apps := archived.BlockedApps
		if apps == nil {
			apps = []string{}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO lock_history (user_id, session_id, duration_minutes, blocked_apps, started_at, ends_at,
				ended_at, locked, unlock_attempts, unlock_payment_id, early_unlock)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			userID, archived.ID, archived.Duration, pq.Array(apps), archived.StartedAt, archived.EndsAt,
			archived.EndedAt, archived.Locked, archived.UnlockAttempts, archived.UnlockPaymentID, archived.EarlyUnlock)
		if err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	return tx.Commit()
}

// ListHistory lists archived sessions, newest first. A non-positive limit returns all.
func (d *DB) ListHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	query := `SELECT session_id, duration_minutes, blocked_apps, started_at, ends_at, ended_at,
		locked, unlock_attempts, unlock_payment_id, early_unlock
		FROM lock_history WHERE user_id = $1 ORDER BY id DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			e    domain.HistoryEntry
			apps pq.StringArray
		)
		if err := rows.Scan(&e.ID, &e.Duration, &apps, &e.StartedAt, &e.EndsAt, &e.EndedAt,
			&e.Locked, &e.UnlockAttempts, &e.UnlockPaymentID, &e.EarlyUnlock); err != nil {
			return nil, err
		}
		e.BlockedApps = []string(apps)
		result = append(result, e)
	}
	return result, rows.Err()
}

// ListActiveSessions returns every user's active session.
func (d *DB) ListActiveSessions(ctx context.Context) ([]domain.ActiveSession, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT user_id, "+activeColumns+" FROM lock_state WHERE session_id IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []domain.ActiveSession
	for rows.Next() {
		var (
			userID int64
			row    activeRow
		)
		if err := rows.Scan(append([]any{&userID}, row.dest()...)...); err != nil {
			return nil, err
		}
		result = append(result, domain.ActiveSession{UserID: userID, Session: *row.session()})
	}
	return result, rows.Err()
}
