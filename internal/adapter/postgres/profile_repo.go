package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"focuslock/internal/domain"
)

var (
	_ domain.StatsRepository    = (*DB)(nil)
	_ domain.FocusRepository    = (*DB)(nil)
	_ domain.SettingsRepository = (*DB)(nil)
)

// Stats, focus lists and settings are stored as one JSONB document per user.
// table is always one of the constants below.
const (
	statsTable    = "user_stats"
	focusTable    = "user_focus"
	settingsTable = "user_settings"
)

func (d *DB) getDoc(ctx context.Context, table string, userID int64, v any) (bool, error) {
	var data []byte
	err := d.sql.QueryRowContext(ctx, "SELECT data FROM "+table+" WHERE user_id = $1", userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", table, err)
	}
	return true, nil
}

func (d *DB) putDoc(ctx context.Context, table string, userID int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		"INSERT INTO "+table+" (user_id, data) VALUES ($1, $2) ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data",
		userID, data)
	return err
}

// GetStats returns the user's stats, or nil if none were saved.
func (d *DB) GetStats(ctx context.Context, userID int64) (*domain.Stats, error) {
	var st domain.Stats
	ok, err := d.getDoc(ctx, statsTable, userID, &st)
	if !ok || err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveStats stores the user's stats.
func (d *DB) SaveStats(ctx context.Context, userID int64, stats domain.Stats) error {
	return d.putDoc(ctx, statsTable, userID, stats)
}

// GetFocus returns the user's focus list, or nil if none was saved.
func (d *DB) GetFocus(ctx context.Context, userID int64) (*domain.Focus, error) {
	var f domain.Focus
	ok, err := d.getDoc(ctx, focusTable, userID, &f)
	if !ok || err != nil {
		return nil, err
	}
	return &f, nil
}

// SaveFocus stores the user's focus list.
func (d *DB) SaveFocus(ctx context.Context, userID int64, focus domain.Focus) error {
	return d.putDoc(ctx, focusTable, userID, focus)
}

// GetSettings returns the user's settings, or nil if none were saved.
func (d *DB) GetSettings(ctx context.Context, userID int64) (*domain.Settings, error) {
	var s domain.Settings
	ok, err := d.getDoc(ctx, settingsTable, userID, &s)
	if !ok || err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSettings stores the user's settings.
func (d *DB) SaveSettings(ctx context.Context, userID int64, settings domain.Settings) error {
	return d.putDoc(ctx, settingsTable, userID, settings)
}
