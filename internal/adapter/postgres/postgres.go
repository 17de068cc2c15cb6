// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_agent TEXT NOT NULL DEFAULT '',
		ip TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
	`CREATE TABLE IF NOT EXISTS lock_state (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		unlock_fee DOUBLE PRECISION NOT NULL,
		session_id TEXT,
		duration_minutes INTEGER,
		blocked_apps TEXT[],
		started_at TIMESTAMPTZ,
		ends_at TIMESTAMPTZ,
		locked BOOLEAN,
		unlock_attempts INTEGER,
		unlock_payment_id TEXT
	);`,
	"CREATE INDEX IF NOT EXISTS idx_lock_state_active ON lock_state(ends_at) WHERE session_id IS NOT NULL;",
	`CREATE TABLE IF NOT EXISTS lock_history (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		session_id TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK(duration_minutes > 0),
		blocked_apps TEXT[] NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL,
		locked BOOLEAN NOT NULL,
		unlock_attempts INTEGER NOT NULL,
		unlock_payment_id TEXT NOT NULL DEFAULT '',
		early_unlock BOOLEAN NOT NULL
	);`,
	"CREATE INDEX IF NOT EXISTS idx_lock_history_user_id ON lock_history(user_id, id);",
	"CREATE TABLE IF NOT EXISTS user_stats (user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE, data JSONB NOT NULL);",
	"CREATE TABLE IF NOT EXISTS user_focus (user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE, data JSONB NOT NULL);",
	"CREATE TABLE IF NOT EXISTS user_settings (user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE, data JSONB NOT NULL);",
}

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
