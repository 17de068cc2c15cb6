package client

import (
	"context"
	"encoding/json"
	"fmt"

	"focuslock/internal/domain"
)

// Keys under which the logged-in user is persisted.
const (
	AuthDataKey  = "auth_data"
	AuthTokenKey = "auth_token"
)

// AuthData is the persisted record of the logged-in user.
type AuthData struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SaveAuth persists the token and user so the login survives restarts.
func SaveAuth(ctx context.Context, kv domain.KeyValueStore, token string, u domain.User) error {
	data, err := json.Marshal(AuthData{ID: u.ID, Email: u.Email, Name: u.Name})
	if err != nil {
		return err
	}
	if err := kv.Set(ctx, AuthDataKey, string(data)); err != nil {
		return fmt.Errorf("saving auth data: %w", err)
	}
	if err := kv.Set(ctx, AuthTokenKey, token); err != nil {
		return fmt.Errorf("saving auth token: %w", err)
	}
	return nil
}

// LoadAuth returns the persisted login. ok is false when nobody is logged in.
func LoadAuth(ctx context.Context, kv domain.KeyValueStore) (token string, data AuthData, ok bool, err error) {
	token, ok, err = kv.Get(ctx, AuthTokenKey)
	if err != nil || !ok {
		return "", AuthData{}, false, err
	}
	raw, ok, err := kv.Get(ctx, AuthDataKey)
	if err != nil || !ok {
		return "", AuthData{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", AuthData{}, false, fmt.Errorf("decoding auth data: %w", err)
	}
	return token, data, true, nil
}

// ClearAuth forgets the persisted login.
func ClearAuth(ctx context.Context, kv domain.KeyValueStore) error {
	if err := kv.Remove(ctx, AuthTokenKey); err != nil {
		return err
	}
	return kv.Remove(ctx, AuthDataKey)
}
