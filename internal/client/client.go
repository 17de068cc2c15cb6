// Package client is an HTTP client for the focuslock API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"focuslock/internal/app"
	"focuslock/internal/domain"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "focuslockctl/1"
)

// ErrUnauthorized indicates a missing, expired or revoked login.
var ErrUnauthorized = errors.New("focuslock: unauthorized (log in again)")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("focuslock: %s (%s)", e.Message, e.Field)
	}
	return fmt.Sprintf("focuslock: %s (HTTP %d)", e.Message, e.Status)
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Client talks to one focuslock server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// WithToken authenticates subsequent requests.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) Register(ctx context.Context, email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{"email": email, "password": password}, &res)
	return res, err
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &res)
	return res, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password", map[string]string{"email": email}, nil)
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var res struct {
		User domain.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &res)
	return res.User, err
}

// Start begins a focus session.
func (c *Client) Start(ctx context.Context, in app.StartInput) (domain.Session, error) {
	var res struct {
		Session domain.Session `json:"session"`
	}
	err := c.do(ctx, http.MethodPost, "/lock/session", in, &res)
	return res.Session, err
}

// Status returns the active session, completing it server-side if it ran out.
func (c *Client) Status(ctx context.Context) (app.SessionStatus, error) {
	var res app.SessionStatus
	err := c.do(ctx, http.MethodGet, "/lock/session", nil, &res)
	return res, err
}

// Unlock pays the current fee and ends the session early. A declined payment
// is reported as *app.UnlockDeclinedError carrying the raised fee.
func (c *Client) Unlock(ctx context.Context, card domain.Card) (domain.HistoryEntry, error) {
	var res struct {
		Entry domain.HistoryEntry `json:"entry"`
	}
	err := c.do(ctx, http.MethodPost, "/lock/unlock", card, &res)
	return res.Entry, err
}

// Fee returns the current unlock fee.
func (c *Client) Fee(ctx context.Context) (float64, error) {
	var res struct {
		UnlockFee float64 `json:"unlockFee"`
	}
	err := c.do(ctx, http.MethodGet, "/lock/fee", nil, &res)
	return res.UnlockFee, err
}

// History returns up to limit archived sessions, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	var res struct {
		Items []domain.HistoryEntry `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/lock/history?limit="+strconv.Itoa(limit), nil, &res)
	return res.Items, err
}

// Stats returns the user's focus statistics.
func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var res domain.Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("focuslock: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("focuslock: reading response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("focuslock: parsing response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var body struct {
		Error          string  `json:"error"`
		Field          string  `json:"field"`
		UnlockFee      float64 `json:"unlockFee"`
		UnlockAttempts int     `json:"unlockAttempts"`
	}
	_ = json.Unmarshal(data, &body)
	if body.Error == "" {
		body.Error = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body.Error)
	case http.StatusPaymentRequired:
		return &app.UnlockDeclinedError{
			Attempts: body.UnlockAttempts,
			NextFee:  body.UnlockFee,
			Err:      errors.New(body.Error),
		}
	}
	return &APIError{Status: status, Message: body.Error, Field: body.Field}
}

// FormatRemaining renders a duration as MM:SS, rounding partial seconds up.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
