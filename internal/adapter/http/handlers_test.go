package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	adapthttp "focuslock/internal/adapter/http"
	"focuslock/internal/adapter/memory"
	"focuslock/internal/adapter/payment"
	"focuslock/internal/app"
	"focuslock/internal/domain"
)

// ---------------------------------------------------------------------------
// Test-server helper
// ---------------------------------------------------------------------------

type nopProtector struct{}

func (nopProtector) RequestPermission(ctx context.Context) error                { return nil }
func (nopProtector) EnableProtection(ctx context.Context, userID int64) error  { return nil }
func (nopProtector) ShowBlockedDialog(ctx context.Context, userID int64) error { return nil }

func newTestServer(t *testing.T, withAuth bool) *httptest.Server {
	t.Helper()

	db := memory.New()
	stats := app.NewStatsService(db, time.UTC)
	focus := app.NewFocusService(db)
	settings := app.NewSettingsService(db)
	lock := app.NewLockService(db, payment.NewSimulated(payment.DefaultDeclinedCards), nopProtector{}, domain.DefaultFeePolicy).
		WithStats(stats).
		WithFocus(focus).
		WithSettings(settings)

	srv := adapthttp.New(adapthttp.Services{
		Auth:     app.NewAuthService(db, db.NewSessionRepo()),
		Lock:     lock,
		Stats:    stats,
		Focus:    focus,
		Settings: settings,
	}, adapthttp.OIDCConfig{})
	if !withAuth {
		srv = srv.WithoutAuth()
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// do sends a JSON request and decodes the JSON response into a map.
func do(t *testing.T, method, url string, payload any, token string) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var m map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("failed to decode response body %q: %v", raw, err)
		}
	}
	return resp.StatusCode, m
}

var goodCard = map[string]any{"cardNumber": "4242424242424242", "expiry": "12/30", "cvv": "123"}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, false)

	status, body := do(t, http.MethodGet, ts.URL+"/api/health", nil, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, true)
	creds := map[string]any{"email": "ada@example.com", "password": "s3cret"}

	status, body := do(t, http.MethodPost, ts.URL+"/api/auth/register", creds, "")
	if status != http.StatusCreated || body["success"] != true {
		t.Fatalf("register: %d %v", status, body)
	}
	user, _ := body["user"].(map[string]any)
	if user["name"] != "ada" || user["email"] != "ada@example.com" {
		t.Errorf("unexpected user %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash must not be serialized")
	}

	status, body = do(t, http.MethodPost, ts.URL+"/api/auth/register", creds, "")
	if status != http.StatusConflict || body["success"] != false || body["error"] == "" {
		t.Errorf("duplicate register: %d %v", status, body)
	}

	status, body = do(t, http.MethodPost, ts.URL+"/api/auth/login",
		map[string]any{"email": "ada@example.com", "password": "wrong"}, "")
	if status != http.StatusUnauthorized || body["success"] != false {
		t.Errorf("bad login: %d %v", status, body)
	}

	status, body = do(t, http.MethodPost, ts.URL+"/api/auth/reset-password", map[string]any{"email": "nobody@example.com"}, "")
	if status != http.StatusNotFound || body["success"] != false {
		t.Errorf("reset unknown: %d %v", status, body)
	}
	status, _ = do(t, http.MethodPost, ts.URL+"/api/auth/reset-password", map[string]any{"email": "ada@example.com"}, "")
	if status != http.StatusOK {
		t.Errorf("reset known: %d", status)
	}

	status, body = do(t, http.MethodPost, ts.URL+"/api/auth/login", creds, "")
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("login: %d %v", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}

	if status, body = do(t, http.MethodGet, ts.URL+"/api/auth/me", nil, ""); status != http.StatusUnauthorized || body["success"] != false {
		t.Errorf("me without token: %d %v", status, body)
	}
	status, body = do(t, http.MethodGet, ts.URL+"/api/auth/me", nil, token)
	if status != http.StatusOK {
		t.Fatalf("me: %d %v", status, body)
	}

	if status, _ = do(t, http.MethodGet, ts.URL+"/api/lock/fee", nil, token); status != http.StatusOK {
		t.Errorf("protected route with token: %d", status)
	}

	if status, _ = do(t, http.MethodPost, ts.URL+"/api/auth/logout", nil, token); status != http.StatusOK {
		t.Errorf("logout: %d", status)
	}
	if status, _ = do(t, http.MethodGet, ts.URL+"/api/auth/me", nil, token); status != http.StatusUnauthorized {
		t.Errorf("me after logout: expected 401, got %d", status)
	}
}

func TestLockLifecycle(t *testing.T) {
	ts := newTestServer(t, false)
	api := ts.URL + "/api"

	status, body := do(t, http.MethodPost, api+"/lock/session",
		map[string]any{"duration": 25, "blockedApps": []string{"chat", "chat"}}, "")
	if status != http.StatusCreated {
		t.Fatalf("start: %d %v", status, body)
	}
	session, _ := body["session"].(map[string]any)
	if session["locked"] != true {
		t.Errorf("expected locked session, got %v", session)
	}

	if status, _ = do(t, http.MethodPost, api+"/lock/session", map[string]any{"duration": 5}, ""); status != http.StatusConflict {
		t.Errorf("second start: expected 409, got %d", status)
	}

	status, body = do(t, http.MethodGet, api+"/lock/session", nil, "")
	if status != http.StatusOK {
		t.Fatalf("status: %d", status)
	}
	if rem, _ := body["remainingSeconds"].(float64); rem <= 0 || rem > 25*60 {
		t.Errorf("unexpected remaining %v", body["remainingSeconds"])
	}

	if status, _ = do(t, http.MethodPost, api+"/lock/complete", nil, ""); status != http.StatusConflict {
		t.Errorf("early complete: expected 409, got %d", status)
	}

	status, body = do(t, http.MethodPost, api+"/lock/unlock",
		map[string]any{"cardNumber": "4242", "expiry": "12/30", "cvv": "123"}, "")
	if status != http.StatusBadRequest || body["field"] != "cardNumber" {
		t.Errorf("short card: %d %v", status, body)
	}

	status, body = do(t, http.MethodPost, api+"/lock/unlock",
		map[string]any{"cardNumber": "4000000000000002", "expiry": "12/30", "cvv": "123"}, "")
	if status != http.StatusPaymentRequired {
		t.Fatalf("declined: expected 402, got %d %v", status, body)
	}
	if body["unlockFeeText"] != "$4.49" && body["unlockFeeText"] != "$4.48" {
		t.Errorf("unexpected raised fee %v", body["unlockFeeText"])
	}
	if body["unlockAttempts"] != float64(1) {
		t.Errorf("expected 1 attempt, got %v", body["unlockAttempts"])
	}

	status, body = do(t, http.MethodPost, api+"/lock/unlock", goodCard, "")
	if status != http.StatusOK {
		t.Fatalf("unlock: %d %v", status, body)
	}
	if receipt, _ := body["receipt"].(string); len(receipt) < len("PAYMENT_") || receipt[:8] != "PAYMENT_" {
		t.Errorf("unexpected receipt %v", body["receipt"])
	}

	status, body = do(t, http.MethodGet, api+"/lock/history", nil, "")
	items, _ := body["items"].([]any)
	if status != http.StatusOK || len(items) != 1 {
		t.Fatalf("history: %d %v", status, body)
	}
	entry, _ := items[0].(map[string]any)
	if entry["earlyUnlock"] != true || entry["unlockAttempts"] != float64(1) {
		t.Errorf("unexpected history entry %v", entry)
	}

	if status, _ = do(t, http.MethodPost, api+"/lock/unlock", goodCard, ""); status != http.StatusConflict {
		t.Errorf("unlock without session: expected 409, got %d", status)
	}
}

func TestLockStartValidation(t *testing.T) {
	tests := []struct {
		name       string
		payload    any
		wantStatus int
	}{
		{name: "explicit duration", payload: map[string]any{"duration": 10}, wantStatus: http.StatusCreated},
		{name: "defaults from settings", payload: nil, wantStatus: http.StatusCreated},
		{name: "negative duration", payload: map[string]any{"duration": -1}, wantStatus: http.StatusBadRequest},
		{name: "duration over a day", payload: map[string]any{"duration": 1441}, wantStatus: http.StatusBadRequest},
		{name: "overflowing duration", payload: map[string]any{"duration": 200000000}, wantStatus: http.StatusBadRequest},
		{name: "unknown field", payload: map[string]any{"minutes": 10}, wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, false)
			status, body := do(t, http.MethodPost, ts.URL+"/api/lock/session", tc.payload, "")
			if status != tc.wantStatus {
				t.Fatalf("expected %d, got %d; body: %v", tc.wantStatus, status, body)
			}
		})
	}
}

func TestLockFeeEndpoints(t *testing.T) {
	ts := newTestServer(t, false)
	api := ts.URL + "/api"

	if status, _ := do(t, http.MethodPost, api+"/lock/attempt", nil, ""); status != http.StatusConflict {
		t.Errorf("attempt without session: expected 409, got %d", status)
	}

	status, body := do(t, http.MethodPost, api+"/lock/fee/reset", nil, "")
	if status != http.StatusOK || body["unlockFeeText"] != "$2.99" {
		t.Errorf("reset without session: %d %v", status, body)
	}

	_, _ = do(t, http.MethodPost, api+"/lock/session", map[string]any{"duration": 30}, "")
	status, body = do(t, http.MethodPost, api+"/lock/attempt", nil, "")
	if status != http.StatusOK || body["unlockFee"].(float64) <= 2.99 {
		t.Errorf("attempt: %d %v", status, body)
	}

	if status, body = do(t, http.MethodPost, api+"/lock/fee/reset", nil, ""); status != http.StatusConflict {
		t.Errorf("reset during session: expected 409, got %d %v", status, body)
	}
	status, body = do(t, http.MethodGet, api+"/lock/fee", nil, "")
	if status != http.StatusOK || body["unlockFee"].(float64) <= 2.99 {
		t.Errorf("fee must stay raised during a session: %d %v", status, body)
	}

	status, body = do(t, http.MethodGet, api+"/lock/uninstall", nil, "")
	if status != http.StatusOK || body["allowed"] != false {
		t.Errorf("uninstall during session: %d %v", status, body)
	}
}

func TestStatsEndpoints(t *testing.T) {
	ts := newTestServer(t, false)
	api := ts.URL + "/api"

	status, body := do(t, http.MethodPost, api+"/stats/session", map[string]any{"duration": 25, "completedTasks": 2}, "")
	if status != http.StatusOK || body["streak"] != float64(1) {
		t.Fatalf("record: %d %v", status, body)
	}
	daily, _ := body["daily"].(map[string]any)
	if daily["focusMinutes"] != float64(25) || daily["completedTasks"] != float64(2) || daily["sessions"] != float64(1) {
		t.Errorf("unexpected daily %v", daily)
	}

	if status, _ = do(t, http.MethodPost, api+"/stats/session", map[string]any{"duration": -5}, ""); status != http.StatusBadRequest {
		t.Errorf("negative duration: expected 400, got %d", status)
	}

	status, body = do(t, http.MethodPut, api+"/stats/weekly",
		map[string]any{"focusMinutes": 120, "sessions": 4, "dailyBreakdown": []any{map[string]any{"focusMinutes": 120}}}, "")
	weekly, _ := body["weekly"].(map[string]any)
	if status != http.StatusOK || weekly["focusMinutes"] != float64(120) {
		t.Errorf("weekly: %d %v", status, body)
	}

	status, body = do(t, http.MethodPut, api+"/stats/monthly", map[string]any{"completedTasks": 7}, "")
	monthly, _ := body["monthly"].(map[string]any)
	if status != http.StatusOK || monthly["completedTasks"] != float64(7) {
		t.Errorf("monthly: %d %v", status, body)
	}

	status, body = do(t, http.MethodPost, api+"/stats/daily/reset", nil, "")
	daily, _ = body["daily"].(map[string]any)
	if status != http.StatusOK || daily["focusMinutes"] != float64(0) || body["streak"] != float64(1) {
		t.Errorf("reset: %d %v", status, body)
	}
}

func TestFocusEndpoints(t *testing.T) {
	ts := newTestServer(t, false)
	api := ts.URL + "/api"

	status, body := do(t, http.MethodPost, api+"/focus/tasks", map[string]any{"title": "outline talk"}, "")
	if status != http.StatusCreated {
		t.Fatalf("add task: %d %v", status, body)
	}
	task, _ := body["task"].(map[string]any)
	id, _ := task["id"].(string)

	if status, _ = do(t, http.MethodPost, api+"/focus/tasks", map[string]any{"title": ""}, ""); status != http.StatusBadRequest {
		t.Errorf("empty title: expected 400, got %d", status)
	}

	status, body = do(t, http.MethodPost, api+"/focus/tasks/toggle", map[string]any{"id": id}, "")
	task, _ = body["task"].(map[string]any)
	if status != http.StatusOK || task["completed"] != true {
		t.Errorf("toggle: %d %v", status, body)
	}

	if status, _ = do(t, http.MethodPost, api+"/focus/tasks/remove", map[string]any{"id": "missing"}, ""); status != http.StatusNotFound {
		t.Errorf("remove missing: expected 404, got %d", status)
	}
	if status, _ = do(t, http.MethodPost, api+"/focus/tasks/remove", map[string]any{"id": id}, ""); status != http.StatusOK {
		t.Errorf("remove: %d", status)
	}

	_, _ = do(t, http.MethodPost, api+"/focus/apps", map[string]any{"app": "video"}, "")
	status, body = do(t, http.MethodPost, api+"/focus/apps", map[string]any{"app": "video"}, "")
	apps, _ := body["apps"].([]any)
	if status != http.StatusOK || len(apps) != 1 {
		t.Errorf("add app: %d %v", status, body)
	}

	// Default blocked apps flow into a session started without a list.
	status, body = do(t, http.MethodPost, api+"/lock/session", map[string]any{"duration": 5}, "")
	session, _ := body["session"].(map[string]any)
	blocked, _ := session["blockedApps"].([]any)
	if status != http.StatusCreated || len(blocked) != 1 || blocked[0] != "video" {
		t.Errorf("session apps: %d %v", status, body)
	}

	status, body = do(t, http.MethodDelete, api+"/focus/apps?app=video", nil, "")
	apps, _ = body["apps"].([]any)
	if status != http.StatusOK || len(apps) != 0 {
		t.Errorf("delete app: %d %v", status, body)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	ts := newTestServer(t, false)
	api := ts.URL + "/api"

	status, body := do(t, http.MethodGet, api+"/settings", nil, "")
	if status != http.StatusOK || body["defaultSessionMinutes"] != float64(25) {
		t.Fatalf("get: %d %v", status, body)
	}

	status, body = do(t, http.MethodPatch, api+"/settings", map[string]any{"theme": "dark", "defaultSessionMinutes": 50}, "")
	if status != http.StatusOK || body["theme"] != "dark" || body["defaultSessionMinutes"] != float64(50) {
		t.Errorf("patch: %d %v", status, body)
	}

	if status, _ = do(t, http.MethodPatch, api+"/settings", map[string]any{"theme": "sepia"}, ""); status != http.StatusBadRequest {
		t.Errorf("invalid theme: expected 400, got %d", status)
	}

	status, body = do(t, http.MethodPost, api+"/lock/session", nil, "")
	session, _ := body["session"].(map[string]any)
	if status != http.StatusCreated || session["duration"] != float64(50) {
		t.Errorf("start with default duration: %d %v", status, body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, false)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/lock/unlock"},
		{http.MethodDelete, "/api/lock/session"},
		{http.MethodGet, "/api/auth/login"},
		{http.MethodPost, "/api/stats"},
	} {
		req, _ := http.NewRequest(tc.method, ts.URL+tc.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestSSODisabled(t *testing.T) {
	ts := newTestServer(t, true)

	status, body := do(t, http.MethodGet, ts.URL+"/api/auth/config", nil, "")
	if status != http.StatusOK || body["sso_enabled"] != false {
		t.Errorf("config: %d %v", status, body)
	}

	resp, err := http.Get(ts.URL + "/api/auth/sso/login")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 when sso disabled, got %d", resp.StatusCode)
	}
}
