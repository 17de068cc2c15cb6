package memory

import (
	"context"
	"testing"
	"time"

	"focuslock/internal/domain"
)

func TestLockRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)

	st, err := db.GetLockState(ctx, userID)
	if err != nil {
		t.Fatalf("GetLockState: %v", err)
	}
	if st != nil {
		t.Fatal("expected nil state for new user")
	}

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	state := domain.NewLockState(domain.DefaultFeePolicy)
	if err := state.Start(domain.DefaultFeePolicy, "s1", 25, []string{"chat"}, start); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := db.SaveLockState(ctx, userID, state, nil); err != nil {
		t.Fatalf("SaveLockState: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	state.Active.BlockedApps[0] = "mutated"

	got, _ := db.GetLockState(ctx, userID)
	if got == nil || got.Active == nil || got.Active.ID != "s1" {
		t.Fatalf("expected active session s1, got %+v", got)
	}
	if got.Active.BlockedApps[0] != "chat" {
		t.Errorf("store shares slices with caller: %v", got.Active.BlockedApps)
	}

	actives, _ := db.ListActiveSessions(ctx)
	if len(actives) != 1 || actives[0].UserID != userID {
		t.Errorf("expected one active session for user 1, got %+v", actives)
	}

	// Other user sees nothing
	other, _ := db.GetLockState(ctx, 999)
	if other != nil {
		t.Error("expected nil state for other user")
	}

	entry, err := got.CompleteNaturally(start.Add(25 * time.Minute))
	if err != nil {
		t.Fatalf("CompleteNaturally: %v", err)
	}
	if err := db.SaveLockState(ctx, userID, *got, &entry); err != nil {
		t.Fatalf("SaveLockState: %v", err)
	}

	actives, _ = db.ListActiveSessions(ctx)
	if len(actives) != 0 {
		t.Errorf("expected no active sessions, got %d", len(actives))
	}
}

func TestListHistoryNewestFirst(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)

	for _, id := range []string{"a", "b", "c"} {
		entry := domain.HistoryEntry{Session: domain.Session{ID: id, Duration: 1}}
		if err := db.SaveLockState(ctx, userID, domain.LockState{UnlockFee: 2.99}, &entry); err != nil {
			t.Fatalf("SaveLockState: %v", err)
		}
	}

	all, err := db.ListHistory(ctx, userID, 0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("expected c,b,a got %+v", all)
	}

	limited, _ := db.ListHistory(ctx, userID, 2)
	if len(limited) != 2 || limited[0].ID != "c" || limited[1].ID != "b" {
		t.Errorf("expected c,b got %+v", limited)
	}

	none, _ := db.ListHistory(ctx, 999, 10)
	if len(none) != 0 {
		t.Error("expected 0 entries for other user")
	}
}

func TestStatsFocusSettingsRepositories(t *testing.T) {
	db := New()
	ctx := context.Background()

	if st, _ := db.GetStats(ctx, 1); st != nil {
		t.Error("expected nil stats")
	}
	if err := db.SaveStats(ctx, 1, domain.Stats{Streak: 3}); err != nil {
		t.Fatalf("SaveStats: %v", err)
	}
	if st, _ := db.GetStats(ctx, 1); st == nil || st.Streak != 3 {
		t.Errorf("expected streak 3, got %+v", st)
	}

	if f, _ := db.GetFocus(ctx, 1); f != nil {
		t.Error("expected nil focus")
	}
	if err := db.SaveFocus(ctx, 1, domain.Focus{BlockedApps: []string{"game"}}); err != nil {
		t.Fatalf("SaveFocus: %v", err)
	}
	if f, _ := db.GetFocus(ctx, 1); f == nil || len(f.BlockedApps) != 1 {
		t.Errorf("expected one blocked app, got %+v", f)
	}

	if s, _ := db.GetSettings(ctx, 1); s != nil {
		t.Error("expected nil settings")
	}
	want := domain.DefaultSettings()
	want.Theme = domain.ThemeDark
	if err := db.SaveSettings(ctx, 1, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if s, _ := db.GetSettings(ctx, 1); s == nil || s.Theme != domain.ThemeDark {
		t.Errorf("expected dark theme, got %+v", s)
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "bob@example.com", "bob", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != "bob@example.com" || u.Name != "bob" {
		t.Errorf("unexpected user %+v", u)
	}

	if _, err := db.Create(ctx, "bob@example.com", "bob", "hash"); err == nil {
		t.Error("expected duplicate email to fail")
	}

	u2, err := db.GetByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u2 == nil || u2.ID != u.ID {
		t.Error("failed to retrieve user")
	}

	missing, err := db.GetByEmail(ctx, "alice@example.com")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for unknown email, got %v, %v", missing, err)
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()

	err := repo.Create(ctx, 1, "token123", "ua", "127.0.0.1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess, err := repo.GetByToken(ctx, "token123")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if sess == nil || sess.UserAgent != "ua" || sess.IP != "127.0.0.1" {
		t.Errorf("unexpected session %+v", sess)
	}

	_ = repo.Create(ctx, 1, "old", "", "", time.Now().Add(-time.Minute))
	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if s, _ := repo.GetByToken(ctx, "old"); s != nil {
		t.Error("expected expired session to be purged")
	}

	_ = repo.Delete(ctx, "token123")
	sess, _ = repo.GetByToken(ctx, "token123")
	if sess != nil {
		t.Error("expected nil (deleted)")
	}
}

func TestKV(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	if _, ok, _ := kv.Get(ctx, "auth_token"); ok {
		t.Error("expected missing key")
	}
	_ = kv.Set(ctx, "auth_token", "abc")
	if v, ok, _ := kv.Get(ctx, "auth_token"); !ok || v != "abc" {
		t.Errorf("expected abc, got %q %v", v, ok)
	}
	_ = kv.Remove(ctx, "auth_token")
	if _, ok, _ := kv.Get(ctx, "auth_token"); ok {
		t.Error("expected key removed")
	}
}
