package domain_test

import (
	"errors"
	"testing"
	"time"

	"focuslock/internal/domain"
)

func TestFocusTasks(t *testing.T) {
	f := domain.Focus{}
	now := time.Now()

	if _, err := f.AddTask("t0", "   ", now); !errors.Is(err, domain.ErrEmptyTaskTitle) {
		t.Fatalf("expected ErrEmptyTaskTitle, got %v", err)
	}
	a, err := f.AddTask("t1", " write report ", now)
	if err != nil {
		t.Fatal(err)
	}
	if a.Title != "write report" || a.Completed {
		t.Fatalf("unexpected task %+v", a)
	}
	_, _ = f.AddTask("t2", "review", now)

	toggled, err := f.ToggleTask("t1")
	if err != nil || !toggled.Completed {
		t.Fatalf("ToggleTask: %+v, %v", toggled, err)
	}
	if f.CompletedTasks() != 1 {
		t.Fatalf("CompletedTasks = %d; want 1", f.CompletedTasks())
	}
	if _, err := f.ToggleTask("missing"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if err := f.RemoveTask("t1"); err != nil {
		t.Fatal(err)
	}
	if len(f.Tasks) != 1 || f.Tasks[0].ID != "t2" {
		t.Fatalf("unexpected tasks %+v", f.Tasks)
	}
	if err := f.RemoveTask("t1"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestFocusBlockedApps(t *testing.T) {
	f := domain.Focus{}
	if err := f.AddBlockedApp(""); !errors.Is(err, domain.ErrEmptyApp) {
		t.Fatalf("expected ErrEmptyApp, got %v", err)
	}
	_ = f.AddBlockedApp("com.social")
	_ = f.AddBlockedApp("com.social")
	_ = f.AddBlockedApp("com.video")
	if len(f.BlockedApps) != 2 {
		t.Fatalf("expected 2 apps, got %v", f.BlockedApps)
	}
	if !f.RemoveBlockedApp("com.social") {
		t.Fatal("expected removal")
	}
	if f.RemoveBlockedApp("com.social") {
		t.Fatal("second removal should report false")
	}
}

func TestSettingsApply(t *testing.T) {
	dark := "dark"
	bogus := "sepia"
	zero := 0
	fifty := 50
	off := false

	s := domain.DefaultSettings()
	if err := s.Apply(domain.SettingsPatch{Theme: &dark, DefaultSessionMinutes: &fifty, SoundEnabled: &off, BreakEndNotify: &off}); err != nil {
		t.Fatal(err)
	}
	if s.Theme != "dark" || s.DefaultSessionMinutes != 50 || s.SoundEnabled || s.Notifications.BreakEnd {
		t.Fatalf("patch not applied: %+v", s)
	}
	if !s.Notifications.SessionEnd || s.DefaultBreakMinutes != 5 {
		t.Fatalf("untouched fields changed: %+v", s)
	}

	before := s
	if err := s.Apply(domain.SettingsPatch{Theme: &bogus}); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	if err := s.Apply(domain.SettingsPatch{SoundEnabled: &off, DefaultBreakMinutes: &zero}); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	tooLong := domain.MaxSessionMinutes + 1
	if err := s.Apply(domain.SettingsPatch{DefaultSessionMinutes: &tooLong}); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings for %d minutes, got %v", tooLong, err)
	}
	if s != before {
		t.Fatal("failed patch mutated settings")
	}
}
