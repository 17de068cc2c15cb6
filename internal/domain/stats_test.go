package domain_test

import (
	"errors"
	"testing"
	"time"

	"focuslock/internal/domain"
)

func TestRecordSession_SameDayKeepsStreak(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := domain.Stats{}

	if err := s.RecordSession(25, 2, day, time.UTC); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordSession(50, 1, day.Add(3*time.Hour), time.UTC); err != nil {
		t.Fatal(err)
	}

	if s.Streak != 1 {
		t.Errorf("streak = %d; want 1", s.Streak)
	}
	want := domain.PeriodTotals{FocusMinutes: 75, CompletedTasks: 3, Sessions: 2}
	if s.Daily != want {
		t.Errorf("daily = %+v; want %+v", s.Daily, want)
	}
	if s.LastActiveDate != "2026-03-10" {
		t.Errorf("lastActiveDate = %q", s.LastActiveDate)
	}
}

func TestRecordSession_Streak(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		last       string
		streak     int
		wantStreak int
	}{
		{"first ever", "", 0, 1},
		{"consecutive day", "2026-03-09", 4, 5},
		{"same day", "2026-03-10", 4, 4},
		{"two day gap", "2026-03-08", 4, 1},
		{"long gap", "2025-12-31", 9, 1},
		{"future date", "2026-03-11", 3, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := domain.Stats{Streak: tc.streak, LastActiveDate: tc.last}
			if err := s.RecordSession(10, 0, base, time.UTC); err != nil {
				t.Fatal(err)
			}
			if s.Streak != tc.wantStreak {
				t.Fatalf("streak = %d; want %d", s.Streak, tc.wantStreak)
			}
		})
	}
}

func TestRecordSession_AcrossMonthBoundary(t *testing.T) {
	s := domain.Stats{}
	_ = s.RecordSession(10, 0, time.Date(2026, 2, 28, 22, 0, 0, 0, time.UTC), time.UTC)
	_ = s.RecordSession(10, 0, time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC), time.UTC)
	if s.Streak != 2 {
		t.Fatalf("streak = %d; want 2", s.Streak)
	}
}

func TestRecordSession_UsesConfiguredLocation(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	// 20:00 UTC on the 9th is already the 10th at UTC+9.
	s := domain.Stats{Streak: 1, LastActiveDate: "2026-03-09"}
	now := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)

	utc := s
	_ = utc.RecordSession(10, 0, now, time.UTC)
	if utc.Streak != 1 || utc.LastActiveDate != "2026-03-09" {
		t.Errorf("UTC: streak=%d last=%s", utc.Streak, utc.LastActiveDate)
	}

	_ = s.RecordSession(10, 0, now, tokyo)
	if s.Streak != 2 || s.LastActiveDate != "2026-03-10" {
		t.Errorf("UTC+9: streak=%d last=%s", s.Streak, s.LastActiveDate)
	}
}

func TestRecordSession_RejectsNegative(t *testing.T) {
	s := domain.Stats{}
	if err := s.RecordSession(-1, 0, time.Now(), time.UTC); !errors.Is(err, domain.ErrNegativeStat) {
		t.Fatalf("expected ErrNegativeStat, got %v", err)
	}
	if err := s.RecordSession(1, -1, time.Now(), time.UTC); !errors.Is(err, domain.ErrNegativeStat) {
		t.Fatalf("expected ErrNegativeStat, got %v", err)
	}
	if s.Daily.Sessions != 0 {
		t.Fatal("rejected record mutated stats")
	}
}

func TestResetDaily(t *testing.T) {
	s := domain.Stats{}
	_ = s.RecordSession(25, 3, time.Now(), time.UTC)
	s.ResetDaily()
	if s.Daily != (domain.PeriodTotals{}) {
		t.Fatalf("daily not reset: %+v", s.Daily)
	}
	if s.Streak != 1 || s.LastActiveDate == "" {
		t.Fatal("reset should not touch the streak")
	}
}
