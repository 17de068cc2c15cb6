package domain

import (
	"context"
	"errors"
	"time"
)

// DayLayout is the calendar-date format used for stats and streaks.
const DayLayout = "2006-01-02"

// ErrNegativeStat is returned when a recorded session carries negative counts.
var ErrNegativeStat = errors.New("duration and completed tasks must not be negative")

// PeriodTotals are the counters kept for one period.
type PeriodTotals struct {
	FocusMinutes   int `json:"focusMinutes"`
	CompletedTasks int `json:"completedTasks"`
	Sessions       int `json:"sessions"`
}

// WeeklyStats is an externally supplied weekly snapshot.
type WeeklyStats struct {
	PeriodTotals
	DailyBreakdown []PeriodTotals `json:"dailyBreakdown"`
}

// MonthlyStats is an externally supplied monthly snapshot.
type MonthlyStats struct {
	PeriodTotals
	WeeklyBreakdown []PeriodTotals `json:"weeklyBreakdown"`
}

// Stats holds a user's aggregate focus counters and day streak.
type Stats struct {
	Daily          PeriodTotals `json:"daily"`
	Weekly         WeeklyStats  `json:"weekly"`
	Monthly        MonthlyStats `json:"monthly"`
	Streak         int          `json:"streak"`
	LastActiveDate string       `json:"lastActiveDate,omitempty"`
}

// RecordSession folds one completed session into the daily counters and
// advances the streak. Dates are calendar days of now in loc.
func (s *Stats) RecordSession(minutes, completedTasks int, now time.Time, loc *time.Location) error {
	if minutes < 0 || completedTasks < 0 {
		return ErrNegativeStat
	}
	s.Daily.FocusMinutes += minutes
	s.Daily.CompletedTasks += completedTasks
	s.Daily.Sessions++

	today := CalendarDay(now, loc)
	todayStr := today.Format(DayLayout)

	switch {
	case s.LastActiveDate == "":
		s.Streak = 1
	case s.LastActiveDate == todayStr:
		// same day: streak already counted
	case s.LastActiveDate == today.AddDate(0, 0, -1).Format(DayLayout):
		s.Streak++
	default:
		s.Streak = 1
	}
	s.LastActiveDate = todayStr
	return nil
}

// ResetDaily zeroes the daily counters. Streak and last active date are kept.
func (s *Stats) ResetDaily() {
	s.Daily = PeriodTotals{}
}

// CalendarDay truncates t to midnight of its calendar date in loc, expressed
// in UTC so that day arithmetic is unaffected by DST transitions.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StatsRepository is the port for stats persistence.
type StatsRepository interface {
	// GetStats returns nil when the user has no stats yet.
	GetStats(ctx context.Context, userID int64) (*Stats, error)
	SaveStats(ctx context.Context, userID int64, stats Stats) error
}
