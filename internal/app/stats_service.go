package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"focuslock/internal/domain"
)

// StatsService aggregates focus statistics per user.
type StatsService struct {
	repo domain.StatsRepository
	loc  *time.Location
	now  func() time.Time
	mu   sync.Mutex
}

// NewStatsService creates a StatsService. Streak dates are calendar days in loc;
// a nil loc means process local time.
func NewStatsService(repo domain.StatsRepository, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{repo: repo, loc: loc, now: time.Now}
}

// WithClock replaces the wall clock.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// Get returns the user's stats. Users without stats get zero values.
func (s *StatsService) Get(ctx context.Context, userID int64) (domain.Stats, error) {
	return s.load(ctx, userID)
}

// RecordSession adds one completed session to today's totals and advances the streak.
func (s *StatsService) RecordSession(ctx context.Context, userID int64, minutes, completedTasks int) (domain.Stats, error) {
	return s.update(ctx, userID, func(st *domain.Stats) error {
		return st.RecordSession(minutes, completedTasks, s.now(), s.loc)
	})
}

// ReplaceWeekly overwrites the weekly snapshot.
func (s *StatsService) ReplaceWeekly(ctx context.Context, userID int64, weekly domain.WeeklyStats) (domain.Stats, error) {
	if err := checkTotals(weekly.PeriodTotals, weekly.DailyBreakdown); err != nil {
		return domain.Stats{}, err
	}
	return s.update(ctx, userID, func(st *domain.Stats) error {
		st.Weekly = weekly
		return nil
	})
}

// ReplaceMonthly overwrites the monthly snapshot.
func (s *StatsService) ReplaceMonthly(ctx context.Context, userID int64, monthly domain.MonthlyStats) (domain.Stats, error) {
	if err := checkTotals(monthly.PeriodTotals, monthly.WeeklyBreakdown); err != nil {
		return domain.Stats{}, err
	}
	return s.update(ctx, userID, func(st *domain.Stats) error {
		st.Monthly = monthly
		return nil
	})
}

// ResetDaily zeroes today's counters.
func (s *StatsService) ResetDaily(ctx context.Context, userID int64) (domain.Stats, error) {
	return s.update(ctx, userID, func(st *domain.Stats) error {
		st.ResetDaily()
		return nil
	})
}

func (s *StatsService) update(ctx context.Context, userID int64, fn func(*domain.Stats) error) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	if err := fn(&st); err != nil {
		return domain.Stats{}, err
	}
	if err := s.repo.SaveStats(ctx, userID, st); err != nil {
		return domain.Stats{}, err
	}
	return st, nil
}

func (s *StatsService) load(ctx context.Context, userID int64) (domain.Stats, error) {
	st, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	if st == nil {
		return domain.Stats{}, nil
	}
	return *st, nil
}

func checkTotals(total domain.PeriodTotals, breakdown []domain.PeriodTotals) error {
	for _, t := range append([]domain.PeriodTotals{total}, breakdown...) {
		if t.FocusMinutes < 0 || t.CompletedTasks < 0 || t.Sessions < 0 {
			return errors.Join(domain.ErrNegativeStat, errors.New("period totals must not be negative"))
		}
	}
	return nil
}
