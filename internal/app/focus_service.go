package app

import (
	"context"
	"sync"
	"time"

	"focuslock/internal/domain"

	"github.com/google/uuid"
)

// FocusService manages the user's task list and default blocked apps.
type FocusService struct {
	repo  domain.FocusRepository
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

func NewFocusService(repo domain.FocusRepository) *FocusService {
	return &FocusService{repo: repo, now: time.Now, newID: uuid.NewString}
}

// Get returns the user's focus list.
func (s *FocusService) Get(ctx context.Context, userID int64) (domain.Focus, error) {
	f, err := s.repo.GetFocus(ctx, userID)
	if err != nil {
		return domain.Focus{}, err
	}
	if f == nil {
		return domain.Focus{Tasks: []domain.Task{}, BlockedApps: []string{}}, nil
	}
	return *f, nil
}

// CompletedTasks counts the user's completed tasks.
func (s *FocusService) CompletedTasks(ctx context.Context, userID int64) (int, error) {
	f, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return f.CompletedTasks(), nil
}

func (s *FocusService) AddTask(ctx context.Context, userID int64, title string) (domain.Task, error) {
	var task domain.Task
	err := s.update(ctx, userID, func(f *domain.Focus) error {
		var err error
		task, err = f.AddTask(s.newID(), title, s.now())
		return err
	})
	return task, err
}

func (s *FocusService) ToggleTask(ctx context.Context, userID int64, id string) (domain.Task, error) {
	var task domain.Task
	err := s.update(ctx, userID, func(f *domain.Focus) error {
		var err error
		task, err = f.ToggleTask(id)
		return err
	})
	return task, err
}

func (s *FocusService) RemoveTask(ctx context.Context, userID int64, id string) error {
	return s.update(ctx, userID, func(f *domain.Focus) error {
		return f.RemoveTask(id)
	})
}

func (s *FocusService) AddBlockedApp(ctx context.Context, userID int64, app string) ([]string, error) {
	var apps []string
	err := s.update(ctx, userID, func(f *domain.Focus) error {
		if err := f.AddBlockedApp(app); err != nil {
			return err
		}
		apps = f.BlockedApps
		return nil
	})
	return apps, err
}

// RemoveBlockedApp removes app from the default list. Removing an absent app is not an error.
func (s *FocusService) RemoveBlockedApp(ctx context.Context, userID int64, app string) ([]string, error) {
	var apps []string
	err := s.update(ctx, userID, func(f *domain.Focus) error {
		f.RemoveBlockedApp(app)
		apps = f.BlockedApps
		return nil
	})
	return apps, err
}

func (s *FocusService) update(ctx context.Context, userID int64, fn func(*domain.Focus) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := fn(&f); err != nil {
		return err
	}
	return s.repo.SaveFocus(ctx, userID, f)
}
