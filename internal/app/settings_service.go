package app

import (
	"context"
	"sync"

	"focuslock/internal/domain"
)

// SettingsService stores per-user preferences.
type SettingsService struct {
	repo domain.SettingsRepository
	mu   sync.Mutex
}

func NewSettingsService(repo domain.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the user's settings, or the defaults if none were saved.
func (s *SettingsService) Get(ctx context.Context, userID int64) (domain.Settings, error) {
	st, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		return domain.Settings{}, err
	}
	if st == nil {
		return domain.DefaultSettings(), nil
	}
	return *st, nil
}

// Update applies a partial update. Invalid patches change nothing.
func (s *SettingsService) Update(ctx context.Context, userID int64, patch domain.SettingsPatch) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := st.Apply(patch); err != nil {
		return domain.Settings{}, err
	}
	if err := s.repo.SaveSettings(ctx, userID, st); err != nil {
		return domain.Settings{}, err
	}
	return st, nil
}
