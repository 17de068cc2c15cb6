package domain

import (
	"context"
	"errors"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ErrInvalidSettings is wrapped by every settings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Notifications toggles which reminders the user receives.
type Notifications struct {
	SessionEnd    bool `json:"sessionEnd"`
	BreakEnd      bool `json:"breakEnd"`
	DailyReminder bool `json:"dailyReminder"`
}

// Settings are per-user preferences.
type Settings struct {
	Theme                 string        `json:"theme"`
	Notifications         Notifications `json:"notifications"`
	DefaultSessionMinutes int           `json:"defaultSessionMinutes"`
	DefaultBreakMinutes   int           `json:"defaultBreakMinutes"`
	SoundEnabled          bool          `json:"soundEnabled"`
	VibrationEnabled      bool          `json:"vibrationEnabled"`
	AutoStartBreaks       bool          `json:"autoStartBreaks"`
	DailyGoalMinutes      int           `json:"dailyGoalMinutes"`
}

// DefaultSettings returns the settings of a new user.
func DefaultSettings() Settings {
	return Settings{
		Theme:                 ThemeLight,
		Notifications:         Notifications{SessionEnd: true, BreakEnd: true, DailyReminder: true},
		DefaultSessionMinutes: 25,
		DefaultBreakMinutes:   5,
		SoundEnabled:          true,
		VibrationEnabled:      true,
		AutoStartBreaks:       true,
		DailyGoalMinutes:      4 * 60,
	}
}

// SettingsPatch is a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	Theme                 *string `json:"theme"`
	SessionEndNotify      *bool   `json:"sessionEndNotify"`
	BreakEndNotify        *bool   `json:"breakEndNotify"`
	DailyReminderNotify   *bool   `json:"dailyReminderNotify"`
	DefaultSessionMinutes *int    `json:"defaultSessionMinutes"`
	DefaultBreakMinutes   *int    `json:"defaultBreakMinutes"`
	SoundEnabled          *bool   `json:"soundEnabled"`
	VibrationEnabled      *bool   `json:"vibrationEnabled"`
	AutoStartBreaks       *bool   `json:"autoStartBreaks"`
	DailyGoalMinutes      *int    `json:"dailyGoalMinutes"`
}

// Apply validates p and applies it. On error s is left untouched.
func (s *Settings) Apply(p SettingsPatch) error {
	next := *s
	if p.Theme != nil {
		if *p.Theme != ThemeLight && *p.Theme != ThemeDark {
			return errors.Join(ErrInvalidSettings, errors.New(`theme must be "light" or "dark"`))
		}
		next.Theme = *p.Theme
	}
	if p.DefaultSessionMinutes != nil {
		if *p.DefaultSessionMinutes <= 0 || *p.DefaultSessionMinutes > MaxSessionMinutes {
			return errors.Join(ErrInvalidSettings, errors.New("defaultSessionMinutes must be between 1 and 1440"))
		}
		next.DefaultSessionMinutes = *p.DefaultSessionMinutes
	}
	if p.DefaultBreakMinutes != nil {
		if *p.DefaultBreakMinutes <= 0 {
			return errors.Join(ErrInvalidSettings, errors.New("defaultBreakMinutes must be > 0"))
		}
		next.DefaultBreakMinutes = *p.DefaultBreakMinutes
	}
	if p.DailyGoalMinutes != nil {
		if *p.DailyGoalMinutes < 0 {
			return errors.Join(ErrInvalidSettings, errors.New("dailyGoalMinutes must not be negative"))
		}
		next.DailyGoalMinutes = *p.DailyGoalMinutes
	}
	setBool(&next.Notifications.SessionEnd, p.SessionEndNotify)
	setBool(&next.Notifications.BreakEnd, p.BreakEndNotify)
	setBool(&next.Notifications.DailyReminder, p.DailyReminderNotify)
	setBool(&next.SoundEnabled, p.SoundEnabled)
	setBool(&next.VibrationEnabled, p.VibrationEnabled)
	setBool(&next.AutoStartBreaks, p.AutoStartBreaks)
	*s = next
	return nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// SettingsRepository is the port for settings persistence.
type SettingsRepository interface {
	// GetSettings returns nil when the user has never saved settings.
	GetSettings(ctx context.Context, userID int64) (*Settings, error)
	SaveSettings(ctx context.Context, userID int64, settings Settings) error
}
