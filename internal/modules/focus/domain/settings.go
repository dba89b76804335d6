package domain

import (
	"fmt"

	apperrors "tabfocus/internal/platform/errors"
)

const (
	DefaultAlertTime = 30
	MinAlertTime     = 5
	MaxAlertTime     = 3600
)

// Settings is the user-editable configuration shared with the settings store.
type Settings struct {
	FocusList        FocusSet `yaml:"focus_list"`
	FocusModeEnabled bool     `yaml:"focus_mode_enabled"`
	AlertTime        int      `yaml:"alert_time"`
}

func DefaultSettings() Settings {
	return Settings{FocusList: FocusSet{}, AlertTime: DefaultAlertTime}
}

// ValidateAlertTime enforces the accepted alert range at the settings boundary.
func ValidateAlertTime(seconds int) error {
	if seconds < MinAlertTime {
		return fmt.Errorf("%w: alert time must be at least %d seconds", apperrors.ErrInvalidAlertTime, MinAlertTime)
	}
	if seconds > MaxAlertTime {
		return fmt.Errorf("%w: alert time cannot exceed 1 hour (%d seconds)", apperrors.ErrInvalidAlertTime, MaxAlertTime)
	}
	return nil
}

// ClampAlertTime pulls seconds into the accepted alert range.
func ClampAlertTime(seconds int) int {
	return min(max(seconds, MinAlertTime), MaxAlertTime)
}
