package domain

import (
	"fmt"
	"time"
)

const (
	ReminderTitle = "Focus Reminder"
	WelcomeTitle  = "Focus Activated"
	WelcomeText   = "Ready to help you stay focused!"

	// DefaultTolerance matches the out-of-focus check cadence.
	DefaultTolerance = 2 * time.Second
)

func ReminderMessage(thresholdSeconds int) string {
	return fmt.Sprintf("You've been distracted for over %d seconds. Time to get back to focus!", thresholdSeconds)
}

// ShouldRemind reports whether an out-of-focus interval of elapsed sits inside
// the tolerance window that follows a whole multiple of the threshold.
// A threshold <= 0 never fires.
func ShouldRemind(elapsed time.Duration, thresholdSeconds int, tolerance time.Duration) bool {
	if thresholdSeconds <= 0 || tolerance <= 0 {
		return false
	}
	threshold := time.Duration(thresholdSeconds) * time.Second
	if elapsed < threshold {
		return false
	}
	return elapsed%threshold < tolerance
}
