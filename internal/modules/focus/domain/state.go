package domain

import "time"

// Phase is the state of the focus session tracker.
type Phase int

const (
	PhaseDisabled Phase = iota
	PhaseNoActiveTab
	PhaseInFocusSession
	PhaseOutOfFocus
)

func (p Phase) String() string {
	switch p {
	case PhaseDisabled:
		return "disabled"
	case PhaseNoActiveTab:
		return "no_active_tab"
	case PhaseInFocusSession:
		return "in_focus"
	case PhaseOutOfFocus:
		return "out_of_focus"
	default:
		return "unknown"
	}
}

// SessionState is the live tracker state. CurrentFocusTabStartTime and
// OutOfFocusStartTime are never both set.
type SessionState struct {
	FocusModeEnabled         bool
	CurrentTabID             *int
	CurrentFocusTabStartTime *time.Time
	OutOfFocusStartTime      *time.Time
	AlertThresholdSeconds    int

	// FocusKey is the tracking key the running focus interval is credited to.
	FocusKey       string
	FocusSessionID string
}

func NewSessionState() SessionState {
	return SessionState{AlertThresholdSeconds: DefaultAlertTime}
}

func (s SessionState) Phase() Phase {
	switch {
	case !s.FocusModeEnabled:
		return PhaseDisabled
	case s.CurrentFocusTabStartTime != nil:
		return PhaseInFocusSession
	case s.OutOfFocusStartTime != nil:
		return PhaseOutOfFocus
	default:
		return PhaseNoActiveTab
	}
}
