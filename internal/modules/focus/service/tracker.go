package service

import (
	"time"

	"go.uber.org/zap"

	"tabfocus/internal/modules/focus/domain"
	"tabfocus/internal/platform/clock"
	"tabfocus/internal/platform/id"
)

// Transition describes the effect of one tracker operation so the caller can
// apply timer, persistence and metric side effects in one place.
type Transition struct {
	From domain.Phase
	To   domain.Phase

	// FlushedKey and FlushedSeconds are set when a focus interval was credited.
	FlushedKey     string
	FlushedSeconds int64
	// Visited is the key whose visit was recorded on entering a focus session.
	Visited string
}

func (t Transition) Changed() bool {
	return t.From != t.To
}

// Accumulated reports whether the tracking records were modified.
func (t Transition) Accumulated() bool {
	return t.FlushedSeconds > 0 || t.Visited != ""
}

// SessionTracker is the focus state machine. Like TimeAccumulator it relies on
// the caller for serialization.
type SessionTracker struct {
	clock  clock.Clock
	ids    id.Generator
	acc    *TimeAccumulator
	logger *zap.Logger

	state domain.SessionState
	focus domain.FocusSet
}

func NewSessionTracker(clk clock.Clock, ids id.Generator, acc *TimeAccumulator, logger *zap.Logger) *SessionTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionTracker{
		clock:  clk,
		ids:    ids,
		acc:    acc,
		logger: logger,
		state:  domain.NewSessionState(),
		focus:  domain.FocusSet{},
	}
}

// SetFocusModeEnabled enables or disables tracking. Disabling credits the
// running focus interval and clears all session state. Repeated calls with the
// same value are no-ops.
func (t *SessionTracker) SetFocusModeEnabled(enabled bool) Transition {
	tr := Transition{From: t.state.Phase()}
	if enabled == t.state.FocusModeEnabled {
		tr.To = tr.From
		return tr
	}
	if enabled {
		t.state.FocusModeEnabled = true
	} else {
		tr.FlushedKey, tr.FlushedSeconds = t.Flush()
		t.clearSession()
		t.state.FocusModeEnabled = false
	}
	tr.To = t.state.Phase()
	t.logger.Info("focus mode changed", zap.Bool("enabled", enabled))
	return tr
}

// Evaluate classifies tab as the new active tab. The running focus interval is
// credited first. Ignored while focus mode is disabled.
func (t *SessionTracker) Evaluate(tab domain.TabSnapshot) Transition {
	tr := Transition{From: t.state.Phase()}
	if !t.state.FocusModeEnabled {
		tr.To = tr.From
		return tr
	}
	tr.FlushedKey, tr.FlushedSeconds = t.Flush()

	now := t.clock.Now()
	tabID := tab.ID
	t.state.CurrentTabID = &tabID

	if domain.Matches(tab, t.focus) {
		key := domain.KeyFor(tab)
		if tr.From != domain.PhaseInFocusSession || key != t.state.FocusKey {
			t.state.FocusSessionID = t.ids.New()
		}
		t.state.OutOfFocusStartTime = nil
		t.state.CurrentFocusTabStartTime = &now
		t.state.FocusKey = key
		t.acc.RecordVisit(key, tab.Title)
		tr.Visited = key
		t.logger.Debug("tab in focus list",
			zap.Int("tab_id", tab.ID),
			zap.String("key", key),
			zap.String("focus_session_id", t.state.FocusSessionID))
	} else {
		t.state.CurrentFocusTabStartTime = nil
		t.state.FocusKey = ""
		t.state.FocusSessionID = ""
		t.state.OutOfFocusStartTime = &now
		t.logger.Debug("tab not in focus list", zap.Int("tab_id", tab.ID))
	}
	tr.To = t.state.Phase()
	return tr
}

// ClearActiveTab credits the running interval and forgets the current tab, as
// when it is closed.
func (t *SessionTracker) ClearActiveTab() Transition {
	tr := Transition{From: t.state.Phase()}
	if !t.state.FocusModeEnabled {
		tr.To = tr.From
		return tr
	}
	tr.FlushedKey, tr.FlushedSeconds = t.Flush()
	t.clearSession()
	tr.To = t.state.Phase()
	return tr
}

// Flush credits the whole seconds of the running focus interval to its key and
// moves the interval start forward by the credited amount, keeping the
// fractional remainder. It returns the key and seconds credited.
func (t *SessionTracker) Flush() (string, int64) {
	start := t.state.CurrentFocusTabStartTime
	if start == nil || t.state.CurrentTabID == nil || t.state.FocusKey == "" {
		return "", 0
	}
	seconds := clock.Seconds(*start, t.clock.Now())
	if seconds <= 0 {
		return "", 0
	}
	rebased := start.Add(time.Duration(seconds) * time.Second)
	t.state.CurrentFocusTabStartTime = &rebased
	if !t.acc.AddElapsed(t.state.FocusKey, seconds) {
		return "", 0
	}
	return t.state.FocusKey, seconds
}

// OutOfFocusElapsed returns the time since the out-of-focus baseline, and false
// outside the OutOfFocus phase.
func (t *SessionTracker) OutOfFocusElapsed() (time.Duration, bool) {
	if t.state.Phase() != domain.PhaseOutOfFocus {
		return 0, false
	}
	elapsed := t.clock.Now().Sub(*t.state.OutOfFocusStartTime)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, true
}

// RestartOutOfFocus moves the out-of-focus baseline to now.
func (t *SessionTracker) RestartOutOfFocus() {
	if t.state.Phase() != domain.PhaseOutOfFocus {
		return
	}
	now := t.clock.Now()
	t.state.OutOfFocusStartTime = &now
}

// State returns a copy that shares no pointers with the tracker.
func (t *SessionTracker) State() domain.SessionState {
	s := t.state
	if s.CurrentTabID != nil {
		v := *s.CurrentTabID
		s.CurrentTabID = &v
	}
	if s.CurrentFocusTabStartTime != nil {
		v := *s.CurrentFocusTabStartTime
		s.CurrentFocusTabStartTime = &v
	}
	if s.OutOfFocusStartTime != nil {
		v := *s.OutOfFocusStartTime
		s.OutOfFocusStartTime = &v
	}
	return s
}

func (t *SessionTracker) Phase() domain.Phase {
	return t.state.Phase()
}

// SetFocusSet replaces the focus set. The current classification is kept until
// the next evaluation.
func (t *SessionTracker) SetFocusSet(set domain.FocusSet) {
	t.focus = append(domain.FocusSet{}, set...)
}

func (t *SessionTracker) FocusSet() domain.FocusSet {
	return append(domain.FocusSet{}, t.focus...)
}

func (t *SessionTracker) SetAlertThreshold(seconds int) {
	t.state.AlertThresholdSeconds = seconds
}

func (t *SessionTracker) IsCurrentTab(tabID int) bool {
	return t.state.CurrentTabID != nil && *t.state.CurrentTabID == tabID
}

func (t *SessionTracker) clearSession() {
	t.state.CurrentTabID = nil
	t.state.CurrentFocusTabStartTime = nil
	t.state.OutOfFocusStartTime = nil
	t.state.FocusKey = ""
	t.state.FocusSessionID = ""
}
