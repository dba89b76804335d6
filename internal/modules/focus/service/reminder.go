package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"tabfocus/internal/modules/focus/domain"
	focusout "tabfocus/internal/modules/focus/port/out"
	apperrors "tabfocus/internal/platform/errors"
	"tabfocus/internal/platform/schedule"
)

const (
	CheckTimer = "out-of-focus-check"
	FlushTimer = "flush-tracking"
)

// CheckResult is the outcome of one out-of-focus check tick.
type CheckResult int

const (
	CheckStale CheckResult = iota
	CheckBackground
	CheckNoActiveTab
	CheckLookupFailed
	CheckRefocused
	CheckWaiting
	CheckDue
	CheckInFlight
	CheckReminded
	CheckDeliveryFailed
)

func (r CheckResult) String() string {
	switch r {
	case CheckStale:
		return "stale"
	case CheckBackground:
		return "background"
	case CheckNoActiveTab:
		return "no_active_tab"
	case CheckLookupFailed:
		return "lookup_failed"
	case CheckRefocused:
		return "refocused"
	case CheckWaiting:
		return "waiting"
	case CheckDue:
		return "due"
	case CheckInFlight:
		return "in_flight"
	case CheckReminded:
		return "reminded"
	case CheckDeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// Reminder is a notification a check decided to send. Since is the
// out-of-focus baseline it was computed from.
type Reminder struct {
	Title     string
	Message   string
	Since     time.Time
	Elapsed   time.Duration
	Threshold int
}

type ReminderConfig struct {
	CheckInterval time.Duration
	FlushInterval time.Duration
	Tolerance     time.Duration
}

func (c ReminderConfig) withDefaults() ReminderConfig {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 2 * time.Second
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = time.Minute
	}
	if c.Tolerance <= 0 {
		c.Tolerance = domain.DefaultTolerance
	}
	return c
}

// ReminderScheduler owns the two named timers and the out-of-focus firing rule.
type ReminderScheduler struct {
	sched   schedule.Scheduler
	tracker *SessionTracker
	tabs    focusout.TabProvider
	windows focusout.WindowFocusProvider
	sink    focusout.NotificationSink
	cfg     ReminderConfig
	logger  *zap.Logger

	inFlight bool
}

func NewReminderScheduler(
	sched schedule.Scheduler,
	tracker *SessionTracker,
	tabs focusout.TabProvider,
	windows focusout.WindowFocusProvider,
	sink focusout.NotificationSink,
	cfg ReminderConfig,
	logger *zap.Logger,
) *ReminderScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{
		sched:   sched,
		tracker: tracker,
		tabs:    tabs,
		windows: windows,
		sink:    sink,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Arm (re)starts the check timer, replacing any live instance.
func (r *ReminderScheduler) Arm(tick func()) {
	r.sched.Every(CheckTimer, r.cfg.CheckInterval, tick)
}

func (r *ReminderScheduler) Cancel() {
	r.sched.Cancel(CheckTimer)
}

func (r *ReminderScheduler) Armed() bool {
	return r.sched.Active(CheckTimer)
}

func (r *ReminderScheduler) StartFlush(tick func()) {
	r.sched.Every(FlushTimer, r.cfg.FlushInterval, tick)
}

func (r *ReminderScheduler) StopAll() {
	r.sched.Stop()
}

// Check runs one out-of-focus check. Ticks that arrive outside the OutOfFocus
// phase cancel the timer. No reminder fires while the browser is in the
// background. CheckDue hands back a Reminder; the caller delivers it without
// holding its lock and then calls Complete. Checks while a reminder is in
// flight report CheckInFlight.
func (r *ReminderScheduler) Check(ctx context.Context) (CheckResult, Transition, Reminder) {
	phase := r.tracker.Phase()
	tr := Transition{From: phase, To: phase}
	if phase != domain.PhaseOutOfFocus {
		r.Cancel()
		return CheckStale, tr, Reminder{}
	}
	if r.inFlight {
		return CheckInFlight, tr, Reminder{}
	}

	foreground, err := r.windows.IsForegroundActive(ctx)
	if err != nil {
		r.logger.Warn("foreground lookup failed", zap.Error(err))
		return CheckLookupFailed, tr, Reminder{}
	}
	if !foreground {
		return CheckBackground, tr, Reminder{}
	}

	tab, err := r.tabs.QueryActiveTab(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrTabNotFound) {
			return CheckNoActiveTab, tr, Reminder{}
		}
		r.logger.Warn("active tab lookup failed", zap.Error(err))
		return CheckLookupFailed, tr, Reminder{}
	}

	if domain.Matches(tab, r.tracker.FocusSet()) {
		tr = r.tracker.Evaluate(tab)
		r.Cancel()
		return CheckRefocused, tr, Reminder{}
	}

	elapsed, ok := r.tracker.OutOfFocusElapsed()
	state := r.tracker.State()
	threshold := state.AlertThresholdSeconds
	if !ok || !domain.ShouldRemind(elapsed, threshold, r.cfg.Tolerance) {
		return CheckWaiting, tr, Reminder{}
	}

	r.inFlight = true
	return CheckDue, tr, Reminder{
		Title:     domain.ReminderTitle,
		Message:   domain.ReminderMessage(threshold),
		Since:     *state.OutOfFocusStartTime,
		Elapsed:   elapsed,
		Threshold: threshold,
	}
}

// Deliver sends rem through the notification sink. It touches no tracker
// state.
func (r *ReminderScheduler) Deliver(ctx context.Context, rem Reminder) error {
	return r.sink.Show(ctx, rem.Title, rem.Message)
}

// Complete applies the outcome of Deliver. A failed delivery keeps the
// baseline so the next tick in the tolerance window retries. A successful one
// restarts the baseline only if the tracker is still out of focus since
// rem.Since.
func (r *ReminderScheduler) Complete(rem Reminder, deliveryErr error) CheckResult {
	r.inFlight = false
	if deliveryErr != nil {
		r.logger.Warn("reminder delivery failed", zap.Error(deliveryErr), zap.Duration("elapsed", rem.Elapsed))
		return CheckDeliveryFailed
	}
	state := r.tracker.State()
	if state.Phase() == domain.PhaseOutOfFocus && state.OutOfFocusStartTime.Equal(rem.Since) {
		r.tracker.RestartOutOfFocus()
	} else {
		r.logger.Debug("state moved during reminder delivery, baseline kept")
	}
	r.logger.Info("reminder sent", zap.Duration("elapsed", rem.Elapsed), zap.Int("threshold_seconds", rem.Threshold))
	return CheckReminded
}
