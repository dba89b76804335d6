package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tabfocus/internal/modules/focus/domain"
	"tabfocus/internal/modules/focus/dto"
	focusin "tabfocus/internal/modules/focus/port/in"
	focusout "tabfocus/internal/modules/focus/port/out"
	"tabfocus/internal/modules/focus/service"
	"tabfocus/internal/platform/clock"
	apperrors "tabfocus/internal/platform/errors"
	"tabfocus/internal/platform/id"
	"tabfocus/internal/platform/metrics"
	"tabfocus/internal/platform/schedule"
)

// Deps are the collaborators of the focus router. Reports may be nil, in which
// case ExportStats fails.
type Deps struct {
	Clock     clock.Clock
	IDs       id.Generator
	Scheduler schedule.Scheduler
	Tabs      focusout.TabProvider
	Recorder  focusout.TabRecorder
	Windows   focusout.WindowFocusProvider
	Notifier  focusout.NotificationSink
	Settings  focusout.SettingsStore
	Tracking  focusout.TrackingStore
	Reports   focusout.ReportWriter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Timers    service.ReminderConfig
	Welcome   bool
}

// Interactor routes browser events, timer ticks and control requests into the
// tracker. One mutex serializes all of them.
type Interactor struct {
	mu sync.Mutex

	deps      Deps
	logger    *zap.Logger
	metrics   *metrics.Metrics
	acc       *service.TimeAccumulator
	tracker   *service.SessionTracker
	reminders *service.ReminderScheduler
	settings  domain.Settings

	runCtx context.Context
}

func NewInteractor(deps Deps) focusin.Usecase {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = id.UUID{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = schedule.NewTickerScheduler()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	acc := service.NewTimeAccumulator(deps.Clock)
	tracker := service.NewSessionTracker(deps.Clock, deps.IDs, acc, logger.Named("tracker"))
	reminders := service.NewReminderScheduler(
		deps.Scheduler, tracker, deps.Tabs, deps.Windows, deps.Notifier, deps.Timers, logger.Named("reminder"))
	return &Interactor{
		deps:      deps,
		logger:    logger,
		metrics:   m,
		acc:       acc,
		tracker:   tracker,
		reminders: reminders,
		settings:  domain.DefaultSettings(),
		runCtx:    context.Background(),
	}
}

// ─── Lifecycle ──────────────────────────────────────────────

// Start loads persisted settings and tracking data, starts the flush timer and
// begins watching the settings store. Timer callbacks run with ctx.
func (i *Interactor) Start(ctx context.Context) error {
	i.mu.Lock()
	i.runCtx = ctx

	settings, err := i.deps.Settings.Load(ctx)
	if err != nil {
		i.mu.Unlock()
		return fmt.Errorf("load settings: %w", err)
	}
	records, err := i.deps.Tracking.Load(ctx)
	if err != nil {
		i.mu.Unlock()
		return fmt.Errorf("load tracking data: %w", err)
	}
	i.acc.Replace(records)
	i.metrics.TrackedDomains.Set(float64(i.acc.Len()))
	i.applySettingsLocked(ctx, settings)

	i.reminders.StartFlush(func() { i.FlushTracking(ctx) })
	i.mu.Unlock()

	if i.deps.Welcome {
		if err := i.deps.Notifier.Show(ctx, domain.WelcomeTitle, domain.WelcomeText); err != nil {
			i.logger.Warn("welcome notification failed", zap.Error(err))
		}
	}

	if err := i.deps.Settings.Watch(ctx, i.applyExternalSettings); err != nil {
		i.logger.Warn("settings watch unavailable", zap.Error(err))
	}
	i.logger.Info("focus tracker started",
		zap.Bool("focus_mode", settings.FocusModeEnabled),
		zap.Int("focus_targets", len(settings.FocusList)),
		zap.Int("tracked_domains", len(records)))
	return nil
}

// Shutdown stops both timers and persists a final flush.
func (i *Interactor) Shutdown(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.reminders.StopAll()
	key, seconds := i.tracker.Flush()
	if seconds > 0 {
		i.metrics.FocusSeconds.Add(float64(seconds))
		i.logger.Debug("final flush", zap.String("key", key), zap.Int64("seconds", seconds))
	}
	if err := i.deps.Tracking.Save(ctx, i.acc.Snapshot()); err != nil {
		i.metrics.StoreErrors.WithLabelValues("tracking").Inc()
		return fmt.Errorf("save tracking data: %w", err)
	}
	return nil
}

// CheckOutOfFocus is the check-cadence tick. A due reminder is delivered with
// the lock released. Its outcome is applied against the state current by then.
func (i *Interactor) CheckOutOfFocus(ctx context.Context) {
	i.mu.Lock()
	res, tr, rem := i.reminders.Check(ctx)
	i.recordCheckLocked(res)
	i.applyLocked(ctx, tr)
	i.mu.Unlock()
	if res != service.CheckDue {
		return
	}

	err := i.reminders.Deliver(ctx, rem)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.recordCheckLocked(i.reminders.Complete(rem, err))
}

func (i *Interactor) recordCheckLocked(res service.CheckResult) {
	switch res {
	case service.CheckReminded:
		i.metrics.Reminders.WithLabelValues("sent").Inc()
	case service.CheckDeliveryFailed:
		i.metrics.Reminders.WithLabelValues("failed").Inc()
	case service.CheckWaiting, service.CheckRefocused, service.CheckDue:
	default:
		i.metrics.ChecksSkipped.WithLabelValues(res.String()).Inc()
	}
}

// FlushTracking is the flush-cadence tick. It always persists.
func (i *Interactor) FlushTracking(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	phase := i.tracker.Phase()
	tr := service.Transition{From: phase, To: phase}
	tr.FlushedKey, tr.FlushedSeconds = i.tracker.Flush()
	if tr.FlushedSeconds > 0 {
		i.metrics.FocusSeconds.Add(float64(tr.FlushedSeconds))
	}
	i.saveTrackingLocked(ctx)
}

// ─── Browser events ─────────────────────────────────────────

func (i *Interactor) TabUpserted(ctx context.Context, input dto.TabInput) error {
	if input.ID < 0 {
		return fmt.Errorf("%w: tab id must be >= 0", apperrors.ErrInvalidInput)
	}
	tab := domain.TabSnapshot{ID: input.ID, URL: input.URL, Title: input.Title, WindowID: input.WindowID}

	i.mu.Lock()
	defer i.mu.Unlock()
	prev, err := i.deps.Tabs.GetTab(ctx, tab.ID)
	urlChanged := err != nil || prev.URL != tab.URL
	if err := i.deps.Recorder.UpsertTab(ctx, tab); err != nil {
		return fmt.Errorf("record tab: %w", err)
	}
	if !i.settings.FocusModeEnabled || !urlChanged || !i.tracker.IsCurrentTab(tab.ID) {
		return nil
	}
	i.evaluateLocked(ctx, tab)
	return nil
}

func (i *Interactor) TabActivated(ctx context.Context, tabID, windowID int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.deps.Recorder.SetActiveTab(ctx, windowID, tabID); err != nil {
		return fmt.Errorf("record active tab: %w", err)
	}
	if !i.settings.FocusModeEnabled {
		return nil
	}
	tab, err := i.deps.Tabs.GetTab(ctx, tabID)
	if err != nil {
		i.logger.Debug("activated tab lookup failed", zap.Int("tab_id", tabID), zap.Error(err))
		return nil
	}
	i.evaluateLocked(ctx, tab)
	return nil
}

func (i *Interactor) TabClosed(ctx context.Context, tabID int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.deps.Recorder.RemoveTab(ctx, tabID); err != nil && !errors.Is(err, apperrors.ErrTabNotFound) {
		return fmt.Errorf("remove tab: %w", err)
	}
	if !i.tracker.IsCurrentTab(tabID) {
		return nil
	}
	i.reminders.Cancel()
	i.applyLocked(ctx, i.tracker.ClearActiveTab())
	return nil
}

func (i *Interactor) ForegroundChanged(ctx context.Context, focused bool, windowID int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.deps.Recorder.SetForeground(ctx, focused, windowID); err != nil {
		return fmt.Errorf("record foreground: %w", err)
	}
	if !focused || !i.settings.FocusModeEnabled {
		return nil
	}
	tab, err := i.deps.Tabs.QueryActiveTab(ctx)
	if err != nil || i.tracker.IsCurrentTab(tab.ID) {
		return nil
	}
	i.evaluateLocked(ctx, tab)
	return nil
}

// ─── Control ────────────────────────────────────────────────

func (i *Interactor) Status(context.Context) (dto.StatusOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	state := i.tracker.State()
	return dto.StatusOutput{
		FocusModeEnabled: state.FocusModeEnabled,
		Phase:            state.Phase().String(),
		AlertTime:        state.AlertThresholdSeconds,
		CurrentTabID:     state.CurrentTabID,
		FocusKey:         state.FocusKey,
		FocusSessionID:   state.FocusSessionID,
		FocusSince:       state.CurrentFocusTabStartTime,
		OutOfFocusSince:  state.OutOfFocusStartTime,
		CheckTimerActive: i.reminders.Armed(),
		FocusTargets:     len(i.settings.FocusList),
	}, nil
}

// Stats credits the running focus interval before reading the totals.
func (i *Interactor) Stats(ctx context.Context) (dto.StatsOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.flushLocked(ctx)
	return toStatsOutput(domain.NewStats(i.acc.Snapshot())), nil
}

func (i *Interactor) ResetStats(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.acc.ResetAll()
	if err := i.deps.Tracking.Save(ctx, i.acc.Snapshot()); err != nil {
		i.metrics.StoreErrors.WithLabelValues("tracking").Inc()
		return fmt.Errorf("save tracking data: %w", err)
	}
	i.metrics.TrackedDomains.Set(0)
	i.logger.Info("time statistics reset")
	return nil
}

func (i *Interactor) SetFocusMode(ctx context.Context, enabled bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	next := i.settings
	next.FocusModeEnabled = enabled
	if err := i.saveSettingsLocked(ctx, next); err != nil {
		return err
	}
	i.setEnabledLocked(ctx, enabled)
	return nil
}

func (i *Interactor) SetAlertTime(ctx context.Context, seconds int) error {
	if err := domain.ValidateAlertTime(seconds); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	next := i.settings
	next.AlertTime = seconds
	if err := i.saveSettingsLocked(ctx, next); err != nil {
		return err
	}
	i.tracker.SetAlertThreshold(seconds)
	return nil
}

func (i *Interactor) ListTabs(ctx context.Context) ([]dto.WindowOutput, error) {
	tabs, err := i.deps.Tabs.QueryAllTabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("query tabs: %w", err)
	}
	i.mu.Lock()
	focus := i.tracker.FocusSet()
	i.mu.Unlock()

	groups := domain.GroupByWindow(tabs)
	out := make([]dto.WindowOutput, 0, len(groups))
	for _, g := range groups {
		window := dto.WindowOutput{WindowID: g.WindowID, Tabs: make([]dto.TabOutput, 0, len(g.Tabs))}
		for _, tab := range g.Tabs {
			window.Tabs = append(window.Tabs, dto.TabOutput{
				ID:          tab.ID,
				URL:         tab.URL,
				Title:       tab.Title,
				WindowID:    tab.WindowID,
				InFocusList: domain.Matches(tab, focus),
			})
		}
		out = append(out, window)
	}
	return out, nil
}

func (i *Interactor) FocusTargets(context.Context) ([]dto.FocusTargetOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return toTargetOutputs(i.settings.FocusList), nil
}

// SelectTabs replaces the focus list with the given open tabs and re-evaluates
// the active tab.
func (i *Interactor) SelectTabs(ctx context.Context, tabIDs []int) ([]dto.FocusTargetOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	set := make(domain.FocusSet, 0, len(tabIDs))
	seen := map[int]bool{}
	for _, tabID := range tabIDs {
		if seen[tabID] {
			continue
		}
		seen[tabID] = true
		tab, err := i.deps.Tabs.GetTab(ctx, tabID)
		if err != nil {
			return nil, fmt.Errorf("select tab %d: %w", tabID, err)
		}
		set = append(set, domain.TargetFromTab(tab))
	}
	next := i.settings
	next.FocusList = set
	if err := i.saveSettingsLocked(ctx, next); err != nil {
		return nil, err
	}
	i.tracker.SetFocusSet(set)
	i.evaluateActiveLocked(ctx)
	return toTargetOutputs(set), nil
}

func (i *Interactor) ExportStats(ctx context.Context, vaultPath string) (dto.ExportOutput, error) {
	if strings.TrimSpace(vaultPath) == "" {
		return dto.ExportOutput{}, fmt.Errorf("%w: vault path is required", apperrors.ErrInvalidInput)
	}
	if i.deps.Reports == nil {
		return dto.ExportOutput{}, fmt.Errorf("report writer is not configured")
	}
	i.mu.Lock()
	i.flushLocked(ctx)
	stats := domain.NewStats(i.acc.Snapshot())
	i.mu.Unlock()

	path, err := i.deps.Reports.Write(ctx, vaultPath, stats)
	if err != nil {
		return dto.ExportOutput{}, fmt.Errorf("write report: %w", err)
	}
	return dto.ExportOutput{Path: path, Records: len(stats.Records)}, nil
}

// ─── Internals ──────────────────────────────────────────────

func (i *Interactor) applyExternalSettings(settings domain.Settings) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.logger.Debug("settings changed externally")
	i.applySettingsLocked(i.runCtx, settings)
}

func (i *Interactor) applySettingsLocked(ctx context.Context, settings domain.Settings) {
	if settings.FocusList == nil {
		settings.FocusList = domain.FocusSet{}
	}
	if err := domain.ValidateAlertTime(settings.AlertTime); err != nil {
		clamped := domain.ClampAlertTime(settings.AlertTime)
		i.logger.Warn("stored alert time out of range, clamped",
			zap.Int("alert_time", settings.AlertTime), zap.Int("applied", clamped), zap.Error(err))
		settings.AlertTime = clamped
	}
	i.settings = settings
	i.tracker.SetFocusSet(settings.FocusList)
	i.tracker.SetAlertThreshold(settings.AlertTime)
	i.setEnabledLocked(ctx, settings.FocusModeEnabled)
}

func (i *Interactor) setEnabledLocked(ctx context.Context, enabled bool) {
	i.settings.FocusModeEnabled = enabled
	tr := i.tracker.SetFocusModeEnabled(enabled)
	if !enabled {
		i.reminders.Cancel()
	}
	i.applyLocked(ctx, tr)
	if enabled && tr.Changed() {
		i.evaluateActiveLocked(ctx)
	}
}

func (i *Interactor) evaluateActiveLocked(ctx context.Context) {
	if !i.settings.FocusModeEnabled {
		return
	}
	tab, err := i.deps.Tabs.QueryActiveTab(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrTabNotFound) {
			i.logger.Warn("active tab lookup failed", zap.Error(err))
		}
		return
	}
	i.evaluateLocked(ctx, tab)
}

func (i *Interactor) evaluateLocked(ctx context.Context, tab domain.TabSnapshot) {
	tr := i.tracker.Evaluate(tab)
	if tr.To == domain.PhaseOutOfFocus {
		i.reminders.Arm(func() { i.CheckOutOfFocus(i.tickContext()) })
	} else {
		i.reminders.Cancel()
	}
	i.applyLocked(ctx, tr)
}

func (i *Interactor) flushLocked(ctx context.Context) {
	phase := i.tracker.Phase()
	tr := service.Transition{From: phase, To: phase}
	tr.FlushedKey, tr.FlushedSeconds = i.tracker.Flush()
	i.applyLocked(ctx, tr)
}

// applyLocked records metrics for tr and persists accumulated time.
func (i *Interactor) applyLocked(ctx context.Context, tr service.Transition) {
	if tr.Changed() {
		i.metrics.Transitions.WithLabelValues(tr.To.String()).Inc()
	}
	if tr.FlushedSeconds > 0 {
		i.metrics.FocusSeconds.Add(float64(tr.FlushedSeconds))
	}
	if tr.Accumulated() {
		i.saveTrackingLocked(ctx)
	}
}

func (i *Interactor) saveTrackingLocked(ctx context.Context) {
	i.metrics.TrackedDomains.Set(float64(i.acc.Len()))
	if err := i.deps.Tracking.Save(ctx, i.acc.Snapshot()); err != nil {
		i.metrics.StoreErrors.WithLabelValues("tracking").Inc()
		i.logger.Error("save tracking data failed", zap.Error(err))
	}
}

func (i *Interactor) saveSettingsLocked(ctx context.Context, next domain.Settings) error {
	if err := i.deps.Settings.Save(ctx, next); err != nil {
		i.metrics.StoreErrors.WithLabelValues("settings").Inc()
		return fmt.Errorf("save settings: %w", err)
	}
	i.settings = next
	return nil
}

func (i *Interactor) tickContext() context.Context {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.runCtx
}

func toStatsOutput(stats domain.Stats) dto.StatsOutput {
	rows := make([]dto.StatRow, 0, len(stats.Records))
	for _, r := range stats.Records {
		rows = append(rows, dto.StatRow{
			Key:          r.Key,
			Name:         r.DisplayName(),
			Title:        r.Title,
			TotalSeconds: r.TotalSeconds,
			Total:        domain.FormatDuration(r.TotalSeconds),
			LastVisit:    r.LastVisit,
		})
	}
	return dto.StatsOutput{
		Rows:         rows,
		TotalSeconds: stats.TotalSeconds,
		Total:        domain.FormatDuration(stats.TotalSeconds),
	}
}

func toTargetOutputs(set domain.FocusSet) []dto.FocusTargetOutput {
	out := make([]dto.FocusTargetOutput, 0, len(set))
	for _, t := range set {
		out = append(out, dto.FocusTargetOutput{ID: t.ID, URL: t.URL, Title: t.Title})
	}
	return out
}
