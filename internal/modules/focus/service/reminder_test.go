package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabfocus/internal/modules/focus/domain"
	"tabfocus/internal/modules/focus/service"
)

type reminderFixture struct {
	clk     *fakeClock
	sched   *fakeScheduler
	browser *fakeBrowser
	sink    *fakeSink
	tracker *service.SessionTracker
	acc     *service.TimeAccumulator
	rs      *service.ReminderScheduler
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	f := &reminderFixture{
		clk:     newFakeClock(),
		sched:   newFakeScheduler(),
		browser: &fakeBrowser{foreground: true},
		sink:    &fakeSink{},
	}
	f.tracker, f.acc = newTracker(f.clk)
	f.rs = service.NewReminderScheduler(f.sched, f.tracker, f.browser, f.browser, f.sink, service.ReminderConfig{}, nil)

	tab := videoTab
	f.browser.active = &tab
	f.tracker.SetFocusModeEnabled(true)
	require.Equal(t, domain.PhaseOutOfFocus, f.tracker.Evaluate(tab).To)
	f.rs.Arm(func() {})
	return f
}

func (f *reminderFixture) checkAt(t *testing.T, at time.Duration) service.CheckResult {
	t.Helper()
	f.clk.now = newFakeClock().now.Add(at)
	return f.check()
}

// check runs one tick the way the router does: decide, deliver, complete.
func (f *reminderFixture) check() service.CheckResult {
	ctx := context.Background()
	res, _, rem := f.rs.Check(ctx)
	if res != service.CheckDue {
		return res
	}
	return f.rs.Complete(rem, f.rs.Deliver(ctx, rem))
}

func TestReminderFiresOncePerThreshold(t *testing.T) {
	f := newReminderFixture(t)

	assert.Equal(t, service.CheckWaiting, f.checkAt(t, secs(29)))
	assert.Equal(t, service.CheckReminded, f.checkAt(t, secs(30.5)))
	assert.Equal(t, service.CheckWaiting, f.checkAt(t, secs(31)))
	assert.Equal(t, service.CheckWaiting, f.checkAt(t, secs(32)))
	assert.Equal(t, service.CheckReminded, f.checkAt(t, secs(60.5)))

	require.Len(t, f.sink.shown, 2)
	assert.Equal(t, domain.ReminderTitle, f.sink.shown[0].title)
	assert.Equal(t, domain.ReminderMessage(30), f.sink.shown[0].message)
	assert.True(t, f.rs.Armed())
}

func TestReminderFailureKeepsBaseline(t *testing.T) {
	f := newReminderFixture(t)
	f.sink.err = errors.New("notification daemon unavailable")

	assert.Equal(t, service.CheckDeliveryFailed, f.checkAt(t, secs(30.2)))

	f.sink.err = nil
	assert.Equal(t, service.CheckReminded, f.checkAt(t, secs(31.2)))
	require.Len(t, f.sink.shown, 1)
}

func TestReminderSuppressedInBackground(t *testing.T) {
	f := newReminderFixture(t)
	f.browser.foreground = false

	assert.Equal(t, service.CheckBackground, f.checkAt(t, secs(30.5)))
	assert.Empty(t, f.sink.shown)
	assert.True(t, f.rs.Armed())
}

func TestCheckRefocusesWhenActiveTabMatches(t *testing.T) {
	f := newReminderFixture(t)
	tab := docsTab
	f.browser.active = &tab

	f.clk.Advance(4 * time.Second)
	res, tr, _ := f.rs.Check(context.Background())
	assert.Equal(t, service.CheckRefocused, res)
	assert.Equal(t, domain.PhaseInFocusSession, tr.To)
	assert.False(t, f.rs.Armed())
	assert.Contains(t, f.acc.Snapshot(), "docs.example.com")
}

func TestCheckNoActiveTabIsNoop(t *testing.T) {
	f := newReminderFixture(t)
	f.browser.active = nil

	assert.Equal(t, service.CheckNoActiveTab, f.checkAt(t, secs(30.5)))
	assert.Equal(t, domain.PhaseOutOfFocus, f.tracker.Phase())

	f.browser.err = errors.New("bridge gone")
	assert.Equal(t, service.CheckLookupFailed, f.checkAt(t, secs(31)))
}

func TestStaleCheckCancelsTimer(t *testing.T) {
	f := newReminderFixture(t)
	f.tracker.SetFocusModeEnabled(false)

	assert.Equal(t, service.CheckStale, f.checkAt(t, secs(30.5)))
	assert.False(t, f.rs.Armed())
	assert.Empty(t, f.sink.shown)
}

func TestNonPositiveThresholdNeverFires(t *testing.T) {
	f := newReminderFixture(t)
	f.tracker.SetAlertThreshold(0)

	assert.Equal(t, service.CheckWaiting, f.checkAt(t, secs(30.5)))
	assert.Empty(t, f.sink.shown)
}

func TestFlushTimerLifetime(t *testing.T) {
	f := newReminderFixture(t)
	f.rs.StartFlush(func() {})
	assert.True(t, f.sched.Active(service.FlushTimer))

	f.rs.StopAll()
	assert.False(t, f.sched.Active(service.FlushTimer))
	assert.False(t, f.rs.Armed())
}

func TestCheckWhileReminderInFlight(t *testing.T) {
	f := newReminderFixture(t)
	f.clk.now = newFakeClock().now.Add(secs(30.5))

	res, _, rem := f.rs.Check(context.Background())
	require.Equal(t, service.CheckDue, res)
	assert.Equal(t, domain.ReminderMessage(30), rem.Message)
	assert.Equal(t, secs(30.5), rem.Elapsed)

	again, _, _ := f.rs.Check(context.Background())
	assert.Equal(t, service.CheckInFlight, again)

	assert.Equal(t, service.CheckReminded, f.rs.Complete(rem, f.rs.Deliver(context.Background(), rem)))
	require.Len(t, f.sink.shown, 1)
	elapsed, ok := f.tracker.OutOfFocusElapsed()
	require.True(t, ok)
	assert.Zero(t, elapsed)
}

func TestCompleteKeepsBaselineWhenStateMoved(t *testing.T) {
	f := newReminderFixture(t)
	f.clk.now = newFakeClock().now.Add(secs(30.5))

	res, _, rem := f.rs.Check(context.Background())
	require.Equal(t, service.CheckDue, res)

	// The user returns to a focus tab and leaves again before delivery finishes.
	f.clk.Advance(secs(1))
	require.Equal(t, domain.PhaseInFocusSession, f.tracker.Evaluate(docsTab).To)
	f.clk.Advance(secs(1))
	require.Equal(t, domain.PhaseOutOfFocus, f.tracker.Evaluate(videoTab).To)
	since := *f.tracker.State().OutOfFocusStartTime

	f.clk.Advance(secs(3))
	assert.Equal(t, service.CheckReminded, f.rs.Complete(rem, nil))
	assert.Equal(t, since, *f.tracker.State().OutOfFocusStartTime)
}

func TestCompleteAfterFailureAllowsRetry(t *testing.T) {
	f := newReminderFixture(t)
	f.clk.now = newFakeClock().now.Add(secs(30.5))

	_, _, rem := f.rs.Check(context.Background())
	assert.Equal(t, service.CheckDeliveryFailed, f.rs.Complete(rem, errors.New("bus closed")))

	f.clk.Advance(secs(1))
	res, _, _ := f.rs.Check(context.Background())
	assert.Equal(t, service.CheckDue, res)
}
