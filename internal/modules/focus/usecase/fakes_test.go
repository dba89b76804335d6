package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tabfocus/internal/modules/focus/domain"
	apperrors "tabfocus/internal/platform/errors"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(offset time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = epoch.Add(offset)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDs struct{ n int }

func (g *seqIDs) New() string {
	g.n++
	return fmt.Sprintf("session-%d", g.n)
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers map[string]func()
}

func (s *fakeScheduler) Every(name string, _ time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[name] = fn
}

func (s *fakeScheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, name)
}

func (s *fakeScheduler) Active(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

func (s *fakeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = map[string]func(){}
}

func (s *fakeScheduler) callback(name string) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[name]
}

// fire runs the live timer name once and reports whether one was armed.
func (s *fakeScheduler) fire(name string) bool {
	fn := s.callback(name)
	if fn == nil {
		return false
	}
	fn()
	return true
}

type fakeBrowser struct {
	tabs       map[int]domain.TabSnapshot
	active     int
	foreground bool
}

func newFakeBrowser(tabs ...domain.TabSnapshot) *fakeBrowser {
	b := &fakeBrowser{tabs: map[int]domain.TabSnapshot{}, active: -1, foreground: true}
	for _, t := range tabs {
		b.tabs[t.ID] = t
	}
	return b
}

func (b *fakeBrowser) GetTab(_ context.Context, id int) (domain.TabSnapshot, error) {
	tab, ok := b.tabs[id]
	if !ok {
		return domain.TabSnapshot{}, apperrors.ErrTabNotFound
	}
	return tab, nil
}

func (b *fakeBrowser) QueryActiveTab(ctx context.Context) (domain.TabSnapshot, error) {
	return b.GetTab(ctx, b.active)
}

func (b *fakeBrowser) QueryAllTabs(context.Context) ([]domain.TabSnapshot, error) {
	out := make([]domain.TabSnapshot, 0, len(b.tabs))
	for _, t := range b.tabs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *fakeBrowser) UpsertTab(_ context.Context, tab domain.TabSnapshot) error {
	b.tabs[tab.ID] = tab
	return nil
}

func (b *fakeBrowser) RemoveTab(_ context.Context, id int) error {
	delete(b.tabs, id)
	return nil
}

func (b *fakeBrowser) SetActiveTab(_ context.Context, _, tabID int) error {
	b.active = tabID
	return nil
}

func (b *fakeBrowser) SetForeground(_ context.Context, focused bool, _ int) error {
	b.foreground = focused
	return nil
}

func (b *fakeBrowser) IsForegroundActive(context.Context) (bool, error) {
	return b.foreground, nil
}

type fakeSink struct {
	mu       sync.Mutex
	titles   []string
	messages []string
	err      error

	// When gate is set, Show signals entered and waits for gate to close.
	entered chan struct{}
	gate    chan struct{}
}

// hold makes the next Show calls block until release.
func (s *fakeSink) hold() {
	s.entered = make(chan struct{}, 1)
	s.gate = make(chan struct{})
}

func (s *fakeSink) release() { close(s.gate) }

func (s *fakeSink) Show(_ context.Context, title, message string) error {
	if s.gate != nil {
		s.entered <- struct{}{}
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return nil
}

func (s *fakeSink) count(title string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.titles {
		if t == title {
			n++
		}
	}
	return n
}

type fakeSettings struct {
	current  domain.Settings
	saves    int
	onChange func(domain.Settings)
}

func (s *fakeSettings) Load(context.Context) (domain.Settings, error) { return s.current, nil }

func (s *fakeSettings) Save(_ context.Context, settings domain.Settings) error {
	s.current = settings
	s.saves++
	return nil
}

func (s *fakeSettings) Watch(_ context.Context, onChange func(domain.Settings)) error {
	s.onChange = onChange
	return nil
}

type fakeTracking struct {
	initial map[string]domain.TrackingRecord
	last    map[string]domain.TrackingRecord
	saves   int
}

func (s *fakeTracking) Load(context.Context) (map[string]domain.TrackingRecord, error) {
	if s.initial == nil {
		return map[string]domain.TrackingRecord{}, nil
	}
	return s.initial, nil
}

func (s *fakeTracking) Save(_ context.Context, records map[string]domain.TrackingRecord) error {
	s.last = records
	s.saves++
	return nil
}

type fakeReports struct {
	vault string
	stats domain.Stats
}

func (r *fakeReports) Write(_ context.Context, vaultPath string, stats domain.Stats) (string, error) {
	r.vault = vaultPath
	r.stats = stats
	return vaultPath + "/focus-stats.md", nil
}
