package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tabfocus/internal/modules/focus/domain"
	apperrors "tabfocus/internal/platform/errors"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type seqIDs struct{ n int }

func (g *seqIDs) New() string {
	g.n++
	return fmt.Sprintf("session-%d", g.n)
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers map[string]func()
	arms   map[string]int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{timers: map[string]func(){}, arms: map[string]int{}}
}

func (s *fakeScheduler) Every(name string, _ time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[name] = fn
	s.arms[name]++
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

type fakeBrowser struct {
	active     *domain.TabSnapshot
	foreground bool
	err        error
}

func (b *fakeBrowser) GetTab(_ context.Context, id int) (domain.TabSnapshot, error) {
	if b.active != nil && b.active.ID == id {
		return *b.active, nil
	}
	return domain.TabSnapshot{}, apperrors.ErrTabNotFound
}

func (b *fakeBrowser) QueryActiveTab(context.Context) (domain.TabSnapshot, error) {
	if b.err != nil {
		return domain.TabSnapshot{}, b.err
	}
	if b.active == nil {
		return domain.TabSnapshot{}, apperrors.ErrTabNotFound
	}
	return *b.active, nil
}

func (b *fakeBrowser) QueryAllTabs(context.Context) ([]domain.TabSnapshot, error) {
	if b.active == nil {
		return nil, nil
	}
	return []domain.TabSnapshot{*b.active}, nil
}

func (b *fakeBrowser) IsForegroundActive(context.Context) (bool, error) {
	return b.foreground, nil
}

type notification struct {
	title   string
	message string
}

type fakeSink struct {
	shown []notification
	err   error
}

func (s *fakeSink) Show(_ context.Context, title, message string) error {
	if s.err != nil {
		return s.err
	}
	s.shown = append(s.shown, notification{title: title, message: message})
	return nil
}

func intPtr(v int) *int { return &v }

func secs(f float64) time.Duration { return time.Duration(f * float64(time.Second)) }
