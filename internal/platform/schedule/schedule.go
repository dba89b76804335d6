// Package schedule provides named repeating timers with cancel-by-name semantics.
package schedule

import (
	"sync"
	"time"
)

// Scheduler runs named repeating callbacks. At most one timer per name is live.
type Scheduler interface {
	// Every arms name to call fn each interval. A live timer with the same name is cancelled first.
	Every(name string, interval time.Duration, fn func())
	// Cancel stops name. Cancelling an unknown name is a no-op.
	Cancel(name string)
	Active(name string) bool
	// Stop cancels every timer; later Every calls are ignored.
	Stop()
}

type entry struct {
	stop chan struct{}
	gen  uint64
}

// TickerScheduler backs each named timer with a time.Ticker goroutine.
// Cancel never waits for a running callback, so callbacks may cancel or rearm timers.
type TickerScheduler struct {
	mu      sync.Mutex
	timers  map[string]*entry
	gen     uint64
	stopped bool
}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{timers: map[string]*entry{}}
}

func (s *TickerScheduler) Every(name string, interval time.Duration, fn func()) {
	if interval <= 0 || fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelLocked(name)
	s.gen++
	e := &entry{stop: make(chan struct{}), gen: s.gen}
	s.timers[name] = e
	go s.run(name, e, interval, fn)
}

func (s *TickerScheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)
}

func (s *TickerScheduler) Active(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.timers {
		s.cancelLocked(name)
	}
	s.stopped = true
}

func (s *TickerScheduler) cancelLocked(name string) {
	e, ok := s.timers[name]
	if !ok {
		return
	}
	close(e.stop)
	delete(s.timers, name)
}

// current reports whether e is still the live instance of name. A tick that
// raced with Cancel is dropped here.
func (s *TickerScheduler) current(name string, e *entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.timers[name]
	return ok && live.gen == e.gen
}

func (s *TickerScheduler) run(name string, e *entry, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			if !s.current(name, e) {
				return
			}
			fn()
		}
	}
}
