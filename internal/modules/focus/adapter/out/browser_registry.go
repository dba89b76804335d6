package out

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tabfocus/internal/modules/focus/domain"
	apperrors "tabfocus/internal/platform/errors"
)

const noWindow = -1

// BrowserRegistry is the daemon's view of the browser, fed by the extension
// bridge. It serves as tab provider, tab recorder and window-focus provider.
type BrowserRegistry struct {
	mu         sync.RWMutex
	tabs       map[int]domain.TabSnapshot
	active     map[int]int
	lastWindow int
	foreground bool
}

func NewBrowserRegistry() *BrowserRegistry {
	return &BrowserRegistry{
		tabs:       map[int]domain.TabSnapshot{},
		active:     map[int]int{},
		lastWindow: noWindow,
		foreground: true,
	}
}

func (r *BrowserRegistry) GetTab(_ context.Context, id int) (domain.TabSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tab, ok := r.tabs[id]
	if !ok {
		return domain.TabSnapshot{}, fmt.Errorf("%w: %d", apperrors.ErrTabNotFound, id)
	}
	return tab, nil
}

// QueryActiveTab returns the active tab of the most recently focused window.
func (r *BrowserRegistry) QueryActiveTab(_ context.Context) (domain.TabSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastWindow == noWindow {
		return domain.TabSnapshot{}, apperrors.ErrTabNotFound
	}
	id, ok := r.active[r.lastWindow]
	if !ok {
		return domain.TabSnapshot{}, apperrors.ErrTabNotFound
	}
	tab, ok := r.tabs[id]
	if !ok {
		return domain.TabSnapshot{}, fmt.Errorf("%w: %d", apperrors.ErrTabNotFound, id)
	}
	return tab, nil
}

// QueryAllTabs returns every known tab ordered by window then tab id.
func (r *BrowserRegistry) QueryAllTabs(_ context.Context) ([]domain.TabSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.TabSnapshot, 0, len(r.tabs))
	for _, tab := range r.tabs {
		out = append(out, tab)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WindowID == out[j].WindowID {
			return out[i].ID < out[j].ID
		}
		return out[i].WindowID < out[j].WindowID
	})
	return out, nil
}

func (r *BrowserRegistry) UpsertTab(_ context.Context, tab domain.TabSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.tabs[tab.ID]; ok && prev.WindowID != tab.WindowID {
		if r.active[prev.WindowID] == tab.ID {
			delete(r.active, prev.WindowID)
		}
	}
	r.tabs[tab.ID] = tab
	return nil
}

func (r *BrowserRegistry) RemoveTab(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tab, ok := r.tabs[id]
	if !ok {
		return fmt.Errorf("%w: %d", apperrors.ErrTabNotFound, id)
	}
	delete(r.tabs, id)
	if r.active[tab.WindowID] == id {
		delete(r.active, tab.WindowID)
	}
	return nil
}

// SetActiveTab records tabID as active in windowID, which becomes the current window.
func (r *BrowserRegistry) SetActiveTab(_ context.Context, windowID, tabID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[windowID] = tabID
	r.lastWindow = windowID
	return nil
}

// SetForeground records whether any browser window has OS focus. A focused
// windowID >= 0 also becomes the current window.
func (r *BrowserRegistry) SetForeground(_ context.Context, focused bool, windowID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.foreground = focused
	if focused && windowID >= 0 {
		r.lastWindow = windowID
	}
	return nil
}

func (r *BrowserRegistry) IsForegroundActive(_ context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.foreground, nil
}
