package in_test

import (
	"context"
	"fmt"
	"sync"

	"tabfocus/internal/modules/focus/dto"
	apperrors "tabfocus/internal/platform/errors"
)

type fakeAPI struct {
	mu        sync.Mutex
	upserted  []dto.TabInput
	activated [][2]int
	closed    []int
	focused   []bool
	enabled   *bool
	alert     int
	selected  []int
	vault     string
	resets    int
}

func (f *fakeAPI) Status(context.Context) (dto.StatusOutput, error) {
	return dto.StatusOutput{FocusModeEnabled: true, Phase: "in_focus", AlertTime: 30, FocusKey: "docs.example.com"}, nil
}

func (f *fakeAPI) Stats(context.Context) (dto.StatsOutput, error) {
	return dto.StatsOutput{
		Rows:         []dto.StatRow{{Key: "docs.example.com", Name: "Docs", TotalSeconds: 75, Total: "1m 15s"}},
		TotalSeconds: 75,
		Total:        "1m 15s",
	}, nil
}

func (f *fakeAPI) ResetStats(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeAPI) SetFocusMode(_ context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = &enabled
	return nil
}

func (f *fakeAPI) SetAlertTime(_ context.Context, seconds int) error {
	if seconds < 5 {
		return fmt.Errorf("%w: alert time must be at least 5 seconds", apperrors.ErrInvalidAlertTime)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alert = seconds
	return nil
}

func (f *fakeAPI) ListTabs(context.Context) ([]dto.WindowOutput, error) {
	return []dto.WindowOutput{{WindowID: 1, Tabs: []dto.TabOutput{{ID: 4, WindowID: 1, URL: "https://docs.example.com", InFocusList: true}}}}, nil
}

func (f *fakeAPI) FocusTargets(context.Context) ([]dto.FocusTargetOutput, error) {
	return []dto.FocusTargetOutput{{URL: "https://docs.example.com", Title: "Docs"}}, nil
}

func (f *fakeAPI) SelectTabs(_ context.Context, ids []int) ([]dto.FocusTargetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []dto.FocusTargetOutput{}
	for _, id := range ids {
		if id == 404 {
			return nil, fmt.Errorf("select tab %d: %w", id, apperrors.ErrTabNotFound)
		}
		v := id
		out = append(out, dto.FocusTargetOutput{ID: &v})
	}
	f.selected = ids
	return out, nil
}

func (f *fakeAPI) ExportStats(_ context.Context, vault string) (dto.ExportOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vault = vault
	return dto.ExportOutput{Path: vault + "/focus/focus-stats.md", Records: 1}, nil
}

func (f *fakeAPI) TabUpserted(_ context.Context, tab dto.TabInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, tab)
	return nil
}

func (f *fakeAPI) TabActivated(_ context.Context, tabID, windowID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = append(f.activated, [2]int{tabID, windowID})
	return nil
}

func (f *fakeAPI) TabClosed(_ context.Context, tabID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, tabID)
	return nil
}

func (f *fakeAPI) ForegroundChanged(_ context.Context, focused bool, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focused = append(f.focused, focused)
	return nil
}

func (f *fakeAPI) enabledValue() *bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeAPI) alertValue() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alert
}

func (f *fakeAPI) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}
