package in

import (
	"context"

	"tabfocus/internal/modules/focus/dto"
)

// Control is the surface used by the CLI, the TUI and the control socket.
type Control interface {
	Status(ctx context.Context) (dto.StatusOutput, error)
	Stats(ctx context.Context) (dto.StatsOutput, error)
	ResetStats(ctx context.Context) error
	SetFocusMode(ctx context.Context, enabled bool) error
	SetAlertTime(ctx context.Context, seconds int) error
	ListTabs(ctx context.Context) ([]dto.WindowOutput, error)
	FocusTargets(ctx context.Context) ([]dto.FocusTargetOutput, error)
	SelectTabs(ctx context.Context, tabIDs []int) ([]dto.FocusTargetOutput, error)
	ExportStats(ctx context.Context, vaultPath string) (dto.ExportOutput, error)
}

// BrowserEvents is fed by the browser extension bridge.
type BrowserEvents interface {
	TabUpserted(ctx context.Context, tab dto.TabInput) error
	TabActivated(ctx context.Context, tabID, windowID int) error
	TabClosed(ctx context.Context, tabID int) error
	ForegroundChanged(ctx context.Context, focused bool, windowID int) error
}

// API is everything reachable over the local HTTP bridge.
type API interface {
	Control
	BrowserEvents
}

type Usecase interface {
	API
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	CheckOutOfFocus(ctx context.Context)
	FlushTracking(ctx context.Context)
}
