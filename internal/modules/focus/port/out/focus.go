package out

import (
	"context"

	"tabfocus/internal/modules/focus/domain"
)

// TabProvider answers questions about open browser tabs. Lookups of unknown or
// closed tabs fail with apperrors.ErrTabNotFound.
type TabProvider interface {
	GetTab(ctx context.Context, id int) (domain.TabSnapshot, error)
	QueryActiveTab(ctx context.Context) (domain.TabSnapshot, error)
	QueryAllTabs(ctx context.Context) ([]domain.TabSnapshot, error)
}

// TabRecorder receives the browser state reported by the extension bridge.
type TabRecorder interface {
	UpsertTab(ctx context.Context, tab domain.TabSnapshot) error
	RemoveTab(ctx context.Context, id int) error
	SetActiveTab(ctx context.Context, windowID, tabID int) error
	SetForeground(ctx context.Context, focused bool, windowID int) error
}

// WindowFocusProvider reports whether the browser itself is the foreground application.
type WindowFocusProvider interface {
	IsForegroundActive(ctx context.Context) (bool, error)
}

type NotificationSink interface {
	Show(ctx context.Context, title, message string) error
}

// SettingsStore persists the user settings and reports external edits.
type SettingsStore interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
	// Watch calls onChange with the re-read settings after every external
	// change until ctx is done. It returns once watching has started.
	Watch(ctx context.Context, onChange func(domain.Settings)) error
}

// TrackingStore persists the full tracking record map.
type TrackingStore interface {
	Load(ctx context.Context) (map[string]domain.TrackingRecord, error)
	Save(ctx context.Context, records map[string]domain.TrackingRecord) error
}

// ReportWriter renders statistics into a note under vaultPath and returns its path.
type ReportWriter interface {
	Write(ctx context.Context, vaultPath string, stats domain.Stats) (string, error)
}

// DaemonStore tracks the running daemon process and its control socket.
type DaemonStore interface {
	WritePID(ctx context.Context, pid int) error
	ReadPID(ctx context.Context) (int, error)
	ClearPID(ctx context.Context) error
	SocketPath() string
}
