package in

import (
	"context"

	"tabfocus/internal/modules/focus/dto"
	focusin "tabfocus/internal/modules/focus/port/in"
)

// CLIHandler is the entry point used by the command line and the TUI. It talks
// to whatever Control it is given, normally the daemon's control socket.
type CLIHandler struct {
	control focusin.Control
}

func NewCLIHandler(control focusin.Control) CLIHandler {
	return CLIHandler{control: control}
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.control.Status(ctx)
}

func (h CLIHandler) Stats(ctx context.Context) (dto.StatsOutput, error) {
	return h.control.Stats(ctx)
}

func (h CLIHandler) ResetStats(ctx context.Context) error {
	return h.control.ResetStats(ctx)
}

func (h CLIHandler) SetFocusMode(ctx context.Context, enabled bool) error {
	return h.control.SetFocusMode(ctx, enabled)
}

// ToggleFocusMode flips focus mode and returns the new value.
func (h CLIHandler) ToggleFocusMode(ctx context.Context) (bool, error) {
	status, err := h.control.Status(ctx)
	if err != nil {
		return false, err
	}
	next := !status.FocusModeEnabled
	if err := h.control.SetFocusMode(ctx, next); err != nil {
		return status.FocusModeEnabled, err
	}
	return next, nil
}

func (h CLIHandler) SetAlertTime(ctx context.Context, seconds int) error {
	return h.control.SetAlertTime(ctx, seconds)
}

func (h CLIHandler) ListTabs(ctx context.Context) ([]dto.WindowOutput, error) {
	return h.control.ListTabs(ctx)
}

func (h CLIHandler) FocusTargets(ctx context.Context) ([]dto.FocusTargetOutput, error) {
	return h.control.FocusTargets(ctx)
}

func (h CLIHandler) SelectTabs(ctx context.Context, tabIDs []int) ([]dto.FocusTargetOutput, error) {
	return h.control.SelectTabs(ctx, tabIDs)
}

func (h CLIHandler) ExportStats(ctx context.Context, vaultPath string) (dto.ExportOutput, error) {
	return h.control.ExportStats(ctx, vaultPath)
}
