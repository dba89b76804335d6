package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"syscall"
	"time"

	"tabfocus/internal/modules/focus/dto"
	focusin "tabfocus/internal/modules/focus/port/in"
	apperrors "tabfocus/internal/platform/errors"
)

// ControlClient implements the control surface by calling a running daemon
// over its unix socket.
type ControlClient struct {
	socketPath string
}

func NewControlClient(socketPath string) *ControlClient {
	return &ControlClient{socketPath: socketPath}
}

var _ focusin.Control = (*ControlClient)(nil)

func (c *ControlClient) Status(ctx context.Context) (dto.StatusOutput, error) {
	resp := dto.StatusOutput{}
	err := c.call(ctx, "Focus.Status", dto.Empty{}, &resp)
	return resp, err
}

func (c *ControlClient) Stats(ctx context.Context) (dto.StatsOutput, error) {
	resp := dto.StatsOutput{}
	err := c.call(ctx, "Focus.Stats", dto.Empty{}, &resp)
	return resp, err
}

func (c *ControlClient) ResetStats(ctx context.Context) error {
	return c.call(ctx, "Focus.ResetStats", dto.Empty{}, &dto.Empty{})
}

func (c *ControlClient) SetFocusMode(ctx context.Context, enabled bool) error {
	return c.call(ctx, "Focus.SetFocusMode", dto.FocusModeRequest{Enabled: enabled}, &dto.Empty{})
}

func (c *ControlClient) SetAlertTime(ctx context.Context, seconds int) error {
	return c.call(ctx, "Focus.SetAlertTime", dto.AlertTimeRequest{Seconds: seconds}, &dto.Empty{})
}

func (c *ControlClient) ListTabs(ctx context.Context) ([]dto.WindowOutput, error) {
	resp := []dto.WindowOutput{}
	if err := c.call(ctx, "Focus.ListTabs", dto.Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *ControlClient) FocusTargets(ctx context.Context) ([]dto.FocusTargetOutput, error) {
	resp := []dto.FocusTargetOutput{}
	if err := c.call(ctx, "Focus.FocusTargets", dto.Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *ControlClient) SelectTabs(ctx context.Context, tabIDs []int) ([]dto.FocusTargetOutput, error) {
	resp := []dto.FocusTargetOutput{}
	if err := c.call(ctx, "Focus.SelectTabs", dto.SelectTabsRequest{TabIDs: tabIDs}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *ControlClient) ExportStats(ctx context.Context, vaultPath string) (dto.ExportOutput, error) {
	resp := dto.ExportOutput{}
	err := c.call(ctx, "Focus.ExportStats", dto.ExportRequest{VaultPath: vaultPath}, &resp)
	return resp, err
}

func (c *ControlClient) call(ctx context.Context, method string, args, reply any) error {
	client, err := dialClient(ctx, c.socketPath)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Call(method, args, reply); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func dialClient(ctx context.Context, socketPath string) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrDaemonNotRunning, socketPath)
		}
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	return rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)), nil
}
