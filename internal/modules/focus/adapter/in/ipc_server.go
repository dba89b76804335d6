package in

import (
	"context"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"

	"tabfocus/internal/modules/focus/dto"
	focusin "tabfocus/internal/modules/focus/port/in"
)

// IPCServer exposes the control surface as JSON-RPC over a unix socket.
type IPCServer struct {
	control focusin.Control
}

func NewIPCServer(control focusin.Control) *IPCServer {
	return &IPCServer{control: control}
}

type rpcHandler struct {
	ctx context.Context
	c   focusin.Control
}

func (h *rpcHandler) Status(_ dto.Empty, resp *dto.StatusOutput) error {
	out, err := h.c.Status(h.ctx)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (h *rpcHandler) Stats(_ dto.Empty, resp *dto.StatsOutput) error {
	out, err := h.c.Stats(h.ctx)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (h *rpcHandler) ResetStats(_ dto.Empty, _ *dto.Empty) error {
	return h.c.ResetStats(h.ctx)
}

func (h *rpcHandler) SetFocusMode(req dto.FocusModeRequest, _ *dto.Empty) error {
	return h.c.SetFocusMode(h.ctx, req.Enabled)
}

func (h *rpcHandler) SetAlertTime(req dto.AlertTimeRequest, _ *dto.Empty) error {
	return h.c.SetAlertTime(h.ctx, req.Seconds)
}

func (h *rpcHandler) ListTabs(_ dto.Empty, resp *[]dto.WindowOutput) error {
	out, err := h.c.ListTabs(h.ctx)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (h *rpcHandler) FocusTargets(_ dto.Empty, resp *[]dto.FocusTargetOutput) error {
	out, err := h.c.FocusTargets(h.ctx)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (h *rpcHandler) SelectTabs(req dto.SelectTabsRequest, resp *[]dto.FocusTargetOutput) error {
	out, err := h.c.SelectTabs(h.ctx, req.TabIDs)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (h *rpcHandler) ExportStats(req dto.ExportRequest, resp *dto.ExportOutput) error {
	out, err := h.c.ExportStats(h.ctx, req.VaultPath)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

// Serve listens on socketPath until ctx is done. A stale socket file is replaced.
func (s *IPCServer) Serve(ctx context.Context, socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod ipc socket: %w", err)
	}
	defer ln.Close()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName("Focus", &rpcHandler{ctx: ctx, c: s.control}); err != nil {
		return fmt.Errorf("register ipc handler: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}
