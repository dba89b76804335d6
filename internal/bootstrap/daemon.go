package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	focusinadapter "tabfocus/internal/modules/focus/adapter/in"
	focusoutadapter "tabfocus/internal/modules/focus/adapter/out"
	focusin "tabfocus/internal/modules/focus/port/in"
	focusout "tabfocus/internal/modules/focus/port/out"
	"tabfocus/internal/modules/focus/service"
	"tabfocus/internal/modules/focus/usecase"
	"tabfocus/internal/platform/clock"
	apperrors "tabfocus/internal/platform/errors"
	"tabfocus/internal/platform/id"
	"tabfocus/internal/platform/metrics"
	"tabfocus/internal/platform/schedule"
)

const (
	daemonStartTimeout = 3 * time.Second
	daemonStopTimeout  = 2 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// DaemonStatus describes the daemon process as seen from a client.
type DaemonStatus struct {
	Running    bool
	PID        int
	SocketPath string
}

type engine struct {
	usecase   focusin.Usecase
	http      *focusinadapter.HTTPServer
	ipc       *focusinadapter.IPCServer
	tracking  *focusoutadapter.SQLiteTrackingStore
	notifier  focusout.NotificationSink
	scheduler *schedule.TickerScheduler
}

func (a *App) buildEngine() (*engine, error) {
	cfg := a.Config
	logger := a.Logger
	clk := clock.SystemClock{}

	tracking, err := focusoutadapter.NewSQLiteTrackingStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open tracking store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var notifier focusout.NotificationSink
	if cfg.Notify.PluginPath != "" {
		notifier = focusoutadapter.NewPluginNotifier(cfg.Notify.PluginPath, logger.Named("notifier"))
	} else {
		notifier = focusoutadapter.NewLogNotifier(logger.Named("notifier"))
	}

	browser := focusoutadapter.NewBrowserRegistry()
	scheduler := schedule.NewTickerScheduler()
	uc := usecase.NewInteractor(usecase.Deps{
		Clock:     clk,
		IDs:       id.UUID{},
		Scheduler: scheduler,
		Tabs:      browser,
		Recorder:  browser,
		Windows:   browser,
		Notifier:  notifier,
		Settings:  focusoutadapter.NewFileSettingsStore(cfg.SettingsPath(), logger.Named("settings")),
		Tracking:  tracking,
		Reports:   focusoutadapter.NewVaultReportWriter(clk),
		Metrics:   m,
		Logger:    logger.Named("focus"),
		Timers: service.ReminderConfig{
			CheckInterval: cfg.Tracking.CheckInterval.Duration(),
			FlushInterval: cfg.Tracking.FlushInterval.Duration(),
			Tolerance:     cfg.Tracking.Tolerance.Duration(),
		},
		Welcome: cfg.Notify.Welcome,
	})

	metricsHandler := m.Handler()
	if !cfg.Metrics.Enabled {
		metricsHandler = nil
	}
	return &engine{
		usecase:   uc,
		http:      focusinadapter.NewHTTPServer(uc, metricsHandler, logger.Named("http")),
		ipc:       focusinadapter.NewIPCServer(uc),
		tracking:  tracking,
		notifier:  notifier,
		scheduler: scheduler,
	}, nil
}

func (e *engine) close(logger *zap.Logger) {
	e.scheduler.Stop()
	if closer, ok := e.notifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("close notifier", zap.Error(err))
		}
	}
	if err := e.tracking.Close(); err != nil {
		logger.Warn("close tracking store", zap.Error(err))
	}
}

// RunDaemon runs the focus engine in the foreground until ctx is cancelled.
func (a *App) RunDaemon(ctx context.Context) error {
	if err := a.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	if socketReachable(a.daemon.SocketPath()) {
		return fmt.Errorf("daemon already running on %s", a.daemon.SocketPath())
	}

	eng, err := a.buildEngine()
	if err != nil {
		return err
	}
	defer eng.close(a.Logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := eng.usecase.Start(runCtx); err != nil {
		return fmt.Errorf("start focus engine: %w", err)
	}
	if err := a.daemon.WritePID(ctx, os.Getpid()); err != nil {
		return err
	}
	defer func() { _ = a.daemon.ClearPID(context.Background()) }()

	errCh := make(chan error, 2)
	go func() {
		if err := eng.ipc.Serve(runCtx, a.daemon.SocketPath()); err != nil {
			errCh <- fmt.Errorf("control socket: %w", err)
		}
	}()
	go func() {
		if err := eng.http.Start(a.Config.HTTP.Addr); err != nil {
			errCh <- fmt.Errorf("http bridge: %w", err)
		}
	}()
	a.Logger.Info("daemon running",
		zap.Int("pid", os.Getpid()),
		zap.String("socket", a.daemon.SocketPath()),
		zap.String("http_addr", a.Config.HTTP.Addr))

	var runErr error
	select {
	case <-runCtx.Done():
	case runErr = <-errCh:
	}
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := eng.http.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("http shutdown", zap.Error(err))
	}
	if err := eng.usecase.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("shutdown focus engine: %w", err))
	}
	a.Logger.Info("daemon stopped")
	return runErr
}

// StartDaemon re-executes the current binary as a background daemon and waits
// for its control socket.
func (a *App) StartDaemon(ctx context.Context) error {
	if err := a.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	status, err := a.DaemonStatus(ctx)
	if err != nil {
		return err
	}
	if status.Running {
		if socketReachable(status.SocketPath) {
			return nil
		}
		return fmt.Errorf("daemon pid=%d is alive but its socket is unavailable", status.PID)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	logFile, err := os.OpenFile(a.Config.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	args := []string{"daemon", "run"}
	if a.ConfigPath != "" {
		args = append(args, "--config", a.ConfigPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	if err := waitForSocket(a.daemon.SocketPath(), daemonStartTimeout); err != nil {
		return fmt.Errorf("daemon pid=%d: %w", pid, err)
	}
	return nil
}

// StopDaemon sends SIGTERM to the daemon and escalates to SIGKILL after a grace period.
func (a *App) StopDaemon(ctx context.Context) error {
	pid, err := a.daemon.ReadPID(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrDaemonNotRunning) {
			_ = os.Remove(a.daemon.SocketPath())
			return nil
		}
		return err
	}
	if !processAlive(pid) {
		_ = a.daemon.ClearPID(ctx)
		_ = os.Remove(a.daemon.SocketPath())
		return nil
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("stop daemon pid=%d: %w", pid, err)
	}
	deadline := time.Now().Add(daemonStopTimeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if processAlive(pid) {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
	_ = os.Remove(a.daemon.SocketPath())
	return a.daemon.ClearPID(ctx)
}

func (a *App) DaemonStatus(ctx context.Context) (DaemonStatus, error) {
	status := DaemonStatus{SocketPath: a.daemon.SocketPath()}
	pid, err := a.daemon.ReadPID(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrDaemonNotRunning) {
			return status, nil
		}
		return status, err
	}
	status.PID = pid
	status.Running = processAlive(pid)
	return status, nil
}

func (a *App) cleanupStaleArtifacts(ctx context.Context) error {
	pid, err := a.daemon.ReadPID(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrDaemonNotRunning) {
			return err
		}
	} else if !processAlive(pid) {
		_ = a.daemon.ClearPID(ctx)
		_ = os.Remove(a.daemon.SocketPath())
	}

	if _, statErr := os.Stat(a.daemon.SocketPath()); statErr == nil && !socketReachable(a.daemon.SocketPath()) {
		if err := os.Remove(a.daemon.SocketPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale daemon socket: %w", err)
		}
	}
	return nil
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if socketReachable(path) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon socket not ready: %s", path)
}

func socketReachable(path string) bool {
	conn, err := net.DialTimeout("unix", path, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
