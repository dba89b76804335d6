package bootstrap

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"tabfocus/internal/platform/config"
	apperrors "tabfocus/internal/platform/errors"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir, err := os.MkdirTemp("", "tf")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return config.Config{
		DataDir: dir,
		HTTP:    config.HTTPConfig{Addr: "127.0.0.1:0"},
		Tracking: config.TrackingConfig{
			CheckInterval: config.Duration(2 * time.Second),
			FlushInterval: config.Duration(time.Minute),
			Tolerance:     config.Duration(2 * time.Second),
		},
		Log: config.LogConfig{Level: "debug", Format: "console"},
	}
}

func TestDaemonStatusWithoutPIDFile(t *testing.T) {
	app, err := New(testConfig(t), "", zaptest.NewLogger(t))
	require.NoError(t, err)

	status, err := app.DaemonStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, app.Config.SocketPath(), status.SocketPath)

	require.NoError(t, app.StopDaemon(context.Background()))
}

func TestCleanupRemovesStalePID(t *testing.T) {
	app, err := New(testConfig(t), "", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(app.Config.PIDPath(), []byte("999999999"), 0o644))

	require.NoError(t, app.cleanupStaleArtifacts(context.Background()))
	_, err = app.daemon.ReadPID(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrDaemonNotRunning)
}

func TestClientWithoutDaemon(t *testing.T) {
	app, err := New(testConfig(t), "", zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = app.FocusCLI.Status(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrDaemonNotRunning)
}

func TestRunDaemonServesControlSocket(t *testing.T) {
	// Background goroutines may log after the test returns, so no zaptest here.
	app, err := New(testConfig(t), "", zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunDaemon(ctx) }()

	require.Eventually(t, func() bool {
		_, err := app.FocusCLI.Status(context.Background())
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, app.FocusCLI.SetFocusMode(context.Background(), true))
	require.NoError(t, app.FocusCLI.SetAlertTime(context.Background(), 45))
	status, err := app.FocusCLI.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.FocusModeEnabled)
	assert.Equal(t, 45, status.AlertTime)

	daemonStatus, err := app.DaemonStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, daemonStatus.Running)
	assert.Equal(t, os.Getpid(), daemonStatus.PID)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}

	_, err = os.Stat(app.Config.SettingsPath())
	assert.NoError(t, err)
	_, err = os.Stat(app.Config.DBPath())
	assert.NoError(t, err)
	_, err = app.daemon.ReadPID(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrDaemonNotRunning)
}
