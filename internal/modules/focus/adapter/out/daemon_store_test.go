package out_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	focusout "tabfocus/internal/modules/focus/adapter/out"
	apperrors "tabfocus/internal/platform/errors"
)

func TestFileDaemonStorePID(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := focusout.NewFileDaemonStore(filepath.Join(dir, "run", "daemon.pid"), filepath.Join(dir, "daemon.sock"))

	_, err := store.ReadPID(ctx)
	assert.ErrorIs(t, err, apperrors.ErrDaemonNotRunning)

	require.NoError(t, store.WritePID(ctx, 4242))
	pid, err := store.ReadPID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)

	require.NoError(t, store.ClearPID(ctx))
	require.NoError(t, store.ClearPID(ctx))
	assert.Equal(t, filepath.Join(dir, "daemon.sock"), store.SocketPath())
}

func TestLogNotifierWritesEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := focusout.NewLogNotifier(zap.New(core))

	require.NoError(t, n.Show(context.Background(), "Focus Reminder", "back to work"))
	entries := logs.FilterMessage("notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "back to work", entries[0].ContextMap()["message"])
}

func TestPluginNotifierWithoutBinaryFails(t *testing.T) {
	n := focusout.NewPluginNotifier("", nil)
	err := n.Show(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin path is empty")
	require.NoError(t, n.Close())
}
