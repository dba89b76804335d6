package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"go.uber.org/zap"

	"tabfocus/internal/modules/focus/adapter/out/notifyrpc"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// PluginNotifier delivers notifications through a go-plugin notifier binary.
// The plugin process is started on first use and restarted after it exits.
type PluginNotifier struct {
	binary string
	logger *zap.Logger

	mu     sync.Mutex
	client *plugin.Client
	rpc    notifyrpc.NotifierClient
}

func NewPluginNotifier(binary string, logger *zap.Logger) *PluginNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginNotifier{binary: binary, logger: logger}
}

func (n *PluginNotifier) Show(ctx context.Context, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	client, err := n.connectLocked(ctx)
	if err != nil {
		return err
	}
	err = NewRPCNotifier(client).Show(ctx, title, message)
	if err != nil && !errors.Is(err, ErrNotDelivered) {
		n.closeLocked()
	}
	return err
}

func (n *PluginNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closeLocked()
	return nil
}

func (n *PluginNotifier) connectLocked(ctx context.Context) (notifyrpc.NotifierClient, error) {
	if n.client != nil && !n.client.Exited() {
		return n.rpc, nil
	}
	n.closeLocked()
	if strings.TrimSpace(n.binary) == "" {
		return nil, errors.New("notifier plugin path is empty")
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  notifyrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          notifyrpc.PluginMap(nil),
		Cmd:              exec.Command(n.binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start notifier plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(notifyrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense notifier plugin: %w", err)
	}
	typed, ok := raw.(notifyrpc.NotifierClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("notifier rpc client type mismatch")
	}
	n.client = client
	n.rpc = typed

	metaCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := typed.GetMetadata(metaCtx)
	if err != nil {
		n.logger.Warn("notifier plugin metadata unavailable", zap.String("binary", n.binary), zap.Error(err))
		return typed, nil
	}
	n.logger.Info("notifier plugin started",
		zap.String("binary", n.binary),
		zap.String("plugin", meta.Name),
		zap.String("version", meta.Version))
	return typed, nil
}

func (n *PluginNotifier) closeLocked() {
	if n.client != nil {
		n.client.Kill()
	}
	n.client = nil
	n.rpc = nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// ErrNotDelivered reports that the plugin answered but could not show the
// notification.
var ErrNotDelivered = errors.New("notification not delivered")

// RPCNotifier shows notifications through a connected notifier client.
type RPCNotifier struct {
	client notifyrpc.NotifierClient
}

func NewRPCNotifier(client notifyrpc.NotifierClient) RPCNotifier {
	return RPCNotifier{client: client}
}

func (n RPCNotifier) Show(ctx context.Context, title, message string) error {
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	resp, err := n.client.Show(callCtx, &notifyrpc.ShowRequest{Title: title, Message: message})
	if err != nil {
		return fmt.Errorf("show notification: %w", err)
	}
	if !resp.Delivered {
		return fmt.Errorf("%w: %s", ErrNotDelivered, resp.Error)
	}
	return nil
}

// LogNotifier writes notifications to the log. It is used when no notifier
// plugin is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Show(_ context.Context, title, message string) error {
	n.logger.Info("notification", zap.String("title", title), zap.String("message", message))
	return nil
}
