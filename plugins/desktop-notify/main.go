package main

import (
	"context"
	"os"
	"strings"

	"github.com/gen2brain/beeep"
	"github.com/hashicorp/go-plugin"

	"tabfocus/internal/modules/focus/adapter/out/notifyrpc"
)

const version = "1.0.0"

type server struct {
	appName string
	notify  func(title, message string) error
}

func (s *server) GetMetadata(_ context.Context, _ *notifyrpc.Empty) (*notifyrpc.Metadata, error) {
	return &notifyrpc.Metadata{Name: "desktop-notify", Version: version}, nil
}

// Show never returns a transport error for a failed delivery; the daemon
// reads Delivered to decide whether the reminder counts.
func (s *server) Show(_ context.Context, in *notifyrpc.ShowRequest) (*notifyrpc.ShowResponse, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = s.appName
	}
	if err := s.notify(title, in.Message); err != nil {
		return &notifyrpc.ShowResponse{Delivered: false, Error: err.Error()}, nil
	}
	return &notifyrpc.ShowResponse{Delivered: true}, nil
}

func newServer() *server {
	appName := "tabfocus"
	if name := os.Getenv("TABFOCUS_NOTIFY_APP_NAME"); name != "" {
		appName = name
	}
	return &server{
		appName: appName,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: notifyrpc.HandshakeConfig,
		Plugins:         notifyrpc.PluginMap(newServer()),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
