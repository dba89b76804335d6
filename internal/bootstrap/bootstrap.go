package bootstrap

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	focusinadapter "tabfocus/internal/modules/focus/adapter/in"
	focusoutadapter "tabfocus/internal/modules/focus/adapter/out"
	focusout "tabfocus/internal/modules/focus/port/out"
	"tabfocus/internal/platform/config"
	uiapp "tabfocus/internal/ui/app"
)

// App is the client side of tabfocus. Every CLI and TUI call goes through the
// daemon's control socket; RunDaemon builds the engine itself.
type App struct {
	Config     config.Config
	ConfigPath string
	Logger     *zap.Logger
	FocusCLI   focusinadapter.CLIHandler

	daemon focusout.DaemonStore
}

func New(cfg config.Config, configPath string, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	daemon := focusoutadapter.NewFileDaemonStore(cfg.PIDPath(), cfg.SocketPath())
	return &App{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger,
		FocusCLI:   focusinadapter.NewCLIHandler(focusoutadapter.NewControlClient(daemon.SocketPath())),
		daemon:     daemon,
	}, nil
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.FocusCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
