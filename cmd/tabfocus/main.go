package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"tabfocus/internal/bootstrap"
	"tabfocus/internal/modules/focus/dto"
	"tabfocus/internal/platform/config"
	"tabfocus/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tabfocus",
		Short:         "Browser focus mode tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/tabfocus/config.yaml)")

	root.AddCommand(newDaemonCmd(&configPath))
	root.AddCommand(newStatusCmd(&configPath))
	root.AddCommand(newStatsCmd(&configPath))
	root.AddCommand(newFocusCmd(&configPath))
	root.AddCommand(newAlertCmd(&configPath))
	root.AddCommand(newTabsCmd(&configPath))
	root.AddCommand(newTargetsCmd(&configPath))
	root.AddCommand(newTUICmd(&configPath))
	return root
}

func loadApp(configPath string) (*bootstrap.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, configPath, logger)
}

func newDaemonCmd(configPath *string) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the tracking daemon"}
	daemon.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logging.Sync(app.Logger) }()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunDaemon(ctx)
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			if err := app.StartDaemon(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "daemon started (log %s)\n", app.Config.LogPath())
			return nil
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			if err := app.StopDaemon(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
			return nil
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show daemon process status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			status, err := app.DaemonStatus(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "running=%t pid=%d socket=%s http=%s\n",
				status.Running, status.PID, status.SocketPath, app.Config.HTTP.Addr)
			return nil
		},
	})
	return daemon
}

func newStatusCmd(configPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the focus session state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			status, err := app.FocusCLI.Status(context.Background())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), status)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "focus_mode=%t phase=%s alert=%ds targets=%d\n",
				status.FocusModeEnabled, status.Phase, status.AlertTime, status.FocusTargets)
			if status.FocusKey != "" {
				_, _ = fmt.Fprintf(out, "focus=%s session=%s\n", status.FocusKey, status.FocusSessionID)
			}
			if status.OutOfFocusSince != nil {
				_, _ = fmt.Fprintf(out, "out_of_focus_since=%s reminder_timer=%t\n",
					status.OutOfFocusSince.Local().Format("15:04:05"), status.CheckTimerActive)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newStatsCmd(configPath *string) *cobra.Command {
	var asJSON bool
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show accumulated focus time per site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			out, err := app.FocusCLI.Stats(context.Background())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			if len(out.Rows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no focus time recorded")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderStats(out))
			return nil
		},
	}
	stats.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	stats.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Clear all tracking records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			if err := app.FocusCLI.ResetStats(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "stats reset")
			return nil
		},
	})

	var vaultPath string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the stats table into an Obsidian vault note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			out, err := app.FocusCLI.ExportStats(context.Background(), vaultPath)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", out.Records, out.Path)
			return nil
		},
	}
	export.Flags().StringVar(&vaultPath, "vault", "", "Obsidian vault path")
	_ = export.MarkFlagRequired("vault")
	stats.AddCommand(export)
	return stats
}

func newFocusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "focus <on|off|toggle>",
		Short:     "Enable or disable focus mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
				err = app.FocusCLI.SetFocusMode(ctx, true)
			case "off":
				err = app.FocusCLI.SetFocusMode(ctx, false)
			case "toggle":
				enabled, err = app.FocusCLI.ToggleFocusMode(ctx)
			default:
				return fmt.Errorf("expected on, off or toggle, got %q", args[0])
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "focus mode %s\n", onOff(enabled))
			return nil
		},
	}
}

func newAlertCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "alert <seconds>",
		Short: "Set the out-of-focus reminder threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid seconds %q: %w", args[0], err)
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			if err := app.FocusCLI.SetAlertTime(context.Background(), seconds); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "alert time set to %ds\n", seconds)
			return nil
		},
	}
}

func newTabsCmd(configPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "List open browser tabs grouped by window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			windows, err := app.FocusCLI.ListTabs(context.Background())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), windows)
			}
			if len(windows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no tabs reported")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderTabs(windows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTargetsCmd(configPath *string) *cobra.Command {
	targets := &cobra.Command{
		Use:   "targets",
		Short: "Show the focus list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			items, err := app.FocusCLI.FocusTargets(context.Background())
			if err != nil {
				return err
			}
			printTargets(cmd.OutOrStdout(), items)
			return nil
		},
	}
	targets.AddCommand(&cobra.Command{
		Use:   "set <tab-id>...",
		Short: "Replace the focus list with the given tabs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid tab id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			items, err := app.FocusCLI.SelectTabs(context.Background(), ids)
			if err != nil {
				return err
			}
			printTargets(cmd.OutOrStdout(), items)
			return nil
		},
	})
	return targets
}

func newTUICmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			return bootstrap.RunTUI(app)
		},
	}
}

// ─── output ──────────────────────────────────────────────────────────────────

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStats(out dto.StatsOutput) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SITE", "TITLE", "TIME", "LAST VISIT")
	for _, r := range out.Rows {
		t.Row(r.Name, r.Title, r.Total, r.LastVisit.Local().Format("2006-01-02 15:04"))
	}
	t.Row("TOTAL", "", out.Total, "")
	return t.Render()
}

func renderTabs(windows []dto.WindowOutput) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WINDOW", "TAB", "FOCUS", "TITLE", "URL")
	for _, w := range windows {
		for _, tab := range w.Tabs {
			mark := ""
			if tab.InFocusList {
				mark = "✓"
			}
			t.Row(strconv.Itoa(w.WindowID), strconv.Itoa(tab.ID), mark, tab.Title, tab.URL)
		}
	}
	return t.Render()
}

func printTargets(w io.Writer, items []dto.FocusTargetOutput) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "focus list is empty")
		return
	}
	for _, item := range items {
		id := "-"
		if item.ID != nil {
			id = strconv.Itoa(*item.ID)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", id, item.Title, item.URL)
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
