package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tabfocus/internal/modules/focus/dto"
	"tabfocus/internal/ui/components"
	"tabfocus/internal/ui/theme"
	statsview "tabfocus/internal/ui/views/stats"
	tabsview "tabfocus/internal/ui/views/tabs"
)

const refreshInterval = 10 * time.Second

// ─── port ────────────────────────────────────────────────────────────────────

type focusPort interface {
	Status(ctx context.Context) (dto.StatusOutput, error)
	Stats(ctx context.Context) (dto.StatsOutput, error)
	ResetStats(ctx context.Context) error
	SetFocusMode(ctx context.Context, enabled bool) error
	SetAlertTime(ctx context.Context, seconds int) error
	ListTabs(ctx context.Context) ([]dto.WindowOutput, error)
	SelectTabs(ctx context.Context, tabIDs []int) ([]dto.FocusTargetOutput, error)
	ExportStats(ctx context.Context, vaultPath string) (dto.ExportOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabStats tabID = iota
	tabFocusList
	tabCount
)

var tabLabels = [tabCount]string{"Stats", "Focus list"}

// ─── async messages ───────────────────────────────────────────────────────────

type refreshTickMsg time.Time

type statusLoadedMsg struct {
	status dto.StatusOutput
	err    error
}

// actionDoneMsg closes every fire-and-forget control call. reload asks for
// the status and stats to be fetched again.
type actionDoneMsg struct {
	text   string
	err    error
	reload bool
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Focus   key.Binding
	Refresh key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Toggle  key.Binding
	Save    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		Focus:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "toggle focus mode")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "check tab")),
		Save:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save focus list")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Focus, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Focus, k.Refresh},
		{k.Toggle, k.Save},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model: a stats dashboard and a focus-list
// picker sharing one status bar. Everything goes through focusPort.
type Model struct {
	port focusPort

	statsView statsview.Model
	tabsView  tabsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    dto.StatusOutput
	hasStatus bool
	message   string
	width     int
	height    int
}

func NewModel(port focusPort) Model {
	return Model{
		port:      port,
		statsView: statsview.New(port),
		tabsView:  tabsview.New(port),
		activeTab: tabStats,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		message:   "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.statsView.Init(),
		m.tabsView.Init(),
		m.loadStatusCmd(),
		refreshTick(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.reloadCmds(), refreshTick())

	case statusLoadedMsg:
		if msg.err != nil {
			m.hasStatus = false
			m.message = "daemon: " + msg.err.Error()
		} else {
			m.hasStatus = true
			m.status = msg.status
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.message = msg.text + " failed: " + msg.err.Error()
			return m, nil
		}
		m.message = msg.text
		if msg.reload {
			return m, m.reloadCmds()
		}
		return m, nil

	case statsview.LoadedMsg:
		var cmd tea.Cmd
		m.statsView, cmd = m.statsView.Update(msg)
		return m, cmd

	case tabsview.LoadedMsg:
		var cmd tea.Cmd
		m.tabsView, cmd = m.tabsView.Update(msg)
		return m, cmd

	case tabsview.SavedMsg:
		if msg.Err != nil {
			m.message = "save focus list failed: " + msg.Err.Error()
		} else {
			m.message = fmt.Sprintf("focus list saved (%d targets)", len(msg.Targets))
			cmds = append(cmds, m.loadStatusCmd())
		}
		var cmd tea.Cmd
		m.tabsView, cmd = m.tabsView.Update(msg)
		return m, tea.Batch(append(cmds, cmd)...)

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.message = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "f":
			return m, m.setFocusModeCmd(!m.status.FocusModeEnabled)
		case "r":
			m.message = "refreshing"
			return m, m.reloadCmds()
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case tabStats:
		m.statsView, cmd = m.statsView.Update(msg)
	case tabFocusList:
		m.tabsView, cmd = m.tabsView.Update(msg)
	}
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabFocusList:
		content = m.tabsView.View()
	default:
		content = m.statsView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "tabfocus  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return theme.Bar.Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.message
	if m.hasStatus {
		phase := m.status.Phase
		if !m.status.FocusModeEnabled {
			phase = "disabled"
		}
		left = theme.Phase(phase) + " " + m.statusDetail() + "  " + theme.Muted.Render(left)
	}
	right := theme.Muted.Render("?:help  f:focus  tab:switch  :::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return "\n" + theme.Bar.Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

func (m Model) statusDetail() string {
	s := m.status
	switch {
	case !s.FocusModeEnabled:
		return fmt.Sprintf("alert %ds", s.AlertTime)
	case s.FocusKey != "":
		return s.FocusKey
	case s.OutOfFocusSince != nil:
		return "away " + time.Since(*s.OutOfFocusSince).Truncate(time.Second).String()
	}
	return fmt.Sprintf("%d targets", s.FocusTargets)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "focus:on":
		return m, m.setFocusModeCmd(true)

	case "focus:off":
		return m, m.setFocusModeCmd(false)

	case "alert":
		if len(parts) < 2 {
			m.message = "usage: alert <seconds>"
			return m, nil
		}
		seconds, err := strconv.Atoi(parts[1])
		if err != nil {
			m.message = "invalid seconds: " + parts[1]
			return m, nil
		}
		return m, m.actionCmd(fmt.Sprintf("alert time set to %ds", seconds), func(ctx context.Context) error {
			return m.port.SetAlertTime(ctx, seconds)
		})

	case "stats:reset":
		return m, m.actionCmd("stats reset", m.port.ResetStats)

	case "stats:export":
		if len(parts) < 2 {
			m.message = "usage: stats:export <vault>"
			return m, nil
		}
		vault := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		return m, func() tea.Msg {
			out, err := m.port.ExportStats(context.Background(), vault)
			if err != nil {
				return actionDoneMsg{text: "export", err: err}
			}
			return actionDoneMsg{text: fmt.Sprintf("exported %d records to %s", out.Records, out.Path)}
		}

	case "tabs:save":
		m.activeTab = tabFocusList
		var cmd tea.Cmd
		m.tabsView, cmd = m.tabsView.Update(tea.KeyMsg{Type: tea.KeyEnter})
		return m, cmd

	case "refresh":
		return m, m.reloadCmds()

	default:
		m.message = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.statsView, _ = m.statsView.Update(sz)
	m.tabsView, _ = m.tabsView.Update(sz)
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshTickMsg(t) })
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) reloadCmds() tea.Cmd {
	return tea.Batch(m.loadStatusCmd(), m.statsView.Reload(), m.tabsView.Reload())
}

func (m Model) loadStatusCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := m.port.Status(context.Background())
		return statusLoadedMsg{status: status, err: err}
	}
}

func (m Model) setFocusModeCmd(enabled bool) tea.Cmd {
	text := "focus mode off"
	if enabled {
		text = "focus mode on"
	}
	return m.actionCmd(text, func(ctx context.Context) error {
		return m.port.SetFocusMode(ctx, enabled)
	})
}

func (m Model) actionCmd(text string, call func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{text: text, err: call(context.Background()), reload: true}
	}
}
