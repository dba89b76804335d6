package stats

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tabfocus/internal/modules/focus/dto"
	"tabfocus/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type StatsPort interface {
	Stats(ctx context.Context) (dto.StatsOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Stats dto.StatsOutput
	Err   error
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    StatsPort
	table   table.Model
	spinner spinner.Model
	stats   dto.StatsOutput
	err     error
	loading bool
	width   int
	height  int
}

func New(port StatsPort) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Surface1).
		BorderBottom(true).
		Foreground(theme.Sapphire).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(theme.Base).
		Background(theme.Lavender).
		Bold(false)
	t.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, table: t, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches the stats table again. Rows stay on screen while it runs.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{Err: fmt.Errorf("stats unavailable")}
		}
		out, err := m.port.Stats(context.Background())
		return LoadedMsg{Stats: out, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetHeight(max(m.height-4, 3))

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.stats = msg.Stats
			m.table.SetRows(toRows(msg.Stats))
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading focus stats…")
	}
	if m.err != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Hot.Render("stats: "+m.err.Error()))
	}
	if len(m.stats.Rows) == 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("No focus time recorded yet"))
	}
	footer := theme.Muted.Render("TOTAL ") + theme.Title.Render(m.stats.Total)
	return lipgloss.JoinVertical(lipgloss.Left, m.table.View(), "", footer)
}

// Stats returns the last successfully loaded table.
func (m Model) Stats() dto.StatsOutput { return m.stats }

// ─── private ─────────────────────────────────────────────────────────────────

func columns(width int) []table.Column {
	timeW, visitW := 12, 18
	siteW := max(width*2/5, 16)
	titleW := max(width-siteW-timeW-visitW-8, 10)
	return []table.Column{
		{Title: "Site", Width: siteW},
		{Title: "Title", Width: titleW},
		{Title: "Time", Width: timeW},
		{Title: "Last visit", Width: visitW},
	}
}

func toRows(stats dto.StatsOutput) []table.Row {
	rows := make([]table.Row, 0, len(stats.Rows))
	for _, r := range stats.Rows {
		lastVisit := ""
		if !r.LastVisit.IsZero() {
			lastVisit = r.LastVisit.Local().Format("Jan 02 15:04")
		}
		rows = append(rows, table.Row{r.Name, r.Title, r.Total, lastVisit})
	}
	return rows
}
