package tabs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tabfocus/internal/modules/focus/dto"
	"tabfocus/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type TabsPort interface {
	ListTabs(ctx context.Context) ([]dto.WindowOutput, error)
	SelectTabs(ctx context.Context, tabIDs []int) ([]dto.FocusTargetOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Windows []dto.WindowOutput
	Err     error
}

// SavedMsg reports the result of replacing the focus list.
type SavedMsg struct {
	Targets []dto.FocusTargetOutput
	Err     error
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the focus-list picker: every open tab grouped by window, with a
// checkbox per tab. Enter replaces the focus list with the checked tabs.
type Model struct {
	port     TabsPort
	windows  []dto.WindowOutput
	order    []dto.TabOutput
	selected map[int]bool
	cursor   int
	dirty    bool
	err      error
	viewport viewport.Model
	width    int
	height   int
}

func New(port TabsPort) Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Foreground(theme.Text)
	return Model{port: port, selected: map[int]bool{}, viewport: vp}
}

func (m Model) Init() tea.Cmd {
	return m.Reload()
}

func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{Err: fmt.Errorf("tab list unavailable")}
		}
		windows, err := m.port.ListTabs(context.Background())
		return LoadedMsg{Windows: windows, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)

	case LoadedMsg:
		m.err = msg.Err
		if msg.Err == nil && !m.dirty {
			m.setWindows(msg.Windows)
		}

	case SavedMsg:
		if msg.Err == nil {
			m.dirty = false
			return m, m.Reload()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.order)-1 {
				m.cursor++
			}
		case " ", "x":
			if tab, ok := m.current(); ok {
				m.selected[tab.ID] = !m.selected[tab.ID]
				m.dirty = true
			}
		case "a":
			m.toggleWindow()
		case "enter":
			return m, m.saveCmd()
		case "esc":
			m.dirty = false
			return m, m.Reload()
		}
	}

	m.viewport.SetContent(m.render())
	return m, nil
}

func (m Model) View() string {
	header := theme.Title.Render("Focus list") + "  " +
		theme.Muted.Render("space: toggle  a: whole window  enter: save  esc: discard")
	if m.dirty {
		header += "  " + theme.Hot.Render("● unsaved")
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", m.viewport.View())
}

// SelectedIDs returns the checked tab ids in display order.
func (m Model) SelectedIDs() []int {
	var ids []int
	for _, tab := range m.order {
		if m.selected[tab.ID] {
			ids = append(ids, tab.ID)
		}
	}
	return ids
}

// Dirty reports whether the checkboxes differ from the saved focus list.
func (m Model) Dirty() bool { return m.dirty }

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) setWindows(windows []dto.WindowOutput) {
	sorted := append([]dto.WindowOutput(nil), windows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].WindowID < sorted[j].WindowID })
	m.windows = sorted
	m.order = m.order[:0]
	m.selected = map[int]bool{}
	for _, w := range sorted {
		for _, tab := range w.Tabs {
			m.order = append(m.order, tab)
			if tab.InFocusList {
				m.selected[tab.ID] = true
			}
		}
	}
	if m.cursor >= len(m.order) {
		m.cursor = max(len(m.order)-1, 0)
	}
	m.viewport.SetContent(m.render())
}

func (m Model) current() (dto.TabOutput, bool) {
	if m.cursor < 0 || m.cursor >= len(m.order) {
		return dto.TabOutput{}, false
	}
	return m.order[m.cursor], true
}

// toggleWindow checks every tab of the cursor's window, or clears them all
// when they are already checked.
func (m *Model) toggleWindow() {
	tab, ok := m.current()
	if !ok {
		return
	}
	all := true
	for _, t := range m.order {
		if t.WindowID == tab.WindowID && !m.selected[t.ID] {
			all = false
			break
		}
	}
	for _, t := range m.order {
		if t.WindowID == tab.WindowID {
			m.selected[t.ID] = !all
		}
	}
	m.dirty = true
}

func (m Model) saveCmd() tea.Cmd {
	ids := m.SelectedIDs()
	return func() tea.Msg {
		if m.port == nil {
			return SavedMsg{Err: fmt.Errorf("tab list unavailable")}
		}
		targets, err := m.port.SelectTabs(context.Background(), ids)
		return SavedMsg{Targets: targets, Err: err}
	}
}

func (m Model) render() string {
	if m.err != nil {
		return theme.Hot.Render("tabs: " + m.err.Error())
	}
	if len(m.order) == 0 {
		return theme.Muted.Render("No browser tabs reported yet")
	}
	var sb strings.Builder
	idx := 0
	for _, w := range m.windows {
		sb.WriteString(theme.Title.Render(fmt.Sprintf("Window %d", w.WindowID)) + "\n")
		for _, tab := range w.Tabs {
			box := "[ ]"
			if m.selected[tab.ID] {
				box = "[x]"
			}
			title := tab.Title
			if title == "" {
				title = tab.URL
			}
			line := fmt.Sprintf(" %s %s  %s", box, title, theme.Muted.Render(tab.URL))
			if idx == m.cursor {
				line = theme.Hot.Render("›") + line
			} else {
				line = " " + line
			}
			sb.WriteString(line + "\n")
			idx++
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
