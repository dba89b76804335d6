package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tabfocus/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// hints must stay in sync with the switch in app/model.go executePalette.
var paletteHints = []string{
	"focus:on",
	"focus:off",
	"alert <seconds>",
	"stats:reset",
	"stats:export <vault>",
	"tabs:save",
	"refresh",
}

const (
	maxHints   = 5
	maxHistory = 20
)

// MatchHints returns the hints whose command word contains the typed command word.
func MatchHints(input string) []string {
	word := strings.ToLower(strings.TrimSpace(input))
	if i := strings.IndexByte(word, ' '); i >= 0 {
		word = word[:i]
	}
	var out []string
	for _, h := range paletteHints {
		cmd, _, _ := strings.Cut(h, " ")
		if word == "" || strings.Contains(cmd, word) {
			out = append(out, h)
			if len(out) == maxHints {
				break
			}
		}
	}
	return out
}

// Palette is a command prompt overlay with history (up/down) and completion
// of the command word (tab).
type Palette struct {
	input   textinput.Model
	visible bool
	width   int

	history []string
	recall  int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "focus:on, alert 45, stats:export ~/vault…"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with an empty prompt and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.recall = len(p.history)
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// History returns submitted commands, oldest first.
func (p Palette) History() []string { return append([]string(nil), p.history...) }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.remember(val)
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "up":
			if p.recall > 0 {
				p.recall--
				p.setValue(p.history[p.recall])
			}
			return p, nil
		case "down":
			if p.recall < len(p.history)-1 {
				p.recall++
				p.setValue(p.history[p.recall])
			} else {
				p.recall = len(p.history)
				p.setValue("")
			}
			return p, nil
		case "tab":
			if hints := MatchHints(p.input.Value()); len(hints) > 0 {
				cmd, _, hasArgs := strings.Cut(hints[0], " ")
				if hasArgs {
					cmd += " "
				}
				p.setValue(cmd)
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("tabfocus") + theme.Muted.Render("  command") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if hints := MatchHints(p.input.Value()); len(hints) > 0 {
		sb.WriteString("\n")
		for _, h := range hints {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p *Palette) setValue(v string) {
	p.input.SetValue(v)
	p.input.CursorEnd()
}

// remember appends a non-empty command, dropping an immediate repeat.
func (p *Palette) remember(v string) {
	if v == "" {
		return
	}
	if n := len(p.history); n > 0 && p.history[n-1] == v {
		return
	}
	p.history = append(p.history, v)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
}
