package theme

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha.
var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)

	Bar = lipgloss.NewStyle().Background(Mantle)

	badge = lipgloss.NewStyle().Foreground(Base).Bold(true).Padding(0, 1)
)

// Phase renders a tracker phase as a colored badge.
func Phase(phase string) string {
	switch phase {
	case "in_focus":
		return badge.Background(Green).Render("IN FOCUS")
	case "out_of_focus":
		return badge.Background(Red).Render("OUT OF FOCUS")
	case "no_active_tab":
		return badge.Background(Yellow).Render("NO TAB")
	default:
		return badge.Background(Surface1).Foreground(Text).Render("FOCUS OFF")
	}
}
