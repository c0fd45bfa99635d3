package tui

import "github.com/charmbracelet/lipgloss"

var (
	foreground  = lipgloss.Color("#101F38")
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#8A96A8")
	border      = lipgloss.Color("#DCE0E5")
	destructive = lipgloss.Color("#E53935")
	success     = lipgloss.Color("#4CAF50")
)

// Styles groups the lipgloss styles of the form.
type Styles struct {
	Title       lipgloss.Style
	Label       lipgloss.Style
	Count       lipgloss.Style
	Button      lipgloss.Style
	ButtonOff   lipgloss.Style
	Panel       lipgloss.Style
	Placeholder lipgloss.Style
	Answer      lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Help        lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(accent),
		Label:       lipgloss.NewStyle().Bold(true),
		Count:       lipgloss.NewStyle().Foreground(muted),
		Button:      lipgloss.NewStyle().Padding(0, 1).Foreground(foreground).Background(accent),
		ButtonOff:   lipgloss.NewStyle().Padding(0, 1).Foreground(muted).Background(border),
		Panel:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1),
		Placeholder: lipgloss.NewStyle().Italic(true).Foreground(muted),
		Answer:      lipgloss.NewStyle().Bold(true),
		Success:     lipgloss.NewStyle().Bold(true).Foreground(success),
		Error:       lipgloss.NewStyle().Bold(true).Foreground(destructive),
		Help:        lipgloss.NewStyle().Foreground(muted),
	}
}
