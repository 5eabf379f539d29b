// Package ui holds the lipgloss palettes for the dark and light themes.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colors a theme is built from.
type Palette struct {
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Dim       lipgloss.Color
	Recording lipgloss.Color
	Playing   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	User      lipgloss.Color
	Assistant lipgloss.Color
}

var (
	darkPalette = Palette{
		Accent:    lipgloss.Color("#00FFFF"),
		Text:      lipgloss.Color("#FFFFFF"),
		Muted:     lipgloss.Color("#888888"),
		Dim:       lipgloss.Color("#444444"),
		Recording: lipgloss.Color("#FF5555"),
		Playing:   lipgloss.Color("#50FA7B"),
		Warning:   lipgloss.Color("#F1FA8C"),
		Error:     lipgloss.Color("#FF5555"),
		User:      lipgloss.Color("#8BE9FD"),
		Assistant: lipgloss.Color("#BD93F9"),
	}

	lightPalette = Palette{
		Accent:    lipgloss.Color("#005F87"),
		Text:      lipgloss.Color("#1C1C1C"),
		Muted:     lipgloss.Color("#6C6C6C"),
		Dim:       lipgloss.Color("#BCBCBC"),
		Recording: lipgloss.Color("#D70000"),
		Playing:   lipgloss.Color("#008700"),
		Warning:   lipgloss.Color("#AF8700"),
		Error:     lipgloss.Color("#D70000"),
		User:      lipgloss.Color("#0087AF"),
		Assistant: lipgloss.Color("#8700AF"),
	}
)

// Theme is the full set of styles used by the TUI.
type Theme struct {
	Name string

	Title       lipgloss.Style
	Status      lipgloss.Style
	Recording   lipgloss.Style
	Idle        lipgloss.Style
	Error       lipgloss.Style
	Info        lipgloss.Style
	Hint        lipgloss.Style
	UserLabel   lipgloss.Style
	AILabel     lipgloss.Style
	Message     lipgloss.Style
	Selected    lipgloss.Style
	Playing     lipgloss.Style
	Dim         lipgloss.Style
	FooterKey   lipgloss.Style
	FooterDesc  lipgloss.Style
	Divider     lipgloss.Style
	Panel       lipgloss.Style
	ProgressOn  lipgloss.Style
	ProgressOff lipgloss.Style
}

// NewTheme builds a theme from a palette.
func NewTheme(name string, p Palette) Theme {
	return Theme{
		Name:        name,
		Title:       lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Status:      lipgloss.NewStyle().Foreground(p.Muted),
		Recording:   lipgloss.NewStyle().Bold(true).Foreground(p.Recording),
		Idle:        lipgloss.NewStyle().Foreground(p.Muted),
		Error:       lipgloss.NewStyle().Bold(true).Foreground(p.Error),
		Info:        lipgloss.NewStyle().Foreground(p.Playing),
		Hint:        lipgloss.NewStyle().Italic(true).Foreground(p.Warning),
		UserLabel:   lipgloss.NewStyle().Bold(true).Foreground(p.User),
		AILabel:     lipgloss.NewStyle().Bold(true).Foreground(p.Assistant),
		Message:     lipgloss.NewStyle().Foreground(p.Text),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Playing:     lipgloss.NewStyle().Bold(true).Foreground(p.Playing),
		Dim:         lipgloss.NewStyle().Foreground(p.Muted),
		FooterKey:   lipgloss.NewStyle().Bold(true).Foreground(p.Warning),
		FooterDesc:  lipgloss.NewStyle().Foreground(p.Muted),
		Divider:     lipgloss.NewStyle().Foreground(p.Dim),
		Panel:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Accent).Padding(0, 1),
		ProgressOn:  lipgloss.NewStyle().Foreground(p.Recording),
		ProgressOff: lipgloss.NewStyle().Foreground(p.Dim),
	}
}

// Dark is the default theme.
func Dark() Theme { return NewTheme("dark", darkPalette) }

// Light is the theme for light terminal backgrounds.
func Light() Theme { return NewTheme("light", lightPalette) }

// ForName returns the theme called name, falling back to Dark.
func ForName(name string) Theme {
	if name == "light" {
		return Light()
	}
	return Dark()
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t.Name == "light" {
		return Dark()
	}
	return Light()
}
