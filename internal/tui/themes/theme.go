// Package themes holds the color schemes for the chat TUI.
package themes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	UserTurn      lipgloss.Style
	ModelTurn     lipgloss.Style
	Source        lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusPending lipgloss.Style
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Error         lipgloss.Color
	Success       lipgloss.Color
}

func build(primary, secondary, fg, subtle, muted, border, errc, success, info string) Theme {
	return Theme{
		Primary:   lipgloss.Color(primary),
		Secondary: lipgloss.Color(secondary),
		Muted:     lipgloss.Color(muted),
		Border:    lipgloss.Color(border),
		Error:     lipgloss.Color(errc),
		Success:   lipgloss.Color(success),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(primary)),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(subtle)),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(fg)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)),
		UserTurn: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(secondary)),
		ModelTurn: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(primary)),
		Source: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)).
			Underline(true),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(0, 1),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(errc)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(info)).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)).
			Italic(true),
	}
}

// Default is the default theme.
var Default = build("#7c3aed", "#a78bfa", "#fafafa", "#a3a3a3", "#737373", "#404040", "#ef4444", "#10b981", "#3b82f6")

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build("#cba6f7", "#f5c2e7", "#cdd6f4", "#a6adc8", "#6c7086", "#45475a", "#f38ba8", "#a6e3a1", "#89dceb")

// ByName returns the named theme, falling back to Default.
func ByName(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "catppuccin", "mocha", "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
