// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the TUI.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success marks a finished run.
	Success lipgloss.Color

	// Warning marks a cancelled run.
	Warning lipgloss.Color

	// Error marks a failed run.
	Error lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Warning:    lipgloss.Color("#F9E2AF"), // Yellow
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title style for the header.
	Title lipgloss.Style

	// Stage style for the current pipeline stage.
	Stage lipgloss.Style

	// Question style for question text.
	Question lipgloss.Style

	// Answer style for answer text.
	Answer lipgloss.Style

	// Normal style for regular text.
	Normal lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style

	// Success style for success messages.
	Success lipgloss.Style

	// Warning style for warning messages.
	Warning lipgloss.Style

	// Verdict style frames the final decision.
	Verdict lipgloss.Style

	// StatusBar style for the status bar.
	StatusBar lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Stage: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Question: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground),

		Answer: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Verdict: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
