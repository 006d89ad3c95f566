// Package styles provides styling for the TUI components.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Colors used throughout the application.
var (
	ColorPrimary   = lipgloss.Color("#1DB954") // Green
	ColorSecondary = lipgloss.Color("#7C3AED") // Purple
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
	ColorHighlight = lipgloss.Color("#F3F4F6") // Light gray
)

// App-level styles.
var (
	AppStyle = lipgloss.NewStyle().
			Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginBottom(1)
)

// Panel styles.
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)
)

// Query input styles.
var (
	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	InputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)
)

// Candidate list styles.
var (
	CandidateStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	SelectedCandidateStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				PaddingLeft(1).
				BorderLeft(true).
				BorderStyle(lipgloss.ThickBorder()).
				BorderForeground(ColorPrimary)

	CandidateMetaStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Italic(true)
)

// Result row styles.
var (
	ResultDisplayStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#E5E7EB"))

	ResultScoreStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary)

	UnresolvedStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true)
)

// Status bar styles.
var (
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)

	StatusValueStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError)
)

// Help styles.
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	HelpSeparatorStyle = lipgloss.NewStyle().
				Foreground(ColorBorder)
)

// Score renders a similarity score with a fixed width.
func Score(score float64) string {
	return ResultScoreStyle.Render(fmt.Sprintf("%6.4f", score))
}

// RankBadge renders a candidate's catalog rank.
func RankBadge(rank int) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("62")).
		Padding(0, 1).
		Render(fmt.Sprintf("%d", rank))
}
