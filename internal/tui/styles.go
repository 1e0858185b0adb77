package tui

import "github.com/charmbracelet/lipgloss"

// ─── Colors (gruvbox-ish, vim green accent) ──────────────────────────────────

var (
	colorOverlay = lipgloss.Color("#665c54") // borders
	colorText    = lipgloss.Color("#ebdbb2")
	colorSubtext = lipgloss.Color("#a89984")
	colorAccent  = lipgloss.Color("#b8bb26") // vim green
	colorAqua    = lipgloss.Color("#8ec07c")
	colorOrange  = lipgloss.Color("#fe8019")
	colorRed     = lipgloss.Color("#fb4934")
	colorBlue    = lipgloss.Color("#83a598")
	colorYellow  = lipgloss.Color("#fabd2f")
	colorPurple  = lipgloss.Color("#d3869b")
)

// ─── Layout Styles ───────────────────────────────────────────────────────────

var (
	appStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorOverlay).
			PaddingBottom(1).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(colorAqua).
			Bold(true)
)

// ─── Dashboard Styles ────────────────────────────────────────────────────────

var (
	statNumberStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAqua).
			Width(8).
			Align(lipgloss.Right)

	statLabelStyle = lipgloss.NewStyle().
			Foreground(colorText).
			PaddingLeft(2)

	statCardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorOverlay).
			Padding(1, 2).
			MarginBottom(1)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(colorText).
			PaddingLeft(2)

	menuSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true).
				PaddingLeft(1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPurple).
			MarginBottom(1)

	// index online/offline badge
	indexUpStyle   = lipgloss.NewStyle().Foreground(colorAqua).Bold(true)
	indexDownStyle = lipgloss.NewStyle().Foreground(colorOrange).Bold(true)
)

// ─── List Styles ─────────────────────────────────────────────────────────────

var (
	listItemStyle = lipgloss.NewStyle().
			Foreground(colorText).
			PaddingLeft(2)

	listSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true).
				PaddingLeft(1)

	starStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	idStyle = lipgloss.NewStyle().
		Foreground(colorBlue)

	timestampStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Italic(true)

	contextStyle = lipgloss.NewStyle().
			Foreground(colorOrange)

	folderStyle = lipgloss.NewStyle().
			Foreground(colorPurple)

	rankStyle = lipgloss.NewStyle().
			Foreground(colorAqua).
			Bold(true)
)

// ─── Detail View Styles ──────────────────────────────────────────────────────

var (
	sectionHeadingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPurple).
				MarginTop(1).
				MarginBottom(1)

	detailContentStyle = lipgloss.NewStyle().
				Foreground(colorText).
				PaddingLeft(2)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(colorSubtext).
				Width(12).
				Align(lipgloss.Right).
				PaddingRight(1)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(colorText)

	pendingStyle = lipgloss.NewStyle().
			Foreground(colorOrange).
			Italic(true)
)

// ─── Search Styles ───────────────────────────────────────────────────────────

var (
	searchInputStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colorAccent).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)

	noResultsStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Italic(true).
			PaddingLeft(2).
			MarginTop(1)
)
