// Package tui implements the Bubbletea terminal UI for vimango-mcp.
//
// Layout follows the usual Bubbletea shape:
// - Screen constants as iota
// - Single Model struct holds ALL state
// - Update() with type switch
// - Per-screen key handlers returning (tea.Model, tea.Cmd)
// - Vim keys (j/k) for navigation
// - PrevScreen for back navigation
package tui

import (
	"github.com/vimango/vimango-mcp/internal/setup"
	"github.com/vimango/vimango-mcp/internal/store"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── Screens ─────────────────────────────────────────────────────────────────

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenSearch
	ScreenSearchResults
	ScreenRecent
	ScreenNoteDetail
	ScreenContainers
	ScreenSetup
)

// ─── Custom Messages ─────────────────────────────────────────────────────────

type statsLoadedMsg struct {
	stats *store.Stats
	err   error
}

type searchResultsMsg struct {
	results []store.SearchResult
	query   string
	err     error
}

type recentNotesMsg struct {
	notes []store.Note
	err   error
}

type noteDetailMsg struct {
	note *store.Note
	err  error
}

type noteUpdatedMsg struct {
	note *store.Note
	err  error
}

type containersMsg struct {
	kind       store.ContainerKind
	containers []store.Container
	err        error
}

type setupInstallMsg struct {
	result *setup.Result
	err    error
}

// ─── Model ───────────────────────────────────────────────────────────────────

type Model struct {
	store      *store.Store
	Version    string
	Screen     Screen
	PrevScreen Screen
	Width      int
	Height     int
	Cursor     int
	Scroll     int

	// Error display
	ErrorMsg string

	// Dashboard
	Stats *store.Stats

	// Search
	SearchInput   textinput.Model
	SearchQuery   string
	SearchResults []store.SearchResult

	// Recent notes
	RecentNotes []store.Note

	// Note detail
	SelectedNote *store.Note
	DetailScroll int

	// Contexts / folders
	ContainerKind store.ContainerKind
	Containers    []store.Container

	// Setup
	SetupOptions        setup.Options
	SetupAgents         []setup.Agent
	SetupResult         *setup.Result
	SetupError          string
	SetupDone           bool
	SetupInstalling     bool
	SetupInstallingName string
	SetupSpinner        spinner.Model
}

// New creates a TUI model connected to the given store. opts is what the
// setup screen registers with agents.
func New(s *store.Store, version string, opts setup.Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search notes..."
	ti.CharLimit = 256
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return Model{
		store:        s,
		Version:      version,
		Screen:       ScreenDashboard,
		SearchInput:  ti,
		SetupOptions: opts,
		SetupSpinner: sp,
	}
}

// Init loads initial data (stats for the dashboard).
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadStats(m.store),
		tea.EnterAltScreen,
	)
}

// ─── Commands (data loading) ─────────────────────────────────────────────────

func loadStats(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		stats, err := s.Stats()
		return statsLoadedMsg{stats: stats, err: err}
	}
}

func searchNotes(s *store.Store, query string) tea.Cmd {
	return func() tea.Msg {
		results, err := s.SearchNotes(query, 0)
		return searchResultsMsg{results: results, query: query, err: err}
	}
}

func loadRecentNotes(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		notes, err := s.RecentNotes(50)
		return recentNotesMsg{notes: notes, err: err}
	}
}

func loadNoteDetail(s *store.Store, id int64) tea.Cmd {
	return func() tea.Msg {
		n, err := s.GetNoteByID(id)
		return noteDetailMsg{note: n, err: err}
	}
}

func toggleStar(s *store.Store, n *store.Note) tea.Cmd {
	starred := !n.Starred
	id := n.ID
	return func() tea.Msg {
		updated, err := s.UpdateNote(id, store.UpdateNoteParams{Starred: &starred})
		return noteUpdatedMsg{note: updated, err: err}
	}
}

func loadContainers(s *store.Store, kind store.ContainerKind) tea.Cmd {
	return func() tea.Msg {
		var (
			items []store.Container
			err   error
		)
		if kind == store.KindFolder {
			items, err = s.ListFolders()
		} else {
			items, err = s.ListContexts()
		}
		return containersMsg{kind: kind, containers: items, err: err}
	}
}

func installAgent(agentName string, opts setup.Options) tea.Cmd {
	return func() tea.Msg {
		result, err := installAgentFn(agentName, opts)
		return setupInstallMsg{result: result, err: err}
	}
}

var installAgentFn = setup.Install
