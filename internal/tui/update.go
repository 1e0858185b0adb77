package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vimango/vimango-mcp/internal/setup"
	"github.com/vimango/vimango-mcp/internal/store"
)

// ─── Update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// A focused search input swallows everything but enter/esc.
		if m.Screen == ScreenSearch && m.SearchInput.Focused() {
			return m.handleSearchInputKeys(msg)
		}
		return m.handleKeyPress(msg.String())

	// ─── Data loaded messages ────────────────────────────────────────────
	case statsLoadedMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.Stats = msg.stats
		return m, nil

	case searchResultsMsg:
		if msg.err != nil {
			// Stay on the input so the query can be fixed.
			m.ErrorMsg = msg.err.Error()
			m.SearchInput.Focus()
			return m, nil
		}
		m.SearchResults = msg.results
		m.SearchQuery = msg.query
		m.Screen = ScreenSearchResults
		m.Cursor = 0
		m.Scroll = 0
		return m, nil

	case recentNotesMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.RecentNotes = msg.notes
		return m, nil

	case noteDetailMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.SelectedNote = msg.note
		m.Screen = ScreenNoteDetail
		m.DetailScroll = 0
		return m, nil

	case noteUpdatedMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.SelectedNote = msg.note
		return m, nil

	case containersMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.ContainerKind = msg.kind
		m.Containers = msg.containers
		return m, nil

	case setupInstallMsg:
		m.SetupInstalling = false
		m.SetupDone = true
		if msg.err != nil {
			m.SetupError = msg.err.Error()
			return m, nil
		}
		m.SetupResult = msg.result
		m.SetupError = ""
		return m, nil

	case spinner.TickMsg:
		if m.SetupInstalling {
			var cmd tea.Cmd
			m.SetupSpinner, cmd = m.SetupSpinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// ─── Key Press Router ────────────────────────────────────────────────────────

func (m Model) handleKeyPress(key string) (tea.Model, tea.Cmd) {
	m.ErrorMsg = ""

	switch m.Screen {
	case ScreenDashboard:
		return m.handleDashboardKeys(key)
	case ScreenSearch:
		return m.handleSearchKeys(key)
	case ScreenSearchResults:
		return m.handleSearchResultsKeys(key)
	case ScreenRecent:
		return m.handleRecentKeys(key)
	case ScreenNoteDetail:
		return m.handleNoteDetailKeys(key)
	case ScreenContainers:
		return m.handleContainersKeys(key)
	case ScreenSetup:
		return m.handleSetupKeys(key)
	}
	return m, nil
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

var dashboardMenuItems = []string{
	"Search notes",
	"Recent notes",
	"Browse contexts",
	"Browse folders",
	"Register with an agent",
	"Quit",
}

func (m Model) handleDashboardKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(dashboardMenuItems)-1 {
			m.Cursor++
		}
	case "enter", " ":
		return m.handleDashboardSelection()
	case "s", "/":
		return m.openSearch(ScreenDashboard)
	case "r":
		return m.openRecent()
	case "c":
		return m.openContainers(store.KindContext)
	case "f":
		return m.openContainers(store.KindFolder)
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleDashboardSelection() (tea.Model, tea.Cmd) {
	switch m.Cursor {
	case 0:
		return m.openSearch(ScreenDashboard)
	case 1:
		return m.openRecent()
	case 2:
		return m.openContainers(store.KindContext)
	case 3:
		return m.openContainers(store.KindFolder)
	case 4:
		m.PrevScreen = ScreenDashboard
		m.Screen = ScreenSetup
		m.Cursor = 0
		m.SetupAgents = setup.SupportedAgents()
		m.SetupResult = nil
		m.SetupError = ""
		m.SetupDone = false
		m.SetupInstalling = false
		m.SetupInstallingName = ""
		return m, nil
	case 5:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) openSearch(from Screen) (tea.Model, tea.Cmd) {
	m.PrevScreen = from
	m.Screen = ScreenSearch
	m.Cursor = 0
	m.SearchInput.SetValue("")
	m.SearchInput.Focus()
	return m, nil
}

func (m Model) openRecent() (tea.Model, tea.Cmd) {
	m.PrevScreen = ScreenDashboard
	m.Screen = ScreenRecent
	m.Cursor = 0
	m.Scroll = 0
	return m, loadRecentNotes(m.store)
}

func (m Model) openContainers(kind store.ContainerKind) (tea.Model, tea.Cmd) {
	m.PrevScreen = ScreenDashboard
	m.Screen = ScreenContainers
	m.ContainerKind = kind
	m.Containers = nil
	m.Cursor = 0
	m.Scroll = 0
	return m, loadContainers(m.store, kind)
}

// ─── Search Input ────────────────────────────────────────────────────────────

func (m Model) handleSearchInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := m.SearchInput.Value()
		if query != "" {
			m.ErrorMsg = ""
			m.SearchInput.Blur()
			return m, searchNotes(m.store, query)
		}
		return m, nil
	case "esc":
		m.SearchInput.Blur()
		m.Screen = m.PrevScreen
		m.Cursor = 0
		return m, m.refreshScreen(m.PrevScreen)
	}

	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		m.Screen = m.PrevScreen
		m.Cursor = 0
		return m, m.refreshScreen(m.PrevScreen)
	case "i", "/":
		m.SearchInput.Focus()
		return m, nil
	}
	return m, nil
}

// ─── Search Results ──────────────────────────────────────────────────────────

func (m Model) handleSearchResultsKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k", "down", "j":
		m.moveCursor(key, len(m.SearchResults), m.visibleRows(10, 2))
	case "enter":
		if m.Cursor < len(m.SearchResults) {
			m.PrevScreen = ScreenSearchResults
			return m, loadNoteDetail(m.store, m.SearchResults[m.Cursor].ID)
		}
	case "/", "s":
		m.PrevScreen = ScreenSearchResults
		m.Screen = ScreenSearch
		m.SearchInput.Focus()
		return m, nil
	case "esc", "q":
		m.PrevScreen = ScreenDashboard
		m.Screen = ScreenSearch
		m.Cursor = 0
		m.Scroll = 0
		m.SearchInput.Focus()
		return m, nil
	}
	return m, nil
}

// ─── Recent Notes ────────────────────────────────────────────────────────────

func (m Model) handleRecentKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k", "down", "j":
		m.moveCursor(key, len(m.RecentNotes), m.visibleRows(8, 2))
	case "enter":
		if m.Cursor < len(m.RecentNotes) {
			m.PrevScreen = ScreenRecent
			return m, loadNoteDetail(m.store, m.RecentNotes[m.Cursor].ID)
		}
	case "esc", "q":
		m.Screen = ScreenDashboard
		m.Cursor = 0
		m.Scroll = 0
		return m, loadStats(m.store)
	}
	return m, nil
}

// ─── Note Detail ─────────────────────────────────────────────────────────────

func (m Model) handleNoteDetailKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.DetailScroll > 0 {
			m.DetailScroll--
		}
	case "down", "j":
		m.DetailScroll++
	case "*":
		if m.SelectedNote != nil {
			return m, toggleStar(m.store, m.SelectedNote)
		}
	case "esc", "q":
		m.Screen = m.PrevScreen
		m.Cursor = 0
		m.DetailScroll = 0
		return m, m.refreshScreen(m.PrevScreen)
	}
	return m, nil
}

// ─── Contexts / Folders ──────────────────────────────────────────────────────

func (m Model) handleContainersKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k", "down", "j":
		m.moveCursor(key, len(m.Containers), m.visibleRows(8, 1))
	case "tab":
		next := store.KindFolder
		if m.ContainerKind == store.KindFolder {
			next = store.KindContext
		}
		return m.openContainers(next)
	case "esc", "q":
		m.Screen = ScreenDashboard
		m.Cursor = 0
		m.Scroll = 0
		return m, loadStats(m.store)
	}
	return m, nil
}

// ─── Setup ───────────────────────────────────────────────────────────────────

func (m Model) handleSetupKeys(key string) (tea.Model, tea.Cmd) {
	if m.SetupInstalling {
		return m, nil
	}

	if m.SetupDone {
		switch key {
		case "esc", "q", "enter":
			m.Screen = ScreenDashboard
			m.Cursor = 0
			m.SetupDone = false
			m.SetupResult = nil
			m.SetupError = ""
			return m, loadStats(m.store)
		}
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.SetupAgents)-1 {
			m.Cursor++
		}
	case "enter":
		if m.Cursor < len(m.SetupAgents) {
			agent := m.SetupAgents[m.Cursor]
			m.SetupInstalling = true
			m.SetupInstallingName = agent.Name
			return m, tea.Batch(m.SetupSpinner.Tick, installAgent(agent.Name, m.SetupOptions))
		}
	case "esc", "q":
		m.Screen = ScreenDashboard
		m.Cursor = 0
		return m, loadStats(m.store)
	}
	return m, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// visibleRows is how many list items fit below chrome lines of header, at
// perItem lines each.
func (m Model) visibleRows(chrome, perItem int) int {
	rows := (m.Height - chrome) / perItem
	if rows < 3 {
		rows = 3
	}
	return rows
}

// moveCursor steps the cursor through n items and keeps it inside the
// scroll window.
func (m *Model) moveCursor(key string, n, visible int) {
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < n-1 {
			m.Cursor++
		}
	}
	if m.Cursor < m.Scroll {
		m.Scroll = m.Cursor
	}
	if m.Cursor >= m.Scroll+visible {
		m.Scroll = m.Cursor - visible + 1
	}
}

// refreshScreen returns the data-loading Cmd for screen, so going back
// shows fresh rows.
func (m Model) refreshScreen(screen Screen) tea.Cmd {
	switch screen {
	case ScreenDashboard:
		return loadStats(m.store)
	case ScreenRecent:
		return loadRecentNotes(m.store)
	case ScreenContainers:
		return loadContainers(m.store, m.ContainerKind)
	default:
		return nil
	}
}
