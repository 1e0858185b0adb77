package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vimango/vimango-mcp/internal/store"
)

// ─── Logo ────────────────────────────────────────────────────────────────────

func renderLogo(version string) string {
	logoText := []string{
		`__   _(_)_ __ ___   __ _ _ __   __ _  ___  `,
		`\ \ / / | '_ ` + "`" + ` _ \ / _` + "`" + ` | '_ \ / _` + "`" + ` |/ _ \ `,
		` \ V /| | | | | | | (_| | | | | (_| | (_) |`,
		`  \_/ |_|_| |_| |_|\__,_|_| |_|\__, |\___/ `,
		`                               |___/       `,
	}

	frameStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorOverlay).
		Padding(0, 1).
		MarginBottom(1)

	textStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	taglineStyle := lipgloss.NewStyle().Foreground(colorSubtext).Italic(true)

	var b strings.Builder
	for _, line := range logoText {
		b.WriteString(textStyle.Render(line) + "\n")
	}
	b.WriteString(taglineStyle.Render(":notes for your agents  " + version))

	return frameStyle.Render(b.String()) + "\n"
}

// ─── View (main router) ─────────────────────────────────────────────────────

func (m Model) View() string {
	var content string

	switch m.Screen {
	case ScreenDashboard:
		content = m.viewDashboard()
	case ScreenSearch:
		content = m.viewSearch()
	case ScreenSearchResults:
		content = m.viewSearchResults()
	case ScreenRecent:
		content = m.viewRecent()
	case ScreenNoteDetail:
		content = m.viewNoteDetail()
	case ScreenContainers:
		content = m.viewContainers()
	case ScreenSetup:
		content = m.viewSetup()
	default:
		content = "Unknown screen"
	}

	if m.ErrorMsg != "" {
		content += "\n" + errorStyle.Render("Error: "+m.ErrorMsg)
	}

	return appStyle.Render(content)
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

func (m Model) viewDashboard() string {
	var b strings.Builder

	b.WriteString(renderLogo(m.Version))
	b.WriteString("\n")

	if m.Stats != nil {
		st := m.Stats
		index := indexDownStyle.Render("index unavailable")
		if st.IndexAvailable {
			index = indexUpStyle.Render(fmt.Sprintf("index online (%d entries)", st.IndexEntries))
		}
		statsContent := fmt.Sprintf(
			"%s %s\n%s %s\n%s %s\n%s %s\n\n  %s  %s",
			statNumberStyle.Render(fmt.Sprintf("%d", st.Notes)),
			statLabelStyle.Render("notes"),
			statNumberStyle.Render(fmt.Sprintf("%d", st.Unsynced)),
			statLabelStyle.Render("awaiting sync"),
			statNumberStyle.Render(fmt.Sprintf("%d", st.Contexts)),
			statLabelStyle.Render("contexts"),
			statNumberStyle.Render(fmt.Sprintf("%d", st.Folders)),
			statLabelStyle.Render("folders"),
			index,
			timestampStyle.Render(st.Addressing+" addressing"),
		)
		b.WriteString(statCardStyle.Render(statsContent))
		b.WriteString("\n")
	} else {
		b.WriteString(statCardStyle.Render("Loading stats..."))
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("  Actions"))
	b.WriteString("\n")

	for i, item := range dashboardMenuItems {
		if i == m.Cursor {
			b.WriteString(menuSelectedStyle.Render("▸ " + item))
		} else {
			b.WriteString(menuItemStyle.Render("  " + item))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter select • s search • r recent • c contexts • f folders • q quit"))

	return b.String()
}

// ─── Search ──────────────────────────────────────────────────────────────────

func (m Model) viewSearch() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Search Notes"))
	b.WriteString("\n\n")

	b.WriteString(searchInputStyle.Render(m.SearchInput.View()))
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render(fmt.Sprintf("  At least %d characters; vim* matches a prefix • enter search • esc back", store.MinQueryLength)))

	return b.String()
}

// ─── Search Results ──────────────────────────────────────────────────────────

func (m Model) viewSearchResults() string {
	var b strings.Builder

	count := len(m.SearchResults)
	header := fmt.Sprintf("  Search: %q · %d result", m.SearchQuery, count)
	if count != 1 {
		header += "s"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if count == 0 {
		b.WriteString(noResultsStyle.Render("No notes matched. Notes created here show up after the next sync."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  / new search • esc back"))
		return b.String()
	}

	visible := m.visibleRows(10, 2)
	end := min(m.Scroll+visible, count)

	for i := m.Scroll; i < end; i++ {
		r := m.SearchResults[i]
		lead := rankStyle.Render(fmt.Sprintf("%2d.", r.Rank))
		b.WriteString(m.renderNoteListItem(i, lead, r.Title, r.Context, r.Folder, r.TID, ""))
	}

	if count > visible {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, count))))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter open • / search • esc back"))

	return b.String()
}

// ─── Recent Notes ────────────────────────────────────────────────────────────

func (m Model) viewRecent() string {
	var b strings.Builder

	count := len(m.RecentNotes)
	b.WriteString(headerStyle.Render(fmt.Sprintf("  Recent Notes · %d shown", count)))
	b.WriteString("\n")

	if count == 0 {
		b.WriteString(noResultsStyle.Render("No notes yet."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  esc back"))
		return b.String()
	}

	visible := m.visibleRows(8, 2)
	end := min(m.Scroll+visible, count)

	for i := m.Scroll; i < end; i++ {
		n := m.RecentNotes[i]
		lead := idStyle.Render(fmt.Sprintf("#%-5d", n.ID))
		if n.Starred {
			lead += starStyle.Render("★")
		} else {
			lead += " "
		}
		b.WriteString(m.renderNoteListItem(i, lead, n.Title, n.Context, n.Folder, n.TID, n.Modified))
	}

	if count > visible {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, count))))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter open • esc back"))

	return b.String()
}

// ─── Note Detail ─────────────────────────────────────────────────────────────

func (m Model) viewNoteDetail() string {
	var b strings.Builder

	if m.SelectedNote == nil {
		b.WriteString(headerStyle.Render("  Note"))
		b.WriteString("\n")
		b.WriteString(noResultsStyle.Render("Loading..."))
		return b.String()
	}

	n := m.SelectedNote
	title := n.Title
	if n.Starred {
		title += " " + starStyle.Render("★")
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("  Note #%d", n.ID)))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", detailLabelStyle.Render(label), value))
	}
	row("Title:", detailValueStyle.Bold(true).Render(title))
	row("Context:", contextStyle.Render(n.Context))
	row("Folder:", folderStyle.Render(n.Folder))
	if n.TID != nil {
		row("tid:", idStyle.Render(fmt.Sprintf("%d", *n.TID)))
	} else {
		row("tid:", pendingStyle.Render("pending sync"))
	}
	row("Added:", timestampStyle.Render(n.Added))
	row("Modified:", timestampStyle.Render(n.Modified))

	b.WriteString("\n")
	b.WriteString(sectionHeadingStyle.Render("  Body"))
	b.WriteString("\n")

	lines := strings.Split(n.Body, "\n")
	maxLines := m.Height - 18
	if maxLines < 5 {
		maxLines = 5
	}

	scroll := m.DetailScroll
	if maxScroll := len(lines) - maxLines; scroll > maxScroll {
		scroll = max(maxScroll, 0)
	}
	end := min(scroll+maxLines, len(lines))

	for i := scroll; i < end; i++ {
		b.WriteString(detailContentStyle.Render(lines[i]))
		b.WriteString("\n")
	}

	if len(lines) > maxLines {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("line %d-%d of %d", scroll+1, end, len(lines)))))
	}

	b.WriteString(helpStyle.Render("\n  j/k scroll • * toggle star • esc back"))

	return b.String()
}

// ─── Contexts / Folders ──────────────────────────────────────────────────────

func (m Model) viewContainers() string {
	var b strings.Builder

	label := "Contexts"
	nameStyle := contextStyle
	if m.ContainerKind == store.KindFolder {
		label = "Folders"
		nameStyle = folderStyle
	}

	count := len(m.Containers)
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %s · %d", label, count)))
	b.WriteString("\n")

	if count == 0 {
		b.WriteString(noResultsStyle.Render("Loading..."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  tab switch • esc back"))
		return b.String()
	}

	visible := m.visibleRows(8, 1)
	end := min(m.Scroll+visible, count)

	for i := m.Scroll; i < end; i++ {
		c := m.Containers[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		star := " "
		if c.Starred {
			star = starStyle.Render("★")
		}
		b.WriteString(fmt.Sprintf("%s%s %s  %s\n",
			cursor,
			star,
			nameStyle.Render(fmt.Sprintf("%-24s", c.Title)),
			idStyle.Render(c.Ref.String())))
	}

	if count > visible {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, count))))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • tab switch • esc back"))

	return b.String()
}

// ─── Setup ───────────────────────────────────────────────────────────────────

func (m Model) viewSetup() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Setup · Register vimango with an agent"))
	b.WriteString("\n")

	if m.SetupInstalling {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  %s Registering with %s...\n",
			m.SetupSpinner.View(),
			lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(m.SetupInstallingName)))
		if m.SetupInstallingName == "claude-code" {
			b.WriteString(timestampStyle.Render("  Running claude mcp add"))
			b.WriteString("\n")
		}
		return b.String()
	}

	if m.SetupDone {
		if m.SetupError != "" {
			b.WriteString(errorStyle.Render("  ✗ Registration failed: " + m.SetupError))
			b.WriteString("\n\n")
		} else if m.SetupResult != nil {
			b.WriteString(fmt.Sprintf("  %s\n",
				successStyle.Render("✓ Registered with "+m.SetupResult.Agent)))
			b.WriteString(fmt.Sprintf("  %s %s\n\n",
				detailLabelStyle.Render("Location:"),
				folderStyle.Render(m.SetupResult.Destination)))

			bin, args := m.SetupOptions.Command()
			b.WriteString(sectionHeadingStyle.Render("  Next Steps"))
			b.WriteString("\n")
			b.WriteString(detailContentStyle.Render("1. Restart " + m.SetupResult.Agent))
			b.WriteString("\n")
			b.WriteString(detailContentStyle.Render("2. The agent will launch: " + bin + " " + strings.Join(args, " ")))
			b.WriteString("\n")
		}

		b.WriteString(helpStyle.Render("\n  enter/esc back to dashboard"))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Select an agent"))
	b.WriteString("\n\n")

	for i, agent := range m.SetupAgents {
		if i == m.Cursor {
			b.WriteString(menuSelectedStyle.Render("▸ " + agent.Description))
		} else {
			b.WriteString(menuItemStyle.Render("  " + agent.Description))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("      %s %s\n\n",
			detailLabelStyle.Render("Writes to:"),
			timestampStyle.Render(agent.InstallDir)))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter register • esc back"))

	return b.String()
}

// ─── Shared Renderers ────────────────────────────────────────────────────────

func (m Model) renderNoteListItem(index int, lead, title, context, folder string, tid *int64, when string) string {
	cursor := "  "
	style := listItemStyle
	if index == m.Cursor {
		cursor = "▸ "
		style = listSelectedStyle
	}

	line := fmt.Sprintf("%s%s %s", cursor, lead, style.Render(truncateStr(title, 50)))
	if when != "" {
		line += "  " + timestampStyle.Render(when)
	}

	meta := contextStyle.Render(context) + " / " + folderStyle.Render(folder)
	if tid == nil {
		meta += "  " + pendingStyle.Render("pending sync")
	} else {
		meta += "  " + idStyle.Render(fmt.Sprintf("tid %d", *tid))
	}

	return line + "\n      " + meta + "\n"
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func truncateStr(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
