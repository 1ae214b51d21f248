package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatlens/internal/search"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

// authorWidth is the column reserved for the author name.
const authorWidth = 12

// renderList renders the left panel: search results list with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No results")
		return empty
	}

	var lines []string
	for i, r := range m.results {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		rows := formatResultLine(r, width, i == m.cursor)
		lines = append(lines, rows...)
	}

	// Pad remaining lines
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatResultLine formats a single search result as two lines:
//
//	line 1: [>] MM-DD author  session
//	line 2:    snippet (dimmed)
func formatResultLine(r search.Result, width int, selected bool) []string {
	// "2023-02-01T10:00:00Z" -> "02-01"
	date := r.Timestamp
	if len(date) >= 10 {
		date = date[5:10]
	}

	author := runewidth.Truncate(r.Author, authorWidth, "")
	author = styleAuthor.Render(runewidth.FillRight(author, authorWidth))

	// Truncate session name to fit width: leave room for prefix, date and author
	name := strings.ReplaceAll(r.SessionName, "\n", " ")
	nameMax := width - 2 - 6 - authorWidth - 2
	if nameMax < 0 {
		nameMax = 0
	}
	if runewidth.StringWidth(name) > nameMax {
		name = runewidth.Truncate(name, nameMax, "")
	}
	name = styleSessionName.Render(name)

	line1 := fmt.Sprintf("%s %s %s", date, author, name)
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	// Line 2: snippet (dimmed, indented)
	snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\t", " ")
	snippet = strings.ReplaceAll(snippet, ">>>", "")
	snippet = strings.ReplaceAll(snippet, "<<<", "")
	snippetMax := width - 4 // indent
	if snippetMax < 0 {
		snippetMax = 0
	}
	if runewidth.StringWidth(snippet) > snippetMax {
		snippet = runewidth.Truncate(snippet, snippetMax, "")
	}
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(snippet)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
