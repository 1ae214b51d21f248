package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlens/internal/search"
)

func TestFormatResultLine(t *testing.T) {
	r := search.Result{
		SessionID:   "abc",
		SessionName: "Alice & Bob",
		Seq:         3,
		Timestamp:   "2023-02-01T10:00:00Z",
		Author:      "Alice",
		Snippet:     "...dijo >>>hola<<< mundo\nadiós",
	}

	lines := formatResultLine(r, 80, true)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "02-01")
	assert.Contains(t, lines[0], "Alice")
	assert.Contains(t, lines[0], "Alice & Bob")
	assert.Contains(t, lines[1], "...dijo hola mundo adiós")
	assert.NotContains(t, lines[1], ">>>")

	narrow := formatResultLine(r, 20, false)
	assert.LessOrEqual(t, lipgloss.Width(narrow[1]), 20)
	assert.NotContains(t, narrow[0], "Alice & Bob")
}

func TestSearchResultsForStaleQueryAreDropped(t *testing.T) {
	m := initialModel(nil, "playa", search.Options{})

	next, _ := m.Update(searchResultMsg{query: "play", results: []search.Result{{SessionID: "a"}}})
	assert.Empty(t, next.(model).results)

	next, cmd := m.Update(searchResultMsg{query: "playa", results: []search.Result{{SessionID: "a"}, {SessionID: "b"}}})
	assert.Len(t, next.(model).results, 2)
	assert.NotNil(t, cmd)
}

func TestEnterPicksCurrentResult(t *testing.T) {
	m := initialModel(nil, "", search.Options{})
	m.results = []search.Result{{SessionID: "a", Seq: 1}, {SessionID: "b", Seq: 7}}
	m.cursor = 1

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	fm := next.(model)
	require.NotNil(t, fm.picked)
	assert.Equal(t, 7, fm.picked.Seq)
	assert.False(t, fm.openPicked)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	fm = next.(model)
	require.NotNil(t, fm.picked)
	assert.True(t, fm.openPicked)
}
