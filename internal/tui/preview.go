package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/chatlens/internal/render"
	"github.com/Zuo-Peng/chatlens/internal/search"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

// previewContext is how many messages around the hit the preview loads.
const previewContext = 50

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	sessionID string
	seq       int
	content   string
	hitLine   int
	err       error
}

// loadPreviewCmd returns a tea.Cmd that renders the conversation preview async.
func loadPreviewCmd(db *store.DB, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.Conversation(db, r.SessionID, render.Options{
			HitSeq:  r.Seq,
			Context: previewContext,
			Width:   width,
			Query:   query,
		})
		return previewRenderedMsg{
			sessionID: r.SessionID,
			seq:       r.Seq,
			content:   content,
			hitLine:   hitLine,
			err:       err,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
