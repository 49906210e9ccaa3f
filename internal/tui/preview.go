package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/convman/internal/render"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	key     string
	content string
	hitLine int
}

// loadPreviewCmd returns a tea.Cmd that renders the conversation preview async.
func loadPreviewCmd(it Item, e entry, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine := render.RenderConversation(it.Title, it.URL, it.Messages, render.Options{
			HitIndex: e.message,
			Context:  -1,
			Width:    width,
			Query:    query,
		})
		return previewRenderedMsg{key: entryKey(e), content: content, hitLine: hitLine}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
