package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.panes()

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Enter):
		return m.choose(exitCopy)
	case key.Matches(msg, keys.Open):
		return m.choose(exitOpen)
	case key.Matches(msg, keys.Toggle):
		return m.toggleMode()
	case key.Matches(msg, keys.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		return m.moveCursor(1)
	case key.Matches(msg, keys.PreviewUp):
		m.preview.LineUp(p.height / 2)
		return m, nil
	case key.Matches(msg, keys.PreviewDn):
		m.preview.LineDown(p.height / 2)
		return m, nil
	case key.Matches(msg, keys.PageUp):
		m.preview.LineUp(p.height)
		return m, nil
	case key.Matches(msg, keys.PageDown):
		m.preview.LineDown(p.height)
		return m, nil
	}

	// everything else edits the query
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if q := m.filterInput.Value(); q != m.query {
		m.query = q
		return m, tea.Batch(cmd, m.scheduleQuery())
	}
	return m, cmd
}

func (m model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.results) {
		return m, nil
	}
	m.cursor = next
	m.adjustListScroll(m.panes().height)
	return m, m.loadCurrentPreview()
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || len(m.results) == 0 {
		return m, nil
	}
	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown

	region, idx := m.hitTest(msg.X, msg.Y)
	switch region {
	case regionList:
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.listOffset = max(0, m.listOffset-1)
		case msg.Button == tea.MouseButtonWheelDown:
			last := max(0, len(m.results)-m.panes().height/linesPerItem)
			m.listOffset = min(last, m.listOffset+1)
		case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if idx >= 0 && idx < len(m.results) && idx != m.cursor {
				return m.moveCursor(idx - m.cursor)
			}
		}
		return m, nil

	case regionPreview:
		if !wheel {
			return m, nil
		}
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}
	return m, nil
}
