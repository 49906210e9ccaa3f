package tui

import "github.com/charmbracelet/lipgloss"

// panes is the screen split: list on the left, preview on the right, both
// the same content height. Widths exclude borders.
type panes struct {
	listW    int
	previewW int
	height   int
}

const (
	listShare = 40 // percent of the terminal width
	chromeW   = 4  // border + padding per panel
	chromeH   = 6  // input row, status bar, top and bottom borders
)

func (m model) panes() panes {
	if m.width <= 0 || m.height <= 0 {
		return panes{listW: 40, previewW: 60, height: 20}
	}
	return panes{
		listW:    max(20, m.width*listShare/100-chromeW),
		previewW: max(20, m.width*(100-listShare)/100-chromeW),
		height:   max(5, m.height-chromeH),
	}
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}
	p := m.panes()

	list := stylePanelBorder.
		Width(p.listW).
		Height(p.height).
		Render(m.renderList(p.listW, p.height))

	m.preview.Width = p.previewW
	m.preview.Height = p.height
	preview := styleActiveBorder.
		Width(p.previewW).
		Height(p.height).
		Render(m.preview.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.filterInput.View(),
		lipgloss.JoinHorizontal(lipgloss.Top, list, preview),
		m.statusBar(),
	)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps a terminal cell to a panel and, inside the list, the result
// index under it. Row 0 is the input, row 1 the panels' top border.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	p := m.panes()
	top := 2
	if y < top || y >= top+p.height {
		return regionNone, -1
	}
	// column 0 and listW+1 are the list's borders
	switch {
	case x >= 1 && x <= p.listW:
		return regionList, m.listOffset + (y-top)/linesPerItem
	case x > p.listW+2:
		return regionPreview, -1
	}
	return regionNone, -1
}
