package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		label := "No results"
		if m.mode == modeSearch && strings.TrimSpace(m.query) == "" {
			label = "Type to search messages"
		}
		return styleEmpty.Width(width).Height(height).Render(label)
	}

	lines := make([]string, 0, height)
	for i := m.listOffset; i < len(m.results) && len(lines)+linesPerItem <= height; i++ {
		e := m.results[i]
		lines = append(lines, formatResultLine(m.items[e.item], e, width, i == m.cursor)...)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatResultLine lays a result out on two rows: cursor, source badge, short
// date and title, then the dimmed snippet. A message hit prefixes the title
// with its 1-based message number.
func formatResultLine(it Item, e entry, width int, selected bool) []string {
	badge := it.Source
	switch it.Source {
	case sourcePage:
		badge = styleSourcePage.Render(sourcePage)
	case sourceSaved:
		badge = styleSourceSaved.Render(sourceSaved)
	}

	date := "     "
	if len(it.Date) >= 10 {
		date = it.Date[5:10] // MM-DD
	}

	title := flatten(it.Title)
	if e.message >= 0 {
		title = fmt.Sprintf("#%d %s", e.message+1, title)
	}
	// cursor(2) + badge(6) + date(6) + margin(2)
	title = clip(title, width-16)

	cursor := "  "
	if selected {
		cursor = styleListSelected.Render("> ")
	}
	head := fmt.Sprintf("%s%s %s %s", cursor, badge, date, title)
	snippet := "    " + styleSnippet.Render(clip(flatten(e.snippet), width-4))
	return []string{head, snippet}
}

func flatten(s string) string {
	return strings.NewReplacer("\n", " ", "\t", " ").Replace(s)
}

func clip(s string, w int) string {
	w = max(0, w)
	if runewidth.StringWidth(s) <= w {
		return s
	}
	return runewidth.Truncate(s, w, "")
}

// adjustListScroll keeps the cursor inside the visible window.
func (m *model) adjustListScroll(listHeight int) {
	visible := max(1, listHeight/linesPerItem)
	switch {
	case m.cursor < m.listOffset:
		m.listOffset = m.cursor
	case m.cursor >= m.listOffset+visible:
		m.listOffset = m.cursor - visible + 1
	}
}
