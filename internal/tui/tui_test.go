package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	convmodel "github.com/Zuo-Peng/convman/internal/model"
	"github.com/Zuo-Peng/convman/internal/search"
)

func testItems() []Item {
	return []Item{
		PageItem("Deploy checklist", "https://www.genspark.ai/agents?id=c1", []convmodel.ExtractedMessage{
			{Role: convmodel.RoleUser, Content: "what should I check before deploy?"},
			{Role: convmodel.RoleAssistant, Content: "check the error budget"},
		}),
		SavedItem(convmodel.Conversation{
			ID:      "conv_1",
			Title:   "Error handling in Go",
			SavedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Messages: []convmodel.ExtractedMessage{
				{Role: convmodel.RoleUser, Content: "wrap errors with %w"},
			},
		}),
	}
}

func TestSearchItems(t *testing.T) {
	got := searchItems(search.New(search.DefaultParams()), testItems(), "ERROR")
	require.Len(t, got, 2)
	assert.Equal(t, entry{item: 0, message: 1, snippet: "check the error budget"}, got[0])
	assert.Equal(t, 1, got[1].item)
	assert.Equal(t, 0, got[1].message)
}

func TestFilterItems(t *testing.T) {
	items := testItems()

	all := filterItems(items, "")
	require.Len(t, all, 2)
	assert.Equal(t, -1, all[0].message)
	assert.Equal(t, "what should I check before deploy?", all[0].snippet)

	got := filterItems(items, "ehg")
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].item)

	assert.Empty(t, filterItems(items, "zzz"))
}

func TestItemRef(t *testing.T) {
	items := testItems()
	assert.Equal(t, "https://www.genspark.ai/agents?id=c1", items[0].ref())
	assert.Equal(t, "conv_1", items[1].ref())
	assert.Equal(t, "2025-03-01", items[1].Date)
	assert.Equal(t, sourceSaved, items[1].Source)
}

func TestUpdateAppliesCurrentResults(t *testing.T) {
	m := initialModel(testItems(), nil, modeSearch, "error")

	next, _ := m.Update(searchResultMsg{query: "stale", results: []entry{{item: 0}}})
	assert.Empty(t, next.(model).results)

	next, cmd := m.Update(searchResultMsg{query: "error", results: searchItems(m.engine, m.items, "error")})
	nm := next.(model)
	assert.Len(t, nm.results, 2)
	require.NotNil(t, cmd)

	msg := loadPreviewCmd(nm.items[0], nm.results[0], "error", 60)()
	rendered := msg.(previewRenderedMsg)
	assert.Equal(t, "0:1", rendered.key)
	assert.Contains(t, rendered.content, "Deploy checklist")

	next, _ = nm.Update(rendered)
	assert.Equal(t, "0:1", next.(model).previewKey)
}

func TestUpdateCursorAndEnter(t *testing.T) {
	m := initialModel(testItems(), nil, modeList, "")
	next, _ := m.Update(searchResultMsg{mode: modeList, query: "", results: filterItems(m.items, "")})
	m = next.(model)
	require.Len(t, m.results, 2)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(model)
	assert.Equal(t, 1, m.cursor)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(model)
	assert.Equal(t, 1, m.cursor, "cursor stops at the last result")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	require.NotNil(t, m.chosen)
	assert.Equal(t, 1, m.chosen.item)
	assert.Equal(t, exitCopy, m.action)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
}

func TestUpdateDropsResultsOfOtherMode(t *testing.T) {
	m := initialModel(testItems(), nil, modeList, "")
	next, _ := m.Update(searchResultMsg{mode: modeSearch, query: "", results: []entry{{item: 0}}})
	assert.Empty(t, next.(model).results)
}

func TestToggleMode(t *testing.T) {
	m := initialModel(testItems(), nil, modeList, "error")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(model)
	assert.Equal(t, modeSearch, m.mode)
	assert.Equal(t, "Search messages...", m.filterInput.Placeholder)
	require.NotNil(t, cmd)

	res, ok := cmd().(searchResultMsg)
	require.True(t, ok)
	assert.Equal(t, modeSearch, res.mode)
	assert.Len(t, res.results, 2, "content search finds both error mentions")

	next, _ = m.Update(res)
	assert.Len(t, next.(model).results, 2)
}

func TestOpenKeyChoosesEntry(t *testing.T) {
	m := initialModel(testItems(), nil, modeList, "")
	next, _ := m.Update(searchResultMsg{mode: modeList, results: filterItems(m.items, "")})

	next, cmd := next.(model).Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	m = next.(model)
	require.NotNil(t, m.chosen)
	assert.Equal(t, 0, m.chosen.item)
	assert.Equal(t, exitOpen, m.action)
	assert.NotNil(t, cmd)
}

func TestEnterWithoutResults(t *testing.T) {
	m := initialModel(testItems(), nil, modeSearch, "")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, next.(model).chosen)
	assert.False(t, next.(model).quitting)
}

func TestHitTest(t *testing.T) {
	m := initialModel(testItems(), nil, modeList, "")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(model)
	p := m.panes()
	assert.Equal(t, 36, p.listW)
	assert.Equal(t, 56, p.previewW)
	assert.Equal(t, 24, p.height)

	region, idx := m.hitTest(5, 2)
	assert.Equal(t, regionList, region)
	assert.Equal(t, 0, idx)

	region, idx = m.hitTest(5, 5)
	assert.Equal(t, regionList, region)
	assert.Equal(t, 1, idx)

	region, _ = m.hitTest(60, 10)
	assert.Equal(t, regionPreview, region)

	region, _ = m.hitTest(5, 0)
	assert.Equal(t, regionNone, region)
}

func TestFormatResultLine(t *testing.T) {
	items := testItems()
	rows := formatResultLine(items[1], entry{item: 1, message: 0, snippet: "wrap\nerrors"}, 60, true)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "03-01")
	assert.Contains(t, rows[0], "#1 Error handling in Go")
	assert.Contains(t, rows[1], "wrap errors")
	assert.False(t, strings.Contains(rows[1], "\n"))
}

func TestViewBeforeReady(t *testing.T) {
	m := initialModel(testItems(), nil, modeSearch, "")
	assert.Equal(t, "", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := next.(model).View()
	assert.Contains(t, view, "0 results")
}
