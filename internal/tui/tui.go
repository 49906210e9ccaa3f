package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/convman/internal/open"
	"github.com/Zuo-Peng/convman/internal/search"
)

const debounceDelay = 200 * time.Millisecond

// tuiMode picks what the query matches: message content, or item titles.
type tuiMode int

const (
	modeSearch tuiMode = iota
	modeList
)

func (md tuiMode) String() string {
	if md == modeList {
		return "filter"
	}
	return "search"
}

func (md tuiMode) placeholder() string {
	if md == modeList {
		return "Filter titles..."
	}
	return "Search messages..."
}

// exitAction is what happens to the chosen entry once the program exits.
type exitAction int

const (
	exitNone exitAction = iota
	exitCopy
	exitOpen
)

type searchResultMsg struct {
	mode    tuiMode
	query   string
	results []entry
}

type debounceTickMsg struct {
	mode  tuiMode
	query string
}

type model struct {
	items  []Item
	engine *search.Engine
	mode   tuiMode
	query  string

	results    []entry
	cursor     int
	listOffset int

	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string // entryKey of the rendered preview

	width, height int
	ready         bool

	quitting bool
	chosen   *entry
	action   exitAction
}

func newInput(mode tuiMode, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = mode.placeholder()
	ti.Focus()
	ti.SetValue(value)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256
	return ti
}

func initialModel(items []Item, engine *search.Engine, mode tuiMode, query string) model {
	if engine == nil {
		engine = search.New(search.DefaultParams())
	}
	return model{
		items:       items,
		engine:      engine,
		mode:        mode,
		query:       query,
		filterInput: newInput(mode, query),
		preview:     viewport.New(0, 0),
	}
}

// Run searches message content across items. Enter copies the selected
// conversation's link, Ctrl-O opens it in the browser.
func Run(items []Item, engine *search.Engine, query string) error {
	return run(initialModel(items, engine, modeSearch, query))
}

// RunList lists items with type-to-filter on titles. Tab switches to content
// search over the same items.
func RunList(items []Item, engine *search.Engine) error {
	return run(initialModel(items, engine, modeList, ""))
}

func run(m model) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	fm := final.(model)
	if fm.chosen == nil {
		return nil
	}
	it := fm.items[fm.chosen.item]
	switch fm.action {
	case exitOpen:
		if it.URL == "" {
			return fmt.Errorf("%q has no link to open", it.Title)
		}
		return open.URL(it.URL)
	case exitCopy:
		copyRef(it)
	}
	return nil
}

func copyRef(it Item) {
	ref := it.ref()
	if ref == "" {
		return
	}
	if err := clipboard.WriteAll(ref); err != nil {
		fmt.Println(ref)
		return
	}
	fmt.Fprintf(os.Stderr, "Copied to clipboard: %s\n", ref)
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.mode == modeList || m.query != "" {
		cmds = append(cmds, m.runQuery())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		p := m.panes()
		m.preview = newViewport(p.previewW, p.height)
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case debounceTickMsg:
		// the query may have moved on while the timer ran
		if msg.query != m.query || msg.mode != m.mode {
			return m, nil
		}
		return m, m.runQuery()

	case searchResultMsg:
		if msg.query != m.query || msg.mode != m.mode {
			return m, nil
		}
		m.results = msg.results
		m.cursor, m.listOffset = 0, 0
		if len(m.results) == 0 {
			m.preview.SetContent("")
			m.previewKey = ""
			return m, nil
		}
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		if msg.key == m.previewKey || msg.key != m.selectedKey() {
			return m, nil
		}
		m.preview.SetContent(msg.content)
		if msg.hitLine > 0 {
			m.preview.SetYOffset(msg.hitLine)
		} else {
			m.preview.GotoTop()
		}
		m.previewKey = msg.key
		return m, nil
	}
	return m, nil
}

func (m model) selected() (entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return entry{}, false
	}
	return m.results[m.cursor], true
}

func (m model) selectedKey() string {
	e, ok := m.selected()
	if !ok {
		return ""
	}
	return entryKey(e)
}

// choose ends the program with the current entry and action.
func (m model) choose(action exitAction) (tea.Model, tea.Cmd) {
	e, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.chosen = &e
	m.action = action
	m.quitting = true
	return m, tea.Quit
}

// toggleMode flips between content search and title filter, keeping the
// typed query.
func (m model) toggleMode() (tea.Model, tea.Cmd) {
	if m.mode == modeList {
		m.mode = modeSearch
	} else {
		m.mode = modeList
	}
	m.filterInput.Placeholder = m.mode.placeholder()
	m.results = nil
	m.cursor, m.listOffset = 0, 0
	m.previewKey = ""
	return m, m.runQuery()
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d results", len(m.results)),
		m.mode.String(),
		"tab mode",
		"enter copy link",
		"C-o open",
		"esc quit",
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// runQuery matches the current query in the current mode.
func (m model) runQuery() tea.Cmd {
	items, engine, mode, query := m.items, m.engine, m.mode, m.query
	return func() tea.Msg {
		res := searchResultMsg{mode: mode, query: query}
		switch {
		case mode == modeList:
			res.results = filterItems(items, query)
		case strings.TrimSpace(query) != "":
			res.results = searchItems(engine, items, query)
		}
		return res
	}
}

func (m model) scheduleQuery() tea.Cmd {
	mode, query := m.mode, m.query
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{mode: mode, query: query}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	e, ok := m.selected()
	if !ok || entryKey(e) == m.previewKey {
		return nil
	}
	return loadPreviewCmd(m.items[e.item], e, m.query, m.panes().previewW)
}
