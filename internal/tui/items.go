package tui

import (
	"fmt"

	"github.com/sahilm/fuzzy"

	convmodel "github.com/Zuo-Peng/convman/internal/model"
	"github.com/Zuo-Peng/convman/internal/search"
)

const (
	sourcePage  = "page"
	sourceSaved = "saved"
)

// Item is one conversation the TUI can search and preview.
type Item struct {
	ID       string
	Title    string
	URL      string
	Date     string // YYYY-MM-DD when known
	Source   string
	Messages []convmodel.ExtractedMessage
}

// PageItem wraps the messages of an open page.
func PageItem(title, url string, msgs []convmodel.ExtractedMessage) Item {
	return Item{Title: title, URL: url, Source: sourcePage, Messages: msgs}
}

func SavedItem(c convmodel.Conversation) Item {
	return Item{
		ID:       c.ID,
		Title:    c.Title,
		URL:      c.URL,
		Date:     c.SavedAt.Format("2006-01-02"),
		Source:   sourceSaved,
		Messages: c.Messages,
	}
}

// ref is what Enter copies: the URL to reopen the conversation, else its id.
func (it Item) ref() string {
	if it.URL != "" {
		return it.URL
	}
	return it.ID
}

// entry is one row of the result list. message is -1 for a whole
// conversation.
type entry struct {
	item    int
	message int
	snippet string
}

func entryKey(e entry) string {
	return fmt.Sprintf("%d:%d", e.item, e.message)
}

// searchItems runs the exact search over every item, keeping item order and
// message order within an item.
func searchItems(engine *search.Engine, items []Item, query string) []entry {
	var out []entry
	for i, it := range items {
		for _, r := range engine.Search(it.Messages, query) {
			out = append(out, entry{item: i, message: r.SourceIndex, snippet: r.Snippet})
		}
	}
	return out
}

// itemSource implements fuzzy.Source over item titles
type itemSource []Item

func (s itemSource) String(i int) string { return s[i].Title }
func (s itemSource) Len() int            { return len(s) }

// filterItems lists every item when filter is empty, else the fuzzy title
// matches ordered by relevance.
func filterItems(items []Item, filter string) []entry {
	if filter == "" {
		out := make([]entry, len(items))
		for i, it := range items {
			out[i] = entry{item: i, message: -1, snippet: firstLine(it)}
		}
		return out
	}
	matches := fuzzy.FindFrom(filter, itemSource(items))
	out := make([]entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entry{item: m.Index, message: -1, snippet: firstLine(items[m.Index])})
	}
	return out
}

func firstLine(it Item) string {
	if len(it.Messages) == 0 {
		return ""
	}
	return it.Messages[0].Content
}
