package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Zuo-Peng/convman/internal/dom"
	"github.com/Zuo-Peng/convman/internal/locator"
	"github.com/Zuo-Peng/convman/internal/model"
)

// MinItemTextLength is the shortest trimmed item text treated as a
// conversation; shorter items are spacers and dividers.
const MinItemTextLength = 3

var idAttrs = []string{"data-conversation-id", "data-id", "id"}

// Summaries lists the conversations in the sidebar. Item containers are
// homogeneous within one site build, so the first item pattern that matches
// is trusted alone; when none match, the generic children of the first
// navigation-like container are scanned instead.
func (e *Extractor) Summaries(tree dom.Tree) []model.ConversationSummary {
	items, pattern := locator.First(tree, e.loc.SidebarItem, nil)
	if len(items) == 0 {
		if nav := locator.FirstNode(tree, e.loc.SidebarContainer, nil); nav != nil {
			items = locator.Resolve(tree, e.loc.SidebarFallbackItem, nav)
			pattern = "fallback"
		}
	}
	exLog.Debug("sidebar_items",
		slog.String("pattern", pattern),
		slog.Int("count", len(items)))

	base, _ := url.Parse(tree.URL())

	out := make([]model.ConversationSummary, 0, len(items))
	for i, item := range items {
		text := item.Text()
		trimmed := strings.TrimSpace(text)
		if utf8.RuneCountInString(trimmed) < MinItemTextLength {
			continue
		}
		out = append(out, model.ConversationSummary{
			ID:            itemID(item, i),
			Title:         e.itemTitle(tree, item, text),
			Date:          e.itemDate(tree, item),
			FullText:      trimmed,
			URL:           e.itemURL(tree, item, base),
			SequenceIndex: i,
			NodeRef:       item,
		})
	}
	return out
}

// FindSummary re-reads the sidebar and returns the entry with id.
func (e *Extractor) FindSummary(tree dom.Tree, id string) (model.ConversationSummary, error) {
	for _, s := range e.Summaries(tree) {
		if s.ID == id {
			return s, nil
		}
	}
	return model.ConversationSummary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func itemID(item dom.Node, index int) string {
	for _, name := range idAttrs {
		if v, ok := item.Attr(name); ok && v != "" {
			return v
		}
	}
	return fmt.Sprintf("item-%d", index)
}

func (e *Extractor) itemTitle(tree dom.Tree, item dom.Node, text string) string {
	if n := locator.FirstNode(tree, e.loc.SidebarTitle, item); n != nil {
		return strings.TrimSpace(n.Text())
	}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func (e *Extractor) itemDate(tree dom.Tree, item dom.Node) string {
	if n := locator.FirstNode(tree, e.loc.SidebarDate, item); n != nil {
		return strings.TrimSpace(n.Text())
	}
	return ""
}

func (e *Extractor) itemURL(tree dom.Tree, item dom.Node, base *url.URL) string {
	var href string
	if link := locator.FirstNode(tree, e.loc.SidebarLink, item); link != nil {
		href, _ = link.Attr("href")
	} else if item.Tag() == "a" {
		href, _ = item.Attr("href")
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil || ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
