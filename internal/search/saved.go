package search

import (
	"strings"

	"github.com/Zuo-Peng/convman/internal/model"
)

// FilterSaved ranks saved conversations the way SearchAll ranks sidebar
// entries, scoring the title and the joined message text. SourceIndex is the
// position in convs.
func (e *Engine) FilterSaved(convs []model.Conversation, query string) []model.SearchResult {
	summaries := make([]model.ConversationSummary, len(convs))
	for i, c := range convs {
		summaries[i] = SummaryOf(c, i)
	}
	return e.SearchAll(summaries, query)
}

// SummaryOf views a saved conversation as a summary.
func SummaryOf(c model.Conversation, index int) model.ConversationSummary {
	parts := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		parts = append(parts, m.Content)
	}
	date := ""
	if !c.SavedAt.IsZero() {
		date = c.SavedAt.Format("2006-01-02")
	}
	return model.ConversationSummary{
		ID:            c.ID,
		Title:         c.Title,
		Date:          date,
		FullText:      strings.Join(parts, "\n"),
		URL:           c.URL,
		SequenceIndex: index,
	}
}
