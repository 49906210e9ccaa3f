// Package model holds the conversation types shared by extraction, search,
// storage and export.
package model

import (
	"time"

	"github.com/Zuo-Peng/convman/internal/dom"
)

// Role is the speaker of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Field names the summary field a fuzzy hit was scored on.
type Field string

const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
)

// ExtractedMessage is one message read off the page. Order is the layout
// sort key (top + left*0.001) and only compares within one extraction call.
type ExtractedMessage struct {
	Role          Role    `json:"type"`
	Content       string  `json:"content"`
	TimestampRaw  string  `json:"timestamp"`
	Order         float64 `json:"order"`
	SequenceIndex int     `json:"index"`
}

// ConversationSummary is a sidebar entry. NodeRef points back into the tree it
// came from; it is not owned by the summary, goes stale as soon as the tree
// re-renders and is never serialized.
type ConversationSummary struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Date          string   `json:"date"`
	FullText      string   `json:"fullText"`
	URL           string   `json:"url"`
	SequenceIndex int      `json:"index"`
	NodeRef       dom.Node `json:"-"`
}

type SearchResult struct {
	SourceIndex   int     `json:"index"`
	Role          Role    `json:"type,omitempty"`
	ID            string  `json:"id,omitempty"`
	Title         string  `json:"title,omitempty"`
	Date          string  `json:"date,omitempty"`
	URL           string  `json:"url,omitempty"`
	Content       string  `json:"content"`
	Snippet       string  `json:"snippet"`
	MatchPosition int     `json:"matchPosition"`
	Score         float64 `json:"matchScore"`
	ExactMatch    bool    `json:"exactMatch"`
	MatchedField  Field   `json:"matchedIn,omitempty"`
}

// Conversation is the saved form of an extracted conversation.
type Conversation struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	URL          string             `json:"url"`
	SavedAt      time.Time          `json:"savedAt"`
	MessageCount int                `json:"messageCount"`
	Messages     []ExtractedMessage `json:"messages"`
}
