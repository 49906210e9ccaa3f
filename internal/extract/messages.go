// Package extract turns a dom.Tree into conversation messages and sidebar
// summaries. Every call reads the tree afresh; nothing is cached between
// calls.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Zuo-Peng/convman/internal/dom"
	"github.com/Zuo-Peng/convman/internal/filter"
	"github.com/Zuo-Peng/convman/internal/locator"
	"github.com/Zuo-Peng/convman/internal/logging"
	"github.com/Zuo-Peng/convman/internal/model"
)

var exLog = logging.ForComponent(logging.CompExtract)

var (
	// ErrIndexOutOfRange is returned when a message index is past the
	// extracted sequence.
	ErrIndexOutOfRange = errors.New("message index out of range")
	// ErrNotFound is returned when no sidebar entry has the requested id.
	ErrNotFound = errors.New("conversation not found")
)

const (
	defaultPageTitle = "genspark_conversation"
	titleMaxRunes    = 50
)

type Extractor struct {
	loc Locators
	now func() time.Time
}

func New(loc Locators) *Extractor {
	return &Extractor{loc: loc, now: time.Now}
}

// WithClock returns a copy that stamps missing timestamps with now.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	c := *e
	c.now = now
	return &c
}

// OrderKey is the sort key of a box: top first, left as a small tie-break.
func OrderKey(r dom.Rect) float64 {
	return r.Top + r.Left*0.001
}

type located struct {
	msg  model.ExtractedMessage
	node dom.Node
}

// Messages extracts user and assistant messages and merges them into one
// sequence ordered by on-screen position.
func (e *Extractor) Messages(tree dom.Tree) []model.ExtractedMessage {
	all := e.locate(tree)
	msgs := make([]model.ExtractedMessage, len(all))
	for i, l := range all {
		msgs[i] = l.msg
	}
	return msgs
}

// Locate returns the node behind the index-th message of Messages.
func (e *Extractor) Locate(tree dom.Tree, index int) (dom.Node, error) {
	all := e.locate(tree)
	if index < 0 || index >= len(all) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(all))
	}
	return all[index].node, nil
}

func (e *Extractor) locate(tree dom.Tree) []located {
	users := e.collect(tree, model.RoleUser, e.loc.UserMessage)
	assistants := e.collect(tree, model.RoleAssistant, e.loc.AssistantMessage)

	all := make([]located, 0, len(users)+len(assistants))
	all = append(all, users...)
	all = append(all, assistants...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].msg.Order < all[j].msg.Order
	})

	exLog.Debug("messages_extracted",
		slog.Int("user", len(users)),
		slog.Int("assistant", len(assistants)))
	return all
}

func (e *Extractor) collect(tree dom.Tree, role model.Role, loc locator.Locator) []located {
	nodes := locator.Resolve(tree, loc, nil)
	out := make([]located, 0, len(nodes))
	for i, n := range nodes {
		content := e.content(tree, n)
		if content == "" {
			continue
		}
		out = append(out, located{
			node: n,
			msg: model.ExtractedMessage{
				Role:          role,
				Content:       content,
				TimestampRaw:  e.timestamp(tree, n),
				Order:         OrderKey(n.Rect()),
				SequenceIndex: i,
			},
		})
	}
	return out
}

// content prefers dedicated content elements; when there are none the whole
// node text is used with UI noise filtered out.
func (e *Extractor) content(tree dom.Tree, n dom.Node) string {
	parts := locator.Resolve(tree, e.loc.MessageContent, n)
	if len(parts) > 0 {
		texts := make([]string, 0, len(parts))
		for _, p := range locator.InDocumentOrder(parts) {
			texts = append(texts, p.Text())
		}
		return strings.TrimSpace(strings.Join(texts, "\n"))
	}
	return strings.TrimSpace(filter.FilterNoise(n.Text()))
}

func (e *Extractor) timestamp(tree dom.Tree, n dom.Node) string {
	ts := locator.FirstNode(tree, e.loc.Timestamp, n)
	if ts == nil {
		return e.now().UTC().Format(time.RFC3339)
	}
	if text := strings.TrimSpace(ts.Text()); text != "" {
		return text
	}
	// whitespace-only text without a datetime attribute yields "" rather
	// than the raw whitespace
	dt, _ := ts.Attr("datetime")
	return dt
}

// PageTitle names the page for exports: the first chat title element with
// text, then the document title.
func (e *Extractor) PageTitle(tree dom.Tree) string {
	if n := locator.FirstNode(tree, e.loc.ChatTitle, nil); n != nil {
		if title := strings.TrimSpace(n.Text()); title != "" {
			return title
		}
	}
	if title := strings.TrimSpace(tree.Title()); title != "" {
		return title
	}
	return defaultPageTitle
}

// ConversationTitle names a conversation being saved: the first chat title
// pattern whose first match has text, else the opening message cut to 50
// runes. Empty when neither exists.
func (e *Extractor) ConversationTitle(tree dom.Tree, msgs []model.ExtractedMessage) string {
	for _, pattern := range e.loc.ChatTitle {
		n := locator.FirstNode(tree, locator.Locator{pattern}, nil)
		if n == nil {
			continue
		}
		if title := strings.TrimSpace(n.Text()); title != "" {
			return title
		}
	}
	if len(msgs) == 0 {
		return ""
	}
	r := []rune(msgs[0].Content)
	if len(r) > titleMaxRunes {
		return string(r[:titleMaxRunes]) + "..."
	}
	return string(r)
}
