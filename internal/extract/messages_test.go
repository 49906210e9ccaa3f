package extract

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/convman/internal/dom/htmltree"
	"github.com/Zuo-Peng/convman/internal/model"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestExtractor() *Extractor {
	return New(DefaultLocators()).WithClock(func() time.Time { return fixedNow })
}

func parseTree(t *testing.T, src, base string) *htmltree.Tree {
	t.Helper()
	tree, err := htmltree.Parse(strings.NewReader(src), base)
	require.NoError(t, err)
	return tree
}

const interleaved = `<html><body><div class="chat">
<div class="user-message" data-top="300" data-left="10"><div class="message-content">second question</div></div>
<div class="user-message" data-top="100" data-left="10"><div class="message-content">first question</div></div>
<div class="assistant-message" data-top="200" data-left="50"><div class="message-content">first answer</div></div>
<div class="assistant-message" data-top="400" data-left="50"><div class="message-content">second answer</div></div>
</div></body></html>`

func TestMessagesOrderedByPosition(t *testing.T) {
	tree := parseTree(t, interleaved, "")

	msgs := newTestExtractor().Messages(tree)
	require.Len(t, msgs, 4)

	var contents []string
	for _, m := range msgs {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"first question", "first answer", "second question", "second answer"}, contents)

	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, 1, msgs[0].SequenceIndex)
	assert.Equal(t, 0, msgs[1].SequenceIndex)
	assert.InDelta(t, 100.01, msgs[0].Order, 1e-9)
	assert.InDelta(t, 200.05, msgs[1].Order, 1e-9)

	assert.True(t, sort.SliceIsSorted(msgs, func(i, j int) bool { return msgs[i].Order < msgs[j].Order }))
}

func TestMessagesPartlyAnnotated(t *testing.T) {
	tree := parseTree(t, `<html><body><div class="chat">
<div class="user-message" data-top="100" data-left="10"><div class="message-content">first</div></div>
<div class="assistant-message" data-top="200" data-left="50"><div class="message-content">second</div></div>
<div class="user-message"><div class="message-content">third without a box</div></div>
</div></body></html>`, "")

	msgs := newTestExtractor().Messages(tree)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third without a box", msgs[2].Content)
	assert.Greater(t, msgs[2].Order, msgs[1].Order)
}

func TestMessagesDocumentOrderWithoutLayout(t *testing.T) {
	src := `<html><body>
<div class="user-message">hello there</div>
<div class="ai-message">hi, how can I help</div>
<div class="user-message">sort a slice</div>
<div class="ai-message">use slices.Sort</div>
</body></html>`
	msgs := newTestExtractor().Messages(parseTree(t, src, ""))
	require.Len(t, msgs, 4)
	assert.Equal(t, []model.Role{model.RoleUser, model.RoleAssistant, model.RoleUser, model.RoleAssistant},
		[]model.Role{msgs[0].Role, msgs[1].Role, msgs[2].Role, msgs[3].Role})
	assert.Equal(t, "use slices.Sort", msgs[3].Content)
}

func TestMessagesFilterFallbackText(t *testing.T) {
	src := `<html><body>
<div class="ai-message" data-top="10">
Here is the answer
Copy
Share
10:42
</div>
<div class="user-message" data-top="5">
<button>Copy</button>
<button>Share</button>
</div>
</body></html>`
	msgs := newTestExtractor().Messages(parseTree(t, src, ""))
	require.Len(t, msgs, 1, "controls-only message is dropped")
	assert.Equal(t, "Here is the answer", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
}

func TestMessagesNotDoubleCounted(t *testing.T) {
	src := `<html><body>
<div data-testid="user-message" class="user-message message user" data-role="user" data-top="1">only once</div>
</body></html>`
	msgs := newTestExtractor().Messages(parseTree(t, src, ""))
	require.Len(t, msgs, 1)
	assert.Equal(t, "only once", msgs[0].Content)
}

func TestMessagesContentInDocumentOrder(t *testing.T) {
	src := `<html><body>
<div class="assistant-message" data-top="1">
<p>step one</p><div class="text-block">step two</div><p>step three</p>
</div>
</body></html>`
	msgs := newTestExtractor().Messages(parseTree(t, src, ""))
	require.Len(t, msgs, 1)
	assert.Equal(t, "step one\nstep two\nstep three", msgs[0].Content)
}

func TestMessagesTimestamps(t *testing.T) {
	src := `<html><body>
<div class="user-message" data-top="1"><div class="message-content">a</div><span class="timestamp">10:01</span></div>
<div class="user-message" data-top="2"><div class="message-content">b</div><time datetime="2025-01-02T03:04:05Z"></time></div>
<div class="user-message" data-top="3"><div class="message-content">c</div></div>
<div class="user-message" data-top="4"><div class="message-content">d</div><span class="timestamp">  </span></div>
</body></html>`
	msgs := newTestExtractor().Messages(parseTree(t, src, ""))
	require.Len(t, msgs, 4)
	assert.Equal(t, "10:01", msgs[0].TimestampRaw)
	assert.Equal(t, "2025-01-02T03:04:05Z", msgs[1].TimestampRaw)
	assert.Equal(t, "2025-03-14T09:30:00Z", msgs[2].TimestampRaw)
	assert.Equal(t, "", msgs[3].TimestampRaw, "blank timestamp element")
}

func TestMessagesEmptyPage(t *testing.T) {
	msgs := newTestExtractor().Messages(parseTree(t, `<html><body><p>nothing</p></body></html>`, ""))
	assert.Empty(t, msgs)
}

func TestMessagesRepeatable(t *testing.T) {
	tree := parseTree(t, interleaved, "")
	ex := newTestExtractor()
	assert.Equal(t, ex.Messages(tree), ex.Messages(tree))
}

func TestLocate(t *testing.T) {
	tree := parseTree(t, interleaved, "")
	ex := newTestExtractor()

	n, err := ex.Locate(tree, 1)
	require.NoError(t, err)
	assert.Contains(t, n.Text(), "first answer")

	_, err = ex.Locate(tree, 4)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = ex.Locate(tree, -1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestPageTitle(t *testing.T) {
	ex := newTestExtractor()

	withHeading := parseTree(t, `<html><head><title>Doc</title></head><body><h1> Trip plan </h1></body></html>`, "")
	assert.Equal(t, "Trip plan", ex.PageTitle(withHeading))

	docOnly := parseTree(t, `<html><head><title>Doc title</title></head><body></body></html>`, "")
	assert.Equal(t, "Doc title", ex.PageTitle(docOnly))

	bare := parseTree(t, `<html><body></body></html>`, "")
	assert.Equal(t, "genspark_conversation", ex.PageTitle(bare))
}

func TestConversationTitle(t *testing.T) {
	ex := newTestExtractor()

	titled := parseTree(t, `<html><body><h1></h1><div class="chat-title">Budget review</div></body></html>`, "")
	assert.Equal(t, "Budget review", ex.ConversationTitle(titled, nil))

	untitled := parseTree(t, `<html><body></body></html>`, "")
	long := strings.Repeat("x", 60)
	assert.Equal(t, strings.Repeat("x", 50)+"...", ex.ConversationTitle(untitled, []model.ExtractedMessage{{Content: long}}))
	assert.Equal(t, "short", ex.ConversationTitle(untitled, []model.ExtractedMessage{{Content: "short"}}))
	assert.Empty(t, ex.ConversationTitle(untitled, nil))
}
