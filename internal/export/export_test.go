package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/convman/internal/model"
)

var sample = []model.ExtractedMessage{
	{Role: model.RoleUser, Content: "what is <chan>?", TimestampRaw: "10:00", Order: 100.01, SequenceIndex: 0},
	{Role: model.RoleAssistant, Content: "a typed conduit\nfor values", TimestampRaw: "10:01", Order: 200.123, SequenceIndex: 0},
}

func TestJSONRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := NewDocument("Channels", "https://www.genspark.ai/x", at, sample)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))
	assert.Contains(t, buf.String(), `"messageCount": 2`)
	assert.Contains(t, buf.String(), `"type": "user"`)
	assert.Contains(t, buf.String(), "<chan>", "html is not escaped")

	back, err := ParseJSON(&buf)
	require.NoError(t, err)
	require.Len(t, back.Conversations, 2)
	for i := range sample {
		assert.Equal(t, sample[i].Role, back.Conversations[i].Role)
		assert.Equal(t, sample[i].Content, back.Conversations[i].Content)
		assert.InDelta(t, sample[i].Order, back.Conversations[i].Order, 0)
	}
	assert.True(t, at.Equal(back.Timestamp))
	assert.Equal(t, "Channels", back.Title)
}

func TestEmptyDocumentHasArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewDocument("t", "", time.Now(), nil)))
	assert.Contains(t, buf.String(), `"conversations": []`)
}

func TestParseJSONRejectsGarbage(t *testing.T) {
	_, err := ParseJSON(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestWriteTXT(t *testing.T) {
	doc := NewDocument("Channels", "https://www.genspark.ai/x", time.Now(), sample)

	var buf bytes.Buffer
	require.NoError(t, WriteTXT(&buf, doc))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Title: Channels\nURL: https://www.genspark.ai/x\n"))
	assert.Contains(t, out, "Messages: 2\n"+strings.Repeat("=", 50)+"\n\n")
	assert.Contains(t, out, "[User] (1):\nwhat is <chan>?\n\n"+strings.Repeat("-", 30))
	assert.Contains(t, out, "[AI] (2):\na typed conduit\nfor values\n")
}

func TestFromConversation(t *testing.T) {
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	doc := FromConversation(&model.Conversation{Title: "Saved", URL: "u", SavedAt: at, Messages: sample})
	assert.Equal(t, 2, doc.MessageCount)
	assert.Equal(t, at, doc.Timestamp)
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Trip_plan_v2_2025-03-09.json", FileName("Trip plan: v2?", at, FormatJSON))
	assert.Equal(t, "שיחה_חדשה_2025-03-09.txt", FileName("שיחה חדשה", at, FormatTXT))
	assert.Equal(t, "conversation_2025-03-09.txt", FileName("///", at, FormatTXT))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "txt": FormatTXT, " both ": FormatBoth} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}
