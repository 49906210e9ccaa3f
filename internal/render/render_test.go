package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zuo-Peng/convman/internal/model"
)

func messages(n int) []model.ExtractedMessage {
	msgs := make([]model.ExtractedMessage, n)
	for i := range msgs {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		msgs[i] = model.ExtractedMessage{Role: role, Content: fmt.Sprintf("message number %d", i), TimestampRaw: "10:00"}
	}
	return msgs
}

func TestRenderMarksHit(t *testing.T) {
	out, hit := RenderConversation("Sorting", "https://www.genspark.ai/agents?id=1", messages(3), Options{HitIndex: 1, NoColor: true})

	lines := strings.Split(out, "\n")
	assert.Equal(t, "--- Sorting [https://www.genspark.ai/agents?id=1] ---", lines[0])
	assert.Equal(t, ">> AI 2 > 10:00 <<", lines[hit])
	assert.Equal(t, "  message number 1", lines[hit+1])
	assert.Contains(t, out, "USER 1 > 10:00")
	assert.NotContains(t, out, "\033[")
}

func TestRenderContextWindow(t *testing.T) {
	out, hit := RenderConversation("t", "", messages(30), Options{HitIndex: 15, Context: 2, NoColor: true})

	assert.Contains(t, out, "... (13 messages before) ...")
	assert.Contains(t, out, "... (12 messages after) ...")
	assert.Contains(t, out, "message number 13")
	assert.NotContains(t, out, "message number 12\n")
	assert.Equal(t, ">> AI 16 > 10:00 <<", strings.Split(out, "\n")[hit])

	out, hit = RenderConversation("t", "", messages(30), Options{HitIndex: -1, Context: 2, NoColor: true})
	assert.Equal(t, -1, hit)
	assert.Contains(t, out, "message number 29")
	assert.NotContains(t, out, "messages before")
}

func TestRenderEmpty(t *testing.T) {
	out, hit := RenderConversation("t", "", nil, Options{})
	assert.Equal(t, "(empty conversation)", out)
	assert.Equal(t, -1, hit)
}

func TestHighlightKeywords(t *testing.T) {
	assert.Equal(t, "use "+colorBoldRed+"Sort"+colorReset+" here", highlightKeywords("use Sort here", "sort"))
	assert.Equal(t, "plain", highlightKeywords("plain", ""))
	assert.Equal(t, colorBoldRed+"ÉTÉ"+colorReset+" chaud", highlightKeywords("ÉTÉ chaud", "été"))
}

func TestWrapLine(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, wrapLine("abcdefg", 3))
	assert.Equal(t, []string{"abcdefg"}, wrapLine("abcdefg", 0))
	assert.Equal(t, []string{""}, wrapLine("", 5))
	// wide runes take two columns
	assert.Equal(t, []string{"日本", "語"}, wrapLine("日本語", 4))
	// escape sequences add no width
	assert.Equal(t, []string{colorDim + "ab", "c" + colorReset}, wrapLine(colorDim+"abc"+colorReset, 2))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "hit here", StripANSI(colorHit+"hit"+colorReset+" here"))
}
