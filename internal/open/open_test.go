package open

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLCommand(t *testing.T) {
	u := "https://www.genspark.ai/agents?id=c1"
	assert.Equal(t, []string{"open", u}, urlCommand("darwin", u).Args)
	assert.Equal(t, []string{"xdg-open", u}, urlCommand("linux", u).Args)
	assert.Equal(t, []string{"rundll32", "url.dll,FileProtocolHandler", u}, urlCommand("windows", u).Args)
}

func TestEditorCommand(t *testing.T) {
	assert.Equal(t, []string{"nvim", "+7", "a.html"}, editorCommand("nvim", "a.html", 7).Args)
	assert.Equal(t, []string{"code", "--goto", "a.html:7"}, editorCommand("code", "a.html", 7).Args)
	assert.Equal(t, []string{"less", "+7", "a.html"}, editorCommand("less", "a.html", 7).Args)
	assert.Equal(t, []string{"nano", "a.html"}, editorCommand("nano", "a.html", 7).Args)
}

func TestFindLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.html")
	require.NoError(t, os.WriteFile(path, []byte("<html>\n<body>\n<p>Rotate the KEYS</p>\n</body>\n"), 0o644))

	n, err := findLine(path, "keys")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = findLine(path, "absent")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSnapshotMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.html")
	assert.EqualError(t, Snapshot(path, ""), "file not found: "+path)
}
