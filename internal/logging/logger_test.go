package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForComponentBeforeInit(t *testing.T) {
	log := ForComponent(CompLocator)

	var buf bytes.Buffer
	InitWriter(&buf, "json", slog.LevelDebug)
	t.Cleanup(Shutdown)

	log.Warn("pattern_failed", slog.String("pattern", "div[")) // logger created before InitWriter

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "locator", rec["component"])
	assert.Equal(t, "pattern_failed", rec["msg"])
	assert.Equal(t, "div[", rec["pattern"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "text", slog.LevelWarn)
	t.Cleanup(Shutdown)

	log := ForComponent(CompStore).With(slog.String("backend", "sqlite"))
	log.Info("hidden")
	log.Error("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "shown"))
	assert.Contains(t, out, "backend=sqlite")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
