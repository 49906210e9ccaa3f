package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/convman/internal/extract"
	"github.com/Zuo-Peng/convman/internal/locator"
	"github.com/Zuo-Peng/convman/internal/search"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"CONVMAN_CONFIG", "DATABASE_URL", "NATS_URL", "NATS_TOKEN",
		"CONVMAN_PORT", "CONVMAN_API_TOKEN", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "convman", "convman.db"), cfg.DBPath)
	assert.Equal(t, "127.0.0.1:8420", cfg.Server.Addr())
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce())
	assert.Equal(t, search.DefaultParams(), cfg.Search)
	assert.Equal(t, extract.DefaultLocators(), cfg.Locators)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoadFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path = "~/data/chats.db"
snapshot_dirs = ["~/Downloads/genspark"]

[log]
level = "debug"
dir = "~/logs"

[server]
port = 9000
token = "from-file"

[search]
fuzzy_threshold = 30.0

[locators]
user_message = [".me"]
`), 0o644))
	t.Setenv("CONVMAN_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "chats.db"), cfg.DBPath)
	assert.Equal(t, []string{filepath.Join(home, "Downloads", "genspark")}, cfg.SnapshotDirs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(home, "logs"), cfg.Log.Dir)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "from-file", cfg.Server.Token)

	// unset keys keep their defaults
	assert.Equal(t, float64(30), cfg.Search.FuzzyThreshold)
	assert.Equal(t, search.DefaultParams().ExactScore, cfg.Search.ExactScore)
	assert.Equal(t, locator.Locator{".me"}, cfg.Locators.UserMessage)
	assert.Equal(t, extract.DefaultLocators().AssistantMessage, cfg.Locators.AssistantMessage)
}

func TestEnvOverrides(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "convman")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
database_url = "postgres://file"
[server]
port = 9000
`), 0o644))

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("NATS_TOKEN", "n-token")
	t.Setenv("CONVMAN_PORT", "9100")
	t.Setenv("CONVMAN_API_TOKEN", "api-token")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "n-token", cfg.NATS.Token)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "api-token", cfg.Server.Token)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestBadPortEnvKeepsValue(t *testing.T) {
	isolate(t)
	t.Setenv("CONVMAN_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8420, cfg.Server.Port)
}

func TestLoadInvalidFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("db_path = "), 0o644))
	t.Setenv("CONVMAN_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, filepath.Join("/home/me", "x"), expandHome("~/x", "/home/me"))
	assert.Equal(t, "~", expandHome("~", "/home/me"))
	assert.Equal(t, "/abs", expandHome("/abs", "/home/me"))
}
