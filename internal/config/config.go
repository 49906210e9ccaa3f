package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Zuo-Peng/convman/internal/extract"
	"github.com/Zuo-Peng/convman/internal/logging"
	"github.com/Zuo-Peng/convman/internal/search"
)

type Config struct {
	DBPath      string `toml:"db_path"`
	DatabaseURL string `toml:"database_url"`

	// SnapshotDirs are imported by `convman import` when no path is given.
	SnapshotDirs []string `toml:"snapshot_dirs"`

	// BaseURL resolves relative links in snapshots without <base>.
	BaseURL string `toml:"base_url"`

	Log      logging.Config   `toml:"log"`
	Server   Server           `toml:"server"`
	NATS     NATS             `toml:"nats"`
	Watch    Watch            `toml:"watch"`
	Search   search.Params    `toml:"search"`
	Locators extract.Locators `toml:"locators"`
}

type Server struct {
	Host  string  `toml:"host"`
	Port  int     `toml:"port"`
	Token string  `toml:"token"`
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type NATS struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

type Watch struct {
	DebounceMS int `toml:"debounce_ms"`
}

func (w Watch) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// Path returns the config file location: $CONVMAN_CONFIG, else
// ~/.config/convman/config.toml.
func Path(home string) string {
	if p := os.Getenv("CONVMAN_CONFIG"); p != "" {
		return expandHome(p, home)
	}
	return filepath.Join(home, ".config", "convman", "config.toml")
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath: filepath.Join(home, ".config", "convman", "convman.db"),
		Server: Server{
			Host:  "127.0.0.1",
			Port:  8420,
			Rate:  20,
			Burst: 40,
		},
		Watch:    Watch{DebounceMS: 250},
		Search:   search.DefaultParams(),
		Locators: extract.DefaultLocators(),
	}

	cfgPath := Path(home)
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)

	// expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.Log.Dir = expandHome(cfg.Log.Dir, home)
	for i, dir := range cfg.SnapshotDirs {
		cfg.SnapshotDirs[i] = expandHome(dir, home)
	}

	return cfg, nil
}

// applyEnv lets deployment values override the file.
func applyEnv(cfg *Config) {
	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.NATS.URL = envStr("NATS_URL", cfg.NATS.URL)
	cfg.NATS.Token = envStr("NATS_TOKEN", cfg.NATS.Token)
	cfg.Server.Port = envInt("CONVMAN_PORT", cfg.Server.Port)
	cfg.Server.Token = envStr("CONVMAN_API_TOKEN", cfg.Server.Token)
	cfg.Log.Level = envStr("LOG_LEVEL", cfg.Log.Level)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
