package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/convman/internal/bus"
	"github.com/Zuo-Peng/convman/internal/config"
	"github.com/Zuo-Peng/convman/internal/index"
	"github.com/Zuo-Peng/convman/internal/logging"
	"github.com/Zuo-Peng/convman/internal/scan"
	"github.com/Zuo-Peng/convman/internal/store"
	"github.com/Zuo-Peng/convman/internal/watch"
)

var watchLog = logging.ForComponent(logging.CompWatch)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir|page.html]...",
		Short: "Re-import saved pages whenever they change",
		Long: `Watch paths (default: snapshot_dirs) and re-import a page after it is
written. When [nats] url is configured a convman.snapshot.changed event is
published for each re-import.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			paths := args
			if len(paths) == 0 {
				paths = cfg.SnapshotDirs
			}
			if len(paths) == 0 {
				return errors.New("no paths given and snapshot_dirs is empty")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			var nc *bus.Client
			if cfg.NATS.URL != "" {
				nc, err = bus.NewClient(cfg.NATS.URL, cfg.NATS.Token)
				if err != nil {
					return err
				}
				defer nc.Close()
			}

			w, err := newSnapshotWatcher(cfg, st, nc, paths)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Watching %d path(s), Ctrl-C to stop\n", len(paths))
			return w.Run(ctx)
		},
	}
}

// newSnapshotWatcher imports paths once, then re-imports each page that
// changes and announces it on nc when set.
func newSnapshotWatcher(cfg *config.Config, st store.Store, nc *bus.Client, paths []string) (*watch.Watcher, error) {
	im := index.New(st, newExtractor(cfg), cfg.BaseURL)
	stats, err := im.ImportAll(context.Background(), paths...)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	watchLog.Info("initial_import", slog.String("stats", stats.String()))

	return watch.New(paths, cfg.Watch.Debounce(), func(ctx context.Context, path string) {
		fi, err := scan.Stat(path)
		if err != nil {
			// removed or renamed away; the next full import prunes it
			return
		}
		c, err := im.ImportFile(ctx, fi)
		if err != nil {
			watchLog.Warn("reimport_failed", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
		if c == nil {
			return
		}
		watchLog.Info("reimported",
			slog.String("path", path),
			slog.String("id", c.ID),
			slog.Int("messages", c.MessageCount))

		if nc == nil {
			return
		}
		ev := bus.SnapshotChanged{
			Path:           path,
			ConversationID: c.ID,
			Title:          c.Title,
			MessageCount:   c.MessageCount,
			ChangedAt:      time.Now().UTC(),
		}
		if err := nc.Publish(bus.SubjectSnapshotChanged, ev); err != nil {
			watchLog.Warn("publish_failed", slog.String("error", err.Error()))
		}
	})
}
