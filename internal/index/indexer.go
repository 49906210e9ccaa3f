// Package index imports saved HTML pages into the conversation store.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zuo-Peng/convman/internal/dispatch"
	"github.com/Zuo-Peng/convman/internal/dom"
	"github.com/Zuo-Peng/convman/internal/dom/htmltree"
	"github.com/Zuo-Peng/convman/internal/extract"
	"github.com/Zuo-Peng/convman/internal/logging"
	"github.com/Zuo-Peng/convman/internal/model"
	"github.com/Zuo-Peng/convman/internal/scan"
	"github.com/Zuo-Peng/convman/internal/store"
)

var importLog = logging.ForComponent(logging.CompImport)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

type Importer struct {
	st      store.Store
	ex      *extract.Extractor
	baseURL string
	now     func() time.Time
}

// New returns an importer. baseURL resolves relative links in pages that
// carry neither <base> nor a canonical link.
func New(st store.Store, ex *extract.Extractor, baseURL string) *Importer {
	if ex == nil {
		ex = extract.New(extract.DefaultLocators())
	}
	return &Importer{st: st, ex: ex, baseURL: baseURL, now: time.Now}
}

func (im *Importer) WithClock(now func() time.Time) *Importer {
	cp := *im
	cp.now = now
	return &cp
}

// ImportAll saves every changed snapshot under roots and prunes conversations
// whose snapshot under those roots is gone.
func (im *Importer) ImportAll(ctx context.Context, roots ...string) (Stats, error) {
	var stats Stats

	// snapshots are keyed by absolute path, as the watcher reports them
	roots, err := absPaths(roots)
	if err != nil {
		return stats, err
	}

	files, err := scan.ScanRoots(roots...)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// track which files we see, for pruning
	seen := make(map[string]struct{}, len(files))

	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		seen[fi.Path] = struct{}{}

		c, err := im.ImportFile(ctx, fi)
		switch {
		case errors.Is(err, dispatch.ErrNoMessages):
			continue
		case err != nil:
			stats.Errors++
			importLog.Warn("import_failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
			continue
		case c == nil:
			stats.Skipped++
			continue
		}
		stats.Updated++
	}

	pruned, err := im.prune(ctx, roots, seen)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	importLog.Info("import_done",
		slog.Int("scanned", stats.Scanned),
		slog.Int("updated", stats.Updated),
		slog.Int("skipped", stats.Skipped),
		slog.Int("pruned", stats.Pruned),
		slog.Int("errors", stats.Errors))
	return stats, nil
}

// ImportFile saves the conversation in fi unless it is unchanged since the
// last import, in which case it returns nil, nil. A re-imported file keeps its
// conversation id.
func (im *Importer) ImportFile(ctx context.Context, fi scan.FileInfo) (*model.Conversation, error) {
	prev, err := im.st.Snapshot(ctx, fi.Path)
	if err != nil {
		return nil, err
	}
	if !needsUpdate(prev, fi) {
		return nil, nil
	}

	d := dispatch.New(dispatch.Options{
		Source:    im.fileSource(fi.Path),
		Extractor: im.ex,
		Now:       im.now,
	})
	c, err := d.Current(ctx)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		c.ID = prev.ConversationID
	}

	if err := im.st.Save(ctx, c); err != nil {
		return nil, err
	}
	if err := im.st.PutSnapshot(ctx, store.Snapshot{
		Path:           fi.Path,
		ConversationID: c.ID,
		Mtime:          fi.Mtime,
		Size:           fi.Size,
	}); err != nil {
		return nil, err
	}
	importLog.Debug("snapshot_imported",
		slog.String("path", fi.Path),
		slog.String("id", c.ID),
		slog.Int("messages", c.MessageCount))
	return c, nil
}

func (im *Importer) fileSource(path string) dispatch.Source {
	return func(context.Context) (dom.Tree, error) {
		return htmltree.ParseFile(path, im.baseURL)
	}
}

func needsUpdate(prev *store.Snapshot, fi scan.FileInfo) bool {
	if prev == nil {
		return true // new snapshot
	}
	return prev.Mtime != fi.Mtime || prev.Size != fi.Size
}

func (im *Importer) prune(ctx context.Context, roots []string, seen map[string]struct{}) (int, error) {
	snaps, err := im.st.Snapshots(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, s := range snaps {
		if _, ok := seen[s.Path]; ok || !underAny(s.Path, roots) {
			continue
		}
		if _, err := im.st.Delete(ctx, s.ConversationID); err != nil {
			return pruned, err
		}
		if err := im.st.DeleteSnapshot(ctx, s.Path); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		if root == "" {
			continue
		}
		if path == root {
			return true
		}
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
