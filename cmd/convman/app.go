package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/convman/internal/config"
	"github.com/Zuo-Peng/convman/internal/dispatch"
	"github.com/Zuo-Peng/convman/internal/dom"
	"github.com/Zuo-Peng/convman/internal/dom/htmltree"
	"github.com/Zuo-Peng/convman/internal/dom/rodtree"
	"github.com/Zuo-Peng/convman/internal/extract"
	"github.com/Zuo-Peng/convman/internal/open"
	"github.com/Zuo-Peng/convman/internal/search"
	"github.com/Zuo-Peng/convman/internal/store"
)

// sourceFlags pick the document a command reads: a saved HTML file given as
// an argument, or a live browser tab over CDP.
type sourceFlags struct {
	cdp     string
	page    string
	baseURL string
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.cdp, "cdp", "", "DevTools websocket URL of a running Chrome")
	cmd.Flags().StringVar(&f.page, "page", "genspark\\.ai", "Regex picking the browser tab (with --cdp)")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Base URL for relative links in a saved page")
}

func (f *sourceFlags) live() bool { return f.cdp != "" }

// source returns a dispatch.Source for path or the live tab. The live
// connection is made once and reused; each call still reads the page as it
// is now.
func (f *sourceFlags) source(cfg *config.Config, path string) (dispatch.Source, error) {
	if f.live() {
		var (
			once sync.Once
			tree *rodtree.Tree
			err  error
		)
		return func(ctx context.Context) (dom.Tree, error) {
			once.Do(func() { tree, err = rodtree.Connect(context.Background(), f.cdp, f.page) })
			if err != nil {
				return nil, err
			}
			return tree, nil
		}, nil
	}
	if path == "" {
		return nil, errors.New("a saved page path or --cdp is required")
	}
	base := f.baseURL
	if base == "" {
		base = cfg.BaseURL
	}
	return func(context.Context) (dom.Tree, error) {
		return htmltree.ParseFile(path, base)
	}, nil
}

func (f *sourceFlags) tree(ctx context.Context, cfg *config.Config, path string) (dom.Tree, error) {
	src, err := f.source(cfg, path)
	if err != nil {
		return nil, err
	}
	return src(ctx)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newExtractor(cfg *config.Config) *extract.Extractor {
	return extract.New(cfg.Locators)
}

func newEngine(cfg *config.Config) *search.Engine {
	return search.New(cfg.Search)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newDispatcher wires every dependency; st may be nil.
func newDispatcher(cfg *config.Config, src dispatch.Source, st store.Store) *dispatch.Dispatcher {
	return dispatch.New(dispatch.Options{
		Source:    src,
		Extractor: newExtractor(cfg),
		Engine:    newEngine(cfg),
		Store:     st,
		OpenURL:   open.URL,
	})
}

// pathArg returns args[i] or "".
func pathArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// failed turns a success:false response into an error.
func failed(resp dispatch.Response) error {
	if ok, _ := resp["success"].(bool); ok {
		return nil
	}
	if msg, ok := resp["error"].(string); ok {
		return errors.New(msg)
	}
	return nil
}

// oneLine flattens text for TSV output.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
