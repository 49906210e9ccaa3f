package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/convman/internal/api"
	"github.com/Zuo-Peng/convman/internal/bus"
)

func serveCmd() *cobra.Command {
	var src sourceFlags
	var watchPaths []string
	var noNATS bool

	cmd := &cobra.Command{
		Use:   "serve [page.html]",
		Short: "Serve dispatcher actions over HTTP, WebSocket and NATS",
		Long: `Answer dispatcher requests ({"action": "...", ...}) for one page:
  POST /api/v1/dispatch          request body is the action JSON
  POST /api/v1/actions/{action}  body carries the parameters
  GET  /ws                       one JSON request per text frame
and, when [nats] url is set, on the convman.dispatch subject. POSTs must be
sent as application/json and are refused from other origins.
With --watch the given paths are re-imported as they change.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, err := src.source(cfg, pathArg(args, 0))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			d := newDispatcher(cfg, source, st)

			var nc *bus.Client
			if cfg.NATS.URL != "" && !noNATS {
				nc, err = bus.NewClient(cfg.NATS.URL, cfg.NATS.Token)
				if err != nil {
					return err
				}
				defer nc.Close()
				if err := nc.Serve(ctx, bus.SubjectDispatch, d); err != nil {
					return err
				}
			}

			g, gctx := errgroup.WithContext(ctx)

			srv := api.NewServer(api.Config{
				Addr:          cfg.Server.Addr(),
				Token:         cfg.Server.Token,
				RatePerSecond: cfg.Server.Rate,
				Burst:         cfg.Server.Burst,
			}, d)
			g.Go(func() error { return srv.Run(gctx) })

			if len(watchPaths) > 0 {
				w, err := newSnapshotWatcher(cfg, st, nc, watchPaths)
				if err != nil {
					return err
				}
				g.Go(func() error { return w.Run(gctx) })
			}

			fmt.Fprintf(os.Stderr, "Serving on http://%s\n", cfg.Server.Addr())
			return serveResult(g.Wait())
		},
	}

	src.bind(cmd)
	cmd.Flags().StringSliceVar(&watchPaths, "watch", nil, "Re-import these paths as they change")
	cmd.Flags().BoolVar(&noNATS, "no-nats", false, "Do not connect to NATS even when configured")
	return cmd
}

// serveResult drops the cancellation a shutdown signal causes, however deeply
// it is wrapped.
func serveResult(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
