package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/convman/internal/bus"
	"github.com/Zuo-Peng/convman/internal/config"
	"github.com/Zuo-Peng/convman/internal/dom/rodtree"
	"github.com/Zuo-Peng/convman/internal/scan"
)

func doctorCmd() *cobra.Command {
	var cdp, page string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, snapshot dirs, store, NATS and browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Println("=== Config ===")
			home, _ := os.UserHomeDir()
			path := config.Path(home)
			if _, err := os.Stat(path); err != nil {
				fmt.Printf("  File: %s (NOT FOUND, using defaults)\n", path)
			} else {
				fmt.Printf("  File: %s (OK)\n", path)
			}

			fmt.Println("\n=== Snapshot Dirs ===")
			if len(cfg.SnapshotDirs) == 0 {
				fmt.Println("  (none configured)")
			}
			for _, dir := range cfg.SnapshotDirs {
				checkDir(dir)
			}
			if files, err := scan.ScanRoots(cfg.SnapshotDirs...); err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				fmt.Printf("  HTML pages: %d\n", len(files))
			}

			fmt.Println("\n=== Store ===")
			if cfg.DatabaseURL != "" {
				fmt.Println("  Backend: postgres")
			} else {
				fmt.Println("  Backend: sqlite")
				fmt.Printf("  Path: %s\n", cfg.DBPath)
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				fmt.Printf("  Status: ERROR (%v)\n", err)
			} else {
				n, err := st.Count(ctx)
				if err != nil {
					fmt.Printf("  Count error: %v\n", err)
				} else {
					fmt.Printf("  Saved conversations: %d\n", n)
				}
				snaps, err := st.Snapshots(ctx)
				if err == nil {
					fmt.Printf("  Imported pages: %d\n", len(snaps))
				}
				st.Close()
			}
			if cfg.DatabaseURL == "" {
				if info, err := os.Stat(cfg.DBPath); err == nil {
					fmt.Printf("  Size: %.1f MB\n", float64(info.Size())/1024/1024)
				}
			}

			fmt.Println("\n=== NATS ===")
			if cfg.NATS.URL == "" {
				fmt.Println("  (not configured)")
			} else if nc, err := bus.NewClient(cfg.NATS.URL, cfg.NATS.Token); err != nil {
				fmt.Printf("  %s (ERROR: %v)\n", cfg.NATS.URL, err)
			} else {
				if err := nc.Ping(3 * time.Second); err != nil {
					fmt.Printf("  %s (UNREACHABLE: %v)\n", cfg.NATS.URL, err)
				} else {
					fmt.Printf("  %s (OK)\n", cfg.NATS.URL)
				}
				nc.Close()
			}

			fmt.Println("\n=== Browser ===")
			if cdp == "" {
				fmt.Println("  (pass --cdp to check a running Chrome)")
				return nil
			}
			cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			tree, err := rodtree.Connect(cctx, cdp, page)
			if err != nil {
				fmt.Printf("  %s (ERROR: %v)\n", cdp, err)
				return nil
			}
			ex := newExtractor(cfg)
			fmt.Printf("  Tab: %s\n", tree.URL())
			fmt.Printf("  Messages: %d\n", len(ex.Messages(tree)))
			fmt.Printf("  Sidebar entries: %d\n", len(ex.Summaries(tree)))
			return nil
		},
	}

	cmd.Flags().StringVar(&cdp, "cdp", "", "DevTools websocket URL of a running Chrome")
	cmd.Flags().StringVar(&page, "page", "genspark\\.ai", "Regex picking the browser tab")
	return cmd
}

func checkDir(path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s (NOT FOUND)\n", path)
	} else if !info.IsDir() {
		fmt.Printf("  %s (NOT A DIRECTORY)\n", path)
	} else {
		fmt.Printf("  %s (OK)\n", path)
	}
}
