package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/convman/internal/index"
)

func importCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "import [dir|page.html]...",
		Short: "Save every changed HTML page under the given paths",
		Long: `Scan directories (default: snapshot_dirs from config) for saved .html
pages and store each conversation. Unchanged files are skipped; conversations
whose page disappeared from a scanned directory are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			roots := args
			if len(roots) == 0 {
				roots = cfg.SnapshotDirs
			}
			if len(roots) == 0 {
				return errors.New("no paths given and snapshot_dirs is empty")
			}
			if baseURL == "" {
				baseURL = cfg.BaseURL
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			fmt.Fprintf(os.Stderr, "Scanning...\n")
			for _, r := range roots {
				fmt.Fprintf(os.Stderr, "  %s\n", r)
			}

			stats, err := index.New(st, newExtractor(cfg), baseURL).ImportAll(cmd.Context(), roots...)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for relative links in saved pages")
	return cmd
}
