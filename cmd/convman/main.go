package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/convman/internal/config"
	"github.com/Zuo-Peng/convman/internal/dispatch"
	"github.com/Zuo-Peng/convman/internal/logging"
)

var version = "dev"

func main() {
	dispatch.Version = version

	rootCmd := &cobra.Command{
		Use:          "convman",
		Short:        "Extract, search and save AI chat conversations from genspark.ai pages",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Init(cfg.Log)
			return nil
		},
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(sidebarCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(searchAllCmd())
	rootCmd.AddCommand(highlightCmd())
	rootCmd.AddCommand(navigateCmd())
	rootCmd.AddCommand(saveCmd())
	rootCmd.AddCommand(savedCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
