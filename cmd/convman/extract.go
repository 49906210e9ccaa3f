package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func extractCmd() *cobra.Command {
	var src sourceFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract [page.html]",
		Short: "List the messages of a conversation in reading order",
		Long: `Extract the messages of the open conversation. Output is TSV:
  index, role, timestamp, content`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tree, err := src.tree(cmd.Context(), cfg, pathArg(args, 0))
			if err != nil {
				return err
			}

			msgs := newExtractor(cfg).Messages(tree)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(msgs)
			}
			if len(msgs) == 0 {
				fmt.Fprintln(os.Stderr, "No messages found.")
				return nil
			}
			for i, m := range msgs {
				ts := m.TimestampRaw
				if ts == "" {
					ts = "-"
				}
				fmt.Printf("%d\t%s\t%s\t%s\n", i, m.Role, oneLine(ts), oneLine(m.Content))
			}
			return nil
		},
	}

	src.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of TSV")
	return cmd
}

func sidebarCmd() *cobra.Command {
	var src sourceFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sidebar [page.html]",
		Short: "List the conversations in the sidebar",
		Long: `List the sidebar entries. Output is TSV:
  id, date, title, url`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tree, err := src.tree(cmd.Context(), cfg, pathArg(args, 0))
			if err != nil {
				return err
			}

			summaries := newExtractor(cfg).Summaries(tree)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(os.Stderr, "No conversations found.")
				return nil
			}
			for _, s := range summaries {
				date := s.Date
				if date == "" {
					date = "-"
				}
				fmt.Printf("%s\t%s\t%s\t%s\n", s.ID, oneLine(date), oneLine(s.Title), s.URL)
			}
			return nil
		},
	}

	src.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of TSV")
	return cmd
}
