package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/convman/internal/dispatch"
	"github.com/Zuo-Peng/convman/internal/open"
	"github.com/Zuo-Peng/convman/internal/render"
	"github.com/Zuo-Peng/convman/internal/tui"
)

func savedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Work with saved conversations",
	}
	cmd.AddCommand(savedListCmd())
	cmd.AddCommand(savedShowCmd())
	cmd.AddCommand(savedDeleteCmd())
	cmd.AddCommand(savedSearchCmd())
	cmd.AddCommand(savedEditCmd())
	return cmd
}

func savedListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved conversations, newest first",
		Long: `On a terminal this opens a filterable list; otherwise output is TSV:
  id, saved date, messages, title`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if term.IsTerminal(int(os.Stdout.Fd())) {
				convs, err := dispatch.LoadSaved(ctx, st)
				if err != nil {
					return err
				}
				items := make([]tui.Item, len(convs))
				for i, c := range convs {
					items[i] = tui.SavedItem(c)
				}
				return tui.RunList(items, newEngine(cfg))
			}

			list, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(os.Stderr, "No saved conversations.")
				return nil
			}
			for _, s := range list {
				fmt.Printf("%s\t%s%s%s\t%d\t%s\n",
					s.ID,
					sColorDim, s.SavedAt.Local().Format("2006-01-02 15:04"), sColorReset,
					s.MessageCount,
					oneLine(s.Title),
				)
			}
			return nil
		},
	}
}

func savedShowCmd() *cobra.Command {
	var context int
	var query string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			c, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("saved conversation not found: %s", args[0])
			}

			hit := -1
			if query != "" {
				if res := newEngine(cfg).Search(c.Messages, query); len(res) > 0 {
					hit = res[0].SourceIndex
				}
			}
			out, _ := render.RenderConversation(c.Title, c.URL, c.Messages, render.Options{
				HitIndex: hit,
				Context:  context,
				Query:    query,
				NoColor:  !term.IsTerminal(int(os.Stdout.Fd())),
			})
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&context, "context", -1, "Messages before/after the first hit to show (-1 for all)")
	cmd.Flags().StringVar(&query, "query", "", "Mark the first message containing this text")
	return cmd
}

func savedDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ok, err := st.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("saved conversation not found: %s", args[0])
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func savedSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search saved conversations",
		Long: `Rank saved conversations by title and content. On a terminal this opens
the interactive search over their messages; otherwise output is TSV:
  id, score, title, snippet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			convs, err := dispatch.LoadSaved(ctx, st)
			if err != nil {
				return err
			}
			engine := newEngine(cfg)

			if term.IsTerminal(int(os.Stdout.Fd())) {
				items := make([]tui.Item, len(convs))
				for i, c := range convs {
					items[i] = tui.SavedItem(c)
				}
				return tui.Run(items, engine, args[0])
			}

			results := engine.FilterSaved(convs, args[0])
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%s\t%s%.0f%s\t%s\t%s\n",
					r.ID,
					sColorDim, r.Score, sColorReset,
					oneLine(r.Title),
					oneLine(r.Snippet),
				)
			}
			return nil
		},
	}
}

func savedEditCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Open the page a conversation was imported from in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			snaps, err := st.Snapshots(ctx)
			if err != nil {
				return err
			}
			for _, s := range snaps {
				if s.ConversationID == args[0] {
					return open.Snapshot(s.Path, query)
				}
			}
			return fmt.Errorf("no imported page for %s", args[0])
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Jump to the first line containing this text")
	return cmd
}
