package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/convman/internal/model"
	"github.com/Zuo-Peng/convman/internal/tui"
)

const (
	sColorReset = "\033[0m"
	sColorBlue  = "\033[1;34m"
	sColorGreen = "\033[1;32m"
	sColorDim   = "\033[2m"
)

func colorizeRole(role model.Role) string {
	switch role {
	case model.RoleUser:
		return sColorBlue + string(role) + sColorReset
	case model.RoleAssistant:
		return sColorGreen + string(role) + sColorReset
	default:
		return string(role)
	}
}

func searchCmd() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "search <query> [page.html]",
		Short: "Find messages containing a query in the open conversation",
		Long: `Case-insensitive substring search over the messages of one conversation.
On a terminal this opens the interactive search; otherwise output is TSV:
  index, role, snippet

fzf example:
  convman search "$q" page.html | fzf --ansi --delimiter='\t' \
    --preview 'convman highlight {1} page.html --query "$q"'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tree, err := src.tree(cmd.Context(), cfg, pathArg(args, 1))
			if err != nil {
				return err
			}
			ex := newExtractor(cfg)
			msgs := ex.Messages(tree)
			engine := newEngine(cfg)

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				item := tui.PageItem(ex.PageTitle(tree), tree.URL(), msgs)
				return tui.Run([]tui.Item{item}, engine, args[0])
			}

			results := engine.Search(msgs, args[0])
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}
			// first field stays plain for fzf {1}
			for _, r := range results {
				fmt.Printf("%d\t%s\t%s\n", r.SourceIndex, colorizeRole(r.Role), oneLine(r.Snippet))
			}
			return nil
		},
	}

	src.bind(cmd)
	return cmd
}

func searchAllCmd() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "search-all <query> [page.html]",
		Short: "Rank sidebar conversations against a query",
		Long: `Fuzzy search over sidebar titles and text, best match first. Output is TSV:
  id, score, field, title, snippet`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tree, err := src.tree(cmd.Context(), cfg, pathArg(args, 1))
			if err != nil {
				return err
			}

			results := newEngine(cfg).SearchAll(newExtractor(cfg).Summaries(tree), args[0])
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%s\t%s%.0f%s\t%s\t%s\t%s\n",
					r.ID,
					sColorDim, r.Score, sColorReset,
					r.MatchedField,
					oneLine(r.Title),
					oneLine(r.Snippet),
				)
			}
			return nil
		},
	}

	src.bind(cmd)
	return cmd
}
