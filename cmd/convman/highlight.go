package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/convman/internal/dispatch"
	"github.com/Zuo-Peng/convman/internal/render"
)

func highlightCmd() *cobra.Command {
	var src sourceFlags
	var context int
	var query string

	cmd := &cobra.Command{
		Use:   "highlight <index> [page.html]",
		Short: "Point at one message of the conversation",
		Long: `With --cdp the message is scrolled into view and tinted in the browser.
For a saved page the conversation is printed with the message marked.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid message index %q", args[0])
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, err := src.source(cfg, pathArg(args, 1))
			if err != nil {
				return err
			}

			if src.live() {
				d := newDispatcher(cfg, source, nil)
				resp := d.Handle(cmd.Context(), dispatch.Request{Action: dispatch.ActionHighlight, Index: index})
				if err := failed(resp); err != nil {
					return err
				}
				fmt.Printf("Highlighted message %d\n", index)
				return nil
			}

			tree, err := source(cmd.Context())
			if err != nil {
				return err
			}
			ex := newExtractor(cfg)
			if _, err := ex.Locate(tree, index); err != nil {
				return err
			}
			out, _ := render.RenderConversation(ex.PageTitle(tree), tree.URL(), ex.Messages(tree), render.Options{
				HitIndex: index,
				Context:  context,
				Query:    query,
				NoColor:  !term.IsTerminal(int(os.Stdout.Fd())),
			})
			fmt.Print(out)
			return nil
		},
	}

	src.bind(cmd)
	cmd.Flags().IntVar(&context, "context", 10, "Messages before/after the hit to show (-1 for all)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	return cmd
}

func navigateCmd() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "navigate <conversation-id> [page.html]",
		Short: "Open a sidebar conversation",
		Long: `With --cdp the sidebar entry is clicked in the browser. Otherwise the
conversation URL is opened with the system browser.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, err := src.source(cfg, pathArg(args, 1))
			if err != nil {
				return err
			}

			d := newDispatcher(cfg, source, nil)
			resp := d.Handle(cmd.Context(), dispatch.Request{Action: dispatch.ActionNavigate, ConversationID: args[0]})
			if err := failed(resp); err != nil {
				return err
			}
			if activated, _ := resp["activated"].(bool); activated {
				fmt.Printf("Opened %s in the browser tab\n", args[0])
			} else {
				fmt.Printf("Opened %v\n", resp["url"])
			}
			return nil
		},
	}

	src.bind(cmd)
	return cmd
}
