package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/convman/internal/dispatch"
)

func saveCmd() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "save [page.html]",
		Short: "Save the open conversation to the store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, err := src.source(cfg, pathArg(args, 0))
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			resp := newDispatcher(cfg, source, st).Handle(cmd.Context(), dispatch.Request{Action: dispatch.ActionSaveConversation})
			if err := failed(resp); err != nil {
				return err
			}
			fmt.Printf("Saved %v (%v messages): %v\n", resp["conversationId"], resp["messageCount"], resp["title"])
			return nil
		},
	}

	src.bind(cmd)
	return cmd
}
