package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/technocoreai/extcmd/internal/cmdhistory"
	"github.com/technocoreai/extcmd/internal/config"
)

func newHistoryCmd(ro *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [QUERY]",
		Short: "List recent command lines, best fuzzy matches first with QUERY",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.loadConfig()
			if err != nil {
				return err
			}
			path := cfg.History.Path
			if path == "" {
				path = config.DefaultHistoryPath()
			}
			h, err := cmdhistory.Open(path, cfg.History.Size)
			if err != nil {
				return err
			}

			entries := h.Entries()
			if len(args) == 1 {
				entries = h.Search(strings.Join(args, " "))
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), e)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "print at most this many entries")
	return cmd
}
