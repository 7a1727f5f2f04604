package main

import (
	"context"
	"fmt"
	"os"

	"github.com/oakhamlabs/waypost/internal/engine"
	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:     "refresh",
	Short:   "Trigger a refresh cycle against the reporting backend",
	GroupID: "operator",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		last, _ := cmd.Flags().GetBool("last")

		var result *engine.RefreshResult
		var err error
		if last {
			result, err = waypostClient.LastRefresh(context.Background())
		} else {
			result, err = waypostClient.Refresh(context.Background())
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(result)
		} else {
			printRefreshResult(result)
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().Bool("last", false, "show the last refresh result instead of triggering one")
}
