package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status [<name>]",
	Short:   "Show effective statuses, or one entity in detail",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			es, err := waypostClient.Status(context.Background(), args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if jsonOutput {
				printJSON(es)
			} else {
				printEntityStatus(es)
			}
			return nil
		}

		statuses, err := waypostClient.Statuses(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(statuses)
		} else {
			printStatusTable(statuses)
		}
		return nil
	},
}
