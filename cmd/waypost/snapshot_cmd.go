package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Short:   "Dump the current published snapshot",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := waypostClient.Snapshot(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(snap)
			return nil
		}
		fmt.Printf("Snapshot:       %s\n", snap.ID)
		fmt.Printf("Built:          %s\n", snap.BuiltAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Nodes:          %d\n", len(snap.Nodes))
		fmt.Printf("Virtual nodes:  %d\n", len(snap.VirtualNodes))
		fmt.Printf("Clients:        %d\n", len(snap.Clients))
		fmt.Printf("Entities:       %d\n", len(snap.Statuses))
		if len(snap.StaleSeries) > 0 {
			fmt.Printf("Stale series:   %d\n", len(snap.StaleSeries))
		}
		return nil
	},
}
