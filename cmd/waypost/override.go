package main

import (
	"context"
	"fmt"
	"os"

	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/spf13/cobra"
)

var overrideCmd = &cobra.Command{
	Use:     "override",
	Short:   "Pin or unpin an entity's status",
	GroupID: "operator",
}

var overrideSetCmd = &cobra.Command{
	Use:   "set <name> <status>",
	Short: "Pin an entity to a fixed status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, status := args[0], model.Status(args[1])

		es, err := waypostClient.SetOverride(context.Background(), name, status)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(es)
			return nil
		}
		fmt.Printf("%s overridden to %s (computed %s)\n", es.Name, es.Status, es.ComputedStatus)
		return nil
	},
}

var overrideClearCmd = &cobra.Command{
	Use:   "clear <name>",
	Short: "Remove an entity's status override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if err := waypostClient.ClearOverride(context.Background(), name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("override cleared: %s\n", name)
		return nil
	},
}

func init() {
	overrideCmd.AddCommand(overrideSetCmd)
	overrideCmd.AddCommand(overrideClearCmd)
}
