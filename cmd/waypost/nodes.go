package main

import (
	"context"
	"fmt"
	"os"

	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:     "nodes [<name>]",
	Short:   "List nodes, or show one node in detail",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			node, err := waypostClient.Node(context.Background(), args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if jsonOutput {
				printJSON(node)
			} else {
				printNodeDetail(node)
			}
			return nil
		}

		types, _ := cmd.Flags().GetStringSlice("type")
		statuses, _ := cmd.Flags().GetStringSlice("status")
		parent, _ := cmd.Flags().GetString("parent")

		filter := &model.NodeFilter{Parent: parent}
		for _, t := range types {
			filter.Types = append(filter.Types, model.NodeType(t))
		}
		for _, s := range statuses {
			filter.Statuses = append(filter.Statuses, model.Status(s))
		}

		nodes, err := waypostClient.Nodes(context.Background(), filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(nodes)
		} else {
			printNodeListTable(nodes)
		}
		return nil
	},
}

func init() {
	nodesCmd.Flags().StringSliceP("type", "t", nil, "filter by node type (system, service, endpoint)")
	nodesCmd.Flags().StringSliceP("status", "s", nil, "filter by status (healthy, warn, error, unspecified)")
	nodesCmd.Flags().StringP("parent", "p", "", "filter by exact parent name")
}
