package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:     "clients [<name>]",
	Short:   "List clients and their user journeys",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := waypostClient.Clients(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(args) == 1 {
			for _, c := range clients {
				if c.Name == args[0] {
					if jsonOutput {
						printJSON(c)
					} else {
						printClientDetail(c)
					}
					return nil
				}
			}
			fmt.Fprintf(os.Stderr, "Error: client %q not found\n", args[0])
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(clients)
		} else {
			printClientListTable(clients)
		}
		return nil
	},
}
