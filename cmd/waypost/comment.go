package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:     "comment",
	Short:   "Attach or remove operator comments",
	GroupID: "operator",
}

var commentSetCmd = &cobra.Command{
	Use:   "set <name> <text>",
	Short: "Set the comment on an entity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, text := args[0], args[1]

		if err := waypostClient.SetComment(context.Background(), name, text); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("comment set on %s\n", name)
		return nil
	},
}

var commentClearCmd = &cobra.Command{
	Use:   "clear <name>",
	Short: "Remove the comment from an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := waypostClient.ClearComment(context.Background(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("comment cleared on %s\n", args[0])
		return nil
	},
}

func init() {
	commentCmd.AddCommand(commentSetCmd)
	commentCmd.AddCommand(commentClearCmd)
}
