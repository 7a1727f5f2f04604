package main

import (
	"context"
	"fmt"
	"os"

	"github.com/oakhamlabs/waypost/internal/client"
	"github.com/spf13/cobra"
)

var vnodeCmd = &cobra.Command{
	Use:     "vnode",
	Short:   "Manage virtual grouping nodes",
	GroupID: "operator",
}

var vnodeCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Group sibling nodes under a new virtual node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		children, _ := cmd.Flags().GetStringSlice("children")
		parent, _ := cmd.Flags().GetString("parent")

		v, err := waypostClient.CreateVirtualNode(context.Background(), &client.CreateVirtualNodeRequest{
			Name:       args[0],
			ChildNames: children,
			ParentName: parent,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(v)
			return nil
		}
		fmt.Printf("virtual node %q created with %d members\n", v.Name, len(v.ChildNames))
		return nil
	},
}

var vnodeDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Dissolve a virtual node (members return to their parent)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := waypostClient.DeleteVirtualNode(context.Background(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("virtual node %q deleted\n", args[0])
		return nil
	},
}

var vnodeCollapseCmd = &cobra.Command{
	Use:   "collapse [<name>]",
	Short: "Collapse a virtual node, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCollapsed(cmd, args, true)
	},
}

var vnodeExpandCmd = &cobra.Command{
	Use:   "expand [<name>]",
	Short: "Expand a virtual node, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCollapsed(cmd, args, false)
	},
}

func setCollapsed(cmd *cobra.Command, args []string, collapsed bool) error {
	all, _ := cmd.Flags().GetBool("all")

	verb := "collapsed"
	if !collapsed {
		verb = "expanded"
	}

	if all {
		if err := waypostClient.SetAllVirtualNodesCollapsed(context.Background(), collapsed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("all virtual nodes %s\n", verb)
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("requires a virtual node name or --all")
	}
	if err := waypostClient.SetVirtualNodeCollapsed(context.Background(), args[0], collapsed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("virtual node %q %s\n", args[0], verb)
	return nil
}

func init() {
	vnodeCreateCmd.Flags().StringSliceP("children", "c", nil, "member node names (required)")
	vnodeCreateCmd.Flags().StringP("parent", "p", "", "grouping scope (empty = root scope)")
	_ = vnodeCreateCmd.MarkFlagRequired("children")

	vnodeCollapseCmd.Flags().Bool("all", false, "collapse every virtual node")
	vnodeExpandCmd.Flags().Bool("all", false, "expand every virtual node")

	vnodeCmd.AddCommand(vnodeCreateCmd)
	vnodeCmd.AddCommand(vnodeDeleteCmd)
	vnodeCmd.AddCommand(vnodeCollapseCmd)
	vnodeCmd.AddCommand(vnodeExpandCmd)
}
