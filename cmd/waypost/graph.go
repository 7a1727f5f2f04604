package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/oakhamlabs/waypost/internal/ui"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:     "graph",
	Short:   "Render the containment tree with statuses",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, _ := cmd.Flags().GetInt("depth")
		deps, _ := cmd.Flags().GetBool("deps")
		expand, _ := cmd.Flags().GetBool("expand")

		resp, err := waypostClient.Graph(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}
		renderGraphTree(os.Stdout, resp, graphTreeOptions{depth: depth, deps: deps, expand: expand})
		return nil
	},
}

type graphTreeOptions struct {
	depth  int // 0 = unlimited
	deps   bool
	expand bool
}

// renderGraphTree prints the containment forest: real and virtual nodes
// first, then clients with their journeys. Dependency edges are shown as
// "calls:" leaf lines when opts.deps is set.
func renderGraphTree(w io.Writer, resp *model.GraphResponse, opts graphTreeOptions) {
	byName := make(map[string]*model.GraphNode, len(resp.Nodes))
	for _, gn := range resp.Nodes {
		byName[gn.Name] = gn
	}
	children := make(map[string][]string)
	deps := make(map[string][]string)
	for _, e := range resp.Edges {
		switch e.Type {
		case model.EdgeContainment:
			children[e.Source] = append(children[e.Source], e.Target)
		case model.EdgeDependency:
			deps[e.Source] = append(deps[e.Source], e.Target)
		}
	}

	remaining := opts.depth
	if remaining == 0 {
		remaining = -1
	}
	for _, gn := range resp.Nodes {
		if gn.ParentName != "" {
			continue
		}
		fmt.Fprintf(w, "%s [%s] %s\n", gn.Name, ui.RenderStatus(gn.Status), graphAnnotation(gn))
		printGraphChildren(w, gn, byName, children, deps, "", opts, remaining)
	}

	if resp.Stats != nil {
		fmt.Fprintf(w, "\n%d healthy, %d warn, %d error, %d unspecified\n",
			resp.Stats.TotalHealthy, resp.Stats.TotalWarn, resp.Stats.TotalError, resp.Stats.TotalUnspecified)
	}
}

type graphTreeEntry struct {
	name string
	dep  bool
}

func printGraphChildren(w io.Writer, parent *model.GraphNode, byName map[string]*model.GraphNode, children, deps map[string][]string, prefix string, opts graphTreeOptions, remaining int) {
	if remaining == 0 {
		return
	}

	var entries []graphTreeEntry
	if !parent.Collapsed || opts.expand {
		for _, c := range children[parent.Name] {
			entries = append(entries, graphTreeEntry{name: c})
		}
	}
	if opts.deps {
		for _, t := range deps[parent.Name] {
			entries = append(entries, graphTreeEntry{name: t, dep: true})
		}
	}

	for i, e := range entries {
		isLast := i == len(entries)-1

		connector := "├── "
		childPrefix := prefix + "│   "
		if isLast {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		if e.dep {
			status := model.StatusUnspecified
			if target, ok := byName[e.name]; ok {
				status = target.Status
			}
			// Dependency targets are leaves here; recursing would loop on
			// cyclic call graphs.
			fmt.Fprintf(w, "%s%scalls: %s [%s]\n", prefix, connector, e.name, ui.RenderStatus(status))
			continue
		}

		gn, ok := byName[e.name]
		if !ok {
			fmt.Fprintf(w, "%s%s%s (unknown)\n", prefix, connector, e.name)
			continue
		}
		fmt.Fprintf(w, "%s%s%s [%s] %s\n", prefix, connector, gn.Name, ui.RenderStatus(gn.Status), graphAnnotation(gn))
		printGraphChildren(w, gn, byName, children, deps, childPrefix, opts, remaining-1)
	}
}

func graphAnnotation(gn *model.GraphNode) string {
	switch gn.Kind {
	case model.KindNode:
		return string(gn.NodeType)
	case model.KindVirtualNode:
		if gn.Collapsed {
			return "virtual, collapsed"
		}
		return "virtual"
	case model.KindUserJourney:
		return "journey"
	case model.KindClient:
		return "client"
	}
	return string(gn.Kind)
}

func init() {
	graphCmd.Flags().Int("depth", 0, "maximum depth to traverse (0 = unlimited)")
	graphCmd.Flags().Bool("deps", false, "include dependency edges as calls: lines")
	graphCmd.Flags().Bool("expand", false, "expand collapsed virtual nodes")
}
