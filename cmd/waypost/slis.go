package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/spf13/cobra"
)

var slisCmd = &cobra.Command{
	Use:     "slis <node-name>",
	Short:   "Show SLI history for a node",
	GroupID: "views",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeFlags, _ := cmd.Flags().GetStringSlice("type")
		startFlag, _ := cmd.Flags().GetString("start")
		endFlag, _ := cmd.Flags().GetString("end")

		var types []model.SLIType
		for _, t := range typeFlags {
			types = append(types, model.SLIType(t))
		}

		start, err := parseTimeFlag(startFlag)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		end, err := parseTimeFlag(endFlag)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}

		slis, err := waypostClient.NodeSLIs(context.Background(), args[0], types, start, end)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(slis)
		} else {
			printSLITable(slis)
		}
		return nil
	},
}

// parseTimeFlag accepts RFC 3339 timestamps or a relative duration like
// "-1h" resolved against now. Empty means unset.
func parseTimeFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("%q is neither RFC 3339 nor a duration", s)
	}
	t := time.Now().Add(d)
	return &t, nil
}

func init() {
	slisCmd.Flags().StringSliceP("type", "t", nil, "filter by SLI type (availability, latency, throughput)")
	slisCmd.Flags().String("start", "", "range start (RFC 3339 or relative duration like -1h)")
	slisCmd.Flags().String("end", "", "range end (RFC 3339 or relative duration like -5m)")
}
