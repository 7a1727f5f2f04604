package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oakhamlabs/waypost/internal/events"
	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/oakhamlabs/waypost/internal/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Watch for live status transitions",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")

		// 1. Setup signal handling.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		// 2. Initial query prints the full state; later cycles only print
		// transitions.
		statuses, err := waypostClient.Statuses(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(statuses)
		} else {
			printStatusTable(statuses)
		}
		seen := make(map[string]model.Status, len(statuses))
		for name, s := range statuses {
			seen[name] = s
		}
		if once {
			return nil
		}

		// 3. Choose event-driven or polling mode.
		natsURL := watchNATSURL()
		if natsURL != "" {
			return watchNATS(ctx, natsURL, seen)
		}
		return watchPoll(ctx, interval, seen)
	},
}

func watchNATSURL() string {
	if s := os.Getenv("WAYPOST_NATS_URL"); s != "" {
		return s
	}
	return activeRemoteNATSURL()
}

// watchNATS subscribes to waypost events and re-queries on changes with
// debounce.
func watchNATS(ctx context.Context, natsURL string, seen map[string]model.Status) error {
	// reconnectCh receives a signal when the NATS client reconnects after
	// a disconnect, so we can immediately re-query for missed events.
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe("waypost.>")
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	// Drain the timer channel in case it fired between NewTimer and Stop.
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0) // immediate re-query
		case <-debounce.C:
			if err := queryAndPrintTransitions(ctx, seen); err != nil {
				return err
			}
		}
	}
}

// watchPoll polls for transitions at the given interval.
func watchPoll(ctx context.Context, interval time.Duration, seen map[string]model.Status) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := queryAndPrintTransitions(ctx, seen); err != nil {
			return err
		}
	}
}

// statusTransition is one observed effective-status move.
type statusTransition struct {
	Name string       `json:"name"`
	From model.Status `json:"from"`
	To   model.Status `json:"to"`
}

// queryAndPrintTransitions fetches statuses, diffs against the seen map,
// and prints any transitions.
func queryAndPrintTransitions(ctx context.Context, seen map[string]model.Status) error {
	statuses, err := waypostClient.Statuses(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	transitions := diffStatuses(statuses, seen)
	if len(transitions) == 0 {
		return nil
	}
	if jsonOutput {
		printJSON(transitions)
		return nil
	}
	now := time.Now().Format("15:04:05")
	for _, tr := range transitions {
		from := string(tr.From)
		if tr.From == "" {
			from = "(new)"
		}
		fmt.Printf("%s  %s: %s to %s\n", now, tr.Name, from, ui.RenderStatus(tr.To))
	}
	return nil
}

// diffStatuses compares statuses against the seen map and returns entities
// that are new or whose status moved, sorted by name. It updates seen in
// place.
func diffStatuses(statuses map[string]model.Status, seen map[string]model.Status) []statusTransition {
	var transitions []statusTransition
	for name, s := range statuses {
		prev, ok := seen[name]
		if !ok || s != prev {
			transitions = append(transitions, statusTransition{Name: name, From: prev, To: s})
		}
		seen[name] = s
	}
	sort.Slice(transitions, func(i, j int) bool { return transitions[i].Name < transitions[j].Name })
	return transitions
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when NATS is not configured")
	watchCmd.Flags().Bool("once", false, "print the current state and exit")
}
