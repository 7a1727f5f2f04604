package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oakhamlabs/waypost/internal/engine"
	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/oakhamlabs/waypost/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// statusCell renders a status as a colored glyph plus the status word, for
// use in table columns.
func statusCell(s model.Status) string {
	return ui.StatusGlyph(s) + " " + ui.RenderStatus(s)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

func printNodeListTable(nodes []*model.Node) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tSTATUS\tPARENT\tCOMMENT")
	for _, n := range nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			n.Name,
			n.Type,
			statusCell(n.Status),
			n.ParentName,
			truncate(n.Comment, 40),
		)
	}
	w.Flush()
	fmt.Printf("\n%d nodes\n", len(nodes))
}

func printNodeDetail(n *model.Node) {
	fmt.Printf("Name:      %s\n", n.Name)
	fmt.Printf("Type:      %s\n", n.Type)
	fmt.Printf("Status:    %s\n", statusCell(n.Status))
	if model.HasOverride(n.OverrideStatus) {
		fmt.Printf("Override:  %s (computed %s)\n", n.OverrideStatus, n.ComputedStatus)
	}
	if n.ParentName != "" {
		fmt.Printf("Parent:    %s\n", n.ParentName)
	}
	if len(n.ChildNames) > 0 {
		fmt.Printf("Children:  %s\n", strings.Join(n.ChildNames, ", "))
	}
	for _, d := range n.Dependencies {
		fmt.Printf("Calls:     %s\n", d.TargetName)
	}
	if n.Comment != "" {
		fmt.Printf("Comment:   %s\n", n.Comment)
	}
	if len(n.SLIs) > 0 {
		fmt.Println("SLIs:")
		for _, s := range n.SLIs {
			fmt.Printf("  %s: %.4f [%s] at %s\n",
				s.Type, s.Value, s.Status, s.Timestamp.Format("2006-01-02 15:04:05"))
		}
	}
}

func printClientListTable(clients []*model.Client) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tJOURNEYS\tCOMMENT")
	for _, c := range clients {
		journeys := make([]string, 0, len(c.UserJourneys))
		for _, j := range c.UserJourneys {
			journeys = append(journeys, strings.TrimPrefix(j.Name, c.Name+"."))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.Name,
			statusCell(c.Status),
			strings.Join(journeys, ", "),
			truncate(c.Comment, 40),
		)
	}
	w.Flush()
	fmt.Printf("\n%d clients\n", len(clients))
}

func printClientDetail(c *model.Client) {
	fmt.Printf("Name:     %s\n", c.Name)
	fmt.Printf("Status:   %s\n", statusCell(c.Status))
	if c.Comment != "" {
		fmt.Printf("Comment:  %s\n", c.Comment)
	}
	for _, j := range c.UserJourneys {
		fmt.Printf("Journey:  %s %s\n", statusCell(j.Status), j.Name)
		for _, d := range j.Dependencies {
			fmt.Printf("          entry %s\n", d.TargetName)
		}
	}
}

func printStatusTable(statuses map[string]model.Status) {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", name, statusCell(statuses[name]))
	}
	w.Flush()
	fmt.Printf("\n%d entities\n", len(names))
}

func printEntityStatus(es *model.EntityStatus) {
	fmt.Printf("Name:      %s\n", es.Name)
	fmt.Printf("Kind:      %s\n", es.Kind)
	fmt.Printf("Status:    %s\n", statusCell(es.Status))
	if model.HasOverride(es.OverrideStatus) {
		fmt.Printf("Override:  %s (computed %s)\n", es.OverrideStatus, es.ComputedStatus)
	}
}

func printSLITable(slis []*model.SLI) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tTYPE\tVALUE\tSTATUS\tTARGET")
	for _, s := range slis {
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%s\t%.2f\n",
			s.Timestamp.Format("2006-01-02 15:04:05"),
			s.Type,
			s.Value,
			statusCell(s.Status),
			s.SLOTarget,
		)
	}
	w.Flush()
	fmt.Printf("\n%d samples\n", len(slis))
}

func printRefreshResult(r *engine.RefreshResult) {
	fmt.Printf("Snapshot:  %s\n", r.SnapshotID)
	fmt.Printf("Took:      %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Printf("Nodes:     %d\n", r.Nodes)
	fmt.Printf("Clients:   %d\n", r.Clients)
	fmt.Printf("Changed:   %d\n", r.Changed)
	if len(r.StaleSeries) > 0 {
		fmt.Printf("Stale:     %s\n", strings.Join(r.StaleSeries, ", "))
	}
	for _, warn := range r.Warnings {
		fmt.Printf("Warning:   %s\n", warn)
	}
}
