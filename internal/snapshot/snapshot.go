// Package snapshot holds the immutable output of one aggregation pass and
// the atomic holder readers go through. A snapshot is never mutated after
// publish; the engine builds a fresh one from working copies and swaps the
// pointer, so readers see either the whole old state or the whole new state.
package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/oakhamlabs/waypost/internal/aggregate"
	"github.com/oakhamlabs/waypost/internal/graph"
	"github.com/oakhamlabs/waypost/internal/model"
)

var (
	// ErrNotReady is returned by reads before the first publish.
	ErrNotReady = errors.New("no snapshot published yet")
	// ErrNotFound is returned for lookups of names the snapshot does not hold.
	ErrNotFound = errors.New("not found")
)

// Snapshot is one published aggregation result: the entities as aggregated,
// a flat status map over every entity, and the series that were carried
// forward because the reporting backend had no newer sample.
type Snapshot struct {
	ID      string    `json:"id"`
	BuiltAt time.Time `json:"built_at"`

	Nodes        map[string]*model.Node        `json:"nodes"`
	VirtualNodes map[string]*model.VirtualNode `json:"virtual_nodes,omitempty"`
	Clients      map[string]*model.Client      `json:"clients,omitempty"`

	Statuses    map[string]*model.EntityStatus `json:"statuses"`
	StaleSeries []string                       `json:"stale_series,omitempty"`

	g *graph.Graph
}

// New assembles a snapshot from an aggregated graph. The result must already
// be applied to the graph's entities; New only adds the flat status index.
func New(id string, builtAt time.Time, g *graph.Graph, r *aggregate.Result, stale []string) *Snapshot {
	s := &Snapshot{
		ID:           id,
		BuiltAt:      builtAt,
		Nodes:        g.Nodes,
		VirtualNodes: g.Virtual,
		Clients:      g.Clients,
		Statuses:     make(map[string]*model.EntityStatus, len(r.Effective)),
		StaleSeries:  append([]string(nil), stale...),
		g:            g,
	}
	sort.Strings(s.StaleSeries)

	for name, n := range g.Nodes {
		s.Statuses[name] = entityStatus(name, model.KindNode, r, n.OverrideStatus)
	}
	for name, v := range g.Virtual {
		s.Statuses[name] = entityStatus(name, model.KindVirtualNode, r, v.OverrideStatus)
	}
	for name := range g.Journeys {
		s.Statuses[name] = entityStatus(name, model.KindUserJourney, r, "")
	}
	for name := range g.Clients {
		s.Statuses[name] = entityStatus(name, model.KindClient, r, "")
	}
	return s
}

func entityStatus(name string, kind model.EntityKind, r *aggregate.Result, override model.Status) *model.EntityStatus {
	es := &model.EntityStatus{Name: name, Kind: kind, Status: r.Effective[name]}
	if model.HasOverride(override) {
		es.OverrideStatus = override
		es.ComputedStatus = r.Computed[name]
	}
	return es
}

// Graph exposes the underlying graph for structural queries. The graph, like
// the snapshot, is read-only after publish.
func (s *Snapshot) Graph() *graph.Graph {
	return s.g
}

// Node looks up one node by name.
func (s *Snapshot) Node(name string) (*model.Node, error) {
	n, ok := s.Nodes[name]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", name, ErrNotFound)
	}
	return n, nil
}

// SLI returns the latest evaluated sample of one (node, type) series.
func (s *Snapshot) SLI(nodeName string, t model.SLIType) (*model.SLI, error) {
	n, err := s.Node(nodeName)
	if err != nil {
		return nil, err
	}
	for _, sample := range n.SLIs {
		if sample.Type == t {
			return sample, nil
		}
	}
	return nil, fmt.Errorf("series %s/%s: %w", nodeName, t, ErrNotFound)
}

// NodeList returns all nodes matching the filter, sorted by name. A nil
// filter matches everything.
func (s *Snapshot) NodeList(f *model.NodeFilter) []*model.Node {
	out := make([]*model.Node, 0, len(s.Nodes))
	for _, name := range sortedKeys(s.Nodes) {
		n := s.Nodes[name]
		if f == nil || f.Matches(n) {
			out = append(out, n)
		}
	}
	return out
}

// VirtualNodeList returns all virtual nodes sorted by name.
func (s *Snapshot) VirtualNodeList() []*model.VirtualNode {
	out := make([]*model.VirtualNode, 0, len(s.VirtualNodes))
	for _, name := range sortedKeys(s.VirtualNodes) {
		out = append(out, s.VirtualNodes[name])
	}
	return out
}

// ClientList returns all clients sorted by name.
func (s *Snapshot) ClientList() []*model.Client {
	out := make([]*model.Client, 0, len(s.Clients))
	for _, name := range sortedKeys(s.Clients) {
		out = append(out, s.Clients[name])
	}
	return out
}

// Status looks up the status detail for any entity: node, virtual node,
// user journey, or client.
func (s *Snapshot) Status(name string) (*model.EntityStatus, error) {
	es, ok := s.Statuses[name]
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", name, ErrNotFound)
	}
	return es, nil
}

// StatusList returns every entity status sorted by name.
func (s *Snapshot) StatusList() []*model.EntityStatus {
	out := make([]*model.EntityStatus, 0, len(s.Statuses))
	for _, name := range sortedKeys(s.Statuses) {
		out = append(out, s.Statuses[name])
	}
	return out
}

// GraphResponse flattens the snapshot into the wire shape the visualization
// endpoint serves: every entity as a vertex, effective containment and
// dependency links as edges, and status totals.
func (s *Snapshot) GraphResponse() *model.GraphResponse {
	resp := &model.GraphResponse{Stats: &model.GraphStats{}}

	for _, name := range s.g.Order() {
		e, _ := s.g.Entity(name)
		gn := &model.GraphNode{
			Name:       name,
			Kind:       e.Kind,
			ParentName: s.g.Parent(name),
			Status:     s.Statuses[name].Status,
		}
		switch e.Kind {
		case model.KindNode:
			gn.NodeType = e.Node.Type
		case model.KindVirtualNode:
			gn.Collapsed = e.Virtual.Collapsed
		}
		resp.Nodes = append(resp.Nodes, gn)
	}
	journeyNames := sortedKeys(s.g.Journeys)
	for _, name := range journeyNames {
		j := s.g.Journeys[name]
		resp.Nodes = append(resp.Nodes, &model.GraphNode{
			Name:       name,
			Kind:       model.KindUserJourney,
			ParentName: j.ClientName,
			Status:     s.Statuses[name].Status,
		})
	}
	for _, name := range sortedKeys(s.g.Clients) {
		resp.Nodes = append(resp.Nodes, &model.GraphNode{
			Name:   name,
			Kind:   model.KindClient,
			Status: s.Statuses[name].Status,
		})
	}

	for _, name := range s.g.Order() {
		for _, child := range s.g.Children(name) {
			resp.Edges = append(resp.Edges, &model.GraphEdge{Source: name, Target: child, Type: model.EdgeContainment})
		}
		for _, target := range s.g.DependencyTargets(name) {
			resp.Edges = append(resp.Edges, &model.GraphEdge{Source: name, Target: target, Type: model.EdgeDependency})
		}
	}
	for _, name := range journeyNames {
		j := s.g.Journeys[name]
		resp.Edges = append(resp.Edges, &model.GraphEdge{Source: j.ClientName, Target: name, Type: model.EdgeContainment})
		for _, d := range j.Dependencies {
			resp.Edges = append(resp.Edges, &model.GraphEdge{Source: name, Target: d.TargetName, Type: model.EdgeDependency, Toplevel: true})
		}
	}

	for _, es := range s.Statuses {
		switch es.Status {
		case model.StatusHealthy:
			resp.Stats.TotalHealthy++
		case model.StatusWarn:
			resp.Stats.TotalWarn++
		case model.StatusError:
			resp.Stats.TotalError++
		default:
			resp.Stats.TotalUnspecified++
		}
	}
	return resp
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
