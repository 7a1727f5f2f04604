package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/oakhamlabs/waypost/internal/aggregate"
	"github.com/oakhamlabs/waypost/internal/events"
	"github.com/oakhamlabs/waypost/internal/graph"
	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/oakhamlabs/waypost/internal/sli"
	"github.com/oakhamlabs/waypost/internal/snapshot"
)

// rebuildLocked turns one working state into a published snapshot: clone the
// raw entities, merge operator state, validate, aggregate, swap, emit events.
// Callers hold e.mu. On error nothing is published and the prior snapshot
// stays authoritative. The returned count is the number of entities whose
// effective status moved.
func (e *Engine) rebuildLocked(ctx context.Context, w *workingState) (*snapshot.Snapshot, []string, int, error) {
	nodes := make([]*model.Node, len(w.nodes))
	for i, n := range w.nodes {
		nodes[i] = n.Clone()
	}
	clients := make([]*model.Client, len(w.clients))
	for i, c := range w.clients {
		clients[i] = c.Clone()
	}
	virtual, warnings := mergeVirtual(nodes, clients, w.virtual)

	nodeIdx := make(map[string]*model.Node, len(nodes))
	for _, n := range nodes {
		nodeIdx[n.Name] = n
	}
	virtualIdx := make(map[string]*model.VirtualNode, len(virtual))
	for _, v := range virtual {
		virtualIdx[v.Name] = v
	}
	clientIdx := make(map[string]*model.Client, len(clients))
	for _, c := range clients {
		clientIdx[c.Name] = c
	}

	// Overrides and comments for names this batch does not carry are skipped;
	// they stay in the store and reapply if the entity returns.
	for name, st := range w.overrides {
		switch {
		case nodeIdx[name] != nil:
			nodeIdx[name].OverrideStatus = st
		case virtualIdx[name] != nil:
			virtualIdx[name].OverrideStatus = st
		}
	}
	for name, comment := range w.comments {
		switch {
		case nodeIdx[name] != nil:
			nodeIdx[name].Comment = comment
		case virtualIdx[name] != nil:
			virtualIdx[name].Comment = comment
		case clientIdx[name] != nil:
			clientIdx[name].Comment = comment
		}
	}

	g, err := graph.Build(nodes, clients, virtual)
	if err != nil {
		return nil, nil, 0, err
	}

	own := make(map[string]model.Status, len(nodes))
	for _, n := range nodes {
		if st := sli.OwnStatus(n.SLIs); st != model.StatusUnspecified {
			own[n.Name] = st
		}
	}

	r := aggregate.Compute(g, own)
	r.Apply(g)

	id, err := e.newID()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("snapshot id: %w", err)
	}
	snap := snapshot.New(id, e.now(), g, r, w.stale)
	prev := e.holder.Swap(snap)

	changed := e.publishSnapshot(ctx, prev, snap)
	return snap, warnings, changed, nil
}

// publishSnapshot emits the snapshot-published event plus one status-changed
// event per entity whose effective status differs from the previous snapshot.
// The first publish reports no transitions.
func (e *Engine) publishSnapshot(ctx context.Context, prev, cur *snapshot.Snapshot) int {
	var changes []*events.StatusChanged
	if prev != nil {
		for name, es := range cur.Statuses {
			from := model.StatusUnspecified
			if p, ok := prev.Statuses[name]; ok {
				from = p.Status
			}
			if es.Status == from {
				continue
			}
			changes = append(changes, &events.StatusChanged{
				Name:       name,
				Kind:       es.Kind,
				From:       from,
				To:         es.Status,
				SnapshotID: cur.ID,
			})
		}
		sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	}

	e.publish(ctx, events.TopicSnapshotPublished, &events.SnapshotPublished{
		SnapshotID:  cur.ID,
		BuiltAt:     cur.BuiltAt,
		StaleSeries: cur.StaleSeries,
		Changed:     len(changes),
	})
	for _, c := range changes {
		e.publish(ctx, events.TopicStatusChanged, c)
	}
	return len(changes)
}

// mergeVirtual filters persisted virtual-node definitions against the fetched
// topology. Members that vanished or re-parented are pruned with a warning; a
// group whose name is now taken, whose scope is gone, or with no surviving
// members is omitted for this cycle. Stored definitions are never modified,
// so pruned state reapplies by itself once the topology matches again.
func mergeVirtual(nodes []*model.Node, clients []*model.Client, defs []*model.VirtualNode) ([]*model.VirtualNode, []string) {
	nodeByName := make(map[string]*model.Node, len(nodes))
	taken := make(map[string]bool, len(nodes)+len(clients))
	for _, n := range nodes {
		nodeByName[n.Name] = n
		taken[n.Name] = true
	}
	for _, c := range clients {
		taken[c.Name] = true
		for _, j := range c.UserJourneys {
			taken[j.Name] = true
		}
	}

	var warnings []string
	warnf := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	kept := make(map[string]*model.VirtualNode, len(defs))
	order := make([]string, 0, len(defs))
	for _, v := range defs {
		if taken[v.Name] {
			warnf("virtual node %q: name now taken by the topology, omitted", v.Name)
			continue
		}
		kept[v.Name] = v.Clone()
		order = append(order, v.Name)
	}
	sort.Strings(order)

	// Members may be other virtual nodes, so omitting one group can
	// invalidate another; iterate until the kept set is stable.
	for changed := true; changed; {
		changed = false
		groupOf := make(map[string]string)
		for _, name := range order {
			v, ok := kept[name]
			if !ok {
				continue
			}
			if v.ParentName != "" && nodeByName[v.ParentName] == nil {
				warnf("virtual node %q: scope %q no longer exists, omitted", name, v.ParentName)
				delete(kept, name)
				changed = true
				continue
			}
			members := v.ChildNames[:0]
			for _, m := range v.ChildNames {
				parent, ok := memberParent(m, nodeByName, kept)
				if !ok {
					warnf("virtual node %q: member %q no longer exists, pruned", name, m)
					changed = true
					continue
				}
				if parent != v.ParentName {
					warnf("virtual node %q: member %q moved out of scope %q, pruned", name, m, v.ParentName)
					changed = true
					continue
				}
				if prev, dup := groupOf[m]; dup {
					if prev != name {
						warnf("virtual node %q: member %q already grouped by %q, pruned", name, m, prev)
					}
					changed = true
					continue
				}
				groupOf[m] = name
				members = append(members, m)
			}
			if len(members) == 0 {
				warnf("virtual node %q: no surviving members, omitted", name)
				delete(kept, name)
				changed = true
				continue
			}
			v.ChildNames = members
		}
	}

	out := make([]*model.VirtualNode, 0, len(kept))
	for _, name := range order {
		if v, ok := kept[name]; ok {
			out = append(out, v)
		}
	}
	return out, warnings
}

// memberParent resolves a member's explicit parent: its scope for a virtual
// node, its containment parent for a real one.
func memberParent(name string, nodes map[string]*model.Node, virtual map[string]*model.VirtualNode) (string, bool) {
	if n, ok := nodes[name]; ok {
		return n.ParentName, true
	}
	if v, ok := virtual[name]; ok {
		return v.ParentName, true
	}
	return "", false
}
