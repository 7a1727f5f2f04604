// Package aggregate computes effective statuses for every entity of a
// validated graph. Containment and dependency edges are relaxed together in
// one bounded fixed point, so cycles that thread through both relations still
// converge: status is monotonically non-decreasing in severity per pass and
// bounded above by Error.
package aggregate

import (
	"github.com/oakhamlabs/waypost/internal/graph"
	"github.com/oakhamlabs/waypost/internal/model"
)

// Result is one aggregation outcome. Effective is the served status per
// entity (override applied); Computed is what aggregation produced before
// overrides. The two differ only for overridden entities.
type Result struct {
	Effective map[string]model.Status
	Computed  map[string]model.Status

	// Passes is how many sweeps the fixed point took, at most the number of
	// containment entities.
	Passes int
}

// Compute aggregates statuses over the graph. own maps node names to their
// SLI-derived status; anything absent starts from Unspecified. Precedence per
// entity: an override short-circuits, otherwise the worst of own status,
// effective children statuses, and effective dependency target statuses.
// Journeys and clients have no inbound edges and fold in afterwards.
func Compute(g *graph.Graph, own map[string]model.Status) *Result {
	order := g.Order()
	r := &Result{
		Effective: make(map[string]model.Status, len(order)),
		Computed:  make(map[string]model.Status, len(order)),
	}

	// Overridden entities are pinned from the start so every consumer sees
	// the override, never the computed value.
	for _, name := range order {
		r.Computed[name] = model.StatusUnspecified
		e, _ := g.Entity(name)
		if ov := e.Override(); ov != model.StatusUnspecified {
			r.Effective[name] = ov
		} else {
			r.Effective[name] = model.StatusUnspecified
		}
	}

	for r.Passes < len(order) {
		r.Passes++
		changed := false
		for _, name := range order {
			next := r.Computed[name].Worse(own[name])
			for _, child := range g.Children(name) {
				next = next.Worse(r.Effective[child])
			}
			for _, target := range g.DependencyTargets(name) {
				next = next.Worse(r.Effective[target])
			}
			if next == r.Computed[name] {
				continue
			}
			r.Computed[name] = next
			changed = true
			e, _ := g.Entity(name)
			if e.Override() == model.StatusUnspecified {
				r.Effective[name] = next
			}
		}
		if !changed {
			break
		}
	}

	for name, j := range g.Journeys {
		st := model.StatusUnspecified
		for _, d := range j.Dependencies {
			st = st.Worse(r.Effective[d.TargetName])
		}
		r.Computed[name] = st
		r.Effective[name] = st
	}
	for name, c := range g.Clients {
		st := model.StatusUnspecified
		for _, j := range c.UserJourneys {
			st = st.Worse(r.Effective[j.Name])
		}
		r.Computed[name] = st
		r.Effective[name] = st
	}

	return r
}

// Apply stamps the result onto the graph's entities so their serialized
// forms carry the statuses readers expect. Computed statuses are stamped
// only where an override hides them.
func (r *Result) Apply(g *graph.Graph) {
	for name, n := range g.Nodes {
		n.Status = r.Effective[name]
		if model.HasOverride(n.OverrideStatus) {
			n.ComputedStatus = r.Computed[name]
		}
	}
	for name, v := range g.Virtual {
		v.Status = r.Effective[name]
		if model.HasOverride(v.OverrideStatus) {
			v.ComputedStatus = r.Computed[name]
		}
	}
	for name, j := range g.Journeys {
		j.Status = r.Effective[name]
	}
	for name, c := range g.Clients {
		c.Status = r.Effective[name]
	}
}
