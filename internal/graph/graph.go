// Package graph builds and validates the dual representation of one entity
// batch: the effective containment forest (virtual groups splice in between
// their scope and their members) and the dependency adjacency, both indexed
// by fully-qualified name. Explicit parent/child links are the only source
// of structure; names are treated as opaque keys.
package graph

import "github.com/oakhamlabs/waypost/internal/model"

// Entity is the tagged variant over the two containment participants.
// Kind is always KindNode or KindVirtualNode and exactly one of
// Node/Virtual is non-nil.
type Entity struct {
	Name    string
	Kind    model.EntityKind
	Node    *model.Node
	Virtual *model.VirtualNode
}

// Override returns the pinned status for the entity, or StatusUnspecified
// when no override is set.
func (e *Entity) Override() model.Status {
	var ov model.Status
	switch e.Kind {
	case model.KindNode:
		ov = e.Node.OverrideStatus
	case model.KindVirtualNode:
		ov = e.Virtual.OverrideStatus
	}
	if !model.HasOverride(ov) {
		return model.StatusUnspecified
	}
	return ov
}

// Graph is a validated batch of entities plus the derived indexes used by
// aggregation. Instances are immutable once returned by Build.
type Graph struct {
	Nodes    map[string]*model.Node
	Virtual  map[string]*model.VirtualNode
	Clients  map[string]*model.Client
	Journeys map[string]*model.UserJourney

	entities map[string]*Entity
	children map[string][]string // effective containment, parent → children
	parents  map[string]string   // effective containment, child → parent
	deps     map[string][]string // dependency adjacency, node → targets
	roots    []string
	order    []string // deterministic sweep order over containment entities
}

// Entity returns the containment entity (real or virtual) with the given name.
func (g *Graph) Entity(name string) (*Entity, bool) {
	e, ok := g.entities[name]
	return e, ok
}

// Order returns every containment entity name in deterministic order.
func (g *Graph) Order() []string {
	return g.order
}

// Children returns the effective containment children of the named entity.
// Grouped members appear under their virtual node, not their explicit parent.
func (g *Graph) Children(name string) []string {
	return g.children[name]
}

// Parent returns the effective containment parent, or "" for a root.
func (g *Graph) Parent(name string) string {
	return g.parents[name]
}

// Roots returns the containment roots in deterministic order.
func (g *Graph) Roots() []string {
	return g.roots
}

// Siblings returns the effective children of a scope; the empty scope means
// the forest roots.
func (g *Graph) Siblings(scope string) []string {
	if scope == "" {
		return g.roots
	}
	return g.children[scope]
}

// Grouped returns the virtual node currently grouping the named entity.
func (g *Graph) Grouped(name string) (string, bool) {
	p := g.parents[name]
	if _, ok := g.Virtual[p]; ok {
		return p, true
	}
	return "", false
}

// DependencyTargets returns the distinct dependency target names of a node.
func (g *Graph) DependencyTargets(name string) []string {
	return g.deps[name]
}
