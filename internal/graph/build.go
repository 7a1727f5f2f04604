package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oakhamlabs/waypost/internal/model"
)

// Build validates one batch of entities and assembles the dual graph.
// Checks run in order: name resolution and parent/child agreement, dependency
// self-loops, virtual group scope and disjointness, containment acyclicity.
// Dependency source names are normalized onto their owning node or journey and
// journey dependencies are forced toplevel, so Build expects working copies,
// not shared entities. On any violation it returns a *ValidationError listing
// all of them and no graph.
func Build(nodes []*model.Node, clients []*model.Client, virtual []*model.VirtualNode) (*Graph, error) {
	g := &Graph{
		Nodes:    make(map[string]*model.Node, len(nodes)),
		Virtual:  make(map[string]*model.VirtualNode, len(virtual)),
		Clients:  make(map[string]*model.Client, len(clients)),
		Journeys: make(map[string]*model.UserJourney),
		entities: make(map[string]*Entity, len(nodes)+len(virtual)),
		children: make(map[string][]string),
		parents:  make(map[string]string),
		deps:     make(map[string][]string),
	}

	var violations []Violation
	violate := func(kind ViolationKind, name, format string, args ...any) {
		violations = append(violations, Violation{Kind: kind, Name: name, Detail: fmt.Sprintf(format, args...)})
	}

	// One namespace across all four entity families: statuses are keyed by
	// name alone, so collisions anywhere corrupt lookups.
	owners := make(map[string]string)
	claim := func(name, family string) bool {
		if name == "" {
			violate(ViolationUnknownReference, "", "%s with empty name", family)
			return false
		}
		if prev, ok := owners[name]; ok {
			violate(ViolationDuplicateName, name, "%s name already used by a %s", family, prev)
			return false
		}
		owners[name] = family
		return true
	}

	for _, n := range nodes {
		if !claim(n.Name, "node") {
			continue
		}
		g.Nodes[n.Name] = n
		g.entities[n.Name] = &Entity{Name: n.Name, Kind: model.KindNode, Node: n}
	}
	for _, v := range virtual {
		if !claim(v.Name, "virtual node") {
			continue
		}
		g.Virtual[v.Name] = v
		g.entities[v.Name] = &Entity{Name: v.Name, Kind: model.KindVirtualNode, Virtual: v}
	}
	for _, c := range clients {
		if !claim(c.Name, "client") {
			continue
		}
		g.Clients[c.Name] = c
		for _, j := range c.UserJourneys {
			if j.ClientName == "" {
				j.ClientName = c.Name
			}
			if !claim(j.Name, "user journey") {
				continue
			}
			g.Journeys[j.Name] = j
		}
	}

	// Reference and agreement checks, in sorted order so violation lists are
	// deterministic.
	for _, name := range sortedKeys(g.Nodes) {
		n := g.Nodes[name]
		if n.ParentName != "" {
			parent, ok := g.Nodes[n.ParentName]
			switch {
			case !ok:
				violate(ViolationUnknownReference, name, "parent %q does not exist", n.ParentName)
			case !containsString(parent.ChildNames, name):
				violate(ViolationParentMismatch, name, "parent %q does not list it as a child", n.ParentName)
			}
		}
		for _, childName := range n.ChildNames {
			child, ok := g.Nodes[childName]
			if !ok {
				violate(ViolationUnknownReference, name, "child %q does not exist", childName)
				continue
			}
			if child.ParentName != name {
				violate(ViolationParentMismatch, name, "child %q names parent %q instead", childName, child.ParentName)
			}
		}
		for _, d := range n.Dependencies {
			if d.SourceName == "" {
				d.SourceName = name
			}
			if d.TargetName == name {
				violate(ViolationSelfDependency, name, "dependency on itself")
				continue
			}
			if _, ok := g.Nodes[d.TargetName]; !ok {
				violate(ViolationUnknownReference, name, "dependency target %q does not exist", d.TargetName)
				continue
			}
			if !containsString(g.deps[name], d.TargetName) {
				g.deps[name] = append(g.deps[name], d.TargetName)
			}
		}
	}

	// Virtual group scope and disjointness. A member's explicit parent must
	// be the group's scope, and no member may be claimed twice.
	groupOf := make(map[string]string)
	for _, name := range sortedKeys(g.Virtual) {
		v := g.Virtual[name]
		if v.ParentName != "" {
			if _, ok := g.Nodes[v.ParentName]; !ok {
				violate(ViolationUnknownReference, name, "scope %q does not exist", v.ParentName)
			}
		}
		for _, memberName := range v.ChildNames {
			member, ok := g.entities[memberName]
			if !ok {
				violate(ViolationUnknownReference, name, "member %q does not exist", memberName)
				continue
			}
			memberParent := ""
			switch member.Kind {
			case model.KindNode:
				memberParent = member.Node.ParentName
			case model.KindVirtualNode:
				memberParent = member.Virtual.ParentName
			}
			if memberParent != v.ParentName {
				violate(ViolationParentMismatch, name, "member %q is not a sibling in scope %q", memberName, v.ParentName)
				continue
			}
			if prev, ok := groupOf[memberName]; ok {
				violate(ViolationOverlappingGroup, name, "member %q already grouped by %q", memberName, prev)
				continue
			}
			groupOf[memberName] = name
		}
	}

	// Journey dependencies point into the node graph and mark entry points.
	for _, name := range sortedKeys(g.Journeys) {
		j := g.Journeys[name]
		for _, d := range j.Dependencies {
			d.SourceName = name
			d.Toplevel = true
			if _, ok := g.Nodes[d.TargetName]; !ok {
				violate(ViolationUnknownReference, name, "dependency target %q does not exist", d.TargetName)
			}
		}
	}

	// Effective containment: grouped members hang off their group, the group
	// hangs off its scope.
	g.order = sortedKeys(g.entities)
	for _, name := range g.order {
		e := g.entities[name]
		switch e.Kind {
		case model.KindNode:
			var eff []string
			seen := make(map[string]bool)
			for _, childName := range e.Node.ChildNames {
				if _, ok := g.entities[childName]; !ok {
					continue // already reported
				}
				target := childName
				if grp, ok := groupOf[childName]; ok {
					target = grp
				}
				if !seen[target] {
					seen[target] = true
					eff = append(eff, target)
				}
			}
			g.children[name] = eff
		case model.KindVirtualNode:
			var eff []string
			for _, memberName := range e.Virtual.ChildNames {
				if _, ok := g.entities[memberName]; ok {
					eff = append(eff, memberName)
				}
			}
			g.children[name] = eff
		}
	}
	for _, name := range g.order {
		e := g.entities[name]
		explicitParent := ""
		switch e.Kind {
		case model.KindNode:
			explicitParent = e.Node.ParentName
		case model.KindVirtualNode:
			explicitParent = e.Virtual.ParentName
		}
		switch {
		case groupOf[name] != "":
			g.parents[name] = groupOf[name]
		case explicitParent != "":
			g.parents[name] = explicitParent
		default:
			g.roots = append(g.roots, name)
		}
	}

	violations = append(violations, findContainmentCycles(g)...)

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return g, nil
}

// findContainmentCycles walks the effective containment children from every
// entity and reports each cycle once, with the full path in the detail.
func findContainmentCycles(g *Graph) []Violation {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.entities))
	var stack []string
	var found []Violation

	var walk func(name string)
	walk = func(name string) {
		color[name] = gray
		stack = append(stack, name)
		for _, child := range g.children[name] {
			switch color[child] {
			case white:
				walk(child)
			case gray:
				i := 0
				for ; i < len(stack); i++ {
					if stack[i] == child {
						break
					}
				}
				cycle := append(append([]string(nil), stack[i:]...), child)
				found = append(found, Violation{
					Kind:   ViolationContainmentCycle,
					Name:   child,
					Detail: "containment cycle: " + strings.Join(cycle, " -> "),
				})
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
	}

	for _, name := range g.order {
		if color[name] == white {
			walk(name)
		}
	}
	return found
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
