package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/oakhamlabs/waypost/internal/model"
)

func node(name, parent string, children ...string) *model.Node {
	t := model.NodeTypeEndpoint
	if len(children) > 0 {
		t = model.NodeTypeService
	}
	return &model.Node{Name: name, Type: t, ParentName: parent, ChildNames: children}
}

func testTopology() ([]*model.Node, []*model.Client) {
	checkout := node("Shop.Checkout", "Shop")
	checkout.Dependencies = []*model.Dependency{{TargetName: "Billing"}}
	nodes := []*model.Node{
		node("Shop", "", "Shop.Web", "Shop.Checkout"),
		node("Shop.Web", "Shop"),
		checkout,
		node("Billing", ""),
	}
	clients := []*model.Client{{
		Name: "Storefront",
		UserJourneys: []*model.UserJourney{{
			Name:         "Storefront.Purchase",
			ClientName:   "Storefront",
			Dependencies: []*model.Dependency{{TargetName: "Shop.Checkout"}},
		}},
	}}
	return nodes, clients
}

func mustBuild(t *testing.T, nodes []*model.Node, clients []*model.Client, virtual []*model.VirtualNode) *Graph {
	t.Helper()
	g, err := Build(nodes, clients, virtual)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return g
}

func buildViolations(t *testing.T, nodes []*model.Node, clients []*model.Client, virtual []*model.VirtualNode) *ValidationError {
	t.Helper()
	g, err := Build(nodes, clients, virtual)
	if err == nil {
		t.Fatalf("Build() succeeded, want validation error (graph %v)", g.Order())
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Build() error = %T, want *ValidationError", err)
	}
	return ve
}

func TestBuild_ValidTopology(t *testing.T) {
	nodes, clients := testTopology()
	g := mustBuild(t, nodes, clients, nil)

	if got, want := g.Roots(), []string{"Billing", "Shop"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
	if got, want := g.Children("Shop"), []string{"Shop.Web", "Shop.Checkout"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Children(Shop) = %v, want %v", got, want)
	}
	if got := g.Parent("Shop.Web"); got != "Shop" {
		t.Errorf("Parent(Shop.Web) = %q, want Shop", got)
	}
	if got, want := g.DependencyTargets("Shop.Checkout"), []string{"Billing"}; !reflect.DeepEqual(got, want) {
		t.Errorf("DependencyTargets(Shop.Checkout) = %v, want %v", got, want)
	}
	j, ok := g.Journeys["Storefront.Purchase"]
	if !ok {
		t.Fatal("journey Storefront.Purchase not indexed")
	}
	if !j.Dependencies[0].Toplevel {
		t.Error("journey dependency not marked toplevel")
	}
	if got := j.Dependencies[0].SourceName; got != "Storefront.Purchase" {
		t.Errorf("journey dependency source = %q, want Storefront.Purchase", got)
	}
}

func TestBuild_DependencySourceNormalized(t *testing.T) {
	nodes, clients := testTopology()
	g := mustBuild(t, nodes, clients, nil)
	if got := g.Nodes["Shop.Checkout"].Dependencies[0].SourceName; got != "Shop.Checkout" {
		t.Errorf("dependency source = %q, want Shop.Checkout", got)
	}
}

func TestBuild_ContainmentCycle(t *testing.T) {
	a := node("A", "B", "B")
	b := node("B", "A", "A")
	ve := buildViolations(t, []*model.Node{a, b}, nil, nil)
	if !ve.Has(ViolationContainmentCycle) {
		t.Errorf("violations = %+v, want a containment_cycle", ve.Violations)
	}
}

func TestBuild_SelfDependency(t *testing.T) {
	n := node("A", "")
	n.Dependencies = []*model.Dependency{{TargetName: "A"}}
	ve := buildViolations(t, []*model.Node{n}, nil, nil)
	if !ve.Has(ViolationSelfDependency) {
		t.Errorf("violations = %+v, want a self_dependency", ve.Violations)
	}
}

func TestBuild_UnknownReferences(t *testing.T) {
	for _, tc := range []struct {
		name  string
		nodes []*model.Node
	}{
		{"missing parent", []*model.Node{node("A", "Ghost")}},
		{"missing child", []*model.Node{node("A", "", "Ghost")}},
		{"missing dep target", []*model.Node{func() *model.Node {
			n := node("A", "")
			n.Dependencies = []*model.Dependency{{TargetName: "Ghost"}}
			return n
		}()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ve := buildViolations(t, tc.nodes, nil, nil)
			if !ve.Has(ViolationUnknownReference) {
				t.Errorf("violations = %+v, want an unknown_reference", ve.Violations)
			}
		})
	}
}

func TestBuild_ParentMismatch(t *testing.T) {
	parent := node("P", "", "C")
	child := node("C", "Q")
	other := node("Q", "")
	ve := buildViolations(t, []*model.Node{parent, child, other}, nil, nil)
	if !ve.Has(ViolationParentMismatch) {
		t.Errorf("violations = %+v, want a parent_mismatch", ve.Violations)
	}
}

func TestBuild_DuplicateNameAcrossFamilies(t *testing.T) {
	nodes := []*model.Node{node("Shop", "")}
	clients := []*model.Client{{Name: "Shop"}}
	ve := buildViolations(t, nodes, clients, nil)
	if !ve.Has(ViolationDuplicateName) {
		t.Errorf("violations = %+v, want a duplicate_name", ve.Violations)
	}
}

func TestBuild_VirtualGrouping(t *testing.T) {
	nodes := []*model.Node{
		node("A", ""),
		node("B", ""),
		node("C", ""),
	}
	vn := &model.VirtualNode{Name: "Group", ChildNames: []string{"A", "B"}, Collapsed: true}
	g := mustBuild(t, nodes, nil, []*model.VirtualNode{vn})

	if got, want := g.Roots(), []string{"C", "Group"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
	if got := g.Parent("A"); got != "Group" {
		t.Errorf("Parent(A) = %q, want Group", got)
	}
	if got, want := g.Children("Group"), []string{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Children(Group) = %v, want %v", got, want)
	}
	if grp, ok := g.Grouped("A"); !ok || grp != "Group" {
		t.Errorf("Grouped(A) = %q, %v; want Group, true", grp, ok)
	}
	if _, ok := g.Grouped("C"); ok {
		t.Error("Grouped(C) reported a group for an ungrouped node")
	}
}

func TestBuild_VirtualGroupingUnderScope(t *testing.T) {
	nodes := []*model.Node{
		node("Shop", "", "Shop.A", "Shop.B", "Shop.C"),
		node("Shop.A", "Shop"),
		node("Shop.B", "Shop"),
		node("Shop.C", "Shop"),
	}
	vn := &model.VirtualNode{Name: "Pair", ParentName: "Shop", ChildNames: []string{"Shop.A", "Shop.B"}, Collapsed: true}
	g := mustBuild(t, nodes, nil, []*model.VirtualNode{vn})

	if got, want := g.Children("Shop"), []string{"Pair", "Shop.C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Children(Shop) = %v, want %v", got, want)
	}
	if got := g.Parent("Pair"); got != "Shop" {
		t.Errorf("Parent(Pair) = %q, want Shop", got)
	}
	if got, want := g.Siblings("Shop"), []string{"Pair", "Shop.C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Siblings(Shop) = %v, want %v", got, want)
	}
}

func TestBuild_OverlappingVirtualGroups(t *testing.T) {
	nodes := []*model.Node{node("A", ""), node("B", "")}
	v1 := &model.VirtualNode{Name: "G1", ChildNames: []string{"A", "B"}}
	v2 := &model.VirtualNode{Name: "G2", ChildNames: []string{"B"}}
	ve := buildViolations(t, nodes, nil, []*model.VirtualNode{v1, v2})
	if !ve.Has(ViolationOverlappingGroup) {
		t.Errorf("violations = %+v, want an overlapping_virtual_group", ve.Violations)
	}
}

func TestBuild_VirtualMemberOutsideScope(t *testing.T) {
	nodes := []*model.Node{
		node("Shop", "", "Shop.A"),
		node("Shop.A", "Shop"),
		node("Billing", ""),
	}
	vn := &model.VirtualNode{Name: "Mixed", ParentName: "Shop", ChildNames: []string{"Shop.A", "Billing"}}
	ve := buildViolations(t, nodes, nil, []*model.VirtualNode{vn})
	if !ve.Has(ViolationParentMismatch) {
		t.Errorf("violations = %+v, want a parent_mismatch", ve.Violations)
	}
}

func TestBuild_NestedVirtualGroups(t *testing.T) {
	nodes := []*model.Node{node("A", ""), node("B", ""), node("C", "")}
	inner := &model.VirtualNode{Name: "Inner", ChildNames: []string{"A", "B"}}
	outer := &model.VirtualNode{Name: "Outer", ChildNames: []string{"Inner", "C"}}
	g := mustBuild(t, nodes, nil, []*model.VirtualNode{inner, outer})

	if got, want := g.Roots(), []string{"Outer"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
	if got := g.Parent("Inner"); got != "Outer" {
		t.Errorf("Parent(Inner) = %q, want Outer", got)
	}
}

func TestBuild_CycleThroughVirtualGroupsDetected(t *testing.T) {
	// Two virtual nodes that each claim the other form a containment cycle
	// unreachable from any root.
	v1 := &model.VirtualNode{Name: "G1", ChildNames: []string{"G2"}}
	v2 := &model.VirtualNode{Name: "G2", ChildNames: []string{"G1"}}
	ve := buildViolations(t, nil, nil, []*model.VirtualNode{v1, v2})
	if !ve.Has(ViolationContainmentCycle) {
		t.Errorf("violations = %+v, want a containment_cycle", ve.Violations)
	}
}
