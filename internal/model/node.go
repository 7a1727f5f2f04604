package model

// NodeType is the containment level of a node.
type NodeType string

const (
	NodeTypeSystem   NodeType = "system"
	NodeTypeService  NodeType = "service"
	NodeTypeEndpoint NodeType = "endpoint"
)

// String returns the string representation of the node type.
func (t NodeType) String() string {
	return string(t)
}

// IsValid checks whether the node type is a known value.
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeSystem, NodeTypeService, NodeTypeEndpoint:
		return true
	}
	return false
}

// Node is one element of the containment tree: a system, service, or
// endpoint. Names are fully qualified, dot-delimited strings
// ("grandparent.parent.self") used purely as lookup keys; the explicit
// ParentName/ChildNames links are the authoritative structure.
type Node struct {
	Name         string        `json:"name"`
	Type         NodeType      `json:"node_type"`
	ParentName   string        `json:"parent_name,omitempty"`
	ChildNames   []string      `json:"child_names,omitempty"`
	Dependencies []*Dependency `json:"dependencies,omitempty"`
	SLIs         []*SLI        `json:"slis,omitempty"`
	Comment      string        `json:"comment,omitempty"`

	// Computed data -- populated during aggregation.
	Status         Status `json:"status,omitempty"`
	ComputedStatus Status `json:"computed_status,omitempty"`
	OverrideStatus Status `json:"override_status,omitempty"`
}

// Dependency is a directed runtime-call edge. Toplevel marks edges
// originating from a client, i.e. the entry point of a user journey.
type Dependency struct {
	SourceName string `json:"source_name"`
	TargetName string `json:"target_name"`
	Toplevel   bool   `json:"toplevel,omitempty"`
	Comment    string `json:"comment,omitempty"`
}
