package model

// GraphNode is one vertex of the visualization graph: a real node, a
// virtual node, a user journey, or a client, flattened to a common shape.
type GraphNode struct {
	Name       string     `json:"name"`
	Kind       EntityKind `json:"kind"`
	NodeType   NodeType   `json:"node_type,omitempty"`
	ParentName string     `json:"parent_name,omitempty"`
	Status     Status     `json:"status"`
	Collapsed  bool       `json:"collapsed,omitempty"`
}

// GraphEdgeType distinguishes containment links from dependency calls.
type GraphEdgeType string

const (
	EdgeContainment GraphEdgeType = "containment"
	EdgeDependency  GraphEdgeType = "dependency"
)

// GraphEdge is one directed edge of the visualization graph.
type GraphEdge struct {
	Source   string        `json:"source"`
	Target   string        `json:"target"`
	Type     GraphEdgeType `json:"type"`
	Toplevel bool          `json:"toplevel,omitempty"`
}

// GraphStats holds aggregate entity counts by status.
type GraphStats struct {
	TotalHealthy     int `json:"total_healthy"`
	TotalWarn        int `json:"total_warn"`
	TotalError       int `json:"total_error"`
	TotalUnspecified int `json:"total_unspecified"`
}

// GraphResponse is the response for the graph visualization endpoint.
type GraphResponse struct {
	Nodes []*GraphNode `json:"nodes"`
	Edges []*GraphEdge `json:"edges"`
	Stats *GraphStats  `json:"stats"`
}
