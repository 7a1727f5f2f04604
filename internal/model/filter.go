package model

// NodeFilter holds criteria for listing nodes.
type NodeFilter struct {
	Types    []NodeType `json:"types,omitempty"`
	Statuses []Status   `json:"statuses,omitempty"`
	Parent   string     `json:"parent,omitempty"` // exact parent name; "" matches all
}

// Matches reports whether a node passes the filter.
func (f NodeFilter) Matches(n *Node) bool {
	if len(f.Types) > 0 && !containsNodeType(f.Types, n.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, n.Status) {
		return false
	}
	if f.Parent != "" && n.ParentName != f.Parent {
		return false
	}
	return true
}

func containsNodeType(ts []NodeType, t NodeType) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

func containsStatus(ss []Status, s Status) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
