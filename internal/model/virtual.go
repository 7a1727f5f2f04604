package model

// VirtualNode is an operator-defined grouping of sibling nodes. It behaves
// like a regular non-leaf node for status aggregation but is never a source
// of SLIs itself. ParentName is the grouping scope (empty for the root
// scope); Collapsed affects presentation only.
type VirtualNode struct {
	Name       string   `json:"name"`
	ParentName string   `json:"parent_name,omitempty"`
	ChildNames []string `json:"child_names"`
	Collapsed  bool     `json:"collapsed"`
	Comment    string   `json:"comment,omitempty"`

	// Computed data -- populated during aggregation.
	Status         Status `json:"status,omitempty"`
	ComputedStatus Status `json:"computed_status,omitempty"`
	OverrideStatus Status `json:"override_status,omitempty"`
}
