package model

// EntityKind distinguishes the four status-bearing entity families.
type EntityKind string

const (
	KindNode        EntityKind = "node"
	KindVirtualNode EntityKind = "virtual_node"
	KindUserJourney EntityKind = "user_journey"
	KindClient      EntityKind = "client"
)

// String returns the string representation of the entity kind.
func (k EntityKind) String() string {
	return string(k)
}

// IsValid checks whether the entity kind is a known value.
func (k EntityKind) IsValid() bool {
	switch k {
	case KindNode, KindVirtualNode, KindUserJourney, KindClient:
		return true
	}
	return false
}

// EntityStatus is the status detail for a single named entity as served by
// the query interface. ComputedStatus is what aggregation produced before
// the override was applied; it is set only while an override masks it.
type EntityStatus struct {
	Name           string     `json:"name"`
	Kind           EntityKind `json:"kind"`
	Status         Status     `json:"status"`
	ComputedStatus Status     `json:"computed_status,omitempty"`
	OverrideStatus Status     `json:"override_status,omitempty"`
}
