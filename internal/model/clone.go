package model

// Clone returns a deep copy of the node, including its dependency and SLI
// slices. Aggregation stamps computed statuses onto working copies so
// published snapshots stay immutable; callers clone before every rebuild.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.ChildNames = append([]string(nil), n.ChildNames...)
	out.Dependencies = cloneDependencies(n.Dependencies)
	if n.SLIs != nil {
		out.SLIs = make([]*SLI, len(n.SLIs))
		for i, s := range n.SLIs {
			out.SLIs[i] = s.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the SLI, including its bound pointers.
func (s *SLI) Clone() *SLI {
	if s == nil {
		return nil
	}
	out := *s
	out.WarnLowerBound = cloneBound(s.WarnLowerBound)
	out.WarnUpperBound = cloneBound(s.WarnUpperBound)
	out.ErrorLowerBound = cloneBound(s.ErrorLowerBound)
	out.ErrorUpperBound = cloneBound(s.ErrorUpperBound)
	return &out
}

// Clone returns a deep copy of the client and its user journeys.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	if c.UserJourneys != nil {
		out.UserJourneys = make([]*UserJourney, len(c.UserJourneys))
		for i, j := range c.UserJourneys {
			out.UserJourneys[i] = j.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the user journey.
func (j *UserJourney) Clone() *UserJourney {
	if j == nil {
		return nil
	}
	out := *j
	out.Dependencies = cloneDependencies(j.Dependencies)
	return &out
}

// Clone returns a deep copy of the virtual node.
func (v *VirtualNode) Clone() *VirtualNode {
	if v == nil {
		return nil
	}
	out := *v
	out.ChildNames = append([]string(nil), v.ChildNames...)
	return &out
}

func cloneDependencies(deps []*Dependency) []*Dependency {
	if deps == nil {
		return nil
	}
	out := make([]*Dependency, len(deps))
	for i, d := range deps {
		dup := *d
		out[i] = &dup
	}
	return out
}

func cloneBound(b *float64) *float64 {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
