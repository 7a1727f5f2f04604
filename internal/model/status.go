package model

// Status is the health state of an entity (node, virtual node, user
// journey, or client). Statuses are ordered by severity so that
// aggregation can take the worst of several inputs.
type Status string

const (
	StatusUnspecified Status = "unspecified"
	StatusHealthy     Status = "healthy"
	StatusWarn        Status = "warn"
	StatusError       Status = "error"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnspecified, StatusHealthy, StatusWarn, StatusError:
		return true
	}
	return false
}

// Rank returns the severity rank of the status:
// unspecified(0) < healthy(1) < warn(2) < error(3).
// Unknown values rank as unspecified.
func (s Status) Rank() int {
	switch s {
	case StatusHealthy:
		return 1
	case StatusWarn:
		return 2
	case StatusError:
		return 3
	}
	return 0
}

// Worse returns the more severe of s and o.
func (s Status) Worse(o Status) Status {
	if o.Rank() > s.Rank() {
		return o
	}
	return s
}

// StepsBetween returns the absolute severity distance between two statuses,
// e.g. healthy to warn is one step and healthy to error is two.
func StepsBetween(a, b Status) int {
	d := a.Rank() - b.Rank()
	if d < 0 {
		d = -d
	}
	return d
}

// HasOverride reports whether s pins a concrete severity. Empty and
// unspecified both mean "no override".
func HasOverride(s Status) bool {
	return s != "" && s != StatusUnspecified
}
