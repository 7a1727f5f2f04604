package model

import "time"

// SLIType is the metric family of a service level indicator.
type SLIType string

const (
	SLIAvailability SLIType = "availability"
	SLILatency      SLIType = "latency"
	SLIThroughput   SLIType = "throughput"
)

// String returns the string representation of the SLI type.
func (t SLIType) String() string {
	return string(t)
}

// IsValid checks whether the SLI type is a known value.
func (t SLIType) IsValid() bool {
	switch t {
	case SLIAvailability, SLILatency, SLIThroughput:
		return true
	}
	return false
}

// SLI is one measured indicator value for one node and metric type at one
// point in time, together with the objective bounds it is judged against.
// A nil bound is unbounded on that side. Each (node_name, sli_type) pair
// identifies one series; aggregation uses the latest sample per series.
type SLI struct {
	NodeName  string    `json:"node_name"`
	Type      SLIType   `json:"sli_type"`
	Value     float64   `json:"sli_value"`
	SLOTarget float64   `json:"slo_target,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	WarnLowerBound  *float64 `json:"slo_warn_lower_bound,omitempty"`
	WarnUpperBound  *float64 `json:"slo_warn_upper_bound,omitempty"`
	ErrorLowerBound *float64 `json:"slo_error_lower_bound,omitempty"`
	ErrorUpperBound *float64 `json:"slo_error_upper_bound,omitempty"`

	// IntraStatusChangeThreshold is the minimum value delta required for a
	// one-step status change to take effect (hysteresis).
	IntraStatusChangeThreshold float64 `json:"intra_status_change_threshold,omitempty"`

	Comment string `json:"comment,omitempty"`

	// Computed data -- populated during evaluation.
	Status Status `json:"status,omitempty"`
}

// SeriesKey identifies the (node, type) series a sample belongs to.
func (s *SLI) SeriesKey() string {
	return s.NodeName + "/" + string(s.Type)
}
