package graph

import (
	"fmt"
	"strings"
)

// ViolationKind classifies one structural rule failure found during Build.
type ViolationKind string

const (
	ViolationUnknownReference ViolationKind = "unknown_reference"
	ViolationDuplicateName    ViolationKind = "duplicate_name"
	ViolationParentMismatch   ViolationKind = "parent_mismatch"
	ViolationContainmentCycle ViolationKind = "containment_cycle"
	ViolationSelfDependency   ViolationKind = "self_dependency"
	ViolationOverlappingGroup ViolationKind = "overlapping_virtual_group"
)

// Violation is a single structural failure, named after the entity carrying it.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Name   string        `json:"name"`
	Detail string        `json:"detail"`
}

// ValidationError reports every violation found in one Build pass. A batch
// that produces one is discarded wholesale; no partial graph exists.
type ValidationError struct {
	Violations []Violation
}

// Error formats the violations as a semicolon-separated list.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s %s: %s", v.Kind, v.Name, v.Detail)
	}
	return "graph validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether any violation of the given kind was recorded.
func (e *ValidationError) Has(kind ViolationKind) bool {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}
