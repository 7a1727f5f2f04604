// Package sli scores raw SLI samples against their objective bounds and
// applies hysteresis between consecutive samples of one series.
package sli

import "github.com/oakhamlabs/waypost/internal/model"

// Classify scores one sample by nested bound check: strictly outside the
// error bounds is Error, strictly outside the warn bounds is Warn, otherwise
// Healthy. A nil bound is unbounded on that side, so a value equal to a
// bound stays in the less severe class.
func Classify(s *model.SLI) model.Status {
	if outside(s.Value, s.ErrorLowerBound, s.ErrorUpperBound) {
		return model.StatusError
	}
	if outside(s.Value, s.WarnLowerBound, s.WarnUpperBound) {
		return model.StatusWarn
	}
	return model.StatusHealthy
}

func outside(v float64, lower, upper *float64) bool {
	if lower != nil && v < *lower {
		return true
	}
	if upper != nil && v > *upper {
		return true
	}
	return false
}

// Evaluate classifies a sample and applies hysteresis against the previous
// sample of the same series: a one-step status change whose value moved by
// less than the sample's intra-status-change threshold keeps the previous
// status, while a jump of two or more severity steps always applies. The
// sample's Status field is set to the outcome.
func Evaluate(s, prev *model.SLI) model.Status {
	status := Classify(s)
	if prev != nil && prev.Status != "" && prev.Status != model.StatusUnspecified {
		delta := s.Value - prev.Value
		if delta < 0 {
			delta = -delta
		}
		if model.StepsBetween(status, prev.Status) == 1 && delta < s.IntraStatusChangeThreshold {
			status = prev.Status
		}
	}
	s.Status = status
	return status
}

// OwnStatus is a node's own SLI-derived status: the worst status among its
// evaluated series, or Unspecified for a node with no samples.
func OwnStatus(slis []*model.SLI) model.Status {
	st := model.StatusUnspecified
	for _, s := range slis {
		st = st.Worse(s.Status)
	}
	return st
}
