package environment

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a single component of a named observation leaves some
// interval
type IntervalLimit struct {
	name      string
	intervals []r1.Interval
	indices   []int
	success   bool
}

// NewIntervalLimit creates and returns a new inteval limit over the
// observation with the given name. The success argument determines
// whether the episode end should be considered successful.
func NewIntervalLimit(name string, limits []r1.Interval, obsIndices []int,
	success bool) Ender {
	if len(limits) != len(obsIndices) {
		panic(fmt.Sprintf("newIntervalLimit: limits length %v should match "+
			"observation indices length %v", len(limits), len(obsIndices)))
	}

	return &IntervalLimit{name, limits, obsIndices, success}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() marks the transition as done.
func (i *IntervalLimit) End(t *Transition, _ int) (bool, error) {
	obs, err := t.Observations.Get(i.name)
	if err != nil {
		return false, fmt.Errorf("end: %w", err)
	}

	for index, featureIndex := range i.indices {
		if featureIndex >= len(obs) {
			return false, fmt.Errorf("end: index %v out of range for "+
				"observation %q of width %v", featureIndex, i.name, len(obs))
		}
		v, interval := obs[featureIndex], i.intervals[index]
		if v > interval.Max || v < interval.Min {
			t.Done = true
			t.Success = i.success
			return true, nil
		}
	}
	return false, nil
}
