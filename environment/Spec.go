package environment

import (
	"fmt"
	"sort"

	"github.com/samuelfneumann/gowalk/timestep"
)

// Spec implements an observation vocabulary specification, which
// tells the fixed width of each named observation a provider produces
type Spec map[string]int

// NewSpec constructs a new vocabulary specification from parallel
// slices of names and widths
func NewSpec(names []string, widths []int) Spec {
	if len(names) != len(widths) {
		panic(fmt.Sprintf("newSpec: names length %v must match widths "+
			"length %v", len(names), len(widths)))
	}

	s := make(Spec, len(names))
	for i, name := range names {
		if widths[i] <= 0 {
			panic(fmt.Sprintf("newSpec: width of %q must be positive",
				name))
		}
		s[name] = widths[i]
	}
	return s
}

// Names returns the observation names of the Spec in sorted order
func (s Spec) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has returns whether the Spec describes an observation with the given
// name
func (s Spec) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Validate checks that obs holds every observation the Spec describes
// and that each has its declared width
func (s Spec) Validate(obs timestep.Observations) error {
	for _, name := range s.Names() {
		v, err := obs.Get(name)
		if err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		if len(v) != s[name] {
			return fmt.Errorf("validate: observation %q has width "+
				"\n\twant(%v) \n\thave(%v)", name, s[name], len(v))
		}
	}
	return nil
}

// Require checks that the Spec describes each of the named
// observations
func (s Spec) Require(names ...string) error {
	for _, name := range names {
		if !s.Has(name) {
			return fmt.Errorf("require: %w", &timestep.MissingKeyError{
				Source: timestep.Observation,
				Key:    name,
			})
		}
	}
	return nil
}
