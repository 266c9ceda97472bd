// Package command implements the stochastic command generators which
// tell the walking policy how fast to move, how fast to turn and how
// quickly to step. Generators hold no per-episode state: the previous
// command is always passed in explicitly and a new value is returned.
package command

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/environment"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
)

// Command generates a fixed-width command vector
type Command interface {
	// Name returns the key of the command in a command mapping
	Name() string

	// Width returns the fixed width of the command vector
	Width() int

	// Initial returns the command at the start of an episode
	Initial(state environment.PhysicsState, level float64,
		key randutils.Key) []float64

	// Step returns the command for the next step given the previous
	// command
	Step(prev []float64, state environment.PhysicsState, level float64,
		key randutils.Key) []float64
}

// Set is an ordered collection of command generators
type Set []Command

// Validate checks that each command in the Set has a unique name
func (s Set) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, c := range s {
		if seen[c.Name()] {
			return fmt.Errorf("validate: duplicate command %q", c.Name())
		}
		seen[c.Name()] = true
	}
	return nil
}

// Names returns the names of the commands in order
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name()
	}
	return names
}

// Initial returns the commands at the start of an episode. Each
// generator draws from its own key split from key.
func (s Set) Initial(state environment.PhysicsState, level float64,
	key randutils.Key) timestep.Commands {
	keys := key.Split(len(s))

	cmds := make(timestep.Commands, len(s))
	for i, c := range s {
		cmds[c.Name()] = c.Initial(state, level, keys[i])
	}
	return cmds
}

// Step returns the commands for the next step given the commands of
// the previous step. The previous commands are not modified.
func (s Set) Step(prev timestep.Commands, state environment.PhysicsState,
	level float64, key randutils.Key) (timestep.Commands, error) {
	keys := key.Split(len(s))

	cmds := make(timestep.Commands, len(s))
	for i, c := range s {
		p, err := prev.Get(c.Name())
		if err != nil {
			return nil, fmt.Errorf("step: %w", err)
		}
		if len(p) != c.Width() {
			return nil, fmt.Errorf("step: command %q has width "+
				"\n\twant(%v) \n\thave(%v)", c.Name(), c.Width(), len(p))
		}
		cmds[c.Name()] = c.Step(p, state, level, keys[i])
	}
	return cmds, nil
}

// resample returns the output of initial with probability switchProb
// and a copy of prev otherwise
func resample(prev []float64, switchProb float64, key randutils.Key,
	initial func(randutils.Key) []float64) []float64 {
	switchKey, sampleKey := key.Split2()
	if switchKey.Bernoulli(switchProb) {
		return initial(sampleKey)
	}
	return append([]float64(nil), prev...)
}

func validateProb(name string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%v must be in [0, 1], have(%v)", name, p)
	}
	return nil
}
