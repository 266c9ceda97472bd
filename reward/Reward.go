// Package reward implements the reward terms of a walking task and
// their aggregation. Every term is computed for a whole trajectory at
// once, producing one value per timestep.
package reward

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/timestep"
	"gonum.org/v1/gonum/stat"
)

// Key names an observation or command a Reward reads
type Key struct {
	Source timestep.Source
	Name   string
}

// Obs returns the Key of an observation
func Obs(name string) Key {
	return Key{Source: timestep.Observation, Name: name}
}

// Cmd returns the Key of a command
func Cmd(name string) Key {
	return Key{Source: timestep.Command, Name: name}
}

// Reward is a single reward term
type Reward interface {
	// Name returns the name of the term
	Name() string

	// Scale returns the multiplier of the term in the total reward
	Scale() float64

	// Requires returns the observations and commands the term reads
	Requires() []Key

	// Reward returns the unscaled value of the term at each timestep
	// of traj. The curriculum level is in [0, 1].
	Reward(traj timestep.Trajectory, level float64) ([]float64, error)
}

// term implements the name and scale of a Reward
type term struct {
	name  string
	scale float64
	keys  []Key
}

func (t term) Name() string { return t.name }

func (t term) Scale() float64 { return t.scale }

func (t term) Requires() []Key { return t.keys }

// Result holds the rewards of a trajectory
type Result struct {
	// Total holds the total reward of each timestep
	Total []float64

	// Names holds the term names in aggregation order, and Terms the
	// scaled values of each term at each timestep
	Names []string
	Terms map[string][]float64
}

// Mean returns the mean scaled value of the named term over all
// timesteps, or of the total reward if name is empty
func (r Result) Mean(name string) float64 {
	if name == "" {
		return stat.Mean(r.Total, nil)
	}
	return stat.Mean(r.Terms[name], nil)
}

// Aggregator computes the total reward of a trajectory as the scaled
// sum of an ordered list of terms. No normalization or clipping is
// applied.
type Aggregator []Reward

// Validate checks that every timestep of traj holds every observation
// and command the terms read. The first missing key is reported.
func (a Aggregator) Validate(traj timestep.Trajectory) error {
	for _, r := range a {
		for _, key := range r.Requires() {
			if err := require(traj, key); err != nil {
				return fmt.Errorf("validate: %v: %w", r.Name(), err)
			}
		}
	}
	return nil
}

func require(traj timestep.Trajectory, key Key) error {
	for _, step := range traj {
		var err error
		switch key.Source {
		case timestep.Observation:
			_, err = step.Observations.Get(key.Name)
		default:
			_, err = step.Commands.Get(key.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Compute returns the rewards of traj
func (a Aggregator) Compute(traj timestep.Trajectory,
	level float64) (Result, error) {
	if err := a.Validate(traj); err != nil {
		return Result{}, fmt.Errorf("compute: %w", err)
	}

	res := Result{
		Total: make([]float64, traj.Len()),
		Names: make([]string, 0, len(a)),
		Terms: make(map[string][]float64, len(a)),
	}
	for _, r := range a {
		if _, ok := res.Terms[r.Name()]; ok {
			return Result{}, fmt.Errorf("compute: duplicate term %q", r.Name())
		}

		values, err := r.Reward(traj, level)
		if err != nil {
			return Result{}, fmt.Errorf("compute: %v: %w", r.Name(), err)
		}
		if len(values) != traj.Len() {
			return Result{}, fmt.Errorf("compute: %v: invalid number of "+
				"rewards \n\twant(%v) \n\thave(%v)", r.Name(), traj.Len(),
				len(values))
		}

		scaled := make([]float64, len(values))
		for t, v := range values {
			scaled[t] = v * r.Scale()
			res.Total[t] += scaled[t]
		}
		res.Names = append(res.Names, r.Name())
		res.Terms[r.Name()] = scaled
	}
	return res, nil
}

// column returns the named observation or command of each timestep,
// checking that it has the given width. A width of 0 accepts any width
// that is the same for all timesteps.
func column(traj timestep.Trajectory, key Key, width int) ([][]float64,
	error) {
	var col [][]float64
	var err error
	switch key.Source {
	case timestep.Observation:
		col, err = traj.Obs(key.Name)
	default:
		col, err = traj.Command(key.Name)
	}
	if err != nil {
		return nil, err
	}

	for t, v := range col {
		if width == 0 && t > 0 {
			width = len(col[0])
		}
		if width != 0 && len(v) != width {
			return nil, fmt.Errorf("column: %v %q has invalid width at "+
				"step %v \n\twant(%v) \n\thave(%v)", key.Source, key.Name, t,
				width, len(v))
		}
	}
	return col, nil
}

// indicator returns 1 if b is true and 0 otherwise
func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
