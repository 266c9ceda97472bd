// Package experiment implements the collection loop of the walking
// task: a policy is run against a physics-state provider under
// stochastic commands, and the recorded trajectories are then scored
// by the reward terms and re-evaluated by the policy.
package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/gowalk/agent"
	"github.com/samuelfneumann/gowalk/command"
	"github.com/samuelfneumann/gowalk/experiment/tracker"
	"github.com/samuelfneumann/gowalk/phase"
	"github.com/samuelfneumann/gowalk/reward"
	"github.com/samuelfneumann/gowalk/timestep"
)

// Experiment outlines structs that collect and evaluate rollouts.
// Experiments send the rewards of each evaluated trajectory to their
// Trackers, which determine which data is saved.
type Experiment interface {
	// Run collects a trajectory of the given number of timesteps,
	// continuing the current episode if one is in progress
	Run(ctx context.Context, steps int) (Segment, error)

	// Evaluate computes the rewards and PPO variables of a Segment
	Evaluate(seg Segment) (Evaluation, error)

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment
	Register(t tracker.Tracker)

	// Save all tracked data
	Save() error
}

// Segment is a trajectory collected by an Experiment together with the
// model carry before its first timestep
type Segment struct {
	Trajectory timestep.Trajectory
	Carry      agent.ModelCarry
}

// Evaluation holds the evaluation of a Segment
type Evaluation struct {
	Rewards   reward.Result
	Variables []agent.PPOVariables

	// Carry is the carry after the last timestep of the Segment
	Carry agent.ModelCarry
}

// Config represents a configuration of a Rollout
type Config struct {
	Clock    phase.Clock
	Commands command.Set
	Rewards  reward.Aggregator

	// ScanSize is the number of timesteps re-evaluated at once. The
	// model carry is threaded across consecutive chunks.
	ScanSize int

	// Level is the curriculum level in [0, 1]
	Level float64

	// Argmax selects the mode of the action distribution instead of
	// sampling
	Argmax bool
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if err := c.Clock.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.Commands.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.ScanSize <= 0 {
		return fmt.Errorf("validate: scan size must be positive, have(%v)",
			c.ScanSize)
	}
	if c.Level < 0 || c.Level > 1 {
		return fmt.Errorf("validate: curriculum level must be in [0, 1], "+
			"have(%v)", c.Level)
	}
	return nil
}
