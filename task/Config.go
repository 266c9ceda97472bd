// Package task provides the configuration of the walking task: the
// gait clock, the command generators, the reward terms, the joint
// metadata and the policy. Task configurations are JSON serializable.
package task

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/gowalk/agent"
	"github.com/samuelfneumann/gowalk/agent/recurrentac"
	"github.com/samuelfneumann/gowalk/command"
	"github.com/samuelfneumann/gowalk/phase"
	"github.com/samuelfneumann/gowalk/reward"
	"gonum.org/v1/gonum/spatial/r1"
)

// Config implements a configuration of the walking task
type Config struct {
	CtrlDt              float64
	StandStillThreshold float64

	LinearVelocity  command.LinearVelocity
	AngularVelocity command.AngularVelocity
	GaitFrequency   command.GaitFrequency

	// RewardScales overrides the scales of the default reward terms by
	// name. A scale of zero removes the term.
	RewardScales      map[string]float64
	SoftLimitFraction float64
	MaxFootHeight     float64

	// JointLimits and ForceLimits hold the position limits and actuator
	// force limits of each joint by name. Either may be omitted, in
	// which case the reward terms which need them must be disabled.
	JointLimits map[string]r1.Interval `json:",omitempty"`
	ForceLimits map[string]float64     `json:",omitempty"`

	Model agent.TypedConfig

	// RolloutLength is the number of timesteps collected per rollout and
	// ScanSize the number re-evaluated at once
	RolloutLength int
	ScanSize      int

	// EpisodeSteps ends episodes after this many steps
	EpisodeSteps int

	// Level is the curriculum level in [0, 1]
	Level float64
}

// Default returns the default configuration of the walking task. The
// joint metadata of the robot holds no position or force limits, so
// the terms which need them are disabled.
func Default() Config {
	const ctrlDt = 0.02
	return Config{
		CtrlDt:              ctrlDt,
		StandStillThreshold: 0.01,
		LinearVelocity:      *command.DefaultLinearVelocity(ctrlDt),
		AngularVelocity:     *command.DefaultAngularVelocity(ctrlDt),
		GaitFrequency:       command.GaitFrequency{Lower: 1.2, Upper: 1.5},
		RewardScales: map[string]float64{
			"action_in_bounds":             0,
			"joint_position_limit_penalty": 0,
			"actuator_force_penalty":       0,
		},
		SoftLimitFraction: 0.95,
		MaxFootHeight:     0.12,
		Model:             agent.NewTypedConfig(recurrentac.Default()),
		RolloutLength:     1000,
		ScanSize:          100,
		EpisodeSteps:      1000,
		Level:             0,
	}
}

// Load loads a Config from the JSON file at path. Fields missing from
// the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}

	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load: could not decode %v: %v", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}
	return c, nil
}

// Save writes the Config as JSON to path
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Clock returns the gait clock of the task
func (c Config) Clock() phase.Clock {
	return phase.Clock{
		CtrlDt:              c.CtrlDt,
		StandStillThreshold: c.StandStillThreshold,
	}
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if err := c.Clock().Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.LinearVelocity.Validate(); err != nil {
		return fmt.Errorf("validate: linear velocity: %v", err)
	}
	if err := c.AngularVelocity.Validate(); err != nil {
		return fmt.Errorf("validate: angular velocity: %v", err)
	}
	if err := c.GaitFrequency.Validate(); err != nil {
		return fmt.Errorf("validate: gait frequency: %v", err)
	}

	scales := reward.DefaultScales()
	for name := range c.RewardScales {
		if _, ok := scales[name]; !ok {
			return fmt.Errorf("validate: unknown reward term %q", name)
		}
	}
	if c.SoftLimitFraction <= 0 || c.SoftLimitFraction > 1 {
		return fmt.Errorf("validate: soft limit fraction must be in (0, 1], "+
			"have(%v)", c.SoftLimitFraction)
	}
	if c.MaxFootHeight < 0 {
		return fmt.Errorf("validate: maximum foot height must be "+
			"non-negative, have(%v)", c.MaxFootHeight)
	}

	if c.Model.Config == nil {
		return fmt.Errorf("validate: no model configured")
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("validate: model: %v", err)
	}

	if c.RolloutLength <= 0 || c.ScanSize <= 0 || c.EpisodeSteps <= 0 {
		return fmt.Errorf("validate: rollout length, scan size and "+
			"episode steps must be positive, have(%v, %v, %v)",
			c.RolloutLength, c.ScanSize, c.EpisodeSteps)
	}
	if c.Level < 0 || c.Level > 1 {
		return fmt.Errorf("validate: curriculum level must be in [0, 1], "+
			"have(%v)", c.Level)
	}
	return nil
}
