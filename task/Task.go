package task

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gowalk/agent"
	"github.com/samuelfneumann/gowalk/agent/recurrentac"
	"github.com/samuelfneumann/gowalk/command"
	"github.com/samuelfneumann/gowalk/environment"
	"github.com/samuelfneumann/gowalk/environment/kinematic"
	"github.com/samuelfneumann/gowalk/experiment"
	"github.com/samuelfneumann/gowalk/experiment/tracker"
	"github.com/samuelfneumann/gowalk/reward"
	"github.com/samuelfneumann/gowalk/robot"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/spatial/r1"
)

// MaxTilt is the largest angle, in radians, between the base's up axis
// and the world's before an episode fails
const MaxTilt = math.Pi / 3

// Task is a walking task built from a Config
type Task struct {
	Config    Config
	Joints    robot.Metadata
	Commands  command.Set
	Rewards   reward.Aggregator
	Evaluator agent.PPOEvaluator
}

// Build builds the task a Config describes for the K-Bot humanoid. The
// weights of the policy are initialized from key.
func Build(c Config, key randutils.Key) (*Task, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	meta, err := robot.NewMetadata(robot.KBotJoints(), c.JointLimits)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}
	if c.ForceLimits != nil {
		if meta, err = meta.WithForceLimits(c.ForceLimits); err != nil {
			return nil, fmt.Errorf("build: %v", err)
		}
	}

	lin, ang, gait := c.LinearVelocity, c.AngularVelocity, c.GaitFrequency
	commands := command.Set{&lin, &ang, &gait}

	rewards, err := reward.NewDefault(reward.Config{
		Clock:             c.Clock(),
		Joints:            meta,
		SoftLimitFraction: c.SoftLimitFraction,
		MaxFootHeight:     c.MaxFootHeight,
		Scales:            c.RewardScales,
	})
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	evaluator, err := c.Model.Create(meta, key)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	return &Task{
		Config:    c,
		Joints:    meta,
		Commands:  commands,
		Rewards:   rewards,
		Evaluator: evaluator,
	}, nil
}

// Enders returns the episode enders of the task: episodes succeed
// after the configured number of steps and fail when the base tilts
// past MaxTilt or, if joint limits are known, when a joint leaves its
// limits
func (t *Task) Enders() []environment.Ender {
	gravity := r1.Interval{Min: math.Inf(-1), Max: -9.81 * math.Cos(MaxTilt)}
	enders := []environment.Ender{
		environment.NewIntervalLimit(timestep.ProjectedGravityObs,
			[]r1.Interval{gravity}, []int{2}, false),
	}

	if t.Joints.HasLimits {
		joints := t.Joints.Joints
		enders = append(enders, environment.NewFunctionEnder(
			func(s environment.PhysicsState) bool {
				for i, q := range s.QPos {
					if q < joints[i].Limits.Min || q > joints[i].Limits.Max {
						return true
					}
				}
				return false
			}, false))
	}

	return append(enders, environment.NewStepLimit(t.Config.EpisodeSteps))
}

// Kinematic returns a kinematic provider for the task's robot
func (t *Task) Kinematic() (*kinematic.Provider, error) {
	c := kinematic.Default(t.Config.Clock(), t.Joints)
	c.SwingHeight = t.Config.MaxFootHeight
	c.Enders = t.Enders()
	return kinematic.New(c)
}

// ExperimentConfig returns the configuration of a Rollout of the task
func (t *Task) ExperimentConfig() experiment.Config {
	return experiment.Config{
		Clock:    t.Config.Clock(),
		Commands: t.Commands,
		Rewards:  t.Rewards,
		ScanSize: t.Config.ScanSize,
		Level:    t.Config.Level,
	}
}

// NewRollout returns a Rollout of the task's policy against p. The
// provider must report every observation the policy and the rewards
// read, except the phase observation which the Rollout computes.
func (t *Task) NewRollout(p environment.Provider, key randutils.Key,
	trackers ...tracker.Tracker) (*experiment.Rollout, error) {
	var required []string
	for _, name := range recurrentac.RequiredObservations() {
		if name != timestep.PhaseObs {
			required = append(required, name)
		}
	}
	for _, r := range t.Rewards {
		for _, k := range r.Requires() {
			if k.Source == timestep.Observation && k.Name != timestep.PhaseObs {
				required = append(required, k.Name)
			}
		}
	}
	if err := p.Spec().Require(required...); err != nil {
		return nil, fmt.Errorf("newRollout: %w", err)
	}

	return experiment.NewRollout(p, t.Evaluator, t.ExperimentConfig(), key,
		trackers...)
}
