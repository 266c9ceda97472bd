// Package recurrentac implements a recurrent actor-critic for legged
// locomotion. The actor outputs a per-joint mixture of Gaussians and
// the critic a scalar value; both are stacks of GRU cells whose carries
// are reset at episode boundaries.
package recurrentac

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/agent"
	"github.com/samuelfneumann/gowalk/initwfn"
	"github.com/samuelfneumann/gowalk/robot"
	"github.com/samuelfneumann/gowalk/utils/randutils"
)

func init() {
	agent.Register(agent.RecurrentActorCritic, Config{})
}

// Config implements a configuration of a recurrent actor-critic
type Config struct {
	Hidden   int // Hidden size of each GRU cell
	Depth    int // Number of stacked GRU cells
	Mixtures int // Mixture components per joint

	MinStd   float64
	MaxStd   float64
	VarScale float64

	// The critic divides joint velocities and actuator forces by these
	JointVelocityScale float64
	ActuatorForceScale float64

	Init *initwfn.InitWFn
}

// Default returns the default configuration
func Default() Config {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("default: %v", err))
	}

	return Config{
		Hidden:             128,
		Depth:              5,
		Mixtures:           5,
		MinStd:             0.01,
		MaxStd:             1.0,
		VarScale:           1.0,
		JointVelocityScale: 10,
		ActuatorForceScale: 100,
		Init:               init,
	}
}

// Type returns the type of evaluator the Config creates
func (c Config) Type() agent.Type {
	return agent.RecurrentActorCritic
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.Hidden <= 0 || c.Depth <= 0 || c.Mixtures <= 0 {
		return fmt.Errorf("validate: hidden size, depth and mixtures must "+
			"be positive, have(%v, %v, %v)", c.Hidden, c.Depth, c.Mixtures)
	}
	if !(c.MinStd > 0) {
		return fmt.Errorf("validate: minimum standard deviation must be "+
			"positive, have(%v)", c.MinStd)
	}
	if !(c.VarScale > 0) {
		return fmt.Errorf("validate: variance scale must be positive, "+
			"have(%v)", c.VarScale)
	}
	if c.MaxStd < c.MinStd*c.VarScale {
		return fmt.Errorf("validate: maximum standard deviation %v below "+
			"the scaled minimum %v", c.MaxStd, c.MinStd*c.VarScale)
	}
	if !(c.JointVelocityScale > 0) || !(c.ActuatorForceScale > 0) {
		return fmt.Errorf("validate: critic input scales must be "+
			"positive, have(%v, %v)", c.JointVelocityScale,
			c.ActuatorForceScale)
	}
	if c.Init == nil {
		return fmt.Errorf("validate: no weight initializer")
	}
	return nil
}

// Create creates a new Evaluator for a robot with the given joints.
// Weights are initialized from key.
func (c Config) Create(meta robot.Metadata, key randutils.Key) (
	agent.PPOEvaluator, error) {
	model, err := NewModel(c, meta.Len(), key)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return NewEvaluator(c, model, meta.Neutral())
}
