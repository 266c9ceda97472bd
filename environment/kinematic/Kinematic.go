// Package kinematic implements a physics-free physics-state provider
// for a legged robot. Joints follow the commanded positions through a
// first-order filter, the base moves exactly as commanded, and the feet
// follow the gait clock. No contact dynamics are simulated.
//
// The provider reports every observation the walking task reads, which
// makes it suitable for exercising a policy and its rewards end to end.
package kinematic

import (
	"context"
	"fmt"
	"math"

	"github.com/samuelfneumann/gowalk/environment"
	"github.com/samuelfneumann/gowalk/phase"
	"github.com/samuelfneumann/gowalk/robot"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/floatutils"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
)

const gravity = 9.81

// Config configures a kinematic Provider
type Config struct {
	Clock  phase.Clock
	Joints robot.Metadata

	// TimeConstant is the time constant, in seconds, of the filter
	// through which joint positions follow the action
	TimeConstant float64

	// Stiffness converts position error into actuator force
	Stiffness float64

	SwingHeight float64
	BaseHeight  float64
	Mass        float64

	// StanceWidth is the lateral distance of each foot from the base
	StanceWidth float64

	// InitNoise bounds the uniform offset added to the neutral pose of
	// each joint at the start of an episode
	InitNoise float64

	// Enders end episodes. Enders are consulted in order after each
	// step and the first to end the episode decides its success.
	Enders []environment.Ender
}

// Default returns the default configuration of a kinematic Provider
// for the given joints
func Default(clock phase.Clock, joints robot.Metadata) Config {
	return Config{
		Clock:        clock,
		Joints:       joints,
		TimeConstant: 0.05,
		Stiffness:    40,
		SwingHeight:  0.12,
		BaseHeight:   1.0,
		Mass:         35,
		StanceWidth:  0.1,
		InitNoise:    0.01,
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if err := c.Clock.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.Joints.Len() == 0 {
		return fmt.Errorf("validate: at least one joint required")
	}
	if c.TimeConstant <= 0 {
		return fmt.Errorf("validate: time constant must be positive, "+
			"have(%v)", c.TimeConstant)
	}
	if c.InitNoise < 0 {
		return fmt.Errorf("validate: initial noise must be non-negative, "+
			"have(%v)", c.InitNoise)
	}
	if c.Stiffness < 0 || c.Mass < 0 || c.SwingHeight < 0 {
		return fmt.Errorf("validate: stiffness, mass and swing height " +
			"must be non-negative")
	}
	return nil
}

// Provider is a kinematic physics-state provider
type Provider struct {
	config  Config
	starter environment.UniformStarter
	alpha   float64

	// forceLimits clip actuator forces, or are nil if unknown
	forceLimits []float64

	state    environment.PhysicsState
	position [3]float64
	yaw      float64
	number   int
}

// New returns a new kinematic Provider
func New(c Config) (*Provider, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	bounds := make([]r1.Interval, c.Joints.Len())
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -c.InitNoise, Max: c.InitNoise}
	}

	// Forces are not clipped if the limits are unknown
	forceLimits, _ := c.Joints.ForceLimits()

	return &Provider{
		config:      c,
		starter:     environment.NewUniformStarter(bounds),
		alpha:       1 - math.Exp(-c.Clock.CtrlDt/c.TimeConstant),
		forceLimits: forceLimits,
	}, nil
}

// Spec implements the environment.Provider interface
func (p *Provider) Spec() environment.Spec {
	j := p.config.Joints.Len()
	return environment.NewSpec(
		[]string{
			timestep.JointPositionObs,
			timestep.JointVelocityObs,
			timestep.ProjectedGravityObs,
			timestep.IMUAccObs,
			timestep.IMUGyroObs,
			timestep.FeetContactObs,
			timestep.FeetPositionObs,
			timestep.BasePositionObs,
			timestep.BaseOrientationObs,
			timestep.BaseLinearVelObs,
			timestep.BaseAngularVelObs,
			timestep.ActuatorForceObs,
			timestep.CenterOfMassVelObs,
			timestep.BaseSiteLinVelObs,
			timestep.BaseSiteAngVelObs,
			timestep.LeftFootForceObs,
			timestep.RightFootForceObs,
		},
		[]int{j, j, 3, 3, 3, 4, 6, 3, 4, 3, 3, j, 3, 3, 3, 3, 3},
	)
}

// Reset implements the environment.Provider interface. The joints start
// near the neutral pose and the robot stands still.
func (p *Provider) Reset(ctx context.Context,
	key randutils.Key) (environment.Transition, error) {
	if err := ctx.Err(); err != nil {
		return environment.Transition{}, fmt.Errorf("reset: %w", err)
	}

	qpos := p.config.Joints.Neutral()
	if p.config.InitNoise > 0 {
		floats.Add(qpos, p.starter.Start(key))
	}
	p.state = environment.PhysicsState{
		QPos: qpos,
		QVel: make([]float64, len(qpos)),
	}
	p.position = [3]float64{0, 0, p.config.BaseHeight}
	p.yaw = 0
	p.number = 0

	still := timestep.Commands{
		timestep.LinearVelocityCmd:  {0, 0},
		timestep.AngularVelocityCmd: {0},
		timestep.GaitFrequencyCmd:   {1},
	}
	obs := p.observe(still, make([]float64, len(qpos)))
	return environment.Transition{State: p.state.Clone(), Observations: obs},
		nil
}

// Step implements the environment.Provider interface
func (p *Provider) Step(ctx context.Context, action []float64,
	cmds timestep.Commands) (environment.Transition, error) {
	if err := ctx.Err(); err != nil {
		return environment.Transition{}, fmt.Errorf("step: %w", err)
	}
	if p.state.QPos == nil {
		return environment.Transition{}, fmt.Errorf("step: reset must be " +
			"called before step")
	}
	if len(action) != len(p.state.QPos) {
		return environment.Transition{}, fmt.Errorf("step: invalid action "+
			"width \n\twant(%v) \n\thave(%v)", len(p.state.QPos), len(action))
	}

	lin, err := cmds.Get(timestep.LinearVelocityCmd)
	if err != nil {
		return environment.Transition{}, fmt.Errorf("step: %w", err)
	}
	ang, err := cmds.Get(timestep.AngularVelocityCmd)
	if err != nil {
		return environment.Transition{}, fmt.Errorf("step: %w", err)
	}
	freq, err := cmds.Get(timestep.GaitFrequencyCmd)
	if err != nil {
		return environment.Transition{}, fmt.Errorf("step: %w", err)
	}
	if len(lin) != 2 || len(ang) != 1 || len(freq) != 1 {
		return environment.Transition{}, fmt.Errorf("step: invalid command "+
			"widths %v, %v and %v", len(lin), len(ang), len(freq))
	}

	dt := p.config.Clock.CtrlDt
	force := make([]float64, len(action))
	for i, target := range action {
		force[i] = p.config.Stiffness * (target - p.state.QPos[i])
		next := p.state.QPos[i] + p.alpha*(target-p.state.QPos[i])
		p.state.QVel[i] = (next - p.state.QPos[i]) / dt
		p.state.QPos[i] = next
	}
	for i, l := range p.forceLimits {
		force[i] = floatutils.Clip(force[i], -l, l)
	}

	sin, cos := math.Sincos(p.yaw)
	p.position[0] += (cos*lin[0] - sin*lin[1]) * dt
	p.position[1] += (sin*lin[0] + cos*lin[1]) * dt
	p.yaw = phase.Wrap(p.yaw + ang[0]*dt)
	p.state.Time += dt
	p.number++

	t := environment.Transition{
		State:        p.state.Clone(),
		Observations: p.observe(cmds, force),
	}
	for _, ender := range p.config.Enders {
		done, err := ender.End(&t, p.number)
		if err != nil {
			return environment.Transition{}, fmt.Errorf("step: %v", err)
		}
		if done {
			break
		}
	}
	return t, nil
}

// observe returns the observations of the current state while moving
// as cmds command
func (p *Provider) observe(cmds timestep.Commands,
	force []float64) timestep.Observations {
	lin := cmds[timestep.LinearVelocityCmd]
	ang := cmds[timestep.AngularVelocityCmd][0]
	freq := cmds[timestep.GaitFrequencyCmd][0]

	standStill := p.config.Clock.StandStill(lin, []float64{ang})
	left, right := p.config.Clock.StepPhase(p.state.Time, freq, standStill)
	leftZ := phase.DesiredFootHeight(left, p.config.SwingHeight)
	rightZ := phase.DesiredFootHeight(right, p.config.SwingHeight)
	if standStill {
		leftZ, rightZ = 0, 0
	}

	// Contact forces carry the body weight, split between the feet
	// that touch the ground
	leftContact, rightContact := leftZ <= 1e-6, rightZ <= 1e-6
	weight := p.config.Mass * gravity
	var leftForce, rightForce float64
	switch {
	case leftContact && rightContact:
		leftForce, rightForce = weight/2, weight/2
	case leftContact:
		leftForce = weight
	case rightContact:
		rightForce = weight
	}

	sin, cos := math.Sincos(p.yaw)
	worldVel := []float64{cos*lin[0] - sin*lin[1], sin*lin[0] + cos*lin[1], 0}
	halfYaw := p.yaw / 2
	w := p.config.StanceWidth

	return timestep.Observations{
		timestep.JointPositionObs:    append([]float64(nil), p.state.QPos...),
		timestep.JointVelocityObs:    append([]float64(nil), p.state.QVel...),
		timestep.ProjectedGravityObs: {0, 0, -gravity},
		timestep.IMUAccObs:           {0, 0, gravity},
		timestep.IMUGyroObs:          {0, 0, ang},
		timestep.FeetContactObs: {
			indicator(leftContact), indicator(leftContact),
			indicator(rightContact), indicator(rightContact),
		},
		timestep.FeetPositionObs:    {0, w, leftZ, 0, -w, rightZ},
		timestep.BasePositionObs:    {p.position[0], p.position[1], p.position[2]},
		timestep.BaseOrientationObs: {math.Cos(halfYaw), 0, 0, math.Sin(halfYaw)},
		timestep.BaseLinearVelObs:   worldVel,
		timestep.BaseAngularVelObs:  {0, 0, ang},
		timestep.ActuatorForceObs:   append([]float64(nil), force...),
		timestep.CenterOfMassVelObs: append([]float64(nil), worldVel...),
		timestep.BaseSiteLinVelObs:  {lin[0], lin[1], 0},
		timestep.BaseSiteAngVelObs:  {0, 0, ang},
		timestep.LeftFootForceObs:   {0, 0, leftForce},
		timestep.RightFootForceObs:  {0, 0, rightForce},
	}
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
