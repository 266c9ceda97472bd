package command

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/environment"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/spatial/r1"
)

// LinearVelocity commands the robot to move along the ground. By
// convention, X is forward and Y is left. Each axis is sampled
// uniformly within its interval and independently zeroed with its own
// probability. At each step the command is resampled with probability
// SwitchProb.
type LinearVelocity struct {
	X, Y       r1.Interval
	XZeroProb  float64
	YZeroProb  float64
	SwitchProb float64
}

// NewLinearVelocity returns a new LinearVelocity command
func NewLinearVelocity(x, y r1.Interval, xZeroProb, yZeroProb,
	switchProb float64) (*LinearVelocity, error) {
	l := &LinearVelocity{x, y, xZeroProb, yZeroProb, switchProb}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("newLinearVelocity: %v", err)
	}
	return l, nil
}

// DefaultLinearVelocity returns the linear velocity command of the
// walking task, switching on average every three seconds
func DefaultLinearVelocity(ctrlDt float64) *LinearVelocity {
	return &LinearVelocity{
		X:          r1.Interval{Min: -0.3, Max: 0.7},
		Y:          r1.Interval{Min: -0.2, Max: 0.2},
		XZeroProb:  0.3,
		YZeroProb:  0.4,
		SwitchProb: ctrlDt / 3,
	}
}

// Validate checks that the command configuration is in range
func (l *LinearVelocity) Validate() error {
	if l.X.Min > l.X.Max || l.Y.Min > l.Y.Max {
		return fmt.Errorf("validate: empty velocity range x=%v y=%v", l.X,
			l.Y)
	}
	if err := validateProb("x zero probability", l.XZeroProb); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := validateProb("y zero probability", l.YZeroProb); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := validateProb("switch probability", l.SwitchProb); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	return nil
}

// Name implements the Command interface
func (l *LinearVelocity) Name() string { return timestep.LinearVelocityCmd }

// Width implements the Command interface
func (l *LinearVelocity) Width() int { return 2 }

// Initial implements the Command interface
func (l *LinearVelocity) Initial(_ environment.PhysicsState, _ float64,
	key randutils.Key) []float64 {
	return l.sample(key)
}

// Step implements the Command interface
func (l *LinearVelocity) Step(prev []float64, _ environment.PhysicsState,
	_ float64, key randutils.Key) []float64 {
	return resample(prev, l.SwitchProb, key, l.sample)
}

func (l *LinearVelocity) sample(key randutils.Key) []float64 {
	keys := key.Split(4)
	x := keys[0].Uniform(l.X.Min, l.X.Max)
	y := keys[1].Uniform(l.Y.Min, l.Y.Max)

	if keys[2].Bernoulli(l.XZeroProb) {
		x = 0
	}
	if keys[3].Bernoulli(l.YZeroProb) {
		y = 0
	}
	return []float64{x, y}
}

// AngularVelocity commands the robot to turn at a yaw rate sampled
// uniformly within [-Scale, Scale], zeroed with probability ZeroProb
// and resampled at each step with probability SwitchProb
type AngularVelocity struct {
	Scale      float64
	ZeroProb   float64
	SwitchProb float64
}

// NewAngularVelocity returns a new AngularVelocity command
func NewAngularVelocity(scale, zeroProb,
	switchProb float64) (*AngularVelocity, error) {
	a := &AngularVelocity{scale, zeroProb, switchProb}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("newAngularVelocity: %v", err)
	}
	return a, nil
}

// DefaultAngularVelocity returns the angular velocity command of the
// walking task
func DefaultAngularVelocity(ctrlDt float64) *AngularVelocity {
	return &AngularVelocity{
		Scale:      0.1,
		ZeroProb:   0.9,
		SwitchProb: ctrlDt / 3,
	}
}

// Validate checks that the command configuration is in range
func (a *AngularVelocity) Validate() error {
	if a.Scale < 0 {
		return fmt.Errorf("validate: scale must be non-negative, have(%v)",
			a.Scale)
	}
	if err := validateProb("zero probability", a.ZeroProb); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := validateProb("switch probability", a.SwitchProb); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	return nil
}

// Name implements the Command interface
func (a *AngularVelocity) Name() string { return timestep.AngularVelocityCmd }

// Width implements the Command interface
func (a *AngularVelocity) Width() int { return 1 }

// Initial implements the Command interface
func (a *AngularVelocity) Initial(_ environment.PhysicsState, _ float64,
	key randutils.Key) []float64 {
	return a.sample(key)
}

// Step implements the Command interface
func (a *AngularVelocity) Step(prev []float64, _ environment.PhysicsState,
	_ float64, key randutils.Key) []float64 {
	return resample(prev, a.SwitchProb, key, a.sample)
}

func (a *AngularVelocity) sample(key randutils.Key) []float64 {
	zeroKey, valueKey := key.Split2()
	if zeroKey.Bernoulli(a.ZeroProb) {
		return []float64{0}
	}
	return []float64{valueKey.Uniform(-a.Scale, a.Scale)}
}
