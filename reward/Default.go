package reward

import (
	"fmt"
	"math"
	"sort"

	"github.com/samuelfneumann/gowalk/phase"
	"github.com/samuelfneumann/gowalk/robot"
)

// Config configures the reward terms of the walking task
type Config struct {
	Clock             phase.Clock
	Joints            robot.Metadata
	SoftLimitFraction float64
	MaxFootHeight     float64

	// Scales overrides the default scale of terms by name. A scale of
	// zero removes the term.
	Scales map[string]float64
}

// DefaultScales returns the default scale of each term of the walking
// task
func DefaultScales() map[string]float64 {
	return map[string]float64{
		"stay_alive":                   1.0,
		"upright":                      1.0,
		"angular_velocity_penalty":     -0.005,
		"linear_velocity_penalty":      -0.005,
		"linear_velocity_tracking":     2.0,
		"angular_velocity_tracking":    1.0,
		"action_in_bounds":             0.01,
		"joint_position_limit_penalty": -0.01,
		"action_near_position_penalty": -0.01,
		"joint_velocity_penalty":       -0.01,
		"action_smoothness_penalty":    -0.01,
		"actuator_force_penalty":       -0.01,
		"bent_arm_penalty":             -0.1,
		"straight_leg_penalty":         -0.1,
		"feet_phase":                   2.1,
		"feet_slip_penalty":            -0.25,
		"contact_force_penalty":        -0.03,
		"stand_still":                  1.0,
		"termination_penalty":          -1.0,
	}
}

// builder constructs a term with a given scale
type builder struct {
	name  string
	build func(scale float64) (Reward, error)
}

// NewDefault returns the reward terms of the walking task
func NewDefault(c Config) (Aggregator, error) {
	if err := c.Clock.Validate(); err != nil {
		return nil, fmt.Errorf("newDefault: %v", err)
	}

	scales := DefaultScales()
	for name, s := range c.Scales {
		if _, ok := scales[name]; !ok {
			return nil, fmt.Errorf("newDefault: unknown term %q", name)
		}
		scales[name] = s
	}

	threshold := c.Clock.StandStillThreshold
	joints := c.Joints.Len()
	builders := []builder{
		{"stay_alive", func(s float64) (Reward, error) {
			return NewStayAlive(s, 10, 0), nil
		}},
		{"upright", func(s float64) (Reward, error) {
			return NewUpright(s), nil
		}},
		{"angular_velocity_penalty", func(s float64) (Reward, error) {
			return NewAngularVelocityPenalty(s, 0, 1), nil
		}},
		{"linear_velocity_penalty", func(s float64) (Reward, error) {
			return NewLinearVelocityPenalty(s, 2), nil
		}},
		{"linear_velocity_tracking", func(s float64) (Reward, error) {
			return NewLinearVelocityTracking(s, 0.25, threshold), nil
		}},
		{"angular_velocity_tracking", func(s float64) (Reward, error) {
			return NewAngularVelocityTracking(s, 0.25, threshold), nil
		}},
		{"action_in_bounds", func(s float64) (Reward, error) {
			limits, err := c.Joints.SoftLimits(1)
			if err != nil {
				return nil, err
			}
			return NewActionInBounds(s, limits), nil
		}},
		{"joint_position_limit_penalty", func(s float64) (Reward, error) {
			soft, err := c.Joints.SoftLimits(c.SoftLimitFraction)
			if err != nil {
				return nil, err
			}
			return NewJointPositionLimit(s, soft), nil
		}},
		{"action_near_position_penalty", func(s float64) (Reward, error) {
			return NewActionNearPosition(s, 2*math.Pi/180), nil
		}},
		{"joint_velocity_penalty", func(s float64) (Reward, error) {
			return NewJointVelocityPenalty(s, joints, true), nil
		}},
		{"action_smoothness_penalty", func(s float64) (Reward, error) {
			return NewActionSmoothness(s), nil
		}},
		{"actuator_force_penalty", func(s float64) (Reward, error) {
			limits, err := c.Joints.ForceLimits()
			if err != nil {
				return nil, err
			}
			return NewActuatorForce(s, limits)
		}},
		{"bent_arm_penalty", func(s float64) (Reward, error) {
			return c.deviation("bent_arm_penalty", s, robot.ArmJoints())
		}},
		{"straight_leg_penalty", func(s float64) (Reward, error) {
			return c.deviation("straight_leg_penalty", s, robot.HipJoints())
		}},
		{"feet_phase", func(s float64) (Reward, error) {
			return NewFeetPhase(s, c.Clock, c.MaxFootHeight, 0.01), nil
		}},
		{"feet_slip_penalty", func(s float64) (Reward, error) {
			return NewFeetSlip(s), nil
		}},
		{"contact_force_penalty", func(s float64) (Reward, error) {
			return NewContactForce(s, 350), nil
		}},
		{"stand_still", func(s float64) (Reward, error) {
			return NewStandStill(s, c.Joints.Neutral(), 0.01, threshold), nil
		}},
		{"termination_penalty", func(s float64) (Reward, error) {
			return NewTermination(s), nil
		}},
	}

	if len(builders) != len(scales) {
		names := make([]string, 0, len(scales))
		for name := range scales {
			names = append(names, name)
		}
		sort.Strings(names)
		panic(fmt.Sprintf("newDefault: scales %v do not match terms", names))
	}

	var agg Aggregator
	for _, b := range builders {
		s := scales[b.name]
		if s == 0 {
			continue
		}
		r, err := b.build(s)
		if err != nil {
			return nil, fmt.Errorf("newDefault: %v: %v", b.name, err)
		}
		agg = append(agg, r)
	}
	return agg, nil
}

// deviation returns a JointDeviation term holding the named joints at
// their neutral positions
func (c Config) deviation(name string, scale float64,
	joints []string) (Reward, error) {
	indices, err := c.Joints.Index(joints)
	if err != nil {
		return nil, err
	}
	neutral := c.Joints.Neutral()
	targets := make([]float64, len(indices))
	for i, idx := range indices {
		targets[i] = neutral[idx]
	}
	return NewJointDeviation(name, scale, c.Joints.Len(), indices, targets)
}
