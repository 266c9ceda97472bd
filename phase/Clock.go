// Package phase implements a cyclic gait clock which converts elapsed
// time and a commanded stepping frequency into a per-foot phase, and
// the reference foot-height trajectory which follows from that phase.
package phase

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/floatutils"
	"gonum.org/v1/gonum/floats"
)

// Offsets of the left and right foot at time 0. The right foot leads
// the left by half a cycle.
const (
	LeftOffset  = 0.0
	RightOffset = math.Pi
)

// Frozen phase reported while standing still
const (
	StandStillLeft  = math.Pi / 2
	StandStillRight = math.Pi
)

// ObservationWidth is the width of the phase observation vector
const ObservationWidth = 4

// Clock converts elapsed episode time into the gait phase of each foot
type Clock struct {
	// CtrlDt is the duration of a single control step in seconds
	CtrlDt float64

	// StandStillThreshold is the command norm below which the robot
	// is considered to be commanded to stand still
	StandStillThreshold float64
}

// Validate checks that the Clock is usable
func (c Clock) Validate() error {
	if c.CtrlDt <= 0 {
		return fmt.Errorf("validate: control timestep must be positive, "+
			"have(%v)", c.CtrlDt)
	}
	if c.StandStillThreshold < 0 {
		return fmt.Errorf("validate: stand still threshold must be "+
			"non-negative, have(%v)", c.StandStillThreshold)
	}
	return nil
}

// Wrap wraps an angle into (-π, π]
func Wrap(x float64) float64 {
	m := math.Mod(math.Pi-x, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	if m >= 2*math.Pi {
		m = 0
	}
	return math.Pi - m
}

// Phase returns the phase of the left and right foot after elapsed
// seconds with a gait frequency of freq Hz. Both phases lie in
// (-π, π]. If standStill is true, the frozen stand-still phase is
// returned regardless of elapsed and freq.
func Phase(elapsed, freq float64, standStill bool) (left, right float64) {
	if standStill {
		return StandStillLeft, StandStillRight
	}
	advance := 2 * math.Pi * freq * elapsed
	return Wrap(LeftOffset + advance), Wrap(RightOffset + advance)
}

// CommandNorm returns the Euclidean norm of the concatenated linear
// and angular velocity commands
func CommandNorm(linVel, angVel []float64) float64 {
	return math.Hypot(floats.Norm(linVel, 2), floats.Norm(angVel, 2))
}

// StandStill returns whether the commanded velocities are small enough
// for the robot to be considered commanded to stand still
func (c Clock) StandStill(linVel, angVel []float64) bool {
	return CommandNorm(linVel, angVel) < c.StandStillThreshold
}

// Steps returns the number of whole control steps completed after
// elapsed seconds
func (c Clock) Steps(elapsed float64) float64 {
	// Guards against t/dt landing just below an integer, e.g. 0.06/0.02
	return math.Floor(elapsed/c.CtrlDt + 1e-9)
}

// StepPhase is like Phase, but first quantises elapsed time down to a
// whole number of control steps
func (c Clock) StepPhase(elapsed, freq float64, standStill bool) (left,
	right float64) {
	return Phase(c.Steps(elapsed)*c.CtrlDt, freq, standStill)
}

// CubicBezier interpolates between y0 and y1 along a cubic Bezier
// curve with control points at the endpoints, so that the derivative
// vanishes at both ends. The progress x is clipped to [0, 1].
func CubicBezier(y0, y1, x float64) float64 {
	x = floatutils.Clip(x, 0, 1)
	return y0 + (y1-y0)*(x*x*x+3*x*x*(1-x))
}

// DesiredFootHeight returns the reference height of a foot at the
// given phase. The foot rises from 0 to swingHeight over the first
// half of the cycle and descends back to 0 over the second half.
func DesiredFootHeight(phase, swingHeight float64) float64 {
	x := floatutils.Clip((phase+math.Pi)/(2*math.Pi), 0, 1)
	if x <= 0.5 {
		return CubicBezier(0, swingHeight, 2*x)
	}
	return CubicBezier(swingHeight, 0, 2*x-1)
}

// Observation returns the phase observation [cos φL, cos φR, sin φL,
// sin φR] after elapsed seconds, given the gait frequency and velocity
// commands
func (c Clock) Observation(elapsed, freq float64, linVel,
	angVel []float64) []float64 {
	left, right := Phase(elapsed, freq, c.StandStill(linVel, angVel))
	return []float64{
		math.Cos(left), math.Cos(right),
		math.Sin(left), math.Sin(right),
	}
}

// ObservationFrom is like Observation, but reads the gait frequency and
// velocity commands out of cmds
func (c Clock) ObservationFrom(cmds timestep.Commands,
	elapsed float64) ([]float64, error) {
	freq, err := cmds.Get(timestep.GaitFrequencyCmd)
	if err != nil {
		return nil, fmt.Errorf("observationFrom: %w", err)
	}
	linVel, err := cmds.Get(timestep.LinearVelocityCmd)
	if err != nil {
		return nil, fmt.Errorf("observationFrom: %w", err)
	}
	angVel, err := cmds.Get(timestep.AngularVelocityCmd)
	if err != nil {
		return nil, fmt.Errorf("observationFrom: %w", err)
	}

	return c.Observation(elapsed, freq[0], linVel, angVel), nil
}
